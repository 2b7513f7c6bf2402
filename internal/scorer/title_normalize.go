package scorer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"equiv/internal/textutil"
)

type titleClass int

const (
	classDefault titleClass = iota
	classDate
	classEpisode
)

func (c titleClass) String() string {
	switch c {
	case classDate:
		return "date"
	case classEpisode:
		return "episode"
	default:
		return "default"
	}
}

var (
	oclockNews      = regexp.MustCompile(`^(\w+) o'clock news$`)
	weekendNews     = regexp.MustCompile(`^weekend news$`)
	trailingYear    = regexp.MustCompile(`\s*\((\d{4})\)$`)
	ratingNote      = regexp.MustCompile(`\s*\((?:unrated|uncut|rated|u|pg|12a?|15|18|r|nc-17)\)`)
	sequencePrefix  = regexp.MustCompile(`^\d+\.\s+`)
	trailingArticle = regexp.MustCompile(`^(.+),\s*(the|a|an)$`)

	datePattern = regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b|` +
		`\b\d{1,2}(?:st|nd|rd|th)? (?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
	episodePattern = regexp.MustCompile(`\b(?:episode|ep\.?) ?\d+\b`)
)

var expansions = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`\s*&\s*`), " and "},
	{regexp.MustCompile(`\bvs?\.?\s`), "versus "},
	// Elsewhere "st" may be a street; its dot goes with the punctuation.
	{regexp.MustCompile(`^st(?:\.\s*|\s+)`), "saint "},
	{regexp.MustCompile(`\bdr(?:\.\s*|\s+)`), "doctor "},
	{regexp.MustCompile(`\bmrs(?:\.\s*|\s+)`), "missus "},
	{regexp.MustCompile(`\bmr(?:\.\s*|\s+)`), "mister "},
}

// leadingWords are dropped from the front of a title, repeatedly, as long as
// something is left.
var leadingWords = []string{"the ", "live ", "live: ", "film: ", "new: ", "bbc ", "a "}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// baseTitle lower-cases, trims and unifies apostrophes.
func baseTitle(title string) string {
	return textutil.CollapseSpaces(strings.ToLower(apostrophes.Replace(title)))
}

// rewriteListings applies the listings rewrite rules and truncates to the
// title cap.
func rewriteListings(title string, aliases map[string]string, titleCap int) string {
	if m := oclockNews.FindStringSubmatch(title); m != nil {
		title = "news at " + m[1]
	}
	if weekendNews.MatchString(title) {
		title = "news"
	}
	if alias, ok := aliases[title]; ok {
		title = alias
	}
	if titleCap > 0 {
		if r := []rune(title); len(r) > titleCap {
			title = strings.TrimSpace(string(r[:titleCap]))
		}
	}
	return title
}

func stripAnyTrailingYear(title string) string {
	return strings.TrimSpace(trailingYear.ReplaceAllString(title, ""))
}

// stripOwnYear drops a trailing "(yyyy)" when it is the record's own year.
func stripOwnYear(title string, year int) string {
	m := trailingYear.FindStringSubmatch(title)
	if m == nil || year == 0 {
		return title
	}
	if y, err := strconv.Atoi(m[1]); err == nil && y == year {
		return strings.TrimSpace(strings.TrimSuffix(title, m[0]))
	}
	return title
}

func classify(title string) titleClass {
	switch {
	case episodePattern.MatchString(title):
		return classEpisode
	case datePattern.MatchString(title):
		return classDate
	default:
		return classDefault
	}
}

// expandTitle removes sequence prefixes, rotates trailing articles, expands
// abbreviations, drops common leading words and accents, and strips
// punctuation other than apostrophes, dashes and colons.
func expandTitle(title string) string {
	title = sequencePrefix.ReplaceAllString(title, "")
	if m := trailingArticle.FindStringSubmatch(title); m != nil {
		title = m[2] + " " + m[1]
	}
	for _, e := range expansions {
		title = e.pattern.ReplaceAllString(title, e.repl)
	}
	title = textutil.StripAccents(title)
	title = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'', r == '-', r == ':':
			return r
		case r == '.' || r == ',' || r == '!' || r == '?' || r == '"':
			return -1
		default:
			return ' '
		}
	}, title)
	title = textutil.CollapseSpaces(title)
	for stripped := true; stripped; {
		stripped = false
		for _, w := range leadingWords {
			if rest := strings.TrimSpace(strings.TrimPrefix(title, w)); rest != title && rest != "" {
				title, stripped = rest, true
			}
		}
	}
	return title
}

// possessivePattern turns each apostrophe into an optional single character
// so "homer's odyssey" also matches "homers odyssey".
func possessivePattern(title string) (*regexp.Regexp, bool) {
	if !strings.Contains(title, "'") {
		return nil, false
	}
	parts := strings.Split(title, "'")
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".?") + "$")
	if err != nil {
		return nil, false
	}
	return re, true
}

func withoutDashes(title string) string {
	return textutil.CollapseSpaces(strings.ReplaceAll(title, "-", ""))
}

func dashesAsSpaces(title string) string {
	return textutil.CollapseSpaces(strings.ReplaceAll(title, "-", " "))
}

// colonMatch implements the partial match on the part before a colon.
func colonMatch(a, b string) bool {
	ai, bi := strings.Index(a, ":"), strings.Index(b, ":")
	switch {
	case ai >= 0 && bi >= 0:
		return strings.TrimSpace(a[:ai]) == strings.TrimSpace(b[:bi])
	case ai >= 0 && len(a) > len(b):
		return strings.TrimSpace(a[:ai]) == b
	case bi >= 0 && len(b) > len(a):
		return strings.TrimSpace(b[:bi]) == a
	default:
		return false
	}
}
