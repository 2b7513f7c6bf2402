package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"equiv/internal/cache"
	"equiv/internal/config"
	"equiv/internal/logging"
	"equiv/internal/model"
	"equiv/internal/score"
	"equiv/internal/services"
	"equiv/internal/trace"
)

// ContainerResolver loads container records for the parent-title retry.
type ContainerResolver interface {
	Content(ctx context.Context, uri string) (model.Content, error)
}

type titleOutcome int

const (
	titleMismatch titleOutcome = iota
	titlePartial
	titlePerfect
	titleAbstain
)

// titleSide is one side of a comparison.
type titleSide struct {
	title     string
	publisher string
	year      int
}

// Title scores how alike two titles are after normalization.
type Title struct {
	cfg       config.TitleScoring
	listings  []string
	aliases   map[string]string
	titleCap  int
	shortLen  int
	container ContainerResolver
	titles    *cache.TTL[string]
	logger    *slog.Logger
}

// NewTitle builds the title scorer. titles caches container titles by URI; a
// nil cache gets a private one with the default expiry.
func NewTitle(cfg config.TitleScoring, listings config.Listings, container ContainerResolver, titles *cache.TTL[string], logger *slog.Logger) *Title {
	if titles == nil {
		titles = cache.NewTTL[string]("container-title", cache.DefaultTTL, nil, logger)
	}
	aliases := make(map[string]string, len(listings.Aliases))
	for from, to := range listings.Aliases {
		aliases[baseTitle(from)] = baseTitle(to)
	}
	return &Title{
		cfg:       cfg,
		listings:  listings.Publishers,
		aliases:   aliases,
		titleCap:  listings.TitleCap,
		shortLen:  listings.ShortTitleLength,
		container: container,
		titles:    titles,
		logger:    logging.NewComponentLogger(logger, "scorer-title"),
	}
}

func (s *Title) Name() string { return "title" }

func (s *Title) Score(ctx context.Context, subject model.Content, candidates []model.Content) (score.Candidates[model.Content], trace.Node, error) {
	return scoreEach(ctx, s.Name(), "title scorer", subject, candidates, func(subject, candidate model.Content) (score.Score, string) {
		return s.scorePair(ctx, subject, candidate)
	})
}

func (s *Title) scorePair(ctx context.Context, subject, candidate model.Content) (score.Score, string) {
	direct, why := s.Compare(subject, candidate)
	if direct == score.Real(s.cfg.PerfectScore) {
		return direct, why
	}

	subjectListings, candidateListings := s.isListings(subject.Publisher), s.isListings(candidate.Publisher)
	if subjectListings == candidateListings {
		return direct, why
	}
	listed, other := candidate, subject
	if subjectListings {
		listed, other = subject, candidate
	}
	if len([]rune(baseTitle(listed.Title))) > s.shortLen {
		return direct, why
	}
	parent, ok := other.Parent()
	if !ok || parent.URI == "" {
		return direct, why
	}
	parentTitle, err := s.titles.GetOrLoad(ctx, parent.URI, func(ctx context.Context) (string, error) {
		c, err := s.container.Content(ctx, parent.URI)
		if err != nil {
			return "", err
		}
		return c.Title, nil
	})
	if err != nil {
		s.logger.Debug("parent title lookup failed",
			logging.String("container", parent.URI),
			logging.String("outcome", services.Outcome(err)),
			logging.Error(err),
		)
		return direct, why + "; parent title unavailable"
	}
	retry, retryWhy := s.compareSides(
		titleSide{title: listed.Title, publisher: listed.Publisher, year: listed.Year},
		titleSide{title: parentTitle, publisher: other.Publisher},
	)
	if retry.IsReal() && retry.Better(direct) {
		return retry, "parent title " + retryWhy
	}
	return direct, why
}

// Compare runs the normalization stages on both titles and stops at the first
// that decides:
//
//  1. lower-case and trim
//  2. listings rewrite rules and title cap, when either side is listings
//  3. drop any trailing "(yyyy)", when either side is listings
//  4. identical titles are a perfect match
//  5. titles of different classes (date, episode number, other) abstain
//  6. drop the record's own trailing year and rating annotations
//  7. drop sequence prefixes, rotate trailing articles, expand
//     abbreviations, drop common leading words and accents
//  8. possessive apostrophes match as a one-character wildcard
//  9. equal with or without dashes is a perfect match
//  10. equal before the first colon is a partial match, anything else a
//     mismatch
//
// The parent-title retry for short listings titles happens in Score.
func (s *Title) Compare(subject, candidate model.Content) (score.Score, string) {
	return s.compareSides(
		titleSide{title: subject.Title, publisher: subject.Publisher, year: subject.Year},
		titleSide{title: candidate.Title, publisher: candidate.Publisher, year: candidate.Year},
	)
}

func (s *Title) compareSides(subject, candidate titleSide) (score.Score, string) {
	outcome, why := s.compareTitles(subject, candidate)
	switch outcome {
	case titlePerfect:
		return score.Real(s.cfg.PerfectScore), why
	case titlePartial:
		return score.Real(s.cfg.PartialScore), why
	case titleAbstain:
		return score.Null, why
	default:
		if s.cfg.AbstainOnMismatch {
			return score.Null, why
		}
		return score.Real(s.cfg.MismatchScore), why
	}
}

func (s *Title) compareTitles(subject, candidate titleSide) (titleOutcome, string) {
	a, b := baseTitle(subject.title), baseTitle(candidate.title)
	if a == "" || b == "" {
		return titleAbstain, "missing title"
	}

	if s.isListings(subject.publisher) || s.isListings(candidate.publisher) {
		a = stripAnyTrailingYear(rewriteListings(a, s.aliases, s.titleCap))
		b = stripAnyTrailingYear(rewriteListings(b, s.aliases, s.titleCap))
	}
	if a == b {
		return titlePerfect, "identical"
	}

	if ca, cb := classify(a), classify(b); ca != cb {
		return titleAbstain, "title classes differ: " + ca.String() + " vs " + cb.String()
	}

	a = ratingNote.ReplaceAllString(stripOwnYear(a, subject.year), "")
	b = ratingNote.ReplaceAllString(stripOwnYear(b, candidate.year), "")
	a, b = expandTitle(a), expandTitle(b)

	if re, ok := possessivePattern(a); ok && re.MatchString(b) {
		return titlePerfect, "possessive match"
	}
	if re, ok := possessivePattern(b); ok && re.MatchString(a) {
		return titlePerfect, "possessive match"
	}

	if a == b || withoutDashes(a) == withoutDashes(b) || dashesAsSpaces(a) == dashesAsSpaces(b) {
		return titlePerfect, "normalized match"
	}
	if colonMatch(a, b) {
		return titlePartial, "match before colon"
	}
	return titleMismatch, fmt.Sprintf("mismatch %q vs %q", a, b)
}

func (s *Title) isListings(publisher string) bool {
	return slices.Contains(s.listings, publisher)
}
