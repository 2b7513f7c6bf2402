package config

import "time"

// BroadcastMatching configures the broadcast generator and scorer.
type BroadcastMatching struct {
	// WindowMinutes widens each subject broadcast on both sides when
	// resolving schedules.
	WindowMinutes int `toml:"window_minutes"`
	// ToleranceMinutes is the allowed start offset for normal broadcasts.
	ToleranceMinutes int `toml:"tolerance_minutes"`
	// ShortToleranceMinutes applies when either broadcast is shorter than
	// ShortBroadcastMinutes.
	ShortToleranceMinutes int `toml:"short_tolerance_minutes"`
	ShortBroadcastMinutes int `toml:"short_broadcast_minutes"`
	// MaxScore is the overriding score given to the matched slot.
	MaxScore float64 `toml:"max_score"`
	// EarliestHours and LatestHours restrict which broadcasts are matched,
	// relative to now. Zero disables the bound.
	EarliestHours int `toml:"earliest_hours"`
	LatestHours   int `toml:"latest_hours"`
	// Scorer outcomes.
	MatchScore    float64 `toml:"match_score"`
	PartialScore  float64 `toml:"partial_score"`
	MismatchScore float64 `toml:"mismatch_score"`
}

// Window returns WindowMinutes as a duration.
func (b BroadcastMatching) Window() time.Duration {
	return time.Duration(b.WindowMinutes) * time.Minute
}

// Tolerance returns ToleranceMinutes as a duration.
func (b BroadcastMatching) Tolerance() time.Duration {
	return time.Duration(b.ToleranceMinutes) * time.Minute
}

// ShortTolerance returns ShortToleranceMinutes as a duration.
func (b BroadcastMatching) ShortTolerance() time.Duration {
	return time.Duration(b.ShortToleranceMinutes) * time.Minute
}

// ShortBroadcast returns ShortBroadcastMinutes as a duration.
func (b BroadcastMatching) ShortBroadcast() time.Duration {
	return time.Duration(b.ShortBroadcastMinutes) * time.Minute
}

// ToleranceFor returns the start offset allowed between two slots of the
// given lengths. Short slots on either side use the tighter tolerance.
func (b BroadcastMatching) ToleranceFor(subject, candidate time.Duration) time.Duration {
	if subject < b.ShortBroadcast() || candidate < b.ShortBroadcast() {
		return b.ShortTolerance()
	}
	return b.Tolerance()
}

// TitleScoring configures the title scorer.
type TitleScoring struct {
	PerfectScore      float64 `toml:"perfect_score"`
	PartialScore      float64 `toml:"partial_score"`
	MismatchScore     float64 `toml:"mismatch_score"`
	AbstainOnMismatch bool    `toml:"abstain_on_mismatch"`
}

// WordScoring configures the description and description-title scorers.
type WordScoring struct {
	MatchRatio    float64 `toml:"match_ratio"`
	PartialRatio  float64 `toml:"partial_ratio"`
	MatchScore    float64 `toml:"match_score"`
	PartialScore  float64 `toml:"partial_score"`
	MismatchScore float64 `toml:"mismatch_score"`
}

// EditDistanceScoring configures the edit-distance title scorer.
type EditDistanceScoring struct {
	PerfectSimilarity float64 `toml:"perfect_similarity"`
	PartialSimilarity float64 `toml:"partial_similarity"`
	PerfectScore      float64 `toml:"perfect_score"`
	PartialScore      float64 `toml:"partial_score"`
}

// SequenceScoring configures the series/episode number scorer.
type SequenceScoring struct {
	MatchScore    float64 `toml:"match_score"`
	MismatchScore float64 `toml:"mismatch_score"`
}

// FilmFilter configures the film year filter.
type FilmFilter struct {
	YearTolerance int `toml:"year_tolerance"`
}

// Combiner configures how per-source scores become a decision.
type Combiner struct {
	Mode            string             `toml:"mode"`
	StrongThreshold float64            `toml:"strong_threshold"`
	Weights         map[string]float64 `toml:"weights"`
	Required        []string           `toml:"required"`
	OnePerPublisher bool               `toml:"one_per_publisher"`
}

// Weight returns the configured weight for source, 1 when unset.
func (c Combiner) Weight(source string) float64 {
	if w, ok := c.Weights[source]; ok {
		return w
	}
	return 1
}

// Pipeline is one publisher/content-kind pairing with its strategy chain.
type Pipeline struct {
	Name             string   `toml:"name"`
	Publisher        string   `toml:"publisher"`
	Kinds            []string `toml:"kinds"`
	TargetPublishers []string `toml:"target_publishers"`
	Generators       []string `toml:"generators"`
	Scorers          []string `toml:"scorers"`
	Filters          []string `toml:"filters"`
	IntervalSeconds  int      `toml:"interval_seconds"`
	Disabled         bool     `toml:"disabled"`

	Broadcast        BroadcastMatching   `toml:"broadcast"`
	Title            TitleScoring        `toml:"title"`
	Description      WordScoring         `toml:"description"`
	DescriptionTitle WordScoring         `toml:"description_title"`
	EditDistance     EditDistanceScoring `toml:"edit_distance"`
	Sequence         SequenceScoring     `toml:"sequence"`
	Film             FilmFilter          `toml:"film"`
	Combiner         Combiner            `toml:"combiner"`
}

// Interval returns the pause between passes.
func (p Pipeline) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}
