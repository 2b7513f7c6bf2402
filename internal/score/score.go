package score

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

type kind uint8

const (
	kindNull kind = iota
	kindReal
	kindNaN
)

// Score is a tri-state confidence value. The zero value is Null.
type Score struct {
	kind  kind
	value float64
}

var (
	// Null marks a signal that abstained.
	Null = Score{}
	// NaN marks a signal that found no relationship at all.
	NaN = Score{kind: kindNaN}
)

// Real returns a real score. Non-finite inputs collapse to NaN.
func Real(v float64) Score {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NaN
	}
	return Score{kind: kindReal, value: v}
}

// IsReal reports whether the score carries a finite value.
func (s Score) IsReal() bool { return s.kind == kindReal }

// IsNull reports whether the score is an abstention.
func (s Score) IsNull() bool { return s.kind == kindNull }

// IsNaN reports whether the score explicitly rejects the relationship.
func (s Score) IsNaN() bool { return s.kind == kindNaN }

// Value returns the numeric value; ok is false unless the score is real.
func (s Score) Value() (float64, bool) {
	if s.kind != kindReal {
		return 0, false
	}
	return s.value, true
}

// Add sums two scores. Null is the identity and NaN absorbs.
func (s Score) Add(other Score) Score {
	switch {
	case s.kind == kindNaN || other.kind == kindNaN:
		return NaN
	case s.kind == kindNull:
		return other
	case other.kind == kindNull:
		return s
	default:
		return Real(s.value + other.value)
	}
}

// Scale multiplies a real score by factor. Null and NaN pass through.
func (s Score) Scale(factor float64) Score {
	if s.kind != kindReal {
		return s
	}
	return Real(s.value * factor)
}

// Better reports whether s should replace incumbent when picking a best
// candidate. NaN is never better and never loses its place to be ranked.
func (s Score) Better(incumbent Score) bool {
	switch {
	case s.kind == kindNaN:
		return false
	case incumbent.kind == kindNaN:
		return true
	case s.kind == kindNull:
		return false
	case incumbent.kind == kindNull:
		return true
	default:
		return s.value > incumbent.value
	}
}

// AtLeast reports whether s is real and not below threshold.
func (s Score) AtLeast(threshold float64) bool {
	return s.kind == kindReal && s.value >= threshold
}

// Max returns the best score of the inputs, Null when none are real.
func Max(scores ...Score) Score {
	best := Null
	for _, s := range scores {
		if s.IsReal() && s.Better(best) {
			best = s
		}
	}
	return best
}

// Sum folds scores with Add.
func Sum(scores ...Score) Score {
	total := Null
	for _, s := range scores {
		total = total.Add(s)
	}
	return total
}

func (s Score) String() string {
	switch s.kind {
	case kindReal:
		return strconv.FormatFloat(s.value, 'f', -1, 64)
	case kindNaN:
		return "NaN"
	default:
		return "null"
	}
}

// MarshalJSON encodes real scores as numbers, Null as null and NaN as "NaN".
func (s Score) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case kindReal:
		return []byte(strconv.FormatFloat(s.value, 'g', -1, 64)), nil
	case kindNaN:
		return []byte(`"NaN"`), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (s *Score) UnmarshalJSON(data []byte) error {
	if s == nil {
		return errors.New("score: unmarshal into nil pointer")
	}
	switch string(data) {
	case "null":
		*s = Null
		return nil
	case `"NaN"`:
		*s = NaN
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	*s = Real(v)
	return nil
}
