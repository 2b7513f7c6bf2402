package score

import (
	"encoding/json"
	"math"
	"testing"
)

type uriOnly string

func (u uriOnly) CanonicalURI() string { return string(u) }

func TestAddIsCommutativeWithNullIdentity(t *testing.T) {
	values := []Score{Null, NaN, Real(0), Real(1.5), Real(-2)}
	for _, a := range values {
		for _, b := range values {
			ab, ba := a.Add(b), b.Add(a)
			if ab != ba {
				t.Fatalf("%s + %s = %s but %s + %s = %s", a, b, ab, b, a, ba)
			}
		}
		if got := a.Add(Null); got != a {
			t.Fatalf("%s + null = %s, want %s", a, got, a)
		}
	}
}

func TestAddNaNAbsorbs(t *testing.T) {
	if got := Real(3).Add(NaN); !got.IsNaN() {
		t.Fatalf("expected NaN, got %s", got)
	}
	if got := Null.Add(NaN); !got.IsNaN() {
		t.Fatalf("expected NaN, got %s", got)
	}
}

func TestNullDistinctFromZero(t *testing.T) {
	if Null.IsReal() {
		t.Fatal("null must not be real")
	}
	zero := Real(0)
	if !zero.IsReal() {
		t.Fatal("zero must be real")
	}
	if v, ok := Null.Value(); ok || v != 0 {
		t.Fatalf("null value = %v, %v", v, ok)
	}
	if Sum(Null, Null).IsReal() {
		t.Fatal("sum of nulls must stay null")
	}
	if !Sum(Null, zero).IsReal() {
		t.Fatal("sum with a real zero must be real")
	}
}

func TestRealRejectsNonFinite(t *testing.T) {
	if !Real(math.NaN()).IsNaN() {
		t.Fatal("NaN input should produce NaN score")
	}
	if !Real(math.Inf(1)).IsNaN() {
		t.Fatal("infinite input should produce NaN score")
	}
}

func TestBetterOrdering(t *testing.T) {
	tests := []struct {
		name      string
		candidate Score
		incumbent Score
		want      bool
	}{
		{"higher real", Real(2), Real(1), true},
		{"equal real keeps incumbent", Real(1), Real(1), false},
		{"real beats null", Real(-1), Null, true},
		{"null loses to real", Null, Real(-1), false},
		{"nan never better", NaN, Null, false},
		{"anything ranked beats nan", Null, NaN, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.candidate.Better(tt.incumbent); got != tt.want {
				t.Fatalf("Better(%s, %s) = %v, want %v", tt.candidate, tt.incumbent, got, tt.want)
			}
		})
	}
}

func TestBestNeverSelectsNaN(t *testing.T) {
	set := NewBuilder[uriOnly]("test").
		Update("a", NaN).
		Update("b", Null).
		Build()
	best, s, ok := set.Best()
	if !ok || best != "b" || !s.IsNull() {
		t.Fatalf("unexpected best %q %s %v", best, s, ok)
	}

	onlyNaN := NewBuilder[uriOnly]("test").Update("a", NaN).Build()
	if _, _, ok := onlyNaN.Best(); ok {
		t.Fatal("NaN-only set must not yield a best candidate")
	}
}

func TestBuilderAddAccumulatesAndUpdateOverrides(t *testing.T) {
	b := NewBuilder[uriOnly]("gen")
	b.Add("x", Real(1)).Add("x", Real(0.5)).Add("y", Null)
	b.Update("z", Real(4)).Update("z", Real(1))

	set := b.Build()
	if set.Source() != "gen" {
		t.Fatalf("unexpected source %q", set.Source())
	}
	want := map[string]Score{"x": Real(1.5), "y": Null, "z": Real(1)}
	for uri, expected := range want {
		got, ok := set.Score(uri)
		if !ok || got != expected {
			t.Fatalf("score(%s) = %s, %v; want %s", uri, got, ok, expected)
		}
	}
	order := set.Candidates()
	if len(order) != 3 || order[0] != "x" || order[1] != "y" || order[2] != "z" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestBuildIsImmutable(t *testing.T) {
	b := NewBuilder[uriOnly]("gen").Add("x", Real(1))
	first := b.Build()
	b.Add("x", Real(1)).Add("y", Real(1))

	if first.Len() != 1 {
		t.Fatalf("built set changed length to %d", first.Len())
	}
	if s, _ := first.Score("x"); s != Real(1) {
		t.Fatalf("built set score changed to %s", s)
	}
}

func TestJSONRoundTripKeepsKinds(t *testing.T) {
	in := []Score{Real(2), Null, NaN, Real(-0.25)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[2,null,"NaN",-0.25]` {
		t.Fatalf("unexpected encoding %s", data)
	}
	var out []Score
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("index %d: got %s want %s", i, out[i], in[i])
		}
	}
}

func TestMaxIgnoresNullAndNaN(t *testing.T) {
	if got := Max(Null, NaN, Real(1), Real(3)); got != Real(3) {
		t.Fatalf("Max = %s", got)
	}
	if got := Max(Null, NaN); !got.IsNull() {
		t.Fatalf("Max of non-real = %s, want null", got)
	}
}
