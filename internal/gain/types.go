// Package gain implements the specialization-gain domain model: per-group
// accuracy accumulation over experiment log records and the derived
// generalist-vs-specialist deltas that feed the paper artifacts.
package gain

import "fmt"

// Family is a modulation family. The set is closed: unrecognized values are
// rejected at the parse boundary, never passed through as strings.
type Family int

const (
	FamilyPSK Family = iota
	FamilyQAM
	FamilyAnalog
)

// Families returns all families in canonical (emission) order.
func Families() []Family {
	return []Family{FamilyPSK, FamilyQAM, FamilyAnalog}
}

// ParseFamily maps a log-record value to a Family. Matching is exact and
// lowercase, mirroring the harness's field normalization.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "psk":
		return FamilyPSK, nil
	case "qam":
		return FamilyQAM, nil
	case "analog":
		return FamilyAnalog, nil
	}
	return 0, fmt.Errorf("unknown modulation family %q", s)
}

func (f Family) String() string {
	switch f {
	case FamilyPSK:
		return "psk"
	case FamilyQAM:
		return "qam"
	case FamilyAnalog:
		return "analog"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// MacroPrefix is the TeX macro prefix for the family (e.g. \PSKGain).
func (f Family) MacroPrefix() string {
	switch f {
	case FamilyPSK:
		return "PSK"
	case FamilyQAM:
		return "QAM"
	case FamilyAnalog:
		return "Analog"
	}
	return ""
}

// Role distinguishes the single cross-family classifier from the
// per-family ones.
type Role int

const (
	RoleGeneralist Role = iota
	RoleSpecialist
)

func ParseRole(s string) (Role, error) {
	switch s {
	case "generalist":
		return RoleGeneralist, nil
	case "specialist":
		return RoleSpecialist, nil
	}
	return 0, fmt.Errorf("unknown model role %q", s)
}

func (r Role) String() string {
	if r == RoleSpecialist {
		return "specialist"
	}
	return "generalist"
}

// Routing is the mechanism that decided which specialist handled a signal:
// oracle uses ground-truth family labels, predicted uses an upstream
// classifier's guess.
type Routing int

const (
	RoutingOracle Routing = iota
	RoutingPredicted
)

func ParseRouting(s string) (Routing, error) {
	switch s {
	case "oracle":
		return RoutingOracle, nil
	case "predicted":
		return RoutingPredicted, nil
	}
	return 0, fmt.Errorf("unknown routing mode %q", s)
}

func (m Routing) String() string {
	if m == RoutingPredicted {
		return "predicted"
	}
	return "oracle"
}

// Record is one validated classification outcome from the experiment logs.
// Predicted is only meaningful when HasPredicted is set; records without it
// still contribute to accuracy but not to confusion deltas.
type Record struct {
	Family       Family
	Role         Role
	Routing      Routing
	Correct      bool
	Predicted    Family
	HasPredicted bool
}

// Key identifies one accuracy bucket.
type Key struct {
	Family  Family
	Role    Role
	Routing Routing
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Family, k.Role, k.Routing)
}

// AccuracyStat is the aggregated outcome for one Key. Accuracy is only
// meaningful when Defined is true (NTotal > 0); it is never a silent NaN.
type AccuracyStat struct {
	Key      Key
	NTotal   uint64
	NCorrect uint64
	Accuracy float64
	Defined  bool
}

// Gain is the specialization gain for one (family, routing) pair.
// DeltaPP is the accuracy improvement in absolute percentage points.
type Gain struct {
	Family             Family
	Routing            Routing
	GeneralistAccuracy float64
	SpecialistAccuracy float64
	DeltaPP            float64
}

// ConfusionDelta is the specialist-minus-generalist count change for one
// (predicted, true) confusion cell. Negative off-diagonal deltas mean the
// specialists confuse that family pair less often.
type ConfusionDelta struct {
	Predicted Family
	True      Family
	Delta     int64
}

// Provenance tags a Summary as measured data or the fixed placeholder set.
// The distinction is carried explicitly so the emitter can never lose it.
type Provenance int

const (
	Real Provenance = iota
	Placeholder
)

func (p Provenance) String() string {
	if p == Placeholder {
		return "placeholder"
	}
	return "measured"
}

// Summary is the complete aggregation result handed to the artifact emitter.
// Slices are sorted by key, so identical input multisets produce identical
// summaries regardless of record arrival order.
type Summary struct {
	Provenance      Provenance
	Stats           []AccuracyStat
	Gains           []Gain
	ConfusionDeltas []ConfusionDelta
	Warnings        []string
}

// Stat returns the stat for the given key, if observed.
func (s *Summary) Stat(k Key) (AccuracyStat, bool) {
	for _, st := range s.Stats {
		if st.Key == k {
			return st, true
		}
	}
	return AccuracyStat{}, false
}

// GainFor returns the gain for a (family, routing) pair, if derived.
func (s *Summary) GainFor(f Family, m Routing) (Gain, bool) {
	for _, g := range s.Gains {
		if g.Family == f && g.Routing == m {
			return g, true
		}
	}
	return Gain{}, false
}

// RoutingModes returns the routing modes observed in the stats, in canonical
// order.
func (s *Summary) RoutingModes() []Routing {
	seen := map[Routing]bool{}
	for _, st := range s.Stats {
		seen[st.Key.Routing] = true
	}
	var modes []Routing
	for _, m := range []Routing{RoutingOracle, RoutingPredicted} {
		if seen[m] {
			modes = append(modes, m)
		}
	}
	return modes
}
