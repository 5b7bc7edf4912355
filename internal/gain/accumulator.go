package gain

import (
	"fmt"
	"sort"
)

type counters struct {
	total   uint64
	correct uint64
}

type confusionCell struct {
	role      Role
	predicted Family
	trueFam   Family
}

// Accumulator collects per-group counters over a single run. It is an
// explicit, run-scoped object: callers create one per pipeline run and pass
// it through the stages. Not safe for concurrent use; parallel readers each
// own an Accumulator and Merge afterwards.
type Accumulator struct {
	counts    map[Key]counters
	confusion map[confusionCell]int64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		counts:    make(map[Key]counters),
		confusion: make(map[confusionCell]int64),
	}
}

// Add folds one record into the counters. Accuracy is not computed here;
// Finalize derives it once from the integer totals, so the result cannot
// drift with accumulation order.
func (a *Accumulator) Add(r Record) {
	k := Key{Family: r.Family, Role: r.Role, Routing: r.Routing}
	c := a.counts[k]
	c.total++
	if r.Correct {
		c.correct++
	}
	a.counts[k] = c

	if r.HasPredicted {
		a.confusion[confusionCell{role: r.Role, predicted: r.Predicted, trueFam: r.Family}]++
	}
}

// Merge folds another accumulator into this one. Counter addition is
// commutative, which is what makes parallel per-file reads order-independent.
func (a *Accumulator) Merge(other *Accumulator) {
	for k, oc := range other.counts {
		c := a.counts[k]
		c.total += oc.total
		c.correct += oc.correct
		a.counts[k] = c
	}
	for cell, n := range other.confusion {
		a.confusion[cell] += n
	}
}

// Empty reports whether no records were accumulated. The caller uses this as
// the signal to fall back to the placeholder set.
func (a *Accumulator) Empty() bool {
	return len(a.counts) == 0
}

// Total returns the number of accumulated records.
func (a *Accumulator) Total() uint64 {
	var n uint64
	for _, c := range a.counts {
		n += c.total
	}
	return n
}

// Finalize computes accuracies and derives gains and confusion deltas.
// Output slices are sorted by key, so the summary is a pure function of the
// accumulated multiset.
func (a *Accumulator) Finalize(p Provenance) *Summary {
	s := &Summary{Provenance: p}

	keys := make([]Key, 0, len(a.counts))
	for k := range a.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Family != keys[j].Family {
			return keys[i].Family < keys[j].Family
		}
		if keys[i].Role != keys[j].Role {
			return keys[i].Role < keys[j].Role
		}
		return keys[i].Routing < keys[j].Routing
	})

	for _, k := range keys {
		c := a.counts[k]
		st := AccuracyStat{Key: k, NTotal: c.total, NCorrect: c.correct}
		if c.total > 0 {
			st.Accuracy = float64(c.correct) / float64(c.total)
			st.Defined = true
		}
		s.Stats = append(s.Stats, st)
	}

	a.deriveGains(s)
	a.deriveConfusionDeltas(s)
	return s
}

// deriveGains emits one Gain per (family, routing) pair where both roles have
// defined accuracy. A pair with exactly one role present gets a warning and
// no gain; a pair with neither is simply absent.
func (a *Accumulator) deriveGains(s *Summary) {
	for _, fam := range Families() {
		for _, mode := range []Routing{RoutingOracle, RoutingPredicted} {
			gen, genOK := s.Stat(Key{Family: fam, Role: RoleGeneralist, Routing: mode})
			spec, specOK := s.Stat(Key{Family: fam, Role: RoleSpecialist, Routing: mode})
			genOK = genOK && gen.Defined
			specOK = specOK && spec.Defined
			switch {
			case genOK && specOK:
				s.Gains = append(s.Gains, Gain{
					Family:             fam,
					Routing:            mode,
					GeneralistAccuracy: gen.Accuracy,
					SpecialistAccuracy: spec.Accuracy,
					DeltaPP:            (spec.Accuracy - gen.Accuracy) * 100.0,
				})
			case genOK:
				s.Warnings = append(s.Warnings, fmt.Sprintf(
					"%s/%s: no specialist data; gain omitted", fam, mode))
			case specOK:
				s.Warnings = append(s.Warnings, fmt.Sprintf(
					"%s/%s: no generalist data; gain omitted", fam, mode))
			}
		}
	}
}

// deriveConfusionDeltas computes specialist-minus-generalist counts per
// (predicted, true) cell. Records without predicted-family information never
// reach the confusion map, so an empty map degrades to an empty delta set.
func (a *Accumulator) deriveConfusionDeltas(s *Summary) {
	type pair struct{ predicted, trueFam Family }
	deltas := make(map[pair]int64)
	for cell, n := range a.confusion {
		p := pair{cell.predicted, cell.trueFam}
		if cell.role == RoleSpecialist {
			deltas[p] += n
		} else {
			deltas[p] -= n
		}
	}
	pairs := make([]pair, 0, len(deltas))
	for p := range deltas {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].predicted != pairs[j].predicted {
			return pairs[i].predicted < pairs[j].predicted
		}
		return pairs[i].trueFam < pairs[j].trueFam
	})
	for _, p := range pairs {
		s.ConfusionDeltas = append(s.ConfusionDeltas, ConfusionDelta{
			Predicted: p.predicted,
			True:      p.trueFam,
			Delta:     deltas[p],
		})
	}
}
