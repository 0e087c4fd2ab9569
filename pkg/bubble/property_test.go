package bubble

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func inputsFrom(freqs []int) []Input {
	in := make([]Input, len(freqs))
	for i, f := range freqs {
		in[i] = Input{Label: string(rune('a' + i%26)), Frequency: f}
	}
	return in
}

// TestLayoutInvariants checks properties that must hold for any input.
func TestLayoutInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)
	freqs := gen.SliceOf(gen.IntRange(0, 1000))

	properties.Property("no two bubbles overlap", prop.ForAll(
		func(fs []int) bool {
			got, err := Layout(inputsFrom(fs))
			if err != nil {
				return false
			}
			for i := range got {
				for j := i + 1; j < len(got); j++ {
					if got[i].Overlaps(got[j]) {
						return false
					}
				}
			}
			return true
		},
		freqs,
	))

	properties.Property("every input is placed once", prop.ForAll(
		func(fs []int) bool {
			got, err := Layout(inputsFrom(fs))
			if err != nil || len(got) != len(fs) {
				return false
			}
			seen := make(map[int]int)
			for _, f := range fs {
				seen[f]++
			}
			for _, b := range got {
				seen[b.Frequency]--
			}
			for _, n := range seen {
				if n != 0 {
					return false
				}
			}
			return true
		},
		freqs,
	))

	properties.Property("sizes are non-increasing in placement order", prop.ForAll(
		func(fs []int) bool {
			got, err := Layout(inputsFrom(fs))
			if err != nil {
				return false
			}
			for i := 1; i < len(got); i++ {
				if got[i].Size > got[i-1].Size {
					return false
				}
			}
			return true
		},
		freqs,
	))

	properties.Property("layout is deterministic", prop.ForAll(
		func(fs []int) bool {
			a, errA := Layout(inputsFrom(fs))
			b, errB := Layout(inputsFrom(fs))
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		freqs,
	))

	properties.Property("input order does not change positions", prop.ForAll(
		func(fs []int, seed int64) bool {
			in := inputsFrom(distinct(fs))
			shuffled := append([]Input(nil), in...)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			a, errA := Layout(in)
			b, errB := Layout(shuffled)
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		freqs,
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// distinct drops repeated frequencies so the placement order is unique.
func distinct(fs []int) []int {
	seen := make(map[int]bool, len(fs))
	out := make([]int, 0, len(fs))
	for _, f := range fs {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
