// Package emotion turns tagged journal entries into bubble inputs.
//
// Labels are normalised to title case so "joy", "JOY" and " Joy " count as
// one emotion. A [Filter] restricts the count to positive or negative
// emotions using a fixed valence lexicon.
package emotion

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/auri-app/auri/pkg/bubble"
	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/journal"
)

// Filter selects which emotions are counted.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterPositive Filter = "positive"
	FilterNegative Filter = "negative"
)

// Filters lists the accepted filter values in display order.
var Filters = []Filter{FilterAll, FilterPositive, FilterNegative}

// Label is the menu title for the filter.
func (f Filter) Label() string {
	switch f {
	case FilterPositive:
		return "Positive"
	case FilterNegative:
		return "Negative"
	default:
		return "All Entries"
	}
}

// ParseFilter parses a filter name. The empty string and the menu title
// "All Entries" select [FilterAll]. Matching is case-insensitive.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "all entries":
		return FilterAll, nil
	case "positive":
		return FilterPositive, nil
	case "negative":
		return FilterNegative, nil
	}
	return "", apperrors.New(apperrors.ErrCodeInvalidFilter,
		"unknown filter %q (want all, positive or negative)", s)
}

// Valence is the polarity of an emotion.
type Valence int

const (
	Neutral Valence = iota
	Positive
	Negative
)

var lexicon = map[string]Valence{
	"Joy":           Positive,
	"Love":          Positive,
	"Surprise":      Positive,
	"Gratitude":     Positive,
	"Calm":          Positive,
	"Hope":          Positive,
	"Pride":         Positive,
	"Excitement":    Positive,
	"Contentment":   Positive,
	"Relief":        Positive,
	"Determination": Positive,
	"Sadness":       Negative,
	"Anger":         Negative,
	"Fear":          Negative,
	"Anxiety":       Negative,
	"Stress":        Negative,
	"Loneliness":    Negative,
	"Frustration":   Negative,
	"Guilt":         Negative,
	"Shame":         Negative,
	"Overwhelm":     Negative,
}

// ValenceOf returns the polarity of a label. Unknown labels are Neutral.
func ValenceOf(label string) Valence {
	return lexicon[Normalize(label)]
}

// Match reports whether label passes the filter. Neutral labels pass only
// [FilterAll].
func (f Filter) Match(label string) bool {
	switch f {
	case FilterPositive:
		return ValenceOf(label) == Positive
	case FilterNegative:
		return ValenceOf(label) == Negative
	default:
		return true
	}
}

var lower = cases.Lower(language.Und)

// Normalize trims a label, collapses inner whitespace and title-cases each
// word: "  self-DOUBT " becomes "Self-doubt". Labels are composed to NFC
// first, so a decomposed "e\u0301lan" and "élan" count as one emotion.
func Normalize(label string) string {
	words := strings.Fields(norm.NFC.String(label))
	for i, w := range words {
		r := []rune(lower.String(w))
		r[0] = unicode.ToTitle(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Count reports how many entries carry each emotion, sorted by frequency
// (descending) then label, ready for [bubble.Layout]. A tag repeated within
// one entry, in any spelling, counts once.
func Count(entries []journal.Entry, f Filter) []bubble.Input {
	var labels []string
	for _, e := range entries {
		seen := make(map[string]bool, len(e.Emotions))
		for _, l := range e.Emotions {
			n := Normalize(l)
			if seen[n] {
				continue
			}
			seen[n] = true
			labels = append(labels, n)
		}
	}
	return CountLabels(labels, f)
}

// CountLabels tallies raw labels. Empty labels are ignored.
func CountLabels(labels []string, f Filter) []bubble.Input {
	counts := make(map[string]int)
	for _, l := range labels {
		n := Normalize(l)
		if n == "" || !f.Match(n) {
			continue
		}
		counts[n]++
	}

	out := make([]bubble.Input, 0, len(counts))
	for label, freq := range counts {
		out = append(out, bubble.Input{Label: label, Frequency: freq})
	}
	Sort(out)
	return out
}

// Sort orders inputs by frequency descending, breaking ties by label.
func Sort(inputs []bubble.Input) {
	slices.SortFunc(inputs, func(a, b bubble.Input) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
}

// Sample returns the demo emotion counts shown on an empty analysis screen.
func Sample() []bubble.Input {
	return []bubble.Input{
		{Label: "Joy", Frequency: 10},
		{Label: "Sadness", Frequency: 5},
		{Label: "Anger", Frequency: 3},
		{Label: "Fear", Frequency: 2},
		{Label: "Surprise", Frequency: 4},
		{Label: "Love", Frequency: 8},
		{Label: "Anxiety", Frequency: 6},
	}
}

// FilterInputs keeps the inputs whose labels pass f.
func FilterInputs(inputs []bubble.Input, f Filter) []bubble.Input {
	out := make([]bubble.Input, 0, len(inputs))
	for _, in := range inputs {
		if f.Match(in.Label) {
			out = append(out, in)
		}
	}
	return out
}

// String implements fmt.Stringer.
func (v Valence) String() string {
	switch v {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	case Neutral:
		return "neutral"
	}
	return fmt.Sprintf("Valence(%d)", int(v))
}
