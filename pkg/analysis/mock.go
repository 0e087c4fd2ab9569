package analysis

import (
	"context"
	"strings"
	"unicode"

	apperrors "github.com/auri-app/auri/pkg/errors"
)

// MockInsight is the fixed insight returned by [Mock].
const MockInsight = "This is a mock analysis for preview purposes."

// mockKeywords maps lower-case word stems to the emotion they suggest.
var mockKeywords = []struct {
	stem    string
	emotion string
}{
	{"happy", "Joy"},
	{"incredible", "Joy"},
	{"great", "Joy"},
	{"excit", "Excitement"},
	{"proud", "Pride"},
	{"love", "Love"},
	{"grateful", "Gratitude"},
	{"thank", "Gratitude"},
	{"calm", "Calm"},
	{"meditat", "Calm"},
	{"hope", "Hope"},
	{"surpris", "Surprise"},
	{"sad", "Sadness"},
	{"cry", "Sadness"},
	{"angry", "Anger"},
	{"furious", "Anger"},
	{"afraid", "Fear"},
	{"scared", "Fear"},
	{"anxious", "Anxiety"},
	{"worr", "Anxiety"},
	{"overwhelm", "Stress"},
	{"deadline", "Stress"},
	{"stress", "Stress"},
	{"lonely", "Loneliness"},
}

// Mock is an offline Analyzer. It always returns [MockInsight] and guesses
// emotions from keywords in the text.
type Mock struct{}

func (Mock) Model() string { return "mock" }

func (Mock) Analyze(ctx context.Context, text string) (Result, error) {
	if err := apperrors.ValidateEntryText(text); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	res := Result{Insight: MockInsight, Emotions: []string{}}
	seen := make(map[string]bool)
	for _, w := range words {
		for _, kw := range mockKeywords {
			if strings.HasPrefix(w, kw.stem) && !seen[kw.emotion] {
				seen[kw.emotion] = true
				res.Emotions = append(res.Emotions, kw.emotion)
			}
		}
		if len(res.Emotions) >= MaxEmotions {
			res.Emotions = res.Emotions[:MaxEmotions]
			break
		}
	}
	return res, nil
}

var _ Analyzer = Mock{}
