package workout

import "strings"

// Keyword groups are tested in order; the first group with a substring match
// wins. Matching is lowercase substring, not whole-word, so a label like
// "power-lifting-yoga-flow" resolves to whichever group is tested first.
var (
	yogaKeywords = []string{"yoga"}

	liftingKeywords = []string{"weight", "strength", "lifting", "bodybuilding", "crosstraining"}

	// Strava reports generic gym sessions as "Workout", which in practice
	// means a lifting session. Only the webhook path accepts it.
	remoteLiftingKeywords = append([]string{"workout"}, liftingKeywords...)

	cardioKeywords = []string{
		"run", "ride", "cycling", "bike", "swim", "cardio", "hiit",
		"treadmill", "stair", "rowing", "elliptical", "walking",
	}
)

// Classify maps a free-text activity-type label to a Category.
// Unmatched labels default to CategoryOther.
func Classify(label string) Category {
	return classify(label, liftingKeywords)
}

// ClassifyRemote is the webhook-path variant of Classify: identical except
// that "workout" also counts as Lifting.
func ClassifyRemote(label string) Category {
	return classify(label, remoteLiftingKeywords)
}

func classify(label string, lifting []string) Category {
	l := strings.ToLower(label)

	if containsAny(l, yogaKeywords) {
		return CategoryYoga
	}
	if containsAny(l, lifting) {
		return CategoryLifting
	}
	if containsAny(l, cardioKeywords) {
		return CategoryCardio
	}
	return CategoryOther
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
