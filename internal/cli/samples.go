package cli

import "bondquest-rounds/internal/domain"

// sampleQuestions seeds the in-memory catalogue when no Postgres is configured.
func sampleQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"speed-first-date": {
			ID:      "speed-first-date",
			Text:    "Where did we go on our first date?",
			Options: []string{"Cinema", "Beach", "Italian place", "Bowling"},
			Kind:    domain.KindSpeed,
		},
		"match-favourites": {
			ID:      "match-favourites",
			Text:    "Match the things we both love",
			Options: []string{"Coffee", "Hiking", "Jazz", "Tacos", "Board games", "Sunsets"},
			Kind:    domain.KindMatch,
		},
		"placement-milestones": {
			ID:      "placement-milestones",
			Text:    "Put our milestones in order",
			Options: []string{"First message", "First date", "First trip", "Moved in", "Engaged"},
			Kind:    domain.KindPlacement,
		},
	}
}
