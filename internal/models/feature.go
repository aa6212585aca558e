package models

// FeatureKey identifies a gate-able platform capability. The set is closed:
// unknown keys are rejected at the boundary instead of flowing through as
// free-form strings.
type FeatureKey string

const (
	FeatureFlashcards   FeatureKey = "flashcards"
	FeatureQuiz         FeatureKey = "quiz"
	FeatureEvercast     FeatureKey = "evercast"
	FeatureEssays       FeatureKey = "essays"
	FeatureRanking      FeatureKey = "ranking"
	FeatureVideoLessons FeatureKey = "video_lessons"
	FeatureAudioLessons FeatureKey = "audio_lessons"
	FeatureCalendar     FeatureKey = "calendar"
)

// AllFeatureKeys returns the full fixed feature set in declaration order.
func AllFeatureKeys() []FeatureKey {
	return []FeatureKey{
		FeatureFlashcards,
		FeatureQuiz,
		FeatureEvercast,
		FeatureEssays,
		FeatureRanking,
		FeatureVideoLessons,
		FeatureAudioLessons,
		FeatureCalendar,
	}
}

// Valid reports whether the key belongs to the closed feature set.
func (k FeatureKey) Valid() bool {
	switch k {
	case FeatureFlashcards, FeatureQuiz, FeatureEvercast, FeatureEssays,
		FeatureRanking, FeatureVideoLessons, FeatureAudioLessons, FeatureCalendar:
		return true
	default:
		return false
	}
}
