package dto

// Access denial reasons returned by the trial/content gate.
const (
	AccessReasonTrialLocked       = "trial_locked"
	AccessReasonDailyLimitReached = "daily_limit_reached"
	AccessReasonExpired           = "expired"
)

// AccessCheckRequest identifies the content a user wants to open.
type AccessCheckRequest struct {
	ContentType string `query:"content_type" validate:"required,oneof=quiz flashcards video_lesson audio_lesson essay_prompt"`
	ContentID   uint   `query:"content_id" validate:"required,gt=0"`
}

// AccessDecision is the allow/deny result of the content gate.
type AccessDecision struct {
	HasAccess      bool   `json:"has_access"`
	Reason         string `json:"reason,omitempty"`
	UpgradeMessage string `json:"upgrade_message,omitempty"`
}

// UsageRecordRequest registers consumption of a daily-limited activity.
type UsageRecordRequest struct {
	ActivityType string `json:"activity_type" validate:"required,oneof=quiz flashcards"`
}

// UsageRecordResponse echoes the post-increment counter state.
type UsageRecordResponse struct {
	ActivityType string `json:"activity_type"`
	UsedToday    int64  `json:"used_today"`
	DailyLimit   int    `json:"daily_limit,omitempty"`
}
