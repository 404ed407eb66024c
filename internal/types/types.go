package types

import "time"

type Event struct {
	Type    string         `json:"type"`
	Ts      time.Time      `json:"timestamp"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Session is one voice survey-taking session.
type Session struct {
	ID        string    `json:"session_id"`
	SurveyID  string    `json:"survey_id"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`

	// Voice surface state, mirrored for the status endpoint.
	VoiceStatus string `json:"voice_status,omitempty"`
	Listening   bool   `json:"listening"`
}
