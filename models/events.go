package models

// ProfileEvent announces that a user's profile was replaced. Dashboards
// subscribed to the user's stream refetch their summary when it arrives.
type ProfileEvent struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
	Version uint64 `json:"version"`
	SavedAt int64  `json:"saved_at"`
}
