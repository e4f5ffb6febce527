package dto

// SessionRequest captures PUT /session.
type SessionRequest struct {
	Token string `json:"token" binding:"required"`
}
