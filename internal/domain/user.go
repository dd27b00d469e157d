// Package domain contains entities without logic, just meta-data
package domain

const MaxUsernameLen = 36

type UserID string

type User struct {
	ID        UserID `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Profile is the point-in-time author snapshot attached to outbound
// messages. Later profile edits do not alter already-delivered messages.
type Profile struct {
	ID        UserID `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
