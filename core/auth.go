package core

import "time"

// Session represents an authenticated user session
type Session struct {
	ID            string    // Unique session identifier
	Address       string    // Lower-cased ethereum address of the user
	IssuedAt      time.Time // When the session was created
	RefreshExpiry time.Time // When the refresh capability expires
	AccessExpiry  time.Time // When the access capability expires
	RefreshID     string    // Unique identifier for the refresh token
}

// User is the identity handed to callers after a successful sign-in.
// ID and Address are both the lower-cased signing address.
type User struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Image   string `json:"image,omitempty"`
}

// Profile is what the wallet username directory knows about an address.
type Profile struct {
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
}
