// Package users stores signed-in accounts. Guests are identified by their
// token alone and never get a row.
package users

import (
	"strings"
	"time"
)

// ProviderGoogle is the only identity provider wired today.
const ProviderGoogle = "google"

// User is a signed-in account.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	PictureURL  string    `json:"pictureUrl"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

func (u User) normalized() User {
	u.ID = strings.TrimSpace(u.ID)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FullName = strings.TrimSpace(u.FullName)
	u.PictureURL = strings.TrimSpace(u.PictureURL)
	if u.Provider == "" {
		u.Provider = ProviderGoogle
	}
	return u
}
