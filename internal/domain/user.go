// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxNameLen = 64

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
)

type UserID string

type User struct {
	ID           UserID `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, firstName string) (*User, error) {
	if len(firstName) == 0 {
		return nil, ErrNameEmpty
	}
	if len(firstName) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &User{ID: id, FirstName: firstName}, nil
}

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)
