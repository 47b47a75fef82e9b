package domain

import "time"

// UserStatus represents lifecycle states for a platform account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the account model for everyone who touches tickets: citizens who
// report hazards and the staff who work them. The role decides dashboards
// and thread access.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the account may act on tickets.
func (u *User) Active() bool {
	return u.Status == UserStatusActive
}
