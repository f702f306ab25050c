package domain

import (
	"time"
)

// User is a registered account. Sellers may create listings.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PhoneNumber  string    `json:"phoneNumber"`
	Prefix       string    `json:"prefix"`
	ImageURL     string    `json:"image"`
	IsSeller     bool      `json:"isSeller"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NavbarInfo is the slice of a user shown in the site header.
type NavbarInfo struct {
	Username string `json:"username"`
	Image    string `json:"image"`
	IsSeller bool   `json:"isSeller"`
}

// Navbar returns the header view of u.
func (u *User) Navbar() NavbarInfo {
	return NavbarInfo{Username: u.Username, Image: u.ImageURL, IsSeller: u.IsSeller}
}

// UserRegistered is the payload of the user-registered event.
type UserRegistered struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PasswordResetRequested is the payload consumed by the mailer to send a
// reset link.
type PasswordResetRequested struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
