package model

import "time"

// User represents the authenticated customer identity as returned by the
// store API. Views never mutate it directly, only through store actions.
type User struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	IsAdmin   bool       `json:"isAdmin"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Session pairs a logged-in user with its bearer credential. Both fields are
// set and cleared together: a token without a user (or the reverse) is never
// a valid session.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Valid reports whether the session is consistent: user and token present
// together, or both absent.
func (s Session) Valid() bool {
	return (s.User == nil) == (s.Token == "")
}

// Authenticated reports whether the session carries a logged-in user.
func (s Session) Authenticated() bool {
	return s.User != nil && s.Token != ""
}
