package domain

import "time"

// User models an authenticated actor in the system. The core never mutates a
// user; role and scope membership live in separate join records and are
// resolved fresh on every token issuance.
type User struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email,omitempty"`
	IsActive           bool      `json:"is_active"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Subject returns the identifier embedded in issued access tokens: the email
// when present, the username otherwise.
func (u *User) Subject() string {
	if u.Email != "" {
		return u.Email
	}
	return u.Username
}

// Role is a named grouping of scopes, assigned to users by membership.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Scope is a named permission atom, e.g. "campaigns:write". Authorization
// guards check scope membership; this core only resolves and embeds them.
type Scope struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
