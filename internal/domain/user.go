package domain

import "time"

// Profile is the identity issued with a session. It is replaced wholesale on
// re-login and never mutated in place.
type Profile struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	Role      Role       `json:"role"`
	Enabled   bool       `json:"enabled"`
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
	UpdatedAt *Timestamp `json:"updatedAt,omitempty"`
}

// User is the backend account record behind a Profile.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile projects the account into its public profile.
func (u *User) Profile() Profile {
	created := NewTimestamp(u.CreatedAt)
	updated := NewTimestamp(u.UpdatedAt)
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Enabled:   u.Enabled,
		CreatedAt: &created,
		UpdatedAt: &updated,
	}
}
