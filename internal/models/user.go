package models

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User is the subset of an account the realtime service reads.
type User struct {
	ID       string `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Role     string `db:"role" json:"role"`
}

// IsPrivileged reports whether the role belongs to the admin broadcast group.
func IsPrivileged(role string) bool {
	return role == RoleAdmin || role == RoleModerator
}

// PublicProfile is embedded in social notifications so clients can render
// them without a follow-up fetch.
type PublicProfile struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// Profile returns the public fields of the user.
func (u User) Profile() PublicProfile {
	return PublicProfile{ID: u.ID, Username: u.Username}
}
