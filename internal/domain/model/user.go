package model

// Profile is the identity record returned by the upstream profile endpoint.
type Profile struct {
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	Balance float64  `json:"balance"`
}

// User is a directory entry from the admin user listing.
type User struct {
	ID      string   `json:"_id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	Balance float64  `json:"balance"`
}

// IsAdmin reports whether the user holds the admin role. The admin
// dashboard excludes admins from the searchable listing.
func (u User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == "admin" {
			return true
		}
	}
	return false
}
