package auth

import "github.com/angelmondragon/storefront-backend/pkg/enums"

// Principal is the authenticated account attached to one request. It is
// passed by value from the HTTP layer into services.
type Principal struct {
	AccountID int64
	Email     string
	Username  string
	FirstName string
	Role      enums.Role
}

// IsZero reports whether p is the empty principal.
func (p Principal) IsZero() bool {
	return p.AccountID == 0 && p.Email == ""
}

// IsAdmin reports whether p holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == enums.RoleAdmin
}
