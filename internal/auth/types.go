package auth

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleGovernment Role = "government"
	RoleBank       Role = "bank"
)

// ParseRole maps a stored role string onto the known set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleGovernment, RoleBank:
		return Role(s), true
	default:
		return "", false
	}
}

type Claims struct {
	Sub       string `json:"sub"` // user ID
	Role      Role   `json:"role"`
	TokenID   string `json:"jti"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
