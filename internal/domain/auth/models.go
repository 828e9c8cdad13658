package auth

// UserContext is the authenticated caller, taken from token claims.
type UserContext struct {
	UserID   string
	TenantID string
	RoleName string
}
