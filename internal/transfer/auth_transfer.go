package transfer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the attribute bag carried by identity-provider session
// tokens. TenantID and UnitID are optional; the guard falls back to request
// fields and config defaults when they are empty.
type SessionClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id,omitempty"`
	UnitID   string `json:"unit_id,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Actor identifies who performed an operation, for audit payloads.
type Actor struct {
	UserID string
	Email  string
}

// SystemActor is used when the shared-secret bypass admits an automated
// caller without a session.
var SystemActor = Actor{UserID: "publish-test-secret", Email: "secret-bypass@local"}
