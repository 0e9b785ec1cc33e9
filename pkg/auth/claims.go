package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ShopperID string
	Role      string
	JTI       string
}

// AccessTokenClaims is the typed JWT presented by clients. The shopper id
// travels in the user_id claim issued by the identity service.
type AccessTokenClaims struct {
	ShopperID string `json:"user_id"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
