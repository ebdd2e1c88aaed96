package identity

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims decodes the payload of an access token without checking its signature.
// Callers must have validated the token with GetUser first.
func Claims(accessToken string) (json.RawMessage, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("identity: parse claims: %w", err)
	}
	b, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}
	return b, nil
}
