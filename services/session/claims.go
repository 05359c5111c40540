package session

import (
	"fmt"
	"strings"
	"time"

	"loadly/models"

	"github.com/golang-jwt/jwt"
)

var parser = &jwt.Parser{}

// DecodeClaims reads the payload segment of token without verifying the signature.
// The result is a display hint and must never authorize anything.
func DecodeClaims(token string) (jwt.MapClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, fmt.Errorf("malformed token: expected three segments")
	}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// UserDataFromToken returns the unverified user hint carried by token, or nil.
func UserDataFromToken(token string) *models.UserData {
	if token == "" {
		return nil
	}
	claims, err := DecodeClaims(token)
	if err != nil {
		return nil
	}
	ud := &models.UserData{
		ID:    firstString(claims, "id", "userId", "user_id", "sub"),
		Email: firstString(claims, "email"),
		Role:  strings.ToUpper(firstString(claims, "role")),
	}
	if exp, ok := expiry(claims); ok {
		ud.Exp = exp
	}
	if ud.ID == "" && ud.Role == "" && ud.Email == "" {
		return nil
	}
	return ud
}

// IsValidToken performs the admin-only structural, expiry and role checks.
func IsValidToken(token string, now time.Time) bool {
	if len(strings.Split(token, ".")) != 3 {
		return false
	}
	claims, err := DecodeClaims(token)
	if err != nil {
		return false
	}
	exp, ok := expiry(claims)
	if !ok || exp <= now.Unix() {
		return false
	}
	return models.IsAdminRole(strings.ToUpper(firstString(claims, "role")))
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func expiry(claims jwt.MapClaims) (int64, bool) {
	switch v := claims["exp"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}
