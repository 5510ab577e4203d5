package membrane

import (
	"time"

	"membrane-connect-be/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTTL = 2 * time.Hour

	ErrMsgCredentialsMissing = "Membrane workspace credentials not configured"
)

// TokenMinter signs short-lived user tokens for the Integration Backend.
type TokenMinter struct {
	workspaceKey    string
	workspaceSecret string
	now             func() time.Time
}

func NewTokenMinter(workspaceKey, workspaceSecret string) *TokenMinter {
	return &TokenMinter{
		workspaceKey:    workspaceKey,
		workspaceSecret: workspaceSecret,
		now:             time.Now,
	}
}

// Mint returns a fresh HS512 token scoping userID to the workspace. The
// display name defaults to the user id.
func (m *TokenMinter) Mint(userID, userName string) (string, error) {
	if m.workspaceKey == "" || m.workspaceSecret == "" {
		return "", apperror.Configuration(ErrMsgCredentialsMissing)
	}
	if userName == "" {
		userName = userID
	}

	claims := jwt.MapClaims{
		"id":      userID,
		"name":    userName,
		"isAdmin": 0,
		"iss":     m.workspaceKey,
		"exp":     m.now().Add(TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(m.workspaceSecret))
	if err != nil {
		return "", apperror.Internal("Failed to generate token", err)
	}
	return signed, nil
}
