package serverutils

import (
	"strings"

	"membrane-connect-be/internal/dto"
	"membrane-connect-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID   = "user_id"
	LocalUserName = "user_name"
)

func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// NewAuthMiddleware verifies the app session JWT (HS256) and stores the
// caller's id and name in Locals. Failures answer 401 with no detail.
// Without a secret every request is refused; an empty HMAC key would let
// anyone sign a session.
func NewAuthMiddleware(secret string) fiber.Handler {
	if secret == "" {
		return func(ctx *fiber.Ctx) error {
			return apperror.Unauthorized()
		}
	}

	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			return apperror.Unauthorized()
		}
		tokenStr := strings.TrimSpace(authHeader[7:])

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return apperror.Unauthorized()
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return apperror.Unauthorized()
		}

		userID := claimString(claims, "user_id", "sub")
		if userID == "" {
			return apperror.Unauthorized()
		}

		ctx.Locals(LocalUserID, userID)
		ctx.Locals(LocalUserName, claimString(claims, "name", "full_name"))
		return ctx.Next()
	}
}

// CurrentUser reads the identity stored by the auth middleware.
func CurrentUser(ctx *fiber.Ctx) (dto.AuthUser, error) {
	userID, _ := ctx.Locals(LocalUserID).(string)
	if userID == "" {
		return dto.AuthUser{}, apperror.Unauthorized()
	}
	userName, _ := ctx.Locals(LocalUserName).(string)
	return dto.AuthUser{Id: userID, Name: userName}, nil
}
