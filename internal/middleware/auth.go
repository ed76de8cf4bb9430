package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jimmyjeon420-png/baln-sub003/internal/config"
)

const UserIDKey = "user_id"

var (
	ErrMalformedToken = errors.New("malformed session token")
	ErrTokenExpired   = errors.New("session token expired")
	ErrBadSignature   = errors.New("invalid session token signature")
)

// Auth validates the HMAC-signed session token issued by the identity
// service and stores the user id in request locals. Token format:
// "<user_id>.<expires_unix>.<hex hmac-sha256>".
func Auth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("X-Session-Token")
		if token == "" {
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing session token",
			})
		}

		userID, err := ValidateSessionToken(token, cfg.Server.SessionSecret, time.Now())
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid session token: " + err.Error(),
			})
		}

		c.Locals(UserIDKey, userID)

		return c.Next()
	}
}

// ValidateSessionToken checks the token signature and expiry and returns the
// embedded user id.
func ValidateSessionToken(token, secret string, now time.Time) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, ErrMalformedToken
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrMalformedToken
	}

	expiresAt, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrMalformedToken
	}
	if now.Unix() > expiresAt {
		return 0, ErrTokenExpired
	}

	signature, err := hex.DecodeString(parts[2])
	if err != nil {
		return 0, ErrMalformedToken
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(parts[0] + "." + parts[1]))
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return 0, ErrBadSignature
	}

	return userID, nil
}

// SignSessionToken builds a token the Auth middleware accepts. The identity
// service uses the same construction; tests use this helper directly.
func SignSessionToken(userID int64, expiresAt time.Time, secret string) string {
	payload := strconv.FormatInt(userID, 10) + "." + strconv.FormatInt(expiresAt.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return payload + "." + hex.EncodeToString(mac.Sum(nil))
}

func GetUserID(c *fiber.Ctx) int64 {
	userID, ok := c.Locals(UserIDKey).(int64)
	if !ok {
		return 0
	}
	return userID
}
