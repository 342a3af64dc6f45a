package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ActorHeader names the caller when no JWT secret is configured.
	ActorHeader = "X-Gate-Actor"
	// ActorLocalKey is the key used to store the caller identity in Fiber's context locals.
	ActorLocalKey = "actor"
	// AnonymousActor is used when the caller did not identify itself.
	AnonymousActor = "anonymous"
)

var errNoSubject = errors.New("token has no subject")

// Actor resolves the caller identity recorded on trace events.
//
// With a secret, requests must carry "Authorization: Bearer <HS256 JWT>" and
// the token's sub claim is the actor; anything else is 401. Without a secret
// the X-Gate-Actor header is taken as is, falling back to AnonymousActor.
func Actor(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := AnonymousActor
		if len(secret) > 0 {
			token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
			if !ok || token == "" {
				return fiber.NewError(fiber.StatusUnauthorized, "bearer token required")
			}
			sub, err := subject(token, secret)
			if err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
			}
			actor = sub
		} else if h := strings.TrimSpace(c.Get(ActorHeader)); h != "" {
			actor = h
		}

		c.Locals(ActorLocalKey, actor)
		return c.Next()
	}
}

func subject(token string, secret []byte) (string, error) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errNoSubject
	}
	return sub, nil
}

// ActorFromCtx returns the identity stored by Actor, or AnonymousActor.
func ActorFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(ActorLocalKey).(string); ok && s != "" {
		return s
	}
	return AnonymousActor
}
