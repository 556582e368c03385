package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"unimarket/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// HeaderEmail is the request header carrying the claimed identity in
// header mode.
const HeaderEmail = "X-User-Email"

// IdentityResolver turns an incoming request into a requester email and
// issues the matching credential at login. Swapping the implementation
// changes the authentication mechanism without touching service logic.
type IdentityResolver interface {
	Resolve(c echo.Context) (string, error)
	Issue(email string) (string, error)
}

// RequireIdentity resolves the caller identity and stores it in the
// request context for the handlers.
func RequireIdentity(resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, err := resolver.Resolve(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			ctx := common.WithUserEmail(c.Request().Context(), email)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// HeaderResolver reproduces the original contract: the caller passes its
// own email in a plain header and login hands the email straight back.
// There is no signature or expiry; anyone who knows an email can assert
// it. It exists to stay wire-compatible with the source system.
type HeaderResolver struct{}

func NewHeaderResolver() *HeaderResolver {
	return &HeaderResolver{}
}

func (r *HeaderResolver) Resolve(c echo.Context) (string, error) {
	email := strings.TrimSpace(c.Request().Header.Get(HeaderEmail))
	if email == "" {
		return "", fmt.Errorf("missing %s header", HeaderEmail)
	}
	return email, nil
}

func (r *HeaderResolver) Issue(email string) (string, error) {
	return email, nil
}

// TokenResolver is the stronger drop-in: login issues an HS256 JWT with
// the email as subject, and authenticated calls present it as a bearer
// token.
type TokenResolver struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenResolver(secret string, ttl time.Duration) *TokenResolver {
	return &TokenResolver{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (r *TokenResolver) Resolve(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing token")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", fmt.Errorf("invalid token format")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}

	email, ok := claims["sub"].(string)
	if !ok || email == "" {
		return "", fmt.Errorf("missing subject in token")
	}
	return email, nil
}

func (r *TokenResolver) Issue(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(r.secret)
}
