package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"code-redemption/internal/config"
	"code-redemption/internal/domain/model"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// ===== Session/JWT primitives =====

type AuthConfig struct {
	HMACSecret   []byte
	CookieName   string
	CookieDomain string
	SecureCookie bool
	TTL          time.Duration
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(cfg config.AuthConfig) *AuthManager {
	name := cfg.CookieName
	if name == "" {
		name = "session"
	}
	return &AuthManager{cfg: AuthConfig{
		HMACSecret:   []byte(cfg.JWTSecret),
		CookieName:   name,
		CookieDomain: cfg.CookieDomain,
		SecureCookie: cfg.SecureCookie,
		TTL:          cfg.TokenTTL,
	}}
}

// Claims is the identity a token carries. Issuing tokens for real users is
// left to whatever sits in front of this service; cmd/token mints them for ops.
type Claims struct {
	Role      string  `json:"role"`
	ChannelID *string `json:"channel_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() model.Actor {
	role := model.ParseRole(c.Role)
	if c.Subject == "" || role == model.RoleAnonymous {
		return model.Anonymous()
	}
	return model.Actor{ID: c.Subject, Role: role, ChannelID: c.ChannelID}
}

// Mint signs a token for actor.
func (a *AuthManager) Mint(actor model.Actor) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:      string(actor.Role),
		ChannelID: actor.ChannelID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
			Subject:   actor.ID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.cfg.HMACSecret)
}

// SetCookie stores a signed token as the session cookie.
func (a *AuthManager) SetCookie(w http.ResponseWriter, signed string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   int(a.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*Claims, error) {
	// Authorization: Bearer <jwt>
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
		return nil, ErrInvalidToken
	}
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, ErrMissingToken
}

func (a *AuthManager) parse(tok string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type actorKey struct{}

func withActor(ctx context.Context, a model.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the caller attached by Authenticate, anonymous if none.
func ActorFrom(ctx context.Context) model.Actor {
	if a, ok := ctx.Value(actorKey{}).(model.Actor); ok {
		return a
	}
	return model.Anonymous()
}
