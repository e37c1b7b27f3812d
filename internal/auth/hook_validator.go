package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CapabilityEditPosts allows the bearer to edit activity records.
const CapabilityEditPosts = "edit_posts"

const bearerPrefix = "Bearer "

var (
	ErrMissingHookSigningKey = errors.New("hook validator: signing key required")
	ErrMissingHookIssuer     = errors.New("hook validator: issuer required")
	ErrMissingHookToken      = errors.New("hook validator: token required")
	ErrInvalidHookToken      = errors.New("hook validator: invalid token")
	ErrExpiredHookToken      = errors.New("hook validator: token expired")
	ErrMissingHookSubject    = errors.New("hook validator: subject required")
)

// HookClaims is the JWT payload the CMS signs when it dispatches a record event.
type HookClaims struct {
	Capabilities []string `json:"capabilities"`
	jwt.RegisteredClaims
}

// Can reports whether the acting principal holds the capability.
func (c HookClaims) Can(capability string) bool {
	for _, granted := range c.Capabilities {
		if granted == capability {
			return true
		}
	}
	return false
}

// HookValidatorConfig describes how to validate CMS-issued hook tokens.
type HookValidatorConfig struct {
	SigningSecret []byte
	Issuer        string
	Clock         func() time.Time
}

// HookValidator validates HS256 JWTs attached to record event hooks.
type HookValidator struct {
	signingSecret []byte
	issuer        string
	clock         func() time.Time
}

// NewHookValidator constructs a validator with the provided configuration.
func NewHookValidator(cfg HookValidatorConfig) (*HookValidator, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingHookSigningKey
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, ErrMissingHookIssuer
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &HookValidator{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		clock:         clock,
	}, nil
}

// ValidateToken validates the supplied JWT string and returns the parsed claims.
func (v *HookValidator) ValidateToken(tokenString string) (HookClaims, error) {
	token := strings.TrimSpace(tokenString)
	if token == "" {
		return HookClaims{}, ErrMissingHookToken
	}

	claims := &HookClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrInvalidHookToken, t.Method.Alg())
			}
			return v.signingSecret, nil
		},
		jwt.WithTimeFunc(v.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return HookClaims{}, ErrExpiredHookToken
		}
		return HookClaims{}, fmt.Errorf("%w: %v", ErrInvalidHookToken, err)
	}
	if parsed == nil || !parsed.Valid {
		return HookClaims{}, ErrInvalidHookToken
	}
	if claims.Issuer != v.issuer {
		return HookClaims{}, ErrInvalidHookToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return HookClaims{}, ErrMissingHookSubject
	}
	return *claims, nil
}

// ValidateRequest extracts the bearer token from the Authorization header and validates it.
func (v *HookValidator) ValidateRequest(r *http.Request) (HookClaims, error) {
	if r == nil {
		return HookClaims{}, ErrMissingHookToken
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return HookClaims{}, ErrMissingHookToken
	}
	return v.ValidateToken(strings.TrimPrefix(header, bearerPrefix))
}
