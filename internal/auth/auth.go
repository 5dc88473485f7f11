// Package auth issues and verifies device credentials.
//
// A toy authenticates once with its device id and secret, then presents a
// short-lived HS256 bearer token on every conversation call. The token is a
// pure capability: it proves which device/session namespace a request may
// touch and nothing more.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/bluehawana/totoyai/internal/config"
)

// ErrInvalidToken covers missing, malformed, expired, and mis-signed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenKind distinguishes the two token lifetimes.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Claims is the validated content of a device token.
type Claims struct {
	DeviceID  string
	Kind      TokenKind
	ExpiresAt time.Time
}

// Tokens is the pair returned on authentication.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Authenticator signs and verifies device tokens.
type Authenticator struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New creates an authenticator from config.
func New(cfg config.AuthConfig) *Authenticator {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &Authenticator{
		secret:     []byte(cfg.Secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue creates an access/refresh token pair for a device.
func (a *Authenticator) Issue(deviceID string) (*Tokens, error) {
	access, err := a.sign(deviceID, TokenAccess, a.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := a.sign(deviceID, TokenRefresh, a.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (a *Authenticator) sign(deviceID string, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"device_id": deviceID,
		"type":      string(kind),
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims. Any defect — bad signature,
// wrong algorithm, expiry, missing device id — maps to ErrInvalidToken; the
// caller never learns which.
func (a *Authenticator) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	deviceID, _ := claims["device_id"].(string)
	if deviceID == "" {
		return nil, ErrInvalidToken
	}

	kind, _ := claims["type"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		DeviceID:  deviceID,
		Kind:      TokenKind(kind),
		ExpiresAt: exp.Time,
	}, nil
}

// HashSecret hashes a device secret for storage.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret checks a device secret against its stored hash.
func VerifySecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
