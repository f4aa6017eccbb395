package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

const (
	jwtIssuer   = "serviceconnect-api"
	jwtAudience = "serviceconnect-clients"

	AccessTokenTTL  = 12 * time.Hour
	RefreshTokenTTL = 14 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
)

// Principal is the authenticated caller carried through the request context.
type Principal struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

type Claims struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Issuer signs and verifies HS256 access and refresh tokens.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

func NewIssuer(accessSecret, refreshSecret string) (*Issuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrEmptyJWTSecret
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}, nil
}

func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func CheckPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (i *Issuer) sign(p Principal, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID:    p.UserID,
		Email:     p.Email,
		Role:      p.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (i *Issuer) AccessToken(p Principal) (string, error) {
	return i.sign(p, tokenTypeAccess, i.accessSecret, AccessTokenTTL)
}

// Issue returns a fresh access/refresh pair for p.
func (i *Issuer) Issue(p Principal) (Tokens, error) {
	access, err := i.AccessToken(p)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := i.sign(p, tokenTypeRefresh, i.refreshSecret, RefreshTokenTTL)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(AccessTokenTTL.Seconds()),
	}, nil
}

func parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		},
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ParseAccess validates an access token and returns its claims.
func (i *Issuer) ParseAccess(tokenString string) (*Claims, error) {
	claims, err := parse(tokenString, i.accessSecret)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) && unverifiedType(tokenString) == tokenTypeRefresh {
			return nil, ErrInvalidTokenType
		}
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// unverifiedType reads token_type without checking the signature. It only
// picks the error reported for a token that already failed verification.
func unverifiedType(tokenString string) string {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	return claims.TokenType
}

// ParseRefresh validates a refresh token and returns its claims.
func (i *Issuer) ParseRefresh(tokenString string) (*Claims, error) {
	claims, err := parse(tokenString, i.refreshSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}
