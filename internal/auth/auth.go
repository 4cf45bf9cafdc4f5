package auth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ISSUER   = "github.com/haguru/kakashi"
	SUBJECT  = "AUTHENTICATION"
	AUDIENCE = "api." + ISSUER

	// TokenTTL is how long a session token stays valid.
	TokenTTL = 15 * time.Minute
)

// ErrNilKey is returned when signing or verifying without a key.
var ErrNilKey = errors.New("ecdsa key is nil")

// CustomClaims carries the authenticated username and role.
type CustomClaims struct {
	UserID string `json:"userid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CreateToken signs an ES256 session token for the user.
func CreateToken(userName, role string, privateKey *ecdsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", ErrNilKey
	}

	now := time.Now()
	claims := CustomClaims{
		UserID: userName,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    ISSUER,
			Subject:   SUBJECT,
			Audience:  []string{AUDIENCE},
			ID:        uuid.NewString(),
		},
	}

	signToken, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signToken, nil
}

// VerifyToken parses tokenString, checking the signature, expiry, issuer and audience.
func VerifyToken(tokenString string, publicKey *ecdsa.PublicKey) (*CustomClaims, error) {
	if publicKey == nil {
		return nil, ErrNilKey
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(ISSUER),
		jwt.WithAudience(AUDIENCE),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token parsing error: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token or claims")
}
