package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload issued on login: the verified identity the
// client presents on subsequent parking calls.
type Claims struct {
	Email string `json:"email"`
	Plate string `json:"plate"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	secret    []byte
	expiresIn time.Duration
}

// NewService returns configured token service.
func NewService(secret string, expiresIn time.Duration) *Service {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return &Service{secret: []byte(secret), expiresIn: expiresIn}
}

// Generate issues a JWT for the verified (email, plate) identity.
func (s *Service) Generate(email, plate string) (string, error) {
	if email == "" || plate == "" {
		return "", errors.New("token: email and plate are required")
	}

	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		Plate: plate,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate verifies and decodes a JWT.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("token: unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("token: invalid claims")
}
