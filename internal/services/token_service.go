package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leonixyz/oncalendar/internal/models"
)

type TokenService struct {
	masterToken string
	jwtSecret   string
}

func NewTokenService(masterToken, jwtSecret string) *TokenService {
	return &TokenService{
		masterToken: masterToken,
		jwtSecret:   jwtSecret,
	}
}

// ValidateMasterToken checks if the provided token matches the master token
func (s *TokenService) ValidateMasterToken(token string) bool {
	return token == s.masterToken
}

// CreateJWTToken creates a new JWT token with the specified claims
func (s *TokenService) CreateJWTToken(req *models.CreateTokenRequest) (string, error) {
	claims := jwt.MapClaims{
		"sub":    req.Sub,
		"access": req.Access,
		"scope":  req.Scope,
		"exp":    req.ExpiresAt.Unix(),
		"iat":    time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateJWTToken validates a JWT token and returns its claims
func (s *TokenService) ValidateJWTToken(tokenString string) (*models.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, errors.New("invalid sub claim")
	}
	access, ok := claims["access"].(string)
	if !ok {
		return nil, errors.New("invalid access claim")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, errors.New("invalid exp claim")
	}
	scope, err := stringSliceClaim(claims["scope"])
	if err != nil {
		return nil, err
	}

	return &models.Token{
		Sub:       sub,
		Access:    models.AccessLevel(access),
		Scope:     scope,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// ValidateScope checks if the token's scope includes all required tags
func (s *TokenService) ValidateScope(token *models.Token, requiredTags []string) bool {
	if token.Access == models.AccessLevelAdmin {
		return true
	}

	scopeMap := make(map[string]bool)
	for _, tag := range token.Scope {
		scopeMap[tag] = true
	}

	for _, tag := range requiredTags {
		if !scopeMap[tag] {
			return false
		}
	}

	return true
}

// ValidateAccess checks if the token has the required access level
func (s *TokenService) ValidateAccess(token *models.Token, requiredAccess models.AccessLevel) bool {
	accessLevels := map[models.AccessLevel]int{
		models.AccessLevelRead:      1,
		models.AccessLevelWrite:     2,
		models.AccessLevelReadWrite: 3,
		models.AccessLevelAdmin:     4,
	}

	if token.Access == models.AccessLevelAdmin {
		return true
	}

	return accessLevels[token.Access] >= accessLevels[requiredAccess]
}

func stringSliceClaim(v interface{}) ([]string, error) {
	slice, ok := v.([]interface{})
	if !ok {
		return nil, errors.New("invalid scope claim")
	}
	result := make([]string, len(slice))
	for i, item := range slice {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("invalid scope entry at index %d", i)
		}
		result[i] = s
	}
	return result, nil
}
