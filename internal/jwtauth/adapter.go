package jwtauth

import (
	"conforma/internal/platform/middleware"
)

// ToMiddlewareClaims converts token claims to the shape the auth middleware
// consumes. Parsing into typed IDs happens in the middleware itself.
func ToMiddlewareClaims(claims *Claims) *middleware.JWTClaims {
	return &middleware.JWTClaims{
		UserID:    claims.UserID,
		CompanyID: claims.CompanyID,
		Role:      claims.Role,
	}
}

// ServiceAdapter adapts JWTService to middleware.JWTValidator.
type ServiceAdapter struct {
	service *JWTService
}

func NewServiceAdapter(service *JWTService) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

func (a *ServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
