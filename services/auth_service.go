package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/tonnahe171051/poolmate-sub000/models"
	"github.com/tonnahe171051/poolmate-sub000/repositories"
)

const tokenLifetime = 24 * time.Hour

type RegisterInput struct {
	Email       string              `json:"email"`
	DisplayName string              `json:"display_name"`
	Password    string              `json:"password"`
	Role        models.OperatorRole `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OperatorClaims is the JWT payload issued on login. Subject is the operator
// id; the role drives route-level authorization.
type OperatorClaims struct {
	jwt.RegisteredClaims
	OperatorID int                 `json:"operator_id"`
	Role       models.OperatorRole `json:"role"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Operator, error)
	Login(ctx context.Context, input LoginInput) (*models.Operator, string, error)
}

type authService struct {
	operatorRepo repositories.OperatorRepository
	jwtSecret    []byte
}

func NewAuthService(operatorRepo repositories.OperatorRepository, jwtSecret string) AuthService {
	return &authService{operatorRepo: operatorRepo, jwtSecret: []byte(jwtSecret)}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Operator, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidationFailed)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidationFailed)
	}
	switch input.Role {
	case models.RoleOrganizer, models.RoleReferee:
	case "":
		input.Role = models.RoleReferee
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationFailed, input.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	operator := &models.Operator{
		Email:        input.Email,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         input.Role,
		PasswordHash: string(hashed),
	}
	if err := s.operatorRepo.Create(ctx, operator); err != nil {
		return nil, err
	}
	return operator, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Operator, string, error) {
	operator, err := s.operatorRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrOperatorNotFound) {
			return nil, "", ErrAuthenticationFailed
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrAuthenticationFailed
	}

	now := time.Now()
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", operator.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
		OperatorID: operator.ID,
		Role:       operator.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}
	return operator, token, nil
}
