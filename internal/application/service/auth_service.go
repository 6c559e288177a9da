package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/sangkips/repairshop-api/pkg/utils"
	"go.uber.org/zap"
)

const minPasswordLength = 8

// AuthService owns accounts: customer sign-up, staff creation and login.
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtManager *utils.JWTManager, log *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, jwtManager: jwtManager, log: log}
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	User        *entity.User
	AccessToken string
}

// RegisterInput is shared by customer sign-up and staff creation.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks the password and issues an access token. Unknown emails and
// wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, storageErr("login", err)
	}
	if user == nil || !utils.CheckPasswordHash(input.Password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}

	op := user.Operator()
	token, err := s.jwtManager.GenerateAccessToken(utils.Subject{
		ID:    op.ID,
		Email: op.Email,
		Name:  op.Name,
		Role:  string(op.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &LoginOutput{User: user, AccessToken: token}, nil
}

// Register creates a customer account.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*entity.User, error) {
	return s.createUser(ctx, input, enum.RoleCustomer)
}

// CreateStaff creates an admin or technician account.
func (s *AuthService) CreateStaff(ctx context.Context, input *RegisterInput, role enum.Role) (*entity.User, error) {
	if !role.IsStaff() {
		return nil, apperror.NewFieldValidationError("role", "must be admin or technician")
	}
	return s.createUser(ctx, input, role)
}

func validateAccount(input *RegisterInput) []apperror.FieldError {
	var errs []apperror.FieldError
	if strings.TrimSpace(input.Name) == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "is required"})
	}
	if !strings.Contains(input.Email, "@") {
		errs = append(errs, apperror.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(input.Password) < minPasswordLength {
		errs = append(errs, apperror.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	return errs
}

func (s *AuthService) createUser(ctx context.Context, input *RegisterInput, role enum.Role) (*entity.User, error) {
	if errs := validateAccount(input); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	email := normalizeEmail(input.Email)
	taken, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storageErr("register", err)
	}
	if taken != nil {
		return nil, apperror.NewConflictError("Email already registered")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &entity.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Phone:    strings.TrimSpace(input.Phone),
		Password: hash,
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storageErr("register", err)
	}

	s.log.Info("account created", zap.Stringer("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// GetCurrentUser loads the caller's own account.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storageErr("profile", err)
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}
	return user, nil
}
