package service

import (
	"context"
	"strings"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/dukabook/ledger-api/pkg/apperror"
	"github.com/dukabook/ledger-api/pkg/pagination"
	"github.com/dukabook/ledger-api/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and role management.
type AuthService struct {
	users repository.UserRepository
	jwt   *utils.JWTManager
	gate  *PermissionGate
	audit *AuditLogger
	log   *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepository, jwt *utils.JWTManager, gate *PermissionGate, audit *AuditLogger, log *logrus.Logger) *AuthService {
	return &AuthService{
		users: users,
		jwt:   jwt,
		gate:  gate,
		audit: audit,
		log:   log,
	}
}

// TokenPair holds the issued access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterInput represents the registration input
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new identity. The first user in the system becomes
// admin; everyone after that starts as staff.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperror.NewFieldError("email", "Email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperror.NewFieldError("password", "Password must be at least 8 characters")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrConflict
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	role := enum.RoleStaff
	if count == 0 {
		role = enum.RoleAdmin
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")
	return user, nil
}

// Login verifies credentials and issues a token pair. A successful login
// is audited with the session's connectivity mode.
func (s *AuthService) Login(ctx context.Context, email, password string, mode enum.ConnectivityMode) (*entity.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apperror.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, apperror.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	sess := session.New(user.ID, user.Email, user.Role, mode)
	s.audit.Log(ctx, sess, enum.AuditActionLogin, "", user.ID, "User logged in", nil, nil)
	return user, tokens, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken
	}
	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *entity.User) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role.String())
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout audits the end of a session. Tokens are stateless; the entry is
// what matters.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) {
	s.audit.Log(ctx, sess, enum.AuditActionLogout, "", sess.UserID, "User logged out", nil, nil)
}

// ChangeRole assigns a new role to a user. Requires CapManageRoles and
// produces an audit entry with the before/after roles.
func (s *AuthService) ChangeRole(ctx context.Context, sess *session.Session, userID uuid.UUID, role enum.Role) (*entity.User, error) {
	if err := s.gate.Require(ctx, sess, CapManageRoles); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperror.NewFieldError("role", "Unknown role")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	prevRole := user.Role

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	s.gate.Invalidate(userID)
	user.Role = role

	s.audit.Log(ctx, sess, enum.AuditActionRoleChange, "", userID,
		"Role changed from "+prevRole.String()+" to "+role.String(),
		map[string]string{"role": prevRole.String()},
		map[string]string{"role": role.String()})
	return user, nil
}

// ListUsers lists identities; admin only.
func (s *AuthService) ListUsers(ctx context.Context, sess *session.Session, params *repository.ListParams) (*pagination.Result[entity.User], error) {
	if err := s.gate.Require(ctx, sess, CapManageRoles); err != nil {
		return nil, err
	}
	params.Pagination.Validate()

	users, total, err := s.users.List(ctx, params)
	if err != nil {
		return nil, err
	}
	pag := pagination.New(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewResult(users, pag), nil
}

// GetUser returns one identity record, used for the current-user endpoint.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}
