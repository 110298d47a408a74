package services

import (
	"errors"
	"fmt"
	"time"

	"denuncias/internal/access"
	"denuncias/internal/models"
	"denuncias/internal/repositories"
	"denuncias/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload. Subject carries the user id; Role is the role
// at issuance and is informational only, see ResolveIdentity.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.StandardClaims
}

// AuthService handles registration, credential checks and bearer tokens.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// RegisterUser normalises the request, rejects duplicate username, email or
// CPF with ErrConflict, hashes the password and stores the user.
func (s *AuthService) RegisterUser(req models.RegisterRequest) (*models.User, error) {
	phone, err := validation.NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: req.Username,
		Email:    validation.NormalizeEmail(req.Email),
		Phone:    phone,
		CPF:      validation.NormalizeCPF(req.CPF),
		Role:     models.RoleUser,
	}

	if err := s.checkAvailable("username", user.Username, s.userRepo.GetByUsername); err != nil {
		return nil, err
	}
	if err := s.checkAvailable("email", user.Email, s.userRepo.GetByEmail); err != nil {
		return nil, err
	}
	if err := s.checkAvailable("cpf", user.CPF, s.userRepo.GetByCPF); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *AuthService) checkAvailable(field, value string, lookup func(string) (*models.User, error)) error {
	existing, err := lookup(value)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check %s availability: %w", field, err)
	}
	if existing != nil {
		return fmt.Errorf("%s '%s' already registered: %w", field, value, models.ErrConflict)
	}
	return nil
}

// VerifyCredentials returns the user when password matches the stored hash.
// Unknown emails and wrong passwords yield the same ErrInvalidCredentials.
func (s *AuthService) VerifyCredentials(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// LoginUser authenticates a user and returns a signed token.
func (s *AuthService) LoginUser(email, password string) (string, *models.User, error) {
	user, err := s.VerifyCredentials(email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs an HS256 token for user valid for the configured TTL.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", models.ErrSigningKeyMissing
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: user.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken checks signature and expiry and returns the embedded
// identity. Every failure wraps models.ErrUnauthorized.
func (s *AuthService) ValidateToken(tokenString string) (access.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if len(s.jwtSecret) == 0 {
			return nil, models.ErrSigningKeyMissing
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return access.Identity{}, fmt.Errorf("invalid token: %v: %w", err, models.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return access.Identity{}, fmt.Errorf("invalid token: %w", models.ErrUnauthorized)
	}
	if claims.ExpiresAt == 0 {
		return access.Identity{}, fmt.Errorf("invalid token: missing expiry: %w", models.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return access.Identity{}, fmt.Errorf("invalid token: missing subject: %w", models.ErrUnauthorized)
	}
	return access.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

// ResolveIdentity reloads the user behind a token so that role changes take
// effect without revoking tokens. A deleted user is unauthorized.
func (s *AuthService) ResolveIdentity(identity access.Identity) (access.Identity, error) {
	user, err := s.userRepo.GetByID(identity.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return access.Identity{}, fmt.Errorf("token subject no longer exists: %w", models.ErrUnauthorized)
		}
		return access.Identity{}, fmt.Errorf("failed to resolve identity: %w", err)
	}
	if user == nil {
		return access.Identity{}, fmt.Errorf("token subject no longer exists: %w", models.ErrUnauthorized)
	}
	if user.Role != identity.Role {
		s.logger.Debug("role changed since token issuance",
			zap.String("user_id", user.ID), zap.String("token_role", identity.Role), zap.String("role", user.Role))
	}
	return access.Identity{UserID: user.ID, Role: user.Role}, nil
}

// EnsureAdmin creates the bootstrap administrator, or promotes the user with
// that email if it already exists.
func (s *AuthService) EnsureAdmin(username, email, password, phone, cpf string) (*models.User, error) {
	email = validation.NormalizeEmail(email)
	existing, err := s.userRepo.GetByEmail(email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			existing.Role = models.RoleAdmin
			if err := s.userRepo.Update(existing); err != nil {
				return nil, fmt.Errorf("failed to promote admin: %w", err)
			}
			s.logger.Info("existing user promoted to admin", zap.String("user_id", existing.ID))
		}
		return existing, nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if normalized, err := validation.NormalizePhone(phone); err == nil {
		phone = normalized
	}
	admin := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Phone:    phone,
		CPF:      validation.NormalizeCPF(cpf),
		Role:     models.RoleAdmin,
	}
	if err := s.userRepo.Create(admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	s.logger.Info("admin user created", zap.String("user_id", admin.ID), zap.String("username", admin.Username))
	return admin, nil
}
