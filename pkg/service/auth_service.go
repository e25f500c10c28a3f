// User accounts and bearer-token sessions
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/pkg/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// AuthService manages users and sessions. Passwords are bcrypt-hashed;
// sessions are opaque bearer tokens stored server-side.
type AuthService struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(gdb *gorm.DB, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{db: gdb, logger: logger}
}

// EnsureUser creates the user if it does not exist yet. Used to seed the
// bootstrap admin account from config.
func (s *AuthService) EnsureUser(username, password string) error {
	var count int64
	if err := s.db.Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &db.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user %s: %w", username, err)
	}
	s.logger.Info("seeded user", "username", username)
	return nil
}

// Login checks the credentials and opens a new session.
func (s *AuthService) Login(username, password string) (string, error) {
	var user db.User
	if err := s.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	session := &db.Session{
		Token:  uuid.New().String(),
		UserID: user.ID,
	}
	if err := s.db.Create(session).Error; err != nil {
		return "", err
	}
	return session.Token, nil
}

// ValidateToken resolves a bearer token to a user id.
func (s *AuthService) ValidateToken(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}
	var session db.Session
	if err := s.db.First(&session, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidSession
		}
		return "", err
	}
	return session.UserID, nil
}

// Logout revokes a session token.
func (s *AuthService) Logout(token string) error {
	return s.db.Delete(&db.Session{}, "token = ?", token).Error
}
