package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"github.com/ronsenministries/community-backend/internal/models"
	"github.com/ronsenministries/community-backend/internal/notify"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrUserNotFound       = errors.New("user not found")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type AuthService struct {
	db         *gorm.DB
	cfg        *config.Config
	googleJWKS *GoogleJWKSClient
	notifier   *notify.Publisher
	profileSF  singleflight.Group
}

func NewAuthService(db *gorm.DB, cfg *config.Config, notifier *notify.Publisher) *AuthService {
	return &AuthService{
		db:         db,
		cfg:        cfg,
		googleJWKS: NewGoogleJWKSClient(),
		notifier:   notifier,
	}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		Password:     string(hash),
		DisplayName:  defaultDisplayName(req.DisplayName, email),
		Role:         s.resolveRole(email),
		AuthProvider: "email",
	}

	if err := s.db.Create(&user).Error; err != nil {
		// A concurrent signup may have won the unique-index race.
		var check models.User
		if s.db.Where("email = ?", email).First(&check).Error == nil {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		// Same error for unknown email and wrong password; no account enumeration.
		return nil, ErrInvalidCredentials
	}

	if user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(&user)
}

// GoogleSignIn verifies a Google ID token and resolves the session. The first
// sign-in for an identity self-heals the missing profile document exactly
// like Register does.
func (s *AuthService) GoogleSignIn(req *dto.GoogleSignInRequest) (*dto.AuthResponse, error) {
	if req.IDToken == "" {
		return nil, errors.New("id token is required")
	}

	claims, err := s.googleJWKS.VerifyToken(req.IDToken, s.cfg.GoogleClientID)
	if err != nil {
		slog.Error("google token verification failed", "error", err)
		return nil, fmt.Errorf("failed to verify Google identity token: %w", err)
	}

	user, err := s.EnsureProfile(claims.Email, claims.Name, claims.Picture, claims.Sub)
	if err != nil {
		return nil, err
	}

	return s.generateTokenPair(user)
}

// EnsureProfile returns the profile for the given identity, creating it if
// absent. Creation derives the role from the admin allow-list and defaults
// the display name from the email local part. Concurrent calls for the same
// email collapse to a single lookup-or-create; the operation is idempotent
// because the created fields derive identically every time.
func (s *AuthService) EnsureProfile(email, displayName, avatarURL, googleID string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidEmail
	}

	v, err, _ := s.profileSF.Do(email, func() (interface{}, error) {
		var user models.User
		err := s.db.Where("google_user_id = ? OR email = ?", googleID, email).First(&user).Error
		if err == nil {
			if user.GoogleUserID == nil && googleID != "" {
				s.db.Model(&user).Updates(map[string]interface{}{
					"google_user_id": googleID,
					"auth_provider":  "google",
				})
				user.GoogleUserID = &googleID
				user.AuthProvider = "google"
			}
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile lookup failed: %w", err)
		}

		user = models.User{
			ID:           uuid.New(),
			Email:        email,
			Password:     "",
			DisplayName:  defaultDisplayName(displayName, email),
			AvatarURL:    avatarURL,
			Role:         s.resolveRole(email),
			AuthProvider: "google",
		}
		if googleID != "" {
			user.GoogleUserID = &googleID
		}
		if err := s.db.Create(&user).Error; err != nil {
			// Lost a cross-process race; the winner's row is equivalent.
			var check models.User
			if s.db.Where("email = ?", email).First(&check).Error == nil {
				return &check, nil
			}
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.User), nil
}

// resolveRole consults the admin allow-list (DB table plus the ADMIN_EMAILS
// config list). It is called only when a profile is created; existing
// profiles keep the role stored on their row.
func (s *AuthService) resolveRole(email string) string {
	for _, admin := range s.cfg.AdminEmailList() {
		if strings.EqualFold(admin, email) {
			return models.RoleAdmin
		}
	}
	var entry models.AdminAllowlistEntry
	if err := s.db.Where("email = ?", email).First(&entry).Error; err == nil {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// GetUserRole re-reads the profile row for the given user. A store failure
// degrades to an empty role rather than an error so callers can treat it as
// "no access" without blocking.
func (s *AuthService) GetUserRole(userID uuid.UUID) string {
	var user models.User
	if err := s.db.Select("role").First(&user, "id = ?", userID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Error("role lookup failed", "user_id", userID.String(), "error", err)
		}
		return ""
	}
	return user.Role
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPairForSession(&user, stored.SessionID)
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

// ResetPassword always reports success to the caller; whether the email
// exists is never leaked. When the account exists a single-use token is
// minted and handed to the notification queue.
func (s *AuthService) ResetPassword(req *dto.ResetPasswordRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		slog.Info("password reset for unknown email", "action", "reset_password")
		return nil
	}

	rawToken, tokenHash, err := newOpaqueToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	reset := models.PasswordReset{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	if err := s.db.Create(&reset).Error; err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.notifier.PasswordResetRequested(user.Email, rawToken)
	return nil
}

func (s *AuthService) CompleteReset(req *dto.CompleteResetRequest) error {
	if len(req.NewPassword) < 8 {
		return ErrWeakPassword
	}

	var reset models.PasswordReset
	if err := s.db.Where("token_hash = ? AND used = false", hashToken(req.Token)).First(&reset).Error; err != nil {
		return ErrInvalidResetToken
	}
	if time.Now().After(reset.ExpiresAt) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password", string(hash)).Error; err != nil {
			return err
		}
		if err := tx.Model(&reset).Update("used", true).Error; err != nil {
			return err
		}
		// All sessions for the user are terminated on password change.
		return tx.Model(&models.RefreshToken{}).Where("user_id = ?", reset.UserID).Update("revoked", true).Error
	})
}

// AcknowledgeGuidelines records the one-time forum guidelines acceptance.
func (s *AuthService) AcknowledgeGuidelines(userID uuid.UUID) error {
	result := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("has_read_forum_guidelines", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *AuthService) generateTokenPair(user *models.User) (*dto.AuthResponse, error) {
	return s.generateTokenPairForSession(user, uuid.New())
}

func (s *AuthService) generateTokenPairForSession(user *models.User, sessionID uuid.UUID) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user, sessionID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user, sessionID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Role:        user.Role,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, sessionID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"name":  user.DisplayName,
		"sid":   sessionID.String(),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User, sessionID uuid.UUID) (string, error) {
	rawToken, tokenHash, err := newOpaqueToken()
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		SessionID: sessionID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func newOpaqueToken() (raw string, hash string, err error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	raw = base64.URLEncoding.EncodeToString(rawBytes)
	return raw, hashToken(raw), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func defaultDisplayName(name, email string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	return strings.Split(email, "@")[0]
}
