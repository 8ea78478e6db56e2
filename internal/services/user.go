package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpDays        = 365
	minPasswordLength = 8
	minSearchLength   = 2
	searchLimit       = 10
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

// UserService handles accounts, sessions and profiles
type UserService struct {
	users     UserStore
	jwtSecret string
	now       func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users UserStore, jwtSecret string) *UserService {
	return &UserService{
		users:     users,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

// RegisterInput is the payload of a sign-up
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UpdateProfileInput carries optional profile changes
type UpdateProfileInput struct {
	DisplayName *string `json:"display_name"`
	Username    *string `json:"username"`
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// usernameFromEmail derives a default handle from the local part of email
func usernameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		local = email[:i]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	for len(name) < 3 {
		name += "_"
	}
	if len(name) > 30 {
		name = name[:30]
	}
	return name
}

// Register creates an account and returns a session token
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, models.NewValidationError("a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, models.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		return nil, models.NewValidationError("display name is required")
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		username = usernameFromEmail(email)
	}
	if !usernamePattern.MatchString(username) {
		return nil, models.NewValidationError("username must be 3-30 characters of letters, digits, '_' or '.'")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Username:     username,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return &AuthResult{User: user, Token: token}, nil
}

// Login checks credentials and returns a session token
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewUnauthorizedError("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("invalid email or password")
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")
	return &AuthResult{User: user, Token: token}, nil
}

// GetUser returns the account for userID
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of in
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	displayName := user.DisplayName
	if in.DisplayName != nil {
		displayName = strings.TrimSpace(*in.DisplayName)
		if displayName == "" {
			return nil, models.NewValidationError("display name cannot be empty")
		}
	}
	username := user.Username
	if in.Username != nil {
		username = strings.ToLower(strings.TrimSpace(*in.Username))
		if !usernamePattern.MatchString(username) {
			return nil, models.NewValidationError("username must be 3-30 characters of letters, digits, '_' or '.'")
		}
	}

	if err := s.users.UpdateProfile(ctx, userID, displayName, username); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	user.DisplayName = displayName
	user.Username = username
	return user, nil
}

// SetPushToken stores the device token. An empty token clears it.
func (s *UserService) SetPushToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	var value *string
	if token != "" {
		value = &token
	}
	if err := s.users.UpdatePushToken(ctx, userID, value); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewNotFoundError("user", userID)
		}
		return fmt.Errorf("failed to update push token: %w", err)
	}
	log.Info().Str("user_id", userID).Bool("cleared", value == nil).Msg("Push token updated")
	return nil
}

// Search finds users whose username starts with q
func (s *UserService) Search(ctx context.Context, q string) ([]models.PublicProfile, error) {
	prefix := strings.ToLower(strings.TrimSpace(q))
	if len([]rune(prefix)) < minSearchLength {
		return nil, models.NewValidationError(fmt.Sprintf("search query must be at least %d characters", minSearchLength))
	}

	users, err := s.users.SearchByUsernamePrefix(ctx, prefix, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	profiles := make([]models.PublicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}
