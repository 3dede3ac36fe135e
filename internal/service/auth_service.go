package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	apperrors "focusflow/internal/errors"
	"focusflow/internal/log"
	"focusflow/internal/model"
	"focusflow/internal/repository"
)

const minPasswordLength = 6

type AuthService struct {
	userRepo  *repository.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	// revoked holds the ids of logged-out tokens until they would have expired anyway.
	revoked *cache.Cache
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		revoked:   cache.New(tokenTTL, 10*time.Minute),
	}
}

type TokenClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*model.AuthResult, *apperrors.APIError) {
	normalized := strings.TrimSpace(username)
	if normalized == "" {
		return nil, apperrors.BadRequest("invalid_username", "username is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.BadRequest("invalid_password", "password must be at least 6 characters")
	}

	_, err := s.userRepo.GetByUsername(ctx, normalized)
	if err == nil {
		return nil, apperrors.Conflict("username_exists", "username already registered", nil)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("failed to query user")
	}

	passwordHashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to secure password")
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     normalized,
		PasswordHash: string(passwordHashBytes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, &user); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperrors.Conflict("username_exists", "username already registered", nil)
		}
		return nil, apperrors.Internal("failed to create user")
	}
	log.Info(log.CatAuth, "user registered", "user", user.ID)

	token, apiErr := s.issueToken(user)
	if apiErr != nil {
		return nil, apiErr
	}

	user.PasswordHash = ""
	return &model.AuthResult{
		Token: token,
		User:  user,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*model.AuthResult, *apperrors.APIError) {
	normalized := strings.TrimSpace(username)
	if normalized == "" || password == "" {
		return nil, apperrors.BadRequest("invalid_credentials", "username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, normalized)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("invalid username or password")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to query user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		log.Warn(log.CatAuth, "login rejected", "user", user.ID)
		return nil, apperrors.Unauthorized("invalid username or password")
	}

	token, apiErr := s.issueToken(*user)
	if apiErr != nil {
		return nil, apiErr
	}

	user.PasswordHash = ""
	return &model.AuthResult{
		Token: token,
		User:  *user,
	}, nil
}

// Logout revokes the token identified by claims for the rest of its lifetime.
func (s *AuthService) Logout(claims TokenClaims) {
	ttl := time.Until(claims.ExpiresAt)
	if claims.TokenID == "" || ttl <= 0 {
		return
	}
	s.revoked.Set(claims.TokenID, claims.UserID, ttl)
	log.Info(log.CatAuth, "token revoked", "user", claims.UserID)
}

func (s *AuthService) Session(ctx context.Context, userID string) (*model.User, *apperrors.APIError) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("session user no longer exists")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to query user")
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) ParseToken(tokenString string) (*TokenClaims, *apperrors.APIError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, apperrors.Unauthorized("invalid token")
	}

	if claims.Subject == "" {
		return nil, apperrors.Unauthorized("invalid token subject")
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked && claims.ID != "" {
		return nil, apperrors.Unauthorized("token revoked")
	}

	parsed := &TokenClaims{UserID: claims.Subject, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}
	return parsed, nil
}

func (s *AuthService) issueToken(user model.User) (string, *apperrors.APIError) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Internal("failed to sign token")
	}
	return signed, nil
}
