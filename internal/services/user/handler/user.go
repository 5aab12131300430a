package handler

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"brewstock-system/internal/database/models"
	"brewstock-system/internal/services/core"
	"brewstock-system/internal/utils"
)

const (
	USER_CACHE_PREFIX = "user:"
	CACHE_TTL_MEDIUM  = 30 * time.Minute
)

// UserHandler issues session tokens and manages admin accounts. The
// rest of the system only sees the username as an opaque actor tag.
type UserHandler struct {
	db       *gorm.DB
	redis    *redis.Client
	tokens   *utils.TokenIssuer
	tokenTTL time.Duration
}

func NewUserHandler(db *gorm.DB, redisClient *redis.Client, tokens *utils.TokenIssuer, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{
		db:       db,
		redis:    redisClient,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (s *UserHandler) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if req.Username == "" || req.Email == "" {
		return nil, core.Validationf("username and email are required")
	}
	if len(req.Password) < 8 {
		return nil, core.Validationf("password must be at least 8 characters")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		return nil, core.Transientf("checking existing user: %v", err)
	}
	if count > 0 {
		return nil, core.Conflictf("username or email already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, core.Transientf("hashing password: %v", err)
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		IsActive: true,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, core.Transientf("creating user: %v", err)
	}

	user.Password = ""
	return &user, nil
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
}

func (s *UserHandler) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.Validationf("invalid credentials")
		}
		return nil, core.Transientf("loading user: %v", err)
	}

	if !user.IsActive {
		return nil, core.Validationf("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, core.Validationf("invalid credentials")
	}

	token, exp, err := s.tokens.GenerateToken(user.ID, user.Username, s.tokenTTL)
	if err != nil {
		return nil, core.Transientf("signing token: %v", err)
	}

	now := time.Now()
	s.db.WithContext(ctx).Model(&user).Update("last_login", &now)

	return &LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		UserID:    user.ID,
		Username:  user.Username,
	}, nil
}

func (s *UserHandler) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.NotFoundf("user %d", id)
		}
		return nil, core.Transientf("loading user: %v", err)
	}
	user.Password = ""
	return &user, nil
}

func (s *UserHandler) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, core.Transientf("listing users: %v", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}
