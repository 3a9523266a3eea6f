package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeisme/soundvault/pkg/configs"
	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/db"
	"github.com/yeisme/soundvault/pkg/internal/types"
)

var (
	// ErrInvalidCredentials 用户名/密码不匹配，对外不区分具体原因.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists 用户名或邮箱已被占用.
	ErrUserExists = errors.New("user already exists")
	// ErrResetTokenInvalid 重置令牌不存在或已过期.
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
)

const resetTokenBytes = 32

// Claims JWT 负载.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService 注册、登录与密码重置.
type AuthService struct {
	dbClient *db.Client
	events   *userEvents
	cfg      configs.AuthConfig
}

// NewAuthService 从请求上下文装配认证服务.
func NewAuthService(c context.Context) *AuthService {
	return &AuthService{
		dbClient: ctxPkg.GetDBClient(c),
		events:   newUserEvents(ctxPkg.GetMQClient(c), configs.GetConfig().Events),
		cfg:      configs.GetConfig().Auth,
	}
}

// Register 注册新用户并直接签发令牌.
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (types.TokenResponse, error) {
	var count int64

	err := s.dbClient.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error
	if err != nil {
		return types.TokenResponse{}, fmt.Errorf("check existing user: %w", err)
	}

	if count > 0 {
		return types.TokenResponse{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return types.TokenResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:       uuid.NewString(),
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		Role:     model.RoleUser,
	}

	if err := s.dbClient.WithContext(ctx).Create(&user).Error; err != nil {
		return types.TokenResponse{}, fmt.Errorf("insert user: %w", err)
	}

	s.events.publishRegistered(ctx, user)

	return s.issueToken(user)
}

// Login 校验凭证并签发令牌. 用户名优先，其次邮箱.
func (s *AuthService) Login(ctx context.Context, req types.LoginRequest) (types.TokenResponse, error) {
	q := s.dbClient.WithContext(ctx)

	var user model.User

	var err error

	switch {
	case req.Username != "":
		err = q.First(&user, "username = ?", req.Username).Error
	case req.Email != "":
		err = q.First(&user, "email = ?", req.Email).Error
	default:
		return types.TokenResponse{}, ErrInvalidCredentials
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.TokenResponse{}, ErrInvalidCredentials
	}

	if err != nil {
		return types.TokenResponse{}, fmt.Errorf("query user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return types.TokenResponse{}, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// ForgotPassword 生成密码重置令牌：明文返回给调用方（由上层投递），
// 库里只存 SHA-256 哈希.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	var user model.User

	err := s.dbClient.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 不暴露邮箱是否注册
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("query user: %w", err)
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	token := hex.EncodeToString(raw)
	hashed := hashResetToken(token)
	expires := time.Now().UTC().Add(s.cfg.ResetTokenTTLDuration())

	err = s.dbClient.WithContext(ctx).Model(&user).Updates(map[string]any{
		"reset_password_token":   hashed,
		"reset_password_expires": expires,
	}).Error
	if err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	return token, nil
}

// ResetPassword 凭令牌设置新密码，成功后令牌作废.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	hashed := hashResetToken(token)

	var user model.User

	err := s.dbClient.WithContext(ctx).
		First(&user, "reset_password_token = ? AND reset_password_expires > ?", hashed, time.Now().UTC()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResetTokenInvalid
	}

	if err != nil {
		return fmt.Errorf("query reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.dbClient.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password":               string(hash),
		"reset_password_token":   "",
		"reset_password_expires": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

// ParseToken 校验并解析 JWT，供认证中间件使用.
func (s *AuthService) ParseToken(tokenString string) (lifecycle.Actor, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return lifecycle.Actor{}, lifecycle.ErrUnauthorized
	}

	return lifecycle.Actor{
		ID:    claims.UserID,
		Admin: claims.Role == string(model.RoleAdmin),
	}, nil
}

func (s *AuthService) issueToken(user model.User) (types.TokenResponse, error) {
	expiry := s.cfg.JWTExpiryDuration()
	now := time.Now().UTC()

	claims := Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return types.TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return types.TokenResponse{
		Token:     signed,
		ExpiresIn: int64(expiry.Seconds()),
		User:      types.NewUserInfo(user),
	}, nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
