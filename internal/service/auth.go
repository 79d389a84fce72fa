package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/user/alldrama/internal/logger"
	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const (
	oauthDefaultName   = "Google User"
	msgEmailRegistered = "Email already registered"
	msgBadCredentials  = "Invalid email or password"
)

// LoginResult 登录结果
type LoginResult struct {
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
	Created bool        `json:"created,omitempty"`
}

// AuthService 注册、登录、OAuth 开通
type AuthService struct {
	users    *repository.UserRepository
	tokens   TokenIssuer
	attempts *utils.AttemptLimiter
	log      *logrus.Entry
}

// NewAuthService 创建认证服务
func NewAuthService(users *repository.UserRepository, tokens TokenIssuer, attempts *utils.AttemptLimiter) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		attempts: attempts,
		log:      logger.Component("auth"),
	}
}

// RegisterUser 注册普通用户
func (s *AuthService) RegisterUser(ctx context.Context, fullName, email, password string) (*model.User, error) {
	return s.register(ctx, fullName, email, password, model.RoleUser)
}

// RegisterAdmin 注册管理员
func (s *AuthService) RegisterAdmin(ctx context.Context, fullName, email, password string) (*model.User, error) {
	return s.register(ctx, fullName, email, password, model.RoleAdmin)
}

// register 空密码只用于 OAuth 开通，此时不计算哈希
func (s *AuthService) register(ctx context.Context, fullName, email, password, role string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, utils.ValidationError("email is required")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.ConflictError(msgEmailRegistered)
	}

	hash := ""
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(b)
	}

	user := &model.User{
		FullName:     strings.TrimSpace(fullName),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, utils.ConflictError(msgEmailRegistered)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("用户注册成功")
	return user, nil
}

// Login 邮箱密码登录。password 为空时跳过密码校验，这是 OAuth 登录沿用的行为，
// 对没有设置密码的账号等同于免密登录，保留现状等待产品决定。
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	email = normalizeEmail(email)
	key := email + "|" + utils.HashIP(clientIP)
	if s.attempts.Blocked(key) {
		return nil, utils.TooManyRequestsError("Too many failed login attempts, try again later")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.attempts.Fail(key)
		return nil, utils.UnauthorizedError(msgBadCredentials)
	}

	if password == "" {
		s.log.WithField("user_id", user.ID).Warn("空密码登录，跳过密码校验")
	} else if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.attempts.Fail(key)
		return nil, utils.UnauthorizedError(msgBadCredentials)
	}

	s.attempts.Reset(key)
	return s.issue(user, false)
}

// OAuthCheck 第三方登录：不存在则以空密码开通，存在则直接签发令牌
func (s *AuthService) OAuthCheck(ctx context.Context, email string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, utils.ValidationError("email is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		s.log.WithField("user_id", user.ID).Warn("OAuth 登录，跳过密码校验")
		return s.issue(user, false)
	}

	user, err = s.register(ctx, oauthDefaultName, email, "", model.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issue(user, true)
}

func (s *AuthService) issue(user *model.User, created bool) (*LoginResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, Created: created}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
