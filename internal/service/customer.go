package service

import (
	"context"
	"strings"

	"github.com/user/alldrama/internal/model"
	"github.com/user/alldrama/internal/repository"
	"github.com/user/alldrama/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// CustomerService 个人资料
type CustomerService struct {
	users *repository.UserRepository
}

// NewCustomerService 创建个人资料服务
func NewCustomerService(users *repository.UserRepository) *CustomerService {
	return &CustomerService{users: users}
}

// Profile 获取当前用户
func (s *CustomerService) Profile(ctx context.Context, userID int) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.NotFoundError("User not found")
	}
	return user, nil
}

// UpdateProfile 修改姓名/邮箱，空值表示不修改
func (s *CustomerService) UpdateProfile(ctx context.Context, userID int, fullName, email string) (*model.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(fullName); name != "" {
		user.FullName = name
	}
	if email = normalizeEmail(email); email != "" && email != user.Email {
		other, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, utils.ConflictError(msgEmailRegistered)
		}
		user.Email = email
	}

	if err := s.users.UpdateProfile(ctx, user.ID, user.FullName, user.Email); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, utils.ConflictError(msgEmailRegistered)
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword 修改密码，未设置过密码的 OAuth 账号不校验旧密码
func (s *CustomerService) ChangePassword(ctx context.Context, userID int, current, next string) error {
	if len(next) < 6 {
		return utils.ValidationError("newPassword must be at least 6 characters")
	}
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if user.HasPassword() {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
			return utils.UnauthorizedError("Current password is incorrect")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, user.ID, string(hash))
}

// ListUsers 管理员查看全部用户
func (s *CustomerService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.users.ListAll(ctx)
}
