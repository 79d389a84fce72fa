package service

import (
	"github.com/user/alldrama/internal/model"
)

// Actor 当前请求的调用者
type Actor struct {
	UserID int
	Role   string
}

// IsAdmin 是否管理员
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// TokenIssuer 签发访问令牌
type TokenIssuer interface {
	Issue(userID int, role string) (string, error)
}
