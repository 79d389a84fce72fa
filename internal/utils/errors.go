package utils

import (
	"errors"
	"net/http"
)

// ErrorKind 错误分类
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
	KindUpstream
)

// Status 错误分类对应的 HTTP 状态码
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AppError 业务错误，Message 可直接返回给客户端
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// ValidationError 参数缺失或非法
func ValidationError(message string) error {
	return newAppError(KindValidation, message)
}

// UnauthorizedError 未登录或凭证错误
func UnauthorizedError(message string) error {
	return newAppError(KindUnauthorized, message)
}

// ForbiddenError 角色不符
func ForbiddenError(message string) error {
	return newAppError(KindForbidden, message)
}

// NotFoundError 记录不存在
func NotFoundError(message string) error {
	return newAppError(KindNotFound, message)
}

// ConflictError 唯一性冲突
func ConflictError(message string) error {
	return newAppError(KindConflict, message)
}

// TooManyRequestsError 请求过于频繁
func TooManyRequestsError(message string) error {
	return newAppError(KindTooManyRequests, message)
}

// UpstreamError 包装对象存储等外部依赖的错误，message 面向客户端，cause 仅写日志
func UpstreamError(message string, cause error) error {
	return &AppError{Kind: KindUpstream, Message: message, Err: cause}
}

// KindOf 返回错误分类，非 AppError 返回 0
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

// IsNotFound 是否为 NotFound
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
