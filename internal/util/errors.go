package util

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindGone         ErrorKind = "GONE"
	KindBadRequest   ErrorKind = "BAD_REQUEST"
	KindUnavailable  ErrorKind = "UNAVAILABLE"
)

// AppError 业务层可预期的失败，控制器按 Kind 映射 HTTP 状态码
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Status() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGone:
		return http.StatusGone
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func newAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func UnauthorizedError(format string, args ...interface{}) *AppError {
	return newAppError(KindUnauthorized, format, args...)
}

func ForbiddenError(format string, args ...interface{}) *AppError {
	return newAppError(KindForbidden, format, args...)
}

func NotFoundError(format string, args ...interface{}) *AppError {
	return newAppError(KindNotFound, format, args...)
}

func ConflictError(format string, args ...interface{}) *AppError {
	return newAppError(KindConflict, format, args...)
}

func GoneError(format string, args ...interface{}) *AppError {
	return newAppError(KindGone, format, args...)
}

func BadRequestError(format string, args ...interface{}) *AppError {
	return newAppError(KindBadRequest, format, args...)
}

func UnavailableError(format string, args ...interface{}) *AppError {
	return newAppError(KindUnavailable, format, args...)
}

// KindOf 返回 err 链上第一个 AppError 的类型，不是 AppError 时返回空串
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// 仓储层哨兵错误，service 再转换为 AppError
var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrInvitationUsedUp  = errors.New("invitation no longer usable")
	ErrAttemptFinalized  = errors.New("attempt already submitted")
	ErrDuplicateIdentity = errors.New("email or username already registered")
	ErrAlreadyAssigned   = errors.New("topic already assigned to class")
)
