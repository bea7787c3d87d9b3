package timeline

import (
	"errors"
	"fmt"
)

// 错误类别
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrAuthorization = errors.New("not authorized")
	ErrConflict      = errors.New("concurrent modification")
	ErrDependency    = errors.New("dependency failure")
)

// Error 带类别的错误，errors.Is 按 Kind 匹配
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return e.Kind == target }

func newError(kind error, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(op, format string, args ...any) error {
	return newError(ErrValidation, op, format, args...)
}

func NotFoundf(op, format string, args ...any) error {
	return newError(ErrNotFound, op, format, args...)
}

func Unauthorizedf(op, format string, args ...any) error {
	return newError(ErrAuthorization, op, format, args...)
}

func Conflictf(op, format string, args ...any) error {
	return newError(ErrConflict, op, format, args...)
}

// DependencyError 包装外部协作方（通知、MQ）的失败
func DependencyError(op string, err error) error {
	return &Error{Kind: ErrDependency, Op: op, Err: err}
}
