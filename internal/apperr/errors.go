package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRemote:
		return "remote_service_error"
	}
	return "internal"
}

// FieldError 表单里某个字段的一条违规信息
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 是service层对外返回的业务错误，handler按Kind映射HTTP状态码
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && len(e.Fields) > 0 {
		msg = e.FieldSummary()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FieldSummary 拼成 "field: msg; field: msg" 的形式
func (e *Error) FieldSummary() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRemote:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func Validation(op string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields}
}

func InvalidInput(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func NotFound(op, message string, err error) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message, Err: err}
}

func Unauthorized(op, message string) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Message: message}
}

func Remote(op, message string, err error) *Error {
	return &Error{Kind: KindRemote, Op: op, Message: message, Err: err}
}

func Internal(op, message string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: message, Err: err}
}

// KindOf 取错误链上第一个*Error的Kind，不是业务错误则视为Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
