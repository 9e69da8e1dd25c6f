package common

import "errors"

// 错误码,web 层据此映射 HTTP 状态码
const (
	CodeValidation        = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeMatchClosed       = "MATCH_CLOSED"
	CodeReferencedByEvent = "REFERENCED_BY_EVENT"
	CodeConflict          = "CONFLICT"
	CodeSyncTransient     = "SYNC_TRANSIENT"
	CodeInternal          = "INTERNAL"
)

var (
	// ErrNotFound 未找到错误
	ErrNotFound = errors.New("not found")

	// ErrNotConnected 未连接错误
	ErrNotConnected = errors.New("not connected")

	// ErrSyncDisabled 同步未开启
	ErrSyncDisabled = errors.New("sync disabled for match")
)

// AppError 应用错误
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError 创建应用错误
func NewAppError(code string, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError 输入校验失败,改动未落库,原样返回调用方
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// WrapValidation 包装校验错误
func WrapValidation(cause error) *AppError {
	return &AppError{Code: CodeValidation, Message: "validation failed", Cause: cause}
}

// NewNotFoundError 资源不存在
func NewNotFoundError(what string) *AppError {
	return &AppError{Code: CodeNotFound, Message: what + " not found", Cause: ErrNotFound}
}

// NewMatchClosedError 比赛已结算,禁止改动账本/阵容
// 调用方需要先重置比赛状态再编辑
func NewMatchClosedError(status string) *AppError {
	return &AppError{
		Code:    CodeMatchClosed,
		Message: "match is " + status + ": reset match status before editing events or lineup",
	}
}

// NewReferencedByEventError 阵容条目仍被事件引用,禁止删除
// 不做级联删除,调用方需要先删除相关事件
func NewReferencedByEventError(message string) *AppError {
	return &AppError{Code: CodeReferencedByEvent, Message: message}
}

// NewConflictError 并发修改冲突(版本过期等),调用方重新加载后重试
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewSyncTransientError 外部数据源暂时不可用,同步适配器带退避重试
func NewSyncTransientError(message string, cause error) *AppError {
	return &AppError{Code: CodeSyncTransient, Message: message, Cause: cause}
}

// IsCode 判断错误链上是否存在指定错误码的 AppError
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
