package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 服务层错误分类,API 层据此映射 HTTP 状态码
var (
	// ErrValidation 输入不合法(预算为负、坐标越界、缺必填字段)
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 任务或用户不存在
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized 操作者无权执行该状态迁移
	ErrUnauthorized = errors.New("actor not permitted")
	// ErrInvalidTransition 状态图中不存在这条边
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyTaken 抢单失败: 任务已被其他服务者认领
	ErrAlreadyTaken = errors.New("task already taken")
	// ErrInvalidCode 完成码不匹配、不存在或已消费
	ErrInvalidCode = errors.New("invalid completion code")
	// ErrCodeExpired 完成码已过期
	ErrCodeExpired = errors.New("completion code expired")
	// ErrStorageUnavailable 存储层不可用,无部分状态变更
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// validationError 带说明的输入校验错误
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storageError 区分"记录不存在"与"存储不可用"
func storageError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
