package service

import (
	"errors"
	"fmt"

	"github.com/kgkhs001/BrighamWomensApp/internal/form"
)

// ValidationError 表单或参数校验失败（422）
type ValidationError = form.ValidationError

// NotFoundError 资源不存在（404）
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// StorageError 数据库读写失败（500），调用方可以重试
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageError 包装数据库错误，已分类的错误原样返回
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var notFound *NotFoundError
	var validation *ValidationError
	var storage *StorageError
	if errors.As(err, &notFound) || errors.As(err, &validation) || errors.As(err, &storage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsNotFound 判断是否为资源不存在错误
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}
