// Package llm 提供 CompletionProvider 的各个实现与按名称查找的注册表
package llm

import (
	"errors"
	"fmt"
)

// ErrProviderNotFound 注册表中没有该名称的提供商
var ErrProviderNotFound = errors.New("llm provider not found")

// ErrEmptyCompletion 后端返回了空内容
var ErrEmptyCompletion = errors.New("empty completion")

// ProviderError 后端调用失败（网络、鉴权、限流、响应格式等）的统一错误
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(provider, model string, err error) error {
	return &ProviderError{Provider: provider, Model: model, Err: err}
}

// IsProviderError 判断是否为后端调用失败
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
