package models

import (
	"fmt"
	"net/http"
	"strings"
)

// CliHeaders 命令行 -H 参数列表,每项格式为 "Name: Value"
type CliHeaders []string

// Parse 解析为http.Header
// 同名头部多次指定时全部保留 (如多个Cookie)
func (ch CliHeaders) Parse() (http.Header, error) {
	result := make(http.Header)
	for i, s := range ch {
		name, value, err := parseHeaderString(s)
		if err != nil {
			return nil, fmt.Errorf("参数 --header 第%d项格式错误: %w", i+1, err)
		}
		result.Add(name, value)
	}
	return result, nil
}

func parseHeaderString(s string) (name, value string, err error) {
	name, value, ok := strings.Cut(s, ":")
	if !ok {
		return "", "", fmt.Errorf("缺少冒号分隔符,应为 'Name: Value'")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("头部名称不能为空")
	}
	return name, strings.TrimSpace(value), nil
}

// HeaderProvider 提供克隆请求使用的HTTP头部
// 返回的头部已按 默认 < 配置文件 < 命令行 合并,调用方可以修改
type HeaderProvider interface {
	GetHeaders() (http.Header, error)
}

// StaticHeaders 固定头部集合
type StaticHeaders http.Header

// GetHeaders 实现HeaderProvider
func (s StaticHeaders) GetHeaders() (http.Header, error) {
	return http.Header(s).Clone(), nil
}

// ValidationError 头部验证错误
type ValidationError struct {
	Field      string // "name" 或 "value"
	HeaderName string
	Reason     string
	Suggestion string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	FilePath string
	Cause    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Is/As
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
