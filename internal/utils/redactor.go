package utils

import (
	"net/http"
	"strings"
)

// SensitiveKeywords 名称包含这些关键字的头部在日志中脱敏
// 克隆需要登录的站点时常通过 -H 传入Cookie
var SensitiveKeywords = []string{
	"authorization",
	"cookie",
	"token",
	"key",
	"secret",
	"password",
	"credential",
}

// HeaderRedactor 头部脱敏器
type HeaderRedactor struct {
	sensitiveKeywords []string
}

// NewHeaderRedactor 创建头部脱敏器
func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{sensitiveKeywords: SensitiveKeywords}
}

// IsSensitiveHeader 按名称关键字判断是否敏感
func (hr *HeaderRedactor) IsSensitiveHeader(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range hr.sensitiveKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactHeaderValue 脱敏单个头部值
func (hr *HeaderRedactor) RedactHeaderValue(name, value string) string {
	if !hr.IsSensitiveHeader(name) {
		return value
	}

	switch {
	case strings.HasPrefix(value, "Bearer "):
		return "Bearer ***"
	case strings.HasPrefix(value, "Basic "):
		return "Basic ***"
	case len(value) > 8:
		// 保留首尾4位便于核对
		return value[:4] + "***" + value[len(value)-4:]
	default:
		return "***"
	}
}

// Redact 返回脱敏后的头部,多个值以逗号连接
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		redacted := make([]string, len(values))
		for i, value := range values {
			redacted[i] = hr.RedactHeaderValue(name, value)
		}
		result[name] = strings.Join(redacted, ", ")
	}
	return result
}

// RedactToString 脱敏并格式化为 "Name: value; Name: value",按名称排序
func (hr *HeaderRedactor) RedactToString(headers http.Header) string {
	redacted := hr.Redact(headers)
	parts := make([]string, 0, len(redacted))
	for _, name := range sortedNames(headers) {
		if value, ok := redacted[name]; ok {
			parts = append(parts, name+": "+value)
		}
	}
	return strings.Join(parts, "; ")
}
