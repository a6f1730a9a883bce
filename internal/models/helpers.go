package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// PassThroughSchemes 原样保留、从不抓取的协议
var PassThroughSchemes = []string{"data", "javascript", "file"}

// NormalizeTarget 补全协议并生成对应的404探测地址
// 没有协议的目标默认使用http
func NormalizeTarget(target string) (root *url.URL, errorPage *url.URL, err error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil, fmt.Errorf("%w: 目标为空", ErrInvalidTarget)
	}

	root, err = url.Parse(target)
	if err != nil || root.Scheme == "" || root.Host == "" {
		root, err = url.Parse("http://" + target)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}
	}
	if root.Host == "" {
		return nil, nil, fmt.Errorf("%w: 缺少主机名", ErrInvalidTarget)
	}

	errorPage = &url.URL{
		Scheme: root.Scheme,
		Host:   root.Host,
		Path:   "/status_404",
	}
	return root, errorPage, nil
}

// IsPassThroughScheme 判断协议是否原样保留
func IsPassThroughScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, s := range PassThroughSchemes {
		if scheme == s {
			return true
		}
	}
	return false
}

// IsFetchableScheme 判断协议是否可以抓取
func IsFetchableScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	return scheme == "http" || scheme == "https"
}

// RelativeForm 返回URL的根相对可读形式(路径+查询+片段)
// 空路径视为"/"
func RelativeForm(u *url.URL) string {
	var b strings.Builder

	path := u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}
	if path == "" {
		path = "/"
	}
	b.WriteString(path)

	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(humanQuery(u.RawQuery))
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

// queryReserved 在查询串中有分隔含义的字符,解码后保持转义
const queryReserved = "#%&+;="

// humanQuery 解码查询串中的百分号转义
// 分隔字符和控制字符保持原样,例如 q=a%20b%26c -> q=a b%26c;
// 解码结果不是合法UTF-8时返回原始查询串
func humanQuery(raw string) string {
	if !strings.Contains(raw, "%") {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '%' && i+2 < len(raw) {
			if c, err := strconv.ParseUint(raw[i+1:i+3], 16, 8); err == nil && !keepEscaped(byte(c)) {
				b.WriteByte(byte(c))
				i += 2
				continue
			}
		}
		b.WriteByte(raw[i])
	}

	decoded := b.String()
	if !utf8.ValidString(decoded) {
		return raw
	}
	return decoded
}

func keepEscaped(c byte) bool {
	return c < 0x20 || c == 0x7f || strings.IndexByte(queryReserved, c) >= 0
}

// HumanString 返回URL的绝对可读形式,作为去重键
// 例如: http://example.com -> http://example.com/
func HumanString(u *url.URL) string {
	if u == nil {
		return ""
	}
	if !u.IsAbs() {
		return RelativeForm(u)
	}
	return u.Scheme + "://" + u.Host + RelativeForm(u)
}

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}
