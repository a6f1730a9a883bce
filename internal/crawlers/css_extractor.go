package crawlers

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ExtractCSSURLs 提取样式表中引用的URL
// 包括 url(...) 和 @import "..." 两种形式,按出现顺序返回
// validate为true时记录无法解析的记号
func ExtractCSSURLs(data []byte, validate bool) []string {
	l := css.NewLexer(parse.NewInputBytes(data))

	var urls []string
	afterImport := false

	for {
		tt, text := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) && validate {
				utils.Warnf("CSS解析错误: %v", err)
			}
			return urls

		case css.URLToken:
			if ref := unwrapCSSURL(text); ref != "" {
				urls = append(urls, ref)
			}
			afterImport = false

		case css.StringToken:
			if afterImport {
				if ref := unquoteCSSString(text); ref != "" {
					urls = append(urls, ref)
				}
			}
			afterImport = false

		case css.AtKeywordToken:
			afterImport = strings.EqualFold(string(text), "@import")

		case css.BadURLToken, css.BadStringToken:
			if validate {
				utils.Warnf("CSS中存在无效记号 %s: %s", tt, truncate(string(text), 80))
			}
			afterImport = false

		case css.WhitespaceToken, css.CommentToken:
			// @import 与字符串之间允许空白和注释

		default:
			afterImport = false
		}
	}
}

// unwrapCSSURL 去掉 url( ) 包装和引号
func unwrapCSSURL(text []byte) string {
	open := bytes.IndexByte(text, '(')
	if open < 0 {
		return ""
	}
	inner := text[open+1:]
	inner = bytes.TrimSuffix(inner, []byte(")"))
	return unquoteCSSString(bytes.TrimSpace(inner))
}

// unquoteCSSString 去掉CSS字符串两端的引号
func unquoteCSSString(text []byte) string {
	s := strings.TrimSpace(string(text))
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// truncate 截断过长的日志内容
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
