package crawlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"golang.org/x/net/html"
)

// redirectFieldPattern 匹配跳转字段的name属性,例如 redirect_to, RedirectURL
var redirectFieldPattern = regexp.MustCompile(`(?i)redirect`)

// RewriteHTML 重写HTML中的链接
//   - href: 只保留同主机链接,改写为根相对形式
//   - src, action: 任意主机的资源都入队,改写为根相对形式
//   - name匹配redirect的元素: 非空value改写为根相对形式,防止访问者被带离站点
//
// 按记号逐个复制,未修改的标签保持原始字节
func RewriteHTML(body []byte, depth int, resolver *URLResolver) ([]byte, error) {
	z := html.NewTokenizer(bytes.NewReader(body))
	var out bytes.Buffer
	out.Grow(len(body))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return out.Bytes(), nil
			}
			return nil, fmt.Errorf("HTML解析失败: %w", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			// Token()会原地转换标签名大小写,先复制原始字节
			raw := append([]byte(nil), z.Raw()...)
			tok := z.Token()
			if rewriteAttributes(&tok, depth, resolver) {
				out.WriteString(tok.String())
			} else {
				out.Write(raw)
			}

		default:
			out.Write(z.Raw())
		}
	}
}

// rewriteAttributes 按文档顺序改写标签属性,返回是否有改动
func rewriteAttributes(tok *html.Token, depth int, resolver *URLResolver) bool {
	changed := false
	isRedirectField := false

	for i := range tok.Attr {
		attr := &tok.Attr[i]
		var (
			res string
			ok  bool
		)

		switch attr.Key {
		case "href":
			res, ok = resolver.Resolve(attr.Val, depth, true)
		case "src", "action":
			res, ok = resolver.Resolve(attr.Val, depth, false)
		case "name":
			isRedirectField = redirectFieldPattern.MatchString(attr.Val)
			continue
		default:
			continue
		}

		if ok && res != attr.Val {
			attr.Val = res
			changed = true
		}
	}

	if isRedirectField {
		for i := range tok.Attr {
			attr := &tok.Attr[i]
			if attr.Key != "value" || attr.Val == "" {
				continue
			}
			if rel := redirectTarget(attr.Val); rel != attr.Val {
				attr.Val = rel
				changed = true
			}
		}
	}

	return changed
}

// redirectTarget 返回跳转值的根相对形式
// 无法解析或本身就是相对地址时原样返回
func redirectTarget(value string) string {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || u.Scheme == "" && u.Host == "" {
		return value
	}
	if u.Scheme != "" && !models.IsFetchableScheme(u.Scheme) {
		return value
	}
	return models.RelativeForm(u)
}
