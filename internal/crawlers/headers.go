package crawlers

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/andybalholm/brotli"
)

// deniedHeaders 不写入清单的响应头部
// 这些头部与单次传输相关,回放时由服务端重新生成
var deniedHeaders = map[string]struct{}{
	"age":              {},
	"cache-control":    {},
	"connection":       {},
	"content-encoding": {},
	"content-length":   {},
	"date":             {},
	"etag":             {},
	"expires":          {},
	"x-cache":          {},
}

// IsDeniedHeader 判断头部是否被过滤(不区分大小写)
func IsDeniedHeader(name string) bool {
	_, ok := deniedHeaders[strings.ToLower(name)]
	return ok
}

// FilterHeaders 过滤并按名称排序响应头部
func FilterHeaders(header http.Header) models.Headers {
	return models.HeadersFromHTTP(header, IsDeniedHeader)
}

// DefaultRequestHeaders 克隆请求的默认头部
// 与浏览器访问一致,只请求HTML,压缩方式交给传输层协商
func DefaultRequestHeaders() http.Header {
	return http.Header{
		"User-Agent": []string{DefaultUserAgent},
		"Accept":     []string{"text/html"},
	}
}

// RequestHeaders 返回一次请求的完整头部
// provider中的头部整体覆盖同名默认头部,provider为nil时只有默认头部
func RequestHeaders(provider models.HeaderProvider) (http.Header, error) {
	headers := DefaultRequestHeaders()
	if provider == nil {
		return headers, nil
	}

	custom, err := provider.GetHeaders()
	if err != nil {
		return headers, fmt.Errorf("获取HTTP头部失败: %w", err)
	}
	for name, values := range custom {
		headers[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	return headers, nil
}

// ApplyRequestHeaders 把RequestHeaders的结果写入dst,同名头部被替换
// 获取自定义头部失败时仍写入默认头部并返回错误
func ApplyRequestHeaders(dst http.Header, provider models.HeaderProvider) error {
	headers, err := RequestHeaders(provider)
	for name, values := range headers {
		dst.Del(name)
		for _, value := range values {
			dst.Add(name, value)
		}
	}
	return err
}

// JoinHeaderValues 把同名头部的多个值合并为一行
// Cookie使用分号分隔,其余使用逗号
func JoinHeaderValues(name string, values []string) string {
	if strings.EqualFold(name, "Cookie") {
		return strings.Join(values, "; ")
	}
	return strings.Join(values, ", ")
}

// mediaType 从Content-Type中提取媒体类型,解析失败时返回原始值
func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mt
}

// isHTML 判断媒体类型是否为HTML
func isHTML(contentType string) bool {
	return mediaType(contentType) == "text/html"
}

// decompressResponse 根据Content-Encoding头部解压响应体
// gzip已由传输层或colly解压
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "gzip", "identity":
		return body, nil

	default:
		// 未知编码,保留原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}

// IsHTML 判断内容类型是否为HTML
func IsHTML(contentType string) bool {
	return isHTML(contentType)
}

// IsCSS 判断内容类型是否为样式表
func IsCSS(contentType string) bool {
	return mediaType(contentType) == "text/css"
}
