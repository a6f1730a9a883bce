package crawlers

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/gocolly/colly/v2"
)

// DefaultUserAgent 直连抓取使用的User-Agent
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:89.0) Gecko/20100101 Firefox/89.0"

// NewHTTPClient 创建一次克隆共享的HTTP客户端
// 跳过证书验证,允许克隆自签名或过期证书的站点
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = models.DefaultRequestTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: timeout,
	}
}

// StaticFetcher 直连抓取器(使用Colly)
type StaticFetcher struct {
	client *http.Client

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewStaticFetcher 创建直连抓取器
// client由调用方持有,在克隆结束时关闭空闲连接
func NewStaticFetcher(client *http.Client, headerProvider models.HeaderProvider) *StaticFetcher {
	if client == nil {
		client = NewHTTPClient(models.DefaultRequestTimeout)
	}
	return &StaticFetcher{
		client:         client,
		headerProvider: headerProvider,
	}
}

// newCollector 为单次抓取创建collector
func (sf *StaticFetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(DefaultUserAgent),
		colly.AllowURLRevisit(),
		// 404探测页等错误页面同样需要克隆
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(0),
	)
	c.SetClient(sf.client)
	return c
}

// rawContentTypeKey 暂存原始Content-Type的上下文键
const rawContentTypeKey = "raw_content_type"

// Fetch 抓取单个URL
func (sf *StaticFetcher) Fetch(ctx context.Context, u *url.URL) FetchResult {
	var result FetchResult
	target := u.String()

	c := sf.newCollector(ctx)

	// 访问前
	c.OnRequest(func(r *colly.Request) {
		if err := ApplyRequestHeaders(*r.Headers, sf.headerProvider); err != nil {
			utils.Warnf("%v", err)
		}
		utils.Debugf("访问: %s", r.URL.String())
	})

	// colly会把声明了非UTF-8字符集的文本响应转成UTF-8
	// 只允许HTML被转换,其他资源去掉charset参数,响应到达后再恢复
	c.OnResponseHeaders(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if contentType == "" || isHTML(contentType) || !strings.Contains(strings.ToLower(contentType), "charset") {
			return
		}
		r.Ctx.Put(rawContentTypeKey, contentType)
		r.Headers.Set("Content-Type", mediaType(contentType))
	})

	// 处理响应
	c.OnResponse(func(r *colly.Response) {
		if raw := r.Ctx.Get(rawContentTypeKey); raw != "" {
			r.Headers.Set("Content-Type", raw)
		}

		body := r.Body
		contentEncoding := r.Headers.Get("Content-Encoding")
		if contentEncoding != "" {
			decompressed, err := decompressResponse(contentEncoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", target, contentEncoding, err)
			} else {
				body = decompressed
			}
		}

		result = FetchResult{
			Body:        body,
			Headers:     FilterHeaders(*r.Headers),
			ContentType: mediaType(r.Headers.Get("Content-Type")),
		}
		utils.Debugf("响应 [%s]: 状态码=%d, 大小=%d bytes", target, r.StatusCode, len(body))
	})

	// 错误处理
	c.OnError(func(r *colly.Response, err error) {
		result.Err = fmt.Errorf("%w: %v", models.ErrNetwork, err)

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			utils.Errorf("请求超时 [%s]: %v", target, err)
			return
		}
		utils.Errorf("抓取错误 [%s]: %v", target, err)
	})

	if err := c.Visit(target); err != nil {
		if result.Err != nil {
			return FetchResult{Err: result.Err}
		}
		// 请求未发出(上下文取消等),OnError不会被调用
		if ctx.Err() == nil {
			utils.Debugf("抓取未完成 [%s]: %v", target, err)
		}
		return FetchResult{Err: fmt.Errorf("%w: %v", models.ErrNetwork, err)}
	}

	return result
}
