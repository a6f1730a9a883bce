package crawlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
)

// DynamicFetcher 渲染抓取器
// 通过无头浏览器加载页面,非HTML资源回退到直连抓取
type DynamicFetcher struct {
	browser Browser

	// 非HTML资源的直连抓取器
	static Fetcher

	// 页面加载超时
	pageLoadTimeout time.Duration
}

// NewDynamicFetcher 创建渲染抓取器
func NewDynamicFetcher(browser Browser, static Fetcher, pageLoadTimeout time.Duration) *DynamicFetcher {
	if pageLoadTimeout <= 0 {
		pageLoadTimeout = models.DefaultPageLoadTimeout
	}
	return &DynamicFetcher{
		browser:         browser,
		static:          static,
		pageLoadTimeout: pageLoadTimeout,
	}
}

// Fetch 渲染抓取单个URL
func (df *DynamicFetcher) Fetch(ctx context.Context, u *url.URL) FetchResult {
	target := u.String()
	utils.Debugf("渲染: %s", target)

	capture, err := df.browser.Load(ctx, target, df.pageLoadTimeout)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRenderTimeout):
			utils.Errorf("请求超时: %s", target)
		case errors.Is(err, models.ErrMalformedURL):
			utils.Errorf("URL格式错误: %s", target)
		default:
			utils.Errorf("渲染失败 [%s]: %v", target, err)
		}
		return FetchResult{Err: err}
	}

	result := FetchResult{Body: []byte(capture.HTML)}
	if resp, ok := matchResponse(capture.Responses, u); ok {
		header := make(http.Header, len(resp.Headers))
		for name, value := range resp.Headers {
			header.Add(name, value)
		}
		result.Headers = FilterHeaders(header)

		result.ContentType = mediaType(header.Get("Content-Type"))
		if result.ContentType == "" {
			result.ContentType = mediaType(resp.MIMEType)
		}
	}

	// 浏览器对图片、样式等资源返回的是包装后的DOM,需要直连获取原始字节
	if result.ContentType != "" && !isHTML(result.ContentType) && df.static != nil {
		utils.Debugf("非HTML资源,改用直连抓取: %s (%s)", target, result.ContentType)
		direct := df.static.Fetch(ctx, u)
		result.Body = direct.Body
		result.Err = direct.Err
	}

	return result
}

// matchResponse 返回第一个URL与目标相同的响应
func matchResponse(responses []CapturedResponse, target *url.URL) (CapturedResponse, bool) {
	want := models.HumanString(target)
	for _, resp := range responses {
		u, err := url.Parse(resp.URL)
		if err != nil {
			continue
		}
		if models.HumanString(u) == want {
			return resp, true
		}
	}
	return CapturedResponse{}, false
}
