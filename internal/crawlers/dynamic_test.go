package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
)

// fakeBrowser 返回预设结果的浏览器
type fakeBrowser struct {
	capture Capture
	err     error

	loaded  []string
	timeout time.Duration
	closed  bool
}

func (b *fakeBrowser) Load(ctx context.Context, rawURL string, timeout time.Duration) (Capture, error) {
	b.loaded = append(b.loaded, rawURL)
	b.timeout = timeout
	return b.capture, b.err
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

func TestDynamicFetcher_HTML(t *testing.T) {
	browser := &fakeBrowser{
		capture: Capture{
			HTML: "<html><body>rendered</body></html>",
			Responses: []CapturedResponse{
				{URL: "http://example.com/other.js", MIMEType: "application/javascript"},
				{
					URL:      "http://example.com",
					MIMEType: "text/html",
					Headers: map[string]string{
						"Content-Type": "text/html; charset=utf-8",
						"Server":       "nginx",
						"Date":         "Mon, 01 Jan 2024 00:00:00 GMT",
					},
				},
			},
		},
	}
	static := FetcherFunc(func(ctx context.Context, u *url.URL) FetchResult {
		t.Errorf("HTML页面不应直连抓取: %s", u)
		return FetchResult{}
	})

	fetcher := NewDynamicFetcher(browser, static, 0)
	result := fetcher.Fetch(context.Background(), mustParse(t, "http://example.com/"))

	if string(result.Body) != "<html><body>rendered</body></html>" {
		t.Errorf("应返回渲染后的DOM, 实际 %s", result.Body)
	}
	if result.ContentType != "text/html" {
		t.Errorf("期望text/html, 实际%s", result.ContentType)
	}
	if result.Headers.Get("Server") != "nginx" || result.Headers.Get("Date") != "" {
		t.Errorf("头部过滤不正确: %v", result.Headers)
	}
	if browser.timeout != models.DefaultPageLoadTimeout {
		t.Errorf("期望默认加载超时%v, 实际%v", models.DefaultPageLoadTimeout, browser.timeout)
	}
}

func TestDynamicFetcher_NonHTMLFallback(t *testing.T) {
	browser := &fakeBrowser{
		capture: Capture{
			HTML: `<html><body><img src="http://example.com/logo.png"></body></html>`,
			Responses: []CapturedResponse{
				{URL: "http://example.com/logo.png", MIMEType: "image/png"},
			},
		},
	}

	var directCalls int
	static := FetcherFunc(func(ctx context.Context, u *url.URL) FetchResult {
		directCalls++
		return FetchResult{Body: []byte("\x89PNG"), ContentType: "image/png"}
	})

	fetcher := NewDynamicFetcher(browser, static, time.Second)
	result := fetcher.Fetch(context.Background(), mustParse(t, "http://example.com/logo.png"))

	if directCalls != 1 {
		t.Fatalf("非HTML资源应直连抓取一次, 实际%d次", directCalls)
	}
	if string(result.Body) != "\x89PNG" {
		t.Errorf("应使用直连抓取的原始字节, 实际%q", result.Body)
	}
	if result.ContentType != "image/png" {
		t.Errorf("期望image/png, 实际%s", result.ContentType)
	}
}

func TestDynamicFetcher_NoMatchingResponse(t *testing.T) {
	browser := &fakeBrowser{capture: Capture{HTML: "<p>x</p>"}}
	fetcher := NewDynamicFetcher(browser, nil, time.Second)

	result := fetcher.Fetch(context.Background(), mustParse(t, "http://example.com/a"))
	if string(result.Body) != "<p>x</p>" {
		t.Errorf("应返回渲染内容, 实际 %s", result.Body)
	}
	if result.ContentType != "" || len(result.Headers) != 0 {
		t.Errorf("没有匹配的响应时类型和头部应为空, 实际 %q %v", result.ContentType, result.Headers)
	}
}

func TestDynamicFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantLog string
	}{
		{"加载超时", fmt.Errorf("%w: deadline", models.ErrRenderTimeout), "请求超时"},
		{"URL格式错误", models.ErrMalformedURL, "URL格式错误"},
		{"其他渲染错误", fmt.Errorf("%w: crashed", models.ErrRender), "渲染失败"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			browser := &fakeBrowser{err: tt.err}
			fetcher := NewDynamicFetcher(browser, nil, time.Second)

			result := fetcher.Fetch(context.Background(), mustParse(t, "http://example.com/"))
			if !result.Empty() {
				t.Errorf("出错时应返回空结果, 实际%q", result.Body)
			}
			if !errors.Is(result.Err, tt.err) {
				t.Errorf("期望错误%v, 实际%v", tt.err, result.Err)
			}
			if !strings.Contains(logs.String(), tt.wantLog) {
				t.Errorf("期望日志包含%q, 实际: %s", tt.wantLog, logs.String())
			}
		})
	}
}

func TestMatchResponse(t *testing.T) {
	responses := []CapturedResponse{
		{URL: "http://example.com/a?x=1", MIMEType: "text/html"},
		{URL: "http://example.com/a", MIMEType: "text/css"},
		{URL: "http://example.com/a", MIMEType: "image/png"},
	}

	resp, ok := matchResponse(responses, mustParse(t, "http://example.com/a"))
	if !ok {
		t.Fatal("期望找到匹配的响应")
	}
	if resp.MIMEType != "text/css" {
		t.Errorf("应返回第一个匹配的响应, 实际%s", resp.MIMEType)
	}

	if _, ok := matchResponse(responses, mustParse(t, "http://example.com/b")); ok {
		t.Error("不应匹配其他URL")
	}
}
