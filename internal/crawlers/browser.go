package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// CapturedResponse 页面加载期间捕获的一个网络响应
type CapturedResponse struct {
	URL      string
	MIMEType string
	Headers  map[string]string
}

// Capture 一次页面加载的结果
type Capture struct {
	// HTML 渲染后的DOM源码
	HTML string

	// Responses 按到达顺序排列的网络响应
	Responses []CapturedResponse
}

// Browser 无头浏览器能力
//   - 超时返回 models.ErrRenderTimeout
//   - URL格式错误返回 models.ErrMalformedURL
type Browser interface {
	Load(ctx context.Context, rawURL string, timeout time.Duration) (Capture, error)
	Close() error
}

// RodBrowser 基于go-rod的浏览器实现
// 每次加载打开一个新标签页,加载结束后关闭
type RodBrowser struct {
	browser *rod.Browser

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	mu     sync.Mutex
	closed bool
}

// LaunchRodBrowser 启动无头浏览器
func LaunchRodBrowser(headerProvider models.HeaderProvider) (*RodBrowser, error) {
	l := launcher.New().Headless(true)

	// 允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	return &RodBrowser{browser: browser, headerProvider: headerProvider}, nil
}

// Load 加载页面并捕获网络响应
func (rb *RodBrowser) Load(ctx context.Context, rawURL string, timeout time.Duration) (capture Capture, err error) {
	if u, perr := url.Parse(rawURL); perr != nil || u.Host == "" {
		return Capture{}, fmt.Errorf("%w: %s", models.ErrMalformedURL, rawURL)
	}

	// rod在连接断开时可能panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", models.ErrRender, r)
		}
	}()

	page, err := rb.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return Capture{}, fmt.Errorf("%w: 打开标签页失败: %v", models.ErrRender, err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			utils.Debugf("关闭标签页失败: %v", cerr)
		}
	}()

	if err := rb.applyHeaders(page); err != nil {
		utils.Warnf("设置HTTP头部失败: %v", err)
	}

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return Capture{}, fmt.Errorf("%w: 启用网络域失败: %v", models.ErrRender, err)
	}

	var (
		mu        sync.Mutex
		responses []CapturedResponse
	)
	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()

	// 监听响应事件
	wait := page.Context(listenCtx).EachEvent(func(e *proto.NetworkResponseReceived) {
		resp := e.Response
		if resp == nil {
			return
		}
		headers := make(map[string]string, len(resp.Headers))
		for name, value := range resp.Headers {
			headers[name] = value.Str()
		}
		mu.Lock()
		responses = append(responses, CapturedResponse{
			URL:      resp.URL,
			MIMEType: resp.MIMEType,
			Headers:  headers,
		})
		mu.Unlock()
	})
	go wait()

	loading := page.Context(ctx).Timeout(timeout)
	if err := loading.Navigate(rawURL); err != nil {
		return Capture{}, classifyLoadError(err, rawURL)
	}
	if err := loading.WaitLoad(); err != nil {
		return Capture{}, classifyLoadError(err, rawURL)
	}

	source, err := page.Context(ctx).HTML()
	if err != nil {
		return Capture{}, fmt.Errorf("%w: 读取页面源码失败: %v", models.ErrRender, err)
	}

	mu.Lock()
	captured := make([]CapturedResponse, len(responses))
	copy(captured, responses)
	mu.Unlock()

	return Capture{HTML: source, Responses: captured}, nil
}

// applyHeaders 把克隆请求头部设置到标签页
func (rb *RodBrowser) applyHeaders(page *rod.Page) error {
	headers, err := RequestHeaders(rb.headerProvider)
	if err != nil {
		return err
	}

	dict := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		if len(values) > 0 {
			dict = append(dict, name, JoinHeaderValues(name, values))
		}
	}
	if len(dict) == 0 {
		return nil
	}
	_, err = page.SetExtraHeaders(dict)
	return err
}

// Close 关闭浏览器进程
func (rb *RodBrowser) Close() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed || rb.browser == nil {
		return nil
	}
	rb.closed = true
	if err := rb.browser.Close(); err != nil {
		return fmt.Errorf("关闭浏览器失败: %w", err)
	}
	utils.Debugf("浏览器已关闭")
	return nil
}

// classifyLoadError 把rod错误归类为超时、URL格式错误或渲染错误
func classifyLoadError(err error, rawURL string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", models.ErrRenderTimeout, rawURL)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "invalid url") || strings.Contains(msg, "err_invalid_url") {
		return fmt.Errorf("%w: %s", models.ErrMalformedURL, rawURL)
	}
	return fmt.Errorf("%w: %v", models.ErrRender, err)
}
