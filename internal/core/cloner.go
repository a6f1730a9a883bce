package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/SiteCloner/internal/crawlers"
	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/storage"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
)

// 克隆结束原因
const (
	OutcomeCompleted   = "completed"
	OutcomeInterrupted = "interrupted"
	OutcomeFailed      = "failed"
)

// BrowserLauncher 启动无头浏览器
type BrowserLauncher func(headerProvider models.HeaderProvider) (crawlers.Browser, error)

// Cloner 站点克隆协调器
// 一个Cloner只克隆一个目标,状态不可复用
type Cloner struct {
	config models.CloneConfig
	target string

	// 运行状态
	run      *models.RunContext
	store    *storage.PageStore
	queue    *crawlers.URLQueue
	resolver *crawlers.URLResolver

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 共享HTTP客户端,结束时关闭空闲连接
	client *http.Client

	// 抓取策略
	fetcher         crawlers.Fetcher
	browser         crawlers.Browser
	launchBrowser   BrowserLauncher
	fetcherOverride bool

	// 统计信息
	stats    models.TaskStats
	report   *models.CloneReport
	reporter *utils.Reporter
}

// Option Cloner可选项
type Option func(*Cloner)

// WithFetcher 使用指定的抓取策略(忽略Headless配置)
func WithFetcher(f crawlers.Fetcher) Option {
	return func(c *Cloner) {
		c.fetcher = f
		c.fetcherOverride = true
	}
}

// WithHTTPClient 使用指定的HTTP客户端
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cloner) {
		c.client = client
	}
}

// WithBrowserLauncher 使用指定的浏览器启动函数
func WithBrowserLauncher(launch BrowserLauncher) Option {
	return func(c *Cloner) {
		c.launchBrowser = launch
	}
}

// NewCloner 创建克隆器
// 执行流程:
//  1. 补全协议,校验主机名
//  2. 创建 <output>/<host> 目录
//  3. 检查磁盘剩余空间
//  4. 生成404探测地址
func NewCloner(target string, config models.CloneConfig, headerProvider models.HeaderProvider, opts ...Option) (*Cloner, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	root, errorPage, err := models.NormalizeTarget(target)
	if err != nil {
		return nil, err
	}
	if len(root.Hostname()) < utils.MinHostLength {
		return nil, fmt.Errorf("%w: 主机名 %q", models.ErrInvalidTarget, root.Host)
	}

	run := models.NewRunContext(root, errorPage, config.MaxDepth)

	targetDir := filepath.Join(config.OutputDir, utils.SanitizeHost(root.Host))
	store, err := storage.NewPageStore(targetDir, run)
	if err != nil {
		return nil, err
	}

	if err := storage.CheckFreeSpace(targetDir, config.MinFreeDiskMB); err != nil {
		return nil, err
	}

	queue := crawlers.NewURLQueue(run.Visited)

	c := &Cloner{
		config:         config,
		target:         target,
		run:            run,
		store:          store,
		queue:          queue,
		resolver:       crawlers.NewURLResolver(run, queue),
		headerProvider: headerProvider,
		launchBrowser:  defaultBrowserLauncher,
		reporter:       utils.NewReporter(config.OutputDir, root.Host),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = crawlers.NewHTTPClient(config.RequestTimeout)
	}

	utils.Debugf("克隆器已创建: 目标=%s, 输出=%s", root, targetDir)
	return c, nil
}

// defaultBrowserLauncher 检查资源后启动go-rod浏览器
func defaultBrowserLauncher(headerProvider models.HeaderProvider) (crawlers.Browser, error) {
	crawlers.CheckBrowserResources()
	browser, err := crawlers.LaunchRodBrowser(headerProvider)
	if err != nil {
		return nil, err
	}
	return browser, nil
}

// ResolveRoot 请求一次根URL,检测跨主机重定向
// 响应来自其他主机时,后续解析和主机过滤都以重定向后的URL为准
func (c *Cloner) ResolveRoot(ctx context.Context) error {
	root := c.run.Root

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrRootUnreachable, err)
	}
	if err := crawlers.ApplyRequestHeaders(req.Header, c.headerProvider); err != nil {
		utils.Warnf("%v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrRootUnreachable, err)
	}
	defer resp.Body.Close()
	// 读完响应体以便复用连接
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	final := resp.Request.URL
	if final.Host != root.Host {
		c.run.MovedRoot = final
		utils.Infof("目标已重定向: %s -> %s", root, final)
	}
	return nil
}

// Run 执行克隆
// 根URL无法连接时直接返回错误,不写任何文件;
// 进入抓取阶段后,无论正常结束、被取消还是出错,都会写入清单并释放资源
func (c *Cloner) Run(ctx context.Context) (err error) {
	startTime := time.Now()
	defer utils.WithTarget(c.run.Root.Host)()

	c.report = models.NewCloneReport(c.run.Root.String(), c.config)
	c.report.Host = c.run.Root.Host

	utils.Infof("开始克隆: %s", c.run.Root)
	utils.Infof("最大深度: %d, 无头模式: %v", c.config.MaxDepth, c.config.Headless)
	utils.Infof("输出目录: %s", c.store.Dir())

	if err := c.ResolveRoot(ctx); err != nil {
		utils.Errorf("无法连接目标主机: %v", err)
		return err
	}

	outcome := OutcomeCompleted
	defer func() {
		c.stats.Duration = time.Since(startTime).Seconds()
		c.finalize(outcome, err)
	}()

	fetcher := c.openFetcher()

	c.queue.Push(models.NewCrawlTask(c.run.Root, 0))
	c.queue.Push(models.NewCrawlTask(c.run.ErrorPage, 0))

	crawlErr := c.crawl(ctx, fetcher)
	switch {
	case crawlErr == nil:
		utils.Infof("克隆完成: %d 个页面", c.stats.StoredPages)
	case errors.Is(crawlErr, context.Canceled) || errors.Is(crawlErr, context.DeadlineExceeded):
		outcome = OutcomeInterrupted
		utils.Warnf("克隆已中断,保存已克隆的 %d 个页面", c.stats.StoredPages)
	default:
		outcome = OutcomeFailed
		utils.Errorf("克隆出错: %v", crawlErr)
		err = crawlErr
	}
	return err
}

// openFetcher 根据配置选择抓取策略
// 浏览器启动失败时退回直连抓取
func (c *Cloner) openFetcher() crawlers.Fetcher {
	if c.fetcherOverride {
		return c.fetcher
	}

	static := crawlers.NewStaticFetcher(c.client, c.headerProvider)
	if !c.config.Headless {
		c.fetcher = static
		return static
	}

	browser, err := c.launchBrowser(c.headerProvider)
	if err != nil {
		utils.Errorf("无头浏览器启动失败,改用直连抓取: %v", err)
		c.fetcher = static
		return static
	}

	c.browser = browser
	c.fetcher = crawlers.NewDynamicFetcher(browser, static, c.config.PageLoadTimeout)
	return c.fetcher
}

// crawl 处理队列直到为空
func (c *Cloner) crawl(ctx context.Context, fetcher crawlers.Fetcher) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("克隆过程panic: %v", r)
			utils.Errorf("捕获panic: %v", r)
		}
	}()

	spinner := utils.NewSpinner("克隆中", c.config.ShowProgress)
	defer func() {
		_ = spinner.Finish()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		task, ok := c.queue.Pop()
		if !ok {
			return nil
		}
		_ = spinner.Add(1)

		c.processTask(ctx, fetcher, task)
	}
}

// processTask 抓取、改写并存储单个任务
func (c *Cloner) processTask(ctx context.Context, fetcher crawlers.Fetcher, task models.CrawlTask) {
	if task.Attempt >= c.config.MaxRetries {
		utils.Warnf("超过最大抓取次数,放弃: %s", task)
		c.stats.DroppedTasks++
		return
	}

	path, hash := c.store.CanonicalPath(task.URL)

	result := fetcher.Fetch(ctx, task.URL)
	if result.Empty() {
		c.stats.FailedFetches++
		if result.Err != nil {
			utils.Debugf("抓取失败,重新入队: %s: %v", task, result.Err)
		}
		c.requeue(task)
		return
	}

	c.run.Manifest.Record(path, hash, result.Headers)

	data := result.Body
	switch {
	case crawlers.IsHTML(result.ContentType):
		rewritten, err := crawlers.RewriteHTML(data, task.Depth, c.resolver)
		if err != nil {
			utils.Errorf("改写HTML失败 [%s]: %v", task.URL, err)
		} else {
			data = rewritten
		}

	case crawlers.IsCSS(result.ContentType):
		for _, ref := range crawlers.ExtractCSSURLs(data, c.config.CSSValidate) {
			c.resolver.Enqueue(ref, task.Depth)
		}
	}

	if err := c.store.Write(hash, data); err != nil {
		utils.Errorf("%v", err)
		c.requeue(task)
		return
	}

	c.run.MarkVisited(task.URL)
	c.stats.VisitedURLs = c.run.Visited.Len()
	c.stats.StoredPages++
	c.stats.TotalSize += int64(len(data))

	utils.Debugf("已克隆: %s", path)
}

// requeue 尝试次数加一后重新入队
func (c *Cloner) requeue(task models.CrawlTask) {
	c.stats.Requeued++
	c.queue.Push(task.Retry())
}

// finalize 写入清单、关闭浏览器和连接、生成报告
func (c *Cloner) finalize(outcome string, runErr error) {
	if err := c.store.WriteManifest(c.run.Manifest); err != nil {
		utils.Errorf("写入清单失败: %v", err)
	}

	if c.browser != nil {
		if err := c.browser.Close(); err != nil {
			utils.Warnf("%v", err)
		}
	}
	c.client.CloseIdleConnections()

	c.report.EndTime = time.Now()
	c.report.Stats = c.stats
	c.report.Outcome = outcome
	c.report.PagesDir = c.store.Dir()
	c.report.ManifestPath = c.store.ManifestPath()
	if c.run.MovedRoot != nil {
		c.report.MovedRoot = c.run.MovedRoot.String()
	}
	if runErr != nil {
		c.report.Error = runErr.Error()
	}
	if err := c.reporter.GenerateReport(c.report); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}

	utils.Infof("已克隆页面: %d, 失败抓取: %d, 放弃任务: %d, 总大小: %s, 耗时: %.2f秒",
		c.stats.StoredPages, c.stats.FailedFetches, c.stats.DroppedTasks,
		utils.FormatBytes(c.stats.TotalSize), c.stats.Duration)
}

// RunContext 返回运行状态
func (c *Cloner) RunContext() *models.RunContext {
	return c.run
}

// Store 返回页面存储
func (c *Cloner) Store() *storage.PageStore {
	return c.store
}

// GetStats 获取统计信息
func (c *Cloner) GetStats() models.TaskStats {
	return c.stats
}

// Report 返回最近一次运行的报告
func (c *Cloner) Report() *models.CloneReport {
	return c.report
}
