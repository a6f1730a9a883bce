package models

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// DefaultMaxRetries 单个URL的最大抓取次数
	DefaultMaxRetries = 3

	// DefaultRequestTimeout 直连抓取的请求超时
	DefaultRequestTimeout = 10 * time.Second

	// DefaultPageLoadTimeout 无头浏览器的页面加载超时
	DefaultPageLoadTimeout = 2 * time.Second
)

// CrawlTask 待抓取任务
// 入队后不再修改,重试时通过Retry生成新值
type CrawlTask struct {
	// URL 绝对地址
	URL *url.URL

	// Depth 深度层级
	//   - 0: 根URL和404探测页
	//   - 1: 从根页面发现的引用
	//   - 以此类推...
	Depth int

	// Attempt 已失败的抓取次数
	Attempt int
}

// NewCrawlTask 创建首次抓取的任务
func NewCrawlTask(u *url.URL, depth int) CrawlTask {
	return CrawlTask{URL: u, Depth: depth}
}

// Retry 返回尝试次数加一的新任务
func (t CrawlTask) Retry() CrawlTask {
	return CrawlTask{URL: t.URL, Depth: t.Depth, Attempt: t.Attempt + 1}
}

// String 用于日志输出
func (t CrawlTask) String() string {
	return fmt.Sprintf("%s (深度=%d, 尝试=%d)", HumanString(t.URL), t.Depth, t.Attempt)
}

// TaskStats 克隆统计
type TaskStats struct {
	VisitedURLs   int     `json:"visited_urls"`   // 已成功克隆的URL数
	StoredPages   int     `json:"stored_pages"`   // 写入磁盘的文件数
	FailedFetches int     `json:"failed_fetches"` // 抓取失败次数
	Requeued      int     `json:"requeued"`       // 重新入队次数
	DroppedTasks  int     `json:"dropped_tasks"`  // 超过重试上限被丢弃的任务数
	TotalSize     int64   `json:"total_size"`     // 总大小(字节)
	Duration      float64 `json:"duration"`       // 总耗时(秒)
}

// CloneConfig 克隆配置
type CloneConfig struct {
	MaxDepth        int           `json:"max_depth" mapstructure:"max_depth"`                 // 最大深度
	Headless        bool          `json:"headless" mapstructure:"headless"`                   // 使用无头浏览器渲染
	RequestTimeout  time.Duration `json:"request_timeout" mapstructure:"request_timeout"`     // 直连请求超时
	PageLoadTimeout time.Duration `json:"page_load_timeout" mapstructure:"page_load_timeout"` // 页面加载超时
	MaxRetries      int           `json:"max_retries" mapstructure:"max_retries"`             // 最大抓取次数
	CSSValidate     bool          `json:"css_validate" mapstructure:"css_validate"`           // 记录CSS中的错误记号
	OutputDir       string        `json:"output_dir" mapstructure:"-"`                        // 输出根目录
	MinFreeDiskMB   int           `json:"min_free_disk_mb" mapstructure:"-"`                  // 启动时要求的最小剩余空间(MB),0表示不检查
	ShowProgress    bool          `json:"-" mapstructure:"-"`                                 // 显示进度动画
}

// DefaultCloneConfig 默认克隆配置
func DefaultCloneConfig() CloneConfig {
	return CloneConfig{
		MaxDepth:        1,
		RequestTimeout:  DefaultRequestTimeout,
		PageLoadTimeout: DefaultPageLoadTimeout,
		MaxRetries:      DefaultMaxRetries,
		OutputDir:       "pages",
	}
}

// Validate 验证配置
func (c *CloneConfig) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("深度不能为负数,当前值: %d", c.MaxDepth)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("最大抓取次数必须大于0,当前值: %d", c.MaxRetries)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("请求超时必须大于0")
	}
	if c.Headless && c.PageLoadTimeout <= 0 {
		return fmt.Errorf("页面加载超时必须大于0")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("输出目录不能为空")
	}
	return nil
}
