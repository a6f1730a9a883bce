package crawlers

import (
	"context"
	"net/url"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
)

// FetchResult 单次抓取的结果
// Body为nil表示没有取到数据,ContentType为空表示未知类型
type FetchResult struct {
	Body        []byte
	Headers     models.Headers
	ContentType string

	// 没有取到数据的原因(models.ErrNetwork, models.ErrRender等),可能为nil
	Err error
}

// Empty 是否没有取到数据
func (r FetchResult) Empty() bool {
	return len(r.Body) == 0
}

// Fetcher 抓取策略
// 失败时记录日志并返回空结果,原因放在FetchResult.Err中
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) FetchResult
}

// FetcherFunc 函数适配器,便于测试
type FetcherFunc func(ctx context.Context, u *url.URL) FetchResult

// Fetch 实现Fetcher
func (f FetcherFunc) Fetch(ctx context.Context, u *url.URL) FetchResult {
	return f(ctx, u)
}
