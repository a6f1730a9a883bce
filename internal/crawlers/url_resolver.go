package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
)

// URLResolver URL规范化器
// 职责: 把页面中的引用解析为绝对URL,决定是否入队,并返回根相对形式
type URLResolver struct {
	run   *models.RunContext
	queue *URLQueue
}

// NewURLResolver 创建URL规范化器
func NewURLResolver(run *models.RunContext, queue *URLQueue) *URLResolver {
	return &URLResolver{run: run, queue: queue}
}

// Resolve 处理一个引用
//   - data/javascript/file等非HTTP协议原样返回,不入队
//   - 相对引用基于当前生效的根URL解析
//   - checkHost为true时拒绝其他主机和带片段的链接
//   - 未克隆且depth+1不超过最大深度时入队
//
// 第二个返回值为false表示引用被拒绝,调用方应保留原值
func (r *URLResolver) Resolve(reference string, depth int, checkHost bool) (string, bool) {
	u, err := parseReference(reference)
	if err != nil {
		utils.Debugf("%v", err)
		return "", false
	}

	if models.IsPassThroughScheme(u.Scheme) {
		return reference, true
	}
	if u.Scheme != "" && !models.IsFetchableScheme(u.Scheme) {
		// mailto:, tel: 等无法抓取
		return reference, true
	}

	abs := r.absolute(u)

	if checkHost && (!r.sameHost(abs.Host) || abs.Fragment != "") {
		return "", false
	}

	r.enqueue(abs, depth)

	return models.RelativeForm(abs), true
}

// Enqueue 把绝对URL按depth+1入队(用于CSS引用)
func (r *URLResolver) Enqueue(reference string, depth int) bool {
	u, err := parseReference(reference)
	if err != nil {
		utils.Debugf("%v", err)
		return false
	}
	if u.Scheme != "" && !models.IsFetchableScheme(u.Scheme) {
		return false
	}
	return r.enqueue(r.absolute(u), depth)
}

// parseReference 解析页面中的引用,失败时返回models.ErrParse
func parseReference(reference string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(reference))
	if err != nil {
		return nil, fmt.Errorf("%w [%s]: %v", models.ErrParse, reference, err)
	}
	return u, nil
}

// absolute 相对引用基于当前生效的根URL解析
func (r *URLResolver) absolute(u *url.URL) *url.URL {
	if u.Scheme != "" {
		return u
	}
	return r.run.ActiveRoot().ResolveReference(u)
}

// sameHost 未重定向时必须是根主机,重定向后必须是新主机
func (r *URLResolver) sameHost(host string) bool {
	if r.run.MovedRoot != nil {
		return host == r.run.MovedRoot.Host
	}
	return host == r.run.Root.Host
}

// enqueue 未克隆且深度未超限时入队
func (r *URLResolver) enqueue(u *url.URL, depth int) bool {
	if depth+1 > r.run.MaxDepth {
		return false
	}
	if r.run.IsVisited(u) {
		return false
	}
	r.queue.Push(models.NewCrawlTask(u, depth+1))
	return true
}
