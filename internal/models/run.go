package models

import "net/url"

// VisitedSet 已克隆URL集合
// 只追加,保留插入顺序
type VisitedSet struct {
	order []string
	set   map[string]struct{}
}

// NewVisitedSet 创建空集合
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{set: make(map[string]struct{})}
}

// Add 加入集合,重复加入无效果
func (v *VisitedSet) Add(key string) {
	if _, ok := v.set[key]; ok {
		return
	}
	v.set[key] = struct{}{}
	v.order = append(v.order, key)
}

// Contains 检查是否已克隆
func (v *VisitedSet) Contains(key string) bool {
	_, ok := v.set[key]
	return ok
}

// Len 集合大小
func (v *VisitedSet) Len() int {
	return len(v.order)
}

// List 按加入顺序返回所有URL
func (v *VisitedSet) List() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// RunContext 单次克隆的全部可变状态
// 由Cloner持有,传给解析器、队列和存储
type RunContext struct {
	// Root 目标根URL
	Root *url.URL

	// MovedRoot 根URL重定向后的地址,未重定向时为nil
	MovedRoot *url.URL

	// ErrorPage 404探测页
	ErrorPage *url.URL

	// MaxDepth 最大深度
	MaxDepth int

	// Visited 已成功存储的URL
	Visited *VisitedSet

	// Manifest 路径 -> 页面记录
	Manifest Manifest
}

// NewRunContext 创建运行上下文
func NewRunContext(root, errorPage *url.URL, maxDepth int) *RunContext {
	return &RunContext{
		Root:      root,
		ErrorPage: errorPage,
		MaxDepth:  maxDepth,
		Visited:   NewVisitedSet(),
		Manifest:  make(Manifest),
	}
}

// ActiveRoot 返回当前生效的根URL
func (r *RunContext) ActiveRoot() *url.URL {
	if r.MovedRoot != nil {
		return r.MovedRoot
	}
	return r.Root
}

// IsRootHost 判断主机是否为根主机或重定向后的主机
func (r *RunContext) IsRootHost(host string) bool {
	if host == r.Root.Host {
		return true
	}
	return r.MovedRoot != nil && host == r.MovedRoot.Host
}

// IsVisited 检查URL是否已克隆
func (r *RunContext) IsVisited(u *url.URL) bool {
	return r.Visited.Contains(HumanString(u))
}

// MarkVisited 标记URL已克隆
func (r *RunContext) MarkVisited(u *url.URL) {
	r.Visited.Add(HumanString(u))
}
