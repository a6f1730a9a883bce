package crawlers

import "github.com/RecoveryAshes/SiteCloner/internal/models"

// URLQueue 待抓取任务队列
// 职责: 按入队顺序保存任务,出队时跳过已克隆的URL
// 只在克隆协程中使用,不加锁
type URLQueue struct {
	// 待处理任务(环形缓冲,满时扩容)
	buf   []models.CrawlTask
	head  int
	count int

	// 已克隆URL集合(与RunContext共享)
	visited *models.VisitedSet
}

// NewURLQueue 创建任务队列
func NewURLQueue(visited *models.VisitedSet) *URLQueue {
	return &URLQueue{
		buf:     make([]models.CrawlTask, 64),
		visited: visited,
	}
}

// Push 任务加入队尾
func (q *URLQueue) Push(task models.CrawlTask) {
	if q.count == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.count)%len(q.buf)] = task
	q.count++
}

// Pop 取出下一个未克隆的任务
// 已克隆的URL直接丢弃,队列为空时返回false
func (q *URLQueue) Pop() (models.CrawlTask, bool) {
	for q.count > 0 {
		task := q.buf[q.head]
		q.buf[q.head] = models.CrawlTask{}
		q.head = (q.head + 1) % len(q.buf)
		q.count--

		if q.visited != nil && q.visited.Contains(models.HumanString(task.URL)) {
			continue
		}
		return task, true
	}
	return models.CrawlTask{}, false
}

// PendingCount 返回队列中的任务数量(含可能已克隆的重复项)
func (q *URLQueue) PendingCount() int {
	return q.count
}

// grow 缓冲区扩容为两倍
func (q *URLQueue) grow() {
	next := make([]models.CrawlTask, len(q.buf)*2)
	for i := 0; i < q.count; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}
