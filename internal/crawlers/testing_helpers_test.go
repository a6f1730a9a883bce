package crawlers

import (
	"bytes"
	"net/url"
	"testing"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/rs/zerolog"
)

// newTestRun 创建以target为根的运行上下文、队列和解析器
func newTestRun(t *testing.T, target string, maxDepth int) (*models.RunContext, *URLQueue, *URLResolver) {
	t.Helper()
	root, errorPage, err := models.NormalizeTarget(target)
	if err != nil {
		t.Fatalf("规范化目标失败: %v", err)
	}
	run := models.NewRunContext(root, errorPage, maxDepth)
	queue := NewURLQueue(run.Visited)
	return run, queue, NewURLResolver(run, queue)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("解析URL失败 [%s]: %v", raw, err)
	}
	return u
}

// drain 取出队列中全部任务
func drain(q *URLQueue) []models.CrawlTask {
	var tasks []models.CrawlTask
	for {
		task, ok := q.Pop()
		if !ok {
			return tasks
		}
		tasks = append(tasks, task)
	}
}

// captureLogs 把日志重定向到缓冲区,测试结束时恢复
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	restore := utils.SetOutput(&buf, zerolog.DebugLevel)
	t.Cleanup(restore)
	return &buf
}
