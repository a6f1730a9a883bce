package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
)

// BatchCloner 批量克隆器
// 按顺序逐个克隆目标,每个目标使用独立的Cloner
type BatchCloner struct {
	config         models.CloneConfig
	batchDelay     time.Duration
	continueOnErr  bool
	headerProvider models.HeaderProvider
	opts           []Option
}

// BatchResult 单个目标的克隆结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       error
	Stats       models.TaskStats
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量克隆摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	TotalPages    int
	TotalSize     int64
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchCloner 创建批量克隆器
func NewBatchCloner(config models.CloneConfig, batchDelay time.Duration, continueOnErr bool, headerProvider models.HeaderProvider, opts ...Option) *BatchCloner {
	return &BatchCloner{
		config:         config,
		batchDelay:     batchDelay,
		continueOnErr:  continueOnErr,
		headerProvider: headerProvider,
		opts:           opts,
	}
}

// CloneBatch 批量克隆目标列表
// 上下文被取消时停止处理剩余目标
func (bc *BatchCloner) CloneBatch(ctx context.Context, urls []string) (*BatchSummary, error) {
	utils.Infof("开始批量克隆: %d个目标", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	startTime := time.Now()

	for i, targetURL := range urls {
		if ctx.Err() != nil {
			utils.Warnf("批量克隆已中断,剩余 %d 个目标未处理", len(urls)-i)
			break
		}

		utils.Infof("==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("目标: %s", targetURL)

		result := bc.cloneSingle(ctx, targetURL)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalPages += result.Stats.StoredPages
			summary.TotalSize += result.Stats.TotalSize
		} else {
			summary.FailCount++
			utils.Errorf("克隆失败: %v", result.Error)

			// 如果不继续处理错误,则停止
			if !bc.continueOnErr {
				utils.Warn("批量克隆中止 (--continue-on-error=false)")
				break
			}
		}

		// 批量延迟(最后一个目标不需要延迟)
		if i < len(urls)-1 && bc.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个目标...", bc.batchDelay.Seconds())
			select {
			case <-ctx.Done():
			case <-time.After(bc.batchDelay):
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()

	bc.printSummary(summary)

	if summary.FailCount > 0 && summary.SuccessCount == 0 {
		return summary, fmt.Errorf("所有目标克隆失败")
	}
	return summary, nil
}

// cloneSingle 克隆单个目标
func (bc *BatchCloner) cloneSingle(ctx context.Context, targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	cloner, err := NewCloner(targetURL, bc.config, bc.headerProvider, bc.opts...)
	if err != nil {
		result.Error = fmt.Errorf("创建克隆器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	if err := cloner.Run(ctx); err != nil {
		result.Error = err
		result.Stats = cloner.GetStats()
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	result.Success = true
	result.Stats = cloner.GetStats()
	result.Duration = time.Since(startTime).Seconds()

	return result
}

// printSummary 打印批量克隆摘要
func (bc *BatchCloner) printSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("批量克隆摘要")
	utils.Info("==================================================")
	utils.Infof("目标数: %d", summary.TotalURLs)
	utils.Infof("成功: %d", summary.SuccessCount)
	utils.Infof("失败: %d", summary.FailCount)
	utils.Infof("总页面数: %d", summary.TotalPages)
	utils.Infof("总大小: %s", utils.FormatBytes(summary.TotalSize))
	utils.Infof("总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("失败的目标:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.URL, result.Error)
			}
		}
	}
}
