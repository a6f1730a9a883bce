package main

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/SiteCloner/internal/core"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
)

// ValidateFlags 验证命令行标志
// depth为负数表示未指定
func ValidateFlags(targetURL string, depth int, batchDelay int) error {
	if targetURL != "" {
		if err := utils.ValidateTarget(targetURL); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	if depth > 100 {
		return fmt.Errorf("克隆深度必须在0-100之间,当前值: %d", depth)
	}

	if batchDelay < 0 || batchDelay > 3600 {
		return fmt.Errorf("批量延迟必须在0-3600秒之间,当前值: %d", batchDelay)
	}

	return nil
}

// runValidateConfig 加载并验证头部配置,输出脱敏后的结果
func runValidateConfig(headerManager *core.HeaderManager) error {
	utils.Infof("🔍 验证HTTP头部配置: %s", headerManager.ConfigPath())

	described, err := headerManager.Describe()
	if err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(described))
	for _, h := range described {
		utils.Infof("  %s: %s [%s]", h.Name, h.Value, h.Source)
	}
	return nil
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
