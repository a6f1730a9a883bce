package crawlers

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// BrowserMemoryReserve 启动无头浏览器所需的最小可用内存
const BrowserMemoryReserve = 300 * 1024 * 1024

// ResourceStatus 系统资源快照
type ResourceStatus struct {
	TotalMemory     uint64  // 系统总内存(字节)
	AvailableMemory uint64  // 可用内存(字节)
	CPUUsage        float64 // CPU使用率(%)
}

// SampleResources 采样系统内存和CPU
func SampleResources() (ResourceStatus, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return ResourceStatus{}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	status := ResourceStatus{
		TotalMemory:     vmStat.Total,
		AvailableMemory: vmStat.Available,
	}

	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err == nil && len(percentages) > 0 {
		status.CPUUsage = percentages[0]
	}
	return status, nil
}

// CheckBrowserResources 启动浏览器前检查系统资源
// 资源不足只记录警告,由调用方决定是否继续
func CheckBrowserResources() bool {
	status, err := SampleResources()
	if err != nil {
		utils.Warnf("%v", err)
		return true
	}

	utils.Debugf("系统资源: 总内存=%s, 可用内存=%s, CPU=%.1f%%",
		utils.FormatBytes(int64(status.TotalMemory)),
		utils.FormatBytes(int64(status.AvailableMemory)),
		status.CPUUsage)

	if status.AvailableMemory < BrowserMemoryReserve {
		utils.Warnf("可用内存不足 (%s),无头浏览器可能启动失败",
			utils.FormatBytes(int64(status.AvailableMemory)))
		return false
	}
	return true
}
