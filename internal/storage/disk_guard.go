package storage

import (
	"fmt"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/shirou/gopsutil/v3/disk"
)

// CheckFreeSpace 检查目录所在磁盘的剩余空间
// minMB为0时不检查;无法获取磁盘信息时只记录警告
func CheckFreeSpace(dir string, minMB int) error {
	if minMB <= 0 {
		return nil
	}

	usage, err := disk.Usage(dir)
	if err != nil {
		utils.Warnf("获取磁盘信息失败 [%s]: %v", dir, err)
		return nil
	}

	freeMB := usage.Free / (1024 * 1024)
	utils.Debugf("磁盘剩余空间: %d MB (要求至少 %d MB)", freeMB, minMB)

	if freeMB < uint64(minMB) {
		return fmt.Errorf("%w: %s 剩余 %d MB,要求至少 %d MB", models.ErrLowDiskSpace, dir, freeMB, minMB)
	}
	return nil
}
