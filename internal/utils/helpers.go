package utils

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// MinHostLength 目标主机名的最小长度
const MinHostLength = 4

// ReadURLsFromFile 从文件中读取目标列表
// 每行一个目标,协议可省略
func ReadURLsFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开URL文件失败: %w", err)
	}
	defer file.Close()

	urls := make([]string, 0)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := ValidateTarget(line); err != nil {
			Warnf("跳过无效目标 (行 %d): %s - %v", lineNum, line, err)
			continue
		}

		urls = append(urls, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取URL文件失败: %w", err)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("URL文件中没有有效的目标")
	}

	Infof("从文件加载了 %d 个目标", len(urls))
	return urls, nil
}

// ValidateTarget 验证克隆目标
// 没有协议时按http处理,主机名至少4个字符
func ValidateTarget(target string) error {
	raw := strings.TrimSpace(target)
	if raw == "" {
		return fmt.Errorf("目标为空")
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		parsed, err = url.Parse("http://" + raw)
		if err != nil {
			return fmt.Errorf("URL格式无效: %w", err)
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL协议必须是http或https")
	}

	if len(parsed.Hostname()) < MinHostLength {
		return fmt.Errorf("主机名无效: %q", parsed.Host)
	}

	return nil
}

// FormatBytes 格式化字节数
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
