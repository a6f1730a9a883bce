package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/schollz/progressbar/v3"
)

// ReportFilename 克隆报告文件名
const ReportFilename = "clone_report.json"

// Reporter 报告生成器
type Reporter struct {
	outputDir string
	host      string
}

// NewReporter 创建报告生成器
// 报告写入 <outputDir>/reports/<host>/,与克隆页面目录分开
func NewReporter(outputDir string, host string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		host:      host,
	}
}

// ReportPath 返回报告文件路径
func (r *Reporter) ReportPath() string {
	return filepath.Join(r.outputDir, "reports", SanitizeHost(r.host), ReportFilename)
}

// GenerateReport 保存克隆报告
func (r *Reporter) GenerateReport(report *models.CloneReport) error {
	reportsDir := filepath.Dir(r.ReportPath())
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	if err := r.saveJSONReport(r.ReportPath(), report); err != nil {
		return err
	}

	Infof("报告已生成: %s", r.ReportPath())
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// SanitizeHost 把主机名中的端口分隔符替换为下划线,便于作为目录名
func SanitizeHost(host string) string {
	out := []rune(host)
	for i, c := range out {
		if c == ':' || c == '/' || c == '\\' {
			out[i] = '_'
		}
	}
	return string(out)
}

// NewSpinner 创建不定长度的进度动画
// visible为false时输出被丢弃
func NewSpinner(description string, visible bool) *progressbar.ProgressBar {
	var w io.Writer = os.Stderr
	if !visible {
		w = io.Discard
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(9),
		progressbar.OptionClearOnFinish(),
	)
}
