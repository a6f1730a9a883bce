package models

import (
	"encoding/json"
	"time"
)

// CloneReport 克隆报告
type CloneReport struct {
	// 任务信息
	RunID     string `json:"run_id"`
	TargetURL string `json:"target_url"`
	MovedRoot string `json:"moved_root,omitempty"`
	Host      string `json:"host"`
	Headless  bool   `json:"headless"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 结束原因: completed, interrupted, failed
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`

	// 输出路径
	PagesDir     string `json:"pages_dir"`
	ManifestPath string `json:"manifest_path"`

	// 配置快照
	Config CloneConfig `json:"config"`
}

// NewCloneReport 创建带运行ID的报告
func NewCloneReport(targetURL string, config CloneConfig) *CloneReport {
	return &CloneReport{
		RunID:     generateID(),
		TargetURL: targetURL,
		Headless:  config.Headless,
		StartTime: time.Now(),
		Config:    config,
	}
}

// ToJSON 序列化为JSON
func (r *CloneReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CloneReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
