package core

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/RecoveryAshes/SiteCloner/internal/config"
	"github.com/RecoveryAshes/SiteCloner/internal/crawlers"
	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
)

// HeaderSource 请求头部的来源
type HeaderSource string

const (
	SourceDefault HeaderSource = "默认"
	SourceFile    HeaderSource = "配置文件"
	SourceCLI     HeaderSource = "命令行"
)

// EffectiveHeader 一个生效的请求头部,Value已脱敏
type EffectiveHeader struct {
	Name   string
	Value  string
	Source HeaderSource
}

// HeaderManager 组装克隆请求头部,实现 models.HeaderProvider
//
// 三层按优先级整体覆盖同名头部:
//
//	crawlers.DefaultRequestHeaders < headers.yaml < 命令行 -H
//
// 头部文件在第一次GetHeaders时加载,结果(包括错误)在整个进程内复用,
// 批量克隆的每个目标看到同一组头部。
type HeaderManager struct {
	file     *config.HeaderFile
	cli      http.Header
	redactor *utils.HeaderRedactor

	once    sync.Once
	merged  http.Header
	sources map[string]HeaderSource
	loadErr error
}

// NewHeaderManager 解析并校验命令行头部
// configFile为空时使用config.DefaultHeaderFile
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}
	if err := utils.NewHeaderValidator().Validate(cli); err != nil {
		return nil, fmt.Errorf("命令行头部无效: %w", err)
	}

	return &HeaderManager{
		file:     config.NewHeaderFile(configFile),
		cli:      cli,
		redactor: utils.NewHeaderRedactor(),
	}, nil
}

// ConfigPath 返回头部文件路径
func (hm *HeaderManager) ConfigPath() string {
	return hm.file.Path()
}

// GetHeaders 返回合并后的头部副本
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	hm.once.Do(hm.load)
	if hm.loadErr != nil {
		return nil, hm.loadErr
	}
	return hm.merged.Clone(), nil
}

// Describe 按名称排序返回生效的头部及其来源,用于 --validate-config
func (hm *HeaderManager) Describe() ([]EffectiveHeader, error) {
	headers, err := hm.GetHeaders()
	if err != nil {
		return nil, err
	}

	safe := hm.redactor.Redact(headers)
	result := make([]EffectiveHeader, 0, len(safe))
	for name, value := range safe {
		result = append(result, EffectiveHeader{
			Name:   name,
			Value:  value,
			Source: hm.sources[name],
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (hm *HeaderManager) load() {
	fileHeaders, err := hm.file.Load()
	if err != nil {
		utils.Errorf("加载请求头部失败: %v", err)
		hm.loadErr = err
		return
	}

	hm.merged = make(http.Header)
	hm.sources = make(map[string]HeaderSource)
	hm.overlay(crawlers.DefaultRequestHeaders(), SourceDefault)
	hm.overlay(fileHeaders, SourceFile)
	hm.overlay(hm.cli, SourceCLI)

	utils.Debugf("请求头部: %s", hm.redactor.RedactToString(hm.merged))
}

// overlay 同名头部整体替换,不追加
func (hm *HeaderManager) overlay(headers http.Header, source HeaderSource) {
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		hm.merged[name] = append([]string(nil), values...)
		hm.sources[name] = source
	}
}
