package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/spf13/viper"
)

const (
	// DefaultHeaderFile 默认头部文件路径
	DefaultHeaderFile = "configs/headers.yaml"

	// MaxHeaderFileSize 头部文件最大大小 (1MB)
	MaxHeaderFileSize = 1 * 1024 * 1024
)

//go:embed headers_template.yaml
var headerTemplate []byte

// HeaderFile 克隆请求的附加头部文件
//
// 文件格式:
//
//	headers:
//	  Referer: "https://www.example.com/"
//	  Cookie:
//	    - "session=${SITE_SESSION}"
//	    - "lang=en"
//
// 列表值会作为多个同名头部发送。
type HeaderFile struct {
	path      string
	validator *utils.HeaderValidator
}

// NewHeaderFile path为空时使用DefaultHeaderFile
func NewHeaderFile(path string) *HeaderFile {
	if path == "" {
		path = DefaultHeaderFile
	}
	return &HeaderFile{
		path:      path,
		validator: utils.NewHeaderValidator(),
	}
}

// Path 返回文件路径
func (f *HeaderFile) Path() string {
	return f.path
}

// Load 读取并校验头部文件
//   - 文件不存在时写入带注释的模板,返回空头部
//   - 名称按HTTP规范化(viper读出的键名全部是小写)
//   - ${ENV}在校验前展开
//   - 禁止的头部(Host, Accept-Encoding等)和非法值返回*models.ConfigError
func (f *HeaderFile) Load() (http.Header, error) {
	data, err := f.read()
	if errors.Is(err, fs.ErrNotExist) {
		if err := f.writeTemplate(); err != nil {
			return nil, err
		}
		return make(http.Header), nil
	}
	if err != nil {
		return nil, &models.ConfigError{FilePath: f.path, Cause: err}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, &models.ConfigError{FilePath: f.path, Cause: err}
	}

	headers := make(http.Header)
	raw := v.GetStringMap("headers")
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values, err := headerValues(raw[name])
		if err != nil {
			return nil, &models.ConfigError{FilePath: f.path, Cause: fmt.Errorf("头部 %s: %w", name, err)}
		}
		for _, value := range values {
			headers.Add(name, os.ExpandEnv(value))
		}
	}

	if err := f.validator.Validate(headers); err != nil {
		return nil, &models.ConfigError{FilePath: f.path, Cause: err}
	}

	utils.Debugf("从 %s 加载了 %d 个请求头部", f.path, len(headers))
	return headers, nil
}

// read 读取文件内容,超过MaxHeaderFileSize时报错
func (f *HeaderFile) read() ([]byte, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxHeaderFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxHeaderFileSize {
		return nil, fmt.Errorf("文件过大 (最大 %d 字节)", MaxHeaderFileSize)
	}
	return data, nil
}

func (f *HeaderFile) writeTemplate() error {
	utils.Infof("头部配置文件不存在,生成模板: %s", f.path)

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("无法创建配置目录 [%s]: %w", dir, err)
	}
	if err := os.WriteFile(f.path, headerTemplate, 0644); err != nil {
		return fmt.Errorf("无法生成配置文件 [%s]: %w", f.path, err)
	}
	return nil
}

// headerValues 字符串或字符串列表,空值视为没有配置
func headerValues(raw interface{}) ([]string, error) {
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{val}, nil
	case []interface{}:
		values := make([]string, 0, len(val))
		for _, item := range val {
			switch item.(type) {
			case map[string]interface{}, []interface{}:
				return nil, fmt.Errorf("列表项必须是字符串")
			}
			values = append(values, fmt.Sprint(item))
		}
		return values, nil
	case map[string]interface{}:
		return nil, fmt.Errorf("值必须是字符串或字符串列表")
	default:
		// 数字和布尔值按字面量处理,如 DNT: 1
		return []string{fmt.Sprint(val)}, nil
	}
}
