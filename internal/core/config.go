package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Clone   models.CloneConfig `mapstructure:"clone"`
	Logging LoggingConfig      `mapstructure:"logging"`
	Output  OutputConfig       `mapstructure:"output"`
	Storage StorageConfig      `mapstructure:"storage"`
	Batch   BatchConfig        `mapstructure:"batch"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	MinFreeMB int `mapstructure:"min_free_mb"`
}

// BatchConfig 批量克隆配置
type BatchConfig struct {
	Delay           time.Duration `mapstructure:"delay"`
	ContinueOnError bool          `mapstructure:"continue_on_error"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".sitecloner"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 克隆配置默认值
	v.SetDefault("clone.max_depth", 1)
	v.SetDefault("clone.headless", false)
	v.SetDefault("clone.request_timeout", models.DefaultRequestTimeout)
	v.SetDefault("clone.page_load_timeout", models.DefaultPageLoadTimeout)
	v.SetDefault("clone.max_retries", models.DefaultMaxRetries)
	v.SetDefault("clone.css_validate", false)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "pages")

	// 存储配置默认值
	v.SetDefault("storage.min_free_mb", 100)

	// 批量配置默认值
	v.SetDefault("batch.delay", 0)
	v.SetDefault("batch.continue_on_error", true)
}

// GetCloneConfig 从配置中提取克隆配置
func (c *Config) GetCloneConfig() models.CloneConfig {
	cfg := c.Clone
	cfg.OutputDir = c.Output.BaseDir
	cfg.MinFreeDiskMB = c.Storage.MinFreeMB
	return cfg
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// MergeCLIFlags 合并命令行参数到配置
// 负数或空值表示未指定,保留配置文件的值
func (c *Config) MergeCLIFlags(depth int, headless bool, outputDir string, cssValidate bool) {
	if depth >= 0 {
		c.Clone.MaxDepth = depth
	}
	if headless {
		c.Clone.Headless = true
	}
	if outputDir != "" {
		c.Output.BaseDir = outputDir
	}
	if cssValidate {
		c.Clone.CSSValidate = true
	}
}
