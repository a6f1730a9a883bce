package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/SiteCloner/internal/core"
	"github.com/RecoveryAshes/SiteCloner/internal/models"
	"github.com/RecoveryAshes/SiteCloner/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string
	headersConfig  string
	validateConfig bool

	// 克隆参数
	targetURL   string
	urlFile     string
	depth       int
	headless    bool
	outputDir   string
	cssValidate bool
	progress    bool

	// 批量处理参数
	batchDelay      int
	continueOnError bool
)

// appConfig 在PersistentPreRunE中加载,供RunE复用
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "sitecloner",
	Short: "网站克隆工具",
	Long: `SiteCloner - 网站克隆工具

将目标站点克隆到本地目录,供蜜罐回放使用:
  • 按深度广度优先抓取同主机页面
  • 改写页面中的链接为站内相对地址
  • 从样式表中提取资源地址
  • 可选无头浏览器渲染页面
  • 生成页面清单 meta.json
  • 批量目标处理

示例:
  sitecloner -u example.com -d 2
  sitecloner -u https://example.com --headless -o pages
  sitecloner -u example.com -H "Cookie: session=abc"
  sitecloner --url-file targets.txt
  sitecloner --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		appConfig = config

		logConfig := config.LogConfig()
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}
		return nil
	},
	RunE: runClone,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SiteCloner %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func runClone(cmd *cobra.Command, args []string) error {
	// Ctrl+C 取消上下文,克隆器会保存已抓取的页面和清单
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	headerManager, err := core.NewHeaderManager(headersConfig, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	if validateConfig {
		return runValidateConfig(headerManager)
	}

	if targetURL == "" && urlFile == "" {
		return cmd.Help()
	}

	if _, err := headerManager.GetHeaders(); err != nil {
		return fmt.Errorf("HTTP头部配置无效: %w", err)
	}

	if !cmd.Flags().Changed("depth") {
		depth = -1
	}
	if err := ValidateFlags(targetURL, depth, batchDelay); err != nil {
		return err
	}

	appConfig.MergeCLIFlags(depth, headless, outputDir, cssValidate)
	if cmd.Flags().Changed("batch-delay") {
		appConfig.Batch.Delay = secondsToDuration(batchDelay)
	}
	if cmd.Flags().Changed("continue-on-error") {
		appConfig.Batch.ContinueOnError = continueOnError
	}

	cloneConfig := appConfig.GetCloneConfig()
	cloneConfig.ShowProgress = progress

	if urlFile != "" {
		urls, err := utils.ReadURLsFromFile(urlFile)
		if err != nil {
			return fmt.Errorf("读取URL文件失败: %w", err)
		}

		batch := core.NewBatchCloner(cloneConfig, appConfig.Batch.Delay, appConfig.Batch.ContinueOnError, headerManager)
		if _, err := batch.CloneBatch(ctx, urls); err != nil {
			return fmt.Errorf("批量克隆失败: %w", err)
		}

		utils.Info("批量克隆任务完成")
		return nil
	}

	cloner, err := core.NewCloner(targetURL, cloneConfig, headerManager)
	if err != nil {
		return fmt.Errorf("创建克隆器失败: %w", err)
	}

	if err := cloner.Run(ctx); err != nil {
		if errors.Is(err, models.ErrRootUnreachable) {
			return fmt.Errorf("目标主机不可达: %w", err)
		}
		return fmt.Errorf("克隆失败: %w", err)
	}

	printStats(cloner)
	return nil
}

func printStats(cloner *core.Cloner) {
	stats := cloner.GetStats()
	report := cloner.Report()

	fmt.Println("\n==================================================")
	fmt.Println("📊 克隆统计")
	fmt.Println("==================================================")
	if report != nil && report.MovedRoot != "" {
		fmt.Printf("↪️  重定向到: %s\n", report.MovedRoot)
	}
	fmt.Printf("✅ 已访问URL: %d\n", stats.VisitedURLs)
	fmt.Printf("✅ 已保存页面: %d\n", stats.StoredPages)
	fmt.Printf("🔁 重新入队: %d\n", stats.Requeued)
	fmt.Printf("❌ 抓取失败: %d\n", stats.FailedFetches)
	fmt.Printf("❌ 放弃任务: %d\n", stats.DroppedTasks)
	fmt.Printf("📦 总大小: %s\n", utils.FormatBytes(stats.TotalSize))
	fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
	fmt.Printf("📁 页面目录: %s\n", cloner.Store().Dir())
	if report != nil && report.Outcome != core.OutcomeCompleted {
		fmt.Printf("⚠️  结束状态: %s\n", report.Outcome)
	}
	fmt.Println("==================================================")
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().StringVar(&headersConfig, "headers-config", "", "HTTP头部配置文件路径 (默认 configs/headers.yaml)")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证HTTP头部配置")

	// 克隆参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "目标URL或主机名 (必需,除非使用 --url-file)")
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含目标列表的文件路径")
	rootCmd.Flags().IntVarP(&depth, "depth", "d", 1, "最大克隆深度")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "使用无头浏览器渲染页面")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录 (默认 pages)")
	rootCmd.Flags().BoolVar(&cssValidate, "css-validate", false, "记录样式表解析错误")
	rootCmd.Flags().BoolVar(&progress, "progress", true, "显示进度")

	// 批量处理参数
	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", 0, "批量处理目标间延迟(秒)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
