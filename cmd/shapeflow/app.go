package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/shapeflow/catalog"
	"github.com/BaSui01/shapeflow/config"
	"github.com/BaSui01/shapeflow/internal/metrics"
	"github.com/BaSui01/shapeflow/streaming"
	"github.com/BaSui01/shapeflow/unify"
)

// =============================================================================
// 🧩 命令运行环境
// =============================================================================

// app 保存全局标志与 setup 之后的配置、日志和指标收集器
type app struct {
	configPath  string
	catalogPath string
	logLevel    string
	metricsFile string

	cfg       *config.Config
	logger    *zap.Logger
	collector *metrics.Collector
}

// setup 加载配置、应用命令行覆盖并初始化日志
func (a *app) setup() error {
	loader := config.NewLoader()
	if a.configPath != "" {
		loader = loader.WithConfigPath(a.configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 命令行标志优先于配置文件和环境变量
	if a.catalogPath != "" {
		cfg.Catalog.Path = a.catalogPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Metrics.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a.cfg = cfg
	a.logger = initLogger(cfg.Log)

	if cfg.Metrics.Enabled {
		a.collector = metrics.NewCollector(cfg.Metrics.Namespace, a.logger)
	}
	return nil
}

// teardown 刷新日志并按需导出指标
func (a *app) teardown() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.metricsFile != "" {
		if err := prometheus.WriteToTextfile(a.metricsFile, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// loadCatalog 加载配置中的类型目录；未配置时返回空目录
func (a *app) loadCatalog() (*catalog.Registry, error) {
	if a.cfg.Catalog.Path == "" {
		return catalog.NewBuilder().Build()
	}

	reg, err := catalog.LoadFile(a.cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Catalog loaded",
		zap.String("path", a.cfg.Catalog.Path),
		zap.Int("classes", len(reg.Classes())),
		zap.Int("enums", len(reg.Enums())),
		zap.Int("aliases", len(reg.Aliases())))
	return reg, nil
}

// validator 基于目录构建流式校验器，启用指标时挂载收集器
func (a *app) validator(c catalog.Catalog) *streaming.Validator {
	opts := []streaming.Option{streaming.WithMaxDepth(a.cfg.Validator.MaxDepth)}
	if a.collector != nil {
		opts = append(opts, streaming.WithObserver(a.collector))
	}
	return streaming.NewValidator(unify.New(c), a.logger, opts...)
}

// allowPartials 返回 --partial 标志的值，未设置时使用配置
func (a *app) allowPartials(cmd *cobra.Command, flag bool) bool {
	if cmd.Flags().Changed("partial") {
		return flag
	}
	return a.cfg.Validator.AllowPartials
}

// readInput 读取文件，"-" 表示标准输入
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
