// =============================================================================
// 📦 shapeflow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Validator: DefaultValidatorConfig(),
		Catalog:   DefaultCatalogConfig(),
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "shapeflow",
	}
}

// DefaultValidatorConfig 返回默认校验器配置
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		AllowPartials: false,
		MaxDepth:      256,
	}
}

// DefaultCatalogConfig 返回默认类型目录配置
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Path:          "",
		Watch:         false,
		DebounceDelay: 100 * time.Millisecond,
	}
}
