// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	// 不指定配置文件，应该返回默认值
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 256, cfg.Validator.MaxDepth)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shapeflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := writeConfig(t, `
log:
  level: "debug"
  format: "json"
  output_paths: ["stdout", "/tmp/shapeflow.log"]

metrics:
  enabled: true
  namespace: "llm_stream"

validator:
  allow_partials: true
  max_depth: 32

catalog:
  path: "schema/catalog.yaml"
  watch: true
  debounce_delay: 250ms
`)

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	// 验证 YAML 值覆盖了默认值
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"stdout", "/tmp/shapeflow.log"}, cfg.Log.OutputPaths)
	assert.True(t, cfg.Log.EnableCaller, "unset fields keep their defaults")

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "llm_stream", cfg.Metrics.Namespace)

	assert.True(t, cfg.Validator.AllowPartials)
	assert.Equal(t, 32, cfg.Validator.MaxDepth)

	assert.Equal(t, "schema/catalog.yaml", cfg.Catalog.Path)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.Catalog.DebounceDelay)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("SHAPEFLOW_LOG_LEVEL", "warn")
	t.Setenv("SHAPEFLOW_LOG_OUTPUT_PATHS", "stdout, stderr")
	t.Setenv("SHAPEFLOW_METRICS_ENABLED", "true")
	t.Setenv("SHAPEFLOW_VALIDATOR_MAX_DEPTH", "8")
	t.Setenv("SHAPEFLOW_CATALOG_PATH", "/etc/shapeflow/catalog.yaml")
	t.Setenv("SHAPEFLOW_CATALOG_DEBOUNCE_DELAY", "1s")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	// 验证环境变量覆盖了默认值
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"stdout", "stderr"}, cfg.Log.OutputPaths)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 8, cfg.Validator.MaxDepth)
	assert.Equal(t, "/etc/shapeflow/catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, time.Second, cfg.Catalog.DebounceDelay)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	configPath := writeConfig(t, `
validator:
  max_depth: 16
  allow_partials: true
`)

	// 设置环境变量（应该覆盖 YAML）
	t.Setenv("SHAPEFLOW_VALIDATOR_MAX_DEPTH", "4")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Validator.MaxDepth)
	// YAML 值应该保留（没有被环境变量覆盖）
	assert.True(t, cfg.Validator.AllowPartials)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_LOG_FORMAT", "json")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoader_BadEnvValue(t *testing.T) {
	t.Setenv("SHAPEFLOW_VALIDATOR_MAX_DEPTH", "deep")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHAPEFLOW_VALIDATOR_MAX_DEPTH")
}

func TestSetFieldValue_Unsupported(t *testing.T) {
	var target struct {
		Ratio float64
		IDs   []int
	}
	v := reflect.ValueOf(&target).Elem()

	assert.Error(t, setFieldValue(v.Field(0), "0.5"))
	assert.Error(t, setFieldValue(v.Field(1), "1,2"))
}

func TestLoader_WithValidator(t *testing.T) {
	t.Setenv("SHAPEFLOW_LOG_LEVEL", "verbose")

	// 加载应该失败
	_, err := NewLoader().
		WithValidator((*Config).Validate).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoader_NonExistentFile(t *testing.T) {
	// 指定不存在的文件，应该使用默认值（不报错）
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/shapeflow.yaml").
		Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
validator:
  max_depth: [invalid
  this is not valid yaml
`)

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: `invalid log level "loud"`,
		},
		{
			name:    "invalid log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: `invalid log format "xml"`,
		},
		{
			name: "metrics without namespace",
			modify: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Namespace = ""
			},
			wantErr: "metrics namespace is required",
		},
		{
			name:    "negative max depth",
			modify:  func(c *Config) { c.Validator.MaxDepth = -1 },
			wantErr: "max_depth must not be negative",
		},
		{
			name:    "watch without path",
			modify:  func(c *Config) { c.Catalog.Watch = true },
			wantErr: "catalog path is required",
		},
		{
			name: "errors are joined",
			modify: func(c *Config) {
				c.Log.Format = "xml"
				c.Validator.MaxDepth = -1
			},
			wantErr: `invalid log format "xml"; max_depth must not be negative`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	configPath := writeConfig(t, `
log:
  level: "error"
`)

	// 不应该 panic
	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, "error", cfg.Log.Level)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml")

	// 应该 panic
	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	t.Setenv("SHAPEFLOW_METRICS_NAMESPACE", "env_only")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env_only", cfg.Metrics.Namespace)
}
