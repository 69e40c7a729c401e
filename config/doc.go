// Package config 提供 shapeflow 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（前缀 SHAPEFLOW）的顺序加载，
// 覆盖日志、指标、流式校验器与类型目录四个部分。
package config
