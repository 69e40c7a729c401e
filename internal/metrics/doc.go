// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的流式校验指标采集能力。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离。
Collector 实现 streaming.Observer，可直接通过 streaming.WithObserver
挂载到校验器上。

# 主要能力

  - 校验指标：校验总数（按 mode/outcome 分组，mode 为 partial 或 final），
    校验耗时，按完成状态统计的节点数。
  - 流式恢复指标：丢弃的列表/映射元素数、被 null 占位替换的字段数、
    尚未到达而以 pending null 填充的字段数。
  - 类型目录指标：目录热重载次数，按 success/failure 分组。
*/
package metrics
