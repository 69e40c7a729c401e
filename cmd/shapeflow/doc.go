// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 shapeflow 命令行程序入口。

# 概述

cmd/shapeflow 基于 cobra 组织子命令，按 默认值 → YAML 配置 → 环境变量 →
命令行标志 的顺序确定配置，并使用 zap 输出结构化日志。

# 子命令

  - validate：按声明类型校验一个 flagged 值，输出带完成状态的 JSON 树
  - replay  ：并发回放一个或多个多文档 YAML 流，逐个快照输出摘要
  - subtype ：判断两个类型表达式之间的子类型关系
  - schema  ：将类型或整个目录导出为 JSON Schema
  - catalog ：打印目录声明与递归表
  - watch   ：监听目录文件，变更后重新校验
  - version ：显示版本信息

# 全局标志

  - --config        配置文件路径
  - --catalog       类型目录路径，覆盖 catalog.path
  - --log-level     日志级别
  - --metrics-file  退出时写出 Prometheus 文本格式指标
*/
package main
