// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 shapeflow 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 catalog、unify、flagged、
streaming 等上层模块提供统一的类型契约，以避免循环依赖。

# 核心类型

  - FieldType        ：声明类型：原始类型、字面量、枚举/类引用、列表、映射、
    联合、可选、元组、递归别名以及携带约束与流式注解的 WithMetadata
  - Node[M]          ：泛型值树，节点负载 M 在各处理阶段替换
    （NoMeta、*flagged.Conditions、*FieldType、Completion）
  - Constraint       ：用户声明的 assert / check 表达式
  - StreamingBehavior：@stream.done 与 @stream.with_state 注解
  - Completion       ：流式校验输出的逐节点完成度
  - Error / ErrorCode：结构化错误体系，含 Retryable、Path 与 Cause

# 主要能力

  - 值树变换：MapMeta / ZipMeta / Rebuild，按深度优先顺序遍历（All）
  - 类型渲染：FieldType.String 输出 int、"lit"、T[]、map<K, V>、(A | B)、T?
  - 错误判定：IsRetryable / GetErrorCode 通过 errors.As 识别包装错误，
    (*Error).Is 按错误码匹配哨兵错误
*/
package types
