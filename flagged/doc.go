// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
包 flagged 定义带解析标记的值树，即宽松解析器的输出。

# 概述

每个节点携带 *Conditions：一组只追加的 Flag，记录解析器做过的强制转换
（ObjectToString、SingleToArray、SubstringMatch 等）、出错原因
（ParsingError）以及流式状态（Incomplete、Pending）。

# 主要能力

  - Score：每个 Flag 有固定分值，整棵树的分值为各节点之和，越低越可信。
  - Explanation：收集各标记携带的 ParsingError，并以 <root>.field 形式标注作用域。
  - 负载转换：ToFlags / ToPlain / ToConstraintResults / FromPlain。
  - YAML 夹具：DecodeYAML / DecodeYAMLStream 读取命令行与测试使用的
    flagged 值，支持 $class、$enum、$media、$flags 与 !pending 等本地标签。
*/
package flagged
