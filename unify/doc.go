// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

// Package unify implements structural subtyping over declared types and the
// distribution of a declared type onto every node of a value tree.
//
// Recursive type aliases are resolved through the catalog and guarded by
// coinductive assumptions, so cyclic definitions such as A = A[] terminate.
package unify
