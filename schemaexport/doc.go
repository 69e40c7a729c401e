// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

// Package schemaexport renders declared types and catalogs as JSON Schema.
package schemaexport
