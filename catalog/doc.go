// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package catalog holds the declared classes, enums and type aliases the type
engine consults.

A Registry is built once, either programmatically through Builder or from a
YAML document through Parse and LoadFile, and is read-only afterwards. While
building, named references are resolved, non-recursive aliases are expanded
inline, and strongly connected components are computed so that recursive
aliases and mutually recursive classes are known up front. ParseType resolves
a standalone type expression, as written in a catalog file, against a built
Registry.

Watcher keeps a Registry in sync with a file on disk. A reload that fails to
parse keeps serving the previous registry.
*/
package catalog
