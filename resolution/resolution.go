/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolution defines the data model shared by every resolver: the
// request context, the tagged resolution result, the skip outcome used by
// chain members, and the classified resolution error.
package resolution

import "slices"

// Type tags a Resolution.
type Type int

const (
	// TypeSourceFile is one physical file parsed as code.
	TypeSourceFile Type = iota + 1
	// TypeAssetFiles is one or more density variants of an asset.
	TypeAssetFiles
	// TypeEmpty is the no-op module used to stub out unsupported imports.
	TypeEmpty
)

func (t Type) String() string {
	switch t {
	case TypeSourceFile:
		return "sourceFile"
	case TypeAssetFiles:
		return "assetFiles"
	case TypeEmpty:
		return "empty"
	}
	return "unknown"
}

// MarshalText encodes the type by name.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Resolution is the result of a successful resolution. Exactly one variant
// is set: FilePath for source files, FilePaths for assets, neither for empty.
type Resolution struct {
	Type      Type     `json:"type"`
	FilePath  string   `json:"filePath,omitempty"`
	FilePaths []string `json:"filePaths,omitempty"`
}

// SourceFile resolves to the code file at path.
func SourceFile(path string) Resolution {
	return Resolution{Type: TypeSourceFile, FilePath: path}
}

// AssetFiles resolves to the given asset variants.
func AssetFiles(paths ...string) Resolution {
	return Resolution{Type: TypeAssetFiles, FilePaths: slices.Clone(paths)}
}

// Empty resolves to the empty module.
func Empty() Resolution {
	return Resolution{Type: TypeEmpty}
}

// IsZero reports whether r carries no variant at all.
func (r Resolution) IsZero() bool {
	return r.Type == 0
}

// Paths returns every file path of r.
func (r Resolution) Paths() []string {
	switch r.Type {
	case TypeSourceFile:
		return []string{r.FilePath}
	case TypeAssetFiles:
		return slices.Clone(r.FilePaths)
	}
	return nil
}

// Equal reports whether r and other are the same resolution.
func (r Resolution) Equal(other Resolution) bool {
	return r.Type == other.Type && r.FilePath == other.FilePath && slices.Equal(r.FilePaths, other.FilePaths)
}

func (r Resolution) String() string {
	switch r.Type {
	case TypeSourceFile:
		return r.FilePath
	case TypeAssetFiles:
		if len(r.FilePaths) == 0 {
			return "(no assets)"
		}
		return r.FilePaths[0]
	case TypeEmpty:
		return "(empty)"
	}
	return "(unresolved)"
}

// Outcome is what a chain member produces when it does not fail: either a
// resolution or an explicit skip.
type Outcome struct {
	resolution Resolution
	resolved   bool
}

// Resolved wraps r as a winning outcome.
func Resolved(r Resolution) Outcome {
	return Outcome{resolution: r, resolved: true}
}

// Skip is the outcome of a resolver that does not handle the request.
func Skip() Outcome {
	return Outcome{}
}

// Resolution returns the resolution and true, or false for a skip.
func (o Outcome) Resolution() (Resolution, bool) {
	return o.resolution, o.resolved
}

// Skipped reports whether o is a skip.
func (o Outcome) Skipped() bool {
	return !o.resolved
}

// ResolveFunc is the upstream resolver protocol.
type ResolveFunc func(ctx *Context, moduleName string, platform Platform) (Resolution, error)

// Resolver is a member of a resolver chain.
type Resolver interface {
	// Name identifies the resolver in logs.
	Name() string

	// Resolve returns a resolution, a skip, or an error. Errors of kind
	// not-found let the chain continue; any other error aborts it.
	Resolve(ctx *Context, moduleName string, platform Platform) (Outcome, error)
}

// ResolverFunc adapts a function to a chain member.
type ResolverFunc func(ctx *Context, moduleName string, platform Platform) (Outcome, error)

// Named gives fn a name so it can be used as a Resolver.
func Named(name string, fn ResolverFunc) Resolver {
	return namedResolver{name: name, fn: fn}
}

type namedResolver struct {
	name string
	fn   ResolverFunc
}

func (n namedResolver) Name() string { return n.name }

func (n namedResolver) Resolve(ctx *Context, moduleName string, platform Platform) (Outcome, error) {
	return n.fn(ctx, moduleName, platform)
}
