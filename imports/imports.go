/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package imports extracts module specifiers from JavaScript and TypeScript
// sources using tree-sitter.
package imports

import (
	"errors"
	"fmt"
	"path"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// ErrParse is returned when tree-sitter produces no tree.
var ErrParse = errors.New("failed to parse source")

// Kind is how a module is imported.
type Kind int

const (
	// KindStatic is an import declaration.
	KindStatic Kind = iota
	// KindReExport is an export ... from declaration.
	KindReExport
	// KindRequire is a CommonJS require call.
	KindRequire
	// KindDynamic is an import() expression.
	KindDynamic
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "import"
	case KindReExport:
		return "export"
	case KindRequire:
		return "require"
	case KindDynamic:
		return "import()"
	}
	return "unknown"
}

// Import is one module reference in a source file.
type Import struct {
	Specifier string `json:"specifier"`
	// Line is 1-based.
	Line int  `json:"line"`
	Kind Kind `json:"kind"`
}

var sourceExts = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
	".ts":  true,
	".tsx": true,
	".mts": true,
	".cts": true,
}

// IsSource reports whether file is a script whose imports can be extracted.
func IsSource(file string) bool {
	return sourceExts[path.Ext(file)]
}

// Extract returns the imports of src in source order. TypeScript is parsed
// with the JavaScript grammar; type-only syntax becomes error nodes, which
// are skipped while their siblings are still searched.
func Extract(src []byte) ([]Import, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_javascript.Language())); err != nil {
		return nil, fmt.Errorf("loading javascript grammar: %w", err)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, ErrParse
	}
	defer tree.Close()

	var out []Import
	walk(tree.RootNode(), src, &out)
	return out, nil
}

func walk(node *tree_sitter.Node, src []byte, out *[]Import) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "import_statement":
		appendSource(node, src, KindStatic, out)
	case "export_statement":
		appendSource(node, src, KindReExport, out)
	case "call_expression":
		appendCall(node, src, out)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walk(node.Child(i), src, out)
	}
}

func appendSource(node *tree_sitter.Node, src []byte, kind Kind, out *[]Import) {
	source := node.ChildByFieldName("source")
	if source == nil {
		return
	}
	if spec, ok := stringValue(source, src); ok {
		*out = append(*out, Import{Specifier: spec, Line: line(node), Kind: kind})
	}
}

func appendCall(node *tree_sitter.Node, src []byte, out *[]Import) {
	fn := node.ChildByFieldName("function")
	args := node.ChildByFieldName("arguments")
	if fn == nil || args == nil {
		return
	}

	var kind Kind
	switch {
	case fn.Kind() == "import":
		kind = KindDynamic
	case fn.Kind() == "identifier" && fn.Utf8Text(src) == "require":
		kind = KindRequire
	default:
		return
	}

	first := firstArgument(args)
	if first == nil {
		return
	}
	if spec, ok := stringValue(first, src); ok {
		*out = append(*out, Import{Specifier: spec, Line: line(node), Kind: kind})
	}
}

func firstArgument(args *tree_sitter.Node) *tree_sitter.Node {
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		switch child.Kind() {
		case "(", ")", ",", "comment":
			continue
		}
		return child
	}
	return nil
}

// stringValue returns the contents of a string literal, or of a template
// literal without substitutions.
func stringValue(node *tree_sitter.Node, src []byte) (string, bool) {
	switch node.Kind() {
	case "string":
	case "template_string":
		for i := uint(0); i < node.ChildCount(); i++ {
			if node.Child(i).Kind() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	text := node.Utf8Text(src)
	if len(text) < 2 {
		return "", false
	}
	return text[1 : len(text)-1], true
}

func line(node *tree_sitter.Node) int {
	return int(node.Range().StartPoint.Row) + 1
}
