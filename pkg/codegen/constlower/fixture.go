// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package constlower

import (
	"context"
	"strconv"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoLiteralExtractor walks Go source looking for top-level const
// declarations with a literal initializer, turning each into a
// ConstDecl fixture. It exists purely to generate realistic,
// varied-looking const initializers for this package's tests without
// hand-writing every expression tree, and is adapted directly from
// TreeSitterParser's pooled-parser, node-kind-dispatch shape — with
// every non-Go grammar binding dropped, since constlower only ever
// needs Go-syntax literal forms as a fixture source, never multi-
// language ingestion.
type GoLiteralExtractor struct {
	pool sync.Pool
	init sync.Once
}

// NewGoLiteralExtractor constructs an extractor with a lazily-created
// parser pool.
func NewGoLiteralExtractor() *GoLiteralExtractor {
	return &GoLiteralExtractor{}
}

func (e *GoLiteralExtractor) initPool() {
	e.init.Do(func() {
		e.pool.New = func() any {
			parser := sitter.NewParser()
			parser.SetLanguage(golang.GetLanguage())
			return parser
		}
	})
}

// Extract parses src and returns one ConstDecl per top-level
// `const name = literal` declaration it finds, using the declaration's
// literal syntax to infer DeclaredType.
func (e *GoLiteralExtractor) Extract(ctx context.Context, src []byte) ([]ConstDecl, error) {
	e.initPool()
	parser := e.pool.Get().(*sitter.Parser)
	defer e.pool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var decls []ConstDecl
	walkConstSpecs(tree.RootNode(), src, &decls)
	return decls, nil
}

func walkConstSpecs(node *sitter.Node, src []byte, out *[]ConstDecl) {
	if node == nil {
		return
	}
	if node.Type() == "const_spec" {
		if decl, ok := constSpecToDecl(node, src); ok {
			*out = append(*out, decl)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkConstSpecs(node.Child(i), src, out)
	}
}

// constSpecToDecl converts a tree-sitter const_spec node of the shape
// `name = literal` into a ConstDecl, skipping specs whose initializer
// is not a single plain literal (identifiers, expressions and
// multi-value lists are out of scope for a fixture generator). An
// explicit type on the spec is not inspected.
func constSpecToDecl(node *sitter.Node, src []byte) (ConstDecl, bool) {
	nameNode := node.ChildByFieldName("name")
	valueNode := node.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return ConstDecl{}, false
	}
	if valueNode.Type() == "expression_list" && valueNode.NamedChildCount() == 1 {
		valueNode = valueNode.NamedChild(0)
	}
	name := nameNode.Content(src)
	lit, declType, ok := literalFromNode(valueNode, src)
	if !ok {
		return ConstDecl{}, false
	}
	return ConstDecl{Name: name, DeclaredType: declType, Init: lit}, true
}

func literalFromNode(node *sitter.Node, src []byte) (*Literal, PrimType, bool) {
	text := node.Content(src)
	switch node.Type() {
	case "int_literal":
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, 0, false
		}
		return &Literal{Kind: LitInt, I: v}, TypeInt, true
	case "float_literal":
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, 0, false
		}
		return &Literal{Kind: LitFloat, F: v}, TypeFloat, true
	case "true", "false":
		return &Literal{Kind: LitBool, B: text == "true"}, TypeBool, true
	case "interpreted_string_literal", "raw_string_literal":
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			unquoted = text
		}
		return &Literal{Kind: LitString, S: unquoted}, TypeString, true
	default:
		return nil, 0, false
	}
}
