// Copyright 2025 The Asthra Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package constlower lowers source-level `const` declarations into
// either a macro definition or a typed read-only initializer, and
// provides the binary/unary/sizeof/identifier expression-lowering
// helpers const initializers are built from (spec.md §4.9).
package constlower

import "fmt"

// PrimType is a primitive type a const declaration can be annotated
// with.
type PrimType int

const (
	TypeInt PrimType = iota
	TypeFloat
	TypeBool
	TypeString
	TypeOther
)

// ConstDecl is a single source-level const declaration.
type ConstDecl struct {
	Name         string
	DeclaredType PrimType
	Init         Expr
}

// Form is the lowered shape of a const declaration (spec.md §4.9).
type Form int

const (
	FormMacro Form = iota
	FormTypedInitializer
)

// isSimpleNumeric reports whether decl is "simple numeric": its
// declared type is an integer/float/bool primitive and its initializer
// is a literal of matching kind (spec.md §4.9's decision rule).
func isSimpleNumeric(decl ConstDecl) bool {
	lit, ok := decl.Init.(*Literal)
	if !ok {
		return false
	}
	switch decl.DeclaredType {
	case TypeInt:
		return lit.Kind == LitInt
	case TypeFloat:
		return lit.Kind == LitFloat
	case TypeBool:
		return lit.Kind == LitBool
	default:
		return false
	}
}

// Lowered is the output of LowerConstDecl.
type Lowered struct {
	Form   Form
	Symbol string
	Text   string // the rendered macro or initializer text
}

// LowerConstDecl applies spec.md §4.9's decision rule: a simple numeric
// declaration becomes a `#define`-style macro; anything else (strings,
// non-literal initializers, aggregate types) becomes a typed read-only
// initializer. Either way the constant's symbol is registered into
// symtab so later stages can resolve references to it.
func LowerConstDecl(symtab *SymbolTable, decl ConstDecl) (Lowered, error) {
	text, err := LowerExpr(decl.Init)
	if err != nil {
		return Lowered{}, fmt.Errorf("constlower: lowering initializer for %q: %w", decl.Name, err)
	}

	if isSimpleNumeric(decl) {
		symtab.Define(decl.Name, SymbolMacro)
		return Lowered{Form: FormMacro, Symbol: decl.Name, Text: fmt.Sprintf("#define %s %s", decl.Name, text)}, nil
	}

	symtab.Define(decl.Name, SymbolData)
	typeName := cTypeName(decl.DeclaredType)
	return Lowered{
		Form:   FormTypedInitializer,
		Symbol: decl.Name,
		Text:   fmt.Sprintf("static const %s %s = %s;", typeName, decl.Name, text),
	}, nil
}

func cTypeName(t PrimType) string {
	switch t {
	case TypeInt:
		return "int64_t"
	case TypeFloat:
		return "double"
	case TypeBool:
		return "bool"
	case TypeString:
		return "const char*"
	default:
		return "void*"
	}
}
