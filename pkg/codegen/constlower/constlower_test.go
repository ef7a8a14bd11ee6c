// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package constlower

import (
	"context"
	"testing"
)

func TestIsSimpleNumeric(t *testing.T) {
	cases := []struct {
		name string
		decl ConstDecl
		want bool
	}{
		{"int literal matches int type", ConstDecl{DeclaredType: TypeInt, Init: &Literal{Kind: LitInt, I: 3}}, true},
		{"float literal matches float type", ConstDecl{DeclaredType: TypeFloat, Init: &Literal{Kind: LitFloat, F: 3.5}}, true},
		{"bool literal matches bool type", ConstDecl{DeclaredType: TypeBool, Init: &Literal{Kind: LitBool, B: true}}, true},
		{"string literal is never simple numeric", ConstDecl{DeclaredType: TypeString, Init: &Literal{Kind: LitString, S: "x"}}, false},
		{"mismatched kind and type", ConstDecl{DeclaredType: TypeInt, Init: &Literal{Kind: LitFloat, F: 1}}, false},
		{"non-literal initializer", ConstDecl{DeclaredType: TypeInt, Init: &Identifier{Name: "OTHER"}}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isSimpleNumeric(c.decl); got != c.want {
				t.Fatalf("isSimpleNumeric(%+v) = %v, want %v", c.decl, got, c.want)
			}
		})
	}
}

func TestLowerConstDecl_SimpleNumericBecomesMacro(t *testing.T) {
	symtab := NewSymbolTable()
	decl := ConstDecl{Name: "MAX_RETRIES", DeclaredType: TypeInt, Init: &Literal{Kind: LitInt, I: 5}}

	lowered, err := LowerConstDecl(symtab, decl)
	if err != nil {
		t.Fatalf("LowerConstDecl: %v", err)
	}
	if lowered.Form != FormMacro {
		t.Fatalf("Form = %v, want FormMacro", lowered.Form)
	}
	want := "#define MAX_RETRIES 5"
	if lowered.Text != want {
		t.Fatalf("Text = %q, want %q", lowered.Text, want)
	}
	kind, ok := symtab.Lookup("MAX_RETRIES")
	if !ok || kind != SymbolMacro {
		t.Fatalf("symtab.Lookup(MAX_RETRIES) = (%v, %v), want (SymbolMacro, true)", kind, ok)
	}
}

func TestLowerConstDecl_StringBecomesTypedInitializer(t *testing.T) {
	symtab := NewSymbolTable()
	decl := ConstDecl{Name: "BANNER", DeclaredType: TypeString, Init: &Literal{Kind: LitString, S: "hi\n"}}

	lowered, err := LowerConstDecl(symtab, decl)
	if err != nil {
		t.Fatalf("LowerConstDecl: %v", err)
	}
	if lowered.Form != FormTypedInitializer {
		t.Fatalf("Form = %v, want FormTypedInitializer", lowered.Form)
	}
	want := `static const const char* BANNER = "hi\n";`
	if lowered.Text != want {
		t.Fatalf("Text = %q, want %q", lowered.Text, want)
	}
	kind, ok := symtab.Lookup("BANNER")
	if !ok || kind != SymbolData {
		t.Fatalf("symtab.Lookup(BANNER) = (%v, %v), want (SymbolData, true)", kind, ok)
	}
}

func TestLowerConstDecl_NonLiteralInitializerBecomesTypedInitializer(t *testing.T) {
	symtab := NewSymbolTable()
	decl := ConstDecl{
		Name:         "DOUBLED",
		DeclaredType: TypeInt,
		Init:         &BinOp{Op: "*", Left: &Identifier{Name: "BASE"}, Right: &Literal{Kind: LitInt, I: 2}},
	}

	lowered, err := LowerConstDecl(symtab, decl)
	if err != nil {
		t.Fatalf("LowerConstDecl: %v", err)
	}
	if lowered.Form != FormTypedInitializer {
		t.Fatalf("Form = %v, want FormTypedInitializer", lowered.Form)
	}
	want := "static const int64_t DOUBLED = (BASE * 2);"
	if lowered.Text != want {
		t.Fatalf("Text = %q, want %q", lowered.Text, want)
	}
}

func TestLowerConstDecl_ErrorsOnNilInitializer(t *testing.T) {
	// LowerExpr never errors on SizeOf; a nil initializer is an unsupported node and does.
	symtab := NewSymbolTable()
	decl := ConstDecl{Name: "BAD", DeclaredType: TypeInt, Init: nil}
	if _, err := LowerConstDecl(symtab, decl); err == nil {
		t.Fatal("expected error lowering a nil initializer expression")
	}
}

func TestLowerExpr_Literal(t *testing.T) {
	cases := []struct {
		name string
		expr Expr
		want string
	}{
		{"int", &Literal{Kind: LitInt, I: -7}, "-7"},
		{"float", &Literal{Kind: LitFloat, F: 1.5}, "1.5"},
		{"bool true", &Literal{Kind: LitBool, B: true}, "true"},
		{"bool false", &Literal{Kind: LitBool, B: false}, "false"},
		{"string with escapes", &Literal{Kind: LitString, S: "a\"b\\c\nd\te"}, `"a\"b\\c\nd\te"`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := LowerExpr(c.expr)
			if err != nil {
				t.Fatalf("LowerExpr: %v", err)
			}
			if got != c.want {
				t.Fatalf("LowerExpr(%+v) = %q, want %q", c.expr, got, c.want)
			}
		})
	}
}

func TestLowerExpr_Identifier(t *testing.T) {
	got, err := LowerExpr(&Identifier{Name: "FOO"})
	if err != nil {
		t.Fatalf("LowerExpr: %v", err)
	}
	if got != "FOO" {
		t.Fatalf("got %q, want FOO", got)
	}
}

func TestLowerExpr_BinOpNested(t *testing.T) {
	expr := &BinOp{
		Op:   "+",
		Left: &Literal{Kind: LitInt, I: 1},
		Right: &BinOp{
			Op:    "*",
			Left:  &Literal{Kind: LitInt, I: 2},
			Right: &Literal{Kind: LitInt, I: 3},
		},
	}
	got, err := LowerExpr(expr)
	if err != nil {
		t.Fatalf("LowerExpr: %v", err)
	}
	want := "(1 + (2 * 3))"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLowerExpr_UnaryOp(t *testing.T) {
	got, err := LowerExpr(&UnaryOp{Op: "-", Operand: &Literal{Kind: LitInt, I: 4}})
	if err != nil {
		t.Fatalf("LowerExpr: %v", err)
	}
	if got != "(-4)" {
		t.Fatalf("got %q, want (-4)", got)
	}
}

func TestLowerExpr_SizeOf(t *testing.T) {
	got, err := LowerExpr(&SizeOf{TypeName: "uint64_t"})
	if err != nil {
		t.Fatalf("LowerExpr: %v", err)
	}
	if got != "sizeof(uint64_t)" {
		t.Fatalf("got %q, want sizeof(uint64_t)", got)
	}
}

func TestLowerExpr_UnsupportedNodeErrors(t *testing.T) {
	if _, err := LowerExpr(nil); err == nil {
		t.Fatal("expected error for nil expression")
	}
}

func TestSymbolTable_DefineAndLookup(t *testing.T) {
	st := NewSymbolTable()
	if _, ok := st.Lookup("MISSING"); ok {
		t.Fatal("expected Lookup of undefined symbol to report false")
	}
	st.Define("A", SymbolMacro)
	st.Define("B", SymbolData)
	kind, ok := st.Lookup("A")
	if !ok || kind != SymbolMacro {
		t.Fatalf("Lookup(A) = (%v, %v), want (SymbolMacro, true)", kind, ok)
	}
}

func TestSymbolTable_NamesPreservesDefinitionOrder(t *testing.T) {
	st := NewSymbolTable()
	st.Define("FIRST", SymbolMacro)
	st.Define("SECOND", SymbolData)
	st.Define("FIRST", SymbolData) // redefinition, must not duplicate the order slice
	names := st.Names()
	if len(names) != 2 || names[0] != "FIRST" || names[1] != "SECOND" {
		t.Fatalf("Names() = %v, want [FIRST SECOND]", names)
	}
	kind, _ := st.Lookup("FIRST")
	if kind != SymbolData {
		t.Fatalf("redefinition did not take effect, Lookup(FIRST) = %v", kind)
	}
}

func TestGoLiteralExtractor_ExtractsTopLevelConsts(t *testing.T) {
	src := []byte(`package sample

const (
	MaxRetries = 5
	Pi         = 3.14
	Enabled    = true
	Greeting   = "hello"
)
`)
	extractor := NewGoLiteralExtractor()
	decls, err := extractor.Extract(context.Background(), src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(decls) != 4 {
		t.Fatalf("got %d decls, want 4: %+v", len(decls), decls)
	}

	byName := make(map[string]ConstDecl, len(decls))
	for _, d := range decls {
		byName[d.Name] = d
	}

	if lit, ok := byName["MaxRetries"].Init.(*Literal); !ok || lit.Kind != LitInt || lit.I != 5 {
		t.Fatalf("MaxRetries = %+v, want int literal 5", byName["MaxRetries"])
	}
	if lit, ok := byName["Pi"].Init.(*Literal); !ok || lit.Kind != LitFloat || lit.F != 3.14 {
		t.Fatalf("Pi = %+v, want float literal 3.14", byName["Pi"])
	}
	if lit, ok := byName["Enabled"].Init.(*Literal); !ok || lit.Kind != LitBool || lit.B != true {
		t.Fatalf("Enabled = %+v, want bool literal true", byName["Enabled"])
	}
	if lit, ok := byName["Greeting"].Init.(*Literal); !ok || lit.Kind != LitString || lit.S != "hello" {
		t.Fatalf("Greeting = %+v, want string literal hello", byName["Greeting"])
	}
}

func TestGoLiteralExtractor_SkipsNonLiteralInitializers(t *testing.T) {
	src := []byte(`package sample

const Derived = Base * 2

const Base = 1
`)
	extractor := NewGoLiteralExtractor()
	decls, err := extractor.Extract(context.Background(), src)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, d := range decls {
		if d.Name == "Derived" {
			t.Fatalf("expected non-literal const Derived to be skipped, got %+v", d)
		}
	}
}

func TestGoLiteralExtractor_ReusesPooledParser(t *testing.T) {
	extractor := NewGoLiteralExtractor()
	src := []byte("package sample\n\nconst A = 1\n")
	for i := 0; i < 3; i++ {
		decls, err := extractor.Extract(context.Background(), src)
		if err != nil {
			t.Fatalf("Extract iteration %d: %v", i, err)
		}
		if len(decls) != 1 {
			t.Fatalf("iteration %d: got %d decls, want 1", i, len(decls))
		}
	}
}
