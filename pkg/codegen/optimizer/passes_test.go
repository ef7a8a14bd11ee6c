// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package optimizer

import "testing"

func TestDeadCodeElimination_RemovesUnusedPureInstruction(t *testing.T) {
	g := NewCFG("entry")
	entry := g.Blocks["entry"]
	entry.Instrs = []Instr{
		{Op: OpConstLoad, Dst: 0, Args: []Value{ConstValue(1)}}, // unused
		{Op: OpConstLoad, Dst: 1, Args: []Value{ConstValue(2)}},
		{Op: OpReturn, Dst: -1, Args: []Value{RegValue(1)}},
	}
	result := DeadCodeElimination(g)
	if !result.Changed {
		t.Fatal("expected DCE to report a change")
	}
	if len(entry.Instrs) != 2 {
		t.Fatalf("instrs = %+v, want 2 remaining", entry.Instrs)
	}
}

func TestDeadCodeElimination_RemovesUnreachableBlock(t *testing.T) {
	g := NewCFG("entry")
	g.AddBlock("dead")
	g.Blocks["entry"].Instrs = []Instr{{Op: OpReturn, Dst: -1}}
	result := DeadCodeElimination(g)
	if !result.Changed {
		t.Fatal("expected change for unreachable block removal")
	}
	if _, ok := g.Blocks["dead"]; ok {
		t.Fatal("expected unreachable block to be removed")
	}
}

func TestDeadCodeElimination_KeepsSideEffectingInstruction(t *testing.T) {
	g := NewCFG("entry")
	entry := g.Blocks["entry"]
	entry.Instrs = []Instr{
		{Op: OpCall, Dst: 0, HasSideEffect: true},
		{Op: OpReturn, Dst: -1},
	}
	DeadCodeElimination(g)
	if len(entry.Instrs) != 2 {
		t.Fatalf("side-effecting call should survive DCE, instrs = %+v", entry.Instrs)
	}
}

func TestConstantFold_EvaluatesPureArithmetic(t *testing.T) {
	g := NewCFG("entry")
	entry := g.Blocks["entry"]
	entry.Instrs = []Instr{
		{Op: OpAdd, Dst: 0, Args: []Value{ConstValue(2), ConstValue(3)}},
	}
	result := ConstantFold(g)
	if !result.Changed {
		t.Fatal("expected constant fold to report a change")
	}
	if entry.Instrs[0].Op != OpConstLoad || entry.Instrs[0].Args[0].Const != 5 {
		t.Fatalf("instr = %+v, want folded const 5", entry.Instrs[0])
	}
}

func TestConstantFold_SkipsDivisionByZero(t *testing.T) {
	g := NewCFG("entry")
	entry := g.Blocks["entry"]
	entry.Instrs = []Instr{{Op: OpDiv, Dst: 0, Args: []Value{ConstValue(1), ConstValue(0)}}}
	result := ConstantFold(g)
	if result.Changed {
		t.Fatal("expected division by zero to be left unfolded")
	}
}

func TestConstantPropagation_ForwardsConstThroughCopy(t *testing.T) {
	g := NewCFG("entry")
	entry := g.Blocks["entry"]
	entry.Instrs = []Instr{
		{Op: OpConstLoad, Dst: 0, Args: []Value{ConstValue(7)}},
		{Op: OpCopy, Dst: 1, Args: []Value{RegValue(0)}},
		{Op: OpAdd, Dst: 2, Args: []Value{RegValue(1), ConstValue(1)}},
	}
	ConstantPropagation(g)
	if !entry.Instrs[2].Args[0].IsConst || entry.Instrs[2].Args[0].Const != 7 {
		t.Fatalf("expected reg1 propagated to const 7, got %+v", entry.Instrs[2].Args[0])
	}
}

func TestCommonSubexpressionElimination_CollapsesRepeatedExpr(t *testing.T) {
	g := NewCFG("entry")
	entry := g.Blocks["entry"]
	entry.Instrs = []Instr{
		{Op: OpAdd, Dst: 0, Args: []Value{RegValue(10), RegValue(11)}},
		{Op: OpAdd, Dst: 1, Args: []Value{RegValue(10), RegValue(11)}},
	}
	result := CommonSubexpressionElimination(g)
	if !result.Changed {
		t.Fatal("expected CSE to report a change")
	}
	if entry.Instrs[1].Op != OpCopy || entry.Instrs[1].Args[0].Reg != 0 {
		t.Fatalf("second instr = %+v, want copy of reg 0", entry.Instrs[1])
	}
}

func TestLoopInvariantCodeMotion_HoistsPureInstructionDefinedOutside(t *testing.T) {
	g := NewCFG("entry")
	g.Connect("entry", "header")
	g.AddBlock("body")
	body := g.Blocks["body"]
	body.Instrs = []Instr{
		{Op: OpAdd, Dst: 5, Args: []Value{RegValue(1), ConstValue(2)}}, // reg1 defined outside loop
	}
	result := LoopInvariantCodeMotion(g, LoopInfo{Header: "header", Body: []string{"body"}})
	if !result.Changed {
		t.Fatal("expected LICM to hoist the invariant instruction")
	}
	if len(body.Instrs) != 0 {
		t.Fatalf("body instrs = %+v, want empty after hoist", body.Instrs)
	}
	preheader := g.Blocks["header.preheader"]
	if preheader == nil || len(preheader.Instrs) != 1 {
		t.Fatalf("preheader = %+v, want one hoisted instruction", preheader)
	}
}

func TestLoopInvariantCodeMotion_DoesNotHoistLoopVaryingInstruction(t *testing.T) {
	g := NewCFG("entry")
	g.AddBlock("body")
	body := g.Blocks["body"]
	body.Instrs = []Instr{
		{Op: OpAdd, Dst: 1, Args: []Value{RegValue(1), ConstValue(1)}},
		{Op: OpAdd, Dst: 2, Args: []Value{RegValue(1), ConstValue(1)}},
	}
	result := LoopInvariantCodeMotion(g, LoopInfo{Header: "header", Body: []string{"body"}})
	if result.Changed {
		t.Fatal("expected no hoisting since reg1 is defined inside the loop")
	}
}

func TestStrengthReduction_ReplacesMultiplyWithAdd(t *testing.T) {
	g := NewCFG("entry")
	entry := g.Blocks["entry"]
	entry.Instrs = []Instr{
		{Op: OpMul, Dst: 0, Args: []Value{RegValue(3), ConstValue(4)}},
	}
	result := StrengthReduction(g, 3, 1)
	if !result.Changed {
		t.Fatal("expected strength reduction to fire")
	}
	if entry.Instrs[0].Op != OpAdd {
		t.Fatalf("instr = %+v, want rewritten to OpAdd", entry.Instrs[0])
	}
}

func TestLoopUnroll_SkipsWhenTripCountAtThreshold(t *testing.T) {
	g := NewCFG("entry")
	g.AddBlock("body")
	result := LoopUnroll(g, LoopInfo{Header: "entry", Body: []string{"body"}}, unrollThreshold)
	if result.Changed {
		t.Fatal("expected no unroll at or above the threshold")
	}
}

func TestLoopUnroll_DuplicatesBodyBelowThreshold(t *testing.T) {
	g := NewCFG("entry")
	body := g.AddBlock("body")
	body.Instrs = []Instr{{Op: OpAdd, Dst: 2, Args: []Value{RegValue(1), ConstValue(1)}}}

	before := len(g.Blocks["entry"].Instrs)
	result := LoopUnroll(g, LoopInfo{Header: "entry", Body: []string{"body"}}, 3)
	if !result.Changed {
		t.Fatal("expected unroll to report a change")
	}
	after := len(g.Blocks["entry"].Instrs)
	if after-before != 2 {
		t.Fatalf("expected 2 duplicated instructions appended to header, got %d", after-before)
	}
}

func TestPeephole_CollapsesChainedCopies(t *testing.T) {
	g := NewCFG("entry")
	entry := g.Blocks["entry"]
	entry.Instrs = []Instr{
		{Op: OpCopy, Dst: 1, Args: []Value{RegValue(0)}},
		{Op: OpCopy, Dst: 2, Args: []Value{RegValue(1)}},
	}
	result := Peephole(g)
	if !result.Changed {
		t.Fatal("expected peephole to report a change")
	}
	if entry.Instrs[1].Args[0].Reg != 0 {
		t.Fatalf("second copy should now reference reg 0 directly, got %+v", entry.Instrs[1])
	}
}

func TestCFG_ReachableFromEntry(t *testing.T) {
	g := NewCFG("entry")
	g.Connect("entry", "a")
	g.Connect("a", "b")
	g.AddBlock("unreachable")
	reachable := g.ReachableFromEntry()
	if !reachable["entry"] || !reachable["a"] || !reachable["b"] {
		t.Fatalf("reachable = %v, want entry/a/b", reachable)
	}
	if reachable["unreachable"] {
		t.Fatal("unreachable block should not be marked reachable")
	}
}
