// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package optimizer

import (
	"fmt"

	"github.com/asthra-lang/asthra-backend/pkg/codegen/reloc"
)

// MatchCase is one arm of a source-level match-expression being
// lowered into a decision tree.
type MatchCase struct {
	Variant string
	Target  string // block label to jump to when this variant matches
}

// LowerMatch lowers a match-expression into a decision tree: a chain of
// conditional branches, the first in headerLabel and each later one in
// the previous test's fall-through block (headerLabel+".testN"), the
// last of which branches to defaultTarget. It emits a pattern-match-jump
// relocation for a jump-table symbol named after that last block
// (spec.md §4.8: "emit pattern-match-jump relocations via C6").
func LowerMatch(g *CFG, relocs *reloc.Manager, section string, offset uint64, headerLabel string, discriminant Value, cases []MatchCase, defaultTarget string) {
	header := g.AddBlock(headerLabel)
	for i, c := range cases {
		cmpReg := g.NewReg()
		testLabel := fmt.Sprintf("%s.case%d", headerLabel, i)
		nextLabel := fmt.Sprintf("%s.test%d", headerLabel, i)
		g.AddBlock(testLabel)
		g.AddBlock(nextLabel)

		header.Instrs = append(header.Instrs,
			Instr{Op: OpCmp, Dst: cmpReg, Args: []Value{discriminant, ConstValue(variantTag(c.Variant))}},
			Instr{Op: OpCondBranch, Args: []Value{RegValue(cmpReg)}, Target: testLabel, ElseTarget: nextLabel},
		)
		g.Connect(headerLabel, testLabel)
		g.Connect(headerLabel, nextLabel)
		g.Connect(testLabel, c.Target)
		header = g.Blocks[nextLabel]
		headerLabel = nextLabel
	}
	header.Instrs = append(header.Instrs, Instr{Op: OpBranch, Target: defaultTarget})
	g.Connect(headerLabel, defaultTarget)

	jumpTableSymbol := fmt.Sprintf("%s.jumptable", headerLabel)
	relocs.AddPatternMatch(section, offset, jumpTableSymbol)
}

// variantTag derives a stable small integer tag from a variant name
// via FNV-1a, used as the match discriminant's comparison constant.
// Real front ends assign tags at enum-declaration time; this is a
// standalone fallback for tests and tools that lower match expressions
// without a declared enum in scope.
func variantTag(name string) int64 {
	var hash uint32 = 2166136261
	for i := 0; i < len(name); i++ {
		hash ^= uint32(name[i])
		hash *= 16777619
	}
	return int64(hash & 0x7fffffff)
}

// RangeLoop describes a closed-form `for i in start..end` loop.
type RangeLoop struct {
	InductionReg int
	Start        Value
	End          Value
	Step         int64
}

// LowerRangeFor lowers a closed-form range for-loop into header
// (induction-variable init), header+".cond" (comparison and branch to
// body or exit), body (caller-supplied instructions), and latch
// (increment and back edge to the cond block) blocks, returning the
// LoopInfo needed by LoopInvariantCodeMotion/LoopUnroll, whose Header is
// the cond block (spec.md §4.8: "closed-form range lowering").
func LowerRangeFor(g *CFG, headerLabel, bodyLabel, latchLabel, exitLabel string, loop RangeLoop, bodyInstrs []Instr) LoopInfo {
	header := g.AddBlock(headerLabel)
	header.Instrs = append(header.Instrs, Instr{Op: OpConstLoad, Dst: loop.InductionReg, Args: []Value{loop.Start}})

	cmpReg := g.NewReg()
	condLabel := headerLabel + ".cond"
	cond := g.AddBlock(condLabel)
	cond.Instrs = append(cond.Instrs, Instr{Op: OpCmp, Dst: cmpReg, Args: []Value{RegValue(loop.InductionReg), loop.End}})
	cond.Instrs = append(cond.Instrs, Instr{Op: OpCondBranch, Args: []Value{RegValue(cmpReg)}, Target: bodyLabel, ElseTarget: exitLabel})

	body := g.AddBlock(bodyLabel)
	body.Instrs = append(body.Instrs, bodyInstrs...)

	latch := g.AddBlock(latchLabel)
	latch.Instrs = append(latch.Instrs, Instr{Op: OpAdd, Dst: loop.InductionReg, Args: []Value{RegValue(loop.InductionReg), ConstValue(loop.Step)}})
	latch.Instrs = append(latch.Instrs, Instr{Op: OpBranch, Target: condLabel})

	g.Connect(headerLabel, condLabel)
	g.Connect(condLabel, bodyLabel)
	g.Connect(condLabel, exitLabel)
	g.Connect(bodyLabel, latchLabel)
	g.Connect(latchLabel, condLabel)

	return LoopInfo{Header: condLabel, Body: []string{bodyLabel}, Latch: latchLabel}
}

// LowerIteratorFor lowers a generic iterator-based for-loop: header
// calls the iterator's next function (an OpCall producing an
// option-shaped result), branching to body when a value was produced
// and to exit otherwise (spec.md §4.8: "generic iterator lowering").
func LowerIteratorFor(g *CFG, headerLabel, bodyLabel, exitLabel string, iterCallTarget string, resultReg int, bodyInstrs []Instr) LoopInfo {
	header := g.AddBlock(headerLabel)
	header.Instrs = append(header.Instrs,
		Instr{Op: OpCall, Dst: resultReg, Target: iterCallTarget, HasSideEffect: true},
		Instr{Op: OpCondBranch, Args: []Value{RegValue(resultReg)}, Target: bodyLabel, ElseTarget: exitLabel},
	)

	body := g.AddBlock(bodyLabel)
	body.Instrs = append(body.Instrs, bodyInstrs...)
	body.Instrs = append(body.Instrs, Instr{Op: OpBranch, Target: headerLabel})

	g.Connect(headerLabel, bodyLabel)
	g.Connect(headerLabel, exitLabel)
	g.Connect(bodyLabel, headerLabel)

	return LoopInfo{Header: headerLabel, Body: []string{bodyLabel}}
}
