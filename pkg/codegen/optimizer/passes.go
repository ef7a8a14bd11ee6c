// Copyright 2025 The Asthra Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package optimizer

import "fmt"

// PassResult is the pass-specific success/failure signal of spec.md
// §4.8: "the pass framework signals pass-specific success/failure, and
// the driver retains the right to abort on any pass failure."
type PassResult struct {
	Name    string
	Changed bool
	Err     error
}

// Pass is one optimization pass over a CFG.
type Pass func(g *CFG) PassResult

// RunPipeline runs passes in order, stopping at (and returning) the
// first failing result.
func RunPipeline(g *CFG, passes ...Pass) []PassResult {
	var results []PassResult
	for _, pass := range passes {
		result := pass(g)
		results = append(results, result)
		if result.Err != nil {
			break
		}
	}
	return results
}

// isPure reports whether op can be dropped when its result is unused.
func isPure(op Op) bool {
	switch op {
	case OpCall, OpStore, OpReturn, OpBranch, OpCondBranch:
		return false
	default:
		return true
	}
}

// DeadCodeElimination removes instructions whose destination register
// is never used and which have no side effect, then removes basic
// blocks unreachable from entry (spec.md §4.8).
func DeadCodeElimination(g *CFG) PassResult {
	changed := false

	used := make(map[int]bool)
	for _, label := range g.order {
		block := g.Blocks[label]
		for _, instr := range block.Instrs {
			for _, arg := range instr.Args {
				if !arg.IsConst {
					used[arg.Reg] = true
				}
			}
		}
	}

	for _, label := range g.order {
		block := g.Blocks[label]
		kept := block.Instrs[:0]
		for _, instr := range block.Instrs {
			if instr.Dst >= 0 && !used[instr.Dst] && isPure(instr.Op) && !instr.HasSideEffect {
				changed = true
				continue
			}
			kept = append(kept, instr)
		}
		block.Instrs = kept
	}

	reachable := g.ReachableFromEntry()
	for label := range g.Blocks {
		if !reachable[label] {
			delete(g.Blocks, label)
			changed = true
		}
	}
	newOrder := g.order[:0]
	for _, label := range g.order {
		if reachable[label] {
			newOrder = append(newOrder, label)
		}
	}
	g.order = newOrder

	return PassResult{Name: "dce", Changed: changed}
}

// evalConstBinary evaluates a pure binary op over two constants,
// reporting whether it could (division/modulo by zero cannot be folded
// and is left for the runtime to trap).
func evalConstBinary(op Op, a, b int64) (int64, bool) {
	switch op {
	case OpAdd:
		return a + b, true
	case OpSub:
		return a - b, true
	case OpMul:
		return a * b, true
	case OpDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case OpMod:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	default:
		return 0, false
	}
}

// ConstantFold evaluates pure arithmetic operations whose inputs are
// both compile-time constants, rewriting them to OpConstLoad (spec.md
// §4.8).
func ConstantFold(g *CFG) PassResult {
	changed := false
	for _, label := range g.order {
		block := g.Blocks[label]
		for i, instr := range block.Instrs {
			if len(instr.Args) != 2 {
				continue
			}
			a, b := instr.Args[0], instr.Args[1]
			if !a.IsConst || !b.IsConst {
				continue
			}
			if folded, ok := evalConstBinary(instr.Op, a.Const, b.Const); ok {
				block.Instrs[i] = Instr{Op: OpConstLoad, Dst: instr.Dst, Args: []Value{ConstValue(folded)}}
				changed = true
			}
		}
	}
	return PassResult{Name: "const_fold", Changed: changed}
}

// ConstantPropagation forwards known constant values (from OpConstLoad
// and OpCopy-of-constant) to later uses within the same block (spec.md
// §4.8: "constant/copy propagation").
func ConstantPropagation(g *CFG) PassResult {
	changed := false
	for _, label := range g.order {
		block := g.Blocks[label]
		known := make(map[int]Value)
		for i := range block.Instrs {
			instr := &block.Instrs[i]
			for j, arg := range instr.Args {
				if !arg.IsConst {
					if v, ok := known[arg.Reg]; ok {
						instr.Args[j] = v
						changed = true
					}
				}
			}
			if instr.Op == OpConstLoad && instr.Dst >= 0 {
				known[instr.Dst] = instr.Args[0]
			} else if instr.Op == OpCopy && instr.Dst >= 0 && len(instr.Args) == 1 {
				if v, ok := known[instr.Args[0].Reg]; !instr.Args[0].IsConst && ok {
					known[instr.Dst] = v
				} else if instr.Args[0].IsConst {
					known[instr.Dst] = instr.Args[0]
				} else {
					delete(known, instr.Dst)
				}
			} else if instr.Dst >= 0 {
				delete(known, instr.Dst)
			}
		}
	}
	return PassResult{Name: "const_propagation", Changed: changed}
}

// exprKey identifies a redundant-computation candidate by opcode and
// argument list, for value-numbering-based CSE.
func exprKey(instr Instr) (string, bool) {
	if !isPure(instr.Op) || instr.Dst < 0 {
		return "", false
	}
	key := fmt.Sprintf("%d", instr.Op)
	for _, a := range instr.Args {
		if a.IsConst {
			key += fmt.Sprintf("|c%d", a.Const)
		} else {
			key += fmt.Sprintf("|r%d", a.Reg)
		}
	}
	return key, true
}

// CommonSubexpressionElimination rewrites later recomputations of an
// already-seen pure expression into a copy of the first result,
// local within each block (spec.md §4.8: local value numbering). Global
// CSE across blocks is intentionally out of scope for this pass; a
// dominator-tree-based global variant belongs in a later pass, not
// bolted onto the local one.
func CommonSubexpressionElimination(g *CFG) PassResult {
	changed := false
	for _, label := range g.order {
		block := g.Blocks[label]
		seen := make(map[string]int)
		for i := range block.Instrs {
			instr := &block.Instrs[i]
			key, ok := exprKey(*instr)
			if !ok {
				continue
			}
			if reg, ok := seen[key]; ok {
				*instr = Instr{Op: OpCopy, Dst: instr.Dst, Args: []Value{RegValue(reg)}}
				changed = true
				continue
			}
			seen[key] = instr.Dst
		}
	}
	return PassResult{Name: "cse", Changed: changed}
}

// LoopInfo describes a single natural loop as a contiguous run of
// block labels from header to the blocks that branch back to it. The
// optimizer's loop discovery is deliberately simple (no dominator tree):
// callers identify loops by header/body/latch labels, typically
// produced directly by the for-loop lowering helpers in lower.go.
type LoopInfo struct {
	Header string
	Body   []string
	Latch  string
}

// LoopInvariantCodeMotion hoists pure instructions out of the loop body
// into a preheader block when every argument is either a constant or
// defined outside the loop's header, body and latch blocks (spec.md
// §4.8). It always creates the preheader block (named
// header+".preheader") and, when something was hoisted, adds an edge
// from it to Header; Header's existing predecessors are not redirected
// to the preheader.
func LoopInvariantCodeMotion(g *CFG, loop LoopInfo) PassResult {
	inLoop := make(map[string]bool, len(loop.Body)+2)
	inLoop[loop.Header] = true
	for _, b := range loop.Body {
		inLoop[b] = true
	}
	if loop.Latch != "" {
		inLoop[loop.Latch] = true
	}

	definedInLoop := make(map[int]bool)
	for label := range inLoop {
		block, ok := g.Blocks[label]
		if !ok {
			continue
		}
		for _, instr := range block.Instrs {
			if instr.Dst >= 0 {
				definedInLoop[instr.Dst] = true
			}
		}
	}

	preheaderLabel := loop.Header + ".preheader"
	preheader := g.AddBlock(preheaderLabel)
	changed := false

	for _, label := range loop.Body {
		block, ok := g.Blocks[label]
		if !ok {
			continue
		}
		kept := block.Instrs[:0]
		for _, instr := range block.Instrs {
			if isPure(instr.Op) && !instr.HasSideEffect && allOutsideLoop(instr.Args, definedInLoop) {
				preheader.Instrs = append(preheader.Instrs, instr)
				changed = true
				continue
			}
			kept = append(kept, instr)
		}
		block.Instrs = kept
	}

	if changed {
		preheader.Successors = append(preheader.Successors, loop.Header)
	}
	return PassResult{Name: "licm", Changed: changed}
}

func allOutsideLoop(args []Value, definedInLoop map[int]bool) bool {
	for _, a := range args {
		if !a.IsConst && definedInLoop[a.Reg] {
			return false
		}
	}
	return true
}

// StrengthReduction replaces a multiplication of a loop's induction
// variable by a constant with repeated addition, the classic case
// called out in spec.md §4.8. It only rewrites OpMul instructions whose
// non-constant operand is inductionReg.
func StrengthReduction(g *CFG, inductionReg int, stepConst int64) PassResult {
	changed := false
	for _, label := range g.order {
		block := g.Blocks[label]
		for i, instr := range block.Instrs {
			if instr.Op != OpMul || len(instr.Args) != 2 {
				continue
			}
			a, b := instr.Args[0], instr.Args[1]
			var constFactor int64
			isMatch := false
			if !a.IsConst && a.Reg == inductionReg && b.IsConst {
				constFactor, isMatch = b.Const, true
			} else if !b.IsConst && b.Reg == inductionReg && a.IsConst {
				constFactor, isMatch = a.Const, true
			}
			if !isMatch {
				continue
			}
			block.Instrs[i] = Instr{
				Op:  OpAdd,
				Dst: instr.Dst,
				Args: []Value{RegValue(inductionReg), ConstValue(constFactor * stepConst)},
			}
			changed = true
		}
	}
	return PassResult{Name: "strength_reduction", Changed: changed}
}

// unrollThreshold is the compile-time trip-count ceiling below which
// LoopUnroll will fully unroll a loop (spec.md §4.8).
const unrollThreshold = 8

// LoopUnroll fully unrolls loop.Body tripCount times when tripCount is
// a compile-time constant below unrollThreshold, appending tripCount-1
// duplicated copies (with freshly-allocated destination registers) to
// the header block and removing the loop's back edge. Loops at or
// above the threshold are left untouched, returning Changed=false.
func LoopUnroll(g *CFG, loop LoopInfo, tripCount int) PassResult {
	if tripCount <= 0 || tripCount >= unrollThreshold {
		return PassResult{Name: "loop_unroll", Changed: false}
	}
	header, ok := g.Blocks[loop.Header]
	if !ok {
		return PassResult{Name: "loop_unroll", Changed: false, Err: fmt.Errorf("optimizer: unknown loop header %q", loop.Header)}
	}

	var bodyInstrs []Instr
	for _, label := range loop.Body {
		if block, ok := g.Blocks[label]; ok {
			bodyInstrs = append(bodyInstrs, block.Instrs...)
		}
	}

	regRemap := make(map[int]int)
	for iter := 1; iter < tripCount; iter++ {
		for _, instr := range bodyInstrs {
			copyInstr := instr
			copyInstr.Args = remapArgs(instr.Args, regRemap)
			if instr.Dst >= 0 {
				newReg := g.NewReg()
				regRemap[instr.Dst] = newReg
				copyInstr.Dst = newReg
			}
			header.Instrs = append(header.Instrs, copyInstr)
		}
	}

	if loop.Latch != "" {
		delete(g.Blocks, loop.Latch)
	}
	return PassResult{Name: "loop_unroll", Changed: true}
}

func remapArgs(args []Value, remap map[int]int) []Value {
	out := make([]Value, len(args))
	for i, a := range args {
		if !a.IsConst {
			if newReg, ok := remap[a.Reg]; ok {
				out[i] = RegValue(newReg)
				continue
			}
		}
		out[i] = a
	}
	return out
}

// Peephole scans adjacent instruction pairs within each block for
// simple local simplifications: a copy immediately followed by a copy
// of that same value collapses to one copy (spec.md §4.8: "peephole").
func Peephole(g *CFG) PassResult {
	changed := false
	for _, label := range g.order {
		block := g.Blocks[label]
		for i := 1; i < len(block.Instrs); i++ {
			prev, cur := block.Instrs[i-1], block.Instrs[i]
			if prev.Op == OpCopy && cur.Op == OpCopy && len(cur.Args) == 1 &&
				!cur.Args[0].IsConst && cur.Args[0].Reg == prev.Dst {
				block.Instrs[i].Args[0] = prev.Args[0]
				changed = true
			}
		}
	}
	return PassResult{Name: "peephole", Changed: changed}
}
