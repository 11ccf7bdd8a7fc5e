package grammar

import (
	"fmt"
	"sort"
)

// reduceCandidate is one member of a predicate-guarded reduce chain. An
// empty predicate marks the unconditional fallback, which must come last if
// present.
type reduceCandidate struct {
	prod      *production
	predicate string
}

type actionKind int

const (
	actionKindError actionKind = iota
	actionKindShift
	actionKindReduce
	actionKindAccept
)

// actionEntry is one cell of the action table. A cell with len(reduces) > 1
// holds a predicate chain. resolvedConflict is set only when a shift/reduce
// conflict was resolved in this cell; reduce/reduce and predicate conflicts
// are recorded in ParsingTable.conflicts alone.
type actionEntry struct {
	kind             actionKind
	shiftTo          lrStateNum
	reduces          []reduceCandidate
	resolvedConflict conflict
}

type conflict interface {
	conflict()
	String() string
}

type shiftReduceConflict struct {
	state      lrStateNum
	sym        symbol
	prod       *production
	resolution string
}

func (shiftReduceConflict) conflict() {}
func (c shiftReduceConflict) String() string {
	return fmt.Sprintf("shift/reduce conflict: state %v, symbol %v, production %v (%v)", c.state, c.sym, c.prod.num, c.resolution)
}

type reduceReduceConflict struct {
	state      lrStateNum
	sym        symbol
	prod1      *production
	prod2      *production
	resolution string
}

func (reduceReduceConflict) conflict() {}
func (c reduceReduceConflict) String() string {
	return fmt.Sprintf("reduce/reduce conflict: state %v, symbol %v, productions %v and %v (%v)", c.state, c.sym, c.prod1.num, c.prod2.num, c.resolution)
}

// ParsingTable is the dense action/goto representation the code emitter
// flattens into Go source. Rows are states, columns are terminals (action)
// or non-terminals (goto).
type ParsingTable struct {
	action           [][]*actionEntry // [state][terminal index]
	goTo             [][]lrStateNum   // [state][non-terminal index], -1 means no transition
	stateCount       int
	terminalCount    int
	nonTerminalCount int
	initialState     lrStateNum
	conflicts        []conflict
}

func (t *ParsingTable) Conflicts() []conflict { return t.conflicts }

type tableBuilder struct {
	automaton *lalrAutomaton
	prods     *productionSet
	tab       *symbolTable
	pa        *precAndAssoc
	terms     []symbol
	nonTerms  []symbol
	termIdx   map[symbol]int
	ntIdx     map[symbol]int
}

func newTableBuilder(automaton *lalrAutomaton, prods *productionSet, tab *symbolTable, pa *precAndAssoc) *tableBuilder {
	r := tab.reader()
	terms := r.terminalSymbols()
	nonTerms := r.nonTerminalSymbols()
	termIdx := map[symbol]int{}
	for i, s := range terms {
		termIdx[s] = i
	}
	ntIdx := map[symbol]int{}
	for i, s := range nonTerms {
		ntIdx[s] = i
	}
	return &tableBuilder{
		automaton: automaton,
		prods:     prods,
		tab:       tab,
		pa:        pa,
		terms:     terms,
		nonTerms:  nonTerms,
		termIdx:   termIdx,
		ntIdx:     ntIdx,
	}
}

func (b *tableBuilder) build() (*ParsingTable, error) {
	stateCount := len(b.automaton.states)
	t := &ParsingTable{
		action:           make([][]*actionEntry, stateCount),
		goTo:             make([][]lrStateNum, stateCount),
		stateCount:       stateCount,
		terminalCount:    len(b.terms),
		nonTerminalCount: len(b.nonTerms),
		initialState:     b.automaton.initialState,
	}

	for _, st := range b.automaton.states {
		row := make([]*actionEntry, len(b.terms))
		goToRow := make([]lrStateNum, len(b.nonTerms))
		for i := range goToRow {
			goToRow[i] = -1
		}

		for sym, next := range st.next {
			if sym.isTerminal() {
				row[b.termIdx[sym]] = &actionEntry{kind: actionKindShift, shiftTo: next}
			} else {
				goToRow[b.ntIdx[sym]] = next
			}
		}

		for _, ri := range st.reducibleItems(b.prods) {
			prod, ok := b.prods.findByID(ri.core.prod)
			if !ok {
				return nil, fmt.Errorf("production not found: %v", ri.core.prod)
			}
			for _, la := range ri.la.sorted() {
				if prod.lhs.isStart() {
					entry := &actionEntry{kind: actionKindAccept}
					row[b.termIdx[symbolEOF]] = entry
					continue
				}
				idx := b.termIdx[la]
				existing := row[idx]
				if existing == nil {
					row[idx] = &actionEntry{kind: actionKindReduce, reduces: []reduceCandidate{{prod: prod, predicate: prod.predicate}}}
					continue
				}
				b.resolve(st.num, la, existing, prod, t)
			}
		}

		t.action[st.num] = row
		t.goTo[st.num] = goToRow
	}

	return t, nil
}

// resolve folds a newly discovered reduce action for (state, sym) into an
// existing cell, in the order spec.md requires: a production carrying a
// predicate is always appended as a guarded candidate rather than triggering
// outright conflict resolution, since the guards are evaluated in order at
// parse time and the first that holds wins; otherwise shift/reduce conflicts fall back to precedence and
// associativity, and reduce/reduce conflicts fall back to preferring the
// earlier-declared production. Every path still appends to t.conflicts -
// resolving a conflict is not the same as it never having existed.
func (b *tableBuilder) resolve(state lrStateNum, sym symbol, existing *actionEntry, newProd *production, t *ParsingTable) {
	if newProd.hasPredicate() || (len(existing.reduces) > 0 && existing.reduces[len(existing.reduces)-1].predicate != "") {
		// A cell with more than one tentative reduce still counts toward
		// the conflict totals (spec.md Testable Property 5) even though a
		// predicate, not precedence, resolves it at parse time (Testable
		// Property 6: predicate precedence over static precedence).
		if len(existing.reduces) > 0 {
			t.conflicts = append(t.conflicts, reduceReduceConflict{
				state:      state,
				sym:        sym,
				prod1:      existing.reduces[len(existing.reduces)-1].prod,
				prod2:      newProd,
				resolution: "predicate evaluated at reduce time",
			})
		}
		existing.reduces = append(existing.reduces, reduceCandidate{prod: newProd, predicate: newProd.predicate})
		sort.SliceStable(existing.reduces, func(i, j int) bool {
			// Unconditional fallback, if any, always sorts last.
			return existing.reduces[i].predicate != "" && existing.reduces[j].predicate == ""
		})
		return
	}

	switch existing.kind {
	case actionKindShift:
		res := b.resolveShiftReduce(state, sym, existing, newProd, t)
		existing.resolvedConflict = res
	case actionKindReduce:
		oldProd := existing.reduces[0].prod
		existing.reduces = []reduceCandidate{{prod: oldProd}}
		c := reduceReduceConflict{state: state, sym: sym, prod1: oldProd, prod2: newProd, resolution: "earlier production kept"}
		t.conflicts = append(t.conflicts, c)
	}
}

func (b *tableBuilder) resolveShiftReduce(state lrStateNum, sym symbol, existing *actionEntry, reduceProd *production, t *ParsingTable) conflict {
	shiftPrec, shiftOK := b.pa.termPrecOf(sym)
	reducePrec, assoc, reduceOK := b.pa.prodPrecOf(reduceProd.id)

	resolution := "shift kept (default)"
	if shiftOK && reduceOK {
		switch {
		case shiftPrec > reducePrec:
			resolution = "shift kept (higher terminal precedence)"
		case shiftPrec < reducePrec:
			existing.kind = actionKindReduce
			existing.reduces = []reduceCandidate{{prod: reduceProd}}
			resolution = "reduce kept (higher production precedence)"
		default:
			switch assoc {
			case assocLeft:
				existing.kind = actionKindReduce
				existing.reduces = []reduceCandidate{{prod: reduceProd}}
				resolution = "reduce kept (left associative)"
			case assocNonAssoc:
				existing.kind = actionKindError
				existing.reduces = nil
				resolution = "error kept (nonassociative)"
			default:
				resolution = "shift kept (right associative or unspecified)"
			}
		}
	}

	return shiftReduceConflict{state: state, sym: sym, prod: reduceProd, resolution: resolution}
}
