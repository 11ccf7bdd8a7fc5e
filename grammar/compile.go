package grammar

import "fmt"

// CompiledTable is the dense, emission-ready form of a ParsingTable: every
// action and goto cell flattened to a row-major integer slice, per the
// "interned symbols via index, not pointer graphs" design note (spec.md
// §9). This is what the code emitter renders as Go literal data and what
// the runtime collaborator indexes at parse time.
type CompiledTable struct {
	StateCount       int
	TerminalCount    int
	NonTerminalCount int
	InitialState     int
	EOFSymbol        int
	ErrorSymbol      int
	StartProduction  int

	Terminals    []string
	NonTerminals []string

	// Action is StateCount*TerminalCount, row-major. A positive entry N
	// means reduce by production N (StartProduction meaning accept); a
	// negative entry -(S+1) means shift to state S; 0 means error.
	Action []int
	// GoTo is StateCount*NonTerminalCount, row-major; -1 means no entry.
	GoTo []int

	LHSSymbols              []int // production number -> LHS non-terminal index
	AlternativeSymbolCounts []int // production number -> len(RHS)
	RecoverProductions      []int // production number -> 1 if #recover, else 0
	ErrorTrapperStates      []int // state -> 1 if the state has a shift entry on the error terminal

	// Actions and Predicates hold the verbatim !{ ... !} and ?( ... ?) text
	// a specification attached to each production, indexed by production
	// number; empty string if a production carries none. The emitter
	// renders these into the generated reduce- and predicate-dispatch
	// functions.
	Actions    []string
	Predicates []string

	// RHSIsTerminal records, per production and per RHS position, whether
	// that symbol is a terminal (its attribute is the raw lexeme text the
	// scanner produced) or a non-terminal (its attribute is whatever a
	// prior reduction synthesized, typed AttrType). The emitter uses this
	// to type-assert each $k reference correctly.
	RHSIsTerminal [][]bool

	// PredicateChains holds, per (state, terminal) cell resolved through
	// one or more predicate-guarded candidates, the ordered list of
	// production numbers to try and an optional unconditional fallback -
	// spec.md §4.H.1.
	PredicateChains map[[2]int]*PredicateChain
}

type PredicateChain struct {
	Candidates []PredicateCandidate // in production-index order; first true wins
	Fallback   int                  // 0 (error) if no unconditional fallback exists
}

type PredicateCandidate struct {
	Production int
	Predicate  string
}

// Compile flattens g.Table into a CompiledTable. Call after BuildTable.
func (g *Grammar) Compile() (*CompiledTable, error) {
	if g.Table == nil {
		return nil, fmt.Errorf("grammar: BuildTable must run before Compile")
	}
	r := g.symTab.reader()
	terms := r.terminalSymbols()
	nonTerms := r.nonTerminalSymbols()
	termIdx := map[symbol]int{}
	for i, s := range terms {
		termIdx[s] = i
	}

	eofIdx, ok := termIdx[symbolEOF]
	if !ok {
		return nil, fmt.Errorf("grammar: <eof> terminal missing from symbol table")
	}
	errIdx, ok := termIdx[symbolError]
	if !ok {
		return nil, fmt.Errorf("grammar: <error> terminal missing from symbol table")
	}

	prods := g.prods.inOrder()
	prodCount := 0
	for _, p := range prods {
		if p.num.Int()+1 > prodCount {
			prodCount = p.num.Int() + 1
		}
	}

	ct := &CompiledTable{
		StateCount:              g.Table.stateCount,
		TerminalCount:           len(terms),
		NonTerminalCount:        len(nonTerms),
		InitialState:            int(g.Table.initialState),
		EOFSymbol:               eofIdx,
		ErrorSymbol:             errIdx,
		StartProduction:         int(productionNumStart),
		Terminals:               g.TerminalNames(),
		NonTerminals:            g.NonTerminalNames(),
		Action:                  make([]int, g.Table.stateCount*len(terms)),
		GoTo:                    make([]int, g.Table.stateCount*len(nonTerms)),
		LHSSymbols:              make([]int, prodCount),
		AlternativeSymbolCounts: make([]int, prodCount),
		RecoverProductions:      make([]int, prodCount),
		ErrorTrapperStates:      make([]int, g.Table.stateCount),
		PredicateChains:         map[[2]int]*PredicateChain{},
		Actions:                 make([]string, prodCount),
		Predicates:              make([]string, prodCount),
		RHSIsTerminal:           make([][]bool, prodCount),
	}

	ntIdx := map[symbol]int{}
	for i, s := range nonTerms {
		ntIdx[s] = i
	}
	for _, p := range prods {
		n := p.num.Int()
		ct.LHSSymbols[n] = ntIdx[p.lhs]
		ct.AlternativeSymbolCounts[n] = p.rhsLen
		ct.Actions[n] = p.action
		ct.Predicates[n] = p.predicate
		kinds := make([]bool, len(p.rhs))
		for i, s := range p.rhs {
			kinds[i] = s.isTerminal()
		}
		ct.RHSIsTerminal[n] = kinds
		if p.recover {
			ct.RecoverProductions[n] = 1
		}
	}

	for state := 0; state < g.Table.stateCount; state++ {
		row := g.Table.action[state]
		for ti, entry := range row {
			if entry == nil {
				continue
			}
			idx := state*len(terms) + ti
			switch entry.kind {
			case actionKindShift:
				ct.Action[idx] = -int(entry.shiftTo) - 1
				if ti == errIdx {
					ct.ErrorTrapperStates[state] = 1
				}
			case actionKindAccept:
				ct.Action[idx] = int(productionNumStart)
			case actionKindReduce:
				if len(entry.reduces) == 0 {
					continue
				}
				if len(entry.reduces) == 1 && entry.reduces[0].predicate == "" {
					ct.Action[idx] = entry.reduces[0].prod.num.Int()
					continue
				}
				chain := &PredicateChain{}
				for _, rc := range entry.reduces {
					if rc.predicate == "" {
						chain.Fallback = rc.prod.num.Int()
						continue
					}
					chain.Candidates = append(chain.Candidates, PredicateCandidate{
						Production: rc.prod.num.Int(),
						Predicate:  rc.predicate,
					})
				}
				ct.PredicateChains[[2]int{state, ti}] = chain
			}
		}
		goToRow := g.Table.goTo[state]
		for ni, next := range goToRow {
			if next < 0 {
				ct.GoTo[state*len(nonTerms)+ni] = -1
			} else {
				ct.GoTo[state*len(nonTerms)+ni] = int(next)
			}
		}
	}

	return ct, nil
}

// TerminalIndex resolves a terminal's name to its column index, the form
// lexspec.Build needs to translate maleeni's compiled token kinds into
// table columns.
func (ct *CompiledTable) TerminalIndex(name string) (int, bool) {
	for i, t := range ct.Terminals {
		if t == name {
			return i, true
		}
	}
	return 0, false
}
