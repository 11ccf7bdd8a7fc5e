// Package grammar turns a parsed specification into an LALR(1) parsing
// table: it interns symbols, builds the production set, runs FIRST/FOLLOW,
// constructs the canonical LR(1) collection, merges it into an LALR(1)
// automaton, and resolves the resulting action table, including the
// semantic-predicate and %inject augmentations this tool adds on top of a
// plain LALR(1) generator.
package grammar

import (
	"fmt"
	"sort"
)

// Pos is a 1-based line/column position in the source specification file,
// threaded through from the specfile parser so semantic errors can point
// back at the offending text.
type Pos struct {
	Row int
	Col int
}

type Assoc int

const (
	AssocNone Assoc = iota
	AssocLeft
	AssocRight
	AssocNonAssoc
)

// TerminalDecl is one %token declaration (or an anonymous pattern literal
// discovered inline in a production's RHS).
type TerminalDecl struct {
	Pos      Pos
	Name     string
	Pattern  string // regular expression text, without the enclosing ( )
	IsString bool   // true if Pattern came from a "..." literal rather than a (...) regex
	Skip     bool
	Fragment bool
}

// ProductionDecl is one alternative of a grammar rule.
type ProductionDecl struct {
	Pos       Pos
	LHS       string
	RHS       []string
	PrecTag   string
	Predicate string
	Action    string
	Recover   bool
	Inject    string // path of an %inject directive attached to this alternative, as written; Build neither resolves nor expands it
}

// PrecDecl is one %left/%right/%nonassoc line. Declarations are processed in
// file order, each one level more tightly binding than the last, mirroring
// yacc-family precedence tables.
type PrecDecl struct {
	Pos   Pos
	Assoc Assoc
	Terms []string
}

// InputGrammar is the language-agnostic description the specfile package
// builds from a parsed .spec/.gen file and hands to Build. Nothing in this
// package knows how to read specification syntax; nothing in the specfile
// package knows how LALR tables are built.
type InputGrammar struct {
	Name        string
	Start       string // the grammar's start non-terminal; if empty, the first production's LHS is used
	AttrType    string // %attr NAME: the host-language type of an attribute-stack slot
	TargetType  string // %target NAME: the host-language type %1/$$ actions ultimately produce
	Preamble    string // %{ ... %} verbatim Go source, emitted ahead of generated declarations
	Terminals   []TerminalDecl
	Productions []ProductionDecl
	PrecDecls   []PrecDecl
	ErrorTerms  []string // terminal names listed by %error declarations; does not include the built-in error symbol

	// ExpectedShiftReduce and ExpectedReduceReduce are the %shift_reduce N /
	// %reduce_reduce N declarations (default 0 each); BuildTable's caller
	// compares these against the table's actual conflict counts.
	ExpectedShiftReduce  int
	ExpectedReduceReduce int
}

// BuildError is a semantic error discovered while assembling the grammar IR,
// before table construction - duplicate declarations, unknown symbols,
// and the like. cmd/gen wraps these in diagnostics.SpecError once it has
// the source file path to attach.
type BuildError struct {
	Pos Pos
	Msg string
}

func (e *BuildError) Error() string {
	return e.Msg
}

// Grammar is the fully assembled grammar: interned symbols, the production
// set, and (once BuildTable succeeds) the resolved parsing table.
type Grammar struct {
	Name                 string
	AttrType             string
	TargetType           string
	ExpectedShiftReduce  int
	ExpectedReduceReduce int
	symTab               *symbolTable
	prods                *productionSet
	precAssoc            *precAndAssoc
	startSym             symbol
	lexEntries           []TerminalDecl
	errorTerms           []string
	Follow               *followSet
	Table                *ParsingTable
	Warnings             []string
}

// Conflicts tallies the table's actual shift/reduce and reduce/reduce
// conflict counts, regardless of how each was resolved (spec.md Testable
// Property 5). Call after BuildTable.
func (g *Grammar) Conflicts() (shiftReduce, reduceReduce int) {
	for _, c := range g.Table.Conflicts() {
		switch c.(type) {
		case shiftReduceConflict:
			shiftReduce++
		case reduceReduceConflict:
			reduceReduce++
		}
	}
	return shiftReduce, reduceReduce
}

// CheckExpectedConflicts compares the table's actual conflict counts
// against %shift_reduce/%reduce_reduce (or an --expect override for the
// combined total, when expectOverride is non-negative). It returns a
// human-readable mismatch description, or "" if expectations were met.
func (g *Grammar) CheckExpectedConflicts(expectOverride int) string {
	sr, rr := g.Conflicts()
	if expectOverride >= 0 {
		if sr+rr != expectOverride {
			return fmt.Sprintf("%v conflicts (%v shift/reduce, %v reduce/reduce), expected %v", sr+rr, sr, rr, expectOverride)
		}
		return ""
	}
	var msgs []string
	if sr != g.ExpectedShiftReduce {
		msgs = append(msgs, fmt.Sprintf("%v shift/reduce conflicts, expected %v", sr, g.ExpectedShiftReduce))
	}
	if rr != g.ExpectedReduceReduce {
		msgs = append(msgs, fmt.Sprintf("%v reduce/reduce conflicts, expected %v", rr, g.ExpectedReduceReduce))
	}
	if len(msgs) == 0 {
		return ""
	}
	s := msgs[0]
	for _, m := range msgs[1:] {
		s += "; " + m
	}
	return s
}

// Build assembles the symbol table, production set, and precedence model
// from in. It does not construct the parsing table - call BuildTable next -
// so that callers can inspect and report symbol-level errors (duplicate
// names, undefined terminals) before paying for FIRST/FOLLOW and automaton
// construction.
func Build(in *InputGrammar) (*Grammar, []*BuildError, error) {
	var errs []*BuildError

	tab := newSymbolTable()
	w := tab.writer()

	if len(in.Productions) == 0 {
		return nil, nil, fmt.Errorf("a grammar must have at least one production")
	}

	start := in.Start
	if start == "" {
		start = in.Productions[0].LHS
	}
	startSym, err := w.registerStartSymbol(start + "'")
	if err != nil {
		return nil, nil, err
	}

	lhsSeen := map[string]bool{}
	for _, p := range in.Productions {
		lhsSeen[p.LHS] = true
	}
	for _, p := range in.Productions {
		if _, err := w.registerNonTerminalSymbol(p.LHS); err != nil {
			return nil, nil, err
		}
	}

	termNames := map[string]bool{}
	for _, t := range in.Terminals {
		if t.Fragment {
			continue
		}
		termNames[t.Name] = true
	}
	for _, p := range in.Productions {
		for _, s := range p.RHS {
			if lhsSeen[s] || termNames[s] {
				continue
			}
			errs = append(errs, &BuildError{Pos: p.Pos, Msg: fmt.Sprintf("undefined symbol %q in production for %q", s, p.LHS)})
		}
	}
	for _, t := range in.Terminals {
		if t.Fragment {
			continue
		}
		if _, err := w.registerTerminalSymbol(t.Name); err != nil {
			return nil, nil, err
		}
	}

	// A precedence declaration's terms may name a real terminal or a bare
	// tag that appears in no production's RHS, used only via %prec to give
	// a production a precedence borrowed from nowhere on its own right-hand
	// side (the classic UMINUS idiom). Tags are registered as terminal
	// symbols here, on first mention in a precedence declaration, since
	// nothing else introduces them.
	pa := newPrecAndAssoc()
	precDeclaredAt := map[string]Pos{}
	for i, decl := range in.PrecDecls {
		for _, tname := range decl.Terms {
			if prevPos, dup := precDeclaredAt[tname]; dup {
				errs = append(errs, &BuildError{Pos: decl.Pos, Msg: fmt.Sprintf("precedence for %q already declared at %v", tname, prevPos)})
				continue
			}
			precDeclaredAt[tname] = decl.Pos

			sym, ok := tab.reader().toSymbol(tname)
			if !ok {
				var err error
				sym, err = w.registerTerminalSymbol(tname)
				if err != nil {
					return nil, nil, err
				}
			}
			w.declareTag(tname)
			pa.declareTerm(sym, i+1, toInternalAssoc(decl.Assoc))
		}
	}

	prods := newProductionSet()
	r := tab.reader()
	startBodySym, _ := r.toSymbol(start)
	startProd, err := newProduction(startSym, []symbol{startBodySym})
	if err != nil {
		return nil, nil, err
	}
	prods.append(startProd)

	seenAlt := map[string]Pos{}
	for _, p := range in.Productions {
		lhs, ok := r.toSymbol(p.LHS)
		if !ok {
			continue
		}
		var rhs []symbol
		ok = true
		for _, s := range p.RHS {
			sym, found := r.toSymbol(s)
			if !found {
				ok = false
				break
			}
			rhs = append(rhs, sym)
		}
		if !ok {
			continue
		}
		prod, err := newProduction(lhs, rhs)
		if err != nil {
			return nil, nil, err
		}
		prod.precTag = p.PrecTag
		prod.predicate = p.Predicate
		prod.action = p.Action
		prod.recover = p.Recover
		prod.id = genProductionIDWithPredicate(lhs, rhs, prod.predicate)
		key := fmt.Sprintf("%x:%x", lhs, prod.id)
		if prevPos, dup := seenAlt[key]; dup && p.Predicate == "" {
			errs = append(errs, &BuildError{Pos: p.Pos, Msg: fmt.Sprintf("duplicate alternative for %q (first declared at %v)", p.LHS, prevPos)})
		}
		seenAlt[key] = p.Pos
		if !prods.append(prod) && p.Predicate == "" {
			// Identical production already present without a predicate
			// distinguishing it; keep the first one's metadata.
			continue
		}
		pa.resolveProdPrecAndAssoc(prod, tab)
	}

	g := &Grammar{
		Name:                 in.Name,
		AttrType:             in.AttrType,
		TargetType:           in.TargetType,
		ExpectedShiftReduce:  in.ExpectedShiftReduce,
		ExpectedReduceReduce: in.ExpectedReduceReduce,
		symTab:               tab,
		prods:                prods,
		precAssoc:            pa,
		startSym:             startSym,
		lexEntries:           in.Terminals,
		errorTerms:           in.ErrorTerms,
	}
	for _, tag := range r.unusedTags() {
		g.Warnings = append(g.Warnings, fmt.Sprintf("tag %q is declared but never used", tag))
	}

	if len(errs) > 0 {
		return g, errs, nil
	}
	return g, nil, nil
}

func toInternalAssoc(a Assoc) assocType {
	switch a {
	case AssocLeft:
		return assocLeft
	case AssocRight:
		return assocRight
	case AssocNonAssoc:
		return assocNonAssoc
	default:
		return assocNil
	}
}

// BuildTable runs FIRST/FOLLOW, the canonical LR(1) construction, the LALR
// merge, and conflict resolution, populating g.Table.
func (g *Grammar) BuildTable() error {
	fst, err := genFirstSet(g.prods)
	if err != nil {
		return err
	}
	flw, err := genFollowSet(g.prods, fst)
	if err != nil {
		return err
	}
	g.Follow = flw
	canon, err := genLR1Automaton(g.prods, g.startSym, fst)
	if err != nil {
		return err
	}
	lalr := mergeLALR(canon)
	tb := newTableBuilder(lalr, g.prods, g.symTab, g.precAssoc)
	table, err := tb.build()
	if err != nil {
		return err
	}
	g.Table = table
	return nil
}

// LexEntries returns every terminal declaration (literal or regex pattern,
// including the skip flag) in declaration order, the input the lexical
// analyzer is configured from (spec.md §4.I).
func (g *Grammar) LexEntries() []TerminalDecl { return g.lexEntries }

// ErrorTerms returns the terminal names listed by %error declarations, not
// including the built-in error sentinel itself. Table construction and the
// runtime do not consult them.
func (g *Grammar) ErrorTerms() []string { return g.errorTerms }

// Productions returns every production in declaration order, including the
// synthetic start production.
func (g *Grammar) Productions() []*production {
	return g.prods.inOrder()
}

func (g *Grammar) SymbolTable() *symbolTable { return g.symTab }

// TerminalNames returns the terminal names in table-column order (matching
// ParsingTable's action columns), and NonTerminalNames the non-terminal
// names in goto-column order.
func (g *Grammar) TerminalNames() []string {
	r := g.symTab.reader()
	names := make([]string, 0, len(r.terminalSymbols()))
	for _, s := range r.terminalSymbols() {
		t, _ := r.toText(s)
		names = append(names, t)
	}
	return names
}

func (g *Grammar) NonTerminalNames() []string {
	r := g.symTab.reader()
	names := make([]string, 0, len(r.nonTerminalSymbols()))
	for _, s := range r.nonTerminalSymbols() {
		t, _ := r.toText(s)
		names = append(names, t)
	}
	return names
}

// sortedTerms is a small helper used by report.go.
func sortedTerms(syms []symbol) []symbol {
	out := append([]symbol(nil), syms...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
