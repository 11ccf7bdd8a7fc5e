package grammar

import (
	"fmt"
	"sort"

	"github.com/cnf/structhash"
)

// itemCore identifies a production and a dot position, ignoring lookahead.
// Two canonical LR(1) items share a core iff they would collapse into the
// same LR(0) item; the LALR merge groups states by the set of cores their
// items carry.
type itemCore struct {
	prod productionID
	dot  int
}

func (c itemCore) dottedSymbol(prods *productionSet) symbol {
	p, ok := prods.findByID(c.prod)
	if !ok || c.dot >= p.rhsLen {
		return symbolNil
	}
	return p.rhs[c.dot]
}

func (c itemCore) isReducible(prods *productionSet) bool {
	p, ok := prods.findByID(c.prod)
	if !ok {
		return false
	}
	return c.dot >= p.rhsLen
}

// lookaheadSet is a set of terminal symbols (never a non-terminal, never nil).
type lookaheadSet map[symbol]struct{}

func newLookaheadSet(syms ...symbol) lookaheadSet {
	s := lookaheadSet{}
	for _, sym := range syms {
		s[sym] = struct{}{}
	}
	return s
}

// merge adds every symbol of other into s, reporting whether s grew.
func (s lookaheadSet) merge(other lookaheadSet) bool {
	changed := false
	for sym := range other {
		if _, ok := s[sym]; !ok {
			s[sym] = struct{}{}
			changed = true
		}
	}
	return changed
}

func (s lookaheadSet) sorted() []symbol {
	syms := make([]symbol, 0, len(s))
	for sym := range s {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

// kernel is the set of item cores together with their lookaheads that
// define a canonical LR(1) state before closure is taken. Two kernels with
// identical cores but different lookaheads are different canonical states;
// the LALR pass (lalr.go) is what later decides to merge them.
type kernel struct {
	items map[itemCore]lookaheadSet
}

func newKernel() *kernel {
	return &kernel{items: map[itemCore]lookaheadSet{}}
}

func (k *kernel) add(core itemCore, la symbol) bool {
	set, ok := k.items[core]
	if !ok {
		set = newLookaheadSet()
		k.items[core] = set
	}
	if _, ok := set[la]; ok {
		return false
	}
	set[la] = struct{}{}
	return true
}

func (k *kernel) cores() []itemCore {
	cores := make([]itemCore, 0, len(k.items))
	for c := range k.items {
		cores = append(cores, c)
	}
	sort.Slice(cores, func(i, j int) bool {
		if cores[i].prod != cores[j].prod {
			return fmt.Sprintf("%x", cores[i].prod) < fmt.Sprintf("%x", cores[j].prod)
		}
		return cores[i].dot < cores[j].dot
	})
	return cores
}

// coreSignature is the digest of a kernel's cores alone, ignoring
// lookaheads - the key the LALR merge groups states by.
func (k *kernel) coreSignature() string {
	type entry struct {
		Prod string
		Dot  int
	}
	var entries []entry
	for _, c := range k.cores() {
		entries = append(entries, entry{Prod: c.prod.String(), Dot: c.dot})
	}
	h, err := structhash.Hash(entries, 1)
	if err != nil {
		panic(err)
	}
	return h
}

// signature is the digest of the full kernel, cores and lookaheads alike -
// the identity canonical LR(1) state discovery dedups on.
func (k *kernel) signature() string {
	type entry struct {
		Prod string
		Dot  int
		LA   []string
	}
	var entries []entry
	for _, c := range k.cores() {
		var la []string
		for _, s := range k.items[c].sorted() {
			la = append(la, s.String())
		}
		entries = append(entries, entry{Prod: c.prod.String(), Dot: c.dot, LA: la})
	}
	h, err := structhash.Hash(entries, 1)
	if err != nil {
		panic(err)
	}
	return h
}

type lrStateNum int

const lrStateNumInitial = lrStateNum(0)

// lrState is one canonical LR(1) automaton state: its defining kernel, its
// closure (every item implied by the kernel), and its outgoing transitions.
type lrState struct {
	num     lrStateNum
	kernel  *kernel
	closure map[itemCore]lookaheadSet
	next    map[symbol]lrStateNum
}

// closeKernel computes the closure of a kernel: repeatedly, for every item
// [A -> alpha . B beta, a] with B a non-terminal, add [B -> . gamma, b] for
// every production B -> gamma and every b in FIRST(beta a), for every
// production of B, until a fixed point is reached. This is the canonical
// LR(1) closure, not the LR(0)-closure-plus-propagation shortcut.
func closeKernel(k *kernel, prods *productionSet, fst *firstSet) (map[itemCore]lookaheadSet, error) {
	closure := map[itemCore]lookaheadSet{}
	for c, la := range k.items {
		closure[c] = newLookaheadSet()
		closure[c].merge(la)
	}

	for {
		more := false
		for c, la := range closure {
			p, ok := prods.findByID(c.prod)
			if !ok {
				return nil, fmt.Errorf("production not found for item core: %v", c)
			}
			if c.dot >= p.rhsLen {
				continue
			}
			b := p.rhs[c.dot]
			if !b.isNonTerminal() {
				continue
			}

			// beta is p.rhs[c.dot+1:]; compute FIRST(beta a) for each a in la.
			betaFirst := newLookaheadSet()
			betaIsNullable := true
			for _, sym := range p.rhs[c.dot+1:] {
				if sym.isTerminal() {
					betaFirst.merge(newLookaheadSet(sym))
					betaIsNullable = false
					break
				}
				e := fst.findBySymbol(sym)
				if e == nil {
					return nil, fmt.Errorf("FIRST entry missing for %v", sym)
				}
				for s := range e.symbols {
					betaFirst.merge(newLookaheadSet(s))
				}
				if !e.empty {
					betaIsNullable = false
					break
				}
			}
			if betaIsNullable {
				betaFirst.merge(la)
			}

			gammaProds, ok := prods.findByLHS(b)
			if !ok {
				continue
			}
			for _, gp := range gammaProds {
				newCore := itemCore{prod: gp.id, dot: 0}
				set, ok := closure[newCore]
				if !ok {
					set = newLookaheadSet()
					closure[newCore] = set
				}
				if set.merge(betaFirst) {
					more = true
				}
			}
		}
		if !more {
			break
		}
	}

	return closure, nil
}

// gotoKernel computes the kernel reached by shifting sym over every item in
// closure whose dotted symbol is sym.
func gotoKernel(closure map[itemCore]lookaheadSet, sym symbol, prods *productionSet) *kernel {
	k := newKernel()
	for c, la := range closure {
		if c.dottedSymbol(prods) != sym {
			continue
		}
		next := itemCore{prod: c.prod, dot: c.dot + 1}
		for s := range la {
			k.add(next, s)
		}
	}
	if len(k.items) == 0 {
		return nil
	}
	return k
}

// nextSymbols returns, in deterministic ascending order, every symbol that
// appears immediately after the dot in some item of closure - the set of
// transitions that must be explored from this state.
func nextSymbols(closure map[itemCore]lookaheadSet, prods *productionSet) []symbol {
	seen := map[symbol]struct{}{}
	for c := range closure {
		sym := c.dottedSymbol(prods)
		if sym.isNil() {
			continue
		}
		seen[sym] = struct{}{}
	}
	syms := make([]symbol, 0, len(seen))
	for sym := range seen {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}
