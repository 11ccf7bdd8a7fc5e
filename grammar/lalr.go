package grammar

import "sort"

// lalrAutomaton is the canonical LR(1) collection after merging states that
// share an identical core (the LALR construction proper). Merging can
// introduce reduce/reduce conflicts a canonical LR(1) table would not have
// had, which is the price LALR(1) pays for its much smaller table; this
// package never hides that by silently picking a winner - conflicts
// discovered here are surfaced by the table builder (table.go).
type lalrAutomaton struct {
	states       []*lrState
	initialState lrStateNum
}

// mergeLALR groups the canonical LR(1) states produced by genLR1Automaton by
// core signature (kernel cores with lookaheads stripped), unions the
// lookaheads of every item across a group into its representative, and
// renumbers the resulting states densely in the order their group was first
// discovered. Two canonical states always agree on which symbols they
// transition on once grouped by core, because closure core sets are a pure
// function of kernel core sets; that invariant is what makes the rewritten
// transition table well defined.
func mergeLALR(canon *lr1Automaton) *lalrAutomaton {
	groupOf := make([]int, len(canon.states)) // original state num -> group index
	var groupRepOriginal []lrStateNum         // group index -> first original state num in that group
	sigToGroup := map[string]int{}

	for _, st := range canon.states {
		sig := st.kernel.coreSignature()
		g, ok := sigToGroup[sig]
		if !ok {
			g = len(groupRepOriginal)
			sigToGroup[sig] = g
			groupRepOriginal = append(groupRepOriginal, st.num)
		}
		groupOf[st.num] = g
	}

	merged := make([]*lrState, len(groupRepOriginal))
	for g := range groupRepOriginal {
		merged[g] = &lrState{
			num:     lrStateNum(g),
			kernel:  newKernel(),
			closure: map[itemCore]lookaheadSet{},
			next:    map[symbol]lrStateNum{},
		}
	}

	for _, st := range canon.states {
		g := groupOf[st.num]
		rep := merged[g]
		for c, la := range st.kernel.items {
			for s := range la {
				rep.kernel.add(c, s)
			}
		}
		for c, la := range st.closure {
			set, ok := rep.closure[c]
			if !ok {
				set = newLookaheadSet()
				rep.closure[c] = set
			}
			set.merge(la)
		}
		for sym, next := range st.next {
			rep.next[sym] = lrStateNum(groupOf[next])
		}
	}

	return &lalrAutomaton{
		states:       merged,
		initialState: lrStateNum(groupOf[canon.initialState]),
	}
}

// reducibleItems returns every (core, lookaheads) pair in state's closure
// whose dot has reached the end of its production, sorted by the production's
// declaration order (prod.num) then dot. table.go's default reduce/reduce
// resolution and the predicate chain's first-true-wins order both depend on
// this being declaration order, not the arbitrary order productionID hashes
// happen to sort in.
func (s *lrState) reducibleItems(prods *productionSet) []struct {
	core itemCore
	la   lookaheadSet
} {
	var items []struct {
		core itemCore
		la   lookaheadSet
	}
	for c, la := range s.closure {
		if c.isReducible(prods) {
			items = append(items, struct {
				core itemCore
				la   lookaheadSet
			}{core: c, la: la})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].core.prod != items[j].core.prod {
			pi, _ := prods.findByID(items[i].core.prod)
			pj, _ := prods.findByID(items[j].core.prod)
			return pi.num < pj.num
		}
		return items[i].core.dot < items[j].core.dot
	})
	return items
}
