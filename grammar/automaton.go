package grammar

import (
	"fmt"
)

// lr1Automaton is the canonical LR(1) collection: every state discovered by
// closure/goto from the initial kernel, numbered in discovery order, with
// dense transition tables. States are never merged here - that is lalr.go's
// job - so this collection can be exponentially larger than its LALR
// counterpart for pathological grammars, exactly as canonical LR(1)
// construction is expected to be.
type lr1Automaton struct {
	states         []*lrState
	initialState   lrStateNum
	kernels        map[string]lrStateNum // kernel signature -> state number
	acceptingState lrStateNum
}

func genLR1Automaton(prods *productionSet, startSym symbol, fst *firstSet) (*lr1Automaton, error) {
	startProds, ok := prods.findByLHS(startSym)
	if !ok || len(startProds) != 1 {
		return nil, fmt.Errorf("start symbol must have exactly one production")
	}
	startProd := startProds[0]

	initKernel := newKernel()
	initKernel.add(itemCore{prod: startProd.id, dot: 0}, symbolEOF)

	automaton := &lr1Automaton{
		kernels: map[string]lrStateNum{},
	}

	type pending struct {
		num lrStateNum
		k   *kernel
	}
	queue := []pending{{num: 0, k: initKernel}}
	automaton.kernels[initKernel.signature()] = 0
	automaton.states = append(automaton.states, &lrState{num: 0, kernel: initKernel})

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		closure, err := closeKernel(cur.k, prods, fst)
		if err != nil {
			return nil, err
		}
		state := automaton.states[cur.num]
		state.closure = closure
		state.next = map[symbol]lrStateNum{}

		for _, sym := range nextSymbols(closure, prods) {
			nextKernel := gotoKernel(closure, sym, prods)
			if nextKernel == nil {
				continue
			}
			sig := nextKernel.signature()
			num, ok := automaton.kernels[sig]
			if !ok {
				num = lrStateNum(len(automaton.states))
				automaton.kernels[sig] = num
				automaton.states = append(automaton.states, &lrState{num: num, kernel: nextKernel})
				queue = append(queue, pending{num: num, k: nextKernel})
			}
			state.next[sym] = num
		}
	}

	return automaton, nil
}
