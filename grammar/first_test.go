package grammar

import (
	"testing"
)

// buildProds is a small test helper that turns a slice of (lhs, rhs...)
// alternatives into a productionSet and symbolTable, registering start+"'"
// (e.g. "expr'") as the start symbol automatically. Terminal names are every token that never
// appears on the left-hand side of an alternative.
func buildProds(t *testing.T, start string, alts [][]string) (*productionSet, *symbolTable) {
	t.Helper()

	tab := newSymbolTable()
	w := tab.writer()

	lhsNames := map[string]bool{}
	for _, alt := range alts {
		lhsNames[alt[0]] = true
	}

	_, err := w.registerStartSymbol(start + "'")
	if err != nil {
		t.Fatal(err)
	}
	for _, alt := range alts {
		if _, err := w.registerNonTerminalSymbol(alt[0]); err != nil {
			t.Fatal(err)
		}
	}
	for _, alt := range alts {
		for _, s := range alt[1:] {
			if lhsNames[s] {
				continue
			}
			if _, err := w.registerTerminalSymbol(s); err != nil {
				t.Fatal(err)
			}
		}
	}

	r := tab.reader()
	prods := newProductionSet()
	startSym, _ := r.toSymbol(start + "'")
	startBodySym, _ := r.toSymbol(start)
	startProd, err := newProduction(startSym, []symbol{startBodySym})
	if err != nil {
		t.Fatal(err)
	}
	prods.append(startProd)

	for _, alt := range alts {
		lhs, _ := r.toSymbol(alt[0])
		var rhs []symbol
		for _, s := range alt[1:] {
			sym, ok := r.toSymbol(s)
			if !ok {
				t.Fatalf("unknown symbol %q", s)
			}
			rhs = append(rhs, sym)
		}
		p, err := newProduction(lhs, rhs)
		if err != nil {
			t.Fatal(err)
		}
		prods.append(p)
	}

	return prods, tab
}

func TestGenFirstSet(t *testing.T) {
	prods, tab := buildProds(t, "expr", [][]string{
		{"expr", "expr", "add", "term"},
		{"expr", "term"},
		{"term", "term", "mul", "factor"},
		{"term", "factor"},
		{"factor", "l_paren", "expr", "r_paren"},
		{"factor", "id"},
	})
	r := tab.reader()

	fst, err := genFirstSet(prods)
	if err != nil {
		t.Fatal(err)
	}

	for _, nt := range []string{"expr", "term", "factor"} {
		sym, _ := r.toSymbol(nt)
		e := fst.findBySymbol(sym)
		if e == nil {
			t.Fatalf("FIRST(%v) was not computed", nt)
		}
		wantAny := []string{"id", "l_paren"}
		found := false
		for _, w := range wantAny {
			wsym, _ := r.toSymbol(w)
			if _, ok := e.symbols[wsym]; ok {
				found = true
			}
		}
		if !found {
			t.Fatalf("FIRST(%v) missing expected members", nt)
		}
		if e.empty {
			t.Fatalf("FIRST(%v) must not contain epsilon", nt)
		}
	}
}

func TestGenFirstSetWithEmptyProduction(t *testing.T) {
	prods, tab := buildProds(t, "list", [][]string{
		{"list", "items"},
		{"items", "id", "items"},
		{"items"},
	})
	r := tab.reader()

	fst, err := genFirstSet(prods)
	if err != nil {
		t.Fatal(err)
	}

	itemsSym, _ := r.toSymbol("items")
	e := fst.findBySymbol(itemsSym)
	if e == nil {
		t.Fatal("FIRST(items) was not computed")
	}
	if !e.empty {
		t.Fatal("FIRST(items) must contain epsilon")
	}
	idSym, _ := r.toSymbol("id")
	if _, ok := e.symbols[idSym]; !ok {
		t.Fatal("FIRST(items) must contain id")
	}
}
