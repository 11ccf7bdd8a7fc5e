package grammar

import (
	"testing"
)

func TestGenFollowSet(t *testing.T) {
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
	flw, err := genFollowSet(prods, fst)
	if err != nil {
		t.Fatal(err)
	}

	exprSym, _ := r.toSymbol("expr")
	e, err := flw.find(exprSym)
	if err != nil {
		t.Fatal(err)
	}
	if !e.eof {
		t.Fatal("FOLLOW(expr) must contain EOF because expr is the start symbol's body")
	}
	addSym, _ := r.toSymbol("add")
	rParenSym, _ := r.toSymbol("r_paren")
	if _, ok := e.symbols[addSym]; !ok {
		t.Fatal("FOLLOW(expr) must contain add")
	}
	if _, ok := e.symbols[rParenSym]; !ok {
		t.Fatal("FOLLOW(expr) must contain r_paren")
	}

	factorSym, _ := r.toSymbol("factor")
	fe, err := flw.find(factorSym)
	if err != nil {
		t.Fatal(err)
	}
	mulSym, _ := r.toSymbol("mul")
	if _, ok := fe.symbols[mulSym]; !ok {
		t.Fatal("FOLLOW(factor) must contain mul")
	}
}
