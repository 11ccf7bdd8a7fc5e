package grammar

import "testing"

func calcGrammar() *InputGrammar {
	return &InputGrammar{
		Name:  "calc",
		Start: "expr",
		Terminals: []TerminalDecl{
			{Name: "num", Pattern: "[0-9]+"},
			{Name: "add", Pattern: "\\+"},
			{Name: "sub", Pattern: "-"},
			{Name: "mul", Pattern: "\\*"},
			{Name: "div", Pattern: "/"},
			{Name: "l_paren", Pattern: "\\("},
			{Name: "r_paren", Pattern: "\\)"},
			{Name: "ws", Pattern: "[ \\t\\n]+", Skip: true},
		},
		PrecDecls: []PrecDecl{
			{Assoc: AssocLeft, Terms: []string{"add", "sub"}},
			{Assoc: AssocLeft, Terms: []string{"mul", "div"}},
		},
		Productions: []ProductionDecl{
			{LHS: "expr", RHS: []string{"expr", "add", "expr"}},
			{LHS: "expr", RHS: []string{"expr", "sub", "expr"}},
			{LHS: "expr", RHS: []string{"expr", "mul", "expr"}},
			{LHS: "expr", RHS: []string{"expr", "div", "expr"}},
			{LHS: "expr", RHS: []string{"l_paren", "expr", "r_paren"}},
			{LHS: "expr", RHS: []string{"num"}},
		},
	}
}

func TestBuildCalcGrammar(t *testing.T) {
	g, errs, err := Build(calcGrammar())
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) > 0 {
		t.Fatalf("unexpected semantic errors: %v", errs)
	}
	if err := g.BuildTable(); err != nil {
		t.Fatal(err)
	}

	var reduceReduce int
	for _, c := range g.Table.Conflicts() {
		if _, ok := c.(reduceReduceConflict); ok {
			reduceReduce++
		}
	}
	if reduceReduce != 0 {
		t.Fatalf("expected 0 reduce/reduce conflicts with precedence declared, got %v", reduceReduce)
	}
}

func TestBuildUndefinedSymbol(t *testing.T) {
	in := calcGrammar()
	in.Productions = append(in.Productions, ProductionDecl{LHS: "expr", RHS: []string{"bogus"}})
	_, errs, err := Build(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) == 0 {
		t.Fatal("expected an undefined-symbol error")
	}
}

func TestBuildAmbiguousWithoutPrecedence(t *testing.T) {
	in := &InputGrammar{
		Name:  "ambiguous",
		Start: "expr",
		Terminals: []TerminalDecl{
			{Name: "num", Pattern: "[0-9]+"},
			{Name: "add", Pattern: "\\+"},
		},
		Productions: []ProductionDecl{
			{LHS: "expr", RHS: []string{"expr", "add", "expr"}},
			{LHS: "expr", RHS: []string{"num"}},
		},
	}
	g, errs, err := Build(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) > 0 {
		t.Fatalf("unexpected semantic errors: %v", errs)
	}
	if err := g.BuildTable(); err != nil {
		t.Fatal(err)
	}
	var shiftReduce int
	for _, c := range g.Table.Conflicts() {
		if _, ok := c.(shiftReduceConflict); ok {
			shiftReduce++
		}
	}
	if shiftReduce == 0 {
		t.Fatal("expected at least one shift/reduce conflict without precedence declared")
	}
}
