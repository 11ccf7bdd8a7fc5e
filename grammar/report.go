package grammar

import (
	"fmt"
	"io"
)

// WriteDescription renders a human-readable report of the grammar and its
// parsing table: terminals, non-terminals, productions, states, and every
// conflict the table builder recorded - resolved or not. cmd/gen does not
// call it; it prints only a one-line conflict summary.
func (g *Grammar) WriteDescription(w io.Writer) error {
	fmt.Fprintf(w, "# Terminals\n\n")
	for i, name := range g.TerminalNames() {
		fmt.Fprintf(w, "%4d %v\n", i, name)
	}

	fmt.Fprintf(w, "\n# Non-terminals\n\n")
	for i, name := range g.NonTerminalNames() {
		fmt.Fprintf(w, "%4d %v\n", i, name)
	}

	fmt.Fprintf(w, "\n# Productions\n\n")
	for _, p := range g.Productions() {
		fmt.Fprintf(w, "%4d %v\n", p.num, g.productionToString(p))
	}

	if g.Follow != nil {
		fmt.Fprintf(w, "\n# FOLLOW sets\n\n")
		r := g.symTab.reader()
		for _, sym := range r.nonTerminalSymbols() {
			name, _ := r.toText(sym)
			e, err := g.Follow.find(sym)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "%-16v", name)
			if e.eof {
				fmt.Fprintf(w, " <eof>")
			}
			for _, s := range sortedTerms(e.keys()) {
				text, _ := r.toText(s)
				fmt.Fprintf(w, " %v", text)
			}
			fmt.Fprintf(w, "\n")
		}
	}

	if g.Table != nil {
		fmt.Fprintf(w, "\n# States\n\n")
		fmt.Fprintf(w, "state count: %v\n", g.Table.stateCount)

		if len(g.Table.conflicts) > 0 {
			fmt.Fprintf(w, "\n# Conflicts\n\n")
			for _, c := range g.Table.conflicts {
				fmt.Fprintf(w, "%v\n", c)
			}
		} else {
			fmt.Fprintf(w, "\n# Conflicts\n\nnone\n")
		}
	}

	if len(g.Warnings) > 0 {
		fmt.Fprintf(w, "\n# Warnings\n\n")
		for _, wmsg := range g.Warnings {
			fmt.Fprintf(w, "%v\n", wmsg)
		}
	}

	return nil
}

func (g *Grammar) productionToString(p *production) string {
	r := g.symTab.reader()
	lhs, _ := r.toText(p.lhs)
	s := lhs + " →"
	if p.isEmpty() {
		s += " ε"
	}
	for _, sym := range p.rhs {
		text, _ := r.toText(sym)
		s += " " + text
	}
	if p.predicate != "" {
		s += fmt.Sprintf(" ?( %v )", p.predicate)
	}
	return s
}
