package grammar

type assocType int

const (
	assocNil assocType = iota
	assocLeft
	assocRight
	assocNonAssoc
)

// precAndAssoc holds the %left/%right/%nonassoc declarations, keyed both by
// terminal (for shift/reduce resolution against the lookahead) and by
// production (for shift/reduce resolution against the production's own
// precedence, which is either its explicit %prec tag or, absent that, its
// rightmost terminal).
type precAndAssoc struct {
	termPrec map[symbol]int
	termAssoc map[symbol]assocType
	prodPrec map[productionID]int
	prodAssoc map[productionID]assocType
}

func newPrecAndAssoc() *precAndAssoc {
	return &precAndAssoc{
		termPrec:  map[symbol]int{},
		termAssoc: map[symbol]assocType{},
		prodPrec:  map[productionID]int{},
		prodAssoc: map[productionID]assocType{},
	}
}

func (pa *precAndAssoc) declareTerm(sym symbol, prec int, assoc assocType) {
	pa.termPrec[sym] = prec
	pa.termAssoc[sym] = assoc
}

// resolveProdPrecAndAssoc derives a production's precedence for conflict
// resolution: an explicit %prec tag wins outright, otherwise the rightmost
// terminal of the production's RHS supplies it, otherwise the production has
// no precedence and conflicts touching it fall through to the default
// shift/favor-earlier-production resolution.
func (pa *precAndAssoc) resolveProdPrecAndAssoc(p *production, tab *symbolTable) {
	if p.precTag != "" {
		if sym, ok := tab.reader().toSymbol(p.precTag); ok {
			if prec, ok := pa.termPrec[sym]; ok {
				pa.prodPrec[p.id] = prec
				pa.prodAssoc[p.id] = pa.termAssoc[sym]
				tab.writer().markTagUsed(p.precTag)
				return
			}
		}
	}
	for i := len(p.rhs) - 1; i >= 0; i-- {
		if p.rhs[i].isTerminal() {
			if prec, ok := pa.termPrec[p.rhs[i]]; ok {
				pa.prodPrec[p.id] = prec
				pa.prodAssoc[p.id] = pa.termAssoc[p.rhs[i]]
				if text, ok := tab.reader().toText(p.rhs[i]); ok {
					tab.writer().markTagUsed(text)
				}
				return
			}
			return
		}
	}
}

func (pa *precAndAssoc) termPrecOf(sym symbol) (int, bool) {
	p, ok := pa.termPrec[sym]
	return p, ok
}

func (pa *precAndAssoc) prodPrecOf(id productionID) (int, assocType, bool) {
	p, ok := pa.prodPrec[id]
	if !ok {
		return 0, assocNil, false
	}
	return p, pa.prodAssoc[id], true
}
