package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type productionID [32]byte

func (id productionID) String() string {
	return hex.EncodeToString(id[:])
}

func genProductionID(lhs symbol, rhs []symbol) productionID {
	return genProductionIDWithPredicate(lhs, rhs, "")
}

// genProductionIDWithPredicate folds a production's predicate text into
// its identity. Two alternatives sharing an LHS and RHS but carrying
// different predicates (including one with no predicate at all) are
// distinct productions: the grammar.go loop that assembles the
// production set re-derives each alternative's id with this function once
// its predicate is known, so a predicate-guarded alternative and its
// unconditional fallback both survive into the table builder and surface
// as a genuine reduce/reduce conflict it resolves via the predicate
// chain, rather than silently colliding on (lhs, rhs) alone.
func genProductionIDWithPredicate(lhs symbol, rhs []symbol, predicate string) productionID {
	seq := lhs.byte()
	for _, sym := range rhs {
		seq = append(seq, sym.byte()...)
	}
	seq = append(seq, []byte(predicate)...)
	return productionID(sha256.Sum256(seq))
}

type productionNum uint16

const (
	productionNumNil   = productionNum(0)
	productionNumStart = productionNum(1)
	productionNumMin   = productionNum(2)
)

func (n productionNum) Int() int {
	return int(n)
}

// production is one alternative of a non-terminal's right-hand side.
// predicate carries the augmentation this tool adds on top of a plain
// context-free production: the verbatim text of a `?( ... ?)` guard
// evaluated at reduce time.
type production struct {
	id        productionID
	num       productionNum
	lhs       symbol
	rhs       []symbol
	rhsLen    int
	precTag   string // explicit %prec symbol/tag, empty if derived from the rightmost terminal
	predicate string // verbatim predicate expression, empty if unguarded
	recover   bool   // true if this production is a valid error-recovery synchronization point
	action    string // verbatim !{ ... !} action body, empty if none
}

func newProduction(lhs symbol, rhs []symbol) (*production, error) {
	if lhs.isNil() {
		return nil, fmt.Errorf("LHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
	}
	for _, sym := range rhs {
		if sym.isNil() {
			return nil, fmt.Errorf("a symbol of RHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
		}
	}

	return &production{
		id:     genProductionID(lhs, rhs),
		lhs:    lhs,
		rhs:    rhs,
		rhsLen: len(rhs),
	}, nil
}

func (p *production) equals(q *production) bool {
	return q.id == p.id
}

func (p *production) isEmpty() bool {
	return p.rhsLen == 0
}

func (p *production) hasPredicate() bool {
	return p.predicate != ""
}

type productionSet struct {
	lhs2Prods map[symbol][]*production
	id2Prod   map[productionID]*production
	num       productionNum
}

func newProductionSet() *productionSet {
	return &productionSet{
		lhs2Prods: map[symbol][]*production{},
		id2Prod:   map[productionID]*production{},
		num:       productionNumMin,
	}
}

// append registers prod and assigns it a dense production number in
// insertion order. It returns false without modifying the set when a
// production with the same id is already present. Ids built by
// genProductionIDWithPredicate cover LHS, RHS and predicate text, so two
// alternatives that differ only in their predicates are both kept.
func (ps *productionSet) append(prod *production) bool {
	if _, ok := ps.id2Prod[prod.id]; ok {
		return false
	}

	if prod.lhs.isStart() {
		prod.num = productionNumStart
	} else {
		prod.num = ps.num
		ps.num++
	}

	if prods, ok := ps.lhs2Prods[prod.lhs]; ok {
		ps.lhs2Prods[prod.lhs] = append(prods, prod)
	} else {
		ps.lhs2Prods[prod.lhs] = []*production{prod}
	}
	ps.id2Prod[prod.id] = prod

	return true
}

func (ps *productionSet) findByID(id productionID) (*production, bool) {
	prod, ok := ps.id2Prod[id]
	return prod, ok
}

func (ps *productionSet) findByLHS(lhs symbol) ([]*production, bool) {
	if lhs.isNil() {
		return nil, false
	}

	prods, ok := ps.lhs2Prods[lhs]
	return prods, ok
}

func (ps *productionSet) getAllProductions() map[productionID]*production {
	return ps.id2Prod
}

// inOrder returns every production sorted by production number, the
// canonical order used by table construction and code emission.
func (ps *productionSet) inOrder() []*production {
	prods := make([]*production, 0, len(ps.id2Prod))
	for _, p := range ps.id2Prod {
		prods = append(prods, p)
	}
	for i := 1; i < len(prods); i++ {
		for j := i; j > 0 && prods[j-1].num > prods[j].num; j-- {
			prods[j-1], prods[j] = prods[j], prods[j-1]
		}
	}
	return prods
}
