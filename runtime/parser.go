// Package runtime is the collaborator every parser this tool generates
// links against: the push-down LALR(1) driver, lexical front end, semantic
// predicate evaluation at reduce time, %inject text splicing, and the
// error-recovery hook keyed on the `error` terminal (spec.md §6's "Runtime
// collaborator contract"). It generalizes nihei9/vartan's driver/parser.go
// push-down loop with two additions this tool's augmented grammar needs:
// predicate-guarded reductions and injection.
package runtime

import (
	"fmt"
	"io"

	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

// Attr is one slot of the parser's attribute stack. Its dynamic type is
// whatever a specification's %attr declares; the generated action
// dispatch is the only code that type-asserts it back.
type Attr = interface{}

// PredicateChain is a cell's ordered list of predicate-guarded reduce
// candidates plus an optional unconditional fallback, exactly as the table
// builder resolved it (spec.md §4.H.1): production-index order, first true
// wins, fallback (0 meaning error) if every guard is false.
type PredicateChain struct {
	Candidates []int // production numbers, in the order to try
	Fallback   int
}

// Table is the flattened LALR(1) table and lexical runtime description a
// generated parser embeds as Go literal data.
type Table struct {
	Action                  []int
	GoTo                    []int
	StateCount              int
	TerminalCount           int
	NonTerminalCount        int
	InitialState            int
	StartProduction         int
	EOFSymbol               int
	ErrorSymbol              int
	Terminals               []string
	NonTerminals            []string
	LHSSymbols              []int
	AlternativeSymbolCounts []int
	RecoverProductions      []int
	ErrorTrapperStates      []int
	PredicateChains         map[[2]int]*PredicateChain

	Lexer          *mlspec.CompiledLexSpec
	KindToTerminal []int
	Skip           []int
}

// ActionDispatcher performs the verbatim action text a specification
// attached to a production, given the attribute-stack window that
// production's RHS covers. It is implemented by the generated code's
// reduce-dispatch function.
type ActionDispatcher interface {
	Reduce(p *Parser, prod int, attrs []Attr) Attr
}

// PredicateDispatcher evaluates a production's `?( ... ?)` guard against
// the same attribute-stack window Reduce would see. Implemented by the
// generated code's predicate-dispatch function.
type PredicateDispatcher interface {
	EvalPredicate(p *Parser, prod int, attrs []Attr) bool
}

// SyntaxError is one unexpected-token diagnostic collected during Parse.
type SyntaxError struct {
	Row, Col          int
	Message           string
	ExpectedTerminals []string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v:%v: %v", e.Row, e.Col, e.Message)
}

// Parser is the push-down automaton: a state stack, a parallel attribute
// stack, and the table/dispatchers that drive it.
type Parser struct {
	table     *Table
	action    ActionDispatcher
	predicate PredicateDispatcher

	lex    *mldriver.Lexer
	inject *injectReader

	stateStack []int
	attrStack  []Attr

	onError    bool
	shiftCount int
	synErrs    []*SyntaxError
}

// NewParser builds a parser reading src through table's compiled lexer,
// dispatching reductions and predicates to action/predicate.
func NewParser(table *Table, src io.Reader, action ActionDispatcher, predicate PredicateDispatcher) (*Parser, error) {
	ir := newInjectReader(src)
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(table.Lexer), ir)
	if err != nil {
		return nil, err
	}
	return &Parser{
		table:     table,
		action:    action,
		predicate: predicate,
		lex:       lex,
		inject:    ir,
	}, nil
}

// Inject splices text into the input stream ahead of whatever has not yet
// been read, the runtime half of the %inject directive and the
// $INJECT(...) action hook.
func (p *Parser) Inject(text string) {
	p.inject.push(text)
}

// Parse runs the push-down algorithm to completion, returning the
// synthesized attribute of the accepted start symbol and any syntax
// errors collected along the way (errors do not make Parse return an
// error value unless the lexer itself fails; callers should check
// SyntaxErrors()).
func (p *Parser) Parse() (Attr, error) {
	p.push(p.table.InitialState, nil)
	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}

	for {
		term := p.tokenToTerminal(tok)
		state := p.top()
		act := p.table.Action[state*p.table.TerminalCount+term]

		if chain, ok := p.table.PredicateChains[[2]int{state, term}]; ok {
			act = p.resolvePredicateChain(chain)
		}

		switch {
		case act < 0: // shift
			nextState := -act - 1
			if p.onError {
				p.shiftCount++
				if p.shiftCount >= 3 {
					p.onError = false
					p.shiftCount = 0
				}
			}
			p.push(nextState, tokenAttr(tok))
			tok, err = p.nextToken()
			if err != nil {
				return nil, err
			}
		case act > 0: // reduce (or accept, when the production is the synthetic start)
			if p.onError && p.table.RecoverProductions[act] != 0 {
				p.onError = false
				p.shiftCount = 0
			}
			accepted, result := p.reduce(act)
			if accepted {
				return result, nil
			}
		default: // error
			if p.onError {
				tok, err = p.nextToken()
				if err != nil {
					return nil, err
				}
				if tok.EOF {
					return nil, nil
				}
				continue
			}

			p.synErrs = append(p.synErrs, &SyntaxError{
				Row:               tok.Row,
				Col:               tok.Col,
				Message:           "unexpected token",
				ExpectedTerminals: p.lookahead(state),
			})

			if !p.trapError() {
				return nil, nil
			}
			p.onError = true
			p.shiftCount = 0

			errAct := p.table.Action[p.top()*p.table.TerminalCount+p.table.ErrorSymbol]
			if errAct >= 0 {
				return nil, fmt.Errorf("runtime: state %v has no shift action on the error terminal", p.top())
			}
			p.push(-errAct-1, nil)
		}
	}
}

func (p *Parser) resolvePredicateChain(chain *PredicateChain) int {
	for _, prod := range chain.Candidates {
		n := p.table.AlternativeSymbolCounts[prod]
		window := p.attrStack[len(p.attrStack)-n:]
		if p.predicate.EvalPredicate(p, prod, window) {
			return prod
		}
	}
	return chain.Fallback
}

func (p *Parser) nextToken() (*mldriver.Token, error) {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if !tok.EOF && p.table.Skip[tok.KindID] > 0 {
			continue
		}
		return tok, nil
	}
}

func (p *Parser) tokenToTerminal(tok *mldriver.Token) int {
	if tok.EOF {
		return p.table.EOFSymbol
	}
	return p.table.KindToTerminal[tok.KindID]
}

func tokenAttr(tok *mldriver.Token) Attr {
	if tok.EOF {
		return nil
	}
	return string(tok.Lexeme)
}

func (p *Parser) reduce(prodNum int) (accepted bool, result Attr) {
	lhs := p.table.LHSSymbols[prodNum]
	if prodNum == p.table.StartProduction {
		return true, p.attrStack[len(p.attrStack)-1]
	}
	n := p.table.AlternativeSymbolCounts[prodNum]
	handle := append([]Attr(nil), p.attrStack[len(p.attrStack)-n:]...)
	res := p.action.Reduce(p, prodNum, handle)

	p.pop(n)
	nextState := p.table.GoTo[p.top()*p.table.NonTerminalCount+lhs]
	p.push(nextState, res)
	return false, nil
}

func (p *Parser) trapError() bool {
	for {
		if p.table.ErrorTrapperStates[p.top()] != 0 {
			return true
		}
		if p.top() != p.table.InitialState {
			p.pop(1)
		} else {
			return false
		}
	}
}

func (p *Parser) lookahead(state int) []string {
	var names []string
	base := state * p.table.TerminalCount
	for term := 0; term < p.table.TerminalCount; term++ {
		if p.table.Action[base+term] == 0 {
			continue
		}
		if term == p.table.ErrorSymbol {
			continue
		}
		names = append(names, p.table.Terminals[term])
	}
	return names
}

func (p *Parser) top() int { return p.stateStack[len(p.stateStack)-1] }

func (p *Parser) push(state int, attr Attr) {
	p.stateStack = append(p.stateStack, state)
	p.attrStack = append(p.attrStack, attr)
}

func (p *Parser) pop(n int) {
	p.stateStack = p.stateStack[:len(p.stateStack)-n]
	p.attrStack = p.attrStack[:len(p.attrStack)-n]
}

// SyntaxErrors returns every unexpected-token diagnostic collected during
// the most recent Parse call.
func (p *Parser) SyntaxErrors() []*SyntaxError { return p.synErrs }
