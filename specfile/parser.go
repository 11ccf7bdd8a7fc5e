// Package specfile implements the self-hosted scanner and recursive-descent
// parser for this tool's own specification-file syntax, producing a
// grammar.InputGrammar ready for grammar.Build.
package specfile

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/nihei9/lrgen/grammar"
)

// SyntaxError is raised for a malformed specification file, independent of
// the semantic errors grammar.Build can later report.
type SyntaxError struct {
	Row, Col int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v:%v: %v", e.Row, e.Col, e.Msg)
}

type fileReader = func(path string) ([]byte, error)

type parser struct {
	lex        *lexer
	peeked     *token
	last       *token
	basePath   string
	injectSeen map[string]bool // cycle guard for %inject, resolved path -> true while expanding
	readFile   fileReader

	pendingSkips []token // %skip names, resolved against Terminals once the spec is fully parsed

	out *grammar.InputGrammar
}

// Parse reads a specification file's contents (src) and produces the
// grammar it describes. basePath is the directory %inject paths are
// resolved relative to, and readFile is used for every %inject target
// encountered while parsing. parseWithSeen, which Parse wraps, is also used
// internally, recursively, to expand %inject; top-level callers should use ParseFile, which seeds the
// cycle-detection set with the root file's own path so a file that
// (in)directly injects itself is caught even though the root was never
// reached through an %inject directive itself.
func Parse(src []byte, basePath string, readFile func(path string) ([]byte, error)) (*grammar.InputGrammar, error) {
	return parseWithSeen(src, basePath, readFile, map[string]bool{})
}

// ParseFile is the entry point cmd/gen uses: selfPath is the resolved path
// of the root specification file, included in the cycle-detection set from
// the start.
func ParseFile(src []byte, selfPath string, readFile func(path string) ([]byte, error)) (*grammar.InputGrammar, error) {
	seen := map[string]bool{filepath.Clean(selfPath): true}
	return parseWithSeen(src, filepath.Dir(selfPath), readFile, seen)
}

func parseWithSeen(src []byte, basePath string, readFile func(path string) ([]byte, error), seen map[string]bool) (out *grammar.InputGrammar, err error) {
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*SyntaxError); ok {
				err = se
				return
			}
			panic(r)
		}
	}()

	lex, lerr := newLexer(src)
	if lerr != nil {
		return nil, lerr
	}
	p := &parser{
		lex:        lex,
		basePath:   basePath,
		injectSeen: seen,
		out:        &grammar.InputGrammar{},
	}
	p.readFile = readFile
	p.parseSpec()
	p.resolveSkips()
	return p.out, nil
}

func (p *parser) peek() *token {
	if p.peeked == nil {
		t, err := p.lex.next()
		if err != nil {
			p.raise(0, 0, err.Error())
		}
		p.peeked = t
	}
	return p.peeked
}

func (p *parser) advance() *token {
	t := p.peek()
	p.peeked = nil
	p.last = t
	return t
}

func (p *parser) consume(kind tokenKind) *token {
	t := p.peek()
	if t.kind != kind {
		p.raise(t.row, t.col, fmt.Sprintf("expected %v, found %v (%q)", kind, t.kind, t.text))
	}
	return p.advance()
}

func (p *parser) raise(row, col int, msg string) {
	panic(&SyntaxError{Row: row, Col: col, Msg: msg})
}

func (p *parser) parseSpec() {
	for {
		t := p.peek()
		switch t.kind {
		case tokenKindEOF:
			return
		case tokenKindDirName:
			p.advance()
			name := p.consume(tokenKindID)
			p.out.Name = name.text
			p.consume(tokenKindSemicolon)
		case tokenKindDirTarget:
			p.advance()
			target := p.consume(tokenKindID)
			p.out.TargetType = target.text
			p.consume(tokenKindSemicolon)
		case tokenKindDirAttr:
			p.advance()
			attr := p.consume(tokenKindID)
			p.out.AttrType = attr.text
			p.consume(tokenKindSemicolon)
		case tokenKindPreambleBlock:
			blk := p.advance()
			p.out.Preamble += blk.text
		case tokenKindDirToken:
			p.parseTokenDecl(false)
		case tokenKindDirFragment:
			p.parseTokenDecl(true)
		case tokenKindDirSkip:
			p.parseSkipDecl()
		case tokenKindDirLeft:
			p.parsePrecDecl(grammar.AssocLeft)
		case tokenKindDirRight:
			p.parsePrecDecl(grammar.AssocRight)
		case tokenKindDirNonAssoc:
			p.parsePrecDecl(grammar.AssocNonAssoc)
		case tokenKindDirError:
			p.parseErrorDecl()
		case tokenKindDirReduceReduce:
			p.out.ExpectedReduceReduce = p.parseConflictCountDecl()
		case tokenKindDirShiftReduce:
			p.out.ExpectedShiftReduce = p.parseConflictCountDecl()
		case tokenKindDirInject:
			p.parseTopLevelInject()
		case tokenKindPctPct:
			p.advance()
		case tokenKindID:
			p.parseRule()
		default:
			p.raise(t.row, t.col, fmt.Sprintf("unexpected token %v", t.kind))
		}
	}
}

func (p *parser) parseTokenDecl(fragment bool) {
	pos := p.advance() // %token or %fragment
	for {
		name := p.consume(tokenKindID)
		var pattern string
		isString := false
		switch p.peek().kind {
		case tokenKindRegexLiteral:
			pattern = p.advance().text
		case tokenKindStringLiteral:
			pattern = p.advance().text
			isString = true
		default:
			p.raise(pos.row, pos.col, fmt.Sprintf("%v needs a pattern for %q", pos.kind, name.text))
		}
		p.out.Terminals = append(p.out.Terminals, grammar.TerminalDecl{
			Pos:      grammar.Pos{Row: name.row, Col: name.col},
			Name:     name.text,
			Pattern:  pattern,
			IsString: isString,
			Fragment: fragment,
		})
		if p.peek().kind != tokenKindOr {
			break
		}
		p.advance()
	}
	p.consume(tokenKindSemicolon)
}

func (p *parser) parseSkipDecl() {
	p.advance()
	for {
		name := p.consume(tokenKindID)
		p.pendingSkips = append(p.pendingSkips, *name)
		if p.peek().kind != tokenKindOr {
			break
		}
		p.advance()
	}
	p.consume(tokenKindSemicolon)
}

// resolveSkips marks every terminal named by a %skip declaration, once the
// whole specification (and thus the full terminal list) has been parsed.
// %skip may refer to a terminal declared later in the file, the same
// forward-reference leniency the symbol table affords non-terminals.
func (p *parser) resolveSkips() {
	for _, name := range p.pendingSkips {
		found := false
		for i := range p.out.Terminals {
			if p.out.Terminals[i].Name == name.text {
				p.out.Terminals[i].Skip = true
				found = true
			}
		}
		if !found {
			p.raise(name.row, name.col, fmt.Sprintf("%%skip refers to undeclared terminal %q", name.text))
		}
	}
}

// parseErrorDecl parses `%error NAME ( | NAME )* ;`, recording each name in
// InputGrammar.ErrorTerms. Error recovery itself is driven by the built-in
// error terminal and `#recover` marks; the recorded names take no part in it.
func (p *parser) parseErrorDecl() {
	p.advance()
	for {
		name := p.consume(tokenKindID)
		p.out.ErrorTerms = append(p.out.ErrorTerms, name.text)
		if p.peek().kind != tokenKindOr {
			break
		}
		p.advance()
	}
	p.consume(tokenKindSemicolon)
}

// parseConflictCountDecl parses `%reduce_reduce N ;` / `%shift_reduce N ;`.
func (p *parser) parseConflictCountDecl() int {
	pos := p.advance()
	n := p.consume(tokenKindInt)
	p.consume(tokenKindSemicolon)
	count := 0
	for _, r := range n.text {
		if r < '0' || r > '9' {
			p.raise(pos.row, pos.col, fmt.Sprintf("%v expects an integer, found %q", pos.kind, n.text))
		}
		count = count*10 + int(r-'0')
	}
	return count
}

func (p *parser) parsePrecDecl(assoc grammar.Assoc) {
	pos := p.advance()
	var terms []string
	for {
		name := p.consume(tokenKindID)
		terms = append(terms, name.text)
		if p.peek().kind != tokenKindOr {
			break
		}
		p.advance()
	}
	p.consume(tokenKindSemicolon)
	p.out.PrecDecls = append(p.out.PrecDecls, grammar.PrecDecl{
		Pos:   grammar.Pos{Row: pos.row, Col: pos.col},
		Assoc: assoc,
		Terms: terms,
	})
}

func (p *parser) parseTopLevelInject() {
	pos := p.advance()
	path := p.consume(tokenKindStringLiteral)
	p.consume(tokenKindSemicolon)
	p.expandInject(pos.row, pos.col, path.text)
}

func (p *parser) expandInject(row, col int, path string) {
	resolved := filepath.Clean(filepath.Join(p.basePath, path))
	if p.injectSeen[resolved] {
		p.raise(row, col, fmt.Sprintf("%%inject cycle detected at %q", resolved))
	}
	p.injectSeen[resolved] = true
	defer delete(p.injectSeen, resolved)

	data, err := p.readFile(resolved)
	if err != nil {
		p.raise(row, col, fmt.Sprintf("failed to read injected file %q: %v", resolved, err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		p.raise(row, col, fmt.Sprintf("injected file %q is empty", resolved))
	}

	sub, err := parseWithSeen(data, filepath.Dir(resolved), p.readFile, p.injectSeen)
	if err != nil {
		panic(err)
	}
	p.out.Terminals = append(p.out.Terminals, sub.Terminals...)
	p.out.Productions = append(p.out.Productions, sub.Productions...)
	p.out.PrecDecls = append(p.out.PrecDecls, sub.PrecDecls...)
	if p.out.Preamble == "" {
		p.out.Preamble = sub.Preamble
	}
}

func (p *parser) parseRule() {
	lhs := p.advance()
	p.consume(tokenKindColon)

	for {
		alt := p.parseAlternative(lhs.text)
		p.out.Productions = append(p.out.Productions, alt)
		if p.peek().kind != tokenKindOr {
			break
		}
		p.advance()
	}
	p.consume(tokenKindSemicolon)
}

func (p *parser) parseAlternative(lhs string) grammar.ProductionDecl {
	startTok := p.peek()
	decl := grammar.ProductionDecl{Pos: grammar.Pos{Row: startTok.row, Col: startTok.col}, LHS: lhs}

	for {
		t := p.peek()
		switch t.kind {
		case tokenKindID:
			decl.RHS = append(decl.RHS, p.advance().text)
		case tokenKindRegexLiteral, tokenKindStringLiteral:
			// An inline pattern literal used directly in a production body
			// is registered as an anonymous terminal named after its text.
			lit := p.advance()
			name := "_anon_" + lit.text
			found := false
			for _, td := range p.out.Terminals {
				if td.Name == name {
					found = true
				}
			}
			if !found {
				p.out.Terminals = append(p.out.Terminals, grammar.TerminalDecl{
					Pos:      decl.Pos,
					Name:     name,
					Pattern:  lit.text,
					IsString: lit.kind == tokenKindStringLiteral,
				})
			}
			decl.RHS = append(decl.RHS, name)
		case tokenKindDirPrec:
			p.advance()
			tag := p.consume(tokenKindID)
			decl.PrecTag = tag.text
		case tokenKindPredicateBlock:
			decl.Predicate = p.advance().text
		case tokenKindActionBlock:
			decl.Action = p.advance().text
		case tokenKindHash:
			p.advance()
			p.consume(tokenKindDirRecover)
			decl.Recover = true
		case tokenKindDirRecover:
			p.advance()
			decl.Recover = true
		case tokenKindDirInject:
			p.advance()
			path := p.consume(tokenKindStringLiteral)
			decl.Inject = path.text
		default:
			return decl
		}
	}
}
