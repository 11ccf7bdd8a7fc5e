package specfile

import (
	"bytes"
	"fmt"

	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// lexer wraps a lexmachine DFA configured once, at package init time, with
// the fixed token vocabulary of a specification file. It is the self-hosted
// scanner component: the patterns below belong to this tool, not to any
// grammar a user supplies.
type lexer struct {
	scanner *lexmachine.Scanner
}

var lmLexer *lexmachine.Lexer

func init() {
	lmLexer = lexmachine.NewLexer()

	add := func(pattern string, kind tokenKind) {
		lmLexer.Add([]byte(pattern), makeTokenAction(kind))
	}

	for kw, kind := range directiveKeywords {
		add(escapeLiteral(kw), kind)
	}
	add(`#recover`, tokenKindDirRecover)
	add(`%%`, tokenKindPctPct)

	add(`:`, tokenKindColon)
	add(`;`, tokenKindSemicolon)
	add(`\|`, tokenKindOr)
	add(`#`, tokenKindHash)

	add(`[A-Za-z_][A-Za-z0-9_']*`, tokenKindID)
	add(`[0-9]+`, tokenKindInt)

	// Delimited blocks are opened by a one- or two-byte marker recognized here and
	// closed by scanning the raw input for the matching close marker inside
	// the action, since their bodies are not themselves regular.
	add(`\(`, tokenKindRegexLiteral)
	add(`"`, tokenKindStringLiteral)
	add(`!\{`, tokenKindActionBlock)
	add(`%\{`, tokenKindPreambleBlock)
	add(`\?\(`, tokenKindPredicateBlock)

	add(`//[^\n]*`, tokenKindInvalid) // line comment, discarded by skip action below
	add(`/\*`, tokenKindInvalid)      // block comment opener, closed by scanning ahead
	add(`[ \t\r\n]+`, tokenKindInvalid)

	if err := lmLexer.Compile(); err != nil {
		panic(fmt.Sprintf("specfile: failed to compile scanner: %v", err))
	}
}

func escapeLiteral(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '%', '_':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func makeTokenAction(kind tokenKind) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		switch kind {
		case tokenKindRegexLiteral:
			return scanDelimited(s, m, ')', kind)
		case tokenKindStringLiteral:
			return scanString(s, m)
		case tokenKindActionBlock:
			return scanBlock(s, m, "!}", kind)
		case tokenKindPreambleBlock:
			return scanBlock(s, m, "%}", kind)
		case tokenKindPredicateBlock:
			return scanBlock(s, m, "?)", kind)
		case tokenKindInvalid:
			// Comments and whitespace: for "/*" we must still consume to "*/".
			if len(m.Bytes) >= 2 && m.Bytes[0] == '/' && m.Bytes[1] == '*' {
				return scanBlockComment(s, m)
			}
			return nil, nil // skip
		default:
			return s.Token(int(kind), string(m.Bytes), m), nil
		}
	}
}

// scanDelimited reads forward from just past the opening byte already
// matched (m.TC is where that byte starts), until it finds close (not itself escaped), and
// advances the scanner's text cursor past it. This is how the regex-literal
// body `[0-9]+` inside `([0-9]+)` is captured without requiring the DFA
// itself to understand balanced parentheses.
func scanDelimited(s *lexmachine.Scanner, m *machines.Match, close byte, kind tokenKind) (interface{}, error) {
	start := m.TC + len(m.Bytes)
	i := start
	depth := 1
	for i < len(s.Text) {
		switch s.Text[i] {
		case '(':
			depth++
		case close:
			depth--
			if depth == 0 {
				body := string(s.Text[start:i])
				s.TC = i + 1
				return s.Token(int(kind), body, m), nil
			}
		case '\\':
			i++
		}
		i++
	}
	return nil, fmt.Errorf("unterminated regex literal starting at line %v, column %v", m.StartLine, m.StartColumn)
}

// scanString reads a double-quoted string literal, honoring backslash
// escapes of the quote character, and unescapes \" to " in the returned
// body.
func scanString(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	start := m.TC + len(m.Bytes)
	i := start
	var body bytes.Buffer
	for i < len(s.Text) {
		c := s.Text[i]
		if c == '\\' && i+1 < len(s.Text) {
			body.WriteByte(s.Text[i+1])
			i += 2
			continue
		}
		if c == '"' {
			s.TC = i + 1
			return s.Token(int(tokenKindStringLiteral), body.String(), m), nil
		}
		body.WriteByte(c)
		i++
	}
	return nil, fmt.Errorf("unterminated string literal starting at line %v, column %v", m.StartLine, m.StartColumn)
}

// scanBlock reads forward to the literal close marker (e.g. "!}"), used by
// action, preamble, and predicate blocks alike. Block bodies are opaque
// verbatim text from the scanner's point of view; the emitter is the only
// component that interprets $1/$$/$INJECT inside an action body.
func scanBlock(s *lexmachine.Scanner, m *machines.Match, close string, kind tokenKind) (interface{}, error) {
	start := m.TC + len(m.Bytes)
	idx := bytes.Index(s.Text[start:], []byte(close))
	if idx < 0 {
		return nil, fmt.Errorf("unterminated block starting at line %v, column %v (expected closing %q)", m.StartLine, m.StartColumn, close)
	}
	body := string(s.Text[start : start+idx])
	s.TC = start + idx + len(close)
	return s.Token(int(kind), body, m), nil
}

func scanBlockComment(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	start := m.TC + len(m.Bytes)
	idx := bytes.Index(s.Text[start:], []byte("*/"))
	if idx < 0 {
		return nil, fmt.Errorf("unterminated block comment starting at line %v, column %v", m.StartLine, m.StartColumn)
	}
	s.TC = start + idx + 2
	return nil, nil
}

func newLexer(src []byte) (*lexer, error) {
	sc, err := lmLexer.Scanner(src)
	if err != nil {
		return nil, err
	}
	return &lexer{scanner: sc}, nil
}

func (l *lexer) next() (*token, error) {
	for {
		tok, err, eof := l.scanner.Next()
		if err != nil {
			if ui, ok := err.(*machines.UnconsumedInput); ok {
				l.scanner.TC = ui.FailTC
				continue
			}
			return nil, err
		}
		if eof {
			return &token{kind: tokenKindEOF}, nil
		}
		if tok == nil {
			continue // skip action (whitespace, comments)
		}
		t := tok.(*lexmachine.Token)
		return &token{
			kind: tokenKind(t.Type),
			text: t.Value.(string),
			row:  t.StartLine + 1,
			col:  t.StartColumn + 1,
		}, nil
	}
}
