// Package emit renders a compiled grammar into a Go source file: the
// runtime-ready parser every `gen` invocation produces (spec.md §4.I).
// It is the only component in this tool that knows the host language is
// Go - everything upstream of it deals in dense integer tables and
// verbatim action/predicate text, never in Go syntax.
//
// Composition follows text/template, the idiomatic approach every
// code-generating tool in this corpus reaches for (nihei9/maleeni's own
// driver and the golang.org/x/tools generators alike), rather than a
// hand-rolled pretty-printer.
package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/nihei9/lrgen/grammar"
	"github.com/nihei9/lrgen/lexspec"
)

// Config gathers everything Generate needs to render one parser.
type Config struct {
	Package  string // the generated file's package clause
	Preamble string // %{ ... %} verbatim source, emitted ahead of generated declarations
	Grammar  *grammar.Grammar
	Table    *grammar.CompiledTable
	Lex      *lexspec.RuntimeSpec
}

type templateData struct {
	Package      string
	Preamble     string
	AttrType     string
	TargetType   string
	Terminals    []constEntry
	NonTerminals []constEntry
	Table        *grammar.CompiledTable
	ActionCases  []dispatchCase
	PredCases    []dispatchCase
	LexJSON      string
	KindToTerm   []int
	Skip         []int
	PredChains   []predChainEntry
}

type constEntry struct {
	Const string
	Index int
}

type dispatchCase struct {
	Production int
	Body       string
}

type predChainEntry struct {
	State, Term int
	Candidates  []int
	Fallback    int
}

// Generate renders cfg into Go source and returns it gofmt'd. If the
// rendered text fails to parse, it returns the unformatted text together
// with the wrapped gofmt error - that indicates a bug in this package's
// template, not in the input grammar.
func Generate(cfg Config) ([]byte, error) {
	lexJSON, err := json.Marshal(cfg.Lex.Compiled)
	if err != nil {
		return nil, fmt.Errorf("emit: marshaling compiled lexer: %w", err)
	}
	if bytes.ContainsRune(lexJSON, '`') {
		return nil, fmt.Errorf("emit: compiled lexer JSON unexpectedly contains a backtick")
	}

	data := &templateData{
		Package:    cfg.Package,
		Preamble:   cfg.Preamble,
		AttrType:   orDefault(cfg.Grammar.AttrType, "interface{}"),
		TargetType: orDefault(cfg.Grammar.TargetType, "interface{}"),
		Table:      cfg.Table,
		LexJSON:    string(lexJSON),
		KindToTerm: cfg.Lex.KindToTerminal,
		Skip:       cfg.Lex.Skip,
	}

	for i, name := range cfg.Table.Terminals {
		data.Terminals = append(data.Terminals, constEntry{Const: constName("term", name), Index: i})
	}
	for i, name := range cfg.Table.NonTerminals {
		data.NonTerminals = append(data.NonTerminals, constEntry{Const: constName("nonterm", name), Index: i})
	}

	for prod, body := range cfg.Table.Actions {
		if body == "" {
			continue
		}
		data.ActionCases = append(data.ActionCases, dispatchCase{
			Production: prod,
			Body:       rewriteActionBody(body, data.AttrType, cfg.Table.RHSIsTerminal[prod]),
		})
	}
	for prod, body := range cfg.Table.Predicates {
		if body == "" {
			continue
		}
		data.PredCases = append(data.PredCases, dispatchCase{
			Production: prod,
			Body:       rewritePredicateBody(body, data.AttrType, cfg.Table.RHSIsTerminal[prod]),
		})
	}
	for key, chain := range cfg.Table.PredicateChains {
		var cands []int
		for _, c := range chain.Candidates {
			cands = append(cands, c.Production)
		}
		data.PredChains = append(data.PredChains, predChainEntry{
			State: key[0], Term: key[1], Candidates: cands, Fallback: chain.Fallback,
		})
	}

	var buf bytes.Buffer
	if err := sourceTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("emit: executing template: %w", err)
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("emit: gofmt: %w", err)
	}
	return out, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func constName(prefix, name string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('_')
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// rewriteActionBody turns a !{ ... !} action's $1..$n and $$ references
// into indexed reads of the attrs window and a final assignment to the
// dispatch function's return value, and $INJECT(text) into a call back
// into the running parser - pure text substitution, per spec.md's Design
// Notes, since this package is the only one that needs to know the
// target is Go.
func rewriteActionBody(body, attrType string, rhsIsTerminal []bool) string {
	body = rewriteDollarRefs(body, attrType, rhsIsTerminal)
	body = rewriteInject(body)
	var b strings.Builder
	b.WriteString("var __result ")
	b.WriteString(attrType)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\nreturn __result\n")
	return b.String()
}

func rewritePredicateBody(body, attrType string, rhsIsTerminal []bool) string {
	body = rewriteDollarRefs(body, attrType, rhsIsTerminal)
	return "return (" + body + ")"
}

// rewriteDollarRefs replaces $N with a type-asserted read of the attribute
// window and $$ with the action's result variable. $N's static type
// depends on whether RHS position N-1 is a terminal (the raw lexeme
// string the scanner produced) or a non-terminal (whatever a prior
// reduction synthesized, typed attrType).
func rewriteDollarRefs(body, attrType string, rhsIsTerminal []bool) string {
	var out strings.Builder
	i := 0
	for i < len(body) {
		c := body[i]
		if c != '$' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(body) && body[i+1] == '$' {
			out.WriteString("__result")
			i += 2
			continue
		}
		j := i + 1
		for j < len(body) && body[j] >= '0' && body[j] <= '9' {
			j++
		}
		if j > i+1 {
			n := body[i+1 : j]
			pos := 0
			fmt.Sscanf(n, "%d", &pos)
			assertType := attrType
			if pos-1 >= 0 && pos-1 < len(rhsIsTerminal) && rhsIsTerminal[pos-1] {
				assertType = "string"
			}
			out.WriteString(fmt.Sprintf("(attrs[%s-1].(%s))", n, assertType))
			i = j
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

func rewriteInject(body string) string {
	return strings.ReplaceAll(body, "$INJECT(", "p.Inject(")
}

var sourceTemplate = template.Must(template.New("parser").Parse(`// Code generated by lrgen. DO NOT EDIT.

package {{.Package}}

{{if .Preamble}}{{.Preamble}}{{end}}

import (
	"encoding/json"
	"io"

	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/nihei9/lrgen/runtime"
)

type Attr = runtime.Attr

const (
{{- range .Terminals}}
	{{.Const}} = {{.Index}}
{{- end}}
)

const (
{{- range .NonTerminals}}
	{{.Const}} = {{.Index}}
{{- end}}
)

var compiledLexSpecJSON = ` + "`{{.LexJSON}}`" + `

func mustCompiledLexSpec() *mlspec.CompiledLexSpec {
	var s mlspec.CompiledLexSpec
	if err := json.Unmarshal([]byte(compiledLexSpecJSON), &s); err != nil {
		panic(err)
	}
	return &s
}

var parserTable = &runtime.Table{
	StateCount:       {{.Table.StateCount}},
	TerminalCount:    {{.Table.TerminalCount}},
	NonTerminalCount: {{.Table.NonTerminalCount}},
	InitialState:     {{.Table.InitialState}},
	StartProduction:  {{.Table.StartProduction}},
	EOFSymbol:        {{.Table.EOFSymbol}},
	ErrorSymbol:      {{.Table.ErrorSymbol}},
	Terminals:        []string{ {{range .Table.Terminals}}{{printf "%q" .}}, {{end}} },
	NonTerminals:     []string{ {{range .Table.NonTerminals}}{{printf "%q" .}}, {{end}} },
	Action:           []int{ {{range .Table.Action}}{{.}}, {{end}} },
	GoTo:             []int{ {{range .Table.GoTo}}{{.}}, {{end}} },
	LHSSymbols:              []int{ {{range .Table.LHSSymbols}}{{.}}, {{end}} },
	AlternativeSymbolCounts: []int{ {{range .Table.AlternativeSymbolCounts}}{{.}}, {{end}} },
	RecoverProductions:      []int{ {{range .Table.RecoverProductions}}{{.}}, {{end}} },
	ErrorTrapperStates:      []int{ {{range .Table.ErrorTrapperStates}}{{.}}, {{end}} },
	KindToTerminal:          []int{ {{range .KindToTerm}}{{.}}, {{end}} },
	Skip:                    []int{ {{range .Skip}}{{.}}, {{end}} },
	Lexer: mustCompiledLexSpec(),
	PredicateChains: map[[2]int]*runtime.PredicateChain{
{{- range .PredChains}}
		{ {{.State}}, {{.Term}} }: { Candidates: []int{ {{range .Candidates}}{{.}}, {{end}} }, Fallback: {{.Fallback}} },
{{- end}}
	},
}

type actionDispatch struct{}

func (actionDispatch) Reduce(p *runtime.Parser, prod int, attrs []Attr) Attr {
	switch prod {
{{- range .ActionCases}}
	case {{.Production}}:
		{{.Body}}
{{- end}}
	}
	return nil
}

type predicateDispatch struct{}

func (predicateDispatch) EvalPredicate(p *runtime.Parser, prod int, attrs []Attr) bool {
	switch prod {
{{- range .PredCases}}
	case {{.Production}}:
		{{.Body}}
{{- end}}
	}
	return true
}

// NewParser builds a parser reading src, ready to drive with (*runtime.Parser).Parse.
func NewParser(src io.Reader) (*runtime.Parser, error) {
	return runtime.NewParser(parserTable, src, actionDispatch{}, predicateDispatch{})
}

// Parse runs a parser over src to completion and type-asserts the
// synthesized attribute of the start symbol back to {{.TargetType}}.
func Parse(src io.Reader) ({{.TargetType}}, []*runtime.SyntaxError, error) {
	var zero {{.TargetType}}
	p, err := NewParser(src)
	if err != nil {
		return zero, nil, err
	}
	result, err := p.Parse()
	if err != nil {
		return zero, p.SyntaxErrors(), err
	}
	if result == nil {
		return zero, p.SyntaxErrors(), nil
	}
	return result.({{.TargetType}}), p.SyntaxErrors(), nil
}
`))
