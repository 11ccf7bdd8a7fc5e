// Package lexspec builds the lexical analyzer a generated parser embeds:
// the literal list, regex list, and skip list spec.md component A and
// component I describe, compiled into a runnable DFA by
// github.com/nihei9/maleeni/compiler - the same lexer engine
// nihei9/vartan's own generator targets for the parsers *it* emits, reused
// here rather than reinventing DFA construction for a second time in this
// one pipeline.
package lexspec

import (
	"fmt"
	"strings"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"

	"github.com/nihei9/lrgen/grammar"
)

// RuntimeSpec is everything the runtime collaborator's scanner needs: the
// compiled DFA plus the two lookup tables that translate between maleeni's
// own per-kind numbering and this tool's dense terminal column index.
type RuntimeSpec struct {
	Compiled       *mlspec.CompiledLexSpec
	KindToTerminal []int // maleeni kind id -> terminal column index
	Skip           []int // maleeni kind id -> 1 if tokens of this kind are never handed to the parser
}

// Build compiles terms into a RuntimeSpec. terminalIndex resolves a
// terminal's name to its column index in the parser's action table
// (grammar.CompiledTable.Terminals); every declared terminal must resolve,
// since the table was built from precisely this same terminal set.
func Build(name string, terms []grammar.TerminalDecl, terminalIndex func(name string) (int, bool)) (*RuntimeSpec, error) {
	entries := make([]*mlspec.LexEntry, 0, len(terms))
	skipNames := map[string]bool{}
	seen := map[string]bool{}
	for _, t := range terms {
		if t.Fragment || seen[t.Name] {
			continue
		}
		seen[t.Name] = true

		pattern := string(t.Pattern)
		if t.IsString {
			pattern = mlspec.EscapePattern(pattern)
		}
		entries = append(entries, &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(t.Name),
			Pattern: mlspec.LexPattern(pattern),
		})
		if t.Skip {
			skipNames[t.Name] = true
		}
	}

	compiled, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    name,
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) > 0 {
			var msgs []string
			for _, c := range cErrs {
				msg := fmt.Sprintf("%v: %v", c.Kind, c.Cause)
				if c.Detail != "" {
					msg += ": " + c.Detail
				}
				msgs = append(msgs, msg)
			}
			return nil, fmt.Errorf("lexspec: %v: %v", err, strings.Join(msgs, "; "))
		}
		return nil, err
	}

	kindToTerm := make([]int, len(compiled.KindNames))
	skip := make([]int, len(compiled.KindNames))
	for i, k := range compiled.KindNames {
		if k == mlspec.LexKindNameNil {
			continue
		}
		idx, ok := terminalIndex(k.String())
		if !ok {
			return nil, fmt.Errorf("lexspec: compiled lexical kind %q has no matching terminal", k)
		}
		kindToTerm[i] = idx
		if skipNames[k.String()] {
			skip[i] = 1
		}
	}

	return &RuntimeSpec{
		Compiled:       compiled,
		KindToTerminal: kindToTerm,
		Skip:           skip,
	}, nil
}
