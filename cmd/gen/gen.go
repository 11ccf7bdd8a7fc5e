package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nihei9/lrgen/diagnostics"
	"github.com/nihei9/lrgen/emit"
	"github.com/nihei9/lrgen/grammar"
	"github.com/nihei9/lrgen/lexspec"
	"github.com/nihei9/lrgen/specfile"
)

var genFlags = struct {
	force  *bool
	expect *int
}{}

func init() {
	rootCmd.Use = "gen [--force] [--expect N] <specification-path>"
	rootCmd.Example = `  gen -f -e 0 calc.spec`
	rootCmd.Args = cobra.ExactArgs(1)
	rootCmd.RunE = runGen
	genFlags.force = rootCmd.Flags().BoolP("force", "f", false, "overwrite an existing output file")
	genFlags.expect = rootCmd.Flags().IntP("expect", "e", -1, "exact total number of tolerated conflicts")
}

func runGen(cmd *cobra.Command, args []string) error {
	specPath := args[0]

	src, err := os.ReadFile(specPath)
	if err != nil {
		return fail(2, fmt.Errorf("cannot read specification: %w", err))
	}

	outPath := outputPath(specPath)
	if !*genFlags.force {
		if _, err := os.Stat(outPath); err == nil {
			return fail(2, fmt.Errorf("%v already exists; use --force to overwrite", outPath))
		}
	}

	readFile := func(path string) ([]byte, error) {
		return os.ReadFile(path)
	}

	in, err := specfile.ParseFile(src, specPath, readFile)
	if err != nil {
		diagnostics.Render(diagnostics.SpecErrors{specErrorFrom(specPath, err)})
		return fail(1, err)
	}

	gram, buildErrs, err := grammar.Build(in)
	if err != nil {
		return fail(1, err)
	}
	if len(buildErrs) > 0 {
		var errs diagnostics.SpecErrors
		for _, be := range buildErrs {
			errs = append(errs, &diagnostics.SpecError{
				Cause:      fmt.Errorf("%v", be.Msg),
				FilePath:   specPath,
				SourceName: specPath,
				Row:        be.Pos.Row,
				Col:        be.Pos.Col,
				Severity:   diagnostics.SeveritySpec,
			})
		}
		diagnostics.Render(errs)
		return fail(1, errs)
	}

	if len(gram.Warnings) > 0 {
		var warnings diagnostics.SpecErrors
		for _, w := range gram.Warnings {
			warnings = append(warnings, &diagnostics.SpecError{
				Cause:      fmt.Errorf("%v", w),
				SourceName: specPath,
				Severity:   diagnostics.SeverityWarning,
			})
		}
		diagnostics.Render(warnings)
	}

	if err := gram.BuildTable(); err != nil {
		return fail(1, err)
	}

	if msg := gram.CheckExpectedConflicts(*genFlags.expect); msg != "" {
		diagnostics.Render(diagnostics.SpecErrors{{
			Cause:      fmt.Errorf("%v", msg),
			SourceName: specPath,
			Severity:   diagnostics.SeverityFatal,
		}})
		return fail(3, fmt.Errorf("%v", msg))
	}
	sr, rr := gram.Conflicts()
	if sr+rr > 0 {
		fmt.Fprintf(os.Stderr, "%v conflicts (%v shift/reduce, %v reduce/reduce)\n", sr+rr, sr, rr)
	}

	table, err := gram.Compile()
	if err != nil {
		return fail(1, err)
	}

	lex, err := lexspec.Build(gram.Name, gram.LexEntries(), table.TerminalIndex)
	if err != nil {
		return fail(1, err)
	}

	out, err := emit.Generate(emit.Config{
		Package:  packageName(outPath),
		Preamble: in.Preamble,
		Grammar:  gram,
		Table:    table,
		Lex:      lex,
	})
	if err != nil {
		return fail(1, err)
	}

	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return fail(2, fmt.Errorf("cannot write output: %w", err))
	}

	return nil
}

// outputPath derives the generated file's path from the specification
// path by replacing its extension, per spec.md §6.
func outputPath(specPath string) string {
	ext := filepath.Ext(specPath)
	return strings.TrimSuffix(specPath, ext) + ".go"
}

func packageName(outPath string) string {
	dir := filepath.Dir(outPath)
	name := filepath.Base(dir)
	if name == "." || name == "" || name == string(filepath.Separator) {
		return "main"
	}
	return sanitizePackageName(name)
}

func sanitizePackageName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "main"
	}
	return b.String()
}

func specErrorFrom(specPath string, err error) *diagnostics.SpecError {
	if se, ok := err.(*specfile.SyntaxError); ok {
		return &diagnostics.SpecError{
			Cause:      fmt.Errorf("syntax error"),
			Detail:     se.Msg,
			FilePath:   specPath,
			SourceName: specPath,
			Row:        se.Row,
			Col:        se.Col,
			Severity:   diagnostics.SeveritySpec,
		}
	}
	return &diagnostics.SpecError{
		Cause:      err,
		FilePath:   specPath,
		SourceName: specPath,
		Severity:   diagnostics.SeveritySpec,
	}
}
