// Package diagnostics collects and renders the errors, warnings, and
// conflict reports produced while generating a parser, and maps their
// combined severity onto the tool's exit code contract.
package diagnostics

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

type Severity int

const (
	SeverityConflict Severity = iota
	SeverityWarning
	SeveritySpec
	SeverityFatal
)

// SpecError is one diagnostic attached to a location in a specification
// file. Cause carries the underlying error (often a sentinel from the
// package that detected it); Detail is optional free-form elaboration
// rendered on its own indented line.
type SpecError struct {
	Cause      error
	Detail     string
	FilePath   string
	SourceName string
	Row        int
	Col        int
	Severity   Severity
}

func (e *SpecError) Error() string {
	var b strings.Builder
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", e.SourceName)
	}
	if e.Row != 0 {
		if e.Col != 0 {
			fmt.Fprintf(&b, "%v:%v: ", e.Row, e.Col)
		} else {
			fmt.Fprintf(&b, "%v: ", e.Row)
		}
	}
	fmt.Fprintf(&b, "%v", e.Cause)
	if e.Detail != "" {
		fmt.Fprintf(&b, "\n    %v", e.Detail)
	}

	line := readLine(e.FilePath, e.Row)
	if line != "" {
		fmt.Fprintf(&b, "\n    %v", line)
	}

	return b.String()
}

func readLine(filePath string, row int) string {
	if filePath == "" || row <= 0 {
		return ""
	}

	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	i := 1
	s := bufio.NewScanner(f)
	for s.Scan() {
		if i == row {
			return s.Text()
		}
		i++
	}

	return ""
}

// SpecErrors is a batch of SpecError, satisfying the error interface so a
// whole pass's worth of diagnostics can be returned as one value.
type SpecErrors []*SpecError

func (es SpecErrors) Error() string {
	var b strings.Builder
	for i, e := range es {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

func (es SpecErrors) HasSeverity(min Severity) bool {
	for _, e := range es {
		if e.Severity >= min {
			return true
		}
	}
	return false
}

// ExitCode maps a batch of diagnostics plus a conflict count onto the
// tool's exit codes: 0 clean, 1 a fatal or spec-level error occurred, 2 an
// I/O-level failure prevented generation from running at all, 3 the
// generated table carries conflicts whose count did not match --expect.
func ExitCode(errs SpecErrors, ioErr error, conflictCountMismatch bool) int {
	switch {
	case ioErr != nil:
		return 2
	case errs.HasSeverity(SeveritySpec):
		return 1
	case conflictCountMismatch:
		return 3
	default:
		return 0
	}
}

// Render writes every diagnostic to stderr, color-coded by severity:
// warnings in yellow, spec/fatal errors in red, conflict reports in the
// default foreground. Color choice depends only on an entry's own
// severity, never on the overall exit code.
func Render(errs SpecErrors) {
	for _, e := range errs {
		switch e.Severity {
		case SeverityWarning:
			pterm.Warning.Println(e.Error())
		case SeveritySpec, SeverityFatal:
			pterm.Error.Println(e.Error())
		default:
			fmt.Fprintln(os.Stderr, e.Error())
		}
	}
}
