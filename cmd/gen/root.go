package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate an LALR(1) parser from a specification",
	Long: `gen reads a specification combining lexical and syntactic rules and
emits a Go source file implementing an LALR(1) parser against the
runtime collaborator package, including semantic predicates and
%inject stream splicing.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the command line and returns the process exit code: 0
// success; 1 specification errors; 2 I/O or overwrite refusal; 3
// conflict-count mismatch.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if ec, ok := err.(exitCoded); ok {
		if ec.code != 0 {
			fmt.Fprintf(os.Stderr, "%v\n", ec.err)
		}
		return ec.code
	}
	fmt.Fprintf(os.Stderr, "%v\n", err)
	return 1
}

// exitCoded pins an error to one of the tool's exit codes, so Execute
// doesn't have to guess a diagnostic's category back out of its text.
type exitCoded struct {
	code int
	err  error
}

func (e exitCoded) Error() string { return e.err.Error() }

func fail(code int, err error) error {
	if err == nil {
		return nil
	}
	return exitCoded{code: code, err: err}
}
