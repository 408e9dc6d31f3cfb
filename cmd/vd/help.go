package main

import (
	"bytes"
	"io"
	"regexp"

	"github.com/alfredjeanlab/prestataires/internal/ui"
	"github.com/spf13/cobra"
)

// helpRule rewrites one element of cobra's plain help text. repl builds a
// regexp expansion template; render functions wrap "${n}" references.
type helpRule struct {
	re   *regexp.Regexp
	repl func() string
}

var helpRules = []helpRule{
	// Section headers such as "Browse:" or "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), func() string {
		return ui.RenderAccent("${1}")
	}},
	// Command names in the command lists.
	{regexp.MustCompile(`(?m)^(  )(\S+)(  )`), func() string {
		return "${1}" + ui.RenderCommand("${2}") + "${3}"
	}},
	// Flag value types, e.g. "--max-price float".
	{regexp.MustCompile(`(--?\S+\s+)(string|int|float|duration|stringSlice|stringArray)\b`), func() string {
		return "${1}" + ui.RenderMuted("${2}")
	}},
	// Defaults, e.g. (default "localhost:9090") or (default 12).
	{regexp.MustCompile(`(\(default [^)]*\))`), func() string {
		return ui.RenderMuted("${1}")
	}},
}

// colorizedHelpFunc renders cobra's usage text and colors it when the
// terminal supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		// Usage writes to stderr unless an output writer is set.
		out := cmd.OutOrStdout()
		if noColor || !ui.ShouldUseColor() {
			cmd.SetOut(out)
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		_, _ = io.WriteString(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, r := range helpRules {
		s = r.re.ReplaceAllString(s, r.repl())
	}
	return s
}
