package main

import (
	"strings"
	"testing"

	"github.com/alfredjeanlab/prestataires/internal/ui"
	"github.com/spf13/cobra"
)

func TestColorizeHelpOutput(t *testing.T) {
	in := "Browse:\n  list        List vendors\n\nFlags:\n      --max-price float   maximum price\n      --server string   gRPC server address (default \"localhost:9090\")\n"
	out := colorizeHelpOutput(in)

	for _, want := range []string{
		ui.RenderAccent("Browse:"),
		ui.RenderCommand("list"),
		ui.RenderMuted("float"),
		ui.RenderMuted(`(default "localhost:9090")`),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestColorizedHelpFunc_WritesToStdout(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var out, errOut strings.Builder
	cmd := &cobra.Command{Use: "demo", Short: "demo command", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().Int("pages", 1, "pages to load")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	colorizedHelpFunc()(cmd, nil)

	if !strings.Contains(out.String(), "--pages int") {
		t.Errorf("help output missing flag:\n%s", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("help wrote to stderr: %q", errOut.String())
	}
}
