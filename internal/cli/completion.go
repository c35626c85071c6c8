package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for expdes",
	Long: `Set up shell tab-completions for expdes commands, flags, dataset names
and report IDs.

Supported shells: bash, zsh, fish, powershell

Quick install (adds completions to your shell profile):

  expdes completion bash --install
  expdes completion zsh --install
  expdes completion fish --install

Or print the completion script to stdout (for manual setup):

  expdes completion bash
  expdes completion zsh
  expdes completion fish
  expdes completion powershell`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

// shellCompletion describes how one shell loads and installs completions.
type shellCompletion struct {
	loadHint string
	gen      func(w io.Writer) error
	// target returns the install path under home; nil means --install is
	// unsupported.
	target func(home string) string
	after  func(w io.Writer, target string)
}

var shells = map[string]shellCompletion{
	"bash": {
		loadHint: `eval "$(expdes completion bash)"`,
		gen:      func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "bash-completion", "completions", "expdes")
		},
		after: func(w io.Writer, target string) {
			fmt.Fprintf(w, "Restart your shell or run: source %s\n", target)
		},
	},
	"zsh": {
		loadHint: `eval "$(expdes completion zsh)"`,
		gen:      rootCmd.GenZshCompletion,
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_expdes")
		},
		after: func(w io.Writer, target string) {
			fmt.Fprintln(w, "Ensure this directory is in your fpath. Add to ~/.zshrc if needed:")
			fmt.Fprintf(w, "  fpath=(%s $fpath)\n", filepath.Dir(target))
			fmt.Fprintln(w, "  autoload -Uz compinit && compinit")
		},
	},
	"fish": {
		loadHint: "expdes completion fish | source",
		gen:      func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		target: func(home string) string {
			return filepath.Join(home, ".config", "fish", "completions", "expdes.fish")
		},
		after: func(w io.Writer, _ string) {
			fmt.Fprintln(w, "Completions will be available in new fish sessions automatically.")
		},
	},
	"powershell": {
		loadHint: "expdes completion powershell | Out-String | Invoke-Expression",
		gen:      rootCmd.GenPowerShellCompletionWithDesc,
	},
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your shell profile")

	// Replace Cobra's default completion command with ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	sh, ok := shells[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
	}

	if completionInstall {
		return installCompletion(cmd, args[0], sh)
	}

	// Hints go to stderr so they don't interfere with piping the script.
	hints := cmd.ErrOrStderr()
	fmt.Fprintln(hints, "# To load completions in your current session:")
	fmt.Fprintf(hints, "#   %s\n#\n", sh.loadHint)
	if sh.target != nil {
		fmt.Fprintf(hints, "# To install permanently:\n#   expdes completion %s --install\n#\n", args[0])
	}
	return sh.gen(cmd.OutOrStdout())
}

func installCompletion(cmd *cobra.Command, shell string, sh shellCompletion) error {
	if sh.target == nil {
		return fmt.Errorf("automatic install is not supported for %s; run 'expdes completion %s' and add the output to your profile", shell, shell)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}
	target := sh.target(home)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}
	writeErr := sh.gen(f)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s completions installed to %s\n", shell, target)
	sh.after(w, target)
	return nil
}
