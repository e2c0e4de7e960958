package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/headquarters/core/command"
)

func (app *App) addRunCommand(rootCmd *cobra.Command) {
	var asJSON, keepGoing bool

	runCmd := &cobra.Command{
		Use:   "run [input...]",
		Short: "Run inputs and print their results",
		Long: `Run dispatches every argument as one input, in order, sharing a single
context. Without arguments inputs are read from stdin, one per line; blank
lines are skipped.`,
		Example: `  hq run "sum 1 2 3 | double"
  printf 'remember color blue\nrecall color\n' | hq run --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := app.newRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = r.Dispose() }()

			var in io.Reader = cmd.InOrStdin()
			if len(args) > 0 {
				in = strings.NewReader(strings.Join(args, "\n"))
			}

			p := printer{out: cmd.OutOrStdout(), json: asJSON}
			stats, err := runLines(cmd, r, in, p, keepGoing)
			if err != nil {
				return err
			}
			return stats.err()
		},
	}

	runCmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON frames")
	runCmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "Continue after a failed input")

	rootCmd.AddCommand(runCmd)
}

type runStats struct {
	failed  int
	unknown []string
}

// err reports the failed inputs; unhandled ones wrap command.ErrUnknownCommandName.
func (s runStats) err() error {
	switch {
	case len(s.unknown) > 0:
		return fmt.Errorf("%d input(s) failed: %w: %s",
			s.failed, command.ErrUnknownCommandName, strings.Join(s.unknown, ", "))
	case s.failed > 0:
		return fmt.Errorf("%d input(s) failed", s.failed)
	}
	return nil
}

// runLines dispatches each non-blank line and counts the ones that did not succeed.
func runLines(cmd *cobra.Command, r *command.Registry, in io.Reader, p printer, keepGoing bool) (runStats, error) {
	cc := command.NewContextObject()
	var stats runStats

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		res, err := submit(cmd.Context(), r, line, cc)
		if err != nil {
			return stats, err
		}
		if err := p.print(line, res); err != nil {
			return stats, err
		}

		if res.kind == command.Failure || res.kind == command.Unhandled {
			stats.failed++
			if res.kind == command.Unhandled {
				stats.unknown = append(stats.unknown, line)
			}
			if !keepGoing {
				break
			}
		}
	}
	return stats, sc.Err()
}
