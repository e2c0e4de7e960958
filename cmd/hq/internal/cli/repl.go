package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/headquarters/core/command"
)

// lineReader is the part of *readline.Instance the console loop needs.
type lineReader interface {
	Readline() (string, error)
}

func (app *App) addReplCommand(rootCmd *cobra.Command) {
	var asJSON bool
	var historyFile string

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive console",
		Long: `Start an interactive console. Every line is dispatched with the same
context, so commands such as remember and count keep their state for the
whole session. Type "help" to list commands and "exit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := app.newRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = r.Dispose() }()

			items := make([]readline.PrefixCompleterInterface, 0)
			for _, w := range commandWords(r) {
				items = append(items, readline.PcItem(w))
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "hq> ",
				HistoryFile:     historyFile,
				AutoComplete:    readline.NewPrefixCompleter(items...),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer rl.Close()

			return console(cmd, r, rl, printer{out: cmd.OutOrStdout(), json: asJSON})
		},
	}

	replCmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON frames")
	replCmd.Flags().StringVar(&historyFile, "history", "", "History file path")

	rootCmd.AddCommand(replCmd)
}

// console reads lines until EOF or exit and prints each result.
// Ctrl-C clears the current line; on an empty line it leaves.
func console(cmd *cobra.Command, r *command.Registry, rl lineReader, p printer) error {
	cc := command.NewContextObject()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		res, err := submit(cmd.Context(), r, line, cc)
		if err != nil {
			return err
		}
		if err := p.print(line, res); err != nil {
			return err
		}
	}
}
