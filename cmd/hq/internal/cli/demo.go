package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrymomot/headquarters/core/command"
	"github.com/dmitrymomot/headquarters/core/trigger"
	"github.com/dmitrymomot/headquarters/pkg/async"
)

const counterKey = "demo.count"

// registerDemo installs the built-in commands every hq mode serves.
func registerDemo(r *command.Registry) error {
	descriptors := []*command.Descriptor{
		command.Define("echo").
			Executor("echo", func(_ command.ContextObject, words []string) string {
				return strings.Join(words, " ")
			}, command.Param("words", command.Variadic())).
			Describe("prints its arguments").
			Build(),

		command.Define("upper").
			Executor("upper {text?}", func(_ command.ContextObject, text string) string {
				return strings.ToUpper(text)
			}).
			Describe("upper-cases its argument or the piped value").
			Build(),

		command.Define("sum").
			Executor("sum", func(_ command.ContextObject, nums []int) int {
				total := 0
				for _, n := range nums {
					total += n
				}
				return total
			}, command.Param("nums", command.Variadic())).
			Describe("adds integers").
			Build(),

		command.Define("double").
			Executor("double {n?}", func(_ command.ContextObject, n int) int { return n * 2 }).
			Describe("doubles its argument or the piped value").
			Build(),

		command.Define("count").
			Executor("count", func(ctx command.ContextObject) int {
				n := command.RetrieveOr(ctx, counterKey, 0) + 1
				ctx.Store(counterKey, n)
				return n
			}).
			Describe("counts calls made with the same context").
			Build(),

		command.Define("memory").
			Executor("remember {key} {value}", func(ctx command.ContextObject, key, value string) string {
				ctx.Store("demo.memory."+key, value)
				return "ok"
			}).
			Describe("stores a value in the context").
			Executor("recall {key}", func(ctx command.ContextObject, key string) (string, error) {
				return command.Retrieve[string](ctx, "demo.memory."+key)
			}).
			Describe("reads a value stored with remember").
			Build(),

		command.Define("wait").Async().
			Executor("wait {ms}", func(_ command.ContextObject, ms int) *async.Future[any] {
				return async.Run(func() (any, error) {
					if ms < 0 {
						return nil, fmt.Errorf("negative delay %d", ms)
					}
					time.Sleep(time.Duration(ms) * time.Millisecond)
					return fmt.Sprintf("waited %dms", ms), nil
				})
			}).
			Describe("completes after the given number of milliseconds").
			Build(),

		command.Define("help").
			Executor("help", func(command.ContextObject) string {
				return helpText(r)
			}).
			Describe("lists the available commands").
			Build(),
	}

	for _, desc := range descriptors {
		if err := r.AddCommand(desc); err != nil {
			return err
		}
	}

	return r.AddScanner("ping", trigger.Exact(), func(command.ContextObject, *trigger.Match, *command.LightweightParser) (any, error) {
		return "pong", nil
	})
}

// helpText renders one line per root executor.
func helpText(r *command.Registry) string {
	var lines []string
	for _, md := range r.Commands() {
		for _, e := range md.Executors() {
			lines = append(lines, fmt.Sprintf("%-24s %s", e.Trigger().String(), e.Description()))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// commandWords returns the first word of every root trigger, for completion.
func commandWords(r *command.Registry) []string {
	seen := map[string]bool{}
	var words []string
	for _, md := range r.Commands() {
		for _, e := range md.Executors() {
			fields := strings.Fields(e.Trigger().String())
			if len(fields) == 0 {
				continue
			}
			w := strings.ToLower(fields[0])
			if !seen[w] {
				seen[w] = true
				words = append(words, w)
			}
		}
	}
	sort.Strings(words)
	return words
}
