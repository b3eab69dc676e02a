package covenant

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/holiman/uint256"
)

// Runner is an interactive loop over a Runtime: one call per input line.
// It keeps frontends (CLI, tests) independent of the runtime.
//
// A line is either a method call, `<method> [json-args]`, or a command:
// `:account <id>`, `:as <predecessor>`, `:deposit <yocto>`, `:state`, `:abi`,
// `exit` or `quit`.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// Account owns the state the calls run against.
	Account string
}

// ContentRenderer transforms Markdown before it is written (e.g. to ANSI).
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner for account. Input and Output must be set.
func NewRunner(account string) *Runner {
	return &Runner{Account: account}
}

// Run reads lines until EOF or exit.
func (r *Runner) Run(ctx context.Context, rt *Runtime) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)
	writer := r.Output

	if !r.Headless {
		fmt.Fprintf(writer, "--- covenant: %s as %s ---\n", rt.Contract().Name(), r.Account)
	}

	predecessor := ""
	deposit := new(uint256.Int)

	for {
		if !r.Headless {
			fmt.Fprint(writer, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("input error: %w", err)
		}
		line := strings.TrimSpace(text)

		switch {
		case line == "":
		case line == "exit" || line == "quit":
			if !r.Headless {
				fmt.Fprintln(writer, "Bye!")
			}
			return nil
		case strings.HasPrefix(line, ":"):
			if cmdErr := r.command(ctx, rt, line, &predecessor, deposit); cmdErr != nil {
				fmt.Fprintf(writer, "error: %v\n", cmdErr)
			}
		default:
			method, args, _ := strings.Cut(line, " ")
			opts := []CallOption{WithDeposit(deposit)}
			if predecessor != "" {
				opts = append(opts, WithPredecessor(predecessor))
			}
			resp := rt.CallJSON(ctx, r.Account, method, []byte(strings.TrimSpace(args)), opts...)
			fmt.Fprintln(writer, resp.Display())
		}

		if err == io.EOF {
			return nil
		}
	}
}

func (r *Runner) command(ctx context.Context, rt *Runtime, line string, predecessor *string, deposit *uint256.Int) error {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "account":
		if arg == "" {
			return fmt.Errorf("usage: :account <id>")
		}
		r.Account = arg
	case "as":
		*predecessor = arg
	case "deposit":
		v, err := uint256.FromDecimal(arg)
		if err != nil {
			return fmt.Errorf("deposit: %w", err)
		}
		deposit.Set(v)
	case "state":
		v, err := rt.StateValue(ctx, r.Account)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.Output, string(raw))
	case "abi":
		md := rt.ABI().Markdown()
		if r.Renderer != nil {
			if rendered, err := r.Renderer(md); err == nil {
				md = rendered
			}
		}
		fmt.Fprintln(r.Output, strings.TrimSpace(md))
	default:
		return fmt.Errorf("unknown command :%s", name)
	}
	return nil
}
