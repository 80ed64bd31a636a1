package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/history"
)

const prompt = "> "

// repl feeds whitespace-separated keys from each input line to a controller
// and prints the display afterwards.
type repl struct {
	ctrl    *calculator.Controller
	history *history.Recorder
	out     io.Writer
	prompt  bool
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		if r.prompt {
			fmt.Fprint(r.out, prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if r.line(ctx, scanner.Text()) {
			return nil
		}
	}
}

// line handles one input line. It reports whether the session should end.
func (r *repl) line(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true
	case "history":
		if len(fields) > 1 && fields[1] == "clear" {
			r.history.Clear(ctx)
			fmt.Fprintln(r.out, "history cleared")
			return false
		}
		r.printHistory()
		return false
	}

	tokens := make([]calculator.Token, 0, len(fields))
	for _, f := range fields {
		t, err := calculator.Lookup(f)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			return false
		}
		tokens = append(tokens, t)
	}

	var out calculator.Outcome
	for _, t := range tokens {
		out = r.ctrl.HandleInput(ctx, t)
	}

	if out.Preview != "" {
		fmt.Fprintf(r.out, "%s  (= %s)\n", out.Display, out.Preview)
		return false
	}
	fmt.Fprintln(r.out, out.Display)
	return false
}

func (r *repl) printHistory() {
	entries := r.history.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "no history")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(r.out, "%s  %s = %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Expression, e.Result)
	}
}
