package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/storage"
)

func newTestREPL(opts ...calculator.Option) (*repl, *bytes.Buffer) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	recorder := history.NewRecorder(storage.NewMemory(), history.WithClock(func() time.Time { return now }))

	out := &bytes.Buffer{}
	return &repl{
		ctrl:    calculator.NewController(nil, append([]calculator.Option{calculator.WithHistory(recorder)}, opts...)...),
		history: recorder,
		out:     out,
	}, out
}

func TestREPLPrintsDisplayPerLine(t *testing.T) {
	r, out := newTestREPL()

	err := r.run(context.Background(), strings.NewReader("5 + 3 =\n+ 2\n=\n"))
	require.NoError(t, err)

	assert.Equal(t, "8\n8+2\n10\n", out.String())
}

func TestREPLRejectsUnknownKeysWithoutApplyingLine(t *testing.T) {
	r, out := newTestREPL()

	require.NoError(t, r.run(context.Background(), strings.NewReader("5 sqrt\n7\n")))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "unsupported input")
	assert.Equal(t, "7", lines[1])
}

func TestREPLHistoryCommands(t *testing.T) {
	r, out := newTestREPL()

	require.NoError(t, r.run(context.Background(), strings.NewReader("history\n2 × 3 =\nhistory\nhistory clear\nhistory\n")))

	assert.Equal(t,
		"no history\n"+
			"6\n"+
			"2024-03-01 09:30  2×3 = 6\n"+
			"history cleared\n"+
			"no history\n",
		out.String())
}

func TestREPLQuitStopsReading(t *testing.T) {
	r, out := newTestREPL()
	r.prompt = true

	require.NoError(t, r.run(context.Background(), strings.NewReader("1\nquit\n2\n")))

	assert.Equal(t, "> 1\n> ", out.String())
}

func TestREPLShowsLivePreview(t *testing.T) {
	r, out := newTestREPL(calculator.WithLivePreview(true))

	require.NoError(t, r.run(context.Background(), strings.NewReader("4 × 5\n")))

	assert.Equal(t, "4×5  (= 20)\n", out.String())
}
