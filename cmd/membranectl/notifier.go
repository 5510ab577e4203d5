package main

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// colorNotifier prints one line per notification. Ids are not shown; a
// terminal cannot replace an earlier line in place.
type colorNotifier struct {
	mu      sync.Mutex
	out     io.Writer
	loading *color.Color
	success *color.Color
	failure *color.Color
}

func newColorNotifier(out io.Writer) *colorNotifier {
	return &colorNotifier{
		out:     out,
		loading: color.New(color.FgCyan),
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
}

func (n *colorNotifier) Loading(_, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loading.Fprintf(n.out, "… %s\n", message)
}

func (n *colorNotifier) Success(_, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success.Fprintf(n.out, "✔ %s\n", message)
}

func (n *colorNotifier) Error(_, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failure.Fprintf(n.out, "✖ %s\n", message)
}

func (n *colorNotifier) Dismiss(string) {}
