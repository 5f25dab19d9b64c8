// cmd/concierge/confirm.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"brewscout/internal/models"
	"brewscout/internal/orchestrator"
)

// lineSource owns the interactive input. A single goroutine reads lines and
// hands them out on an unbuffered channel, so the prompt loop and a pending
// confirmation wait never touch the underlying reader at the same time. An
// answer typed after a confirmation wait expires sits in the channel and is
// delivered to whichever prompt asks next.
type lineSource struct {
	lines chan string
}

func newLineSource(r io.Reader) *lineSource {
	s := &lineSource{lines: make(chan string)}
	go func() {
		defer close(s.lines)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			s.lines <- strings.TrimSpace(line)
		}
	}()
	return s
}

// Next blocks until a line is available. ok is false once input is exhausted.
func (s *lineSource) Next() (line string, ok bool) {
	line, ok = <-s.lines
	return line, ok
}

// stdinConfirmer answers the orchestrator's confirmation wait from the
// interactive session.
type stdinConfirmer struct {
	lines <-chan string
	out   io.Writer
}

func newStdinConfirmer(lines <-chan string, out io.Writer) *stdinConfirmer {
	return &stdinConfirmer{lines: lines, out: out}
}

func (c *stdinConfirmer) Await(ctx context.Context, candidates []models.CandidateVenue) (orchestrator.Confirmation, error) {
	fmt.Fprintf(c.out, "Here are %d options. Details on one? (yes/no/name)> ", len(candidates))

	select {
	case line, ok := <-c.lines:
		if !ok {
			return orchestrator.Confirmation{}, io.EOF
		}
		return parseConfirmation(line), nil
	case <-ctx.Done():
		fmt.Fprintln(c.out, "\nNo answer in time, moving on.")
		return orchestrator.Confirmation{}, ctx.Err()
	}
}

func parseConfirmation(line string) orchestrator.Confirmation {
	switch strings.ToLower(line) {
	case "y", "yes", "sure", "ok":
		return orchestrator.Confirmation{Affirmative: true}
	case "", "n", "no", "nope":
		return orchestrator.Confirmation{}
	default:
		return orchestrator.Confirmation{Affirmative: true, CandidateName: line}
	}
}
