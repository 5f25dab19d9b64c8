// cmd/concierge/confirm_test.go
package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewscout/internal/models"
	"brewscout/internal/orchestrator"
)

func TestParseConfirmation(t *testing.T) {
	tests := []struct {
		name string
		line string
		want orchestrator.Confirmation
	}{
		{"plain yes", "yes", orchestrator.Confirmation{Affirmative: true}},
		{"casual yes", "sure", orchestrator.Confirmation{Affirmative: true}},
		{"plain no", "no", orchestrator.Confirmation{}},
		{"empty line declines", "", orchestrator.Confirmation{}},
		{"venue name selects", "Pure Project", orchestrator.Confirmation{Affirmative: true, CandidateName: "Pure Project"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseConfirmation(tt.line))
		})
	}
}

func TestAwait_AnswerWithinBudget(t *testing.T) {
	pr, pw := io.Pipe()
	source := newLineSource(pr)
	confirmer := newStdinConfirmer(source.lines, io.Discard)

	go pw.Write([]byte("pure project brewing\n"))

	got, err := confirmer.Await(context.Background(), []models.CandidateVenue{{Name: "Pure Project"}})
	require.NoError(t, err)
	assert.True(t, got.Affirmative)
	assert.Equal(t, "pure project brewing", got.CandidateName)
}

// An expired wait must leave the input readable by the prompt loop: the
// single reader goroutine holds the late answer until the next consumer
// asks, and no second reader ever touches the underlying stream.
func TestAwait_ExpiredWaitDoesNotStealNextPromptLine(t *testing.T) {
	pr, pw := io.Pipe()
	source := newLineSource(pr)
	confirmer := newStdinConfirmer(source.lines, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := confirmer.Await(ctx, []models.CandidateVenue{{Name: "Pure Project"}})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	go func() {
		pw.Write([]byte("hello\n"))
		pw.Close()
	}()

	line, ok := source.Next()
	require.True(t, ok)
	assert.Equal(t, "hello", line)

	_, ok = source.Next()
	assert.False(t, ok)
}

func TestAwait_ClosedInputReportsEOF(t *testing.T) {
	pr, pw := io.Pipe()
	source := newLineSource(pr)
	confirmer := newStdinConfirmer(source.lines, io.Discard)

	pw.Close()

	_, err := confirmer.Await(context.Background(), nil)
	assert.ErrorIs(t, err, io.EOF)
}
