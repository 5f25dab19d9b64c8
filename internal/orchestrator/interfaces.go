package orchestrator

import (
	"context"
	"time"

	"brewscout/internal/models"
	"brewscout/internal/providers/enrichment"
	"brewscout/internal/providers/profile"
)

// The orchestrator depends on these fixed collaborator interfaces, never on
// concrete providers. Each blocking call takes a context and must surface a
// distinguishable timeout instead of hanging the run.

type ProfileSource interface {
	FetchProfile(ctx context.Context, lookup profile.Lookup) (*models.ClientProfile, error)
}

type VenueFinder interface {
	FindNew(ctx context.Context, city, state, category string, visitedHistory []string) ([]models.CandidateVenue, int, error)
}

type Enricher interface {
	Summarize(ctx context.Context, venue models.CandidateVenue, now time.Time) (*enrichment.Result, error)
}

// Confirmation is the user's answer to a presented candidate list. An
// affirmative answer without a name selects the first candidate; a name
// selects the matching candidate.
type Confirmation struct {
	Affirmative   bool
	CandidateName string
}

// Confirmer solicits a yes/no-or-name decision. Await blocks until the
// user answers or ctx is done; the orchestrator bounds ctx with the wait
// budget and treats expiry as a declined confirmation.
type Confirmer interface {
	Await(ctx context.Context, candidates []models.CandidateVenue) (Confirmation, error)
}
