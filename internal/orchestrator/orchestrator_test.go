package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewscout/internal/common/config"
	stderrors "brewscout/internal/common/errors"
	"brewscout/internal/common/logger"
	"brewscout/internal/models"
	"brewscout/internal/providers/discovery"
	"brewscout/internal/providers/enrichment"
	"brewscout/internal/providers/profile"
)

type fakeProfiles struct {
	profile *models.ClientProfile
	err     error
}

func (f *fakeProfiles) FetchProfile(_ context.Context, _ profile.Lookup) (*models.ClientProfile, error) {
	return f.profile, f.err
}

type fakeVenues struct {
	candidates     []models.CandidateVenue
	directoryCount int
	err            error
	calls          int
}

func (f *fakeVenues) FindNew(_ context.Context, _, _, _ string, _ []string) ([]models.CandidateVenue, int, error) {
	f.calls++
	return f.candidates, f.directoryCount, f.err
}

type fakeEnricher struct {
	result *enrichment.Result
	err    error
	calls  int
	got    models.CandidateVenue
}

func (f *fakeEnricher) Summarize(_ context.Context, venue models.CandidateVenue, _ time.Time) (*enrichment.Result, error) {
	f.calls++
	f.got = venue
	return f.result, f.err
}

type fakeConfirmer struct {
	decision Confirmation
	err      error
}

func (f *fakeConfirmer) Await(_ context.Context, _ []models.CandidateVenue) (Confirmation, error) {
	return f.decision, f.err
}

func sanDiegoProfile() *models.ClientProfile {
	return &models.ClientProfile{
		ClientID:       "CLT-001",
		ClientName:     "Hopline Taproom",
		City:           "San Diego",
		State:          "CA",
		TopCategories:  []string{"micro"},
		VisitedVendors: []string{"Stone Brewing"},
	}
}

func testConfig() config.OrchestratorConfig {
	return config.OrchestratorConfig{
		WaitBudget:     1,
		MaxIterations:  10,
		CandidateLimit: 5,
	}
}

func newOrchestrator(cfg config.OrchestratorConfig, profiles ProfileSource, venues VenueFinder, enricher Enricher, confirmer Confirmer) *Orchestrator {
	return New(cfg, profiles, venues, enricher, confirmer, nil, logger.NewNoOpLogger())
}

func candidate(name string) models.CandidateVenue {
	return models.CandidateVenue{ID: "b-" + name, Name: name, Category: "micro", City: "San Diego"}
}

func TestRunPlan_VisitedVenuesFilteredFromPresentation(t *testing.T) {
	// Real discovery provider against a fixture directory, so filtering is
	// exercised end to end.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "california", r.URL.Query().Get("by_state"))
		w.Write([]byte(`[
			{"id": "b-1", "name": "Stone Brewing Company", "brewery_type": "micro", "city": "San Diego"},
			{"id": "b-2", "name": "Modern Times Beer", "brewery_type": "micro", "city": "San Diego"}
		]`))
	}))
	defer server.Close()

	venues := discovery.NewProvider(discovery.Config{
		BaseURL:  server.URL,
		PageSize: 50,
		Timeout:  2 * time.Second,
	}, logger.NewNoOpLogger())

	enricher := &fakeEnricher{}
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		venues,
		enricher,
		&fakeConfirmer{decision: Confirmation{Affirmative: false}},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anywhere new for a beer?", nil)

	assert.Equal(t, StateDone, result.FinalState)
	assert.Contains(t, result.Reply, "Modern Times Beer")
	assert.NotContains(t, result.Reply, "Stone Brewing Company")
	assert.Equal(t, 0, enricher.calls)
}

func TestRunPlan_ConfirmationExpiryEndsRunWithoutEnrichment(t *testing.T) {
	enricher := &fakeEnricher{}
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		&fakeVenues{candidates: []models.CandidateVenue{candidate("Modern Times Beer")}, directoryCount: 2},
		enricher,
		&fakeConfirmer{err: context.DeadlineExceeded},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", nil)

	assert.Equal(t, RunSkipped, result.Status)
	assert.Equal(t, StateDone, result.FinalState)
	assert.Equal(t, 0, enricher.calls)
	assert.Equal(t, CacheHitRateNotApplicable, result.Metrics.CacheHitRate)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, StepAwaitConfirmation, last.Step)
	assert.Equal(t, models.StepSkipped, last.Outcome)
}

func TestRunPlan_NegativeAnswerSkipsEnrichment(t *testing.T) {
	enricher := &fakeEnricher{}
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		&fakeVenues{candidates: []models.CandidateVenue{candidate("Modern Times Beer")}, directoryCount: 2},
		enricher,
		&fakeConfirmer{decision: Confirmation{Affirmative: false}},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", nil)

	assert.Equal(t, RunSkipped, result.Status)
	assert.Equal(t, 0, enricher.calls)
}

func TestRunPlan_ConfirmedRunEnrichesAndCompletes(t *testing.T) {
	enricher := &fakeEnricher{result: &enrichment.Result{
		Summary:       "Modern Times pours hazy IPAs in a mural-covered taproom.",
		Outcome:       models.CacheMiss,
		ExternalCalls: 1,
	}}
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		&fakeVenues{candidates: []models.CandidateVenue{
			candidate("Modern Times Beer"),
			candidate("Pure Project"),
		}, directoryCount: 3},
		enricher,
		&fakeConfirmer{decision: Confirmation{Affirmative: true}},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", nil)

	assert.Equal(t, RunCompleted, result.Status)
	assert.Equal(t, StateDone, result.FinalState)
	assert.Contains(t, result.Reply, "Modern Times")
	assert.Contains(t, result.Reply, "hazy IPAs")
	assert.Equal(t, 1, enricher.calls)
	assert.Equal(t, "Modern Times Beer", enricher.got.Name)

	// One entry per transition.
	steps := make([]string, 0, len(result.Trace))
	for _, entry := range result.Trace {
		steps = append(steps, entry.Step)
	}
	assert.Equal(t, []string{
		StepFetchProfile, StepDiscover, StepPresent, StepAwaitConfirmation, StepEnrich,
	}, steps)

	assert.Equal(t, "0.00", result.Metrics.CacheHitRate)
}

func TestRunPlan_NamedCandidateSelectedByNormalizedName(t *testing.T) {
	enricher := &fakeEnricher{result: &enrichment.Result{Summary: "details", Outcome: models.CacheHit}}
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		&fakeVenues{candidates: []models.CandidateVenue{
			candidate("Modern Times Beer"),
			candidate("Pure Project"),
		}, directoryCount: 2},
		enricher,
		&fakeConfirmer{decision: Confirmation{CandidateName: "pure project brewing"}},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", nil)

	assert.Equal(t, RunCompleted, result.Status)
	assert.Equal(t, "Pure Project", enricher.got.Name)
	assert.Equal(t, "1.00", result.Metrics.CacheHitRate)
}

func TestRunPlan_UnknownNamedCandidateDegrades(t *testing.T) {
	enricher := &fakeEnricher{}
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		&fakeVenues{candidates: []models.CandidateVenue{candidate("Modern Times Beer")}, directoryCount: 1},
		enricher,
		&fakeConfirmer{decision: Confirmation{CandidateName: "Tree House"}},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", nil)

	assert.Equal(t, RunDegraded, result.Status)
	assert.Equal(t, 0, enricher.calls)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, StepEnrich, last.Step)
	assert.Equal(t, models.StepFailure, last.Outcome)
	assert.Contains(t, last.Error, string(stderrors.ErrCodeCandidateNotFound))
}

func TestRunPlan_ProfileNotFoundDegrades(t *testing.T) {
	o := newOrchestrator(testConfig(),
		&fakeProfiles{err: stderrors.NewProfileNotFoundError("CLT-404")},
		&fakeVenues{},
		&fakeEnricher{},
		&fakeConfirmer{},
	)

	result := o.RunPlan(context.Background(), "CLT-404", "anything new?", nil)

	assert.Equal(t, RunDegraded, result.Status)
	assert.Equal(t, StateDone, result.FinalState)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, models.StepFailure, result.Trace[0].Outcome)
	assert.NotEmpty(t, result.Reply)
}

func TestRunPlan_EnrichmentFailureStillProducesReply(t *testing.T) {
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		&fakeVenues{candidates: []models.CandidateVenue{candidate("Modern Times Beer")}, directoryCount: 1},
		&fakeEnricher{err: stderrors.NewExternalTimeoutError("genai")},
		&fakeConfirmer{decision: Confirmation{Affirmative: true}},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", nil)

	assert.Equal(t, RunDegraded, result.Status)
	assert.Contains(t, result.Reply, "Modern Times Beer")

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, StepEnrich, last.Step)
	assert.Equal(t, models.StepFailure, last.Outcome)
}

func TestRunPlan_IterationCeilingForcesDone(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 1

	venues := &fakeVenues{candidates: []models.CandidateVenue{candidate("Modern Times Beer")}, directoryCount: 1}
	o := newOrchestrator(cfg,
		&fakeProfiles{profile: sanDiegoProfile()},
		venues,
		&fakeEnricher{},
		&fakeConfirmer{decision: Confirmation{Affirmative: true}},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", nil)

	assert.Equal(t, RunIterationLimit, result.Status)
	assert.Equal(t, StateDone, result.FinalState)
	assert.Equal(t, 0, venues.calls)
	assert.NotEmpty(t, result.Reply)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, StepDiscover, last.Step)
	assert.Contains(t, last.Error, string(stderrors.ErrCodeIterationLimitExceeded))
}

func TestRunPlan_NoNewResultsAnnotatedInTrace(t *testing.T) {
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		&fakeVenues{candidates: nil, directoryCount: 4},
		&fakeEnricher{},
		&fakeConfirmer{},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", nil)

	assert.Equal(t, RunCompleted, result.Status)
	assert.Contains(t, result.Reply, "Nothing new")

	discover := result.Trace[1]
	assert.Equal(t, StepDiscover, discover.Step)
	assert.Equal(t, DiscoveryNoNewResults, discover.Input["status"])
}

func TestRunPlan_NoResultsAnnotatedInTrace(t *testing.T) {
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		&fakeVenues{candidates: nil, directoryCount: 0},
		&fakeEnricher{},
		&fakeConfirmer{},
	)

	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", nil)

	assert.Equal(t, RunCompleted, result.Status)
	discover := result.Trace[1]
	assert.Equal(t, DiscoveryNoResults, discover.Input["status"])
}

func TestRunPlan_AppendsConversationTurns(t *testing.T) {
	o := newOrchestrator(testConfig(),
		&fakeProfiles{profile: sanDiegoProfile()},
		&fakeVenues{candidates: []models.CandidateVenue{candidate("Modern Times Beer")}, directoryCount: 1},
		&fakeEnricher{},
		&fakeConfirmer{decision: Confirmation{Affirmative: false}},
	)

	prior := []models.Turn{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}
	result := o.RunPlan(context.Background(), "CLT-001", "anything new?", prior)

	require.Len(t, result.Turns, 4)
	assert.Equal(t, "anything new?", result.Turns[2].Content)
	assert.Equal(t, "assistant", result.Turns[3].Role)
	assert.Equal(t, result.Reply, result.Turns[3].Content)
}
