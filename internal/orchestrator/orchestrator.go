// Package orchestrator drives one recommendation plan per caller session
// as an explicit state machine. Every transition appends exactly one trace
// entry, and the final reply is always produced even when a step fails.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"brewscout/internal/common/config"
	stderrors "brewscout/internal/common/errors"
	"brewscout/internal/common/logger"
	"brewscout/internal/common/metrics"
	"brewscout/internal/common/observability"
	"brewscout/internal/models"
	"brewscout/internal/providers/discovery"
	"brewscout/internal/providers/profile"
)

type Orchestrator struct {
	config    config.OrchestratorConfig
	profiles  ProfileSource
	venues    VenueFinder
	enricher  Enricher
	confirmer Confirmer
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

func New(
	cfg config.OrchestratorConfig,
	profiles ProfileSource,
	venues VenueFinder,
	enricher Enricher,
	confirmer Confirmer,
	obs *observability.Observability,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:    cfg,
		profiles:  profiles,
		venues:    venues,
		enricher:  enricher,
		confirmer: confirmer,
		obs:       obs,
		logger: log.With(map[string]interface{}{
			"component": "orchestrator",
		}),
		now: time.Now,
	}
}

// RunResult is everything a run produces: the reply, the updated
// conversation, the full trace and the metrics derived from it.
type RunResult struct {
	RunID      string                     `json:"runId"`
	Reply      string                     `json:"reply"`
	Status     string                     `json:"status"`
	FinalState State                      `json:"finalState"`
	Turns      []models.Turn              `json:"turns"`
	Trace      []models.ExecutionLogEntry `json:"trace"`
	Metrics    Metrics                    `json:"metrics"`
}

// run carries the mutable state of one plan execution.
type run struct {
	o          *Orchestrator
	ctx        context.Context
	log        logger.Logger
	callerID   string
	state      State
	trace      []models.ExecutionLogEntry
	iterations int
}

// RunPlan executes one full plan for the caller. The incoming message is
// appended to the prior turns; only the most recent user message drives the
// plan. RunPlan never returns an error: failures degrade the reply and are
// visible in the trace and status instead.
func (o *Orchestrator) RunPlan(ctx context.Context, callerID, incomingMessage string, priorTurns []models.Turn) *RunResult {
	runStart := o.now()
	runID := uuid.NewString()
	log := o.logger.With(map[string]interface{}{
		"runId":    runID,
		"callerId": callerID,
	})

	turns := append([]models.Turn(nil), priorTurns...)
	if incomingMessage != "" {
		turns = append(turns, models.Turn{Role: "user", Content: incomingMessage, Timestamp: runStart})
	}

	r := &run{o: o, ctx: ctx, log: log, callerID: callerID, state: StateStart}
	reply, status := r.execute()

	result := &RunResult{
		RunID:      runID,
		Reply:      reply,
		Status:     status,
		FinalState: r.state,
		Turns:      append(turns, models.Turn{Role: "assistant", Content: reply, Timestamp: o.now()}),
		Trace:      r.trace,
		Metrics:    ComputeMetrics(r.trace),
	}

	metrics.PlanRunsCompleted.WithLabelValues(status).Inc()
	if o.obs != nil {
		o.obs.RecordRun(ctx, status)
		o.obs.RecordRunDuration(ctx, o.now().Sub(runStart), status)
	}

	log.Info("plan run finished", map[string]interface{}{
		"status":       status,
		"finalState":   string(r.state),
		"steps":        len(r.trace),
		"cacheHitRate": result.Metrics.CacheHitRate,
	})

	return result
}

func (r *run) execute() (string, string) {
	o := r.o

	// Start -> ProfileFetched
	if !r.allow(StepFetchProfile) {
		return replyIterationLimit, RunIterationLimit
	}
	start := o.now()
	prof, err := o.profiles.FetchProfile(r.ctx, profile.Lookup{ClientID: r.callerID})
	r.record(StepFetchProfile, map[string]interface{}{"callerId": r.callerID},
		start, outcomeOf(err), models.CacheNotApplicable, err)
	if err != nil {
		r.state = StateDone
		if stderrors.IsNotFound(err) {
			return "I couldn't find a profile for your account, so I can't personalize recommendations yet.", RunDegraded
		}
		return "I ran into a problem loading your profile. Please try again in a moment.", RunDegraded
	}
	r.state = StateProfileFetched

	// ProfileFetched -> CandidatesFound
	if !r.allow(StepDiscover) {
		return replyIterationLimit, RunIterationLimit
	}
	start = o.now()
	category := prof.TopCategory()
	candidates, directoryCount, err := o.venues.FindNew(r.ctx, prof.City, prof.State, category, prof.VisitedVendors)
	input := map[string]interface{}{
		"city":     prof.City,
		"state":    prof.State,
		"category": category,
	}
	if err == nil && len(candidates) == 0 {
		if directoryCount == 0 {
			input["status"] = DiscoveryNoResults
		} else {
			input["status"] = DiscoveryNoNewResults
		}
	}
	r.record(StepDiscover, input, start, outcomeOf(err), models.CacheNotApplicable, err)
	if err != nil {
		r.state = StateDone
		return "I couldn't reach the venue directory just now. Please try again shortly.", RunDegraded
	}
	r.state = StateCandidatesFound

	if len(candidates) == 0 {
		r.state = StateDone
		if directoryCount == 0 {
			return fmt.Sprintf("I couldn't find any %s venues listed around %s yet.", category, prof.City), RunCompleted
		}
		return fmt.Sprintf("You've already visited every %s venue I could find around %s. Nothing new this time.", category, prof.City), RunCompleted
	}

	// CandidatesFound -> Presented: formatting only, no tool charge.
	limit := o.config.CandidateLimit
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	presented := candidates[:limit]
	presentation := formatCandidates(prof.City, presented)
	start = o.now()
	r.record(StepPresent, map[string]interface{}{"presented": len(presented)},
		start, models.StepSuccess, models.CacheNotApplicable, nil)
	r.state = StatePresented

	// Presented -> AwaitingConfirmation: the one user-facing suspension
	// point, bounded by the wait budget and cancellable by a negative answer.
	r.state = StateAwaitingConfirmation
	start = o.now()
	waitCtx, cancel := context.WithTimeout(r.ctx, o.config.WaitBudgetDuration())
	decision, waitErr := o.confirmer.Await(waitCtx, presented)
	cancel()

	if waitErr != nil || (!decision.Affirmative && decision.CandidateName == "") {
		waitInput := map[string]interface{}{"answered": waitErr == nil}
		r.record(StepAwaitConfirmation, waitInput, start, models.StepSkipped, models.CacheNotApplicable, nil)
		r.state = StateDone
		return presentation + "\n\nNo problem. Ask me again whenever you want details on one of these.", RunSkipped
	}
	r.record(StepAwaitConfirmation, map[string]interface{}{"answered": true},
		start, models.StepSuccess, models.CacheNotApplicable, nil)

	// AwaitingConfirmation -> Enriching
	selected := pickCandidate(decision, presented)
	r.state = StateEnriching
	if !r.allow(StepEnrich) {
		return presentation + "\n\n" + replyIterationLimit, RunIterationLimit
	}
	start = o.now()
	if selected == nil {
		err := stderrors.NewCandidateNotFoundError(decision.CandidateName)
		r.record(StepEnrich, map[string]interface{}{"candidate": decision.CandidateName},
			start, models.StepFailure, models.CacheNotApplicable, err)
		r.state = StateDone
		return presentation + fmt.Sprintf("\n\nI don't have %q in this list, so I couldn't look it up.", decision.CandidateName), RunDegraded
	}

	result, err := o.enricher.Summarize(r.ctx, *selected, o.now())
	cacheOutcome := models.CacheNotApplicable
	if result != nil {
		cacheOutcome = result.Outcome
	}
	r.record(StepEnrich, map[string]interface{}{"candidate": selected.Name},
		start, outcomeOf(err), cacheOutcome, err)
	r.state = StateDone

	if err != nil {
		return presentation + fmt.Sprintf("\n\nI couldn't fetch details on %s right now, but the list above still stands.", selected.Name), RunDegraded
	}
	return fmt.Sprintf("Here's what I found about %s:\n\n%s", selected.Name, result.Summary), RunCompleted
}

const replyIterationLimit = "This request needed more lookups than a single run allows, so I stopped early. Please try a narrower question."

// allow charges one tool invocation against the run ceiling. When the
// ceiling is already spent it appends the forced-done entry and moves the
// machine to Done.
func (r *run) allow(step string) bool {
	if r.iterations >= r.o.config.MaxIterations {
		err := stderrors.NewIterationLimitExceededError(r.o.config.MaxIterations)
		r.record(step, nil, r.o.now(), models.StepFailure, models.CacheNotApplicable, err)
		r.state = StateDone
		r.log.Warn("iteration ceiling reached", map[string]interface{}{
			"step":  step,
			"limit": r.o.config.MaxIterations,
		})
		return false
	}
	r.iterations++
	return true
}

func (r *run) record(step string, input map[string]interface{}, start time.Time, outcome models.StepOutcome, cacheOutcome models.CacheOutcome, err error) {
	duration := r.o.now().Sub(start)
	entry := models.ExecutionLogEntry{
		Step:         step,
		Timestamp:    start,
		Input:        input,
		Duration:     duration,
		Outcome:      outcome,
		CacheOutcome: cacheOutcome,
	}
	if err != nil {
		entry.Error = err.Error()
		metrics.PlanStepsFailed.WithLabelValues(step, string(stderrors.CodeOf(err))).Inc()
	}
	metrics.PlanStepDuration.WithLabelValues(step).Observe(duration.Seconds())
	r.trace = append(r.trace, entry)
}

func outcomeOf(err error) models.StepOutcome {
	if err != nil {
		return models.StepFailure
	}
	return models.StepSuccess
}

// pickCandidate resolves the confirmation to one presented candidate. A
// named candidate matches on normalized name; a bare yes takes the first.
func pickCandidate(decision Confirmation, presented []models.CandidateVenue) *models.CandidateVenue {
	if decision.CandidateName == "" {
		return &presented[0]
	}
	wanted := discovery.Normalize(decision.CandidateName)
	for i := range presented {
		if discovery.Normalize(presented[i].Name) == wanted {
			return &presented[i]
		}
	}
	return nil
}

func formatCandidates(city string, candidates []models.CandidateVenue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are %d places around %s you haven't been to yet:\n", len(candidates), city)
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s (%s)", i+1, c.Name, c.Category)
		if addr := c.DisplayAddress(); addr != "" {
			fmt.Fprintf(&b, " - %s", addr)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nWant details on any of these? Reply yes, no, or a name.")
	return b.String()
}
