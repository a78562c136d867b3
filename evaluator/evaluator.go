/*
Package evaluator decides whether a participant's SELECT query is
behaviorally equivalent to a curator's solution query against a
configured SQL Server target.

An Evaluator composes admission control (a process-wide run cap and a
per-user rate limit), strict string-level SQL validation, a TOP (n) row
cap rewrite, replica-aware execution, deterministic result normalization
and strictly ordered comparison into a single verdict: CORRECT, INCORRECT
or ERROR. All mutable state (replica health, rate windows, permits,
statistics) lives inside the Evaluator value; construct one at startup
and share it.
*/
package evaluator

import (
	"context"
	"log/slog"
)

// systemEvalUser is the user id solution queries execute under.
const systemEvalUser = "system_eval"

// A Question is the catalog contract consumed by evaluation. Only
// SolutionSQL is read; OrderSensitive is carried for the catalog but
// intentionally ignored by Compare.
type Question struct {
	ID             string
	SolutionSQL    string
	OrderSensitive bool
}

// A Submission is one evaluation request.
type Submission struct {
	UserID         string
	QuestionID     string
	ParticipantSQL string
	SolutionSQL    string
	Target         Target
}

// An Evaluator is a ready-to-use query evaluation subsystem in a fixed
// configuration. It is safe for concurrent use.
type Evaluator struct {
	cfg      *Config
	logger   *slog.Logger
	metrics  *metrics
	governor *governor
	router   *router

	// execution indirection for tests.
	execute func(ctx context.Context, query, userID string, target Target) (*QueryResult, error)
}

// NewEvaluator returns a new Evaluator for the given configuration.
// A nil logger defaults to slog.Default().
func NewEvaluator(cfg *Config, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.clamp()
	ev := &Evaluator{
		cfg:      cfg,
		logger:   logger,
		metrics:  newMetrics(),
		governor: newGovernor(cfg.MaxConcurrentRuns, cfg.RunRateLimit),
	}
	ev.router = newRouter(cfg, logger, ev.metrics)
	ev.execute = ev.Execute
	return ev
}

/*
Evaluate runs the full evaluation pipeline for one submission:

 1. rate-limit admission for the submitting user
 2. validation of the participant query
 3. execution of the solution query (gold standard, user system_eval)
 4. execution of the participant query
 5. ordered comparison

The solution query is not re-validated here: curators are trusted and
solutions are validated once at authoring time. Evaluate never returns a
raw error; every failure maps onto an INCORRECT or ERROR verdict.
*/
func (ev *Evaluator) Evaluate(ctx context.Context, sub Submission) Verdict {
	verdict := ev.evaluate(ctx, sub)
	ev.metrics.addVerdict(verdict.Status)
	return verdict
}

func (ev *Evaluator) evaluate(ctx context.Context, sub Submission) Verdict {
	if !ev.governor.admit(sub.UserID) {
		ev.metrics.addCounterValue(counterRateLimited, 1)
		ev.logger.Warn("submission rate limited", "user", sub.UserID)
		return errorVerdict("Rate limit exceeded. Please wait a moment before submitting again.")
	}

	if err := Validate(sub.ParticipantSQL, false); err != nil {
		return incorrectVerdict(err.Error())
	}

	solution, err := ev.execute(ctx, sub.SolutionSQL, systemEvalUser, sub.Target)
	if err != nil {
		ev.logger.Error("solution query failed", "question", sub.QuestionID, "error", err)
		return errorVerdict("System Error: Failed to generate expected results. Please contact an admin.")
	}

	participant, err := ev.execute(ctx, sub.ParticipantSQL, sub.UserID, sub.Target)
	if err != nil {
		return incorrectVerdict(err.Error())
	}

	verdict := Compare(&participant.ResultSet, &solution.ResultSet)
	if verdict.Status == StatusCorrect {
		return correctVerdict(participant.Duration.Milliseconds(), participant.NumRows())
	}
	return verdict
}

// ReplicaHealth reports the current health of the configured replicas by
// label. Healthy replicas participate in round-robin selection.
func (ev *Evaluator) ReplicaHealth() map[string]bool { return ev.router.health() }

// Stats returns a snapshot of the evaluator statistics.
func (ev *Evaluator) Stats() Stats {
	return ev.metrics.stats(int(ev.governor.inFlight.Load()))
}

// Config returns the evaluator configuration.
func (ev *Evaluator) Config() *Config { return ev.cfg }

// Close closes all database pools.
func (ev *Evaluator) Close() error { return ev.router.close() }
