// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow runs the evidence-gated response pipeline: classify
// the question, gather evidence, synthesize a draft, audit it, and
// revise at most once before the verdict stands. A run either completes
// with a draft and its audit verdict or fails with an apology draft; it
// never returns an unaudited answer for a medical question.
//
// See docs/ARCHITECTURE.md § Workflow.
package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/evidence"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/normalize"
	"github.com/pdiddy/evidence-engine/internal/revision"
	"github.com/pdiddy/evidence-engine/internal/router"
	"github.com/pdiddy/evidence-engine/internal/safety"
	"github.com/pdiddy/evidence-engine/internal/synthesis"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// defaultSystemMessage is the assistant policy used when the caller and
// the configuration supply none.
const defaultSystemMessage = "Você é uma assistente médica virtual altamente especializada e confiável. Base suas respostas em evidências científicas."

// apologyDraft is returned as the draft of a failed run.
const apologyDraft = "Desculpe, ocorreu um erro ao processar sua pergunta. Por favor, tente novamente."

// ErrEmptyQuery rejects a request whose query is blank.
var ErrEmptyQuery = errors.New("workflow: empty query")

// Request is one question to answer.
type Request struct {
	// Query is the user's question, required.
	Query string

	// History is prior conversation turns replayed into synthesis.
	History []types.Message

	// SystemMessage overrides the configured assistant policy when set.
	SystemMessage string
}

// Result is the outcome of a run.
type Result struct {
	RunID string
	State RunState

	// Draft is the final answer text. On a failed run it carries the
	// apology text and Err holds the cause.
	Draft string
	Err   error

	Flags    types.Flags
	Regional types.RegionalDiseaseInfo

	Evidence    types.EvidenceBundle
	SourcesUsed []string
	Warnings    []string

	IsSafe        bool
	SafetyIssues  []types.SafetyIssue
	RevisionCount int

	ElapsedMs int64
}

// Engine wires the pipeline stages together.
type Engine struct {
	detector    *normalize.Detector
	aggregator  *evidence.Aggregator
	synthesizer *synthesis.Synthesizer
	auditor     *safety.Auditor
	reviser     *revision.Reviser
	cfg         types.WorkflowConfig
	logger      *zap.Logger
}

// NewEngine returns an Engine over the given stages.
func NewEngine(detector *normalize.Detector, aggregator *evidence.Aggregator,
	synthesizer *synthesis.Synthesizer, auditor *safety.Auditor, reviser *revision.Reviser,
	cfg types.WorkflowConfig, logger *zap.Logger) *Engine {
	if cfg.MaxAuditPasses <= 0 {
		cfg.MaxAuditPasses = 2
	}
	if cfg.SystemMessage == "" {
		cfg.SystemMessage = defaultSystemMessage
	}
	return &Engine{
		detector:    detector,
		aggregator:  aggregator,
		synthesizer: synthesizer,
		auditor:     auditor,
		reviser:     reviser,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run executes the pipeline for one request. Stage errors terminate the
// run as failed; evidence source failures do not, they surface as
// warnings on a completed run.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Result{}, ErrEmptyQuery
	}

	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID))
	started := time.Now()

	systemMessage := req.SystemMessage
	if systemMessage == "" {
		systemMessage = e.cfg.SystemMessage
	}

	state := &State{
		Query:         req.Query,
		SystemMessage: systemMessage,
		History:       req.History,
		Evidence:      types.NewEvidenceBundle(),
	}

	err := e.runSteps(ctx, logger, state)

	result := Result{
		RunID:         runID,
		Flags:         state.Flags,
		Regional:      state.Regional,
		Evidence:      state.Evidence,
		SourcesUsed:   state.SourcesUsed,
		Warnings:      state.Warnings,
		Draft:         state.Draft,
		IsSafe:        state.IsSafe,
		SafetyIssues:  state.SafetyIssues,
		RevisionCount: state.RevisionCount,
		ElapsedMs:     time.Since(started).Milliseconds(),
	}

	if err != nil {
		result.State = StateFailed
		result.Draft = apologyDraft
		result.Err = err
		result.IsSafe = false
		metrics.Runs.WithLabelValues(string(StateFailed)).Inc()
		logger.Error("run failed", zap.Error(err), zap.Int64("elapsed_ms", result.ElapsedMs))
		return result, nil
	}

	result.State = StateDone
	metrics.Runs.WithLabelValues(string(StateDone)).Inc()
	logger.Info("run complete",
		zap.Bool("is_safe", result.IsSafe),
		zap.Int("revisions", result.RevisionCount),
		zap.Int("safety_issues", len(result.SafetyIssues)),
		zap.Int64("elapsed_ms", result.ElapsedMs))
	return result, nil
}

// runSteps drives the state machine, folding each step's output into
// the state through the reducer.
func (e *Engine) runSteps(ctx context.Context, logger *zap.Logger, state *State) error {
	// Routing is pure classification and cannot fail.
	e.timed(StepRouting, func() {
		flags := router.Classify(state.Query)
		regional := e.detector.Detect(state.Query)
		state.apply(Update{Flags: &flags, Regional: &regional})
	})
	logger.Info("question classified",
		zap.Bool("is_medical", state.Flags.IsMedical),
		zap.Bool("needs_drug_search", state.Flags.NeedsDrugSearch),
		zap.Bool("regional_disease", state.Regional.Detected))

	// Searching tolerates partial failure; the aggregator reports source
	// errors as warnings.
	e.timed(StepSearching, func() {
		bundle, used, warnings := e.aggregator.Gather(ctx, state.Query, state.Flags, state.Regional)
		state.apply(Update{Evidence: bundle, SourcesUsed: used, Warnings: warnings})
	})

	var stepErr error
	e.timed(StepSynthesizing, func() {
		draft, err := e.synthesizer.Synthesize(ctx, state.Query, state.SystemMessage,
			state.History, state.Evidence, state.Regional)
		if err != nil {
			stepErr = err
			return
		}
		state.apply(Update{Draft: &draft})
	})
	if stepErr != nil {
		return stepErr
	}

	// Audit and revise. With N passes at most N-1 revisions happen; the
	// final pass's verdict stands even when unsafe, so the caller always
	// sees both the draft and what is still wrong with it.
	for pass := 1; pass <= e.cfg.MaxAuditPasses; pass++ {
		e.timed(StepAuditing, func() {
			issues, err := e.auditor.Audit(ctx, state.Query, state.Draft, state.Evidence)
			if err != nil {
				stepErr = err
				return
			}
			state.apply(Update{Safety: &SafetyVerdict{IsSafe: len(issues) == 0, Issues: issues}})
		})
		if stepErr != nil {
			return stepErr
		}
		if state.IsSafe {
			break
		}
		logger.Warn("draft flagged unsafe",
			zap.Int("pass", pass),
			zap.Int("issues", len(state.SafetyIssues)))
		if pass == e.cfg.MaxAuditPasses {
			break
		}

		e.timed(StepRevising, func() {
			revised, err := e.reviser.Revise(ctx, state.SystemMessage, state.Draft, state.SafetyIssues)
			if err != nil {
				stepErr = err
				return
			}
			state.apply(Update{Draft: &revised, RevisionDelta: 1})
		})
		if stepErr != nil {
			return stepErr
		}
	}
	return nil
}

// timed runs fn and observes its wall time under the step label.
func (e *Engine) timed(step Step, fn func()) {
	started := time.Now()
	fn()
	metrics.StepDuration.WithLabelValues(string(step)).Observe(time.Since(started).Seconds())
}
