// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/evidence"
	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/internal/normalize"
	"github.com/pdiddy/evidence-engine/internal/revision"
	"github.com/pdiddy/evidence-engine/internal/runlog"
	"github.com/pdiddy/evidence-engine/internal/safety"
	"github.com/pdiddy/evidence-engine/internal/session"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/internal/synthesis"
	"github.com/pdiddy/evidence-engine/internal/workflow"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// app bundles the constructed pipeline and its supporting stores.
type app struct {
	cfg      types.EngineConfig
	engine   *workflow.Engine
	sessions *session.Cache

	// journal is nil when run_log.path is unset.
	journal *runlog.Store
}

// newApp assembles the full pipeline from configuration and secrets.
func newApp(ctx context.Context) (*app, error) {
	cfg := engineConfig()

	provider, err := buildProvider(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	translationModel := cfg.LLM.TranslationModel
	if translationModel == "" {
		translationModel = cfg.LLM.Model
	}

	dictionary, err := normalize.LoadDictionary(cfg.Normalize.DictionaryFile)
	if err != nil {
		return nil, fmt.Errorf("loading dictionary: %w", err)
	}
	translator := normalize.NewTranslator(dictionary, provider, translationModel, logger)

	detector := normalize.NewDetector()
	if cfg.Normalize.DiseaseFile != "" {
		detector, err = normalize.NewDetectorFromFile(cfg.Normalize.DiseaseFile)
		if err != nil {
			return nil, fmt.Errorf("loading disease table: %w", err)
		}
	}

	academic, literature, trials, drugs, regional := buildAdapters(cfg.Sources)
	aggregator := evidence.NewAggregator(academic, literature, trials, drugs, regional,
		translator, cfg.Sources, logger)

	engine := workflow.NewEngine(
		detector,
		aggregator,
		synthesis.NewSynthesizer(provider, cfg.LLM, logger),
		safety.NewAuditor(provider, cfg.LLM.Model, logger),
		revision.NewReviser(provider, cfg.LLM, logger),
		cfg.Workflow, logger,
	)

	sessions, err := session.NewCache(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("building session cache: %w", err)
	}

	a := &app{cfg: cfg, engine: engine, sessions: sessions}

	if cfg.RunLog.Path != "" {
		a.journal, err = runlog.NewStore(cfg.RunLog)
		if err != nil {
			return nil, fmt.Errorf("opening run journal: %w", err)
		}
	}
	return a, nil
}

// Close releases the journal database, if open.
func (a *app) Close() {
	if a.journal != nil {
		a.journal.Close()
	}
}

// record journals the run when the journal is enabled. Journal failures
// are logged, never fatal; the answer was already produced.
func (a *app) record(ctx context.Context, query string, result workflow.Result) {
	if a.journal == nil {
		return
	}
	if err := a.journal.Record(ctx, query, result); err != nil {
		logger.Warn("journal write failed", zap.Error(err))
	}
}

func buildProvider(ctx context.Context, cfg types.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		key := secretDefault("gemini-api-key", cfg.APIKey)
		if key == "" {
			return nil, fmt.Errorf("gemini provider selected but no API key configured")
		}
		return llm.NewGeminiProvider(ctx, key)
	case "openai", "":
		key := secretDefault("openai-api-key", cfg.APIKey)
		if key == "" {
			return nil, fmt.Errorf("openai provider selected but no API key configured")
		}
		return &llm.OpenAIProvider{
			Client: &http.Client{Timeout: cfg.Timeout},
			APIKey: key,
		}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q: use openai or gemini", cfg.Provider)
	}
}

// buildAdapters constructs the five source adapters, each wrapped with
// its own rate gate.
func buildAdapters(cfg types.SourcesConfig) (academic, literature, trials, drugs, regional sources.Adapter) {
	client := &http.Client{Timeout: cfg.Timeout}
	gate := func(a sources.Adapter) sources.Adapter {
		return sources.Throttle(a, cfg.MinInterval)
	}

	academic = gate(&sources.SemanticScholar{
		Client:    client,
		APIKey:    secretDefault("semantic-scholar-api-key", cfg.SemanticScholarAPIKey),
		UserAgent: cfg.UserAgent,
	})
	literature = gate(&sources.EuropePMC{Client: client, UserAgent: cfg.UserAgent})
	trials = gate(&sources.ClinicalTrials{Client: client, UserAgent: cfg.UserAgent})
	drugs = gate(&sources.OpenFDA{
		Client:    client,
		APIKey:    secretDefault("openfda-api-key", cfg.OpenFDAAPIKey),
		UserAgent: cfg.UserAgent,
	})
	regional = gate(&sources.LILACS{Client: client, UserAgent: cfg.UserAgent})
	return academic, literature, trials, drugs, regional
}

// engineConfig reads the full engine configuration from viper.
func engineConfig() types.EngineConfig {
	viper.SetDefault("sources.timeout", 15*time.Second)
	viper.SetDefault("sources.user_agent", "evidence-engine/"+version)
	viper.SetDefault("sources.default_limit", 3)
	viper.SetDefault("sources.regional_priority_limit", 5)
	viper.SetDefault("sources.min_interval", time.Second)
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("workflow.max_audit_passes", 2)
	viper.SetDefault("session.capacity", 100)
	viper.SetDefault("session.max_turns", 20)
	viper.SetDefault("run_log.max_list", 20)

	return types.EngineConfig{
		Sources: types.SourcesConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("sources.timeout"),
				UserAgent: viper.GetString("sources.user_agent"),
			},
			DefaultLimit:          viper.GetInt("sources.default_limit"),
			RegionalPriorityLimit: viper.GetInt("sources.regional_priority_limit"),
			MinInterval:           viper.GetDuration("sources.min_interval"),
			OpenFDAAPIKey:         viper.GetString("sources.openfda_api_key"),
			SemanticScholarAPIKey: viper.GetString("sources.semantic_scholar_api_key"),
		},
		LLM: types.LLMConfig{
			Provider:         viper.GetString("llm.provider"),
			Model:            viper.GetString("llm.model"),
			TranslationModel: viper.GetString("llm.translation_model"),
			APIKey:           viper.GetString("llm.api_key"),
			Timeout:          viper.GetDuration("llm.timeout"),
		},
		Workflow: types.WorkflowConfig{
			MaxAuditPasses: viper.GetInt("workflow.max_audit_passes"),
			SystemMessage:  viper.GetString("workflow.system_message"),
		},
		Session: types.SessionConfig{
			Capacity: viper.GetInt("session.capacity"),
			MaxTurns: viper.GetInt("session.max_turns"),
		},
		RunLog: types.RunLogConfig{
			Path:    viper.GetString("run_log.path"),
			MaxList: viper.GetInt("run_log.max_list"),
		},
		Normalize: types.NormalizeConfig{
			DictionaryFile: viper.GetString("normalize.dictionary_file"),
			DiseaseFile:    viper.GetString("normalize.disease_file"),
		},
	}
}
