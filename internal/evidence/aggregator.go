// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence fans a query out to the enabled source adapters and
// merges their results into one bundle. The aggregator is
// partial-failure tolerant: every adapter call is individually wrapped,
// a failing adapter contributes a warning and an empty list, and the
// join waits for all adapters to settle without cancelling siblings.
// Total latency is bounded by the slowest adapter's own timeout.
//
// See docs/ARCHITECTURE.md § Evidence Aggregation.
package evidence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/normalize"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// warningTemplates render a source failure as advisory text for the
// caller. Keys are source names; the fallback covers new sources.
var warningTemplates = map[string]string{
	types.SourceOpenFDA:         "Aviso: dados regulatórios da FDA temporariamente indisponíveis (%v). Prosseguindo com outras bases científicas.",
	types.SourceLILACS:          "Aviso: base LILACS temporariamente indisponível (%v). Protocolos regionais podem estar limitados.",
	types.SourceEuropePMC:       "Aviso: Europe PMC temporariamente indisponível (%v). Usando fontes alternativas.",
	types.SourceSemanticScholar: "Aviso: Semantic Scholar temporariamente indisponível (%v). Número de artigos pode estar reduzido.",
	types.SourceClinicalTrials:  "Aviso: ClinicalTrials.gov temporariamente indisponível (%v). Dados de ensaios clínicos limitados.",
}

// Aggregator owns the configured adapters and the query translator.
type Aggregator struct {
	academic   sources.Adapter
	literature sources.Adapter
	trials     sources.Adapter
	drugs      sources.Adapter
	regional   sources.Adapter

	translator *normalize.Translator
	cfg        types.SourcesConfig
	logger     *zap.Logger
}

// NewAggregator wires the five adapters. Any adapter may be nil, in which
// case its source is never queried and stays empty in the bundle.
func NewAggregator(academic, literature, trials, drugs, regional sources.Adapter,
	translator *normalize.Translator, cfg types.SourcesConfig, logger *zap.Logger) *Aggregator {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 3
	}
	if cfg.RegionalPriorityLimit <= 0 {
		cfg.RegionalPriorityLimit = 5
	}
	return &Aggregator{
		academic:   academic,
		literature: literature,
		trials:     trials,
		drugs:      drugs,
		regional:   regional,
		translator: translator,
		cfg:        cfg,
		logger:     logger,
	}
}

// fetchTask is one enabled adapter call.
type fetchTask struct {
	adapter sources.Adapter
	query   string
	limit   int
}

// sourceResult is one settled adapter call. An error never escapes the
// aggregator; it becomes a warning entry.
type sourceResult struct {
	name  string
	items []types.EvidenceItem
	err   error
}

// Gather runs every adapter enabled by the flags concurrently and merges
// the settled results. The returned bundle always carries every
// configured source key; sourcesUsed lists the sources that returned at
// least one item, in render order; warnings carries one advisory entry
// per failed source.
func (a *Aggregator) Gather(ctx context.Context, query string, flags types.Flags, regional types.RegionalDiseaseInfo) (types.EvidenceBundle, []string, []string) {
	bundle := types.NewEvidenceBundle()
	if !flags.IsMedical {
		return bundle, nil, nil
	}

	started := time.Now()

	// International sources search in English; the regional base keeps
	// the original language.
	english := a.translator.Translate(ctx, query)

	var tasks []fetchTask
	add := func(adapter sources.Adapter, q string, limit int) {
		if adapter != nil {
			tasks = append(tasks, fetchTask{adapter: adapter, query: q, limit: limit})
		}
	}

	add(a.academic, english, a.cfg.DefaultLimit)
	add(a.literature, english, a.cfg.DefaultLimit)
	add(a.trials, english, a.cfg.DefaultLimit)
	if flags.NeedsDrugSearch {
		add(a.drugs, english, a.cfg.DefaultLimit)
	}
	if flags.NeedsRegionalSearch {
		limit := a.cfg.DefaultLimit
		if regional.Detected {
			limit = a.cfg.RegionalPriorityLimit
		}
		add(a.regional, query, limit)
	}

	ch := make(chan sourceResult, len(tasks))
	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t fetchTask) {
			defer wg.Done()
			ch <- a.fetch(ctx, t)
		}(t)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var warnings []string
	for r := range ch {
		if r.err != nil {
			a.logger.Warn("source failed",
				zap.String("source", r.name),
				zap.Error(r.err))
			metrics.SourceFailures.WithLabelValues(r.name).Inc()
			warnings = append(warnings, warningFor(r.name, r.err))
			continue
		}
		// One assignment per source per run; a missing source keeps its
		// empty default.
		bundle[r.name] = r.items
	}

	var used []string
	for _, name := range types.AllSources {
		if len(bundle[name]) > 0 {
			used = append(used, name)
		}
	}

	a.logger.Info("evidence gathered",
		zap.Int("items", bundle.Count()),
		zap.Strings("sources_used", used),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", time.Since(started)))

	return bundle, used, warnings
}

// fetch runs one adapter call, converting a panic into an ordinary
// failure so a misbehaving adapter cannot abort its siblings.
func (a *Aggregator) fetch(ctx context.Context, t fetchTask) (result sourceResult) {
	result.name = t.adapter.Name()
	defer func() {
		if r := recover(); r != nil {
			result.items = nil
			result.err = fmt.Errorf("adapter panic: %v", r)
		}
	}()

	items, err := t.adapter.Search(ctx, t.query, t.limit)
	if err != nil {
		return sourceResult{name: result.name, err: err}
	}
	if items == nil {
		items = []types.EvidenceItem{}
	}
	return sourceResult{name: result.name, items: items}
}

func warningFor(source string, err error) string {
	if tmpl, ok := warningTemplates[source]; ok {
		return fmt.Sprintf(tmpl, err)
	}
	return fmt.Sprintf("Aviso: %s temporariamente indisponível (%v).", source, err)
}
