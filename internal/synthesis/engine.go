package synthesis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"attune/internal/catalog"
	apperrors "attune/internal/errors"
	"attune/internal/logging"
	"attune/internal/ports"
)

// Engine aggregates stakeholder transcripts into a readiness assessment.
type Engine struct {
	client      ports.CompletionClient
	gate        ports.UsageGate
	taxonomy    *catalog.Taxonomy
	logger      logging.Logger
	concurrency int
	now         func() time.Time
}

// EngineOption customizes the engine.
type EngineOption func(*Engine)

// WithConcurrency bounds parallel transcript extraction.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithNow injects a deterministic clock for tests.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs a synthesis engine over the taxonomy.
func NewEngine(client ports.CompletionClient, gate ports.UsageGate, taxonomy *catalog.Taxonomy, logger logging.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		client:      client,
		gate:        gate,
		taxonomy:    taxonomy,
		logger:      logging.OrNop(logger),
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Synthesize builds an assessment from the given transcripts.
//
// Ineligible transcripts (incomplete, empty) are excluded with a warning.
// Extraction runs per transcript, concurrently, and one malformed transcript
// is skipped rather than failing the run, provided at least one valid
// transcript remains. Quota denials abort the whole operation before cost.
// The engine reports only how many transcripts it consumed; the completion
// ratio against invited participants belongs to the caller.
func (e *Engine) Synthesize(ctx context.Context, tenantID string, transcripts []StakeholderTranscript) (*ReadinessAssessment, error) {
	var warnings []string

	eligible := make([]StakeholderTranscript, 0, len(transcripts))
	for _, t := range transcripts {
		if !t.Eligible() {
			warnings = append(warnings, fmt.Sprintf("transcript %s excluded: status %q with %d utterances", t.SessionID, t.Status, len(t.History)))
			continue
		}
		if !catalog.KnownRole(t.Role) {
			warnings = append(warnings, fmt.Sprintf("transcript %s has unknown role %q, weighting as a baseline participant", t.SessionID, t.Role))
		}
		eligible = append(eligible, t)
	}
	if len(eligible) == 0 {
		return nil, apperrors.ErrInsufficientData
	}

	signals, extractWarnings, usage, err := e.extractAll(ctx, tenantID, eligible)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, extractWarnings...)

	consumed := 0
	for _, s := range signals {
		if s != nil {
			consumed++
		}
	}
	if consumed == 0 {
		return nil, apperrors.ErrInsufficientData
	}

	pillars, scored, noSignalWarnings := e.aggregate(eligible, signals)
	warnings = append(warnings, noSignalWarnings...)

	assessment := &ReadinessAssessment{
		ID:                  uuid.NewString(),
		OverallScore:        overall(e.taxonomy, pillars, scored),
		Pillars:             pillars,
		KeyThemes:           corroboratedThemes(signals, 8),
		Recommendations:     e.recommendations(pillars, scored, 5),
		TranscriptsConsumed: consumed,
		Warnings:            warnings,
		Usage:               usage,
		CreatedAt:           e.now(),
	}
	e.logger.Info("synthesis consumed %d/%d transcripts, overall %.1f, %d warnings",
		consumed, len(transcripts), assessment.OverallScore, len(warnings))
	return assessment, nil
}

// extractAll fans extraction out over the eligible transcripts. Results keep
// input order so aggregation stays deterministic. Per-transcript failures
// leave a nil slot and a warning; only quota denials abort the group. When
// every transcript failed on model transport, the transport error wins over
// InsufficientData so callers know to retry.
func (e *Engine) extractAll(ctx context.Context, tenantID string, eligible []StakeholderTranscript) ([]*signal, []string, ports.TokenUsage, error) {
	signals := make([]*signal, len(eligible))
	failures := make([]error, len(eligible))
	usages := make([]ports.TokenUsage, len(eligible))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)
	for i, t := range eligible {
		i, t := i, t
		group.Go(func() error {
			if err := e.gate.Check(groupCtx, tenantID); err != nil {
				return err
			}
			sig, usage, err := e.extractSignal(groupCtx, t)
			usages[i] = usage
			if err != nil {
				e.logger.Warn("skipping transcript %s: %v", t.SessionID, err)
				failures[i] = err
				return nil
			}
			signals[i] = sig
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, ports.TokenUsage{}, err
	}

	var warnings []string
	allTransport := true
	anyFailure := false
	var firstTransport error
	for i, failure := range failures {
		if failure == nil {
			continue
		}
		anyFailure = true
		warnings = append(warnings, fmt.Sprintf("transcript %s skipped: %v", eligible[i].SessionID, failure))
		if apperrors.IsModelUnavailable(failure) {
			if firstTransport == nil {
				firstTransport = failure
			}
		} else {
			allTransport = false
		}
	}
	if anyFailure && allTransport && firstTransport != nil {
		succeeded := false
		for _, s := range signals {
			if s != nil {
				succeeded = true
				break
			}
		}
		if !succeeded {
			return nil, nil, ports.TokenUsage{}, firstTransport
		}
	}

	var total ports.TokenUsage
	for _, u := range usages {
		total.Add(u)
	}
	return signals, warnings, total, nil
}

// aggregate computes role-weighted dimension scores and pillar means, table
// driven from the taxonomy's declared weights. Dimensions no transcript spoke
// to are reported at zero, excluded from the pillar mean, and flagged; the
// returned set records which dimensions genuinely carried signal so a real
// zero score stays distinguishable from absence.
func (e *Engine) aggregate(eligible []StakeholderTranscript, signals []*signal) ([]PillarScore, map[string]bool, []string) {
	var warnings []string
	scored := make(map[string]bool)
	pillars := make([]PillarScore, 0, len(e.taxonomy.Pillars))

	for _, p := range e.taxonomy.Pillars {
		pillar := PillarScore{Name: p.Name, Dimensions: make([]DimensionalScore, 0, len(p.Dimensions))}
		weightSum, weighted := 0.0, 0.0
		for _, d := range p.Dimensions {
			score, ok := roleWeightedMean(d, eligible, signals)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("no signal for dimension %s", d.Name))
				pillar.Dimensions = append(pillar.Dimensions, DimensionalScore{Name: d.Name, Label: d.Label})
				continue
			}
			scored[d.Name] = true
			pillar.Dimensions = append(pillar.Dimensions, DimensionalScore{Name: d.Name, Label: d.Label, Score: score})
			weighted += d.Weight * score
			weightSum += d.Weight
		}
		if weightSum > 0 {
			pillar.Score = weighted / weightSum
		} else {
			warnings = append(warnings, fmt.Sprintf("no signal for pillar %s", p.Name))
		}
		pillars = append(pillars, pillar)
	}
	return pillars, scored, warnings
}

func roleWeightedMean(d catalog.Dimension, eligible []StakeholderTranscript, signals []*signal) (float64, bool) {
	weightSum, weighted := 0.0, 0.0
	for i, sig := range signals {
		if sig == nil {
			continue
		}
		score, ok := sig.Scores[d.Name]
		if !ok {
			continue
		}
		w := d.RoleWeight(eligible[i].Role)
		weighted += w * score
		weightSum += w
	}
	if weightSum == 0 {
		return 0, false
	}
	return weighted / weightSum, true
}

func overall(taxonomy *catalog.Taxonomy, pillars []PillarScore, scored map[string]bool) float64 {
	weightSum, weighted := 0.0, 0.0
	for i, p := range taxonomy.Pillars {
		if !pillarScored(p, scored) {
			continue
		}
		weighted += p.Weight * pillars[i].Score
		weightSum += p.Weight
	}
	if weightSum == 0 {
		return 0
	}
	return weighted / weightSum
}

func pillarScored(p catalog.Pillar, scored map[string]bool) bool {
	for _, d := range p.Dimensions {
		if scored[d.Name] {
			return true
		}
	}
	return false
}

// corroboratedThemes keeps themes voiced by at least two independent
// transcripts, most corroborated first, first-voiced breaking ties.
func corroboratedThemes(signals []*signal, limit int) []string {
	type themeStat struct {
		canonical string
		sources   map[int]struct{}
		firstSeen int
	}
	stats := make(map[string]*themeStat)
	order := 0
	for i, sig := range signals {
		if sig == nil {
			continue
		}
		for _, theme := range sig.Themes {
			key := normalizeTheme(theme)
			if key == "" {
				continue
			}
			stat, ok := stats[key]
			if !ok {
				stat = &themeStat{canonical: strings.TrimSpace(theme), sources: map[int]struct{}{}, firstSeen: order}
				stats[key] = stat
				order++
			}
			stat.sources[i] = struct{}{}
		}
	}

	var kept []*themeStat
	for _, stat := range stats {
		if len(stat.sources) >= 2 {
			kept = append(kept, stat)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if len(kept[i].sources) != len(kept[j].sources) {
			return len(kept[i].sources) > len(kept[j].sources)
		}
		return kept[i].firstSeen < kept[j].firstSeen
	})

	themes := make([]string, 0, limit)
	for _, stat := range kept {
		if len(themes) == limit {
			break
		}
		themes = append(themes, stat.canonical)
	}
	return themes
}

func normalizeTheme(theme string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(theme)), ".!")
}

// recommendations orders scored dimensions lowest first, ties broken by
// pillar then dimension declaration order, and templates the top entries.
func (e *Engine) recommendations(pillars []PillarScore, scored map[string]bool, limit int) []string {
	type candidate struct {
		pillar string
		dim    catalog.Dimension
		score  float64
	}
	var candidates []candidate
	for pi, p := range e.taxonomy.Pillars {
		for di, d := range p.Dimensions {
			if !scored[d.Name] {
				continue
			}
			candidates = append(candidates, candidate{pillar: p.Name, dim: d, score: pillars[pi].Dimensions[di].Score})
		}
	}
	// Stable keeps declaration order for equal scores.
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score < candidates[j].score })

	recs := make([]string, 0, limit)
	for _, c := range candidates {
		if len(recs) == limit {
			break
		}
		recs = append(recs, fmt.Sprintf("Strengthen %s (%s, scored %.0f): %s",
			c.dim.Label, c.pillar, c.score, c.dim.Description))
	}
	return recs
}
