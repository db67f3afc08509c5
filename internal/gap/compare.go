package gap

import (
	"github.com/cleared-dev/txenrich/internal/metrics"
	"github.com/cleared-dev/txenrich/internal/model"
	"github.com/cleared-dev/txenrich/internal/rules"
)

// RuleDelta is the change in one rule's mean confidence. A rule missing
// from one side counts as 0 on that side.
type RuleDelta struct {
	RuleHit  string  `json:"rule_hit"`
	Baseline float64 `json:"baseline"`
	Revised  float64 `json:"revised"`
	Delta    float64 `json:"delta"`
}

// Report compares a baseline enrichment run with a revised one.
type Report struct {
	Baseline metrics.Snapshot `json:"baseline"`
	Revised  metrics.Snapshot `json:"revised"`

	FallbackPercentageDelta    float64         `json:"fallback_percentage_delta"`
	RAGFallbackPercentageDelta float64         `json:"rag_fallback_percentage_delta"`
	OverallAvgConfidenceDelta  metrics.Average `json:"overall_avg_confidence_delta"`
	RuleConfidenceDeltas       []RuleDelta     `json:"rule_confidence_deltas"`

	AddedFallbackDescriptions   []string `json:"added_fallback_descriptions"`
	RemovedFallbackDescriptions []string `json:"removed_fallback_descriptions"`
}

// Compare summarizes both runs and computes revised minus baseline.
func Compare(baseline, revised []model.EnrichmentRecord, topN int) Report {
	return CompareSnapshots(metrics.Summarize(baseline, topN), metrics.Summarize(revised, topN))
}

// CompareSnapshots computes the deltas between two snapshots.
func CompareSnapshots(base, rev metrics.Snapshot) Report {
	r := Report{
		Baseline:                   base,
		Revised:                    rev,
		FallbackPercentageDelta:    rev.FallbackPercentage - base.FallbackPercentage,
		RAGFallbackPercentageDelta: rev.RuleHitDistribution.Percent(rules.RuleRAGFallback) - base.RuleHitDistribution.Percent(rules.RuleRAGFallback),
		RuleConfidenceDeltas:       []RuleDelta{},
	}
	if base.AvgOverallConfidence.Valid && rev.AvgOverallConfidence.Valid {
		r.OverallAvgConfidenceDelta = metrics.Average{
			Value: rev.AvgOverallConfidence.Value - base.AvgOverallConfidence.Value,
			Valid: true,
		}
	}

	// Baseline rules in snapshot order, then rules only the revised run hit.
	var union []string
	seen := make(map[string]bool)
	for _, set := range [][]metrics.RuleConfidence{base.AvgConfidencePerRule, rev.AvgConfidencePerRule} {
		for _, rc := range set {
			if !seen[rc.RuleHit] {
				seen[rc.RuleHit] = true
				union = append(union, rc.RuleHit)
			}
		}
	}
	for _, id := range union {
		b, _ := base.RuleAverage(id)
		v, _ := rev.RuleAverage(id)
		r.RuleConfidenceDeltas = append(r.RuleConfidenceDeltas, RuleDelta{RuleHit: id, Baseline: b, Revised: v, Delta: v - b})
	}

	r.AddedFallbackDescriptions = difference(rev.FallbackDescriptions(), base.FallbackDescriptions())
	r.RemovedFallbackDescriptions = difference(base.FallbackDescriptions(), rev.FallbackDescriptions())
	return r
}

// difference returns the items of a not in b, keeping a's order.
func difference(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, s := range b {
		in[s] = true
	}
	out := []string{}
	for _, s := range a {
		if !in[s] {
			out = append(out, s)
		}
	}
	return out
}
