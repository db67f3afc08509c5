package metrics

import (
	"encoding/json"
	"sort"

	"github.com/cleared-dev/txenrich/internal/model"
	"github.com/cleared-dev/txenrich/internal/rules"
)

// DefaultTopN is the number of fallback descriptions kept when none is given.
const DefaultTopN = 10

// Average is a mean that may be undefined because there was no data.
type Average struct {
	Value float64
	Valid bool
}

// MarshalJSON encodes an undefined average as null.
func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON decodes null as an undefined average.
func (a *Average) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Average{}
		return nil
	}
	if err := json.Unmarshal(data, &a.Value); err != nil {
		return err
	}
	a.Valid = true
	return nil
}

// Share is one key's count and percentage of all records.
type Share struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Distribution lists shares by descending count; equal counts keep the order
// in which keys were first seen.
type Distribution []Share

// Percent returns the percentage for key, or 0 when absent.
func (d Distribution) Percent(key string) float64 {
	for _, s := range d {
		if s.Key == key {
			return s.Percent
		}
	}
	return 0
}

// Keys returns the keys in distribution order.
func (d Distribution) Keys() []string {
	keys := make([]string, len(d))
	for i, s := range d {
		keys[i] = s.Key
	}
	return keys
}

// DescriptionCount is how often a description fell through to the fallback rule.
type DescriptionCount struct {
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// RuleConfidence is the mean confidence of records hit by one rule.
type RuleConfidence struct {
	RuleHit string  `json:"rule_hit"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Snapshot holds metrics derived from one enriched dataset.
type Snapshot struct {
	Total                      int                `json:"total"`
	RuleHitDistribution        Distribution       `json:"rule_hit_distribution"`
	FallbackPercentage         float64            `json:"fallback_percentage"`
	TopFallbackDescriptions    []DescriptionCount `json:"top_fallback_descriptions"`
	ClassificationDistribution Distribution       `json:"classification_distribution"`
	AvgConfidencePerRule       []RuleConfidence   `json:"avg_confidence_per_rule"`
	AvgOverallConfidence       Average            `json:"avg_overall_confidence"`
}

// Empty reports whether the snapshot was computed over no records.
func (s Snapshot) Empty() bool { return s.Total == 0 }

// RuleAverage returns the mean confidence for a rule and whether the rule was seen.
func (s Snapshot) RuleAverage(ruleHit string) (float64, bool) {
	for _, rc := range s.AvgConfidencePerRule {
		if rc.RuleHit == ruleHit {
			return rc.Average, true
		}
	}
	return 0, false
}

// FallbackDescriptions returns the top fallback descriptions in rank order.
func (s Snapshot) FallbackDescriptions() []string {
	out := make([]string, len(s.TopFallbackDescriptions))
	for i, d := range s.TopFallbackDescriptions {
		out[i] = d.Description
	}
	return out
}

// Summarize computes a Snapshot. topN <= 0 means DefaultTopN.
func Summarize(records []model.EnrichmentRecord, topN int) Snapshot {
	if topN <= 0 {
		topN = DefaultTopN
	}
	snap := Snapshot{
		Total:                      len(records),
		RuleHitDistribution:        Distribution{},
		TopFallbackDescriptions:    []DescriptionCount{},
		ClassificationDistribution: Distribution{},
		AvgConfidencePerRule:       []RuleConfidence{},
	}
	if len(records) == 0 {
		return snap
	}

	hits := newCounter()
	classes := newCounter()
	fallback := newCounter()
	confSum := make(map[string]float64)
	var total float64
	for _, r := range records {
		hits.add(r.RuleHit)
		classes.add(r.TransactionClassification)
		confSum[r.RuleHit] += r.Confidence
		total += r.Confidence
		if r.RuleHit == rules.RuleFallback {
			fallback.add(r.TransactionName)
		}
	}

	snap.RuleHitDistribution = hits.distribution(len(records))
	snap.ClassificationDistribution = classes.distribution(len(records))
	snap.FallbackPercentage = snap.RuleHitDistribution.Percent(rules.RuleFallback)

	for _, s := range snap.RuleHitDistribution {
		snap.AvgConfidencePerRule = append(snap.AvgConfidencePerRule, RuleConfidence{
			RuleHit: s.Key,
			Count:   s.Count,
			Average: confSum[s.Key] / float64(s.Count),
		})
	}

	for i, key := range fallback.ranked() {
		if i == topN {
			break
		}
		snap.TopFallbackDescriptions = append(snap.TopFallbackDescriptions, DescriptionCount{
			Description: key,
			Count:       fallback.counts[key],
		})
	}

	snap.AvgOverallConfidence = Average{Value: total / float64(len(records)), Valid: true}
	return snap
}

// counter counts keys and remembers first-seen order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// ranked returns keys by descending count, ties in first-seen order.
func (c *counter) ranked() []string {
	keys := append([]string(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	return keys
}

func (c *counter) distribution(total int) Distribution {
	d := make(Distribution, 0, len(c.order))
	for _, key := range c.ranked() {
		n := c.counts[key]
		d = append(d, Share{Key: key, Count: n, Percent: float64(n) * 100 / float64(total)})
	}
	return d
}
