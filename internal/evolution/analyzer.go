// Package evolution derives trend and stability information from a
// file's retrieved revision history and selects the template generation
// used to guide reconstruction.
package evolution

import (
	"fmt"

	"mender/internal/consistency"
	"mender/internal/history"
	"mender/internal/model"
)

// Trend describes the direction of a metric across generations.
type Trend string

const (
	Increasing Trend = "increasing"
	Decreasing Trend = "decreasing"
	Stable     Trend = "stable"
)

// EvolutionProfile summarizes a file's revision history. Generation 0
// is the most recent retrieved revision.
type EvolutionProfile struct {
	Path                   string                   `json:"path"`
	Revisions              []history.RevisionRecord `json:"-"`
	Generations            int                      `json:"generations"`
	SizeTrend              Trend                    `json:"sizeTrend"`
	StructureTrend         Trend                    `json:"structureTrend"`
	ComplexityTrend        Trend                    `json:"complexityTrend"`
	StabilityScore         float64                  `json:"stabilityScore"`
	BestTemplateGeneration int                      `json:"bestTemplateGeneration"`
}

// Template returns the revision chosen as the structural reference.
func (p *EvolutionProfile) Template() *history.RevisionRecord {
	return &p.Revisions[p.BestTemplateGeneration]
}

// Analyze builds an EvolutionProfile from at least one revision.
// Trend fields are meaningful only with two or more generations;
// with a single generation everything is stable and the stability
// score defaults to 1.0.
func Analyze(revisions []history.RevisionRecord) (*EvolutionProfile, error) {
	if len(revisions) == 0 {
		return nil, fmt.Errorf("evolution analysis requires at least one revision")
	}

	profile := &EvolutionProfile{
		Path:            revisions[0].Model.Path,
		Revisions:       revisions,
		Generations:     len(revisions),
		SizeTrend:       Stable,
		StructureTrend:  Stable,
		ComplexityTrend: Stable,
		StabilityScore:  1.0,
	}

	if len(revisions) >= 2 {
		newest := revisions[0].Model
		oldest := revisions[len(revisions)-1].Model

		profile.SizeTrend = trendOf(oldest.LineCount, newest.LineCount)
		profile.StructureTrend = trendOf(oldest.NamedEntityCount(), newest.NamedEntityCount())
		profile.ComplexityTrend = trendOf(oldest.Complexity.Cyclomatic, newest.Complexity.Cyclomatic)
		profile.StabilityScore = stabilityScore(revisions)
	}

	profile.BestTemplateGeneration = bestTemplate(revisions)
	return profile, nil
}

// trendOf compares the oldest generation's metric against the newest.
func trendOf(oldest, newest int) Trend {
	switch {
	case newest > oldest:
		return Increasing
	case newest < oldest:
		return Decreasing
	default:
		return Stable
	}
}

// stabilityScore is the mean structural similarity between each
// adjacent generation pair.
func stabilityScore(revisions []history.RevisionRecord) float64 {
	total := 0.0
	pairs := 0
	for i := 0; i+1 < len(revisions); i++ {
		total += consistency.Similarity(revisions[i].Model, revisions[i+1].Model)
		pairs++
	}
	return total / float64(pairs)
}

// bestTemplate prefers the most recent generation that parsed fully;
// when no generation is valid it falls back to generation 0.
func bestTemplate(revisions []history.RevisionRecord) int {
	for i, rev := range revisions {
		if rev.Model.Status == model.FullParseOk {
			return i
		}
	}
	return 0
}
