// Package consistency compares SourceModels from different sources
// (working copy, last commit, persisted registry) and reports
// structural drift. The analyzer is advisory only; it never fails a
// pipeline run.
package consistency

import (
	"fmt"

	"mender/internal/model"
)

// Analyzer produces consistency reports between pairs of models.
type Analyzer struct {
	driftThreshold float64
	domains        *DomainManifest
}

// NewAnalyzer creates a consistency analyzer. domains may be nil when
// no domain manifest exists.
func NewAnalyzer(driftThreshold float64, domains *DomainManifest) *Analyzer {
	return &Analyzer{
		driftThreshold: driftThreshold,
		domains:        domains,
	}
}

// Compare builds a drift report for two models of (nominally) the same
// file.
func (a *Analyzer) Compare(x, y *model.SourceModel) *model.ConsistencyReport {
	report := &model.ConsistencyReport{
		PathA:      x.Path,
		PathB:      y.Path,
		Similarity: Similarity(x, y),
	}

	if report.Similarity < a.driftThreshold {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("structural similarity %.2f is below %.2f; review whether %s drifted from its recorded structure",
				report.Similarity, a.driftThreshold, x.Path))
	}
	if x.Status != model.FullParseOk {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%s was recovered via %s; re-validate before persisting", x.Path, x.Status))
	}
	if a.domains != nil {
		if domain, ok := a.domains.Match(x.Path); ok {
			report.DomainMatch = domain
		}
	}

	return report
}

// Similarity is the overlap ratio of named functions and classes:
// shared names divided by the total entity count of both models.
// Two models with identical name sets score 1.0, and so does a pair
// with no named entities at all.
func Similarity(a, b *model.SourceModel) float64 {
	aFuncs, bFuncs := a.FunctionNames(), b.FunctionNames()
	aClasses, bClasses := a.ClassNames(), b.ClassNames()

	denominator := len(a.Functions) + len(a.Classes) + len(b.Functions) + len(b.Classes)
	if denominator == 0 {
		return 1.0
	}
	if sameNames(aFuncs, bFuncs) && sameNames(aClasses, bClasses) {
		return 1.0
	}

	shared := 0
	for name := range aFuncs {
		if bFuncs[name] {
			shared++
		}
	}
	for name := range aClasses {
		if bClasses[name] {
			shared++
		}
	}

	return float64(shared) / float64(denominator)
}

func sameNames(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for name := range a {
		if !b[name] {
			return false
		}
	}
	return true
}
