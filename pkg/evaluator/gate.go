package evaluator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/plantevolve-go/pkg/domain"
	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
)

// Stage names of the validity gate
const (
	StageContainment = "containment"
	StageOverlap     = "overlap"
)

// GateStage is one check of the validity gate
type GateStage struct {
	Name     string
	Critical bool
	check    func(ind genome.Individual) (violations int, penalty float64)
}

// GateReport describes how a candidate fared at the validity gate
type GateReport struct {
	Valid            bool    `json:"valid"`
	FailedStage      string  `json:"failed_stage,omitempty"`
	DomainViolations int     `json:"domain_violations"`
	OverlappingPairs int     `json:"overlapping_pairs"`
	Penalty          float64 `json:"penalty"`
}

// String returns a short summary for logs and notifications
func (r GateReport) String() string {
	if r.Valid {
		return "valid"
	}
	return fmt.Sprintf("failed %s: %d outside, %d overlapping pairs, penalty %.4g",
		r.FailedStage, r.DomainViolations, r.OverlappingPairs, r.Penalty)
}

// Gate runs a candidate through ordered stages: containment first, then
// overlap. A failing critical stage stops the gate; later stages are not
// run.
type Gate struct {
	stages []GateStage
	logger *logrus.Logger
}

// NewGate builds the standard two stage gate for the evaluator's domain
func (e *Evaluator) NewGate() *Gate {
	d := e.domain
	return &Gate{
		stages: []GateStage{
			{
				Name:     StageContainment,
				Critical: true,
				check: func(ind genome.Individual) (int, float64) {
					n := domain.CountOutside(d, ind)
					return n, float64(n)
				},
			},
			{
				Name:     StageOverlap,
				Critical: false,
				check: func(ind genome.Individual) (int, float64) {
					o := CalculateOverlap(ind.Genes())
					return o.OverlappingPairs, o.Penalty
				},
			},
		},
		logger: e.logger,
	}
}

// Stages returns the stage names in evaluation order
func (g *Gate) Stages() []string {
	names := make([]string, len(g.stages))
	for i, s := range g.stages {
		names[i] = s.Name
	}
	return names
}

// Check runs the gate. The candidate is valid only if every stage reports
// zero violations.
func (g *Gate) Check(ind genome.Individual) GateReport {
	report := GateReport{Valid: true}

	for _, stage := range g.stages {
		violations, penalty := stage.check(ind)
		switch stage.Name {
		case StageContainment:
			report.DomainViolations = violations
		case StageOverlap:
			report.OverlappingPairs = violations
		}
		report.Penalty += penalty

		if violations == 0 {
			continue
		}
		if report.Valid {
			report.Valid = false
			report.FailedStage = stage.Name
		}

		g.logger.WithFields(logrus.Fields{
			"stage":      stage.Name,
			"violations": violations,
			"penalty":    penalty,
		}).Debug("Gate stage failed")

		if stage.Critical {
			break
		}
	}

	return report
}
