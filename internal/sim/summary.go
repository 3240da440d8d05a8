package sim

import (
	"encoding/json"
	"fmt"
)

// interventionWindow is the number of days on each side of the
// intervention day averaged for the effect estimate.
const interventionWindow = 30

// ClaimSummary aggregates one claim's trajectory.
type ClaimSummary struct {
	Name              string  `json:"name"`
	IsTrue            bool    `json:"is_true"`
	PeakDay           int     `json:"peak_day"`
	PeakAdoption      float64 `json:"peak_adoption"`
	FinalAdoption     float64 `json:"final_adoption"`
	FinalPolarization float64 `json:"final_polarization"`
}

// Summary is the end-of-run report persisted with the run row.
type Summary struct {
	RunID         string         `json:"run_id"`
	Seed          int64          `json:"seed"`
	Days          int            `json:"days"`
	TruthAdopters int            `json:"truth_adopters"`
	Claims        []ClaimSummary `json:"claims"`

	// InterventionEffect is the change in mean false-claim adoption
	// across the intervention day, nil when no intervention was scheduled.
	InterventionEffect *float64 `json:"intervention_effect,omitempty"`
}

// JSON renders the summary for storage and the CLI.
func (s *Summary) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sim: encode summary: %w", err)
	}
	return data, nil
}

func (e *Engine) buildSummary(runID string) *Summary {
	s := &Summary{
		RunID: runID,
		Seed:  e.cfg.Sim.Seed,
		Days:  len(e.adoptionHistory),
	}
	for _, adopted := range e.state.TruthAdopters {
		if adopted {
			s.TruthAdopters++
		}
	}

	for k := 0; k < e.state.NClaims; k++ {
		cs := ClaimSummary{Name: e.claimNames[k], IsTrue: e.truthMask[k]}
		for day, adoption := range e.adoptionHistory {
			if adoption[k] > cs.PeakAdoption {
				cs.PeakAdoption = adoption[k]
				cs.PeakDay = day
			}
		}
		if len(e.adoptionHistory) > 0 {
			cs.FinalAdoption = e.adoptionHistory[len(e.adoptionHistory)-1][k]
		}
		if e.lastPolarization != nil {
			cs.FinalPolarization = e.lastPolarization[k]
		}
		s.Claims = append(s.Claims, cs)
	}

	if d := e.cfg.World.InterventionDay; d != nil {
		if effect, ok := e.interventionEffect(*d); ok {
			s.InterventionEffect = &effect
		}
	}
	return s
}

// interventionEffect compares mean false-claim adoption in the windows
// before and after the intervention day.
func (e *Engine) interventionEffect(day int) (float64, bool) {
	if day <= 0 || day >= len(e.adoptionHistory) {
		return 0, false
	}
	mean := func(from, to int) (float64, int) {
		var sum float64
		count := 0
		for d := from; d < to; d++ {
			if d < 0 || d >= len(e.adoptionHistory) {
				continue
			}
			for k, adoption := range e.adoptionHistory[d] {
				if !e.truthMask[k] {
					sum += adoption
					count++
				}
			}
		}
		return sum, count
	}
	beforeSum, beforeN := mean(day-interventionWindow, day)
	afterSum, afterN := mean(day, day+interventionWindow)
	if beforeN == 0 || afterN == 0 {
		return 0, false
	}
	return afterSum/float64(afterN) - beforeSum/float64(beforeN), true
}
