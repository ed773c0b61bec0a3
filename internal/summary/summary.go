// Package summary reduces a session's finished attempts to per-block
// statistics.
package summary

import (
	"centerout/domain/trial"
	"centerout/ports"

	"github.com/montanaflynn/stats"
)

// Latency describes one timing distribution in milliseconds.
type Latency struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Block is the summary of one trial type.
type Block struct {
	Type        trial.Type     `json:"type"`
	Attempts    int            `json:"attempts"`
	Successes   int            `json:"successes"`
	Overshoots  int            `json:"overshoots"`
	SuccessRate float64        `json:"success_rate"`
	Reaction    Latency        `json:"reaction"`
	Movement    Latency        `json:"movement"`
	Failures    map[string]int `json:"failures,omitempty"`
}

// Summary covers a whole session.
type Summary struct {
	SessionID string  `json:"session_id"`
	Attempts  int     `json:"attempts"`
	Successes int     `json:"successes"`
	Blocks    []Block `json:"blocks"`
}

var blockOrder = []trial.Type{trial.Baseline, trial.Perturbation, trial.Washout}

// Build summarizes attempts. Latencies only include successful attempts.
func Build(sessionID string, attempts []ports.AttemptRecord) Summary {
	s := Summary{SessionID: sessionID}
	byType := make(map[trial.Type][]ports.AttemptRecord)
	for _, a := range attempts {
		byType[a.Type] = append(byType[a.Type], a)
		s.Attempts++
		if a.Success {
			s.Successes++
		}
	}
	for _, typ := range blockOrder {
		recs, ok := byType[typ]
		if !ok {
			continue
		}
		s.Blocks = append(s.Blocks, buildBlock(typ, recs))
	}
	return s
}

func buildBlock(typ trial.Type, recs []ports.AttemptRecord) Block {
	b := Block{Type: typ, Failures: make(map[string]int)}
	var reaction, movement []float64
	for _, r := range recs {
		b.Attempts++
		b.Overshoots += r.Overshoots
		if !r.Success {
			b.Failures[r.Reason]++
			continue
		}
		b.Successes++
		reaction = append(reaction, float64(r.ReactionMs))
		movement = append(movement, float64(r.MovementMs))
	}
	if b.Attempts > 0 {
		b.SuccessRate = float64(b.Successes) / float64(b.Attempts)
	}
	b.Reaction = describe(reaction)
	b.Movement = describe(movement)
	return b
}

// describe returns a zero Latency for an empty sample.
func describe(data []float64) Latency {
	if len(data) == 0 {
		return Latency{}
	}
	l := Latency{N: len(data)}
	l.Mean, _ = stats.Mean(data)
	l.Median, _ = stats.Median(data)
	l.P90, _ = stats.Percentile(data, 90)
	l.StdDev, _ = stats.StandardDeviation(data)
	l.Min, _ = stats.Min(data)
	l.Max, _ = stats.Max(data)
	return l
}
