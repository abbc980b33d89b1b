package chapters

import "time"

// ProcessingStats aggregates cut outcomes across a run.
type ProcessingStats struct {
	TotalChapters  int
	Processed      int
	Skipped        int
	Failed         int
	TotalDurationS float64
	ProcessingTime time.Duration
}

// Add folds one cut result into the totals.
func (s *ProcessingStats) Add(result CutResult) {
	s.TotalChapters++
	s.ProcessingTime += result.ProcessingTime
	switch {
	case result.Status != CutOK:
		s.Failed++
	case result.Skipped:
		s.Skipped++
		s.TotalDurationS += result.ExpectedDurationS
	default:
		s.Processed++
		s.TotalDurationS += result.ExpectedDurationS
	}
}

// SuccessRate returns the percentage of chapters that ended OK.
func (s ProcessingStats) SuccessRate() float64 {
	if s.TotalChapters == 0 {
		return 0
	}
	return float64(s.Processed+s.Skipped) / float64(s.TotalChapters) * 100
}
