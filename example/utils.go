package example

import (
	"fmt"
	"strings"

	"github.com/patrikhermansson/thermal/simulation"
)

// FormatStages returns a one-line summary of stage timings.
func FormatStages(stages []simulation.Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = fmt.Sprintf("%s=%.3fs", s.Name, s.Duration.Seconds())
	}
	return strings.Join(parts, " ")
}

// Speedup returns the ratio of the baseline total time to the total time of res.
func Speedup(baseline, res ScalingResult) float64 {
	if res.Total <= 0 {
		return 0
	}
	return float64(baseline.Total) / float64(res.Total)
}
