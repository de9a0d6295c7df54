package scheduler

import (
	"fmt"
	"time"
)

const secondsPerDay = 86400

// ComputeInterval returns the wait between cycle starts. A runsPerDay of 0
// means a single cycle and reports once=true.
func ComputeInterval(runsPerDay int) (time.Duration, bool, error) {
	if runsPerDay < 0 {
		return 0, false, fmt.Errorf("invalid runsPerDay: %d", runsPerDay)
	}
	if runsPerDay == 0 {
		return 0, true, nil
	}
	return time.Duration(secondsPerDay/runsPerDay) * time.Second, false, nil
}
