package commands

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ParseLogFile reads the last N lines from the log file and extracts the
// most recent batch run
func ParseLogFile(logPath string, maxLines int) ([]string, time.Time, int) {
	content, err := os.ReadFile(logPath)
	if err != nil {
		return nil, time.Time{}, 0
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	startIdx := 0
	if len(lines) > maxLines {
		startIdx = len(lines) - maxLines
	}
	recentLines := lines[startIdx:]

	var lastBatch time.Time
	converted := 0

	// Scan the whole file: the last batch may be older than the tail
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !strings.Contains(line, "batch completed") {
			continue
		}

		// Format: 2025-11-27 14:11:57 INFO batch completed converted=2 ...
		if len(line) > 19 {
			if t, err := time.ParseInLocation(time.DateTime, line[:19], time.Local); err == nil {
				lastBatch = t
			}
		}

		if idx := strings.Index(line, "converted="); idx != -1 {
			_, _ = fmt.Sscanf(line[idx:], "converted=%d", &converted) //nolint:errcheck // best effort parsing
		}
		break
	}

	return recentLines, lastBatch, converted
}
