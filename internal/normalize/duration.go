package normalize

import (
	"fmt"
	"regexp"
	"strconv"
)

// The vendor writes durations as ISO-8601 time strings, pattern PT#H#M.
var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// parseISODuration returns total minutes, or false when the string does not
// match the PT#H#M pattern.
func parseISODuration(s string) (int, bool) {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	total := 0
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		total += h * 60
	}
	if m[2] != "" {
		mins, _ := strconv.Atoi(m[2])
		total += mins
	}
	return total, true
}

// formatMinutes renders total minutes as "#h #m".
func formatMinutes(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// offerDuration prefers a flight-level total when the vendor supplies one,
// else sums per-segment durations.
func offerDuration(flight map[string]any, segments []map[string]any) string {
	if flight != nil {
		if t := firstStr(flight, "Journey.Time", "Journey.TotalJourney.Time"); t != "" {
			if mins, ok := parseISODuration(t); ok {
				return formatMinutes(mins)
			}
		}
	}
	sum := 0
	for _, seg := range segments {
		if mins, ok := parseISODuration(segmentDurationRaw(seg)); ok {
			sum += mins
		}
	}
	return formatMinutes(sum)
}

func segmentDurationRaw(seg map[string]any) string {
	return firstStr(seg, "FlightDetail.FlightDuration.Value", "FlightDetail.FlightDuration", "Duration")
}

// segmentDuration renders one leg's duration, "0h 0m" when absent.
func segmentDuration(seg map[string]any) string {
	if mins, ok := parseISODuration(segmentDurationRaw(seg)); ok {
		return formatMinutes(mins)
	}
	return formatMinutes(0)
}

// totalMinutes parses a "#h #m" string back into minutes; used by the
// amenity heuristics. Returns 0 on anything unexpected.
func totalMinutes(formatted string) int {
	var h, m int
	if _, err := fmt.Sscanf(formatted, "%dh %dm", &h, &m); err != nil {
		return 0
	}
	return h*60 + m
}
