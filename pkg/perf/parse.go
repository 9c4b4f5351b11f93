package perf

import (
	"log/slog"
	"strconv"
	"strings"
)

// ParseOutput extracts counter values from perf stat text output.
//
// A value line looks like
//
//	     1,234      cache-misses      #   12.34 % of all cache refs
//
// For every enumerated counter found as an exact token, the token right before it
// is read as the count after dropping thousands separators. When that token is not
// a number ("<not supported>", "<not counted>") the counter is recorded as 0 and the
// miss is logged. Counters that never appear stay absent from the result. A later
// line for the same counter overwrites an earlier one.
func ParseOutput(out string) Readings {
	r := make(Readings)

	// target output shares the stream, so lines have no length bound
	for line := range strings.Lines(out) {
		parseLine(line, r)
	}
	return r
}

func parseLine(line string, r Readings) {
	fields := strings.Fields(line)
	var seen [numCounters]bool
	for i, tok := range fields {
		c, ok := _byName[tok]
		if !ok || seen[c] {
			continue
		}
		seen[c] = true

		if i == 0 {
			slog.Info("could not collect stats", "counter", c.String())
			r[c] = 0
			continue
		}
		v, err := parseCount(fields[i-1])
		if err != nil {
			slog.Info("could not collect stats", "counter", c.String(), "value", fields[i-1])
			r[c] = 0
			continue
		}
		r[c] = v
	}
}

// parseCount parses a base-10 count printed with optional thousands separators.
func parseCount(s string) (uint64, error) {
	return strconv.ParseUint(strings.ReplaceAll(s, ",", ""), 10, 64)
}
