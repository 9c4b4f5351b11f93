package perf

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Counter is a hardware or software event counted by perf stat.
type Counter int

const (
	CacheReferences Counter = iota
	CacheMisses
	Cycles
	Instructions
	Branches
	Faults
	Migrations
	FPX87         // r530110: x87 80-bit floating point operations
	FPPackedDP    // r531010: SSE packed double, two operations per event
	FPScalarSP    // r532010: one single-precision operation
	FPPackedSP    // r534010: SSE packed single, four operations per event
	FPScalarDP    // r538010: one double-precision operation
	numCounters
)

var _names = [numCounters]string{
	CacheReferences: "cache-references",
	CacheMisses:     "cache-misses",
	Cycles:          "cycles",
	Instructions:    "instructions",
	Branches:        "branches",
	Faults:          "faults",
	Migrations:      "migrations",
	FPX87:           "r530110",
	FPPackedDP:      "r531010",
	FPScalarSP:      "r532010",
	FPPackedSP:      "r534010",
	FPScalarDP:      "r538010",
}

var _byName = func() map[string]Counter {
	m := make(map[string]Counter, numCounters)
	for c, n := range _names {
		m[n] = Counter(c)
	}
	return m
}()

func (c Counter) String() string {
	if c.Valid() {
		return _names[c]
	}
	return fmt.Sprintf("counter(%d)", int(c))
}

// Valid reports whether c is one of the enumerated counters.
func (c Counter) Valid() bool { return c >= 0 && c < numCounters }

// All returns every counter requested from perf, in the order the -e flags are emitted.
func All() []Counter {
	out := make([]Counter, numCounters)
	for i := range out {
		out[i] = Counter(i)
	}
	return out
}

// ParseCounter maps a perf event name to its Counter.
func ParseCounter(name string) (Counter, error) {
	c, ok := _byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCounter, name)
	}
	return c, nil
}

func (c Counter) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCounter, int(c))
	}
	return []byte(c.String()), nil
}

func (c *Counter) UnmarshalText(b []byte) error {
	v, err := ParseCounter(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c *Counter) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return c.UnmarshalText([]byte(s))
}

// Readings maps counters to the values parsed from one perf run.
// Counters perf never reported are absent.
type Readings map[Counter]uint64

// Get returns the reading for c, or 0 when it was not reported.
func (r Readings) Get(c Counter) uint64 { return r[c] }

// Has reports whether perf printed a line for c.
func (r Readings) Has(c Counter) bool {
	_, ok := r[c]
	return ok
}
