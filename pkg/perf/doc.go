// Package perf drives the Linux perf stat tool and turns its text output into
// counter readings for the energy models in pkg/energy.
//
// Overview
//
//   - Counters: a fixed, enumerated set of events (Counter) always requested
//     together. The set covers generic hardware events (cache-references,
//     cache-misses, cycles, instructions, branches), software events (faults,
//     migrations) and five raw Intel floating-point event codes:
//
//     r530110 : x87 80-bit floating point
//     r531010 : SSE packed double (2 operations per event)
//     r532010 : scalar single precision
//     r534010 : SSE packed single (4 operations per event)
//     r538010 : scalar double precision
//
//   - Runner (linux only): resolves perf and optionally sudo at construction,
//     then runs "perf stat -B -e <event>... -- <target>" and captures combined
//     stdout/stderr.
//
//   - ParseOutput: line/token scanner. For every counter name found as an exact
//     token the preceding token is the value. Unsupported counters read as 0
//     and are logged at info level; counters perf never printed stay absent
//     from Readings, and Readings.Get returns 0 for them.
//
//   - Errors (errs.go):
//     ErrPerfNotFound   : perf is not on PATH
//     ErrSudoNotFound   : elevation requested but sudo is not on PATH
//     ErrNoCommand      : Run called with an empty target
//     ErrUnknownCounter : event name outside the enumerated set
package perf
