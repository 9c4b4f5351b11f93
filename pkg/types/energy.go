package types

import "fmt"

// Energy is an amount of energy in picojoules.
type Energy float64

const (
	Picojoule  Energy = 1
	Nanojoule         = 1e3 * Picojoule
	Microjoule        = 1e3 * Nanojoule
	Millijoule        = 1e3 * Microjoule
	Joule             = 1e3 * Millijoule
)

// Humanized returns a human-readable string with automatic unit (pJ, nJ, uJ, mJ, J).
func (e Energy) Humanized() string {
	v := float64(e)
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= float64(Joule):
		return fmt.Sprintf("%.2f J", v/float64(Joule))
	case abs >= float64(Millijoule):
		return fmt.Sprintf("%.2f mJ", v/float64(Millijoule))
	case abs >= float64(Microjoule):
		return fmt.Sprintf("%.2f uJ", v/float64(Microjoule))
	case abs >= float64(Nanojoule):
		return fmt.Sprintf("%.2f nJ", v/float64(Nanojoule))
	default:
		return fmt.Sprintf("%.2f pJ", v)
	}
}

// Picojoules returns the raw value.
func (e Energy) Picojoules() float64 { return float64(e) }

// Microjoules returns the energy in microjoules.
func (e Energy) Microjoules() float64 { return float64(e) / float64(Microjoule) }

// Joules returns the energy in joules.
func (e Energy) Joules() float64 { return float64(e) / float64(Joule) }
