package energy

import (
	"fmt"
	"math"
	"slices"

	"github.com/ja7ad/perfenergy/pkg/perf"
	"github.com/ja7ad/perfenergy/pkg/types"
)

// Profile holds the coefficients of one hardware target.
// Units:
//   - EnergyPerInst, EnergyPerOp, EnergyPerCacheAccess: picojoules per event
//   - EnergyPerMemBit: picojoules per bit moved to/from main memory
//   - LineBits: bits per memory line fetched on a cache miss
//   - InstrScale: events of InstrCounter per instruction-energy unit (IPC for cycles)
type Profile struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Memory      string `yaml:"memory" json:"memory"`

	InstrCounter  perf.Counter `yaml:"-" json:"instr_counter"`
	InstrScale    float64      `yaml:"instr_scale" json:"instr_scale"`
	EnergyPerInst float64      `yaml:"energy_per_inst" json:"energy_per_inst"`

	FP []FPTerm `yaml:"fp" json:"fp"`

	EnergyPerCacheAccess float64 `yaml:"energy_per_cache_access" json:"energy_per_cache_access"`
	LineBits             int     `yaml:"line_bits" json:"line_bits"`
	EnergyPerMemBit      float64 `yaml:"energy_per_mem_bit" json:"energy_per_mem_bit"`
}

// FPTerm weights one floating-point event class. Ops is how many underlying
// operations a single event stands for (including any precision scaling).
type FPTerm struct {
	Counter     perf.Counter `yaml:"counter" json:"counter"`
	Ops         float64      `yaml:"ops" json:"ops"`
	EnergyPerOp float64      `yaml:"energy_per_op" json:"energy_per_op"`
}

const (
	_cachelineBits = 64 * 8

	_xeonIPC                = 3
	_xeonEnergyPerInst      = 1000
	_xeonEnergyPerFP        = 190
	_xeonCyclesEnergyPerFP  = 3.7
	_xeonEnergyPerCacheAcc  = 100
	_ddr4EnergyPerBit       = 60
	_hbEnergyPerInst        = 9.4
	_hbEnergyPerFP16        = 0.72
	_hbEnergyPerFP32        = 1.6
	_hbEnergyPerCacheAccess = 100
	_hbm2EnergyPerBit       = 3.9
)

// x86FPTerms weights each raw FP event by the operations it represents.
func x86FPTerms(perOp float64) []FPTerm {
	return []FPTerm{
		{Counter: perf.FPX87, Ops: 1, EnergyPerOp: perOp},
		{Counter: perf.FPPackedDP, Ops: 2, EnergyPerOp: perOp},
		{Counter: perf.FPScalarSP, Ops: 1, EnergyPerOp: perOp},
		{Counter: perf.FPPackedSP, Ops: 4, EnergyPerOp: perOp},
		{Counter: perf.FPScalarDP, Ops: 1, EnergyPerOp: perOp},
	}
}

// Xeon is the general-purpose CPU profile driven by retired instructions.
func Xeon() Profile {
	return Profile{
		Name:                 "xeon",
		Description:          "Xeon CPU, instruction-driven, DDR4 memory",
		Memory:               "DDR4",
		InstrCounter:         perf.Instructions,
		InstrScale:           1,
		EnergyPerInst:        _xeonEnergyPerInst,
		FP:                   x86FPTerms(_xeonEnergyPerFP),
		EnergyPerCacheAccess: _xeonEnergyPerCacheAcc,
		LineBits:             _cachelineBits,
		EnergyPerMemBit:      _ddr4EnergyPerBit,
	}
}

// XeonCycles is the general-purpose CPU profile driven by cycles times a fixed IPC.
func XeonCycles() Profile {
	return Profile{
		Name:                 "xeon-cycles",
		Description:          "Xeon CPU, cycle-driven (IPC 3), DDR4 memory",
		Memory:               "DDR4",
		InstrCounter:         perf.Cycles,
		InstrScale:           _xeonIPC,
		EnergyPerInst:        _xeonEnergyPerInst,
		FP:                   x86FPTerms(_xeonCyclesEnergyPerFP),
		EnergyPerCacheAccess: _xeonEnergyPerCacheAcc,
		LineBits:             _cachelineBits,
		EnergyPerMemBit:      _ddr4EnergyPerBit,
	}
}

// HammerBlade is the accelerator profile. Scalar single precision is costed as
// fp16, x87 is scaled by 80/32 and packed double by 1.6 relative to fp32.
func HammerBlade() Profile {
	return Profile{
		Name:          "hammerblade",
		Description:   "HammerBlade manycore accelerator, HBM2 memory",
		Memory:        "HBM2",
		InstrCounter:  perf.Instructions,
		InstrScale:    1,
		EnergyPerInst: _hbEnergyPerInst,
		FP: []FPTerm{
			{Counter: perf.FPX87, Ops: 80.0 / 32.0, EnergyPerOp: _hbEnergyPerFP32},
			{Counter: perf.FPPackedDP, Ops: 1.6, EnergyPerOp: _hbEnergyPerFP32},
			{Counter: perf.FPScalarSP, Ops: 1, EnergyPerOp: _hbEnergyPerFP16},
			{Counter: perf.FPPackedSP, Ops: 4, EnergyPerOp: _hbEnergyPerFP32},
			{Counter: perf.FPScalarDP, Ops: 1, EnergyPerOp: _hbEnergyPerFP32},
		},
		EnergyPerCacheAccess: _hbEnergyPerCacheAccess,
		LineBits:             _cachelineBits,
		EnergyPerMemBit:      _hbm2EnergyPerBit,
	}
}

// Counters returns the counters the profile's formula reads, without duplicates.
func (p Profile) Counters() []perf.Counter {
	out := []perf.Counter{p.InstrCounter}
	for _, t := range p.FP {
		out = append(out, t.Counter)
	}
	out = append(out, perf.CacheReferences, perf.CacheMisses)
	slices.Sort(out)
	return slices.Compact(out)
}

// Validate checks that every counter the profile reads is requested from perf
// and that no coefficient is negative.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProfile)
	}
	requested := perf.All()
	for _, c := range p.Counters() {
		if !slices.Contains(requested, c) {
			return fmt.Errorf("%w: %s reads %s which is not requested from perf", ErrInvalidProfile, p.Name, c)
		}
	}
	if !coefficient(p.InstrScale) || !coefficient(p.EnergyPerInst) ||
		!coefficient(p.EnergyPerCacheAccess) || !coefficient(p.EnergyPerMemBit) || p.LineBits < 0 {
		return fmt.Errorf("%w: %s has a negative or non-finite coefficient", ErrInvalidProfile, p.Name)
	}
	for _, t := range p.FP {
		if !coefficient(t.Ops) || !coefficient(t.EnergyPerOp) {
			return fmt.Errorf("%w: %s has a negative or non-finite weight for %s", ErrInvalidProfile, p.Name, t.Counter)
		}
	}
	return nil
}

// coefficient reports whether x is a usable model coefficient: finite and >= 0.
func coefficient(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}

// Result is the energy split of one perf run, in picojoules.
type Result struct {
	Instructions  types.Energy `json:"instructions_pj"`
	FloatingPoint types.Energy `json:"floating_point_pj"`
	Cache         types.Energy `json:"cache_pj"`
	Memory        types.Energy `json:"memory_pj"`
	Total         types.Energy `json:"total_pj"`
}
