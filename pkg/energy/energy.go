package energy

import (
	"github.com/ja7ad/perfenergy/pkg/perf"
	"github.com/ja7ad/perfenergy/pkg/types"
)

// Estimate evaluates the profile's linear model on one set of readings:
//
//	E = n(instr)*scale*e_inst + sum(n(fp_i)*ops_i*e_op_i)
//	  + n(cache-references)*e_cache + n(cache-misses)*line_bits*e_bit
//
// Counters missing from r count as zero.
func Estimate(r perf.Readings, p Profile) Result {
	instr := float64(r.Get(p.InstrCounter)) * p.InstrScale * p.EnergyPerInst

	var fp float64
	for _, t := range p.FP {
		fp += float64(r.Get(t.Counter)) * t.Ops * t.EnergyPerOp
	}

	cache := float64(r.Get(perf.CacheReferences)) * p.EnergyPerCacheAccess
	mem := float64(r.Get(perf.CacheMisses)) * float64(p.LineBits) * p.EnergyPerMemBit

	return Result{
		Instructions:  types.Energy(instr),
		FloatingPoint: types.Energy(fp),
		Cache:         types.Energy(cache),
		Memory:        types.Energy(mem),
		Total:         types.Energy(instr + fp + cache + mem),
	}
}

// Accumulator keeps running energy and averages over repeated runs.
type Accumulator struct {
	profile Profile
	count   int
	sum     Result
}

// NewAccumulator creates an accumulator estimating with p.
func NewAccumulator(p Profile) *Accumulator {
	return &Accumulator{profile: p}
}

// Profile returns the profile the accumulator estimates with.
func (a *Accumulator) Profile() Profile { return a.profile }

// Apply estimates one run and adds it to the running sums.
func (a *Accumulator) Apply(r perf.Readings) Result {
	res := Estimate(r, a.profile)

	a.count++
	a.sum.Instructions += res.Instructions
	a.sum.FloatingPoint += res.FloatingPoint
	a.sum.Cache += res.Cache
	a.sum.Memory += res.Memory
	a.sum.Total += res.Total

	return res
}

// Runs returns the number of applied runs.
func (a *Accumulator) Runs() int { return a.count }

// EnergyCum returns the summed energy of all runs.
func (a *Accumulator) EnergyCum() types.Energy { return a.sum.Total }

// Averages returns the per-run average split.
func (a *Accumulator) Averages() Result {
	if a.count == 0 {
		return Result{}
	}
	n := types.Energy(a.count)
	return Result{
		Instructions:  a.sum.Instructions / n,
		FloatingPoint: a.sum.FloatingPoint / n,
		Cache:         a.sum.Cache / n,
		Memory:        a.sum.Memory / n,
		Total:         a.sum.Total / n,
	}
}
