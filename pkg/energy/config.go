package energy

import (
	"fmt"
	"io"
	"slices"

	"github.com/ja7ad/perfenergy/pkg/perf"
	"gopkg.in/yaml.v3"
)

// Override holds coefficient overrides applied on top of a profile.
// Fields > 0 replace the profile's value; zero or negative means "keep".
type Override struct {
	EnergyPerInst        float64
	EnergyPerFP          float64 // replaces EnergyPerOp of every FP term
	EnergyPerCacheAccess float64
	EnergyPerMemBit      float64
	LineBits             int
}

// Apply returns a copy of p with the positive fields of o merged in.
func (o Override) Apply(p Profile) Profile {
	merged := p
	merged.FP = slices.Clone(p.FP)

	if o.EnergyPerInst > 0 {
		merged.EnergyPerInst = o.EnergyPerInst
	}
	if o.EnergyPerFP > 0 {
		for i := range merged.FP {
			merged.FP[i].EnergyPerOp = o.EnergyPerFP
		}
	}
	if o.EnergyPerCacheAccess > 0 {
		merged.EnergyPerCacheAccess = o.EnergyPerCacheAccess
	}
	if o.EnergyPerMemBit > 0 {
		merged.EnergyPerMemBit = o.EnergyPerMemBit
	}
	if o.LineBits > 0 {
		merged.LineBits = o.LineBits
	}
	return merged
}

// Builtin returns the compiled-in profiles.
func Builtin() []Profile {
	return []Profile{Xeon(), XeonCycles(), HammerBlade()}
}

// Profiles returns the built-in profiles; it is an alias of Builtin.
func Profiles() []Profile { return Builtin() }

// Names lists the built-in profile names.
func Names() []string { return NewRegistry().Names() }

// Lookup returns the built-in profile called name.
func Lookup(name string) (Profile, error) { return NewRegistry().Lookup(name) }

// Registry resolves profiles by name.
type Registry struct {
	profiles []Profile
}

// NewRegistry creates a registry holding the built-in profiles.
func NewRegistry() *Registry {
	return &Registry{profiles: Builtin()}
}

// Add validates p and registers it. Names must be unique.
func (r *Registry) Add(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := r.Lookup(p.Name); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
	}
	r.profiles = append(r.profiles, p)
	return nil
}

// Lookup returns the profile called name.
func (r *Registry) Lookup(name string) (Profile, error) {
	for _, p := range r.profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownProfile, name, r.Names())
}

// Names lists registered profile names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		out[i] = p.Name
	}
	return out
}

// profileFile is the YAML layout read by LoadProfiles:
//
//	profiles:
//	  - name: mychip
//	    memory: LPDDR5
//	    instr_counter: instructions
//	    instr_scale: 1
//	    energy_per_inst: 12
//	    fp:
//	      - {counter: r532010, ops: 1, energy_per_op: 0.9}
//	    energy_per_cache_access: 50
//	    line_bits: 512
//	    energy_per_mem_bit: 4.5
//
// instr_counter defaults to instructions and instr_scale to 1.
type profileFile struct {
	Profiles []profileSpec `yaml:"profiles"`
}

type profileSpec struct {
	Profile      `yaml:",inline"`
	InstrCounter *perf.Counter `yaml:"instr_counter"`
}

// LoadProfiles reads profiles from YAML and adds them to the registry.
func (r *Registry) LoadProfiles(in io.Reader) error {
	var f profileFile
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode profiles: %w", err)
	}
	for _, spec := range f.Profiles {
		p := spec.Profile
		p.InstrCounter = perf.Instructions
		if spec.InstrCounter != nil {
			p.InstrCounter = *spec.InstrCounter
		}
		if p.InstrScale == 0 {
			p.InstrScale = 1
		}
		if err := r.Add(p); err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
	}
	return nil
}
