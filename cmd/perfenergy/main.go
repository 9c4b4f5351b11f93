//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/perfenergy/pkg/energy"
	"github.com/ja7ad/perfenergy/pkg/perf"
	"github.com/ja7ad/perfenergy/pkg/system/host"
	"github.com/ja7ad/perfenergy/pkg/system/util"
)

type opts struct {
	// model
	profile      string
	profilesPath string
	override     energy.Override

	// measurement
	sudo   bool
	repeat int

	// outputs
	breakdown bool
	summary   bool
	csvPath   string
	jsonPath  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o opts

	root := &cobra.Command{
		Use:   "perfenergy [flags] <executable> [args...]",
		Short: "Estimate the energy of a program run from perf counters",
		Long: `The perfenergy tool runs a program under "perf stat", reads the hardware
event counts perf reports (instructions, cycles, cache references and misses,
raw floating-point events) and converts them into an energy estimate with a
linear per-hardware model.

Built-in profiles:
  xeon         Xeon CPU driven by retired instructions, DDR4 memory
  xeon-cycles  Xeon CPU driven by cycles x IPC 3, DDR4 memory
  hammerblade  HammerBlade manycore accelerator, HBM2 memory

Flags must come before the program; everything after it is passed through.

Examples:
  perfenergy ./a.out
  perfenergy -p hammerblade --breakdown python3 program.py
  perfenergy -r 5 --json out/run.json ./bench --size 1024`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), o, args)
		},
	}
	root.Flags().SetInterspersed(false)

	root.Flags().StringVarP(&o.profile, "profile", "p", "xeon", "energy profile to estimate with")
	root.Flags().StringVar(&o.profilesPath, "profiles", "", "YAML file with additional profiles")
	root.Flags().Float64Var(&o.override.EnergyPerInst, "e-inst", 0, "override energy per instruction (pJ)")
	root.Flags().Float64Var(&o.override.EnergyPerFP, "e-fp", 0, "override energy per floating-point operation (pJ)")
	root.Flags().Float64Var(&o.override.EnergyPerCacheAccess, "e-cache", 0, "override energy per cache access (pJ)")
	root.Flags().Float64Var(&o.override.EnergyPerMemBit, "e-mem-bit", 0, "override memory energy per bit (pJ)")
	root.Flags().IntVar(&o.override.LineBits, "line-bits", 0, "override memory line width (bits)")

	root.Flags().BoolVar(&o.sudo, "sudo", true, "run perf through sudo unless already root")
	root.Flags().IntVarP(&o.repeat, "repeat", "r", 1, "number of measured runs to average")

	root.Flags().BoolVar(&o.breakdown, "breakdown", false, "print the per-term breakdown to stderr")
	root.Flags().BoolVar(&o.summary, "summary", false, "print a host summary to stderr")
	root.Flags().StringVar(&o.csvPath, "csv", "", "write per-run counters and energy to CSV file")
	root.Flags().StringVar(&o.jsonPath, "json", "", "write the full report to JSON file")

	return root
}

func run(ctx context.Context, stdout, stderr io.Writer, o opts, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, _usage)
		return nil
	}
	if o.repeat < 1 {
		return fmt.Errorf("repeat must be >= 1")
	}

	// perf must be there before anything else happens
	runner, err := perf.NewRunner(o.sudo)
	if err != nil {
		return err
	}

	profile, err := resolveProfile(o)
	if err != nil {
		return err
	}

	if o.summary {
		s, err := host.Summarize(ctx)
		if err != nil {
			slog.Warn("host summary incomplete", "err", err)
		}
		fmt.Fprintf(stderr, _console, s.Host, s.Kernel, s.CPUModel, s.CPUs, s.MemHumanized(),
			profile.Name, profile.Description, time.Now().Format("2006-01-02 15:04:05"))
	}
	if len(profile.FP) > 0 && !host.RawFPEventsSupported(ctx) {
		slog.Info("raw floating-point events are Intel x86 encodings, the fp term is unreliable on this cpu")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep := report{
		At:      time.Now(),
		Command: args,
		Profile: profile,
	}
	acc := energy.NewAccumulator(profile)
	for i := 0; i < o.repeat; i++ {
		readings, err := runner.Measure(ctx, args)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("interrupted")
			}
			return fmt.Errorf("measure run %d: %w", i+1, err)
		}
		res := acc.Apply(readings)
		rep.Runs = append(rep.Runs, runRecord{Readings: readings, Energy: res})
	}
	rep.Average = acc.Averages()
	rep.AverageMicrojoules = rep.Average.Total.Microjoules()

	if o.jsonPath != "" {
		if err := writeJSON(o.jsonPath, rep); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	if o.csvPath != "" {
		if err := writeCSV(o.csvPath, rep); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if o.breakdown {
		printBreakdown(stderr, rep)
	}

	fmt.Fprintf(stdout, "%s microjoules\n", util.FmtFloat(rep.AverageMicrojoules))
	return nil
}

func resolveProfile(o opts) (energy.Profile, error) {
	reg := energy.NewRegistry()
	if o.profilesPath != "" {
		f, err := os.Open(o.profilesPath)
		if err != nil {
			return energy.Profile{}, fmt.Errorf("profiles: %w", err)
		}
		defer f.Close()
		if err := reg.LoadProfiles(f); err != nil {
			return energy.Profile{}, fmt.Errorf("profiles %s: %w", o.profilesPath, err)
		}
	}

	p, err := reg.Lookup(o.profile)
	if err != nil {
		return energy.Profile{}, err
	}
	p = o.override.Apply(p)
	if err := p.Validate(); err != nil {
		return energy.Profile{}, err
	}
	return p, nil
}

func printBreakdown(w io.Writer, rep report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tINSTR\tFP\tCACHE\tMEMORY\tTOTAL\tIPC\tMISS RATIO")
	fmt.Fprintln(tw, "---\t-----\t--\t-----\t------\t-----\t---\t----------")
	for i, r := range rep.Runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.3f\t%.4f\n", i+1,
			r.Energy.Instructions.Humanized(), r.Energy.FloatingPoint.Humanized(),
			r.Energy.Cache.Humanized(), r.Energy.Memory.Humanized(), r.Energy.Total.Humanized(),
			util.Ratio(r.Readings.Get(perf.Instructions), r.Readings.Get(perf.Cycles)),
			util.Clamp01(util.Ratio(r.Readings.Get(perf.CacheMisses), r.Readings.Get(perf.CacheReferences))),
		)
	}
	avg := rep.Average
	fmt.Fprintf(tw, "avg\t%s\t%s\t%s\t%s\t%s\t\t\n",
		avg.Instructions.Humanized(), avg.FloatingPoint.Humanized(),
		avg.Cache.Humanized(), avg.Memory.Humanized(), avg.Total.Humanized())
	tw.Flush()
}

const _usage = `Usage options:
1) If testing ordinary executable:
       perfenergy <executable>
2) If testing Python program:
       perfenergy python3 <program.py>
`

const _console = `PerfEnergy - perf based energy estimation

       Host: %s
       Kernel: %s
       CPU: %s (%d logical)
       Mem: %s
       Profile: %s (%s)

Measurement as of %s:

`
