//go:build linux

package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/perfenergy/pkg/perf"
)

const _fakeStat = `echo " Performance counter stats for 'true':" >&2
echo "             1,000      instructions" >&2
echo "                10      cache-references" >&2
echo "                 2      cache-misses" >&2
echo "   <not supported>      cycles" >&2
echo "                 0      r530110" >&2`

// installPerf puts a fake perf on an otherwise empty PATH. It also records every
// invocation in calls.log so tests can count spawned processes.
func installPerf(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	script := "#!/bin/sh\necho run >> " + filepath.Join(dir, "calls.log") + "\n" + _fakeStat + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "perf"), []byte(script), 0o755))
	t.Setenv("PATH", dir)
	return dir
}

func calls(t *testing.T, dir string) int {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "calls.log"))
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return bytes.Count(b, []byte("run\n"))
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func microjoules(t *testing.T, line string) float64 {
	t.Helper()
	v, ok := strings.CutSuffix(line, " microjoules\n")
	require.True(t, ok, "unexpected result line %q", line)
	f, err := strconv.ParseFloat(v, 64)
	require.NoError(t, err)
	return f
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	dir := installPerf(t)

	out, _, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage options:")
	assert.Contains(t, out, "1) If testing ordinary executable:")
	assert.Contains(t, out, "2) If testing Python program:")
	assert.Equal(t, 0, calls(t, dir), "perf must not be invoked")
}

func TestRun_PerfMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	marker := filepath.Join(dir, "spawned")

	out, _, err := execute(t, "--sudo=false", "/bin/sh", "-c", "touch "+marker)
	require.ErrorIs(t, err, perf.ErrPerfNotFound)
	assert.Empty(t, out)
	assert.NoFileExists(t, marker)
}

func TestRun_XeonEstimate(t *testing.T) {
	dir := installPerf(t)

	out, _, err := execute(t, "--sudo=false", "true")
	require.NoError(t, err)
	assert.Equal(t, "1.06244 microjoules\n", out)
	assert.Equal(t, 1, calls(t, dir))
}

func TestRun_ProfilesDiffer(t *testing.T) {
	installPerf(t)

	xeon, _, err := execute(t, "--sudo=false", "-p", "xeon", "true")
	require.NoError(t, err)
	hb, _, err := execute(t, "--sudo=false", "-p", "hammerblade", "true")
	require.NoError(t, err)

	// 1000*9.4 + 10*100 + 2*512*3.9 = 14393.6 pJ
	assert.InDelta(t, 0.0143936, microjoules(t, hb), 1e-12)
	assert.NotEqual(t, microjoules(t, xeon), microjoules(t, hb))
}

func TestRun_TargetFlagsPassThrough(t *testing.T) {
	installPerf(t)

	out, _, err := execute(t, "--sudo=false", "python3", "prog.py", "--profile", "nope", "-r", "0")
	require.NoError(t, err)
	assert.Equal(t, "1.06244 microjoules\n", out)
}

func TestRun_Overrides(t *testing.T) {
	installPerf(t)

	// 1000*1 + 10*100 + 2*1024*60
	out, _, err := execute(t, "--sudo=false", "--e-inst", "1", "--line-bits", "1024", "true")
	require.NoError(t, err)
	assert.Equal(t, "0.12488 microjoules\n", out)
}

func TestRun_UnknownProfile(t *testing.T) {
	dir := installPerf(t)

	out, _, err := execute(t, "--sudo=false", "-p", "tpu", "true")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile")
	assert.Empty(t, out)
	assert.Equal(t, 0, calls(t, dir))
}

func TestRun_ProfilesFile(t *testing.T) {
	dir := installPerf(t)
	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`profiles:
  - name: tiny
    energy_per_inst: 1
    energy_per_cache_access: 1
    line_bits: 8
    energy_per_mem_bit: 1
`), 0o644))

	// 1000 + 10 + 2*8
	out, _, err := execute(t, "--sudo=false", "--profiles", path, "-p", "tiny", "true")
	require.NoError(t, err)
	assert.Equal(t, "0.001026 microjoules\n", out)
}

func TestRun_RepeatAndReports(t *testing.T) {
	dir := installPerf(t)
	jsonPath := filepath.Join(dir, "out", "report.json")
	csvPath := filepath.Join(dir, "out", "report.csv")

	out, errOut, err := execute(t, "--sudo=false", "-r", "3", "--breakdown",
		"--json", jsonPath, "--csv", csvPath, "true")
	require.NoError(t, err)
	assert.Equal(t, "1.06244 microjoules\n", out)
	assert.Equal(t, 3, calls(t, dir))
	assert.Contains(t, errOut, "MISS RATIO")
	t.Logf("breakdown:\n%s", errOut)

	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var rep report
	require.NoError(t, json.Unmarshal(b, &rep))
	require.Len(t, rep.Runs, 3)
	assert.Equal(t, []string{"true"}, rep.Command)
	assert.Equal(t, "xeon", rep.Profile.Name)
	assert.Equal(t, perf.Instructions, rep.Profile.InstrCounter)
	assert.Equal(t, uint64(1000), rep.Runs[0].Readings.Get(perf.Instructions))
	assert.True(t, rep.Runs[0].Readings.Has(perf.Cycles))
	assert.InDelta(t, 1.06244, rep.AverageMicrojoules, 1e-12)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "run", rows[0][0])
	assert.Equal(t, "total_pj", rows[0][len(rows[0])-1])
	assert.Equal(t, "1062440", rows[1][len(rows[1])-1])
}

func TestRun_BadRepeat(t *testing.T) {
	dir := installPerf(t)

	_, _, err := execute(t, "--sudo=false", "-r", "0", "true")
	require.Error(t, err)
	assert.Equal(t, 0, calls(t, dir))
}
