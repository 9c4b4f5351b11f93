//go:build linux

package main

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ja7ad/perfenergy/pkg/energy"
	"github.com/ja7ad/perfenergy/pkg/perf"
	"github.com/ja7ad/perfenergy/pkg/system/util"
)

type report struct {
	At                 time.Time      `json:"time"`
	Command            []string       `json:"command"`
	Profile            energy.Profile `json:"profile"`
	Runs               []runRecord    `json:"runs"`
	Average            energy.Result  `json:"average"`
	AverageMicrojoules float64        `json:"average_uj"`
}

type runRecord struct {
	Readings perf.Readings `json:"readings"`
	Energy   energy.Result `json:"energy"`
}

func writeJSON(path string, rep report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func writeCSV(path string, rep report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"run"}
	for _, c := range perf.All() {
		header = append(header, c.String())
	}
	header = append(header, "instructions_pj", "floating_point_pj", "cache_pj", "memory_pj", "total_pj")
	if err := w.Write(header); err != nil {
		return err
	}

	for i, r := range rep.Runs {
		row := []string{strconv.Itoa(i + 1)}
		for _, c := range perf.All() {
			row = append(row, strconv.FormatUint(r.Readings.Get(c), 10))
		}
		row = append(row,
			util.FmtFloat(r.Energy.Instructions.Picojoules()),
			util.FmtFloat(r.Energy.FloatingPoint.Picojoules()),
			util.FmtFloat(r.Energy.Cache.Picojoules()),
			util.FmtFloat(r.Energy.Memory.Picojoules()),
			util.FmtFloat(r.Energy.Total.Picojoules()),
		)
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
