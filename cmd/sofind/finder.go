package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sofind/sofind/internal/elf"
	"github.com/sofind/sofind/internal/log"
	"github.com/sofind/sofind/internal/model"
	"github.com/sofind/sofind/internal/report"
	"github.com/sofind/sofind/internal/scan"
	"github.com/sofind/sofind/internal/walk"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Finder wires the walker, the scanner and the report together for one
// invocation.
type Finder struct {
	root     *os.Root
	scanner  *scan.Scanner
	patterns []string
	symbol   string
	all      bool
}

// NewFinder validates the configuration and opens the scan root. Every
// error returned here is fatal, the scan has not started yet.
func NewFinder(cfg model.Scan, dir, symbol string) (*Finder, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol name must not be empty")
	}
	machine, err := elf.MachineByName(cfg.Machine)
	if err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("opening scan root: %w", err)
	}

	scanner := scan.New(symbol, scan.Options{
		Jobs:        cfg.Jobs,
		MaxFileSize: cfg.MaxFileSize,
		Machine:     machine,
	})
	return &Finder{
		root:     root,
		scanner:  scanner,
		patterns: cfg.Patterns,
		symbol:   symbol,
		all:      cfg.All,
	}, nil
}

// Do runs the scan, streaming each confirmed match to out as one path per
// line, and returns the final report. Per-file failures are folded into
// the report and logged as warnings; they never fail the run. Unless all
// matches were requested, the first match stops dispatch of new files
// while scans already in flight finish and still count.
func (f *Finder) Do(ctx context.Context, out io.Writer) (*report.Report, error) {
	defer func() {
		_ = f.root.Close()
	}()

	seq := walk.Match(walk.Roots(ctx, f.root), f.patterns)
	run := f.scanner.Do(ctx, seq)

	rep := report.New()
	for res := range run.Results() {
		if rep.Fold(res) {
			fmt.Fprintf(out, "[*] %s\n", res.Path)
			if !f.all {
				run.Stop()
			}
			continue
		}
		if res.Err != nil && !errors.Is(res.Err, model.ErrNotELF) && !errors.Is(res.Err, model.ErrWrongMachine) {
			slog.WarnContext(ctx, "skipping file", "path", res.Path, "error", res.Err)
		}
	}
	return rep, ctx.Err()
}

func doFind(cmd *cobra.Command, args []string) error {
	dir, symbol := args[0], args[1]

	ctx := log.ContextAttrs(cmd.Context(),
		slog.String("run_id", uuid.NewString()),
		slog.Int("pid", os.Getpid()),
	)

	finder, err := NewFinder(config.Scan, dir, symbol)
	if err != nil {
		return err
	}

	rep, err := finder.Do(ctx, os.Stdout)
	if err != nil {
		return err
	}

	if rep.TotalMatches() == 0 {
		fmt.Printf("[!] No matches found for %s in %s\n", symbol, dir)
	} else {
		fmt.Printf("[+] %d match(es) found\n", rep.TotalMatches())
	}
	return nil
}
