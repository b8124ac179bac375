// Package converter drives batch NetCDF-to-tabular conversion: it
// resolves input paths to source files, opens each with the engine
// fallback chain, exports the variables, and aggregates per-group
// statistics.
package converter

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/engine"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/exporter"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/filelock"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/resolver"
)

// fileGroup is the summary group explicitly listed files fall into,
// as opposed to files resolved under an input directory.
const fileGroup = "files"

// Request describes one conversion batch. It is treated as immutable
// once constructed.
type Request struct {
	// Inputs are the file and directory paths to convert.
	Inputs []string
	// Patterns are the filename globs applied inside directories.
	Patterns []string
	// OutputDir receives all tabular outputs.
	OutputDir string
	// Engine is the preferred backend id.
	Engine string
	// Recursive enables descent into subdirectories.
	Recursive bool
	// MaxDepth limits recursion (0 = unlimited).
	MaxDepth int
	// PreserveStructure mirrors the input layout under OutputDir.
	PreserveStructure bool
	// Workbook additionally writes an xlsx workbook per source.
	Workbook bool
}

// Result is the outcome of converting one source file.
type Result struct {
	// Source is the absolute path of the input file.
	Source string
	// Group is the summary group the source belongs to.
	Group string
	// Outputs are the files produced for this source.
	Outputs []string
	// OK reports whether the conversion succeeded.
	OK bool
	// Err holds the failure detail when OK is false.
	Err string
	// Engine is the backend that ultimately opened the file; it may
	// differ from the requested one due to fallback.
	Engine string
	// Note carries partial-export detail for successful conversions.
	Note string
}

// Run executes the batch sequentially in resolution order. Per-file
// failures are recorded and never abort the batch; only configuration
// errors (unknown engine, nonexistent input path, locked output
// directory) surface as an error. The summary reflects every attempted
// file.
func Run(ctx context.Context, req Request) (*Summary, error) {
	if !engine.Known(req.Engine) {
		return nil, fmt.Errorf("converter: %w %q", engine.ErrUnknownEngine, req.Engine)
	}
	if len(req.Inputs) == 0 {
		return nil, fmt.Errorf("converter: no input paths given")
	}
	patterns := req.Patterns
	if len(patterns) == 0 {
		patterns = []string{"*.nc"}
	}
	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = "csv_output"
	}

	resolved, err := resolver.ResolveAll(req.Inputs, resolver.Options{
		Patterns:  patterns,
		Recursive: req.Recursive,
		MaxDepth:  req.MaxDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("converter: %w", err)
	}

	lock, err := filelock.LockOutputDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("converter: %w", err)
	}
	defer lock.Unlock()

	exp := exporter.New(outputDir, req.PreserveStructure, req.Workbook)
	agg := newAggregator()
	start := time.Now()

	for _, r := range resolved {
		group := fileGroup
		root := ""
		if r.IsDir {
			group = r.Root
			root = r.Root
		}
		agg.addGroup(group)

		for _, e := range r.Errors {
			logrus.Warnf("resolution: %v", e)
		}
		if r.IsDir && len(r.Files) == 0 {
			logrus.WithField("dir", r.Root).Warnf("no files found matching %v", patterns)
			continue
		}

		for _, source := range r.Files {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("converter: batch interrupted: %w", err)
			}
			agg.record(convertOne(exp, source, group, root, req.Engine))
		}
	}

	summary := agg.summary()
	summary.Elapsed = time.Since(start)
	logrus.WithFields(logrus.Fields{
		"attempted": summary.Attempted,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("batch complete")
	return summary, nil
}

// convertOne opens and exports a single source file. Failures are
// folded into the Result, never returned.
func convertOne(exp *exporter.Exporter, source, group, root, engineID string) Result {
	log := logrus.WithField("file", source)
	log.Info("converting")

	res := Result{Source: source, Group: group}

	ds, err := engine.Open(source, engineID)
	if err != nil {
		log.Warnf("conversion failed: %v", err)
		res.Err = err.Error()
		return res
	}
	res.Engine = ds.Engine

	outputs, note, err := exp.Export(ds, root)
	res.Outputs = outputs
	res.Note = note
	if err != nil {
		log.Warnf("export failed: %v", err)
		res.Err = err.Error()
		return res
	}
	if note != "" {
		log.Warn(note)
	}
	res.OK = true
	log.WithField("outputs", len(outputs)).Debug("converted")
	return res
}
