// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package clickload

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Step identifies the stage an Exporter is running.
type Step string

const (
	StepPending Step = "pending"
	StepRead    Step = "read"
	StepArchive Step = "archive"
	StepIndex   Step = "index"
	StepDone    Step = "done"
)

// Result summarizes a completed export.
type Result struct {
	Records  int
	Duration time.Duration
}

// Exporter reads every record from a RecordReader and writes the complete
// set first to an archive and then to an index.  Any failure stops the
// export; later steps are not run.
type Exporter struct {
	Reader  RecordReader
	Archive RecordWriter
	Index   RecordWriter
	Log     logrus.FieldLogger // Defaults to the standard logrus logger

	step    atomic.Value
	records int64
}

// Run executes the export and returns once it has completed or failed.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	log := e.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	start := time.Now()

	e.setStep(StepRead)
	log.WithField("step", StepRead).Info("Reading source table")
	records, err := e.Reader.ReadAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", StepRead, err)
	}
	atomic.StoreInt64(&e.records, int64(len(records)))
	log.WithFields(logrus.Fields{"step": StepRead, "records": len(records)}).Info("Source table read")

	e.setStep(StepArchive)
	log.WithFields(logrus.Fields{"step": StepArchive, "target": e.Archive}).Info("Writing archive")
	if err := e.Archive.WriteRecords(ctx, records); err != nil {
		return Result{}, fmt.Errorf("%s: %w", StepArchive, err)
	}

	e.setStep(StepIndex)
	log.WithFields(logrus.Fields{"step": StepIndex, "target": e.Index}).Info("Writing index")
	if err := e.Index.WriteRecords(ctx, records); err != nil {
		return Result{}, fmt.Errorf("%s: %w", StepIndex, err)
	}

	e.setStep(StepDone)
	return Result{Records: len(records), Duration: time.Since(start)}, nil
}

// Step returns the stage the export is currently running.
// It is safe to call from concurrent goroutines.
func (e *Exporter) Step() Step {
	if s, ok := e.step.Load().(Step); ok {
		return s
	}
	return StepPending
}

// Records returns the number of records read, once the read has completed.
func (e *Exporter) Records() int64 {
	return atomic.LoadInt64(&e.records)
}

func (e *Exporter) setStep(s Step) {
	e.step.Store(s)
}
