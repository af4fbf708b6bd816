// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package cmd

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb"
	cli "github.com/jawher/mow.cli"
	"github.com/sirupsen/logrus"
)

type action interface {
	init(logger *logrus.Logger) error
	newProgressBar() (bar *pb.ProgressBar)
	updateProgress(bar *pb.ProgressBar)
	start(logger *logrus.Logger) (doneChan chan error, err error)
	abort()
	logProgress(logger *logrus.Logger)
	printFinalStats(w io.Writer)
}

// newLogger creates the logger for a run.  target is a filename, "-" for
// stdout or "" for stderr.
func newLogger(target, level string) (logger *logrus.Logger, closer io.Closer, err error) {
	logger = logrus.New()
	logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}

	switch target {
	case "-":
		logger.Out = os.Stdout
	case "":
		logger.Out = os.Stderr
	default:
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open logfile for write: %w", err)
		}
		logger.Out = f
		closer = f
	}

	if level != "" {
		ll, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, closer, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logger.SetLevel(ll)
	}
	return logger, closer, nil
}

// actionRunner handles running an action which may take a while to complete
// providing progress bars and signal handling.
func actionRunner(cmd *cli.Cmd, action action) func() {
	cmd.Spec = "[--silent] [--no-progress] [--log] [--log-level] " + cmd.Spec
	silent := cmd.Bool(cli.BoolOpt{
		Name:   "silent",
		Value:  false,
		Desc:   "Set to true to disable all non-error and non-log output",
		EnvVar: "SILENT",
	})
	noProgress := cmd.Bool(cli.BoolOpt{
		Name:   "no-progress",
		Value:  false,
		Desc:   "Set to true to disable the progress bar",
		EnvVar: "NO_PROGRESS",
	})
	logTarget := cmd.String(cli.StringOpt{
		Name:   "log",
		Value:  "",
		Desc:   "Set to a filename or --log=- for stdout; defaults to stderr",
		EnvVar: "LOG_TARGET",
	})
	logLevel := cmd.String(cli.StringOpt{
		Name:   "log-level",
		Value:  "info",
		Desc:   "Minimum level of log output (debug, info, warn, error)",
		EnvVar: "LOG_LEVEL",
	})

	return func() {
		var termWriter io.Writer = os.Stderr
		var progressTicker <-chan time.Time
		var logTicker <-chan time.Time

		logger, closer, err := newLogger(*logTarget, *logLevel)
		if closer != nil {
			defer closer.Close()
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			exit(exitUsage)
			return
		}

		if *silent {
			termWriter = ioutil.Discard
		}

		if err := action.init(logger); err != nil {
			usage(logger, "Initialization failed: %v", err)
			return
		}

		done, err := action.start(logger)
		if err != nil {
			fail(logger, "Startup failed: %v", err)
			return
		}

		var bar *pb.ProgressBar
		if !*silent && !*noProgress {
			progressTicker = time.Tick(statsFrequency)
			bar = action.newProgressBar()
			if bar != nil {
				bar.Output = os.Stderr
				bar.ShowSpeed = true
				bar.ManualUpdate = true
				bar.SetMaxWidth(78)
				bar.Start()
				bar.Update()
			}
		}
		if bar == nil {
			logTicker = time.Tick(logFrequency)
		}

		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGTERM, syscall.SIGINT)

	LOOP:
		for {
			select {
			case <-progressTicker:
				if bar != nil {
					action.updateProgress(bar)
					bar.Update()
				}

			case <-logTicker:
				action.logProgress(logger)

			case <-sigchan:
				if bar != nil {
					bar.Finish()
					bar = nil
				}
				fmt.Fprintf(termWriter, "\nAborting..")
				action.abort()
				err := <-done
				fmt.Fprintf(termWriter, "Aborted.\n")
				fail(logger, "Processing aborted: %v", err)
				return

			case err := <-done:
				if bar != nil {
					action.updateProgress(bar)
					bar.Finish()
					bar = nil
				}
				if err != nil {
					fail(logger, "Processing failed: %v", err)
					return
				}
				break LOOP
			}
		}

		if !*silent {
			action.printFinalStats(termWriter)
		}
	}
}
