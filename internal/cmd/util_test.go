// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package cmd

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

var bytesTests = []struct {
	bytes    int64
	expected string
}{
	{-1, "unknown"},
	{0, "0 bytes"},
	{1023, "1023 bytes"},
	{1536, "1.5 KB"},
	{5 * mib, "5.0 MB"},
	{3 * gib / 2, "1.5 GB"},
	{2 * tib, "2.0 TB"},
}

func TestFmtBytes(t *testing.T) {
	for _, test := range bytesTests {
		if actual := fmtBytes(test.bytes); actual != test.expected {
			t.Errorf("bytes=%d expected=%q actual=%q", test.bytes, test.expected, actual)
		}
	}
}

func TestNewLoggerFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "export.log")
	logger, closer, err := newLogger(target, "warn")
	if err != nil {
		t.Fatal("Unexpected error", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	closer.Close()

	data, err := ioutil.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "shown") {
		t.Errorf("Incorrect log output %q", data)
	}
}

func TestNewLoggerTargets(t *testing.T) {
	logger, closer, err := newLogger("-", "")
	if err != nil || closer != nil {
		t.Fatal("Unexpected result", err, closer)
	}
	if logger.Out != os.Stdout || logger.Level != logrus.InfoLevel {
		t.Error("Expected stdout logger at info level")
	}

	logger, _, err = newLogger("", "debug")
	if err != nil {
		t.Fatal("Unexpected error", err)
	}
	if logger.Out != os.Stderr || logger.Level != logrus.DebugLevel {
		t.Error("Expected stderr logger at debug level")
	}

	if _, _, err := newLogger("", "loud"); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestFail(t *testing.T) {
	var code int
	origExit := exit
	exit = func(c int) { code = c }
	defer func() { exit = origExit }()

	logger := logrus.New()
	logger.Out = ioutil.Discard
	fail(logger, "failed: %v", "boom")
	if code != exitFailed {
		t.Error("Incorrect exit code", code)
	}
	usage(logger, "bad flag")
	if code != exitUsage {
		t.Error("Incorrect exit code", code)
	}
}

func intp(v int) *int { return &v }

var validateTests = []struct {
	parallel, capacity, retries int
	ok                          bool
}{
	{1, 0, 10, true},
	{maxParallel, 500, 0, true},
	{0, 0, 10, false},
	{maxParallel + 1, 0, 10, false},
	{1, -1, 10, false},
	{1, 0, -1, false},
}

func TestExporterValidate(t *testing.T) {
	for _, test := range validateTests {
		x := &exporter{
			parallel:      intp(test.parallel),
			writeCapacity: intp(test.capacity),
			maxRetries:    intp(test.retries),
		}
		if err := x.validate(); (err == nil) != test.ok {
			t.Errorf("input=%+v unexpected result %v", test, err)
		}
	}
}
