// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/cheggaaa/pb"
	cli "github.com/jawher/mow.cli"
	"github.com/sirupsen/logrus"

	"github.com/clickperf/clickload/clickload"
	"github.com/clickperf/clickload/internal/config"
)

// RegisterExport configures app to run the export as its only action.
func RegisterExport(app *cli.Cli) {
	action := &exporter{
		parallel: app.Int(cli.IntOpt{
			Name:   "p parallel",
			Value:  1,
			Desc:   "Number of concurrent batch writes to DynamoDB",
			EnvVar: "MAX_PARALLEL",
		}),
		writeCapacity: app.Int(cli.IntOpt{
			Name:   "w write-capacity",
			Value:  0,
			Desc:   "Maximum aggregate write capacity to use for the load (set to 0 for unlimited)",
			EnvVar: "WRITE_CAPACITY",
		}),
		maxRetries: app.Int(cli.IntOpt{
			Name:   "max-retries",
			Value:  awsMaxRetries,
			Desc:   "Maximum number of retry attempts to make with AWS services before failing",
			EnvVar: "AWS_MAX_RETRIES",
		}),
	}
	app.Spec = "[-p] [-w] [--max-retries]"
	app.Action = actionRunner(app.Cmd, action)
}

type exporter struct {
	cfg       *config.Config
	aws       *awsServices
	tableInfo *dynamodb.TableDescription

	source  *clickload.SourceReader
	archive *clickload.ArchiveWriter
	index   *clickload.IndexWriter
	e       *clickload.Exporter

	cancel    context.CancelFunc
	startTime time.Time
	result    clickload.Result

	// options
	parallel      *int
	writeCapacity *int
	maxRetries    *int
}

func (x *exporter) validate() error {
	if *x.parallel < 1 || *x.parallel > maxParallel {
		return fmt.Errorf("invalid value for --parallel: must be between 1 and %d", maxParallel)
	}
	if *x.writeCapacity < 0 {
		return errors.New("invalid value for --write-capacity")
	}
	if *x.maxRetries < 0 {
		return errors.New("invalid value for --max-retries")
	}
	return nil
}

func (x *exporter) init(logger *logrus.Logger) error {
	if err := x.validate(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	x.cfg = cfg

	x.aws, err = initAWS(*x.maxRetries)
	if err != nil {
		return err
	}

	resp, err := x.aws.dyn.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(cfg.DynamoTableName),
	})
	if err != nil {
		return fmt.Errorf("describe table %s failed: %w", cfg.DynamoTableName, err)
	}
	x.tableInfo = resp.Table
	logger.WithFields(logrus.Fields{
		"table":      cfg.DynamoTableName,
		"item_count": aws.Int64Value(resp.Table.ItemCount),
		"size":       fmtBytes(aws.Int64Value(resp.Table.TableSizeBytes)),
	}).Debug("Described destination table")
	return nil
}

func (x *exporter) openWarehouse() (*sql.DB, error) {
	dsn, err := x.cfg.SnowflakeDSN()
	if err != nil {
		return nil, err
	}
	return sql.Open("snowflake", dsn)
}

func (x *exporter) build(logger logrus.FieldLogger) {
	x.source = &clickload.SourceReader{
		Connect:   x.openWarehouse,
		TableName: config.SourceTable,
	}
	x.archive = clickload.NewArchiveWriter(x.aws.s3, x.cfg.S3Bucket, x.cfg.S3KeyPrefix)
	x.index = &clickload.IndexWriter{
		Dyn:           x.aws.dyn,
		TableName:     x.cfg.DynamoTableName,
		MaxParallel:   *x.parallel,
		WriteCapacity: float64(*x.writeCapacity),
		KeyAttributes: clickload.KeyAttributes(x.tableInfo),
	}
	x.e = &clickload.Exporter{
		Reader:  x.source,
		Archive: x.archive,
		Index:   x.index,
		Log:     logger,
	}
}

func (x *exporter) start(logger *logrus.Logger) (done chan error, err error) {
	x.build(logger)

	logger.WithFields(logrus.Fields{
		"source":         x.source.TableName,
		"archive":        x.archive,
		"index":          x.index,
		"key":            x.index.KeyAttributes,
		"parallel":       *x.parallel,
		"write_capacity": *x.writeCapacity,
	}).Info("Beginning export")

	ctx, cancel := context.WithCancel(context.Background())
	x.cancel = cancel
	x.startTime = time.Now()

	done = make(chan error, 1)
	go func() {
		defer cancel()
		res, err := x.e.Run(ctx)
		if err != nil {
			logger.WithError(err).WithField("step", x.e.Step()).Error("Export failed")
			done <- err
			return
		}
		x.result = res
		logger.WithField("records", res.Records).Infof("Wrote %d records to S3 and DynamoDB", res.Records)
		done <- nil
	}()
	return done, nil
}

func (x *exporter) abort() {
	x.cancel()
}

func (x *exporter) newProgressBar() *pb.ProgressBar {
	bar := pb.New64(0)
	bar.ShowSpeed = true
	bar.Prefix(string(clickload.StepRead) + " ")
	return bar
}

func (x *exporter) updateProgress(bar *pb.ProgressBar) {
	step := x.e.Step()
	bar.Prefix(string(step) + " ")
	if step == clickload.StepRead {
		bar.Set64(x.source.RowsRead())
		return
	}
	bar.Total = x.e.Records()
	bar.Set64(x.index.Stats().ItemsWritten)
}

func (x *exporter) formatStats() string {
	stats := x.index.Stats()
	deltaSeconds := time.Since(x.startTime).Seconds()
	return fmt.Sprintf("step=%s rows_read=%d batches_written=%d items_written=%d avg_items_sec=%.2f avg_capacity_sec=%.2f",
		x.e.Step(),
		x.source.RowsRead(),
		stats.BatchesWritten,
		stats.ItemsWritten,
		float64(stats.ItemsWritten)/deltaSeconds,
		stats.CapacityUsed/deltaSeconds)
}

func (x *exporter) logProgress(logger *logrus.Logger) {
	logger.Infof("Export in progress - current stats %s", x.formatStats())
}

func (x *exporter) printFinalStats(w io.Writer) {
	stats := x.index.Stats()
	deltaSeconds := time.Since(x.startTime).Seconds()

	fmt.Fprintln(w, "Total records exported: ", x.result.Records)
	fmt.Fprintf(w, "Archive size: %s\n", fmtBytes(x.archive.BytesWritten()))
	fmt.Fprintf(w, "Avg items/sec: %.2f\n", float64(stats.ItemsWritten)/deltaSeconds)
	fmt.Fprintf(w, "Avg capacity/sec: %.2f\n", stats.CapacityUsed/deltaSeconds)
	fmt.Fprintf(w, "Total data written: %s\n", fmtBytes(stats.BytesWritten))
	fmt.Fprintln(w, "Total items written: ", stats.ItemsWritten)
}
