// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package cmd

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	cli "github.com/jawher/mow.cli"
	"github.com/sirupsen/logrus"
)

const (
	exitFailed = 100
	exitUsage  = 101
)

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30
	tib = 1 << 40
)

func fmtBytes(bytes int64) string {
	switch {
	case bytes < 0:
		return "unknown"
	case bytes < kib:
		return fmt.Sprintf("%d bytes", bytes)
	case bytes < mib:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kib)
	case bytes < gib:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mib)
	case bytes < tib:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gib)
	default:
		return fmt.Sprintf("%.1f TB", float64(bytes)/tib)
	}
}

// exit is replaced in tests.
var exit = cli.Exit

func fail(logger logrus.FieldLogger, format string, a ...interface{}) {
	logger.Errorf(format, a...)
	exit(exitFailed)
}

func usage(logger logrus.FieldLogger, format string, a ...interface{}) {
	logger.Errorf(format, a...)
	exit(exitUsage)
}

type awsServices struct {
	s3  *s3.S3
	dyn *dynamodb.DynamoDB
}

func initAWS(maxRetries int) (*awsServices, error) {
	cfg := aws.NewConfig()
	cfg = request.WithRetryer(cfg, client.DefaultRetryer{NumMaxRetries: maxRetries})

	s, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &awsServices{
		s3:  s3.New(s),
		dyn: dynamodb.New(s),
	}, nil
}
