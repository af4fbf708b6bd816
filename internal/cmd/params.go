package cmd

import "time"

const (
	maxParallel    = 100
	statsFrequency = 2 * time.Second
	logFrequency   = 30 * time.Second
	awsMaxRetries  = 10
)
