// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

// Package config loads the export's connection settings from the
// environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	sf "github.com/snowflakedb/gosnowflake"

	"github.com/clickperf/clickload/clickload"
)

// SourceTable is the fully qualified warehouse table that is exported.
const SourceTable = "SEGMENT_EVENTS.GOOGLE_ADS_CLICK_PARAMETERS.CLICK_PERFORMANCE_REPORTS"

// Config holds the settings supplied through environment variables.
type Config struct {
	SnowflakeAccount   string `envconfig:"SNOWFLAKE_ACCOUNT" required:"true"`
	SnowflakeUser      string `envconfig:"SNOWFLAKE_USER" required:"true"`
	SnowflakePassword  string `envconfig:"SNOWFLAKE_PASSWORD" required:"true"`
	SnowflakeWarehouse string `envconfig:"SNOWFLAKE_WAREHOUSE" required:"true"`
	SnowflakeDatabase  string `envconfig:"SNOWFLAKE_DATABASE" required:"true"`
	SnowflakeSchema    string `envconfig:"SNOWFLAKE_SCHEMA" required:"true"`

	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3KeyPrefix string `envconfig:"S3_KEY_PREFIX" default:"click_performance/"`

	DynamoTableName string `envconfig:"DYNAMO_TABLE_NAME" required:"true"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}
	return &cfg, nil
}

// SnowflakeDSN builds the data source name used to open the warehouse.
func (c *Config) SnowflakeDSN() (string, error) {
	return sf.DSN(&sf.Config{
		Account:   c.SnowflakeAccount,
		User:      c.SnowflakeUser,
		Password:  c.SnowflakePassword,
		Warehouse: c.SnowflakeWarehouse,
		Database:  c.SnowflakeDatabase,
		Schema:    c.SnowflakeSchema,
	})
}

// ArchiveKey returns the S3 key the archive is written to.
func (c *Config) ArchiveKey() string {
	return clickload.ArchiveKey(c.S3KeyPrefix)
}
