// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package config

import (
	"os"
	"strings"
	"testing"
)

var testEnv = map[string]string{
	"SNOWFLAKE_ACCOUNT":   "xy12345",
	"SNOWFLAKE_USER":      "loader",
	"SNOWFLAKE_PASSWORD":  "secret",
	"SNOWFLAKE_WAREHOUSE": "LOAD_WH",
	"SNOWFLAKE_DATABASE":  "SEGMENT_EVENTS",
	"SNOWFLAKE_SCHEMA":    "GOOGLE_ADS_CLICK_PARAMETERS",
	"S3_BUCKET":           "click-bucket",
	"DYNAMO_TABLE_NAME":   "clicks",
}

// setEnv sets the test environment, leaving the skip variable unset.
func setEnv(t *testing.T, skip string) {
	for k, v := range testEnv {
		t.Setenv(k, v)
	}
	unsetEnv(t, "S3_KEY_PREFIX")
	if skip != "" {
		unsetEnv(t, skip)
	}
}

func unsetEnv(t *testing.T, k string) {
	t.Setenv(k, "") // restored when the test completes
	os.Unsetenv(k)
}

func TestLoadOK(t *testing.T) {
	setEnv(t, "")
	cfg, err := Load()
	if err != nil {
		t.Fatal("Unexpected error", err)
	}
	if cfg.SnowflakeAccount != "xy12345" || cfg.S3Bucket != "click-bucket" || cfg.DynamoTableName != "clicks" {
		t.Errorf("Incorrect config %+v", cfg)
	}
	if cfg.S3KeyPrefix != "click_performance/" {
		t.Error("Incorrect default prefix", cfg.S3KeyPrefix)
	}
	if k := cfg.ArchiveKey(); k != "click_performance/initial_load.json" {
		t.Error("Incorrect archive key", k)
	}
}

func TestLoadPrefix(t *testing.T) {
	setEnv(t, "")
	t.Setenv("S3_KEY_PREFIX", "backfill/")
	cfg, err := Load()
	if err != nil {
		t.Fatal("Unexpected error", err)
	}
	if k := cfg.ArchiveKey(); k != "backfill/initial_load.json" {
		t.Error("Incorrect archive key", k)
	}
}

func TestLoadMissing(t *testing.T) {
	for k := range testEnv {
		setEnv(t, k)
		if _, err := Load(); err == nil {
			t.Errorf("expected error with %s unset", k)
		} else if !strings.Contains(err.Error(), k) {
			t.Errorf("error does not name %s: %v", k, err)
		}
	}
}

func TestSnowflakeDSN(t *testing.T) {
	setEnv(t, "")
	cfg, err := Load()
	if err != nil {
		t.Fatal("Unexpected error", err)
	}
	dsn, err := cfg.SnowflakeDSN()
	if err != nil {
		t.Fatal("Unexpected error", err)
	}
	for _, part := range []string{"loader:secret@", "xy12345", "warehouse=LOAD_WH", "database=SEGMENT_EVENTS", "schema=GOOGLE_ADS_CLICK_PARAMETERS"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("dsn %q missing %q", dsn, part)
		}
	}
}
