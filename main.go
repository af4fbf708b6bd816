// Copyright 2015 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

/*
Command clickload exports the historical click performance table from
Snowflake to S3 and DynamoDB.

Every row of the table is read into memory, written to S3 as a single JSON
array at <S3_KEY_PREFIX>initial_load.json and then loaded into the DynamoDB
table named by DYNAMO_TABLE_NAME using batched writes of up to 25 items.

Connection settings are read from the environment:
* SNOWFLAKE_ACCOUNT, SNOWFLAKE_USER, SNOWFLAKE_PASSWORD
* SNOWFLAKE_WAREHOUSE, SNOWFLAKE_DATABASE, SNOWFLAKE_SCHEMA
* S3_BUCKET, S3_KEY_PREFIX (defaults to "click_performance/")
* DYNAMO_TABLE_NAME

AWS credentials and region are taken from the standard AWS environment
variables or shared configuration.
*/
package main

import (
	"fmt"
	"os"

	cli "github.com/jawher/mow.cli"

	"github.com/clickperf/clickload/internal/cmd"
)

func main() {
	app := cli.App("clickload", "Export the click performance table to S3 and DynamoDB")
	cmd.RegisterExport(app)

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
