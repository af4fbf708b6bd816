// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

/*
Package clickload exports an entire warehouse table to S3 and DynamoDB.

A SourceReader fetches every row of the table into memory as a slice of
Records.  The same slice is then handed to an ArchiveWriter, which stores it
as a single JSON array in an S3 bucket, and to an IndexWriter, which loads
each record as an item into a DynamoDB table using BatchWriteItem.

An Exporter runs the three steps in sequence and aborts on the first error.

The full result set is held in memory for the duration of a run; the package
is intended for one-off historical backfills rather than large tables.
*/
package clickload
