// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package clickload

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
)

// RecordReader is the interface expected by an Exporter to retrieve
// the complete set of records to export.
type RecordReader interface {
	ReadAll(ctx context.Context) ([]Record, error)
}

// SourceReader reads every row of a single warehouse table.
type SourceReader struct {
	Connect   func() (*sql.DB, error) // Opens a handle to the warehouse
	TableName string                  // Fully qualified name of the table to read

	rowsRead int64
}

// ReadAll opens a single connection to the warehouse, selects every row of
// the table and returns them in the order the warehouse produced them.
//
// The connection is always released before ReadAll returns.  On error no
// records are returned.
func (r *SourceReader) ReadAll(ctx context.Context) (records []Record, err error) {
	db, err := r.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to warehouse failed: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			records, err = nil, fmt.Errorf("close warehouse connection failed: %w", cerr)
		}
	}()

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to warehouse failed: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, "SELECT * FROM "+r.TableName)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", r.TableName, err)
	}
	defer rows.Close()

	records, err = scanRecords(rows, &r.rowsRead)
	if err != nil {
		return nil, fmt.Errorf("read from %s failed: %w", r.TableName, err)
	}
	return records, nil
}

// RowsRead returns the number of rows read so far.
// It is safe to call from concurrent goroutines.
func (r *SourceReader) RowsRead() int64 {
	return atomic.LoadInt64(&r.rowsRead)
}

func scanRecords(rows *sql.Rows, counter *int64) ([]Record, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(Record, len(cols))
		for i, col := range cols {
			rec[col.Name()] = normalizeValue(col.DatabaseTypeName(), vals[i])
			vals[i] = nil
		}
		records = append(records, rec)
		atomic.AddInt64(counter, 1)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
