// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package clickload

// MaxBatchSize is the maximum number of items DynamoDB accepts in a single
// BatchWriteItem request.
const MaxBatchSize = 25

// RecordBatch is an ordered group of at most MaxBatchSize records that are
// written to DynamoDB in a single request.
type RecordBatch []Record

// Batches splits records into consecutive batches of at most size records,
// preserving their order.  Only the final batch may be short and no empty
// batch is ever returned.  A size outside 1..MaxBatchSize is treated as
// MaxBatchSize.
func Batches(records []Record, size int) []RecordBatch {
	if size < 1 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	batches := make([]RecordBatch, 0, (len(records)+size-1)/size)
	for len(records) > 0 {
		n := size
		if n > len(records) {
			n = len(records)
		}
		batches = append(batches, RecordBatch(records[:n:n]))
		records = records[n:]
	}
	return batches
}
