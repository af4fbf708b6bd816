// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package clickload

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/juju/ratelimit"
)

const defaultMaxUnprocessedRounds = 10

// DynBatchWriter defines the portion of the DynamoDB service the
// IndexWriter requires.
type DynBatchWriter interface {
	BatchWriteItemWithContext(ctx aws.Context, input *dynamodb.BatchWriteItemInput, opts ...request.Option) (*dynamodb.BatchWriteItemOutput, error)
}

// IndexStats are returned by IndexWriter.Stats
type IndexStats struct {
	BatchesWritten int64
	ItemsWritten   int64
	BytesWritten   int64
	CapacityUsed   float64
}

// IndexWriter loads records into a DynamoDB table, one BatchWriteItem
// request per batch.  Existing items with the same key are overwritten.
type IndexWriter struct {
	Dyn                  DynBatchWriter
	TableName            string   // Table to load into
	BatchSize            int      // Number of items per request; defaults to MaxBatchSize
	MaxParallel          int      // Maximum number of batch requests in flight; defaults to 1
	WriteCapacity        float64  // Maximum write capacity to use; 0 for unlimited
	KeyAttributes        []string // Primary key attributes, used to drop duplicate keys within a batch
	MaxUnprocessedRounds int      // Attempts to drain unprocessed items before a batch fails

	rateLimit      *ratelimit.Bucket
	batchesWritten int64
	itemsWritten   int64
	bytesWritten   int64
	capacityUsed   int64 // multiplied by 10
}

// WriteRecords implements RecordWriter.  It returns on the first failed
// batch; batches written before the failure remain in the table.
func (w *IndexWriter) WriteRecords(ctx context.Context, records []Record) error {
	batches := Batches(records, w.BatchSize)
	if w.WriteCapacity > 0 {
		capacity := int64(math.Max(1, w.WriteCapacity))
		w.rateLimit = ratelimit.NewBucketWithQuantum(time.Second, capacity, capacity)
	}
	if w.MaxParallel <= 1 || len(batches) <= 1 {
		for _, b := range batches {
			if err := w.writeBatch(ctx, b); err != nil {
				return err
			}
		}
		return nil
	}
	return w.writeParallel(ctx, batches)
}

// Stats returns the current loader statistics.
// It is safe to call from concurrent goroutines.
func (w *IndexWriter) Stats() IndexStats {
	return IndexStats{
		BatchesWritten: atomic.LoadInt64(&w.batchesWritten),
		ItemsWritten:   atomic.LoadInt64(&w.itemsWritten),
		BytesWritten:   atomic.LoadInt64(&w.bytesWritten),
		CapacityUsed:   float64(atomic.LoadInt64(&w.capacityUsed)) / 10,
	}
}

func (w *IndexWriter) writeParallel(ctx context.Context, batches []RecordBatch) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan RecordBatch)
	errChan := make(chan error, w.MaxParallel)

	for i := 0; i < w.MaxParallel; i++ {
		go func() {
			var err error
			for b := range work {
				if err != nil {
					continue
				}
				if err = w.writeBatch(ctx, b); err != nil {
					cancel() // stop feeding further batches
				}
			}
			errChan <- err
		}()
	}

FEED:
	for _, b := range batches {
		select {
		case work <- b:
		case <-ctx.Done():
			break FEED
		}
	}
	close(work)

	// wait for all workers to shutdown
	var err error
	for i := 0; i < w.MaxParallel; i++ {
		if werr := <-errChan; werr != nil && err == nil {
			err = werr
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func (w *IndexWriter) writeBatch(ctx context.Context, batch RecordBatch) error {
	reqs, err := w.buildRequests(batch)
	if err != nil {
		return err
	}

	maxRounds := w.MaxUnprocessedRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxUnprocessedRounds
	}

	input := &dynamodb.BatchWriteItemInput{
		RequestItems:           map[string][]*dynamodb.WriteRequest{w.TableName: reqs},
		ReturnConsumedCapacity: aws.String(dynamodb.ReturnConsumedCapacityTotal),
	}

	usedCapacity := int64(len(reqs))
	for round := 1; ; round++ {
		if err := w.waitForRateLimit(ctx, usedCapacity); err != nil {
			return err
		}

		// the SDK retries throttling and transient errors itself; anything
		// returned here is a hard failure
		resp, err := w.Dyn.BatchWriteItemWithContext(ctx, input)
		if err != nil {
			return fmt.Errorf("write to DynamoDB failed: %w", err)
		}

		var capacity float64
		for _, cc := range resp.ConsumedCapacity {
			capacity += aws.Float64Value(cc.CapacityUnits)
		}
		atomic.AddInt64(&w.capacityUsed, int64(capacity*10))
		if capacity > 0 {
			usedCapacity = int64(math.Ceil(capacity))
		}

		sent := input.RequestItems[w.TableName]
		unprocessed := resp.UnprocessedItems[w.TableName]
		atomic.AddInt64(&w.itemsWritten, int64(len(sent)-len(unprocessed)))
		atomic.AddInt64(&w.bytesWritten, requestsSize(sent)-requestsSize(unprocessed))

		if len(unprocessed) == 0 {
			break
		}
		if round >= maxRounds {
			return fmt.Errorf("write to DynamoDB failed: %d items still unprocessed after %d attempts",
				len(unprocessed), round)
		}
		input.RequestItems = map[string][]*dynamodb.WriteRequest{w.TableName: unprocessed}
	}

	atomic.AddInt64(&w.batchesWritten, 1)
	return nil
}

// buildRequests converts a batch into put requests.  Where KeyAttributes
// is set, a record whose key repeats an earlier record in the same batch
// replaces it, as DynamoDB rejects batches containing duplicate keys.
func (w *IndexWriter) buildRequests(batch RecordBatch) ([]*dynamodb.WriteRequest, error) {
	reqs := make([]*dynamodb.WriteRequest, 0, len(batch))
	seen := make(map[string]int)
	for _, rec := range batch {
		item, err := toItem(rec)
		if err != nil {
			return nil, fmt.Errorf("convert record failed: %w", err)
		}
		req := &dynamodb.WriteRequest{PutRequest: &dynamodb.PutRequest{Item: item}}
		if key := keyOf(item, w.KeyAttributes); key != "" {
			if i, ok := seen[key]; ok {
				reqs[i] = req
				continue
			}
			seen[key] = len(reqs)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Interruptible rate limit wait
func (w *IndexWriter) waitForRateLimit(ctx context.Context, usedCapacity int64) error {
	if w.rateLimit == nil {
		return nil
	}
	d := w.rateLimit.Take(usedCapacity)
	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func requestsSize(reqs []*dynamodb.WriteRequest) (size int64) {
	for _, r := range reqs {
		if r.PutRequest != nil {
			size += int64(calcItemSize(Item(r.PutRequest.Item)))
		}
	}
	return size
}

// String returns the name of the table being loaded.
func (w *IndexWriter) String() string {
	return "dynamodb:" + w.TableName
}
