// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package clickload

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
)

// ArchiveFilename is the name of the object the ArchiveWriter stores
// beneath its path prefix.  Each run replaces the previous archive.
const ArchiveFilename = "initial_load.json"

// S3 defines the portion of the s3 service that ArchiveWriter requires
type S3 interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// RecordWriter is the interface expected by an Exporter for each
// destination the records are sent to.
type RecordWriter interface {
	WriteRecords(ctx context.Context, records []Record) error
}

// ArchiveKey returns the S3 key the archive is stored at for the given
// path prefix.
func ArchiveKey(pathPrefix string) string {
	return pathPrefix + ArchiveFilename
}

// ArchiveWriter stores a complete set of records as a single JSON array
// in S3.
type ArchiveWriter struct {
	S3     S3
	Bucket string
	Key    string

	bytesWritten int64
}

// NewArchiveWriter creates an ArchiveWriter that stores its archive
// at ArchiveKey(pathPrefix).
func NewArchiveWriter(s3 S3, bucket, pathPrefix string) *ArchiveWriter {
	return &ArchiveWriter{
		S3:     s3,
		Bucket: bucket,
		Key:    ArchiveKey(pathPrefix),
	}
}

// WriteRecords implements RecordWriter.  The records are encoded in full
// before anything is sent to S3.
func (w *ArchiveWriter) WriteRecords(ctx context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode archive failed: %w", err)
	}

	sum := md5.Sum(data)
	req := &s3.PutObjectInput{
		Bucket:        aws.String(w.Bucket),
		Key:           aws.String(w.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentMD5:    aws.String(base64.StdEncoding.EncodeToString(sum[:])),
		ContentType:   aws.String("application/json"),
	}
	if _, err := w.S3.PutObjectWithContext(ctx, req); err != nil {
		return fmt.Errorf("write to s3://%s/%s failed: %w", w.Bucket, w.Key, err)
	}
	w.bytesWritten = int64(len(data))
	return nil
}

// BytesWritten returns the size of the last archive stored.
func (w *ArchiveWriter) BytesWritten() int64 {
	return w.bytesWritten
}

// String returns the location of the archive.
func (w *ArchiveWriter) String() string {
	return fmt.Sprintf("s3://%s/%s", w.Bucket, w.Key)
}
