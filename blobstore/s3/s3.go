// Package s3 provides an S3 implementation of the blobstore.Store interface.
//
// Feature banks are typically produced once by an offline inference job and
// then pulled by every training host; keeping the partition files in a bucket
// avoids shipping multi-gigabyte banks to each machine by hand.
//
//	store, err := s3.NewFromDefaultConfig(ctx, "my-bucket", "lfb/ava")
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/time/rate"

	"github.com/hupe1980/featbank/blobstore"
)

// Store implements blobstore.Store for S3.
type Store struct {
	client   *awss3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	limiter  *rate.Limiter
}

// Option configures a Store.
type Option func(*Store)

// WithRateLimit caps the request rate against the bucket. Useful when many
// training processes open the same partitions at startup.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Store) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates an S3 blob store. prefix is prepended to all keys
// (e.g. "lfb/ava").
func New(client *awss3.Client, bucket, prefix string, optFns ...Option) *Store {
	s := &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// NewFromDefaultConfig creates an S3 blob store using the ambient AWS
// configuration (environment, shared config, instance role).
func NewFromDefaultConfig(ctx context.Context, bucket, prefix string, optFns ...Option) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return New(awss3.NewFromConfig(cfg), bucket, prefix, optFns...), nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// Open opens a blob for reading. The object's size is resolved up front so
// reads can be range requests.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	key := s.key(name)
	head, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, blobstore.ErrNotFound
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &s3Blob{
		store: s,
		key:   key,
		size:  aws.ToInt64(head.ContentLength),
	}, nil
}

// Put uploads a blob. Multipart upload kicks in automatically for large
// partitions.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	_, err := s.uploader.Upload(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})
	return err
}

type s3Blob struct {
	store *Store
	key   string
	size  int64
}

func (b *s3Blob) Close() error { return nil }

func (b *s3Blob) Size() int64 { return b.size }

func (b *s3Blob) ReadAt(p []byte, off int64) (int, error) {
	ctx := context.Background()

	if off >= b.size {
		return 0, io.EOF
	}
	if err := b.store.wait(ctx); err != nil {
		return 0, err
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.store.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.store.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.ReadFull(resp.Body, p[:end-off+1])
	if err != nil {
		return n, err
	}
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}
