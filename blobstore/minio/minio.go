// Package minio provides a blobstore.Store implementation for MinIO and
// other S3-compatible object stores, for clusters that keep their feature
// banks on self-hosted storage.
package minio

import (
	"bytes"
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"golang.org/x/time/rate"

	"github.com/hupe1980/featbank/blobstore"
)

// Store implements blobstore.Store for MinIO.
type Store struct {
	client  *minio.Client
	bucket  string
	prefix  string
	limiter *rate.Limiter
}

// Option configures a Store.
type Option func(*Store)

// WithRateLimit caps the request rate against the bucket.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Store) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a MinIO blob store. prefix is prepended to all keys.
func New(client *minio.Client, bucket, prefix string, optFns ...Option) *Store {
	s := &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
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

// Open opens a blob for reading.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &minioBlob{store: s, key: key, size: info.Size}, nil
}

// Put uploads a blob.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, s.key(name),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

type minioBlob struct {
	store *Store
	key   string
	size  int64
}

func (b *minioBlob) Close() error { return nil }

func (b *minioBlob) Size() int64 { return b.size }

func (b *minioBlob) ReadAt(p []byte, off int64) (int, error) {
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

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return 0, err
	}

	obj, err := b.store.client.GetObject(ctx, b.store.bucket, b.key, opts)
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:end-off+1])
	if err != nil {
		return n, err
	}
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}
