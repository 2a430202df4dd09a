package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
)

// GCSStore keeps the ledger as one JSON object in a Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
	object string
	logger *slog.Logger
}

func NewGCSStore(client *gcs.Client, bucket, object string, logger *slog.Logger) *GCSStore {
	return &GCSStore{client: client, bucket: bucket, object: object, logger: logger}
}

// Load reads the ledger object, retrying transient failures.
func (s *GCSStore) Load(ctx context.Context) ([]string, error) {
	var data []byte
	notFound := false
	err := retry.Do(
		func() error {
			r, openErr := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
			if openErr != nil {
				if errors.Is(openErr, gcs.ErrObjectNotExist) {
					notFound = true
					return retry.Unrecoverable(openErr)
				}
				return fmt.Errorf("open ledger object: %w", openErr)
			}
			defer func() {
				if closeErr := r.Close(); closeErr != nil {
					s.logger.Warn("Failed to close ledger reader", "error", closeErr)
				}
			}()

			var readErr error
			data, readErr = io.ReadAll(r)
			if readErr != nil {
				return fmt.Errorf("read ledger object: %w", readErr)
			}
			return nil
		},
		s.retryOptions(ctx, "load")...,
	)
	if notFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load after retries: %w", err)
	}
	return decodeKeys(data)
}

// Save overwrites the ledger object, retrying transient failures.
func (s *GCSStore) Save(ctx context.Context, keys []string) error {
	data, err := encodeKeys(keys)
	if err != nil {
		return err
	}

	err = retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
			w.ContentType = "application/json"
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("Failed to close writer after error", "error", closeErr)
				}
				return fmt.Errorf("write ledger object: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close ledger writer: %w", closeErr)
			}
			return nil
		},
		s.retryOptions(ctx, "save")...,
	)
	if err != nil {
		return fmt.Errorf("save after retries: %w", err)
	}
	s.logger.Debug("Ledger saved", "bucket", s.bucket, "object", s.object, "keys", len(keys))
	return nil
}

func (s *GCSStore) retryOptions(ctx context.Context, op string) []retry.Option {
	return []retry.Option{
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(time.Minute),
		retry.MaxJitter(5 * time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("Retrying ledger operation after error", "op", op, "attempt", n, "object", s.object, "error", err)
		}),
	}
}
