package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"cloud.google.com/go/storage"
	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSStore keeps the summary list in one Cloud Storage object. The version
// of a snapshot is the object generation; writes are conditional on it.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string
}

var _ engine.SummaryStore = (*GCSStore)(nil)

// NewGCSStore opens a storage client. Credentials come from opts or from
// Application Default Credentials.
func NewGCSStore(ctx context.Context, bucket, object string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrGCSClient, err)
	}
	return &GCSStore{client: client, bucket: bucket, object: object}, nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) handle() *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.object)
}

func (s *GCSStore) logger() *slog.Logger {
	return slog.With(
		config.LogKeyComponent, config.CompStore,
		config.LogKeyBucket, s.bucket,
		config.LogKeyObject, s.object,
	)
}

func (s *GCSStore) LoadAll(ctx context.Context) (engine.Snapshot, error) {
	r, err := s.handle().NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		s.logger().InfoContext(ctx, config.MsgStoreMissing)
		return engine.Snapshot{Entries: []engine.SummaryEntry{}, Version: config.StoreVersionAbsent}, nil
	}
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("%s: %w", config.ErrStoreRead, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("%s: %w", config.ErrStoreRead, err)
	}

	version := strconv.FormatInt(r.Attrs.Generation, 10)
	entries := decodeEntries(data, "gs://"+s.bucket+"/"+s.object)
	s.logger().DebugContext(ctx, config.MsgStoreLoaded,
		config.LogKeyEntries, len(entries),
		config.LogKeyVersion, version)
	return engine.Snapshot{Entries: entries, Version: version}, nil
}

// SaveAll uploads the list if the object is still at version.
func (s *GCSStore) SaveAll(ctx context.Context, entries []engine.SummaryEntry, version string) error {
	conds, err := conditionsFor(version)
	if err != nil {
		return err
	}

	data, err := encodeEntries(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}

	w := s.handle().If(conds).NewWriter(ctx)
	w.ContentType = config.MimeJSON

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return classifyWriteErr(err)
	}
	if err := w.Close(); err != nil {
		return classifyWriteErr(err)
	}

	s.logger().InfoContext(ctx, config.MsgStoreSaved,
		config.LogKeyEntries, len(entries),
		config.LogKeyVersion, w.Attrs().Generation)
	return nil
}

// conditionsFor turns a snapshot version into write preconditions.
func conditionsFor(version string) (storage.Conditions, error) {
	if version == config.StoreVersionAbsent {
		return storage.Conditions{DoesNotExist: true}, nil
	}
	gen, err := strconv.ParseInt(version, 10, 64)
	if err != nil || gen <= 0 {
		return storage.Conditions{}, fmt.Errorf("%s: %q", config.ErrStoreVersion, version)
	}
	return storage.Conditions{GenerationMatch: gen}, nil
}

// classifyWriteErr maps a failed precondition to engine.ErrConflict.
func classifyWriteErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("%w: %v", engine.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
}
