package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"redforge/models"
)

// FileStore keeps all records as one indented JSON array. Every append
// rewrites the whole file.
//
// Appends are serialised by mu and written through a temp file plus
// rename, so concurrent requests cannot drop each other's records.
type FileStore struct {
	log  *zap.Logger
	path string

	mu  sync.Mutex
	now func() time.Time
}

var _ Store = (*FileStore)(nil)

func NewFileStore(log *zap.Logger, path string) *FileStore {
	return &FileStore{
		log:  log,
		path: path,
		now:  time.Now,
	}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) read() ReadResult {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ReadResult{Records: []models.CustomerRecord{}, Status: ReadMissing}
	}
	if err != nil {
		return ReadResult{Records: []models.CustomerRecord{}, Status: ReadFailed, Err: Error.Wrap(err)}
	}

	var records []models.CustomerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return ReadResult{Records: []models.CustomerRecord{}, Status: ReadCorrupt, Err: Error.Wrap(err)}
	}
	if records == nil {
		records = []models.CustomerRecord{}
	}
	return ReadResult{Records: records, Status: ReadOK}
}

// List never fails; an unreadable or corrupt file reads as empty.
func (s *FileStore) List(ctx context.Context) ReadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

// Append stamps CreatedAt when unset and appends record to the file. A
// corrupt or unreadable file is replaced.
func (s *FileStore) Append(ctx context.Context, record models.CustomerRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	if err := validateRecord(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.read()
	if current.Status == ReadCorrupt || current.Status == ReadFailed {
		s.log.Warn("customer store unreadable, starting a new sequence",
			zap.String("path", s.path),
			zap.Stringer("status", current.Status),
			zap.Error(current.Err))
	}

	records := append(current.Records, record)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return Error.Wrap(err)
	}

	return Error.Wrap(writeFileAtomic(s.path, append(data, '\n')))
}

func (s *FileStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
