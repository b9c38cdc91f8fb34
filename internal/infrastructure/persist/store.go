package persist

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/agencyrpg/backend/internal/infrastructure/logging"
)

// Store is the desktop's durable snapshot space: string keys mapping to
// JSON blobs, one key per subsystem. Writes are best-effort and reads
// fall back to the caller's defaults, so no mutation path ever fails on
// account of persistence.
type Store interface {
	// Put serializes v under key. Failures are logged and swallowed;
	// the worst case is losing the most recent change on reload.
	Put(key string, v interface{})

	// Load deserializes key into v, reporting whether a valid snapshot
	// was found. Absent keys and corrupt blobs both report false.
	Load(key string, v interface{}) bool

	// Delete removes a single key.
	Delete(key string)

	// Wipe removes every key. Backs the explicit "new game" reset.
	Wipe()
}

const snapshotExt = ".json.gz"

// DiskStore persists snapshots as gzip-compressed JSON files in a
// single directory.
type DiskStore struct {
	dir    string
	logger *logging.Logger
	mu     sync.Mutex
}

// NewDiskStore creates a disk-backed store rooted at dir.
func NewDiskStore(dir string, logger *logging.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, logger: logger}, nil
}

// Put implements Store.
func (s *DiskStore) Put(key string, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Warn("snapshot marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		s.logger.Warn("snapshot compress failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := gw.Close(); err != nil {
		s.logger.Warn("snapshot compress failed", zap.String("key", key), zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write-then-rename so a crash mid-write never corrupts the
	// previous snapshot.
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		s.logger.Warn("snapshot write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		s.logger.Warn("snapshot rename failed", zap.String("key", key), zap.Error(err))
		os.Remove(tmp)
	}
}

// Load implements Store.
func (s *DiskStore) Load(key string, v interface{}) bool {
	s.mu.Lock()
	raw, err := os.ReadFile(s.path(key))
	s.mu.Unlock()
	if err != nil {
		return false
	}

	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		s.logger.Warn("snapshot corrupt, using defaults", zap.String("key", key), zap.Error(err))
		return false
	}
	data, err := io.ReadAll(gr)
	if err != nil {
		s.logger.Warn("snapshot corrupt, using defaults", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		s.logger.Warn("snapshot corrupt, using defaults", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Delete implements Store.
func (s *DiskStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	os.Remove(s.path(key))
}

// Wipe implements Store.
func (s *DiskStore) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("wipe failed", zap.Error(err))
		return
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), snapshotExt) {
			os.Remove(filepath.Join(s.dir, e.Name()))
		}
	}
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, key+snapshotExt)
}

// MemoryStore keeps snapshots in a map. Used in tests and as a fallback
// when no data directory is writable.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Put implements Store.
func (s *MemoryStore) Put(key string, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
}

// Load implements Store.
func (s *MemoryStore) Load(key string, v interface{}) bool {
	s.mu.Lock()
	data, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return sonic.Unmarshal(data, v) == nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Wipe implements Store.
func (s *MemoryStore) Wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
}
