package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryStore is an in-memory brute-force implementation of Store with
// optional file persistence. Suitable for single-process deployments and
// tests; every call is atomic under the store's lock.
type MemoryStore struct {
	name       string
	dimensions int
	entries    []Entry
	byID       map[string]int
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty collection with the given name and
// embedding dimension.
func NewMemoryStore(name string, dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if name == "" {
		name = "default"
	}
	return &MemoryStore{
		name:       name,
		dimensions: dimensions,
		byID:       make(map[string]int),
	}, nil
}

// Name returns the collection name.
func (m *MemoryStore) Name() string {
	return m.name
}

// Upsert writes entries keyed by ID. Existing IDs are fully replaced.
func (m *MemoryStore) Upsert(ctx context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("entry ID cannot be empty")
		}
		if e.Text == "" {
			return fmt.Errorf("entry %s has empty text", e.ID)
		}
		if len(e.Vector) != m.dimensions {
			return fmt.Errorf("entry %s: vector dimension mismatch: got %d, expected %d", e.ID, len(e.Vector), m.dimensions)
		}
		vec := make([]float32, m.dimensions)
		copy(vec, e.Vector)
		e.Vector = vec
		if i, ok := m.byID[e.ID]; ok {
			m.entries[i] = e
			continue
		}
		m.byID[e.ID] = len(m.entries)
		m.entries = append(m.entries, e)
	}
	return nil
}

// Query returns up to k entries ordered by increasing cosine distance.
func (m *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]Result, error) {
	if len(vector) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(vector), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.entries) == 0 {
		return nil, nil
	}
	results := make([]Result, len(m.entries))
	for i, e := range m.entries {
		results[i] = Result{
			ID:       e.ID,
			Text:     e.Text,
			Meta:     e.Meta,
			Distance: CosineDistance(vector, e.Vector),
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Delete removes entries whose metadata satisfies match and returns their IDs.
func (m *MemoryStore) Delete(ctx context.Context, match func(ChunkMeta) bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted []string
	kept := m.entries[:0]
	for _, e := range m.entries {
		if match(e.Meta) {
			deleted = append(deleted, e.ID)
			delete(m.byID, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	for i, e := range m.entries {
		m.byID[e.ID] = i
	}
	return deleted, nil
}

// List returns the metadata of all entries in insertion order.
func (m *MemoryStore) List(ctx context.Context) ([]ChunkMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	metas := make([]ChunkMeta, len(m.entries))
	for i, e := range m.entries {
		metas[i] = e.Meta
	}
	return metas, nil
}

// Count returns the number of stored entries.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Reset drops all entries.
func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.byID = make(map[string]int)
	return nil
}

// Save persists the collection to path. Directory is created if needed.
// Format: dimension (4), n (4), then per entry: idLen (4), id, vector
// (dimension*4), textLen (4), text, metaLen (4), metadata JSON.
func (m *MemoryStore) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(m.entries))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, e := range m.entries {
		metaJSON, err := json.Marshal(e.Meta)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if err := writeBlob(f, []byte(e.ID)); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
		if err := writeBlob(f, []byte(e.Text)); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
		if err := writeBlob(f, metaJSON); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
	}
	return nil
}

// Load reads the collection from path, replacing in-memory contents.
// Dimensions must match. A missing file is not an error; the store is
// left unchanged.
func (m *MemoryStore) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, store expects %d", dim, m.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	entries := make([]Entry, 0, n)
	byID := make(map[string]int, n)
	vecBuf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		id, err := readBlob(f)
		if err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(f, vecBuf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		text, err := readBlob(f)
		if err != nil {
			return fmt.Errorf("read text: %w", err)
		}
		metaJSON, err := readBlob(f)
		if err != nil {
			return fmt.Errorf("read metadata: %w", err)
		}
		var meta ChunkMeta
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return fmt.Errorf("unmarshal metadata: %w", err)
		}
		byID[string(id)] = len(entries)
		entries = append(entries, Entry{
			ID:     string(id),
			Vector: bytesToFloat32Slice(vecBuf),
			Text:   string(text),
			Meta:   meta,
		})
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = entries
	m.byID = byID
	return nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}

func writeBlob(f *os.File, b []byte) error {
	if err := binary.Write(f, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := f.Write(b)
	return err
}

func readBlob(f *os.File) ([]byte, error) {
	var n uint32
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(f, b); err != nil {
		return nil, err
	}
	return b, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
