// Package store persists per-service search history and preferences in a
// bbolt database, with an in-memory read cache in front of it.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	bolt "go.etcd.io/bbolt"
)

// MaxSearches is how many queries are kept per service
const MaxSearches = 100

// Bucket names
var (
	bucketHistory = []byte("history")
	bucketPrefs   = []byte("prefs")
)

// Store implements domain.Store using BoltDB.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte

	historyMu sync.Mutex // serializes read-modify-write of history lists
}

// Open opens (or creates) tubular.db in dir. An empty dir gives a
// memory-only store that forgets everything on exit.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "tubular.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketHistory, bucketPrefs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string, dest any) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *Store) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *Store) delete(bucket []byte, key string) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// === Search history (key: service id, value: queries newest first) ===

// Searches returns the service's search history, newest first
func (s *Store) Searches(service string) []string {
	var queries []string
	s.get(bucketHistory, service, &queries)
	return queries
}

// AddSearch records query as the newest entry. A repeated query moves to the
// front instead of appearing twice. Blank queries are ignored.
func (s *Store) AddSearch(service, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	queries := []string{query}
	for _, q := range s.Searches(service) {
		if !strings.EqualFold(q, query) {
			queries = append(queries, q)
		}
	}
	if len(queries) > MaxSearches {
		queries = queries[:MaxSearches]
	}
	return s.set(bucketHistory, service, queries)
}

// RemoveSearch deletes query from the service's history
func (s *Store) RemoveSearch(service, query string) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	old := s.Searches(service)
	queries := make([]string, 0, len(old))
	for _, q := range old {
		if !strings.EqualFold(q, query) {
			queries = append(queries, q)
		}
	}
	if len(queries) == len(old) {
		return nil
	}
	return s.set(bucketHistory, service, queries)
}

// ClearSearches drops the service's whole history
func (s *Store) ClearSearches(service string) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	return s.delete(bucketHistory, service)
}

// Suggest returns up to limit history entries fuzzy-matching input, closest
// first. Ties keep history order. An empty input returns the newest entries.
func (s *Store) Suggest(service, input string, limit int) []string {
	history := s.Searches(service)
	input = strings.TrimSpace(input)

	var out []string
	if input == "" {
		out = history
	} else {
		matches := fuzzy.RankFindFold(input, history)
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].Distance != matches[j].Distance {
				return matches[i].Distance < matches[j].Distance
			}
			return matches[i].OriginalIndex < matches[j].OriginalIndex
		})
		out = make([]string, len(matches))
		for i, m := range matches {
			out[i] = m.Target
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// === Preferences ===

// SearchOrder returns the order last chosen for the service
func (s *Store) SearchOrder(service string) (string, bool) {
	var order string
	ok := s.get(bucketPrefs, "order:"+service, &order)
	return order, ok && order != ""
}

func (s *Store) SetSearchOrder(service, order string) error {
	if order == "" {
		return s.delete(bucketPrefs, "order:"+service)
	}
	return s.set(bucketPrefs, "order:"+service, order)
}

// InvalidateAll wipes history and preferences for every service
func (s *Store) InvalidateAll() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketHistory, bucketPrefs} {
			if tx.Bucket(bucket) != nil {
				if err := tx.DeleteBucket(bucket); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}
