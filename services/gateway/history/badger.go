// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianChat/services/gateway/datatypes"
)

// keyPrefix namespaces chat records inside the database so future
// record types can share the same BadgerDB instance.
const keyPrefix = "chat/"

// Config holds configuration for the Badger-backed Store.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	// Default: true for on-disk databases.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// BadgerStore implements Store on an embedded BadgerDB.
//
// # Key Layout
//
// Records are stored under
//
//	chat/<escaped principal>/<inverted unix-nanos><sequence>
//
// The timestamp component is inverted (MaxInt64 - nanos) so a plain
// ascending prefix iteration yields records newest-first, which is the
// exact shape QueryRecent promises. The sequence counter disambiguates
// writes landing in the same nanosecond.
//
// # Thread Safety
//
// Safe for concurrent use; BadgerDB transactions provide isolation.
type BadgerStore struct {
	db  *badger.DB
	seq atomic.Uint64
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// NewBadgerStore opens (or creates) the history database.
//
// The directory is created if missing. Callers own the returned store
// and must Close() it on shutdown.
func NewBadgerStore(cfg Config) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("history: path is required for persistent databases")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("history: failed to create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("history: failed to open BadgerDB: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database. The store is unusable after.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Append implements Store.
func (s *BadgerStore) Append(ctx context.Context, record datatypes.ChatRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.PrincipalID == "" {
		return fmt.Errorf("history: record has no principal")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("history: failed to encode record: %w", err)
	}
	key := s.recordKey(record.PrincipalID, record.CreatedAt)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("history: failed to append record: %w", err)
	}
	return nil
}

// QueryRecent implements Store.
func (s *BadgerStore) QueryRecent(ctx context.Context, principalID string,
	limit int) ([]datatypes.ChatRecord, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	prefix := principalPrefix(principalID)
	records := make([]datatypes.ChatRecord, 0, limit)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Keys sort by inverted timestamp, so forward iteration is
		// already newest-first.
		for it.Rewind(); it.Valid() && len(records) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec datatypes.ChatRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("history: corrupt record at %q: %w",
						it.Item().Key(), err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteAll implements Store.
func (s *BadgerStore) DeleteAll(ctx context.Context, principalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := principalPrefix(principalID)

	// Collect keys under a read transaction, then delete in batches;
	// Badger forbids iterating and writing in the same transaction.
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("history: failed to list records for delete: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("history: failed to delete record: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("history: failed to flush deletes: %w", err)
	}
	return nil
}

// recordKey builds the newest-first sortable key for one record.
func (s *BadgerStore) recordKey(principalID string, createdAt time.Time) []byte {
	inverted := uint64(math.MaxInt64 - createdAt.UnixNano())
	seq := s.seq.Add(1)
	return fmt.Appendf(principalPrefix(principalID), "%020d%08d", inverted, seq%1e8)
}

// principalPrefix escapes the principal id so ids containing '/' can
// never alias another principal's key range.
func principalPrefix(principalID string) []byte {
	return []byte(keyPrefix + url.PathEscape(principalID) + "/")
}

var _ Store = (*BadgerStore)(nil)
