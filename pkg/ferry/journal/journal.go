package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/jamesainslie/ferry/pkg/ferry/logging"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrNotFound is returned when no record matches an ID.
	ErrNotFound = errors.New("journal record not found")
	// ErrAmbiguousID is returned when an ID prefix matches several records.
	ErrAmbiguousID = errors.New("journal ID prefix is ambiguous")
)

// Key layout:
//
//	r:<started unix nanos, big endian><uuid>  -> record
//	i:<uuid>                                  -> record key
const (
	prefixRecord = "r:"
	prefixIndex  = "i:"
)

// Options configures a journal.
type Options struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// Clock drives Cleanup. Defaults to the real clock.
	Clock clockwork.Clock
}

// Journal is the operation history.
type Journal struct {
	db    *badger.DB
	clock clockwork.Clock
	log   *logging.Logger
}

// Open opens or creates a journal.
func Open(opts Options) (*Journal, error) {
	if opts.Path == "" && !opts.InMemory {
		return nil, errors.New("journal path cannot be empty")
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Journal{db: db, clock: clock, log: logging.Get("journal")}, nil
}

// Close closes the store.
func (j *Journal) Close() error {
	return j.db.Close()
}

func recordKey(r *Record) []byte {
	key := make([]byte, 0, len(prefixRecord)+8+16)
	key = append(key, prefixRecord...)
	key = binary.BigEndian.AppendUint64(key, uint64(r.Started.UnixNano()))
	return append(key, r.ID[:]...)
}

func indexKey(id uuid.UUID) []byte {
	return append([]byte(prefixIndex), id[:]...)
}

// Put stores a record, replacing any record with the same ID.
func (j *Journal) Put(r Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Started.IsZero() {
		r.Started = j.clock.Now()
	}
	value, err := r.encode()
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	key := recordKey(&r)

	err = j.db.Update(func(txn *badger.Txn) error {
		old, err := txn.Get(indexKey(r.ID))
		switch {
		case err == nil:
			oldKey, err := old.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := txn.Delete(oldKey); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(indexKey(r.ID), key)
	})
	if err != nil {
		return fmt.Errorf("storing record %s: %w", r.ID, err)
	}
	j.log.Debug("recorded", "id", r.ID, "kind", r.Kind, "outcome", r.Outcome)
	return nil
}

// Get returns the record whose ID starts with id. The full ID or any unique
// prefix of its string form is accepted.
func (j *Journal) Get(id string) (*Record, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, errors.New("record ID cannot be empty")
	}

	if full, err := uuid.Parse(id); err == nil {
		return j.getExact(full)
	}

	var matches []Record
	err := j.each(false, func(r *Record) bool {
		if strings.HasPrefix(r.ID.String(), id) {
			matches = append(matches, *r)
		}
		return len(matches) < 2
	})
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

func (j *Journal) getExact(id uuid.UUID) (*Record, error) {
	var r Record
	err := j.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get(indexKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(r.decode)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns records newest first. If limit is 0 or negative, all records
// are returned.
func (j *Journal) List(limit int) ([]Record, error) {
	records := []Record{}
	err := j.each(true, func(r *Record) bool {
		records = append(records, *r)
		return limit <= 0 || len(records) < limit
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// each visits records in start order, or newest first when reverse is set,
// until fn returns false.
func (j *Journal) each(reverse bool, fn func(r *Record) bool) error {
	prefix := []byte(prefixRecord)
	return j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = reverse
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefix
		if reverse {
			seek = append([]byte(prefixRecord), 0xFF)
		}
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var r Record
			if err := it.Item().Value(r.decode); err != nil {
				j.log.Warn("skipping unreadable record", "key", it.Item().KeyCopy(nil), "error", err)
				continue
			}
			if !fn(&r) {
				return nil
			}
		}
		return nil
	})
}

// Cleanup removes records started more than retentionDays ago and returns
// how many were removed.
func (j *Journal) Cleanup(retentionDays int) (int, error) {
	cutoff := j.clock.Now().AddDate(0, 0, -retentionDays)
	return j.removeBefore(cutoff)
}

func (j *Journal) removeBefore(cutoff time.Time) (int, error) {
	var stale []Record
	err := j.each(false, func(r *Record) bool {
		if !r.Started.Before(cutoff) {
			return false
		}
		stale = append(stale, *r)
		return true
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := j.db.NewWriteBatch()
	defer wb.Cancel()
	for i := range stale {
		if err := wb.Delete(recordKey(&stale[i])); err != nil {
			return 0, err
		}
		if err := wb.Delete(indexKey(stale[i].ID)); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("removing old records: %w", err)
	}
	j.log.Info("journal cleaned", "removed", len(stale), "cutoff", cutoff)
	return len(stale), nil
}
