package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/icingautil/icinga-reconcile/metrics"
	"github.com/icingautil/icinga-reconcile/reconcile"
)

const runPrefix = "run:"

// Entry is one recorded reconciliation run. The journal is append-only
// history for operators; the reconciler never reads it back.
type Entry struct {
	Time       int64  `json:"time"`
	Endpoint   string `json:"endpoint"`
	Family     string `json:"family,omitempty"`
	ObjectName string `json:"objectName,omitempty"`
	State      string `json:"state,omitempty"`
	Changed    bool   `json:"changed"`
	Failed     bool   `json:"failed"`
	Status     int    `json:"status,omitempty"`
	Msg        string `json:"msg,omitempty"`
}

// FromRun builds an entry from a request/outcome pair.
func FromRun(req reconcile.Request, outcome reconcile.Outcome) Entry {
	return Entry{
		Time:       time.Now().Unix(),
		Endpoint:   string(req.Endpoint),
		Family:     string(req.Family),
		ObjectName: req.ObjectName,
		State:      string(req.State),
		Changed:    outcome.Changed,
		Failed:     outcome.Failed,
		Status:     outcome.Status,
		Msg:        outcome.Msg,
	}
}

type Journal interface {
	Append(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

type badgerJournal struct {
	db      *badger.DB
	metrics *metrics.Metrics
}

func New(path string, metrics *metrics.Metrics) (Journal, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	j := &badgerJournal{db: db, metrics: metrics}
	return j, nil
}

func (j *badgerJournal) Append(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		j.metrics.IncJournalRequest("create", false)
		return err
	}

	// Nanosecond keys keep entries ordered and distinct even when several
	// invocations land in the same second.
	key := fmt.Sprintf("%s%020d", runPrefix, time.Now().UnixNano())
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	j.metrics.IncJournalRequest("create", err == nil)
	return err
}

func (j *badgerJournal) Recent(ctx context.Context, n int) ([]Entry, error) {
	entries := []Entry{}

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(runPrefix)
		// Reverse iteration needs a seek key past the whole prefix range.
		seek := append([]byte(runPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(entries) < n; it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var entry Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	j.metrics.IncJournalRequest("read", err == nil)
	return entries, err
}

func (j *badgerJournal) Close() error {
	return j.db.Close()
}
