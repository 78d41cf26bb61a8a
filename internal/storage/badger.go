package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"paperlab/internal/domain"
)

// BadgerCache implements ResultCache on BadgerDB.
//
// Reads run in badger read transactions and never block writers. Writes go
// through update transactions, and misses for the same id are collapsed by a
// singleflight group so a record is fetched at most once per cache lifetime.
type BadgerCache struct {
	db    *badger.DB
	log   logrus.FieldLogger
	group singleflight.Group
}

// NewBadgerCache opens the cache. An empty dbPath keeps everything in memory,
// which gives the cache the lifetime of the process.
func NewBadgerCache(dbPath string, logger logrus.FieldLogger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dbPath)
	if dbPath == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %q: %w", dbPath, err)
	}
	logger.WithField("in_memory", dbPath == "").Info("Result cache opened")

	return &BadgerCache{
		db:  db,
		log: logger.WithField("component", "result_cache"),
	}, nil
}

// Close closes the BadgerDB database.
func (c *BadgerCache) Close() error {
	err := c.db.Close()
	if err != nil {
		c.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	c.log.Info("Result cache closed")
	return nil
}

// paperKey format: paper:{id}
func paperKey(id string) []byte {
	return []byte("paper:" + id)
}

// Put stores p under its id, overwriting any previous record.
func (c *BadgerCache) Put(ctx context.Context, p domain.Paper) error {
	return c.put(p, p.ID)
}

// put stores p under each of keys in one transaction.
func (c *BadgerCache) put(p domain.Paper, keys ...string) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal paper %s: %w", p.ID, err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.SetEntry(badger.NewEntry(paperKey(k), data)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.log.WithError(err).WithField("paper_id", p.ID).Error("Failed to store paper")
		return fmt.Errorf("failed to store paper %s: %w", p.ID, err)
	}

	c.log.WithField("paper_id", p.ID).Debug("Paper cached")
	return nil
}

// Get looks id up without side effects.
func (c *BadgerCache) Get(ctx context.Context, id string) (domain.Paper, bool, error) {
	var p domain.Paper
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(paperKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Paper{}, false, nil
	}
	if err != nil {
		c.log.WithError(err).WithField("paper_id", id).Error("Failed to read paper")
		return domain.Paper{}, false, fmt.Errorf("failed to read paper %s: %w", id, err)
	}
	return p, true, nil
}

// Resolve serves id from the cache, falling back to fetch on a miss.
//
// Concurrent misses for one id share a single fetch. That fetch is detached
// from any one caller's cancellation, so a caller that gives up does not fail
// the others; each caller still returns as soon as its own ctx is done.
func (c *BadgerCache) Resolve(ctx context.Context, id string, fetch FetchFunc) (domain.Paper, error) {
	if p, ok, err := c.Get(ctx, id); err != nil {
		return domain.Paper{}, err
	} else if ok {
		return p, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		// Another flight may have stored it between our miss and now.
		if p, ok, err := c.Get(flightCtx, id); err != nil {
			return nil, err
		} else if ok {
			return p, nil
		}

		c.log.WithField("paper_id", id).Info("Cache miss, fetching paper")
		p, err := fetch(flightCtx, id)
		if err != nil {
			return nil, err
		}
		if p.ID == id {
			return p, c.put(p, id)
		}
		if !domain.SameArticle(id, p.ID) {
			return nil, fmt.Errorf("%w: requested %s, got %s", ErrIDMismatch, id, p.ID)
		}
		// A versionless request answered with the latest version: keep both keys.
		if err := c.put(p, p.ID, id); err != nil {
			return nil, err
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return domain.Paper{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Paper{}, res.Err
		}
		if res.Shared {
			c.log.WithField("paper_id", id).Debug("Fetch shared with a concurrent caller")
		}
		return res.Val.(domain.Paper), nil
	}
}

// --- BadgerDB Internal Logger ---

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
