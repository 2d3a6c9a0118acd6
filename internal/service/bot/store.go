package bot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/elhueso/huesobot/internal/model/bot"
)

// Store persists conversation sessions in an in-memory SQLite database.
// A record whose age reaches SessionTTL is equivalent to no record at all:
// the read path deletes it lazily and a periodic sweep purges the rest.
type Store struct {
	db *sql.DB

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// expired is the single TTL predicate shared by Get and the sweeper.
func expired(lastInteraction, now time.Time) bool {
	return now.Sub(lastInteraction) >= SessionTTL
}

// NewStore opens the session database. Failure here is fatal to the
// caller: no conversation can function without the store.
func NewStore() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	// A pooled :memory: DSN would give every connection its own empty
	// database, so the pool is pinned to a single connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			jid                 TEXT PRIMARY KEY,
			state               TEXT NOT NULL,
			last_interaction_at INTEGER NOT NULL,
			metadata            TEXT NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	s := &Store{
		db:   db,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.sweepLoop()

	log.Printf("[sessions] in-memory sqlite store initialized")
	return s, nil
}

// Get returns the session for jid. A missing record and a TTL-expired one
// are indistinguishable to the caller; the expired record is deleted as a
// side effect.
func (s *Store) Get(jid string) (bot.Session, bool, error) {
	row := s.db.QueryRow(
		`SELECT state, last_interaction_at, metadata FROM sessions WHERE jid = ?`, jid)

	var (
		state   string
		lastMs  int64
		rawMeta string
	)
	if err := row.Scan(&state, &lastMs, &rawMeta); err != nil {
		if err == sql.ErrNoRows {
			return bot.Session{}, false, nil
		}
		return bot.Session{}, false, fmt.Errorf("query session: %w", err)
	}

	last := time.UnixMilli(lastMs)
	if expired(last, time.Now()) {
		if err := s.Delete(jid); err != nil {
			return bot.Session{}, false, err
		}
		return bot.Session{}, false, nil
	}

	meta := map[string]any{}
	if err := json.Unmarshal([]byte(rawMeta), &meta); err != nil {
		return bot.Session{}, false, fmt.Errorf("decode session metadata: %w", err)
	}

	return bot.Session{
		JID:               jid,
		State:             bot.State(state),
		LastInteractionAt: last,
		Metadata:          meta,
	}, true, nil
}

// Upsert replaces any existing record for the session's JID wholesale.
func (s *Store) Upsert(session bot.Session) error {
	meta := session.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode session metadata: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (jid, state, last_interaction_at, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(jid) DO UPDATE SET
			state               = excluded.state,
			last_interaction_at = excluded.last_interaction_at,
			metadata            = excluded.metadata`,
		session.JID, string(session.State), session.LastInteractionAt.UnixMilli(), string(rawMeta))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Delete removes the session for jid. Deleting an absent session is not an
// error.
func (s *Store) Delete(jid string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE jid = ?`, jid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Sweep deletes every record whose age reached the TTL. It is also invoked
// periodically by the store itself.
func (s *Store) Sweep() error {
	cutoff := time.Now().Add(-SessionTTL).UnixMilli()
	res, err := s.db.Exec(`DELETE FROM sessions WHERE last_interaction_at <= ?`, cutoff)
	if err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Printf("[sessions] swept %d expired session(s)", n)
	}
	return nil
}

func (s *Store) sweepLoop() {
	defer close(s.done)

	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.Sweep(); err != nil {
				log.Printf("[sessions] sweep failed: %v", err)
			}
		}
	}
}

// Close stops the sweeper and closes the database.
func (s *Store) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return s.db.Close()
}
