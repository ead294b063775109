package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

// NotifyChannel is the LISTEN/NOTIFY channel raised by the
// display_settings trigger; the payload is the display id.
const NotifyChannel = "display_settings_changed"

// Connect opens a PostgreSQL connection, retrying while the database
// starts up.
func Connect(databaseURL string) (*sqlx.DB, error) {
	const maxRetries = 10
	const retryInterval = 2 * time.Second
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		var db *sqlx.DB
		db, err = sqlx.Connect("postgres", databaseURL)
		if err == nil {
			log.Info().Msg("connected to database")
			return db, nil
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", retryInterval)

		time.Sleep(retryInterval)
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

// RunMigrations executes every "*.up.sql" file in migrationsPath in name
// order. "*.down.sql" files are ignored.
func RunMigrations(db *sqlx.DB, migrationsPath string) error {
	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		if len(sqlBytes) == 0 {
			continue
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("error executing migration %q: %w", file, err)
		}
		log.Debug().Str("file", filepath.Base(file)).Msg("migration applied")
	}
	return nil
}

// PostgresStore reads the JSONB settings row of one display and reloads
// it on NOTIFY.
type PostgresStore struct {
	observers
	db          *sqlx.DB
	databaseURL string
	displayID   string

	mu       sync.Mutex
	listener *pq.Listener
	done     chan struct{}
}

func NewPostgresStore(db *sqlx.DB, databaseURL, displayID string) *PostgresStore {
	return &PostgresStore{db: db, databaseURL: databaseURL, displayID: displayID}
}

func (p *PostgresStore) Snapshot(ctx context.Context) (model.Settings, error) {
	var payload []byte
	const q = `SELECT payload FROM display_settings WHERE display_id = $1;`
	err := p.db.GetContext(ctx, &payload, q, p.displayID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, fmt.Errorf("%w: display %s: %w", ErrUnavailable, p.displayID, ErrNotFound)
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("%w: query display %s: %v", ErrUnavailable, p.displayID, err)
	}
	return Decode(payload, JSON)
}

func (p *PostgresStore) OnSettingsChanged(h Handler) func() {
	return p.add(h)
}

// Start listens for change notifications.
func (p *PostgresStore) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener != nil {
		return nil
	}

	report := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn().Err(err).Int("event", int(ev)).Msg("settings listener event")
		}
	}
	listener := pq.NewListener(p.databaseURL, 10*time.Second, time.Minute, report)
	if err := listener.Listen(NotifyChannel); err != nil {
		_ = listener.Close()
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	p.listener = listener
	p.done = make(chan struct{})
	go p.listen(listener, p.done)
	return nil
}

func (p *PostgresStore) listen(l *pq.Listener, done chan struct{}) {
	for {
		select {
		case n := <-l.Notify:
			// nil means the connection was re-established; reload anyway
			if n != nil && n.Extra != "" && n.Extra != p.displayID {
				continue
			}
			s, err := p.Snapshot(context.Background())
			if err != nil {
				log.Warn().Err(err).Str("display_id", p.displayID).Msg("settings reload failed")
				continue
			}
			p.notify(s)
		case <-time.After(90 * time.Second):
			go func() {
				if err := l.Ping(); err != nil {
					log.Warn().Err(err).Msg("settings listener ping failed")
				}
			}()
		case <-done:
			return
		}
	}
}

func (p *PostgresStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.listener != nil {
		close(p.done)
		err = p.listener.Close()
		p.listener = nil
	}
	if cerr := p.db.Close(); err == nil {
		err = cerr
	}
	return err
}
