package dedup

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/siteops/metrics-sentinel/internal/domain"
)

const alertLogSchema = `
CREATE TABLE IF NOT EXISTS alert_log (
	site       TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	alert_date TEXT NOT NULL,
	sent_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (site, alert_type, alert_date)
)`

// PostgresStore keeps the dedup log in an alert_log table. Used when the
// batch runs from more than one host and a shared file is impractical.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool against dsn and ensures the
// alert_log table exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(alertLogSchema); err != nil {
		return nil, fmt.Errorf("create alert_log: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) AlreadyAlerted(site string, alertType domain.AlertType, date string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM alert_log WHERE site = $1 AND alert_type = $2 AND alert_date = $3)
	`, site, string(alertType), date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query alert_log: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) MarkAlerted(site string, alertType domain.AlertType, date string) error {
	_, err := s.db.Exec(`
		INSERT INTO alert_log (site, alert_type, alert_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (site, alert_type, alert_date) DO NOTHING
	`, site, string(alertType), date)
	if err != nil {
		return fmt.Errorf("insert alert_log: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
