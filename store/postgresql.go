// store/postgresql.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL driver
	_ "github.com/lib/pq"

	"github.com/wfunc/partyserver/game"
)

const queryTimeout = 5 * time.Second

// PostgreSQL serves the catalog from a Postgres table over database/sql.
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL connects, creates the questions table if needed, and seeds
// the embedded catalog so a fresh database can serve games immediately.
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}
	if err := seedDefaults(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS trivia_questions (
            id SERIAL PRIMARY KEY,
            text TEXT UNIQUE NOT NULL,
            answer DOUBLE PRECISION NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	return err
}

// seedDefaults inserts the embedded catalog, skipping questions already
// present, so operator-added rows survive restarts untouched.
func seedDefaults(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `
        INSERT INTO trivia_questions (text, answer)
        VALUES ($1, $2)
        ON CONFLICT (text) DO NOTHING
    `
	for _, q := range game.DefaultQuestions() {
		if _, err := db.ExecContext(ctx, query, q.Text, q.Answer); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the full catalog in insertion order.
func (p *PostgreSQL) Load(ctx context.Context) ([]game.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `SELECT text, answer FROM trivia_questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []game.Question
	for rows.Next() {
		var q game.Question
		if err := rows.Scan(&q.Text, &q.Answer); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
