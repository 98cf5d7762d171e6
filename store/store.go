// store/store.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/partyserver/game"
)

var (
	ErrNoQuestions = errors.New("question catalog is empty")
)

// QuestionStore loads the trivia catalog rooms deal questions from. The
// catalog is read-only content; game state never touches a store.
type QuestionStore interface {
	Load(ctx context.Context) ([]game.Question, error)
	Close() error
}

// Driver names selectable through database.driver.
const (
	DriverEmbedded = "embedded"
	DriverPostgres = "postgres"
	DriverGorm     = "gorm"
)

// Open builds the question store named by driver. An empty driver selects
// the catalog compiled into the binary.
func Open(driver, host string, port int, user, password, dbname string) (QuestionStore, error) {
	switch driver {
	case "", DriverEmbedded:
		return NewEmbedded(), nil
	case DriverPostgres:
		return NewPostgreSQL(host, port, user, password, dbname)
	case DriverGorm:
		return NewGormPostgreSQL(host, port, user, password, dbname)
	default:
		return nil, fmt.Errorf("unknown question store driver %q", driver)
	}
}

// Embedded serves the default catalog compiled into the binary.
type Embedded struct{}

func NewEmbedded() *Embedded {
	return &Embedded{}
}

// Load returns a fresh copy of the embedded catalog.
func (e *Embedded) Load(ctx context.Context) ([]game.Question, error) {
	return game.DefaultQuestions(), nil
}

func (e *Embedded) Close() error { return nil }
