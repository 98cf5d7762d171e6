// models/questions.go
package models

import (
	"gorm.io/gorm"

	"github.com/wfunc/partyserver/game"
)

// GormQuestion is a trivia catalog row for the GORM-backed store.
type GormQuestion struct {
	gorm.Model
	Text   string  `gorm:"uniqueIndex;not null"`
	Answer float64 `gorm:"not null"`
}

// TableName keeps both Postgres store implementations on the same table.
func (GormQuestion) TableName() string {
	return "trivia_questions"
}

// Question converts the row to its in-game form.
func (m *GormQuestion) Question() game.Question {
	return game.Question{Text: m.Text, Answer: m.Answer}
}

// NewGormQuestion builds a row from a catalog entry.
func NewGormQuestion(q game.Question) GormQuestion {
	return GormQuestion{Text: q.Text, Answer: q.Answer}
}
