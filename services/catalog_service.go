// services/catalog_service.go
package services

import (
	"context"

	"github.com/wfunc/partyserver/game"
	"github.com/wfunc/partyserver/logger"
	"github.com/wfunc/partyserver/store"
)

// CatalogService hands the trivia catalog to the rest of the server. A
// broken or empty backing store degrades to the embedded catalog instead
// of taking question rooms down with it.
type CatalogService struct {
	store store.QuestionStore
}

func NewCatalogService(s store.QuestionStore) *CatalogService {
	return &CatalogService{store: s}
}

// Catalog loads the question catalog, falling back to the embedded set
// when the store cannot serve one.
func (s *CatalogService) Catalog(ctx context.Context) []game.Question {
	questions, err := s.store.Load(ctx)
	if err != nil {
		logger.Log.Warnf("catalog: falling back to embedded questions: %v", err)
		return game.DefaultQuestions()
	}
	return questions
}

// Close releases the backing store.
func (s *CatalogService) Close() error {
	return s.store.Close()
}
