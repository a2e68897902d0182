package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/logger"
	"secretsanta/internal/models"
)

// Store loads and saves the assignment document.
type Store interface {
	Load() models.Document
	Save(doc models.Document) error
}

// ExchangeService runs the load-mutate-save cycle for every user action.
type ExchangeService struct {
	mu           sync.Mutex
	store        Store
	participants []string
	rng          Shuffler
}

// NewExchangeService creates a service for the given roster. A nil rng
// falls back to a time-seeded source.
func NewExchangeService(store Store, participants []string, rng Shuffler) *ExchangeService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	roster := make([]string, len(participants))
	copy(roster, participants)
	return &ExchangeService{
		store:        store,
		participants: roster,
		rng:          rng,
	}
}

// Participants returns the roster in configured order.
func (s *ExchangeService) Participants() []string {
	roster := make([]string, len(s.participants))
	copy(roster, s.participants)
	return roster
}

// IsParticipant reports whether username takes part in the exchange.
func (s *ExchangeService) IsParticipant(username string) bool {
	return contains(s.participants, username)
}

// Current returns the stored document.
func (s *ExchangeService) Current() models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}

// RunDrawing draws new pairs for everyone and persists them.
func (s *ExchangeService) RunDrawing() (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := Draw(s.store.Load(), s.participants, s.rng)
	if err != nil {
		return doc, err
	}
	if err := s.store.Save(doc); err != nil {
		return doc, fmt.Errorf("save drawing: %w", err)
	}
	logger.Infof("Drawing completed for %d participants", len(doc.Assignments))
	return doc, nil
}

// ResetDrawing forgets the current pairs and persists the empty state.
func (s *ExchangeService) ResetDrawing() (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := Reset(s.store.Load())
	if err := s.store.Save(doc); err != nil {
		return doc, fmt.Errorf("save reset: %w", err)
	}
	logger.Infof("Drawing reset")
	return doc, nil
}

// SaveWishlist stores the wishlist text of one participant.
func (s *ExchangeService) SaveWishlist(user, text string) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := SaveWishlist(s.store.Load(), s.participants, user, text)
	if err != nil {
		return doc, err
	}
	if err := s.store.Save(doc); err != nil {
		return doc, fmt.Errorf("save wishlist for %s: %w", user, err)
	}
	logger.Infof("Wishlist saved for %s (%d bytes)", user, len(text))
	return doc, nil
}
