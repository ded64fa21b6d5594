package api

import (
	"context"
	"easyprofile/internal/persist"
	"easyprofile/internal/ports"
	"easyprofile/internal/profile"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Service serializes access to one profile shared by HTTP handlers, the file watcher and
// the command line. profile.Profile itself is single-threaded.
type Service struct {
	mu        sync.Mutex
	p         *profile.Profile
	store     ports.ProfileStore
	profileID string

	// OnFlush, when set, observes the outcome of every flush.
	OnFlush func(err error)
}

func NewService(p *profile.Profile, store ports.ProfileStore, profileID string) *Service {
	return &Service{p: p, store: store, profileID: profileID}
}

func (s *Service) ProfileID() string { return s.profileID }

// Do runs fn with exclusive access to the profile.
func (s *Service) Do(fn func(p *profile.Profile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.p)
}

// Reload restores the stored state and pushes it to every listener.
func (s *Service) Reload(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := persist.Load(ctx, s.p, s.store, s.profileID)
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"profileID": s.profileID, "entries": n}).Info("Profile loaded")
	return n, nil
}

// Flush writes dirty categories to the store.
func (s *Service) Flush(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, err := persist.Flush(ctx, s.p, s.store, s.profileID)
	if s.OnFlush != nil {
		s.OnFlush(err)
	}
	return names, err
}
