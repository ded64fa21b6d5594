package file

import (
	"context"
	"easyprofile/internal/types"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-yaml"
)

// document is the on-disk layout: profile id -> category -> entry -> value.
type document struct {
	Profiles map[string]map[string]map[string]any `yaml:"profiles"`
}

// ProfileStore keeps every profile in one YAML file. Writes go through a temp file and a
// rename, so readers never see a half-written document.
type ProfileStore struct {
	path string

	mu         sync.Mutex
	lastDigest uint64
}

func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

func (s *ProfileStore) Path() string { return s.path }

func (s *ProfileStore) Load(_ context.Context, profileID string) (types.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return types.Snapshot{}, err
	}
	cats, ok := doc.Profiles[profileID]
	if !ok || len(cats) == 0 {
		return types.Snapshot{}, types.ErrNotFound
	}
	return types.Snapshot{ProfileID: profileID, Categories: cats}, nil
}

func (s *ProfileStore) Save(_ context.Context, snap types.Snapshot, categories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	cats := doc.Profiles[snap.ProfileID]
	if cats == nil {
		cats = make(map[string]map[string]any)
		doc.Profiles[snap.ProfileID] = cats
	}
	if categories == nil {
		for cat := range snap.Categories {
			categories = append(categories, cat)
		}
	}
	for _, cat := range categories {
		if entries := snap.Categories[cat]; len(entries) > 0 {
			cats[cat] = entries
		}
	}
	return s.write(doc)
}

func (s *ProfileStore) Delete(_ context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Profiles[profileID]; !ok {
		return nil
	}
	delete(doc.Profiles, profileID)
	return s.write(doc)
}

func (s *ProfileStore) ClearAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.lastDigest = 0
	return nil
}

// read returns the current document. A missing file is an empty document.
func (s *ProfileStore) read() (document, error) {
	doc := document{}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc.Profiles = make(map[string]map[string]map[string]any)
		return doc, nil
	}
	if err != nil {
		return doc, types.Err(types.ErrDataStoreAccess, err, "read %s", s.path)
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return doc, types.Err(types.ErrDecode, err, "parse %s", s.path)
	}
	if doc.Profiles == nil {
		doc.Profiles = make(map[string]map[string]map[string]any)
	}
	s.lastDigest = xxhash.Sum64(b)
	return doc, nil
}

func (s *ProfileStore) write(doc document) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "write %s", s.path)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return types.Err(types.ErrDataStoreAccess, err, "write %s", s.path)
	}
	if err := tmp.Close(); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "write %s", s.path)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return types.Err(types.ErrDataStoreAccess, err, "write %s", s.path)
	}
	s.lastDigest = xxhash.Sum64(b)
	return nil
}

// changedExternally reports whether the file content differs from what this store last read
// or wrote.
func (s *ProfileStore) changedExternally() bool {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return xxhash.Sum64(b) != s.lastDigest
}

func (s *ProfileStore) ListProfiles(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(doc.Profiles))
	for id := range doc.Profiles {
		ids = append(ids, id)
	}
	return ids, nil
}
