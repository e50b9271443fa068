// Package jsonfile stores the whole game document as a single JSON
// file. Every mutation is a read-modify-write of the entire document
// under one mutex, with a temp-file rename for the write. This is the
// default backend and matches the durability model the game was built
// around: last write wins, fully durable after return.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mcdev12/timeshop/internal/models"
	"github.com/mcdev12/timeshop/internal/store"
)

// document is the persisted layout.
type document struct {
	TotalTime int             `json:"totalTime"`
	Users     []models.User   `json:"users"`
	Reviews   []models.Review `json:"reviews"`
}

// Store is a JSON-file backed store.Store.
type Store struct {
	path string

	mu  sync.Mutex
	doc document
}

var _ store.Store = (*Store)(nil)

// Open loads the document at path, creating an empty one if the file
// does not exist. Older files missing the reviews field load as empty.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.doc = document{Users: []models.User{}, Reviews: []models.Review{}}
		if err := s.write(); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read store file: %w", err)
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parse store file %s: %w", path, err)
	}
	if s.doc.Users == nil {
		s.doc.Users = []models.User{}
	}
	if s.doc.Reviews == nil {
		s.doc.Reviews = []models.Review{}
	}
	return s, nil
}

// write persists the whole document. Caller holds mu.
func (s *Store) write() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store document: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func (s *Store) findUser(username string) *models.User {
	for i := range s.doc.Users {
		if s.doc.Users[i].Username == username {
			return &s.doc.Users[i]
		}
	}
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(username)
	if u == nil {
		return nil, store.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (s *Store) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findUser(user.Username) != nil {
		return store.ErrUserExists
	}
	s.doc.Users = append(s.doc.Users, user)
	return s.write()
}

func (s *Store) PutUserState(_ context.Context, username string, state models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(username)
	if u == nil {
		return store.ErrNotFound
	}
	u.State = state
	return s.write()
}

func (s *Store) AddTotalTime(_ context.Context, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.TotalTime += delta
	if err := s.write(); err != nil {
		return 0, err
	}
	return s.doc.TotalTime, nil
}

func (s *Store) TotalTime(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.TotalTime, nil
}

func (s *Store) AppendReview(_ context.Context, review models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Reviews = append(s.doc.Reviews, review)
	return s.write()
}

func (s *Store) ReviewsByLevel(_ context.Context, level models.CardLevel) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Review
	for _, r := range s.doc.Reviews {
		if r.Level == level {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Close() error {
	return nil
}

// DefaultPath returns dir/db.json, matching the original layout.
func DefaultPath(dir string) string {
	return filepath.Join(dir, "db.json")
}
