package store

import (
	"context"
	"sync"

	"github.com/dkeye/noteroom/internal/domain"
)

// MemStore is a Store kept entirely in memory. Behavior matches
// BoltStore; tests rely on the two being interchangeable.
type MemStore struct {
	mu         sync.RWMutex
	users      map[domain.UserID]*domain.User
	byEmail    map[string]domain.UserID
	workspaces map[domain.WorkspaceID]*domain.Workspace
	notes      map[domain.NoteID]*domain.Note
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:      make(map[domain.UserID]*domain.User),
		byEmail:    make(map[string]domain.UserID),
		workspaces: make(map[domain.WorkspaceID]*domain.Workspace),
		notes:      make(map[domain.NoteID]*domain.Note),
	}
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[u.ID] = &u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *MemStore) FindUserByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *MemStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.FindUserByID(ctx, id)
}

func (s *MemStore) CreateWorkspace(_ context.Context, ws *domain.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneWorkspace(ws)
	s.workspaces[cp.ID] = cp
	return nil
}

func (s *MemStore) FindWorkspaceByID(_ context.Context, id domain.WorkspaceID) (*domain.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneWorkspace(ws), nil
}

func (s *MemStore) ListWorkspacesFor(_ context.Context, userID domain.UserID) ([]*domain.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Workspace
	for _, ws := range s.workspaces {
		if ws.IsMember(userID) {
			out = append(out, cloneWorkspace(ws))
		}
	}
	return out, nil
}

func (s *MemStore) AddMember(_ context.Context, id domain.WorkspaceID, userID domain.UserID) (*domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !ws.IsMember(userID) {
		ws.Members = append(ws.Members, userID)
	}
	return cloneWorkspace(ws), nil
}

func (s *MemStore) CreateNote(_ context.Context, note *domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := *note
	s.notes[n.ID] = &n
	return nil
}

func (s *MemStore) FindNoteByID(_ context.Context, id domain.NoteID) (*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *n
	return &out, nil
}

func (s *MemStore) ListNotes(_ context.Context, workspaceID domain.WorkspaceID) ([]*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Note
	for _, n := range s.notes {
		if n.WorkspaceID == workspaceID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) UpdateNote(_ context.Context, id domain.NoteID, patch domain.NotePatch, editedBy domain.UserID) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	n.Apply(patch, editedBy)
	out := *n
	return &out, nil
}

func (s *MemStore) DeleteNote(_ context.Context, id domain.NoteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func cloneWorkspace(ws *domain.Workspace) *domain.Workspace {
	cp := *ws
	cp.Members = append([]domain.UserID(nil), ws.Members...)
	return &cp
}
