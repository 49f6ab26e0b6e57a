package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/dkeye/noteroom/internal/domain"
)

var (
	bucketUsers        = []byte("users")
	bucketUsersByEmail = []byte("users_by_email")
	bucketWorkspaces   = []byte("workspaces")
	bucketNotes        = []byte("notes")
)

// BoltStore implements Store on a single bbolt file. Values are JSON;
// users_by_email is a secondary index mapping email -> user id.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "noteroom.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{bucketUsers, bucketUsersByEmail, bucketWorkspaces, bucketNotes}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) CreateUser(_ context.Context, user *domain.User) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketUsers).Put([]byte(user.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketUsersByEmail).Put([]byte(user.Email), []byte(user.ID))
	})
}

func (s *BoltStore) FindUserByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	var user domain.User
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *BoltStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var id []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUsersByEmail).Get([]byte(domain.NormalizeEmail(email)))
		if v == nil {
			return ErrNotFound
		}
		// Bolt values are only valid inside the transaction.
		id = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.FindUserByID(ctx, domain.UserID(id))
}

func (s *BoltStore) CreateWorkspace(_ context.Context, ws *domain.Workspace) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(ws)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketWorkspaces).Put([]byte(ws.ID), data)
	})
}

func (s *BoltStore) FindWorkspaceByID(_ context.Context, id domain.WorkspaceID) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketWorkspaces).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &ws)
	})
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (s *BoltStore) ListWorkspacesFor(_ context.Context, userID domain.UserID) ([]*domain.Workspace, error) {
	var out []*domain.Workspace
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWorkspaces).ForEach(func(k, v []byte) error {
			var ws domain.Workspace
			if err := json.Unmarshal(v, &ws); err != nil {
				return err
			}
			if ws.IsMember(userID) {
				out = append(out, &ws)
			}
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) AddMember(_ context.Context, id domain.WorkspaceID, userID domain.UserID) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWorkspaces)
		data := b.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &ws); err != nil {
			return err
		}
		if !ws.IsMember(userID) {
			ws.Members = append(ws.Members, userID)
		}
		updated, err := json.Marshal(&ws)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), updated)
	})
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (s *BoltStore) CreateNote(_ context.Context, note *domain.Note) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(note)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketNotes).Put([]byte(note.ID), data)
	})
}

func (s *BoltStore) FindNoteByID(_ context.Context, id domain.NoteID) (*domain.Note, error) {
	var note domain.Note
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketNotes).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &note)
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *BoltStore) ListNotes(_ context.Context, workspaceID domain.WorkspaceID) ([]*domain.Note, error) {
	var out []*domain.Note
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNotes).ForEach(func(k, v []byte) error {
			var note domain.Note
			if err := json.Unmarshal(v, &note); err != nil {
				return err
			}
			if note.WorkspaceID == workspaceID {
				out = append(out, &note)
			}
			return nil
		})
	})
	return out, err
}

// UpdateNote applies the patch read-modify-write inside one transaction,
// so concurrent last-write-wins updates serialize here.
func (s *BoltStore) UpdateNote(_ context.Context, id domain.NoteID, patch domain.NotePatch, editedBy domain.UserID) (*domain.Note, error) {
	var note domain.Note
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		data := b.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, &note); err != nil {
			return err
		}
		note.Apply(patch, editedBy)
		updated, err := json.Marshal(&note)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), updated)
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *BoltStore) DeleteNote(_ context.Context, id domain.NoteID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}
