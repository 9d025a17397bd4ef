package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm/clause"
)

func (s *Store) LoadSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error; err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

// SaveSession inserts or replaces the session row.
func (s *Store) SaveSession(ctx context.Context, sess *Session) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(sess).Error
	return errors.Wrap(err, "save session")
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Session{}).Error
	return errors.Wrap(err, "delete session")
}
