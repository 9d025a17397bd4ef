package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CreateComment stores c after checking that its post and author still
// exist. The checks and the insert share one transaction.
func (s *Store) CreateComment(ctx context.Context, c *Comment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Post{}).Where("id = ?", c.PostID).Count(&n).Error; err != nil {
			return errors.Wrap(err, "check post")
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := tx.Model(&User{}).Where("id = ?", c.AuthorID).Count(&n).Error; err != nil {
			return errors.Wrap(err, "check author")
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := tx.Omit("Author").Create(c).Error; err != nil {
			return errors.Wrap(err, "create comment")
		}
		return nil
	})
}

func (s *Store) CountComments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Comment{}).Count(&n).Error
	return n, err
}

func (s *Store) CountCommentsForPost(ctx context.Context, postID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}
