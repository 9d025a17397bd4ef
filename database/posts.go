package database

import (
	"context"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostChanges carries the editable fields of a post. The creation date and
// author never change after creation.
type PostChanges struct {
	Title    string
	Subtitle string
	ImgURL   string
	Body     string
}

// ListPosts returns every post in store order with its author loaded.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := s.db.WithContext(ctx).Preload("Author").Order("id").Find(&posts).Error
	if err != nil {
		return nil, errors.Wrap(err, "list posts")
	}
	return posts, nil
}

// GetPost loads a post with its author and its comments in creation order.
func (s *Store) GetPost(ctx context.Context, id uint) (*Post, error) {
	var p Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.id") }).
		Preload("Comments.Author").
		First(&p, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) GetPostBySlug(ctx context.Context, postSlug string) (*Post, error) {
	var p Post
	err := s.db.WithContext(ctx).Where("slug = ?", postSlug).Order("id").First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) CreatePost(ctx context.Context, p *Post) error {
	p.Slug = slug.Make(p.Title)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := titleAvailable(tx, p.Title, 0); err != nil {
			return err
		}
		if err := tx.Omit("Author", "Comments").Create(p).Error; err != nil {
			if isUniqueErr(err) {
				return ErrTitleTaken
			}
			return errors.Wrap(err, "create post")
		}
		return nil
	})
}

// UpdatePost overwrites the editable fields of post id.
func (s *Store) UpdatePost(ctx context.Context, id uint, changes PostChanges) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Post
		if err := tx.First(&p, id).Error; err != nil {
			return notFound(err)
		}
		if err := titleAvailable(tx, changes.Title, id); err != nil {
			return err
		}

		err := tx.Model(&p).Updates(map[string]any{
			"title":    changes.Title,
			"slug":     slug.Make(changes.Title),
			"subtitle": changes.Subtitle,
			"img_url":  changes.ImgURL,
			"body":     changes.Body,
		}).Error
		if err != nil {
			if isUniqueErr(err) {
				return ErrTitleTaken
			}
			return errors.Wrap(err, "update post")
		}
		return nil
	})
}

// DeletePost removes the post and its comments in one transaction.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Post
		if err := tx.First(&p, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return errors.Wrap(err, "delete comments")
		}
		if err := tx.Delete(&p).Error; err != nil {
			return errors.Wrap(err, "delete post")
		}
		return nil
	})
}

func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Post{}).Count(&n).Error
	return n, err
}

func titleAvailable(tx *gorm.DB, title string, exceptID uint) error {
	var n int64
	q := tx.Model(&Post{}).Where("title = ?", title)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return errors.Wrap(err, "check title")
	}
	if n > 0 {
		return ErrTitleTaken
	}
	return nil
}
