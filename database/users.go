package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"inkwell/auth"
)

// CreateUser inserts u with the given roles. Email uniqueness is checked
// before the write and again by the unique index, both surfacing as
// ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, u *User, roles ...string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&User{}).Where("email = ?", u.Email).Count(&taken).Error; err != nil {
			return errors.Wrap(err, "check email")
		}
		if taken > 0 {
			return ErrEmailTaken
		}

		if s.FirstUserAdmin {
			var total int64
			if err := tx.Model(&User{}).Count(&total).Error; err != nil {
				return errors.Wrap(err, "count users")
			}
			if total == 0 {
				roles = append(roles, auth.RoleAdmin)
			}
		}
		u.Roles = encodeRoles(uniqueStrings(roles))

		if err := tx.Create(u).Error; err != nil {
			if isUniqueErr(err) {
				return ErrEmailTaken
			}
			return errors.Wrap(err, "create user")
		}
		return nil
	})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&User{}).Count(&n).Error
	return n, err
}

// SetRole adds or removes role on the user registered with email.
func (s *Store) SetRole(ctx context.Context, email, role string, granted bool) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&u).Error; err != nil {
			return notFound(err)
		}

		var roles []string
		for _, r := range u.RoleNames() {
			if r != role {
				roles = append(roles, r)
			}
		}
		if granted {
			roles = append(roles, role)
		}
		u.Roles = encodeRoles(roles)

		return tx.Model(&u).Update("roles", u.Roles).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
