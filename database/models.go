package database

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	Name           string         `gorm:"size:150;not null"`
	Email          string         `gorm:"size:150;uniqueIndex;not null"`
	PasswordDigest string         `gorm:"size:255;not null"`
	Roles          datatypes.JSON `gorm:"type:json"`
}

// RoleNames decodes the JSON role list. A nil user has no roles.
func (u *User) RoleNames() []string {
	if u == nil || len(u.Roles) == 0 {
		return nil
	}
	var roles []string
	if err := json.Unmarshal(u.Roles, &roles); err != nil {
		return nil
	}
	return roles
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.RoleNames() {
		if r == role {
			return true
		}
	}
	return false
}

func encodeRoles(roles []string) datatypes.JSON {
	if roles == nil {
		roles = []string{}
	}
	b, _ := json.Marshal(roles)
	return datatypes.JSON(b)
}

type Post struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	AuthorID  uint      `gorm:"index;not null"`
	Author    User      `gorm:"foreignKey:AuthorID"`
	Title     string    `gorm:"size:250;uniqueIndex;not null"`
	Slug      string    `gorm:"size:250;index"`
	Subtitle  string    `gorm:"size:250;not null"`
	Date      string    `gorm:"size:250;not null"`
	Body      string    `gorm:"type:text;not null"`
	ImgURL    string    `gorm:"size:250;not null"`
	Comments  []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

type Comment struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Body      string `gorm:"type:text;not null"`
	AuthorID  uint   `gorm:"index;not null"`
	Author    User   `gorm:"foreignKey:AuthorID"`
	PostID    uint   `gorm:"index;not null"`
}

// Session backs the database session store. UserID is zero for anonymous
// sessions that only carry flash notices.
type Session struct {
	ID        string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint           `gorm:"index"`
	Flashes   datatypes.JSON `gorm:"type:json"`
}
