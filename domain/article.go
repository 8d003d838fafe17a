package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Article is a published piece of writing owned by exactly one author.
// The slug is derived from the title plus a random suffix and changes
// whenever the title changes. FavoritesCount is a denormalized count of
// favorite memberships and is only ever touched together with the
// favorites join table, inside one transaction.
type Article struct {
	ID             int     `json:"id"`
	Slug           string  `json:"slug" gorm:"uniqueIndex;notNull"`
	Title          string  `json:"title" gorm:"notNull"`
	Description    string  `json:"description" gorm:"default:''"`
	Body           string  `json:"body" gorm:"default:''"`
	TagList        TagList `json:"tagList" gorm:"type:text"`
	FavoritesCount int     `json:"favoritesCount" gorm:"default:0"`
	AuthorID       int     `json:"-" gorm:"notNull;index"`
	Author         User    `json:"author"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Favorited is a per-viewer annotation, never persisted.
	Favorited bool `json:"favorited" gorm:"-"`
}

// TagList is an ordered list of tags, stored as a single
// comma-joined text column.
type TagList []string

// Value serializes the list for storage.
func (t TagList) Value() (driver.Value, error) {
	return strings.Join(t, ","), nil
}

// Scan restores the list from its stored form.
func (t *TagList) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*t = TagList{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TagList", src)
	}
	if s == "" {
		*t = TagList{}
		return nil
	}
	*t = strings.Split(s, ",")
	return nil
}

// ArticlePatch is a sparse update of article fields. Nil fields are
// left untouched by Apply.
type ArticlePatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Body        *string  `json:"body"`
	TagList     *TagList `json:"tagList"`
}

// Apply merges the patch onto a copy of the article and returns it.
// The original is not modified. The caller is responsible for
// regenerating the slug when the title changed.
func (p *ArticlePatch) Apply(article Article) Article {
	if p.Title != nil {
		article.Title = *p.Title
	}
	if p.Description != nil {
		article.Description = *p.Description
	}
	if p.Body != nil {
		article.Body = *p.Body
	}
	if p.TagList != nil {
		article.TagList = *p.TagList
	}
	return article
}

// ArticleFilter is the set of optional constraints on an article
// listing. All set filters are AND-combined. Author and FavoritedBy
// are usernames and resolve to zero results when unknown.
type ArticleFilter struct {
	Tag         string
	Author      string
	FavoritedBy string

	Limit  int
	Offset int
}

// Page is plain limit/offset pagination, used where no other filters apply.
type Page struct {
	Limit  int
	Offset int
}

// ArticleService is a set of methods to manipulate and work with the
// Article model. List and Feed return the matching page plus the total
// number of matches disregarding pagination. viewerID <= 0 means the
// request is anonymous and every favorited flag is false.
type ArticleService interface {
	BySlug(slug string) (*Article, error)
	Create(author *User, article *Article) error
	Update(slug string, requesterID int, patch *ArticlePatch) (*Article, error)
	Delete(slug string, requesterID int) error
	List(viewerID int, filter ArticleFilter) ([]*Article, int, error)
	Feed(viewerID int, page Page) ([]*Article, int, error)
}
