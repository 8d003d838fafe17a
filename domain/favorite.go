package domain

import "time"

// Favorite represents a many-to-many relationship between a User and an
// Article. It is an explicit join entity so that membership changes and
// the article's denormalized favorites_count can be written together in
// one transaction. The (UserID, ArticleID) pair is unique.
type Favorite struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id" gorm:"notNull;uniqueIndex:idx_favorites_membership"`
	ArticleID int       `json:"article_id" gorm:"notNull;uniqueIndex:idx_favorites_membership"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteService is a set of methods to manipulate and work with the
// Favorite model. Add and Remove resolve the article by slug and are
// idempotent; both return the article with its up-to-date counter.
type FavoriteService interface {
	Add(userID int, slug string) (*Article, error)
	Remove(userID int, slug string) (*Article, error)
	ArticleIDs(userID int) ([]int, error)
	IsFavorited(userID, articleID int) (bool, error)
}
