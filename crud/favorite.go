package crud

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"conduit/domain"
	"conduit/errs"
)

// FavoriteService manages favorite memberships between users and
// articles. Membership rows and the article's denormalized
// favorites_count are always written inside one transaction, and the
// counter update is an atomic in-database increment, so concurrent
// favoriting of the same article from different users cannot lose
// updates. It implements the domain.FavoriteService interface.
type FavoriteService struct {
	favoriteValidator
}

// favoriteValidator resolves and validates favorite mutations before
// handing them to favoriteGorm.
type favoriteValidator struct {
	favoriteGorm
}

// favoriteGorm runs CRUD operations on the favorites table.
type favoriteGorm struct {
	db *gorm.DB
}

// NewFavoriteService returns an instance of FavoriteService.
func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{
		favoriteValidator{
			favoriteGorm{
				db: db,
			},
		},
	}
}

var _ domain.FavoriteService = &FavoriteService{}

// Add puts the article with the given slug into the user's favorites.
// Favoriting an already favorited article is a no-op: no duplicate row,
// no counter change. It returns the article with its up-to-date counter
// and the favorited flag set.
func (fv *favoriteValidator) Add(userID int, slug string) (*domain.Article, error) {
	article, err := fv.articleBySlug(slug)
	if err != nil {
		return nil, err
	}
	favorited, err := fv.IsFavorited(userID, article.ID)
	if err != nil {
		return nil, err
	}
	if !favorited {
		added, err := fv.favoriteGorm.add(userID, article.ID)
		if err != nil {
			return nil, err
		}
		if added {
			article.FavoritesCount++
		}
	}
	article.Favorited = true
	return article, nil
}

// Remove takes the article with the given slug out of the user's
// favorites. Unfavoriting an article that is not favorited is a no-op.
func (fv *favoriteValidator) Remove(userID int, slug string) (*domain.Article, error) {
	article, err := fv.articleBySlug(slug)
	if err != nil {
		return nil, err
	}
	favorited, err := fv.IsFavorited(userID, article.ID)
	if err != nil {
		return nil, err
	}
	if favorited {
		removed, err := fv.favoriteGorm.remove(userID, article.ID)
		if err != nil {
			return nil, err
		}
		if removed {
			article.FavoritesCount--
		}
	}
	article.Favorited = false
	return article, nil
}

// articleBySlug resolves a slug to its article record, author included.
func (fg *favoriteGorm) articleBySlug(slug string) (*domain.Article, error) {
	var article domain.Article
	err := fg.db.Preload("Author").First(&article, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The article does not exist.")
		}
		return nil, err
	}
	return &article, nil
}

// IsFavorited reports whether the user has the article in their
// favorites.
func (fg *favoriteGorm) IsFavorited(userID, articleID int) (bool, error) {
	var favorite domain.Favorite
	err := fg.db.First(&favorite, "user_id = ? AND article_id = ?", userID, articleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ArticleIDs returns the ids of all articles the user has favorited.
func (fg *favoriteGorm) ArticleIDs(userID int) ([]int, error) {
	var ids []int
	err := fg.db.Model(&domain.Favorite{}).
		Where("user_id = ?", userID).
		Pluck("article_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// add inserts the membership row and increments the article's counter.
// The increment happens in the database, not as a read-then-write in
// Go, and only when this call actually inserted the row: a concurrent
// duplicate insert lands on the unique index as a conflict-do-nothing,
// so two racing favorites from the same viewer count once. It reports
// whether the membership was inserted.
func (fg *favoriteGorm) add(userID, articleID int) (bool, error) {
	var added bool
	err := fg.db.Transaction(func(tx *gorm.DB) error {
		favorite := domain.Favorite{UserID: userID, ArticleID: articleID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&favorite)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		added = true
		return tx.Model(&domain.Article{}).
			Where("id = ?", articleID).
			UpdateColumn("favorites_count", gorm.Expr("favorites_count + 1")).Error
	})
	return added, err
}

// remove deletes the membership row and decrements the article's
// counter, all-or-nothing. The decrement only runs when a row was
// actually deleted, so two racing unfavorites from the same viewer
// cannot drive the counter negative. It reports whether the membership
// was removed.
func (fg *favoriteGorm) remove(userID, articleID int) (bool, error) {
	var removed bool
	err := fg.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Favorite{}, "user_id = ? AND article_id = ?", userID, articleID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&domain.Article{}).
			Where("id = ?", articleID).
			UpdateColumn("favorites_count", gorm.Expr("favorites_count - 1")).Error
	})
	return removed, err
}
