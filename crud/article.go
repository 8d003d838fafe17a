package crud

import (
	"errors"

	"gorm.io/gorm"

	"conduit/domain"
	"conduit/errs"
)

// ArticleService manages Articles and builds the filtered listing and
// the follow-graph feed. It implements the domain.ArticleService
// interface.
type ArticleService struct {
	articleValidator
}

// articleValidator runs validations and ownership checks on incoming
// article mutations before handing them to articleGorm.
type articleValidator struct {
	articleGorm
}

// articleGorm runs queries and CRUD operations on the articles table.
// It borrows the follow and favorite services for the feed's author set
// and the per-viewer favorited annotation.
type articleGorm struct {
	db        *gorm.DB
	follows   domain.FollowService
	favorites domain.FavoriteService
}

// NewArticleService returns an instance of ArticleService.
func NewArticleService(db *gorm.DB, follows domain.FollowService, favorites domain.FavoriteService) *ArticleService {
	return &ArticleService{
		articleValidator{
			articleGorm{
				db:        db,
				follows:   follows,
				favorites: favorites,
			},
		},
	}
}

var _ domain.ArticleService = &ArticleService{}

// Create persists a new article owned by the given author. The tag list
// defaults to the empty list and the slug is derived from the title.
func (av *articleValidator) Create(author *domain.User, article *domain.Article) error {
	if err := runArticleValFns(article, av.titleRequired); err != nil {
		return err
	}
	if article.TagList == nil {
		article.TagList = domain.TagList{}
	}
	slug, err := makeSlug(article.Title)
	if err != nil {
		return err
	}
	article.Slug = slug
	article.AuthorID = author.ID
	if err := av.articleGorm.create(article); err != nil {
		return err
	}
	article.Author = *author
	return nil
}

// Update applies a sparse patch to the article with the given slug.
// Only the author may update; a patched title moves the article to a
// freshly generated slug.
func (av *articleValidator) Update(slug string, requesterID int, patch *domain.ArticlePatch) (*domain.Article, error) {
	article, err := av.articleGorm.BySlug(slug)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != requesterID {
		return nil, errs.Errorf(errs.EFORBIDDEN, "You are not the author of this article.")
	}
	updated := patch.Apply(*article)
	if err := runArticleValFns(&updated, av.titleRequired); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		newSlug, err := makeSlug(updated.Title)
		if err != nil {
			return nil, err
		}
		updated.Slug = newSlug
	}
	if err := av.articleGorm.update(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the article with the given slug. Only the author may
// delete. Favorite memberships of the article go with it, keeping the
// counter invariant trivially intact.
func (av *articleValidator) Delete(slug string, requesterID int) error {
	article, err := av.articleGorm.BySlug(slug)
	if err != nil {
		return err
	}
	if article.AuthorID != requesterID {
		return errs.Errorf(errs.EFORBIDDEN, "You are not the author of this article.")
	}
	return av.articleGorm.delete(article)
}

// runArticleValFns runs any number of functions of type articleValFn on
// the passed in Article object.
func runArticleValFns(article *domain.Article, fns ...articleValFn) error {
	for _, fn := range fns {
		if err := fn(article); err != nil {
			return err
		}
	}
	return nil
}

type articleValFn func(article *domain.Article) error

// titleRequired makes sure the title is not the empty string.
func (av *articleValidator) titleRequired(article *domain.Article) error {
	if article.Title == "" {
		return errs.Errorf(errs.EINVALID, "A title is required.")
	}
	return nil
}

// BySlug retrieves an article by its exact slug, author included.
func (ag *articleGorm) BySlug(slug string) (*domain.Article, error) {
	var article domain.Article
	err := ag.db.Preload("Author").First(&article, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The article does not exist.")
		}
		return nil, err
	}
	return &article, nil
}

// List produces one page of the filtered article listing plus the total
// number of matches after filtering but before pagination. All set
// filters are AND-combined. An author or favorited username that does
// not resolve yields an empty listing, not an error.
func (ag *articleGorm) List(viewerID int, filter domain.ArticleFilter) ([]*domain.Article, int, error) {
	query := ag.db.Model(&domain.Article{})

	if filter.Tag != "" {
		query = whereTag(query, filter.Tag)
	}

	if filter.Author != "" {
		var author domain.User
		err := ag.db.First(&author, "username = ?", filter.Author).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []*domain.Article{}, 0, nil
			}
			return nil, 0, err
		}
		query = query.Where("author_id = ?", author.ID)
	}

	if filter.FavoritedBy != "" {
		var user domain.User
		err := ag.db.First(&user, "username = ?", filter.FavoritedBy).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []*domain.Article{}, 0, nil
			}
			return nil, 0, err
		}
		ids, err := ag.favorites.ArticleIDs(user.ID)
		if err != nil {
			return nil, 0, err
		}
		if len(ids) == 0 {
			return []*domain.Article{}, 0, nil
		}
		query = query.Where("id IN ?", ids)
	}

	return ag.page(viewerID, query, filter.Limit, filter.Offset)
}

// Feed produces one page of articles authored by users the viewer
// follows. A viewer following nobody gets an empty page without a store
// query.
func (ag *articleGorm) Feed(viewerID int, page domain.Page) ([]*domain.Article, int, error) {
	ids, err := ag.follows.FollowingIDs(viewerID)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []*domain.Article{}, 0, nil
	}
	query := ag.db.Model(&domain.Article{}).Where("author_id IN ?", ids)
	return ag.page(viewerID, query, page.Limit, page.Offset)
}

// page finishes a filtered listing query: it takes the total count
// before pagination, applies ordering and limit/offset, loads the page
// and annotates it for the viewer. Ordering is newest first, ties
// broken by insertion order.
func (ag *articleGorm) page(viewerID int, query *gorm.DB, limit, offset int) ([]*domain.Article, int, error) {
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Author").Order("created_at DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var articles []*domain.Article
	if err := query.Find(&articles).Error; err != nil {
		return nil, 0, err
	}
	if err := ag.annotateFavorited(viewerID, articles); err != nil {
		return nil, 0, err
	}
	return articles, int(count), nil
}

// annotateFavorited sets the per-viewer favorited flag on each article.
// Anonymous viewers see false everywhere.
func (ag *articleGorm) annotateFavorited(viewerID int, articles []*domain.Article) error {
	if viewerID <= 0 || len(articles) == 0 {
		return nil
	}
	ids, err := ag.favorites.ArticleIDs(viewerID)
	if err != nil {
		return err
	}
	favorited := make(map[int]bool, len(ids))
	for _, id := range ids {
		favorited[id] = true
	}
	for _, article := range articles {
		article.Favorited = favorited[article.ID]
	}
	return nil
}

// whereTag constrains a query to articles whose tag list contains the
// tag. The list is stored comma-joined, so membership is matched with
// the separators wrapped around both sides rather than a raw substring.
func whereTag(query *gorm.DB, tag string) *gorm.DB {
	return query.Where("(',' || tag_list || ',') LIKE ?", "%,"+tag+",%")
}

// create and update omit the Author association so a loaded author
// record is never written back through the article.
func (ag *articleGorm) create(article *domain.Article) error {
	return ag.db.Omit("Author").Create(article).Error
}

// update also omits favorites_count: the counter belongs to the
// favorite service's atomic increments, and saving the value loaded at
// the start of the update would erase any favorite that landed in
// between.
func (ag *articleGorm) update(article *domain.Article) error {
	return ag.db.Omit("Author", "favorites_count").Save(article).Error
}

// delete removes the article and its favorite memberships together.
func (ag *articleGorm) delete(article *domain.Article) error {
	return ag.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.Favorite{}, "article_id = ?", article.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Article{}, "id = ?", article.ID).Error
	})
}
