package crud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conduit/domain"
	"conduit/errs"
)

func TestCreateArticleSlug(t *testing.T) {
	s := newTestServices(t)
	author := createTestUser(t, s, "alice")

	article := createTestArticle(t, s, author, "Hello World")
	assert.Regexp(t, `^hello-world-[0-9a-z]{6}$`, article.Slug)
	assert.Equal(t, author.ID, article.AuthorID)
	assert.Equal(t, "alice", article.Author.Username)
}

func TestCreateArticleDefaultsTagList(t *testing.T) {
	s := newTestServices(t)
	author := createTestUser(t, s, "alice")

	article := &domain.Article{Title: "Untagged", Body: "text"}
	require.NoError(t, s.Article.Create(author, article))
	assert.NotNil(t, article.TagList)
	assert.Empty(t, article.TagList)

	err := s.Article.Create(author, &domain.Article{Body: "no title"})
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestUpdateTitleRegeneratesSlug(t *testing.T) {
	s := newTestServices(t)
	author := createTestUser(t, s, "alice")
	article := createTestArticle(t, s, author, "Hello World")

	title := "Goodbye"
	updated, err := s.Article.Update(article.Slug, author.ID, &domain.ArticlePatch{Title: &title})
	require.NoError(t, err)
	assert.Regexp(t, `^goodbye-[0-9a-z]{6}$`, updated.Slug)
	assert.NotEqual(t, article.Slug, updated.Slug)

	// The old slug no longer resolves.
	_, err = s.Article.BySlug(article.Slug)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))

	// A patch without a title keeps the slug and the other fields.
	body := "new body"
	patched, err := s.Article.Update(updated.Slug, author.ID, &domain.ArticlePatch{Body: &body})
	require.NoError(t, err)
	assert.Equal(t, updated.Slug, patched.Slug)
	assert.Equal(t, "Goodbye", patched.Title)
	assert.Equal(t, "new body", patched.Body)
}

func TestUpdateAndDeleteRequireAuthorship(t *testing.T) {
	s := newTestServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	article := createTestArticle(t, s, alice, "Owned by Alice")

	title := "Hijacked"
	_, err := s.Article.Update(article.Slug, bob.ID, &domain.ArticlePatch{Title: &title})
	assert.Equal(t, errs.EFORBIDDEN, errs.ErrorCode(err))

	err = s.Article.Delete(article.Slug, bob.ID)
	assert.Equal(t, errs.EFORBIDDEN, errs.ErrorCode(err))

	// The article survived the forbidden delete.
	got, err := s.Article.BySlug(article.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Owned by Alice", got.Title)

	require.NoError(t, s.Article.Delete(article.Slug, alice.ID))
	_, err = s.Article.BySlug(article.Slug)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestUpdateDoesNotEraseConcurrentFavorite(t *testing.T) {
	s := newTestServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	article := createTestArticle(t, s, alice, "Hello World")

	// An update holds an article loaded before a favorite lands.
	// Writing that stale row back must not revert the counter.
	stale, err := s.Article.BySlug(article.Slug)
	require.NoError(t, err)
	require.Equal(t, 0, stale.FavoritesCount)

	_, err = s.Favorite.Add(bob.ID, article.Slug)
	require.NoError(t, err)

	stale.Body = "edited while favorited"
	require.NoError(t, s.Article.update(stale))

	stored, err := s.Article.BySlug(article.Slug)
	require.NoError(t, err)
	assert.Equal(t, "edited while favorited", stored.Body)
	assert.Equal(t, 1, stored.FavoritesCount, "the counter belongs to the favorite service")
}

func TestDeleteRemovesFavoriteMemberships(t *testing.T) {
	s := newTestServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	article := createTestArticle(t, s, alice, "Doomed")

	_, err := s.Favorite.Add(bob.ID, article.Slug)
	require.NoError(t, err)
	require.NoError(t, s.Article.Delete(article.Slug, alice.ID))

	memberships := countRows(t, s, &domain.Favorite{}, "article_id = ?", article.ID)
	assert.EqualValues(t, 0, memberships)
}

func TestListFilterByTag(t *testing.T) {
	s := newTestServices(t)
	author := createTestUser(t, s, "alice")
	createTestArticle(t, s, author, "About Go", "go", "programming")
	createTestArticle(t, s, author, "About Golang", "golang")
	createTestArticle(t, s, author, "About Cooking", "cooking")

	articles, count, err := s.Article.List(0, domain.ArticleFilter{Tag: "go"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, articles, 1)
	// Membership match, not substring: "go" must not match "golang".
	assert.Equal(t, "About Go", articles[0].Title)
}

func TestListFilterByAuthor(t *testing.T) {
	s := newTestServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	createTestArticle(t, s, alice, "By Alice")
	createTestArticle(t, s, bob, "By Bob")

	articles, count, err := s.Article.List(0, domain.ArticleFilter{Author: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, articles, 1)
	assert.Equal(t, "By Alice", articles[0].Title)

	// An unknown author yields an empty listing, not an error.
	articles, count, err = s.Article.List(0, domain.ArticleFilter{Author: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, articles)
}

func TestListFilterByFavorited(t *testing.T) {
	s := newTestServices(t)
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	liked := createTestArticle(t, s, alice, "Liked")
	createTestArticle(t, s, alice, "Ignored")

	_, err := s.Favorite.Add(bob.ID, liked.Slug)
	require.NoError(t, err)

	articles, count, err := s.Article.List(0, domain.ArticleFilter{FavoritedBy: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, articles, 1)
	assert.Equal(t, "Liked", articles[0].Title)

	// A user with no favorites filters everything out, without error.
	articles, count, err = s.Article.List(0, domain.ArticleFilter{FavoritedBy: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, articles)

	articles, count, err = s.Article.List(0, domain.ArticleFilter{FavoritedBy: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, articles)
}

func TestListCountIgnoresPagination(t *testing.T) {
	s := newTestServices(t)
	author := createTestUser(t, s, "alice")
	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		article := createTestArticle(t, s, author, title)
		setCreatedAt(t, s, article, base.Add(time.Duration(i)*time.Hour))
	}

	articles, count, err := s.Article.List(0, domain.ArticleFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Len(t, articles, 2)

	articles, count, err = s.Article.List(0, domain.ArticleFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Len(t, articles, 1)
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := newTestServices(t)
	author := createTestUser(t, s, "alice")
	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	oldest := createTestArticle(t, s, author, "Oldest")
	setCreatedAt(t, s, oldest, base)
	newest := createTestArticle(t, s, author, "Newest")
	setCreatedAt(t, s, newest, base.Add(2*time.Hour))
	middle := createTestArticle(t, s, author, "Middle")
	setCreatedAt(t, s, middle, base.Add(time.Hour))

	articles, _, err := s.Article.List(0, domain.ArticleFilter{})
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "Newest", articles[0].Title)
	assert.Equal(t, "Middle", articles[1].Title)
	assert.Equal(t, "Oldest", articles[2].Title)
}

func TestListTiesBrokenByInsertionOrder(t *testing.T) {
	s := newTestServices(t)
	author := createTestUser(t, s, "alice")
	at := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	first := createTestArticle(t, s, author, "Inserted First")
	setCreatedAt(t, s, first, at)
	second := createTestArticle(t, s, author, "Inserted Second")
	setCreatedAt(t, s, second, at)

	articles, _, err := s.Article.List(0, domain.ArticleFilter{})
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Inserted First", articles[0].Title)
	assert.Equal(t, "Inserted Second", articles[1].Title)
}

func TestListAnnotatesFavoritedForViewer(t *testing.T) {
	s := newTestServices(t)
	author := createTestUser(t, s, "alice")
	viewer := createTestUser(t, s, "bob")
	liked := createTestArticle(t, s, author, "Liked")
	createTestArticle(t, s, author, "Not Liked")

	_, err := s.Favorite.Add(viewer.ID, liked.Slug)
	require.NoError(t, err)

	articles, _, err := s.Article.List(viewer.ID, domain.ArticleFilter{})
	require.NoError(t, err)
	require.Len(t, articles, 2)
	favorited := map[string]bool{}
	for _, article := range articles {
		favorited[article.Title] = article.Favorited
	}
	assert.True(t, favorited["Liked"])
	assert.False(t, favorited["Not Liked"])

	// Anonymous viewers see favorited=false everywhere.
	articles, _, err = s.Article.List(0, domain.ArticleFilter{})
	require.NoError(t, err)
	for _, article := range articles {
		assert.False(t, article.Favorited)
	}
}

func TestFeedScopedToFollowedAuthors(t *testing.T) {
	s := newTestServices(t)
	viewer := createTestUser(t, s, "viewer")
	followed := createTestUser(t, s, "followed")
	stranger := createTestUser(t, s, "stranger")

	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	older := createTestArticle(t, s, followed, "Older Followed Post")
	setCreatedAt(t, s, older, base)
	newer := createTestArticle(t, s, followed, "Newer Followed Post")
	setCreatedAt(t, s, newer, base.Add(time.Hour))
	createTestArticle(t, s, stranger, "Stranger Post")
	createTestArticle(t, s, viewer, "Own Post")

	_, err := s.Follow.Follow(viewer.ID, "followed")
	require.NoError(t, err)

	articles, count, err := s.Article.Feed(viewer.ID, domain.Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, articles, 2)
	assert.Equal(t, "Newer Followed Post", articles[0].Title)
	assert.Equal(t, "Older Followed Post", articles[1].Title)
	assert.Equal(t, "followed", articles[0].Author.Username)
}

func TestFeedEmptyWhenFollowingNobody(t *testing.T) {
	s := newTestServices(t)
	viewer := createTestUser(t, s, "viewer")
	author := createTestUser(t, s, "author")
	createTestArticle(t, s, author, "Unseen Post")

	articles, count, err := s.Article.Feed(viewer.ID, domain.Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, articles)
}

func TestFeedCountIgnoresPagination(t *testing.T) {
	s := newTestServices(t)
	viewer := createTestUser(t, s, "viewer")
	followed := createTestUser(t, s, "followed")
	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"One", "Two", "Three"} {
		article := createTestArticle(t, s, followed, title)
		setCreatedAt(t, s, article, base.Add(time.Duration(i)*time.Hour))
	}
	_, err := s.Follow.Follow(viewer.ID, "followed")
	require.NoError(t, err)

	articles, count, err := s.Article.Feed(viewer.ID, domain.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, articles, 1)
	assert.Equal(t, "Two", articles[0].Title)
}

func TestFeedAnnotatesFavorited(t *testing.T) {
	s := newTestServices(t)
	viewer := createTestUser(t, s, "viewer")
	followed := createTestUser(t, s, "followed")
	liked := createTestArticle(t, s, followed, "Liked Post")
	createTestArticle(t, s, followed, "Other Post")

	_, err := s.Follow.Follow(viewer.ID, "followed")
	require.NoError(t, err)
	_, err = s.Favorite.Add(viewer.ID, liked.Slug)
	require.NoError(t, err)

	articles, _, err := s.Article.Feed(viewer.ID, domain.Page{Limit: 10})
	require.NoError(t, err)
	favorited := map[string]bool{}
	for _, article := range articles {
		favorited[article.Title] = article.Favorited
	}
	assert.True(t, favorited["Liked Post"])
	assert.False(t, favorited["Other Post"])
}
