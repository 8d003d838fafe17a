package crud

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"conduit/domain"
)

// newTestServices returns a full set of crud services backed by a fresh
// in-memory database, so tests exercise the real gorm queries.
func newTestServices(t *testing.T) *Services {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Article{},
		&domain.Follow{},
		&domain.Favorite{},
	))

	services, err := NewServices(db,
		WithUser("test-pepper"),
		WithFollow(),
		WithFavorite(),
		WithArticle(),
	)
	require.NoError(t, err)
	return services
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, s *Services, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	require.NoError(t, s.User.Create(user))
	return user
}

// createTestArticle creates an article owned by author and fails the
// test if it errors.
func createTestArticle(t *testing.T, s *Services, author *domain.User, title string, tags ...string) *domain.Article {
	t.Helper()
	article := &domain.Article{
		Title:   title,
		Body:    "body of " + title,
		TagList: domain.TagList(tags),
	}
	require.NoError(t, s.Article.Create(author, article))
	return article
}

// setCreatedAt pins an article's creation time, so ordering tests don't
// depend on wall-clock resolution.
func setCreatedAt(t *testing.T, s *Services, article *domain.Article, at time.Time) {
	t.Helper()
	err := s.db.Model(&domain.Article{}).
		Where("id = ?", article.ID).
		UpdateColumn("created_at", at).Error
	require.NoError(t, err)
}

// countRows counts the rows of the given model matching the query.
func countRows(t *testing.T, s *Services, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, s.db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}
