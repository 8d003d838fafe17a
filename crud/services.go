package crud

import "gorm.io/gorm"

// A ServicesConfig is any function that takes in a pointer to a Services
// object and returns an error. It wraps the constructor of a crud
// service so that main can assemble Services with functional options.
type ServicesConfig func(*Services) error

// Services is a container object holding pointers to all the crud
// services. The crud services all share the database connection
// provided by Services.
type Services struct {
	db       *gorm.DB
	User     *UserService
	Article  *ArticleService
	Follow   *FollowService
	Favorite *FavoriteService
}

// NewServices returns a new Services object, containing any crud
// services it's told to create by one of the passed in ServicesConfig
// functions. It shares the passed in database connection with any crud
// service it creates.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	s := Services{
		db: db,
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// WithUser wraps the constructor of UserService, NewUserService.
func WithUser(pepper string) ServicesConfig {
	return func(s *Services) error {
		s.User = NewUserService(s.db, pepper)
		return nil
	}
}

// WithArticle wraps the constructor of ArticleService, NewArticleService.
// It requires WithFollow and WithFavorite to have run first, because the
// listing engine annotates results through those services.
func WithArticle() ServicesConfig {
	return func(s *Services) error {
		s.Article = NewArticleService(s.db, s.Follow, s.Favorite)
		return nil
	}
}

// WithFollow wraps the constructor of FollowService, NewFollowService.
func WithFollow() ServicesConfig {
	return func(s *Services) error {
		s.Follow = NewFollowService(s.db)
		return nil
	}
}

// WithFavorite wraps the constructor of FavoriteService, NewFavoriteService.
func WithFavorite() ServicesConfig {
	return func(s *Services) error {
		s.Favorite = NewFavoriteService(s.db)
		return nil
	}
}
