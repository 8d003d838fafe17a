package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"conduit/auth"
	"conduit/domain"
	"conduit/errs"
)

// defaultListLimit caps unpaginated listing requests.
const defaultListLimit = 20

func (s *Server) registerArticleRoutes(r *mux.Router) {
	// The feed route must be registered before the {slug} routes so
	// "feed" is not taken for a slug.
	r.HandleFunc("/articles/feed", s.requireAuth(s.handleFeed)).Methods("GET")
	r.HandleFunc("/articles", s.handleListArticles).Methods("GET")
	r.HandleFunc("/articles", s.requireAuth(s.handleCreateArticle)).Methods("POST")
	r.HandleFunc("/articles/{slug}", s.handleGetArticle).Methods("GET")
	r.HandleFunc("/articles/{slug}", s.requireAuth(s.handleUpdateArticle)).Methods("PUT")
	r.HandleFunc("/articles/{slug}", s.requireAuth(s.handleDeleteArticle)).Methods("DELETE")
	r.HandleFunc("/articles/{slug}/favorite", s.requireAuth(s.handleFavorite)).Methods("POST")
	r.HandleFunc("/articles/{slug}/favorite", s.requireAuth(s.handleUnfavorite)).Methods("DELETE")
}

// articleJSON is the wire shape of a single article. The author rides
// along as a public profile, never as the full user record.
type articleJSON struct {
	Slug           string          `json:"slug"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Body           string          `json:"body"`
	TagList        domain.TagList  `json:"tagList"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Favorited      bool            `json:"favorited"`
	FavoritesCount int             `json:"favoritesCount"`
	Author         *domain.Profile `json:"author"`
}

type articleResponse struct {
	Article articleJSON `json:"article"`
}

type articlesResponse struct {
	Articles      []articleJSON `json:"articles"`
	ArticlesCount int           `json:"articlesCount"`
}

func toArticleJSON(article *domain.Article) articleJSON {
	return articleJSON{
		Slug:           article.Slug,
		Title:          article.Title,
		Description:    article.Description,
		Body:           article.Body,
		TagList:        article.TagList,
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
		Favorited:      article.Favorited,
		FavoritesCount: article.FavoritesCount,
		Author:         article.Author.Profile(false),
	}
}

func returnArticle(w http.ResponseWriter, r *http.Request, article *domain.Article, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(&articleResponse{Article: toArticleJSON(article)}); err != nil {
		errs.LogError(r, err)
	}
}

func returnArticles(w http.ResponseWriter, r *http.Request, articles []*domain.Article, count int) {
	resp := articlesResponse{
		Articles:      make([]articleJSON, 0, len(articles)),
		ArticlesCount: count,
	}
	for _, article := range articles {
		resp.Articles = append(resp.Articles, toArticleJSON(article))
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

// pageFromQuery reads limit/offset query params, falling back to the
// default page size.
func pageFromQuery(r *http.Request) domain.Page {
	page := domain.Page{Limit: defaultListLimit}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		page.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		page.Offset = offset
	}
	return page
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	filter := domain.ArticleFilter{
		Tag:         r.URL.Query().Get("tag"),
		Author:      r.URL.Query().Get("author"),
		FavoritedBy: r.URL.Query().Get("favorited"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}

	articles, count, err := s.as.List(auth.UserID(r.Context()), filter)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	returnArticles(w, r, articles, count)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	articles, count, err := s.as.Feed(auth.UserID(r.Context()), pageFromQuery(r))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	returnArticles(w, r, articles, count)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.as.BySlug(mux.Vars(r)["slug"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if viewerID := auth.UserID(r.Context()); viewerID > 0 {
		favorited, err := s.favs.IsFavorited(viewerID, article.ID)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		article.Favorited = favorited
	}
	returnArticle(w, r, article, http.StatusOK)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Article struct {
			Title       string         `json:"title"`
			Description string         `json:"description"`
			Body        string         `json:"body"`
			TagList     domain.TagList `json:"tagList"`
		} `json:"article"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid json body."))
		return
	}

	article := domain.Article{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		TagList:     req.Article.TagList,
	}
	if err := s.as.Create(auth.GetUser(r.Context()), &article); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	returnArticle(w, r, &article, http.StatusCreated)
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Article domain.ArticlePatch `json:"article"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid json body."))
		return
	}

	article, err := s.as.Update(mux.Vars(r)["slug"], auth.UserID(r.Context()), &req.Article)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	returnArticle(w, r, article, http.StatusOK)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := s.as.Delete(mux.Vars(r)["slug"], auth.UserID(r.Context())); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	article, err := s.favs.Add(auth.UserID(r.Context()), mux.Vars(r)["slug"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	returnArticle(w, r, article, http.StatusOK)
}

func (s *Server) handleUnfavorite(w http.ResponseWriter, r *http.Request) {
	article, err := s.favs.Remove(auth.UserID(r.Context()), mux.Vars(r)["slug"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	returnArticle(w, r, article, http.StatusOK)
}
