package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"conduit/auth"
	"conduit/crud"
	"conduit/domain"
)

// Server provides the http functionality of this app, namely routing,
// request handling, and middleware. It performs authentication and
// authorization before handing things over to one of the crud services.
type Server struct {
	router *mux.Router
	us     domain.UserService
	as     domain.ArticleService
	fs     domain.FollowService
	favs   domain.FavoriteService
	tokens *auth.TokenService
}

// NewServer returns a new instance of the server, registers all
// necessary routes and gives their handlers access to the crud services
// passed in.
func NewServer(services *crud.Services, tokens *auth.TokenService) *Server {
	s := &Server{
		router: mux.NewRouter(),
		us:     services.User,
		as:     services.Article,
		fs:     services.Follow,
		favs:   services.Favorite,
		tokens: tokens,
	}

	api := s.router.PathPrefix("/api").Subrouter()
	s.registerUserRoutes(api)
	s.registerProfileRoutes(api)
	s.registerArticleRoutes(api)

	s.router.Use(setContentTypeJSON, s.checkUser)
	return s
}

// ServeHTTP makes the server usable anywhere an http.Handler is.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// The setContentTypeJSON middleware sets the content type to
// "application/json".
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// The checkUser middleware identifies the requesting user from the
// "Authorization: Token <jwt>" header and stores them in the request
// context. Requests without a valid token proceed anonymously; handlers
// that need a user wrap themselves in requireAuth.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Token ")
		if !found {
			next.ServeHTTP(w, r)
			return
		}
		id, err := s.tokens.Validate(tokenStr)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByID(id)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// requireAuth rejects anonymous requests before the wrapped handler runs.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"errors": map[string][]string{"body": {"Authentication required."}},
			})
			return
		}
		next(w, r)
	}
}

// Run starts to listen and serve on the specified port.
func (s *Server) Run(port int) error {
	addr := ":" + strconv.Itoa(port)
	zap.L().Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.router)
}
