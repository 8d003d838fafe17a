package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"conduit/auth"
	"conduit/domain"
	"conduit/errs"
)

func (s *Server) registerUserRoutes(r *mux.Router) {
	r.HandleFunc("/users", s.handleRegister).Methods("POST")
	r.HandleFunc("/users/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/user", s.requireAuth(s.handleCurrentUser)).Methods("GET")
	r.HandleFunc("/user", s.requireAuth(s.handleUpdateUser)).Methods("PUT")
}

// userResponse is the {user} envelope every user-returning operation
// yields. It never carries the password hash.
type userResponse struct {
	User struct {
		Email    string `json:"email"`
		Token    string `json:"token"`
		Username string `json:"username"`
		Bio      string `json:"bio"`
		Image    string `json:"image"`
	} `json:"user"`
}

func (s *Server) returnUser(w http.ResponseWriter, r *http.Request, user *domain.User, status int) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	var resp userResponse
	resp.User.Email = user.Email
	resp.User.Token = token
	resp.User.Username = user.Username
	resp.User.Bio = user.Bio
	resp.User.Image = user.Image
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		errs.LogError(r, err)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid json body."))
		return
	}

	user := domain.User{
		Username: req.User.Username,
		Email:    req.User.Email,
		Password: req.User.Password,
	}
	if err := s.us.Create(&user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.returnUser(w, r, &user, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid json body."))
		return
	}

	user, err := s.us.Authenticate(req.User.Email, req.User.Password)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.returnUser(w, r, user, http.StatusOK)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	s.returnUser(w, r, user, http.StatusOK)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User domain.UserPatch `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid json body."))
		return
	}

	user := auth.GetUser(r.Context())
	updated, err := s.us.Update(user.ID, &req.User)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.returnUser(w, r, updated, http.StatusOK)
}
