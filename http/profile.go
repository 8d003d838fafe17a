package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"conduit/auth"
	"conduit/domain"
	"conduit/errs"
)

func (s *Server) registerProfileRoutes(r *mux.Router) {
	r.HandleFunc("/profiles/{username}", s.handleGetProfile).Methods("GET")
	r.HandleFunc("/profiles/{username}/follow", s.requireAuth(s.handleFollow)).Methods("POST")
	r.HandleFunc("/profiles/{username}/follow", s.requireAuth(s.handleUnfollow)).Methods("DELETE")
}

// profileResponse is the {profile} envelope. The profile never carries
// the user's email.
type profileResponse struct {
	Profile *domain.Profile `json:"profile"`
}

func returnProfile(w http.ResponseWriter, r *http.Request, profile *domain.Profile) {
	if err := json.NewEncoder(w).Encode(&profileResponse{Profile: profile}); err != nil {
		errs.LogError(r, err)
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	profile, err := s.fs.Profile(auth.UserID(r.Context()), username)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	returnProfile(w, r, profile)
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	profile, err := s.fs.Follow(auth.UserID(r.Context()), username)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	returnProfile(w, r, profile)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	profile, err := s.fs.Unfollow(auth.UserID(r.Context()), username)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	returnProfile(w, r, profile)
}
