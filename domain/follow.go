package domain

import "time"

// Follow represents a self-referential many-to-many relationship between
// two users. A Follow is created when one user decides to follow another
// user. The FollowerID is the ID of the user that follows, and the
// FollowingID is the ID of the user being followed. In the database
// Follows are stored within the follows table, one row per edge.
type Follow struct {
	ID          int       `json:"id"`
	FollowerID  int       `json:"-" gorm:"notNull;uniqueIndex:idx_follows_edge"`
	FollowingID int       `json:"-" gorm:"notNull;uniqueIndex:idx_follows_edge"`
	CreatedAt   time.Time `json:"created_at"`
}

// FollowService is a set of methods to manipulate and work with the
// Follow model. Follow and Unfollow resolve the target by username and
// are idempotent: an existing edge is not duplicated and a missing edge
// deletes nothing. Both reject a user acting on themselves.
type FollowService interface {
	Follow(followerID int, username string) (*Profile, error)
	Unfollow(followerID int, username string) (*Profile, error)
	Profile(viewerID int, username string) (*Profile, error)
	FollowingIDs(followerID int) ([]int, error)
}
