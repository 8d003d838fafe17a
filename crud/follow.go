package crud

import (
	"errors"

	"gorm.io/gorm"

	"conduit/domain"
	"conduit/errs"
)

// FollowService manages directed follow edges between users and builds
// profile views. It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator runs validations on incoming follow edges before
// handing them to followGorm.
type followValidator struct {
	followGorm
}

// followGorm runs CRUD operations on the follows table.
type followGorm struct {
	db *gorm.DB
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db: db,
			},
		},
	}
}

var _ domain.FollowService = &FollowService{}

// Follow creates a follow edge from follower to the user with the given
// username. Following a user twice is a no-op, following yourself is a
// conflict. It returns the followed user's profile.
func (fv *followValidator) Follow(followerID int, username string) (*domain.Profile, error) {
	followed, err := fv.userByUsername(username)
	if err != nil {
		return nil, err
	}
	follow := domain.Follow{FollowerID: followerID, FollowingID: followed.ID}
	if err := runFollowValFns(&follow, fv.followedIsNotFollower); err != nil {
		return nil, err
	}
	exists, err := fv.followGorm.exists(&follow)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := fv.followGorm.create(&follow); err != nil {
			return nil, err
		}
	}
	return followed.Profile(true), nil
}

// Unfollow removes the follow edge from follower to the user with the
// given username. Removing an absent edge is a no-op.
func (fv *followValidator) Unfollow(followerID int, username string) (*domain.Profile, error) {
	followed, err := fv.userByUsername(username)
	if err != nil {
		return nil, err
	}
	follow := domain.Follow{FollowerID: followerID, FollowingID: followed.ID}
	if err := runFollowValFns(&follow, fv.followedIsNotFollower); err != nil {
		return nil, err
	}
	if err := fv.followGorm.delete(&follow); err != nil {
		return nil, err
	}
	return followed.Profile(false), nil
}

// Profile returns the public profile of the user with the given
// username, with the following flag set iff a follow edge exists from
// the viewer to that user. Anonymous viewers (viewerID <= 0) always see
// following=false.
func (fv *followValidator) Profile(viewerID int, username string) (*domain.Profile, error) {
	user, err := fv.userByUsername(username)
	if err != nil {
		return nil, err
	}
	if viewerID <= 0 {
		return user.Profile(false), nil
	}
	exists, err := fv.followGorm.exists(&domain.Follow{
		FollowerID:  viewerID,
		FollowingID: user.ID,
	})
	if err != nil {
		return nil, err
	}
	return user.Profile(exists), nil
}

// runFollowValFns runs any number of functions of type followValFn on
// the passed in Follow object.
func runFollowValFns(follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(follow); err != nil {
			return err
		}
	}
	return nil
}

type followValFn func(follow *domain.Follow) error

// followedIsNotFollower rejects edges from a user to themselves.
func (fv *followValidator) followedIsNotFollower(follow *domain.Follow) error {
	if follow.FollowerID == follow.FollowingID {
		return errs.Errorf(errs.ECONFLICT, "You cannot follow yourself.")
	}
	return nil
}

// userByUsername resolves a username to its user record.
func (fg *followGorm) userByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := fg.db.First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The profile does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// exists reports whether the given edge is present.
func (fg *followGorm) exists(follow *domain.Follow) (bool, error) {
	var found domain.Follow
	err := fg.db.First(&found, "follower_id = ? AND following_id = ?",
		follow.FollowerID, follow.FollowingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (fg *followGorm) create(follow *domain.Follow) error {
	return fg.db.Create(follow).Error
}

func (fg *followGorm) delete(follow *domain.Follow) error {
	return fg.db.Delete(&domain.Follow{}, "follower_id = ? AND following_id = ?",
		follow.FollowerID, follow.FollowingID).Error
}

// FollowingIDs returns the ids of all users the given user follows.
// The edge points from the follower to the followed user, so this
// filters on follower_id.
func (fg *followGorm) FollowingIDs(followerID int) ([]int, error) {
	var ids []int
	err := fg.db.Model(&domain.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
