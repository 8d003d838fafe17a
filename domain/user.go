package domain

import (
	"strings"
	"time"
)

// User is an account that can author articles, favorite articles
// and follow other users. The Password field only carries plaintext
// on the way into the user service, which hashes it and clears it.
// The stored hash is never serialized.
type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email" gorm:"uniqueIndex;notNull"`
	Password     string `json:"-" gorm:"-"`
	PasswordHash string `json:"-" gorm:"column:password;notNull"`
	Username     string `json:"username" gorm:"notNull"`
	Bio          string `json:"bio" gorm:"default:''"`
	Image        string `json:"image" gorm:"default:''"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Articles []Article `json:"-" gorm:"foreignKey:AuthorID"`
}

// Profile is the public view of a user, as seen by a viewer.
// It never carries the email address.
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

// Profile returns the user's public profile with the given following flag.
func (u *User) Profile(following bool) *Profile {
	return &Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}

// UserPatch is a sparse update of user fields. Nil fields are left
// untouched by Apply, so a patched user never loses data to absent
// fields with zero values.
type UserPatch struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

// Apply merges the patch onto a copy of the user and returns it.
// The original is not modified. A patched email is normalized the
// same way the user service normalizes it on create.
func (p *UserPatch) Apply(user User) User {
	if p.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Username != nil {
		user.Username = *p.Username
	}
	if p.Password != nil {
		user.Password = *p.Password
	}
	if p.Bio != nil {
		user.Bio = *p.Bio
	}
	if p.Image != nil {
		user.Image = *p.Image
	}
	return user
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	ByID(id int) (*User, error)
	ByEmail(email string) (*User, error)
	ByUsername(username string) (*User, error)
	Create(user *User) error
	Update(id int, patch *UserPatch) (*User, error)
	Authenticate(email, password string) (*User, error)
}
