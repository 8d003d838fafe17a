package crud

import (
	"crypto/rand"
	"math/big"

	"github.com/gosimple/slug"
)

// slugSuffixLength is the number of random base-36 characters appended
// to every slug. 36^6 values make a collision across two articles with
// the same title negligible; the unique index on articles.slug closes
// the residual window.
const slugSuffixLength = 6

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// makeSlug derives a URL-safe identifier from an article title: the
// lowercased, ASCII-folded, hyphenated title plus a random base-36
// suffix. A new slug is generated on every call, so updating a title
// always moves the article to a fresh slug.
func makeSlug(title string) (string, error) {
	suffix, err := randomBase36(slugSuffixLength)
	if err != nil {
		return "", err
	}
	return slug.Make(title) + "-" + suffix, nil
}

// randomBase36 returns n characters drawn uniformly from the base-36
// alphabet using crypto/rand.
func randomBase36(n int) (string, error) {
	max := big.NewInt(int64(len(base36Alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = base36Alphabet[idx.Int64()]
	}
	return string(b), nil
}
