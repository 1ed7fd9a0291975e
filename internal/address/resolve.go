package address

import (
	"errors"
	"fmt"
	"regexp"
)

// Separator joins the two participant ids of a direct conversation address.
// It is excluded from the id alphabet, so an address always splits back into
// exactly two ids.
const Separator = "_"

// Invalid is returned by Resolve when either id is missing.
const Invalid = ""

// Reserved identities.
const (
	BotID         = "habot"
	BotName       = "HA Chat"
	GlobalFeed    = "globalFeed"
	Favorites     = "favoritesFeed"
	GlobalName    = "Global Chat"
	FavoritesName = "Favorites"
)

// ErrInvalidID is returned when a user id does not match the id alphabet.
var ErrInvalidID = errors.New("invalid user id")

var idRegexp = regexp.MustCompile(`^[A-Za-z0-9-]{1,128}$`)

// ValidateID checks that id can be used as a store key and inside an address.
func ValidateID(id string) error {
	if !idRegexp.MatchString(id) {
		return fmt.Errorf("%w %q: must match ^[A-Za-z0-9-]{1,128}$", ErrInvalidID, id)
	}
	return nil
}

// Resolve returns the canonical address of the conversation between a and b:
// the larger id, the separator, then the smaller id. The result does not depend
// on argument order. Empty input yields Invalid.
func Resolve(a, b string) string {
	if a == "" || b == "" {
		return Invalid
	}
	if a > b {
		return a + Separator + b
	}
	return b + Separator + a
}

// Participants splits a direct address back into its two ids.
func Participants(addr string) (string, string, bool) {
	for i := 0; i < len(addr); i++ {
		if addr[i] == Separator[0] {
			a, b := addr[:i], addr[i+1:]
			if a == "" || b == "" || Resolve(a, b) != addr {
				return "", "", false
			}
			return a, b, true
		}
	}
	return "", "", false
}

// Involves reports whether id is one of the two participants of addr.
func Involves(addr, id string) bool {
	a, b, ok := Participants(addr)
	return ok && (a == id || b == id)
}

// Identity is the signed-in user.
type Identity struct {
	ID    string
	Name  string
	Photo string
}

// Validate checks the identity id.
func (i Identity) Validate() error {
	if err := ValidateID(i.ID); err != nil {
		return err
	}
	if i.ID == BotID {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidID, BotID)
	}
	return nil
}
