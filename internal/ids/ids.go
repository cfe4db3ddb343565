package ids

import "github.com/segmentio/ksuid"

// New returns a time-ordered identifier. Lexical order matches creation order,
// which the table store relies on for "_id desc" sorting and cursors.
func New() string {
	return ksuid.New().String()
}
