package registry

import "github.com/marmos91/sharegate/pkg/remotefs"

// Bookmark is a named remote location offered on the index page.
type Bookmark struct {
	Name     string
	Location remotefs.Location
}

// Target returns the link target for the bookmark, as used in /get/<target>.
func (b Bookmark) Target() string {
	return b.Location.String()
}
