package remotefs

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// List returns the children of dir sorted by name. Names are compared byte
// by byte (case-sensitive, no locale rules); entries with equal names keep
// the order the backend reported them in.
func List(ctx context.Context, dir File) ([]File, error) {
	if !dir.Kind().IsContainer() {
		return nil, NewError(ErrCodeIO, "list", dir.Location().Path, fmt.Errorf("%s is not a container", dir.Kind()))
	}

	children, err := dir.Children(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(children, func(a, b File) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return children, nil
}
