package core

import "errors"

var (
	// ErrDuplicateLink is returned when a link to the same neighbour already
	// exists on a router.
	ErrDuplicateLink = errors.New("duplicate link")
	// ErrLinkNotFound is returned when removing or disconnecting a link that
	// does not exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrRouterNotFound is returned when an operation names a router the
	// manager does not know.
	ErrRouterNotFound = errors.New("router not found")
	// ErrDuplicateRouter is returned when creating a router whose id is
	// already taken.
	ErrDuplicateRouter = errors.New("duplicate router")
	// ErrRouterBusy is returned when deleting a router that still has links
	// and force was not requested.
	ErrRouterBusy = errors.New("router busy")
)
