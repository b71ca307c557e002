// Package browser is the UI driver: a narrow capability interface over one
// browser page, implemented with go-rod.
package browser

import (
	"context"
)

// Key names a keyboard key the workflow sends.
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyArrowDown Key = "ArrowDown"
	KeyTab       Key = "Tab"
)

// Driver is everything the session controller and record processor need
// from a browser page. Implementations bound every call by a timeout.
type Driver interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// WaitNetworkIdle blocks until no requests are in flight.
	WaitNetworkIdle(ctx context.Context) error
	// Visible reports whether selector matches a visible element right now.
	Visible(ctx context.Context, selector string) (bool, error)
	// WaitVisible waits until selector matches a visible element.
	WaitVisible(ctx context.Context, selector string) error
	// Fill replaces the value of the input matched by selector.
	Fill(ctx context.Context, selector, value string) error
	// Press sends one key press to the focused element.
	Press(ctx context.Context, key Key) error
	// Type inserts text at the focused element.
	Type(ctx context.Context, text string) error
	// Click clicks the element matched by selector.
	Click(ctx context.Context, selector string) error
	// Text returns the text content of the element matched by selector.
	Text(ctx context.Context, selector string) (string, error)
	// URL returns the current page URL.
	URL(ctx context.Context) (string, error)
	// Close releases the page and the browser. Safe to call more than once.
	Close() error
}

// Opener starts a UI session.
type Opener interface {
	Open(ctx context.Context) (Driver, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Driver, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context) (Driver, error) {
	return f(ctx)
}
