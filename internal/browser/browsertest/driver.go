// Package browsertest provides a scriptable in-memory browser.Driver that
// records every call, for deterministic tests of the login state machine
// and the task-form choreography.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"casetasker/internal/browser"
)

// Operation names recorded in Action.Op.
const (
	OpNavigate    = "navigate"
	OpWaitIdle    = "wait_idle"
	OpVisible     = "visible"
	OpWaitVisible = "wait_visible"
	OpFill        = "fill"
	OpPress       = "press"
	OpType        = "type"
	OpClick       = "click"
	OpText        = "text"
	OpURL         = "url"
)

// ErrNoElement is returned by Text when no text was scripted for a selector.
var ErrNoElement = errors.New("browsertest: element not found")

// Action is one recorded driver call.
type Action struct {
	Op     string
	Target string
	Value  string
}

func (a Action) String() string {
	if a.Value == "" {
		return fmt.Sprintf("%s(%s)", a.Op, a.Target)
	}
	return fmt.Sprintf("%s(%s, %q)", a.Op, a.Target, a.Value)
}

type failRule struct {
	match     func(Action) bool
	err       error
	remaining int // <0 means always
}

// Driver is a fake browser.Driver.
type Driver struct {
	mu         sync.Mutex
	actions    []Action
	visible    map[string]bool
	texts      map[string]string
	redirects  map[string]string
	url        string
	rules      []*failRule
	closeCalls int

	// OnNavigate runs after each successful Navigate, outside the lock.
	OnNavigate func(d *Driver, url string)
}

var _ browser.Driver = (*Driver)(nil)

// New returns an empty fake page at about:blank.
func New() *Driver {
	return &Driver{
		visible:   make(map[string]bool),
		texts:     make(map[string]string),
		redirects: make(map[string]string),
		url:       "about:blank",
	}
}

// SetVisible marks selectors as visible.
func (d *Driver) SetVisible(selectors ...string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range selectors {
		d.visible[s] = true
	}
	return d
}

// SetHidden marks selectors as not visible.
func (d *Driver) SetHidden(selectors ...string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range selectors {
		delete(d.visible, s)
	}
	return d
}

// SetText scripts the text content of selector.
func (d *Driver) SetText(selector, text string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts[selector] = text
	return d
}

// RedirectOnClick makes a click on selector move the page to url.
func (d *Driver) RedirectOnClick(selector, url string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.redirects[selector] = url
	return d
}

// FailWhen makes calls matching match return err. times limits how many
// calls fail; times <= 0 fails every matching call.
func (d *Driver) FailWhen(match func(Action) bool, err error, times int) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	remaining := times
	if times <= 0 {
		remaining = -1
	}
	d.rules = append(d.rules, &failRule{match: match, err: err, remaining: remaining})
	return d
}

// Match builds a matcher on operation and target. An empty target matches
// any target.
func Match(op, target string) func(Action) bool {
	return func(a Action) bool {
		return a.Op == op && (target == "" || a.Target == target)
	}
}

// Actions returns a copy of the recorded calls.
func (d *Driver) Actions() []Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Action(nil), d.actions...)
}

// Count returns how many recorded calls match.
func (d *Driver) Count(match func(Action) bool) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, a := range d.actions {
		if match(a) {
			n++
		}
	}
	return n
}

// Reset clears the recorded calls.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = nil
}

// CloseCalls returns how many times Close was called.
func (d *Driver) CloseCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCalls
}

// record appends a and returns the scripted failure, if any.
func (d *Driver) record(ctx context.Context, a Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, a)
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, r := range d.rules {
		if r.remaining == 0 || !r.match(a) {
			continue
		}
		if r.remaining > 0 {
			r.remaining--
		}
		return r.err
	}
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.record(ctx, Action{Op: OpNavigate, Target: url}); err != nil {
		return err
	}
	d.mu.Lock()
	d.url = url
	hook := d.OnNavigate
	d.mu.Unlock()
	if hook != nil {
		hook(d, url)
	}
	return nil
}

func (d *Driver) WaitNetworkIdle(ctx context.Context) error {
	return d.record(ctx, Action{Op: OpWaitIdle})
}

func (d *Driver) Visible(ctx context.Context, selector string) (bool, error) {
	if err := d.record(ctx, Action{Op: OpVisible, Target: selector}); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible[selector], nil
}

func (d *Driver) WaitVisible(ctx context.Context, selector string) error {
	return d.record(ctx, Action{Op: OpWaitVisible, Target: selector})
}

func (d *Driver) Fill(ctx context.Context, selector, value string) error {
	return d.record(ctx, Action{Op: OpFill, Target: selector, Value: value})
}

func (d *Driver) Press(ctx context.Context, key browser.Key) error {
	return d.record(ctx, Action{Op: OpPress, Target: string(key)})
}

func (d *Driver) Type(ctx context.Context, text string) error {
	return d.record(ctx, Action{Op: OpType, Value: text})
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	if err := d.record(ctx, Action{Op: OpClick, Target: selector}); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if to, ok := d.redirects[selector]; ok {
		d.url = to
	}
	return nil
}

func (d *Driver) Text(ctx context.Context, selector string) (string, error) {
	if err := d.record(ctx, Action{Op: OpText, Target: selector}); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	text, ok := d.texts[selector]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoElement, selector)
	}
	return text, nil
}

func (d *Driver) URL(ctx context.Context) (string, error) {
	if err := d.record(ctx, Action{Op: OpURL}); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCalls++
	return nil
}
