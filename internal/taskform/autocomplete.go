package taskform

import (
	"context"
	"fmt"
	"time"

	"casetasker/internal/browser"
)

type widgetState int

const (
	stateIdle widgetState = iota
	stateTyped
	stateOpened
	stateHighlighted
	stateCommitted
)

func (s widgetState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateTyped:
		return "typed"
	case stateOpened:
		return "opened"
	case stateHighlighted:
		return "highlighted"
	case stateCommitted:
		return "committed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Autocomplete drives one LawSystem suggestion widget. The widget only
// commits a value after Enter opens the list, the highlight is moved down
// DownPresses rows and Enter is pressed again.
type Autocomplete struct {
	Name        string
	Selector    string // empty: type into the focused element
	DownPresses int
}

// WidgetError reports the widget and the state it failed to leave.
type WidgetError struct {
	Widget string
	State  string
	Err    error
}

func (e *WidgetError) Error() string {
	return fmt.Sprintf("%s autocomplete (%s): %v", e.Widget, e.State, e.Err)
}

func (e *WidgetError) Unwrap() error { return e.Err }

// Drive runs the widget from idle to committed.
func (a Autocomplete) Drive(ctx context.Context, d browser.Driver, text string, delay time.Duration) error {
	state := stateIdle
	for state != stateCommitted {
		next, err := a.step(ctx, d, state, text, delay)
		if err != nil {
			return &WidgetError{Widget: a.Name, State: state.String(), Err: err}
		}
		state = next
	}
	return nil
}

func (a Autocomplete) step(ctx context.Context, d browser.Driver, state widgetState, text string, delay time.Duration) (widgetState, error) {
	switch state {
	case stateIdle:
		if a.Selector == "" {
			return stateTyped, d.Type(ctx, text)
		}
		return stateTyped, d.Fill(ctx, a.Selector, text)
	case stateTyped:
		return stateOpened, pressAndPause(ctx, d, browser.KeyEnter, delay)
	case stateOpened:
		for i := 0; i < a.DownPresses; i++ {
			if err := pressAndPause(ctx, d, browser.KeyArrowDown, delay); err != nil {
				return state, err
			}
		}
		return stateHighlighted, nil
	case stateHighlighted:
		return stateCommitted, pressAndPause(ctx, d, browser.KeyEnter, delay)
	default:
		return state, fmt.Errorf("unexpected state %s", state)
	}
}

func pressAndPause(ctx context.Context, d browser.Driver, key browser.Key, delay time.Duration) error {
	if err := d.Press(ctx, key); err != nil {
		return err
	}
	return browser.Pause(ctx, delay)
}
