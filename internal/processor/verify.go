package processor

import (
	"context"
	"strings"

	"casetasker/internal/browser"
)

// NotFoundText is LawSystem's error page message.
const NotFoundText = "A página solicitada não foi encontrada."

// Verifier decides whether the submitted form produced a task.
type Verifier interface {
	Verify(ctx context.Context, d browser.Driver) (bool, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, d browser.Driver) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, d browser.Driver) (bool, error) {
	return f(ctx, d)
}

// MissingTextVerifier passes when Text is absent from the Selector element.
// It only proves no error page is showing, not that the task was saved.
// Zero values mean "body" and NotFoundText.
type MissingTextVerifier struct {
	Selector string
	Text     string
}

func (v MissingTextVerifier) Verify(ctx context.Context, d browser.Driver) (bool, error) {
	sel, text := v.Selector, v.Text
	if sel == "" {
		sel = "body"
	}
	if text == "" {
		text = NotFoundText
	}
	content, err := d.Text(ctx, sel)
	if err != nil {
		return false, err
	}
	return !strings.Contains(content, text), nil
}
