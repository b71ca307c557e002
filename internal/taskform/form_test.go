package taskform

import (
	"context"
	"errors"
	"testing"
	"time"

	"casetasker/internal/browser"
	"casetasker/internal/browser/browsertest"
	"casetasker/internal/config"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastChoreography() Choreography {
	c := ChoreographyFrom(config.DefaultConfig())
	c.StepDelay = 0
	c.TabDelay = 0
	return c
}

func fill(sel, v string) browsertest.Action {
	return browsertest.Action{Op: browsertest.OpFill, Target: sel, Value: v}
}

func press(k browser.Key) browsertest.Action {
	return browsertest.Action{Op: browsertest.OpPress, Target: string(k)}
}

func click(sel string) browsertest.Action {
	return browsertest.Action{Op: browsertest.OpClick, Target: sel}
}

func repeat(a browsertest.Action, n int) []browsertest.Action {
	out := make([]browsertest.Action, n)
	for i := range out {
		out[i] = a
	}
	return out
}

func widgetScript(first browsertest.Action, downs int) []browsertest.Action {
	out := []browsertest.Action{first, press(browser.KeyEnter)}
	out = append(out, repeat(press(browser.KeyArrowDown), downs)...)
	return append(out, press(browser.KeyEnter))
}

func TestChoreographyFrom(t *testing.T) {
	c := ChoreographyFrom(config.DefaultConfig())
	assert.Equal(t, 4, c.OfficeDownPresses)
	assert.Equal(t, 1, c.TaskTypeDownPresses)
	assert.Equal(t, 1, c.PartyDownPresses)
	assert.Equal(t, 7, c.PartyTabPresses)
	assert.Equal(t, time.Second, c.StepDelay)
	assert.Equal(t, 500*time.Millisecond, c.TabDelay)
	assert.Equal(t, "Conferir expediente no PJe", c.Description)
	assert.Equal(t, "Prazo Agendado", c.TaskType)
	assert.Equal(t, "23:00:00", c.EndTime)
}

func TestFill_ExactSequence(t *testing.T) {
	d := browsertest.New()
	today := time.Date(2024, time.March, 31, 9, 30, 0, 0, time.Local)

	err := New(d, fastChoreography()).Fill(context.Background(), Values{
		Office:        "Escritório Central",
		InvolvedParty: "Dra. Fulana",
		Today:         today,
	})
	require.NoError(t, err)

	var want []browsertest.Action
	want = append(want, widgetScript(fill(SelectorSourceOffice, "Escritório Central"), 4)...)
	want = append(want, widgetScript(fill(SelectorResponsibleOffice, "Escritório Central"), 4)...)
	want = append(want, fill(SelectorDescription, "Conferir expediente no PJe"))
	want = append(want, widgetScript(fill(SelectorTaskType, "Prazo Agendado"), 1)...)
	want = append(want,
		fill(SelectorStartDate, "31/03/2024"),
		fill(SelectorEndTime, "23:00:00"),
		fill(SelectorEndDate, "01/04/2024"),
	)
	want = append(want, repeat(press(browser.KeyTab), 7)...)
	want = append(want, widgetScript(browsertest.Action{Op: browsertest.OpType, Value: "Dra. Fulana"}, 1)...)
	for i := 0; i < 2; i++ {
		want = append(want,
			browsertest.Action{Op: browsertest.OpWaitVisible, Target: SelectorRemoveReminder},
			click(SelectorRemoveReminder),
		)
	}
	want = append(want, click(SelectorMaintain), click(SelectorSave))

	if diff := cmp.Diff(want, d.Actions()); diff != "" {
		t.Errorf("form actions mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_YearRollover(t *testing.T) {
	d := browsertest.New()
	today := time.Date(2023, time.December, 31, 23, 59, 0, 0, time.Local)

	require.NoError(t, New(d, fastChoreography()).Fill(context.Background(), Values{Office: "o", InvolvedParty: "p", Today: today}))
	assert.Equal(t, 1, d.Count(func(a browsertest.Action) bool {
		return a.Op == browsertest.OpFill && a.Target == SelectorStartDate && a.Value == "31/12/2023"
	}))
	assert.Equal(t, 1, d.Count(func(a browsertest.Action) bool {
		return a.Op == browsertest.OpFill && a.Target == SelectorEndDate && a.Value == "01/01/2024"
	}))
}

func TestFill_StopsAtFailingStep(t *testing.T) {
	boom := errors.New("element detached")
	d := browsertest.New().FailWhen(browsertest.Match(browsertest.OpFill, SelectorDescription), boom, 1)

	err := New(d, fastChoreography()).Fill(context.Background(), Values{Office: "o", InvolvedParty: "p", Today: time.Now()})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "description", stepErr.Step)

	assert.Zero(t, d.Count(browsertest.Match(browsertest.OpClick, SelectorSave)), "save must not be clicked")
	assert.Zero(t, d.Count(browsertest.Match(browsertest.OpFill, SelectorTaskType)))
}

func TestFill_MissingReminder(t *testing.T) {
	timeout := errors.New("wait visible: timeout")
	d := browsertest.New().FailWhen(browsertest.Match(browsertest.OpWaitVisible, SelectorRemoveReminder), timeout, 0)

	err := New(d, fastChoreography()).Fill(context.Background(), Values{Office: "o", InvolvedParty: "p", Today: time.Now()})
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "reminder 1", stepErr.Step)
	assert.Zero(t, d.Count(browsertest.Match(browsertest.OpClick, SelectorSave)))
}

func TestAutocomplete_ReportsState(t *testing.T) {
	tests := []struct {
		name      string
		failOn    func(browsertest.Action) bool
		wantState string
	}{
		{"typing", browsertest.Match(browsertest.OpFill, SelectorTaskType), "idle"},
		{"opening", browsertest.Match(browsertest.OpPress, string(browser.KeyEnter)), "typed"},
		{"highlighting", browsertest.Match(browsertest.OpPress, string(browser.KeyArrowDown)), "opened"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boom := errors.New("boom")
			d := browsertest.New().FailWhen(tt.failOn, boom, 1)
			a := Autocomplete{Name: "task type", Selector: SelectorTaskType, DownPresses: 2}

			err := a.Drive(context.Background(), d, "Prazo Agendado", 0)
			var we *WidgetError
			require.ErrorAs(t, err, &we)
			assert.Equal(t, "task type", we.Widget)
			assert.Equal(t, tt.wantState, we.State)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestAutocomplete_CommitFailure(t *testing.T) {
	boom := errors.New("boom")
	// The first Enter opens the list; the second one commits.
	d := browsertest.New()
	enters := 0
	d.FailWhen(func(a browsertest.Action) bool {
		if a.Op != browsertest.OpPress || a.Target != string(browser.KeyEnter) {
			return false
		}
		enters++
		return enters == 2
	}, boom, 1)

	err := Autocomplete{Name: "office", Selector: SelectorSourceOffice, DownPresses: 1}.Drive(context.Background(), d, "x", 0)
	var we *WidgetError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "highlighted", we.State)
}

func TestFill_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := fastChoreography()
	c.StepDelay = time.Hour

	err := New(browsertest.New(), c).Fill(ctx, Values{Office: "o", InvolvedParty: "p", Today: time.Now()})
	assert.ErrorIs(t, err, context.Canceled)
}
