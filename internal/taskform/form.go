// Package taskform fills LawSystem's "create task from andamento" form.
// The order of the steps matters: the suggestion widgets and the unlabeled
// tab order only work when driven exactly in this sequence.
package taskform

import (
	"context"
	"fmt"
	"time"

	"casetasker/internal/browser"
	"casetasker/internal/config"
)

// Selectors of the task form.
const (
	SelectorSourceOffice      = "input#SourceOfficeText"
	SelectorResponsibleOffice = "input#ResponsibleOfficeText"
	SelectorDescription       = "input#Descricao"
	SelectorTaskType          = "input#TipoText"
	SelectorStartDate         = "input#DtInicial"
	SelectorEndTime           = "input#HrFinal"
	SelectorEndDate           = "input#DtFinal"
	SelectorRemoveReminder    = `span[title="Remover lembrete"]`
	SelectorMaintain          = "input#Maintain"
	SelectorSave              = `button[name="ButtonSave"][value="1"]`
)

// DateLayout is the DD/MM/YYYY format the date inputs accept.
const DateLayout = "02/01/2006"

// RemindersToDismiss is how many default reminders a new task carries.
const RemindersToDismiss = 2

// Choreography holds the keystroke counts, pauses and literal values of
// the form.
type Choreography struct {
	OfficeDownPresses   int
	TaskTypeDownPresses int
	PartyDownPresses    int
	PartyTabPresses     int
	StepDelay           time.Duration
	TabDelay            time.Duration
	Description         string
	TaskType            string
	EndTime             string
}

// ChoreographyFrom reads the form section of cfg.
func ChoreographyFrom(cfg *config.Config) Choreography {
	return Choreography{
		OfficeDownPresses:   cfg.Form.OfficeDownPresses,
		TaskTypeDownPresses: cfg.Form.TaskTypeDownPresses,
		PartyDownPresses:    cfg.Form.PartyDownPresses,
		PartyTabPresses:     cfg.Form.PartyTabPresses,
		StepDelay:           cfg.GetStepDelay(),
		TabDelay:            cfg.GetTabDelay(),
		Description:         cfg.Form.Description,
		TaskType:            cfg.Form.TaskType,
		EndTime:             cfg.Form.EndTime,
	}
}

// Values are the per-record inputs of the form.
type Values struct {
	Office        string
	InvolvedParty string
	Today         time.Time
}

// StepError names the form step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("fill form: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Form fills the task form through a Driver.
type Form struct {
	driver browser.Driver
	steps  Choreography
}

// New returns a Form bound to d.
func New(d browser.Driver, c Choreography) *Form {
	return &Form{driver: d, steps: c}
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Fill drives the whole form and clicks save. It stops at the first
// failing step; the page is then left partially filled and unsaved.
func (f *Form) Fill(ctx context.Context, v Values) error {
	d := f.driver
	c := f.steps
	tomorrow := v.Today.AddDate(0, 0, 1)

	fill := func(selector, value string) func(context.Context) error {
		return func(ctx context.Context) error { return d.Fill(ctx, selector, value) }
	}
	widget := func(a Autocomplete, text string) func(context.Context) error {
		return func(ctx context.Context) error { return a.Drive(ctx, d, text, c.StepDelay) }
	}

	steps := []step{
		{"source office", widget(Autocomplete{Name: "source office", Selector: SelectorSourceOffice, DownPresses: c.OfficeDownPresses}, v.Office)},
		{"responsible office", widget(Autocomplete{Name: "responsible office", Selector: SelectorResponsibleOffice, DownPresses: c.OfficeDownPresses}, v.Office)},
		{"description", fill(SelectorDescription, c.Description)},
		{"task type", widget(Autocomplete{Name: "task type", Selector: SelectorTaskType, DownPresses: c.TaskTypeDownPresses}, c.TaskType)},
		{"start date", fill(SelectorStartDate, v.Today.Format(DateLayout))},
		{"end time", fill(SelectorEndTime, c.EndTime)},
		{"end date", fill(SelectorEndDate, tomorrow.Format(DateLayout))},
		{"involved party focus", f.tabToParty},
		{"involved party", widget(Autocomplete{Name: "involved party", DownPresses: c.PartyDownPresses}, v.InvolvedParty)},
	}
	for i := 0; i < RemindersToDismiss; i++ {
		steps = append(steps, step{fmt.Sprintf("reminder %d", i+1), f.dismissReminder})
	}
	steps = append(steps,
		step{"keep values toggle", func(ctx context.Context) error { return d.Click(ctx, SelectorMaintain) }},
		step{"save", func(ctx context.Context) error { return d.Click(ctx, SelectorSave) }},
	)

	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
	}
	return nil
}

// tabToParty moves focus from the end date to the involved-party input,
// which has no usable selector.
func (f *Form) tabToParty(ctx context.Context) error {
	for i := 0; i < f.steps.PartyTabPresses; i++ {
		if err := f.driver.Press(ctx, browser.KeyTab); err != nil {
			return err
		}
		if err := browser.Pause(ctx, f.steps.TabDelay); err != nil {
			return err
		}
	}
	return nil
}

func (f *Form) dismissReminder(ctx context.Context) error {
	if err := f.driver.WaitVisible(ctx, SelectorRemoveReminder); err != nil {
		return err
	}
	return f.driver.Click(ctx, SelectorRemoveReminder)
}
