// Package form drives the five-step profile editor: it holds the draft the
// user is typing, gates step changes, and hands the finished profile to a
// Saver. It never persists anything itself.
package form

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"finora/api/models"
)

type Step int

const (
	StepIncomeExpenses Step = iota + 1
	StepLiabilities
	StepGoals
	StepRisk
	StepInvestments
)

const TotalSteps = int(StepInvestments)

func (s Step) String() string {
	switch s {
	case StepIncomeExpenses:
		return "Income & Expenses"
	case StepLiabilities:
		return "Liabilities"
	case StepGoals:
		return "Financial Goals"
	case StepRisk:
		return "Risk Appetite"
	case StepInvestments:
		return "Investment Preferences"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

var (
	ErrSubmitInFlight = errors.New("profile save already in progress")
	ErrLastStep       = errors.New("already on the last step")
	ErrNoSuchRow      = errors.New("no such row")
	ErrUnknownOption  = errors.New("unknown investment option")
)

// SaveError reports that the Saver rejected the profile. The editor's last
// saved profile is left as it was.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return "failed to save profile: " + e.Err.Error()
}

func (e *SaveError) Unwrap() error { return e.Err }

// Saver persists a finished profile.
type Saver interface {
	SaveProfile(ctx context.Context, profile models.Profile) error
}

type SaverFunc func(ctx context.Context, profile models.Profile) error

func (f SaverFunc) SaveProfile(ctx context.Context, profile models.Profile) error {
	return f(ctx, profile)
}

// ExpenseField names one of the five fixed expense buckets.
type ExpenseField string

const (
	Rent          ExpenseField = "rent"
	Groceries     ExpenseField = "groceries"
	Health        ExpenseField = "health"
	Miscellaneous ExpenseField = "miscellaneous"
	Entertainment ExpenseField = "entertainment"
)

type Editor struct {
	mu     sync.Mutex
	saver  Saver
	step   Step
	draft  models.ProfileInput
	other  string
	saving bool
	saved  *models.Profile
}

// New starts an empty editor on the first step. Risk appetite starts at
// medium.
func New(saver Saver) *Editor {
	return &Editor{
		saver: saver,
		step:  StepIncomeExpenses,
		draft: models.ProfileInput{RiskAppetite: string(models.RiskMedium)},
	}
}

// Edit starts an editor prefilled from an existing profile. Preferences
// outside the catalog stay in the draft where they were; the free-text
// "other" entry starts blank.
func Edit(saver Saver, p models.Profile) *Editor {
	e := New(saver)
	e.draft = p.Input()
	saved := p.Clone()
	e.saved = &saved
	return e
}

func (e *Editor) Step() Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step
}

// CanAdvance reports whether Next would move forward. Only the first step
// has a requirement: a monthly income.
func (e *Editor) CanAdvance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canAdvance() == nil
}

func (e *Editor) canAdvance() error {
	if e.step == StepInvestments {
		return ErrLastStep
	}
	if e.step == StepIncomeExpenses && strings.TrimSpace(e.draft.Income) == "" {
		return models.ErrIncomeRequired
	}
	return nil
}

func (e *Editor) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.canAdvance(); err != nil {
		return err
	}
	e.step++
	return nil
}

// Back moves to the previous step without validating anything. It reports
// false on the first step.
func (e *Editor) Back() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.step == StepIncomeExpenses {
		return false
	}
	e.step--
	return true
}

// Draft returns a copy of the form as currently filled in, without the
// free-text investment.
func (e *Editor) Draft() models.ProfileInput {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyDraft()
}

func (e *Editor) OtherInvestment() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.other
}

// Saved returns the last profile successfully saved through the editor.
func (e *Editor) Saved() (models.Profile, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saved == nil {
		return models.Profile{}, false
	}
	return e.saved.Clone(), true
}

func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

func (e *Editor) SetIncome(v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Income = v
}

func (e *Editor) SetExpense(field ExpenseField, v string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch field {
	case Rent:
		e.draft.Expenses.Rent = v
	case Groceries:
		e.draft.Expenses.Groceries = v
	case Health:
		e.draft.Expenses.Health = v
	case Miscellaneous:
		e.draft.Expenses.Miscellaneous = v
	case Entertainment:
		e.draft.Expenses.Entertainment = v
	default:
		return fmt.Errorf("unknown expense field %q", field)
	}
	return nil
}

// AddCustomExpense appends a blank row and returns its index.
func (e *Editor) AddCustomExpense() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Expenses.Custom = append(e.draft.Expenses.Custom, models.CustomExpenseInput{})
	return len(e.draft.Expenses.Custom) - 1
}

func (e *Editor) UpdateCustomExpense(i int, row models.CustomExpenseInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return update(e.draft.Expenses.Custom, i, row)
}

func (e *Editor) RemoveCustomExpense(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return remove(&e.draft.Expenses.Custom, i)
}

func (e *Editor) AddLoan() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Loans = append(e.draft.Loans, models.LoanInput{})
	return len(e.draft.Loans) - 1
}

func (e *Editor) UpdateLoan(i int, row models.LoanInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return update(e.draft.Loans, i, row)
}

func (e *Editor) RemoveLoan(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return remove(&e.draft.Loans, i)
}

func (e *Editor) AddGoal() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Goals = append(e.draft.Goals, models.GoalInput{})
	return len(e.draft.Goals) - 1
}

func (e *Editor) UpdateGoal(i int, row models.GoalInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return update(e.draft.Goals, i, row)
}

func (e *Editor) RemoveGoal(i int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return remove(&e.draft.Goals, i)
}

func (e *Editor) SetRiskAppetite(r models.RiskAppetite) error {
	if !r.Valid() {
		return models.ErrInvalidRiskAppetite
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.RiskAppetite = string(r)
	return nil
}

// ToggleInvestment selects or deselects a catalog option and reports
// whether it is now selected.
func (e *Editor) ToggleInvestment(option string) (bool, error) {
	if !models.IsInvestmentOption(option) {
		return false, fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := slices.Index(e.draft.InvestmentPreferences, option); i >= 0 {
		e.draft.InvestmentPreferences = slices.Delete(e.draft.InvestmentPreferences, i, i+1)
		return false, nil
	}
	e.draft.InvestmentPreferences = append(e.draft.InvestmentPreferences, option)
	return true, nil
}

// RemoveInvestment drops any preference from the draft, including ones
// outside the catalog. It reports whether pref was there.
func (e *Editor) RemoveInvestment(pref string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := slices.Index(e.draft.InvestmentPreferences, pref)
	if i < 0 {
		return false
	}
	e.draft.InvestmentPreferences = slices.Delete(e.draft.InvestmentPreferences, i, i+1)
	return true
}

// SetOtherInvestment sets the free-text preference appended on submit.
func (e *Editor) SetOtherInvestment(v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.other = v
}

// Submit normalizes the draft and hands it to the Saver. Validation
// failures come back as *models.ValidationError without calling the Saver;
// Saver failures come back as *SaveError. Only one Submit may be in flight.
func (e *Editor) Submit(ctx context.Context) (models.Profile, error) {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return models.Profile{}, ErrSubmitInFlight
	}
	return e.submitLocked(ctx, e.assemble())
}

// SubmitInput replaces the whole draft with in and submits it as one step.
func (e *Editor) SubmitInput(ctx context.Context, in models.ProfileInput) (models.Profile, error) {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return models.Profile{}, ErrSubmitInFlight
	}
	e.draft = in
	e.other = ""
	return e.submitLocked(ctx, e.assemble())
}

// submitLocked is entered with e.mu held and releases it.
func (e *Editor) submitLocked(ctx context.Context, in models.ProfileInput) (models.Profile, error) {
	p, err := in.Normalize()
	if err != nil {
		e.mu.Unlock()
		return models.Profile{}, err
	}
	e.saving = true
	e.mu.Unlock()

	err = e.saver.SaveProfile(ctx, p)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		return models.Profile{}, &SaveError{Err: err}
	}
	saved := p.Clone()
	e.saved = &saved
	return p, nil
}

func (e *Editor) copyDraft() models.ProfileInput {
	in := e.draft
	in.Expenses.Custom = slices.Clone(e.draft.Expenses.Custom)
	in.Loans = slices.Clone(e.draft.Loans)
	in.Goals = slices.Clone(e.draft.Goals)
	in.InvestmentPreferences = slices.Clone(e.draft.InvestmentPreferences)
	return in
}

func (e *Editor) assemble() models.ProfileInput {
	in := e.copyDraft()
	if other := strings.TrimSpace(e.other); other != "" && !slices.Contains(in.InvestmentPreferences, other) {
		in.InvestmentPreferences = append(in.InvestmentPreferences, other)
	}
	return in
}

func update[T any](rows []T, i int, row T) error {
	if i < 0 || i >= len(rows) {
		return fmt.Errorf("%w: %d", ErrNoSuchRow, i)
	}
	rows[i] = row
	return nil
}

func remove[T any](rows *[]T, i int) error {
	if i < 0 || i >= len(*rows) {
		return fmt.Errorf("%w: %d", ErrNoSuchRow, i)
	}
	*rows = slices.Delete(*rows, i, i+1)
	return nil
}
