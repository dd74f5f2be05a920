// Package app is the single writer of the tracker state. Commands call its
// operations; each one validates input, mutates the store, persists, and
// reports the outcome as a Notice.
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tiliavir/pioneer-tracker/internal/derive"
	"github.com/Tiliavir/pioneer-tracker/internal/i18n"
	"github.com/Tiliavir/pioneer-tracker/internal/logger"
	"github.com/Tiliavir/pioneer-tracker/internal/model"
	"github.com/Tiliavir/pioneer-tracker/internal/storage"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

// Input validation errors. No state changes when one is returned.
var (
	ErrInvalidTime   = errors.New("invalid or zero time")
	ErrInvalidDate   = errors.New("invalid or missing date")
	ErrPlanInPast    = errors.New("plan date is in the past")
	ErrInvalidGoal   = errors.New("monthly goal must be a positive whole number")
	ErrEntryNotFound = errors.New("record not found")
	ErrPlanNotFound  = errors.New("plan not found")
)

// Level classifies a Notice.
type Level int

const (
	Success Level = iota
	Info
	Danger
)

// Notice is user-facing feedback produced by an operation.
type Notice struct {
	Level   Level
	Message string
}

// Options tunes the derived views.
type Options struct {
	MinHoursPerDay float64
	OverdueHour    int
	HistoryMonths  int
	// Now returns the current local time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the built-in tuning.
func DefaultOptions() Options {
	return Options{
		MinHoursPerDay: derive.DefaultMinHoursPerDay,
		OverdueHour:    derive.DefaultOverdueHour,
		HistoryMonths:  3,
		Now:            time.Now,
	}
}

// EditKind tells which form an edit belongs to.
type EditKind int

const (
	EditRecord EditKind = iota + 1
	EditPlan
)

// EditTarget is the entity currently loaded into a form.
type EditTarget struct {
	Kind EditKind
	ID   int64
}

// App owns the store and the translator.
type App struct {
	store   *storage.Store
	tr      *i18n.Translator
	opts    Options
	editing *EditTarget
	notify  func(Notice)
}

// New returns an App over store. Notices are dropped until OnNotice is set.
func New(store *storage.Store, tr *i18n.Translator, opts Options) *App {
	def := DefaultOptions()
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if opts.MinHoursPerDay <= 0 {
		opts.MinHoursPerDay = def.MinHoursPerDay
	}
	if opts.OverdueHour < 0 || opts.OverdueHour > 23 {
		opts.OverdueHour = def.OverdueHour
	}
	if opts.HistoryMonths <= 0 {
		opts.HistoryMonths = def.HistoryMonths
	}
	return &App{store: store, tr: tr, opts: opts, notify: func(Notice) {}}
}

// OnNotice registers the feedback sink.
func (a *App) OnNotice(fn func(Notice)) {
	if fn == nil {
		fn = func(Notice) {}
	}
	a.notify = fn
}

func (a *App) emit(level Level, key string, params map[string]string) {
	a.notify(Notice{Level: level, Message: a.tr.T(key, params)})
}

// Translator returns the active translator.
func (a *App) Translator() *i18n.Translator { return a.tr }

// Store returns the underlying store.
func (a *App) Store() *storage.Store { return a.store }

// Now returns the controller's clock reading.
func (a *App) Now() time.Time { return a.opts.Now() }

// DefaultTag is the category assigned when none is given.
func (a *App) DefaultTag() string {
	return a.tr.T("recordTagOptionHouseToHouse", nil)
}

// Startup loads persisted data and rewrites tags left by older versions.
func (a *App) Startup() (storage.LoadReport, error) {
	report, err := a.store.Load()
	if err != nil {
		a.emit(Danger, "feedbackLoadError", nil)
		return report, err
	}
	if len(report.CorruptKeys) > 0 {
		a.emit(Danger, "feedbackLoadError", nil)
	}

	old := a.tr.LookupIn("en", "historyEntryTagDefault", nil)
	if !old.Resolved {
		return report, nil
	}
	if _, err := a.store.MigrateTags(old.Text, a.DefaultTag()); err != nil {
		a.emit(Danger, "feedbackDataSaveFailed", nil)
		return report, err
	}
	return report, nil
}

// save persists the store, reporting failure as a notice. The in-memory
// state stays authoritative either way.
func (a *App) save() error {
	if err := a.store.Save(); err != nil {
		a.emit(Danger, "feedbackDataSaveFailed", nil)
		return err
	}
	return nil
}

// Editing returns the current edit target, if any.
func (a *App) Editing() (EditTarget, bool) {
	if a.editing == nil {
		return EditTarget{}, false
	}
	return *a.editing, true
}

// CancelEdit discards the current edit.
func (a *App) CancelEdit() {
	a.editing = nil
}

// RecordInput is the record form.
type RecordInput struct {
	Date  string
	Time  string
	Tag   string
	Notes string
}

// PlanInput is the plan form.
type PlanInput struct {
	Date string
	Time string
}

// StartRecordEdit loads the entry id into the record form, replacing any
// edit in progress.
func (a *App) StartRecordEdit(id int64) (RecordInput, error) {
	e, ok := a.store.Entry(id)
	if !ok {
		a.emit(Danger, "feedbackRecordNotFound", nil)
		return RecordInput{}, fmt.Errorf("%w: %d", ErrEntryNotFound, id)
	}
	a.editing = &EditTarget{Kind: EditRecord, ID: id}
	logger.Debug("editing record", "id", id)
	return RecordInput{Date: e.Date, Time: timecalc.FormatTimeInput(e.Hours), Tag: e.Tag, Notes: e.Notes}, nil
}

// StartPlanEdit loads the plan id into the plan form, replacing any edit in
// progress.
func (a *App) StartPlanEdit(id int64) (PlanInput, error) {
	p, ok := a.store.Plan(id)
	if !ok {
		a.emit(Danger, "feedbackPlanNotFound", nil)
		return PlanInput{}, fmt.Errorf("%w: %d", ErrPlanNotFound, id)
	}
	a.editing = &EditTarget{Kind: EditPlan, ID: id}
	logger.Debug("editing plan", "id", id)
	return PlanInput{Date: p.Date, Time: timecalc.FormatTimeInput(p.Hours)}, nil
}

func (a *App) validDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if _, err := timecalc.ParseDate(date, a.Now().Location()); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	return date, nil
}

func parsePositiveTime(s string) (float64, error) {
	hours, err := timecalc.ParseTimeInput(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidTime, err)
	}
	if hours <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return hours, nil
}

// SubmitRecord creates an entry, or updates the one being edited.
func (a *App) SubmitRecord(in RecordInput) (model.Entry, error) {
	hours, err := parsePositiveTime(in.Time)
	if err != nil {
		a.emit(Danger, "feedbackTimeInvalid", nil)
		return model.Entry{}, err
	}
	date, err := a.validDate(in.Date)
	if err != nil {
		a.emit(Danger, "feedbackDateInvalid", nil)
		return model.Entry{}, err
	}

	notes := strings.TrimSpace(in.Notes)
	if len([]rune(notes)) > model.NotesMaxLength {
		notes = model.TruncateNotes(notes)
		a.emit(Info, "feedbackNotesLengthLimit", map[string]string{"maxLength": fmt.Sprint(model.NotesMaxLength)})
	}
	tag := strings.TrimSpace(in.Tag)
	if tag == "" {
		tag = a.DefaultTag()
	}

	entry := model.Entry{Date: date, Hours: hours, Tag: tag, Notes: notes}
	if a.editing != nil && a.editing.Kind == EditRecord {
		entry.ID = a.editing.ID
		if prev, ok := a.store.Entry(entry.ID); ok {
			entry.ExternalID = prev.ExternalID
		}
	} else {
		entry.ID = a.store.NextID(a.Now())
	}

	created, err := a.store.PutEntry(entry)
	if err != nil {
		a.emit(Danger, "feedbackTimeInvalid", nil)
		return model.Entry{}, fmt.Errorf("%w: %w", ErrInvalidTime, err)
	}
	a.CancelEdit()
	if err := a.save(); err != nil {
		return entry, err
	}
	if created {
		a.emit(Success, "feedbackRecordSaved", nil)
	} else {
		a.emit(Success, "feedbackRecordUpdated", nil)
	}
	return entry, nil
}

// DeleteRecord removes entry id. It reports whether anything was removed;
// repeating it is harmless.
func (a *App) DeleteRecord(id int64) (bool, error) {
	if !a.store.DeleteEntry(id) {
		a.emit(Info, "feedbackRecordNotFound", nil)
		return false, nil
	}
	if a.editing != nil && a.editing.Kind == EditRecord && a.editing.ID == id {
		a.CancelEdit()
	}
	if err := a.save(); err != nil {
		return true, err
	}
	a.emit(Success, "feedbackRecordDeleted", nil)
	return true, nil
}

// SubmitPlan creates a plan, or updates the one being edited. Plans may not
// be dated before today.
func (a *App) SubmitPlan(in PlanInput) (model.Plan, error) {
	hours, err := parsePositiveTime(in.Time)
	if err != nil {
		a.emit(Danger, "feedbackPlanInvalid", nil)
		return model.Plan{}, err
	}
	date, err := a.validDate(in.Date)
	if err != nil {
		a.emit(Danger, "feedbackPlanInvalid", nil)
		return model.Plan{}, err
	}
	if date < timecalc.DateString(a.Now()) {
		a.emit(Danger, "feedbackPlanDatePast", nil)
		return model.Plan{}, fmt.Errorf("%w: %s", ErrPlanInPast, date)
	}

	plan := model.Plan{Date: date, Hours: hours}
	if a.editing != nil && a.editing.Kind == EditPlan {
		plan.ID = a.editing.ID
	} else {
		plan.ID = a.store.NextID(a.Now())
	}
	if _, err := a.store.PutPlan(plan); err != nil {
		a.emit(Danger, "feedbackPlanInvalid", nil)
		return model.Plan{}, fmt.Errorf("%w: %w", ErrInvalidTime, err)
	}
	a.CancelEdit()
	if err := a.save(); err != nil {
		return plan, err
	}
	a.emit(Success, "feedbackPlanSaved", nil)
	return plan, nil
}

// DeletePlan removes plan id and reports whether it existed.
func (a *App) DeletePlan(id int64) (bool, error) {
	if !a.store.DeletePlan(id) {
		a.emit(Info, "feedbackPlanNotFound", nil)
		return false, nil
	}
	if a.editing != nil && a.editing.Kind == EditPlan && a.editing.ID == id {
		a.CancelEdit()
	}
	if err := a.save(); err != nil {
		return true, err
	}
	a.emit(Success, "feedbackPlanDeleted", nil)
	return true, nil
}

// MarkPlanDone turns plan id into a record and removes the plan.
func (a *App) MarkPlanDone(id int64) (model.Entry, error) {
	plan, ok := a.store.Plan(id)
	if !ok {
		a.emit(Danger, "feedbackPlanNotFound", nil)
		return model.Entry{}, fmt.Errorf("%w: %d", ErrPlanNotFound, id)
	}
	now := a.Now()
	note := a.tr.T("planNoteFromPastPlan", map[string]string{"date": timecalc.FormatDisplayDate(plan.Date)})
	entry := derive.EntryFromPlan(plan, now, a.store.NextID(now), a.DefaultTag(), note)

	if err := a.store.CompletePlan(id, entry); err != nil {
		a.emit(Danger, "feedbackPlanInvalid", nil)
		return model.Entry{}, err
	}
	if a.editing != nil && a.editing.Kind == EditPlan && a.editing.ID == id {
		a.CancelEdit()
	}
	if err := a.save(); err != nil {
		return entry, err
	}
	a.emit(Success, "feedbackPlanMarkedDone", nil)
	return entry, nil
}

// NeedsGoalPrompt reports whether the one-time goal prompt is due.
func (a *App) NeedsGoalPrompt() bool {
	return !a.store.Settings().GoalHasBeenSet
}

// SaveGoal stores a new monthly goal.
func (a *App) SaveGoal(goal int) error {
	if goal <= 0 {
		a.emit(Danger, "feedbackGoalInvalid", nil)
		return fmt.Errorf("%w: %d", ErrInvalidGoal, goal)
	}
	first := !a.store.Settings().GoalHasBeenSet
	if err := a.store.SetSettings(model.Settings{MonthlyGoal: goal, GoalHasBeenSet: true}); err != nil {
		a.emit(Danger, "feedbackGoalInvalid", nil)
		return fmt.Errorf("%w: %w", ErrInvalidGoal, err)
	}
	if err := a.save(); err != nil {
		return err
	}
	params := map[string]string{"goal": fmt.Sprint(goal)}
	if first {
		a.emit(Success, "feedbackGoalSet", params)
	} else {
		a.emit(Success, "feedbackGoalUpdated", params)
	}
	return nil
}

// DismissGoalPrompt keeps the current goal and stops prompting for one.
func (a *App) DismissGoalPrompt() error {
	s := a.store.Settings()
	if s.GoalHasBeenSet {
		return nil
	}
	s.GoalHasBeenSet = true
	if err := a.store.SetSettings(s); err != nil {
		return err
	}
	return a.save()
}

// ClearAll wipes every collection and persists the empty state.
func (a *App) ClearAll() error {
	a.store.Reset()
	a.CancelEdit()
	if err := a.save(); err != nil {
		return err
	}
	logger.Info("all data cleared")
	a.emit(Success, "feedbackDataCleared", nil)
	return nil
}
