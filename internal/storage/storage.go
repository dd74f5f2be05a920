package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Tiliavir/pioneer-tracker/internal/logger"
	"github.com/Tiliavir/pioneer-tracker/internal/model"
	"github.com/Tiliavir/pioneer-tracker/internal/timecalc"
)

var (
	// ErrLoad reports that the backing store could not be read at all.
	ErrLoad = errors.New("loading data failed")
	// ErrSave reports that at least one collection could not be written.
	ErrSave = errors.New("saving data failed")
	// ErrInvalid reports a record that breaks the store's rules.
	ErrInvalid = errors.New("invalid record")
	// ErrMissing reports an id that is not present in its collection.
	ErrMissing = errors.New("no such record")
)

// Keys names the three storage keys. The version suffix is part of the
// key; bumping it abandons data stored under the old key.
type Keys struct {
	Entries  string
	Plans    string
	Settings string
}

// DefaultKeys are the keys used by the application.
var DefaultKeys = Keys{
	Entries:  "pioneerTracker_entries_v5.3",
	Plans:    "pioneerTracker_plans_v1.3",
	Settings: "pioneerTracker_settings_v1.3",
}

// Store owns the entries, plans and settings collections. Entries are kept
// sorted by date descending, plans by date ascending. Accessors return
// copies; all writes go through the mutators.
type Store struct {
	kv       KV
	keys     Keys
	entries  []model.Entry
	plans    []model.Plan
	settings model.Settings
}

// New returns an empty Store over kv using DefaultKeys.
func New(kv KV) *Store {
	return NewWithKeys(kv, DefaultKeys)
}

// NewWithKeys returns an empty Store over kv using keys.
func NewWithKeys(kv KV, keys Keys) *Store {
	return &Store{kv: kv, keys: keys, settings: model.DefaultSettings()}
}

// LoadReport describes what Load had to repair.
type LoadReport struct {
	// CorruptKeys lists keys whose content could not be parsed. Each was
	// backed up to "<key>.corrupt" and removed.
	CorruptKeys []string
	// Dropped counts entries and plans rejected by sanitization.
	Dropped int
}

// Load replaces the in-memory collections with the stored ones. A collection
// that fails to parse is reset on its own; an unreadable store resets all
// three and returns an error wrapping ErrLoad.
func (s *Store) Load() (LoadReport, error) {
	var report LoadReport

	raw := map[string][]byte{}
	for _, key := range []string{s.keys.Entries, s.keys.Plans, s.keys.Settings} {
		data, err := s.kv.Get(key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			s.resetAll()
			for _, k := range []string{s.keys.Entries, s.keys.Plans, s.keys.Settings} {
				_ = s.kv.Remove(k)
			}
			logger.Error("loading data failed", "err", err)
			return report, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		raw[key] = data
	}

	s.entries = nil
	if data, ok := raw[s.keys.Entries]; ok {
		entries, dropped, err := decodeEntries(data)
		if err != nil {
			s.quarantine(s.keys.Entries, data, err, &report)
		} else {
			s.entries = entries
			report.Dropped += dropped
		}
	}

	s.plans = nil
	if data, ok := raw[s.keys.Plans]; ok {
		plans, dropped, err := decodePlans(data)
		if err != nil {
			s.quarantine(s.keys.Plans, data, err, &report)
		} else {
			s.plans = plans
			report.Dropped += dropped
		}
	}

	s.settings = model.DefaultSettings()
	if data, ok := raw[s.keys.Settings]; ok {
		settings, err := decodeSettings(data)
		if err != nil {
			s.quarantine(s.keys.Settings, data, err, &report)
		} else {
			s.settings = settings
		}
	}

	s.sortEntries()
	s.sortPlans()
	logger.Debug("data loaded", "entries", len(s.entries), "plans", len(s.plans), "dropped", report.Dropped)
	return report, nil
}

// quarantine backs up a corrupt key and removes it.
func (s *Store) quarantine(key string, data []byte, cause error, report *LoadReport) {
	logger.Warn("corrupt data removed", "key", key, "err", cause)
	if err := s.kv.Set(key+".corrupt", data); err != nil {
		logger.Warn("could not back up corrupt data", "key", key, "err", err)
	}
	if err := s.kv.Remove(key); err != nil {
		logger.Warn("could not remove corrupt data", "key", key, "err", err)
	}
	report.CorruptKeys = append(report.CorruptKeys, key)
}

// Save writes all three collections. The in-memory state is left untouched
// on failure.
func (s *Store) Save() error {
	entries := s.entries
	if entries == nil {
		entries = []model.Entry{}
	}
	plans := s.plans
	if plans == nil {
		plans = []model.Plan{}
	}

	var errs []error
	for _, item := range []struct {
		key string
		v   any
	}{
		{s.keys.Entries, entries},
		{s.keys.Plans, plans},
		{s.keys.Settings, s.settings},
	} {
		data, err := json.Marshal(item.v)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshalling %s: %w", item.key, err))
			continue
		}
		if err := s.kv.Set(item.key, data); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		logger.Error("saving data failed", "err", err)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

// MigrateTags rewrites entries tagged oldDefault (or untagged) to
// currentDefault and saves when anything changed.
func (s *Store) MigrateTags(oldDefault, currentDefault string) (bool, error) {
	changed := false
	for i := range s.entries {
		if s.entries[i].Tag == "" || s.entries[i].Tag == oldDefault {
			if s.entries[i].Tag != currentDefault {
				s.entries[i].Tag = currentDefault
				changed = true
			}
		}
	}
	if !changed {
		return false, nil
	}
	logger.Info("migrated entry tags", "from", oldDefault, "to", currentDefault)
	return true, s.Save()
}

// Entries returns a copy of the entries, most recent first.
func (s *Store) Entries() []model.Entry {
	return append([]model.Entry(nil), s.entries...)
}

// Plans returns a copy of the plans, soonest first.
func (s *Store) Plans() []model.Plan {
	return append([]model.Plan(nil), s.plans...)
}

// Settings returns the current settings.
func (s *Store) Settings() model.Settings {
	return s.settings
}

// Entry returns the entry with id.
func (s *Store) Entry(id int64) (model.Entry, bool) {
	if i := s.entryIndex(id); i >= 0 {
		return s.entries[i], true
	}
	return model.Entry{}, false
}

// Plan returns the plan with id.
func (s *Store) Plan(id int64) (model.Plan, bool) {
	if i := s.planIndex(id); i >= 0 {
		return s.plans[i], true
	}
	return model.Plan{}, false
}

// NextID returns an id derived from now that no entry or plan uses yet.
func (s *Store) NextID(now time.Time) int64 {
	id := timecalc.GenerateID(now)
	for s.entryIndex(id) >= 0 || s.planIndex(id) >= 0 {
		id++
	}
	return id
}

// PutEntry inserts e, or replaces the entry with the same id. It reports
// whether a new entry was created.
func (s *Store) PutEntry(e model.Entry) (bool, error) {
	if err := validateEntry(e); err != nil {
		return false, err
	}
	e.Notes = model.TruncateNotes(e.Notes)

	created := true
	if i := s.entryIndex(e.ID); i >= 0 {
		s.entries[i] = e
		created = false
	} else {
		s.entries = append(s.entries, e)
	}
	s.sortEntries()
	return created, nil
}

// DeleteEntry removes the entry with id and reports whether it existed.
func (s *Store) DeleteEntry(id int64) bool {
	i := s.entryIndex(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

// PutPlan inserts p, or replaces the plan with the same id.
func (s *Store) PutPlan(p model.Plan) (bool, error) {
	if err := validatePlan(p); err != nil {
		return false, err
	}
	created := true
	if i := s.planIndex(p.ID); i >= 0 {
		s.plans[i] = p
		created = false
	} else {
		s.plans = append(s.plans, p)
	}
	s.sortPlans()
	return created, nil
}

// DeletePlan removes the plan with id and reports whether it existed.
func (s *Store) DeletePlan(id int64) bool {
	i := s.planIndex(id)
	if i < 0 {
		return false
	}
	s.plans = append(s.plans[:i], s.plans[i+1:]...)
	return true
}

// CompletePlan removes the plan with id and inserts e in its place. Either
// both changes happen or neither does.
func (s *Store) CompletePlan(id int64, e model.Entry) error {
	pi := s.planIndex(id)
	if pi < 0 {
		return fmt.Errorf("%w: plan %d", ErrMissing, id)
	}
	if err := validateEntry(e); err != nil {
		return err
	}
	if s.entryIndex(e.ID) >= 0 {
		return fmt.Errorf("%w: entry id %d already in use", ErrInvalid, e.ID)
	}
	e.Notes = model.TruncateNotes(e.Notes)

	s.entries = append(s.entries, e)
	s.plans = append(s.plans[:pi], s.plans[pi+1:]...)
	s.sortEntries()
	return nil
}

// SetSettings replaces the settings.
func (s *Store) SetSettings(settings model.Settings) error {
	if settings.MonthlyGoal <= 0 {
		return fmt.Errorf("%w: monthly goal must be positive, got %d", ErrInvalid, settings.MonthlyGoal)
	}
	s.settings = settings
	return nil
}

// Reset clears every collection back to a fresh install.
func (s *Store) Reset() {
	s.resetAll()
}

func (s *Store) resetAll() {
	s.entries = nil
	s.plans = nil
	s.settings = model.DefaultSettings()
}

func (s *Store) entryIndex(id int64) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) planIndex(id int64) int {
	for i := range s.plans {
		if s.plans[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) sortEntries() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].Date > s.entries[j].Date
	})
}

func (s *Store) sortPlans() {
	sort.SliceStable(s.plans, func(i, j int) bool {
		return s.plans[i].Date < s.plans[j].Date
	})
}

func validateEntry(e model.Entry) error {
	if math.IsNaN(e.Hours) || e.Hours <= 0 {
		return fmt.Errorf("%w: hours must be positive, got %v", ErrInvalid, e.Hours)
	}
	if _, err := time.Parse(timecalc.DateLayout, e.Date); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func validatePlan(p model.Plan) error {
	if math.IsNaN(p.Hours) || p.Hours <= 0 {
		return fmt.Errorf("%w: hours must be positive, got %v", ErrInvalid, p.Hours)
	}
	if _, err := time.Parse(timecalc.DateLayout, p.Date); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// number decodes a JSON number, numeric string, or null. Anything that is
// not numeric decodes as NaN.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*n = number(f)
			return nil
		}
	}
	*n = number(math.NaN())
	return nil
}

func (n number) positive() bool {
	f := float64(n)
	return !math.IsNaN(f) && f > 0
}

type storedEntry struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	Hours      number `json:"hours"`
	Tag        string `json:"tag"`
	Notes      string `json:"notes"`
	ExternalID string `json:"externalId"`
}

func decodeEntries(data []byte) ([]model.Entry, int, error) {
	var stored []storedEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, 0, fmt.Errorf("parsing entries: %w", err)
	}
	entries := make([]model.Entry, 0, len(stored))
	dropped := 0
	for _, se := range stored {
		if !se.Hours.positive() {
			dropped++
			continue
		}
		e := model.Entry{
			ID:         se.ID,
			Date:       se.Date,
			Hours:      float64(se.Hours),
			Tag:        se.Tag,
			Notes:      model.TruncateNotes(se.Notes),
			ExternalID: se.ExternalID,
		}
		if validateEntry(e) != nil {
			dropped++
			continue
		}
		entries = append(entries, e)
	}
	return entries, dropped, nil
}

type storedPlan struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	Hours        number `json:"hours"`
	PlannedHours number `json:"plannedHours"`
}

func decodePlans(data []byte) ([]model.Plan, int, error) {
	var stored []storedPlan
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, 0, fmt.Errorf("parsing plans: %w", err)
	}
	plans := make([]model.Plan, 0, len(stored))
	dropped := 0
	for _, sp := range stored {
		hours := sp.Hours
		if !hours.positive() {
			hours = sp.PlannedHours // legacy field
		}
		if !hours.positive() {
			dropped++
			continue
		}
		p := model.Plan{ID: sp.ID, Date: sp.Date, Hours: float64(hours)}
		if validatePlan(p) != nil {
			dropped++
			continue
		}
		plans = append(plans, p)
	}
	return plans, dropped, nil
}

func decodeSettings(data []byte) (model.Settings, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Settings{}, fmt.Errorf("parsing settings: %w", err)
	}

	settings := model.DefaultSettings()
	if v, ok := raw["monthlyGoal"]; ok {
		var goal number
		_ = json.Unmarshal(v, &goal)
		if goal.positive() && int(goal) > 0 {
			settings.MonthlyGoal = int(goal)
		}
	}

	var set bool
	if v, ok := raw["goalHasBeenSet"]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) && json.Unmarshal(v, &set) == nil {
		settings.GoalHasBeenSet = set
	} else {
		settings.GoalHasBeenSet = settings.MonthlyGoal != model.DefaultMonthlyGoal
	}
	return settings, nil
}
