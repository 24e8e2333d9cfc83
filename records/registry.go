package records

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/google/uuid"
)

var (
	ErrRecordNotFound          = errors.New("race record not found")
	ErrInvalidRecordTransition = errors.New("record state transition not allowed")
	ErrInvalidCandidate        = errors.New("invalid record candidate")
)

// Key identifies one record slot: a race, a gender field and a record type.
type Key struct {
	RaceID     int
	Gender     models.Gender
	RecordType models.RecordType
}

func KeyOf(r *models.RaceRecord) Key {
	return Key{RaceID: r.RaceID, Gender: r.Gender, RecordType: r.RecordType}
}

// SupersededBy is recorded as DecidedBy on a candidate closed by a faster one.
const SupersededBy = "superseded"

// PersistFunc stores changed entries before the registry applies them. A nil
// PersistFunc skips storage. On error the registry is left unchanged.
type PersistFunc func(changed []models.RaceRecord) error

// Candidate is a finish that may beat the current record.
type Candidate struct {
	Key
	AthleteID int
	GameID    int
	TimeMs    int64
}

type slot struct {
	confirmed *models.RaceRecord
	pending   *models.RaceRecord
	history   []*models.RaceRecord
}

// Registry holds record entries and their approval state.
// Entries are never deleted; confirmed and rejected entries stay as the audit trail.
type Registry struct {
	mu    sync.RWMutex
	slots map[Key]*slot
	byID  map[string]*models.RaceRecord
	now   func() time.Time
	newID func() string
}

func NewRegistry() *Registry {
	return &Registry{
		slots: make(map[Key]*slot),
		byID:  make(map[string]*models.RaceRecord),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Load replaces the registry contents, e.g. with rows read at startup.
func (r *Registry) Load(recs []models.RaceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots = make(map[Key]*slot)
	r.byID = make(map[string]*models.RaceRecord)

	sorted := make([]models.RaceRecord, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	for i := range sorted {
		rec := sorted[i]
		if rec.ID == "" {
			rec.ID = r.newID()
		}
		r.insert(&rec)
	}
}

func (r *Registry) slotFor(k Key) *slot {
	s, ok := r.slots[k]
	if !ok {
		s = &slot{}
		r.slots[k] = s
	}
	return s
}

func (r *Registry) insert(rec *models.RaceRecord) {
	s := r.slotFor(KeyOf(rec))
	s.history = append(s.history, rec)
	r.byID[rec.ID] = rec
	switch rec.State {
	case models.RecordConfirmed:
		if s.confirmed == nil || rec.TimeMs < s.confirmed.TimeMs {
			s.confirmed = rec
		}
	case models.RecordProvisional:
		if s.pending == nil || rec.TimeMs < s.pending.TimeMs {
			s.pending = rec
		}
	}
}

// UpdateRecord registers a finish as a provisional candidate when it strictly beats
// the current confirmed record. It returns the candidate and whether it changed.
// A faster finish closes the pending candidate as superseded and opens a new one.
// A confirmed record is never modified here.
func (r *Registry) UpdateRecord(c Candidate, persist PersistFunc) (*models.RaceRecord, bool, error) {
	if c.TimeMs <= 0 || !c.Gender.Valid() {
		return nil, false, fmt.Errorf("%w: time=%d gender=%q", ErrInvalidCandidate, c.TimeMs, c.Gender)
	}
	if c.RecordType != models.RecordWorld && c.RecordType != models.RecordCourse {
		return nil, false, fmt.Errorf("%w: record type %q", ErrInvalidCandidate, c.RecordType)
	}

	// persist вызывается под блокировкой: база и реестр меняются в одном порядке.
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[c.Key]
	if !ok || s.confirmed == nil || c.TimeMs >= s.confirmed.TimeMs {
		return nil, false, nil
	}

	// Та же заявка уже была отклонена комиссаром, повторно не предлагаем.
	for _, h := range s.history {
		if h.State == models.RecordRejected && !superseded(h) && h.TimeMs == c.TimeMs && sameAthlete(h.AthleteID, c.AthleteID) {
			return nil, false, nil
		}
	}

	p := s.pending
	if p != nil && c.TimeMs >= p.TimeMs {
		return clone(p), false, nil
	}

	now := r.now()
	rec := &models.RaceRecord{
		ID:         r.newID(),
		RaceID:     c.RaceID,
		Gender:     c.Gender,
		RecordType: c.RecordType,
		TimeMs:     c.TimeMs,
		State:      models.RecordProvisional,
		AthleteID:  intPtr(c.AthleteID),
		GameID:     intPtr(c.GameID),
		CreatedAt:  now,
	}

	changed := make([]models.RaceRecord, 0, 2)
	var closed *models.RaceRecord
	if p != nil {
		closed = decided(p, models.RecordRejected, SupersededBy, now)
		changed = append(changed, *closed)
	}
	changed = append(changed, *clone(rec))
	if persist != nil {
		if err := persist(changed); err != nil {
			return nil, false, err
		}
	}

	if closed != nil {
		*p = *closed
		s.pending = nil
	}
	r.insert(rec)
	return clone(rec), true, nil
}

// Confirm promotes a provisional candidate to the current record.
func (r *Registry) Confirm(id, actor string, persist PersistFunc) (*models.RaceRecord, error) {
	return r.decide(id, actor, models.RecordConfirmed, persist)
}

// Reject closes a provisional candidate without granting anything.
func (r *Registry) Reject(id, actor string, persist PersistFunc) (*models.RaceRecord, error) {
	return r.decide(id, actor, models.RecordRejected, persist)
}

func (r *Registry) decide(id, actor string, next models.RecordState, persist PersistFunc) (*models.RaceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if rec.State != models.RecordProvisional {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidRecordTransition, rec.State, next)
	}

	out := decided(rec, next, actor, r.now())
	if persist != nil {
		if err := persist([]models.RaceRecord{*out}); err != nil {
			return nil, err
		}
	}
	*rec = *clone(out)

	s := r.slotFor(KeyOf(rec))
	if s.pending == rec {
		s.pending = nil
	}
	if next == models.RecordConfirmed && (s.confirmed == nil || rec.TimeMs < s.confirmed.TimeMs) {
		s.confirmed = rec
	}
	return out, nil
}

// decided returns a copy of rec moved to the next state.
func decided(rec *models.RaceRecord, next models.RecordState, actor string, at time.Time) *models.RaceRecord {
	out := clone(rec)
	out.State = next
	out.DecidedAt = &at
	if actor != "" {
		out.DecidedBy = &actor
	}
	return out
}

func superseded(rec *models.RaceRecord) bool {
	return rec.DecidedBy != nil && *rec.DecidedBy == SupersededBy
}

func (r *Registry) Get(id string) (*models.RaceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return clone(rec), nil
}

// Current returns the record that bonuses are measured against, if any.
func (r *Registry) Current(k Key) (*models.RaceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[k]
	if !ok || s.confirmed == nil {
		return nil, false
	}
	return clone(s.confirmed), true
}

// Snapshot returns every entry for a race (all states) in a stable order,
// suitable as explicit scoring input.
func (r *Registry) Snapshot(raceID int) []models.RaceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.RaceRecord, 0)
	for k, s := range r.slots {
		if k.RaceID != raceID {
			continue
		}
		for _, rec := range s.history {
			out = append(out, *clone(rec))
		}
	}
	sortRecords(out)
	return out
}

// History returns the audit trail of one slot, oldest first.
func (r *Registry) History(k Key) []models.RaceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[k]
	if !ok {
		return nil
	}
	out := make([]models.RaceRecord, 0, len(s.history))
	for _, rec := range s.history {
		out = append(out, *clone(rec))
	}
	return out
}

func sortRecords(recs []models.RaceRecord) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Gender != b.Gender {
			return a.Gender < b.Gender
		}
		if a.RecordType != b.RecordType {
			return a.RecordType < b.RecordType
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func clone(rec *models.RaceRecord) *models.RaceRecord {
	c := *rec
	if rec.AthleteID != nil {
		c.AthleteID = intPtr(*rec.AthleteID)
	}
	if rec.GameID != nil {
		c.GameID = intPtr(*rec.GameID)
	}
	if rec.DecidedAt != nil {
		t := *rec.DecidedAt
		c.DecidedAt = &t
	}
	if rec.DecidedBy != nil {
		s := *rec.DecidedBy
		c.DecidedBy = &s
	}
	return &c
}

func intPtr(v int) *int {
	return &v
}

func sameAthlete(a *int, b int) bool {
	return a != nil && *a == b
}
