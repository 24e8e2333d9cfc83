package models

import "time"

// Gender задаёт зачёт, внутри которого ранжируются спортсмены.
type Gender string

const (
	GenderMen   Gender = "men"
	GenderWomen Gender = "women"
)

func (g Gender) Valid() bool {
	return g == GenderMen || g == GenderWomen
}

// SplitLabel identifies an intermediate timing checkpoint.
type SplitLabel string

const (
	Split5k   SplitLabel = "5k"
	Split10k  SplitLabel = "10k"
	SplitHalf SplitLabel = "half"
	Split30k  SplitLabel = "30k"
	Split35k  SplitLabel = "35k"
	Split40k  SplitLabel = "40k"
)

// MarathonKm is the full race distance.
const MarathonKm = 42.195

// SplitOrder lists checkpoints in course order.
var SplitOrder = []SplitLabel{Split5k, Split10k, SplitHalf, Split30k, Split35k, Split40k}

var splitDistanceKm = map[SplitLabel]float64{
	Split5k:   5,
	Split10k:  10,
	SplitHalf: 21.0975,
	Split30k:  30,
	Split35k:  35,
	Split40k:  40,
}

// DistanceKm returns the checkpoint distance, or 0 for an unknown label.
func (l SplitLabel) DistanceKm() float64 {
	return splitDistanceKm[l]
}

func (l SplitLabel) Valid() bool {
	_, ok := splitDistanceKm[l]
	return ok
}

// AthleteResult is the raw timing row for one athlete in one game.
type AthleteResult struct {
	AthleteID    int       `json:"athlete_id" db:"athlete_id" yaml:"athlete_id"`
	GameID       int       `json:"game_id" db:"game_id" yaml:"game_id"`
	Gender       Gender    `json:"gender" db:"gender" yaml:"gender"`
	FinishTimeMs *int64    `json:"finish_time_ms,omitempty" db:"finish_time_ms" yaml:"finish_time_ms,omitempty"`
	Split5kMs    *int64    `json:"split_5k_ms,omitempty" db:"split_5k_ms" yaml:"split_5k_ms,omitempty"`
	Split10kMs   *int64    `json:"split_10k_ms,omitempty" db:"split_10k_ms" yaml:"split_10k_ms,omitempty"`
	SplitHalfMs  *int64    `json:"split_half_ms,omitempty" db:"split_half_ms" yaml:"split_half_ms,omitempty"`
	Split30kMs   *int64    `json:"split_30k_ms,omitempty" db:"split_30k_ms" yaml:"split_30k_ms,omitempty"`
	Split35kMs   *int64    `json:"split_35k_ms,omitempty" db:"split_35k_ms" yaml:"split_35k_ms,omitempty"`
	Split40kMs   *int64    `json:"split_40k_ms,omitempty" db:"split_40k_ms" yaml:"split_40k_ms,omitempty"`
	IsFinal      bool      `json:"is_final" db:"is_final" yaml:"is_final"`
	DNS          bool      `json:"dns" db:"dns" yaml:"dns"`
	DNF          bool      `json:"dnf" db:"dnf" yaml:"dnf"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at" yaml:"-"`
}

// Checkpoint is one recorded split.
type Checkpoint struct {
	Label  SplitLabel
	TimeMs int64
}

func (r *AthleteResult) HasFinish() bool {
	return r.FinishTimeMs != nil
}

// Excluded reports a DNS or DNF athlete.
func (r *AthleteResult) Excluded() bool {
	return r.DNS || r.DNF
}

// SplitTime returns the recorded time for a checkpoint.
func (r *AthleteResult) SplitTime(label SplitLabel) *int64 {
	switch label {
	case Split5k:
		return r.Split5kMs
	case Split10k:
		return r.Split10kMs
	case SplitHalf:
		return r.SplitHalfMs
	case Split30k:
		return r.Split30kMs
	case Split35k:
		return r.Split35kMs
	case Split40k:
		return r.Split40kMs
	}
	return nil
}

// SetSplit stores a split time by label; unknown labels are ignored.
func (r *AthleteResult) SetSplit(label SplitLabel, ms *int64) {
	switch label {
	case Split5k:
		r.Split5kMs = ms
	case Split10k:
		r.Split10kMs = ms
	case SplitHalf:
		r.SplitHalfMs = ms
	case Split30k:
		r.Split30kMs = ms
	case Split35k:
		r.Split35kMs = ms
	case Split40k:
		r.Split40kMs = ms
	}
}

// Splits returns the recorded checkpoints in course order.
func (r *AthleteResult) Splits() []Checkpoint {
	out := make([]Checkpoint, 0, len(SplitOrder))
	for _, label := range SplitOrder {
		if t := r.SplitTime(label); t != nil {
			out = append(out, Checkpoint{Label: label, TimeMs: *t})
		}
	}
	return out
}

func (r *AthleteResult) HasSplits() bool {
	for _, label := range SplitOrder {
		if r.SplitTime(label) != nil {
			return true
		}
	}
	return false
}

// Int64Ptr is a small helper for optional millisecond fields.
func Int64Ptr(v int64) *int64 {
	return &v
}
