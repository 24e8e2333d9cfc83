package models

import "time"

type RecordType string

const (
	RecordWorld  RecordType = "WORLD"
	RecordCourse RecordType = "COURSE"
)

// RecordTypes lists the record kinds that carry a bonus.
var RecordTypes = []RecordType{RecordWorld, RecordCourse}

// RecordState is the approval state of a record entry.
type RecordState string

const (
	RecordProvisional RecordState = "PROVISIONAL"
	RecordConfirmed   RecordState = "CONFIRMED"
	RecordRejected    RecordState = "REJECTED"
)

// RaceRecord is a confirmed record or a candidate awaiting a commissioner decision.
type RaceRecord struct {
	ID         string      `json:"id" db:"id" yaml:"id"`
	RaceID     int         `json:"race_id" db:"race_id" yaml:"race_id"`
	Gender     Gender      `json:"gender" db:"gender" yaml:"gender"`
	RecordType RecordType  `json:"record_type" db:"record_type" yaml:"record_type"`
	TimeMs     int64       `json:"time_ms" db:"time_ms" yaml:"time_ms"`
	State      RecordState `json:"state" db:"state" yaml:"state"`
	AthleteID  *int        `json:"athlete_id,omitempty" db:"athlete_id" yaml:"athlete_id,omitempty"`
	GameID     *int        `json:"game_id,omitempty" db:"game_id" yaml:"game_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at" yaml:"-"`
	DecidedAt  *time.Time  `json:"decided_at,omitempty" db:"decided_at" yaml:"-"`
	DecidedBy  *string     `json:"decided_by,omitempty" db:"decided_by" yaml:"-"`
}
