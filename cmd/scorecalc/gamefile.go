package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/rulesets"
	"github.com/Dosada05/fantasy-marathon/scoring"
	"github.com/Dosada05/fantasy-marathon/utils"
	"gopkg.in/yaml.v3"
)

// gameFile описывает игру для офлайн-подсчёта; времена записываются как "H:MM:SS[.s]".
type gameFile struct {
	GameID         int              `yaml:"game_id"`
	RaceID         int              `yaml:"race_id"`
	RuleSetVersion int              `yaml:"rule_set_version"`
	RuleSetFile    string           `yaml:"rule_set_file"`
	Results        []resultEntry    `yaml:"results"`
	Rosters        map[string][]int `yaml:"rosters"`
	Records        []recordEntry    `yaml:"records"`
}

type resultEntry struct {
	AthleteID int                          `yaml:"athlete_id"`
	Gender    models.Gender                `yaml:"gender"`
	Finish    string                       `yaml:"finish"`
	Splits    map[models.SplitLabel]string `yaml:"splits"`
	Final     bool                         `yaml:"final"`
	DNS       bool                         `yaml:"dns"`
	DNF       bool                         `yaml:"dnf"`
}

type recordEntry struct {
	ID         string             `yaml:"id"`
	Gender     models.Gender      `yaml:"gender"`
	RecordType models.RecordType  `yaml:"record_type"`
	Time       string             `yaml:"time"`
	State      models.RecordState `yaml:"state"`
	AthleteID  *int               `yaml:"athlete_id"`
}

func decodeGameFile(r io.Reader) (*gameFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var gf gameFile
	if err := dec.Decode(&gf); err != nil {
		return nil, fmt.Errorf("decode game file: %w", err)
	}
	if gf.GameID <= 0 || gf.RaceID <= 0 {
		return nil, fmt.Errorf("game file: game_id and race_id must be positive")
	}
	return &gf, nil
}

// input переводит файл во вход движка подсчёта.
func (gf *gameFile) input() (scoring.GameInput, models.Rosters, error) {
	in := scoring.GameInput{GameID: gf.GameID, RaceID: gf.RaceID}

	for _, e := range gf.Results {
		res := models.AthleteResult{
			GameID:    gf.GameID,
			AthleteID: e.AthleteID,
			Gender:    e.Gender,
			IsFinal:   e.Final,
			DNS:       e.DNS,
			DNF:       e.DNF,
		}
		if e.Finish != "" {
			ms, err := utils.ParseRaceTime(e.Finish)
			if err != nil {
				return in, nil, fmt.Errorf("athlete %d finish: %w", e.AthleteID, err)
			}
			res.FinishTimeMs = models.Int64Ptr(ms)
		}
		for label, raw := range e.Splits {
			if !label.Valid() {
				return in, nil, fmt.Errorf("athlete %d: unknown split %q", e.AthleteID, label)
			}
			ms, err := utils.ParseRaceTime(raw)
			if err != nil {
				return in, nil, fmt.Errorf("athlete %d split %s: %w", e.AthleteID, label, err)
			}
			res.SetSplit(label, models.Int64Ptr(ms))
		}
		in.Results = append(in.Results, res)
	}

	for i, e := range gf.Records {
		ms, err := utils.ParseRaceTime(e.Time)
		if err != nil {
			return in, nil, fmt.Errorf("record %d: %w", i, err)
		}
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("record-%d", i+1)
		}
		state := e.State
		if state == "" {
			state = models.RecordConfirmed
		}
		in.Records = append(in.Records, models.RaceRecord{
			ID:         id,
			RaceID:     gf.RaceID,
			Gender:     e.Gender,
			RecordType: e.RecordType,
			TimeMs:     ms,
			State:      state,
			AthleteID:  e.AthleteID,
		})
	}

	return in, models.Rosters(gf.Rosters), nil
}

// rules резолвит правила: явный файл важнее версии из каталога.
func (gf *gameFile) rules(baseDir, rulesetsDir string) (*models.ScoringRuleSet, error) {
	if gf.RuleSetFile != "" {
		path := gf.RuleSetFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return rulesets.Decode(f)
	}

	catalog, err := rulesets.LoadDir(rulesetsDir)
	if err != nil {
		return nil, err
	}
	if gf.RuleSetVersion == 0 {
		return catalog.Latest()
	}
	return catalog.Get(gf.RuleSetVersion)
}
