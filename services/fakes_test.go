package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/fantasy-marathon/cache"
	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/records"
	"github.com/Dosada05/fantasy-marathon/repositories"
	"github.com/Dosada05/fantasy-marathon/rulesets"
	"github.com/Dosada05/fantasy-marathon/storage"
)

const (
	h2m05s00 = int64(2*3600+5*60) * 1000
	h2m05s45 = int64(2*3600+5*60+45) * 1000
	h2m20s00 = int64(2*3600+20*60) * 1000
)

type fakeGames struct {
	mu    sync.Mutex
	games map[int]*models.Game
}

func (f *fakeGames) Create(_ context.Context, g *models.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g.ID = len(f.games) + 1
	c := *g
	f.games[g.ID] = &c
	return nil
}

func (f *fakeGames) GetByID(_ context.Context, id int) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	c := *g
	return &c, nil
}

func (f *fakeGames) MarkFinalized(_ context.Context, _ repositories.SQLExecutor, id int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	g.FinalizedAt = &at
	return nil
}

type fakeResults struct {
	mu   sync.Mutex
	rows map[[2]int]models.AthleteResult
}

func (f *fakeResults) Upsert(_ context.Context, _ repositories.SQLExecutor, res *models.AthleteResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[[2]int{res.GameID, res.AthleteID}] = *res
	return nil
}

func (f *fakeResults) ListByGame(_ context.Context, gameID int) ([]models.AthleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AthleteResult, 0)
	for k, r := range f.rows {
		if k[0] == gameID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AthleteID < out[j].AthleteID })
	return out, nil
}

func (f *fakeResults) Get(_ context.Context, gameID, athleteID int) (*models.AthleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[[2]int{gameID, athleteID}]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	return &r, nil
}

type fakeRosters struct {
	mu      sync.Mutex
	rosters map[int]models.Rosters
}

func (f *fakeRosters) ListByGame(_ context.Context, gameID int) (models.Rosters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := models.Rosters{}
	for code, ids := range f.rosters[gameID] {
		out[code] = append([]int(nil), ids...)
	}
	return out, nil
}

func (f *fakeRosters) Replace(_ context.Context, gameID int, code string, ids []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rosters[gameID] == nil {
		f.rosters[gameID] = models.Rosters{}
	}
	f.rosters[gameID][code] = append([]int(nil), ids...)
	return nil
}

type fakeRecords struct {
	mu    sync.Mutex
	saved map[string]models.RaceRecord
	err   error
}

func (f *fakeRecords) ListByRace(_ context.Context, raceID int) ([]models.RaceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RaceRecord, 0)
	for _, r := range f.saved {
		if r.RaceID == raceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) ListAll(_ context.Context) ([]models.RaceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RaceRecord, 0, len(f.saved))
	for _, r := range f.saved {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRecords) Save(_ context.Context, _ repositories.SQLExecutor, rec *models.RaceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved[rec.ID] = *rec
	return nil
}

func (f *fakeRecords) SaveAll(_ context.Context, recs []models.RaceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, rec := range recs {
		f.saved[rec.ID] = rec
	}
	return nil
}

func (f *fakeRecords) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type event struct {
	gameID int
	kind   string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []event
}

func (f *fakeNotifier) Publish(gameID int, kind string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event{gameID, kind})
}

func (f *fakeNotifier) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[key] = buf.Bytes()
	f.mu.Unlock()
	return &storage.UploadResult{Key: key}, nil
}

func (f *fakeUploader) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeUploader) GetPublicURL(string) string { return "" }

func testRules() models.ScoringRuleSet {
	return models.ScoringRuleSet{
		Version:         1,
		PlacementPoints: []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
		TimeGapTiers: []models.TimeGapTier{
			{MaxGapMs: 60_000, Points: 5},
			{MaxGapMs: 120_000, Points: 3},
			{MaxGapMs: 300_000, Points: 1},
		},
		RecordBonuses: models.RecordBonuses{World: 15, Course: 5},
	}
}

// fixture wires every service against in-memory fakes. Game 1 runs on race 7.
type fixture struct {
	games     *fakeGames
	results   *fakeResults
	rosters   *fakeRosters
	recs      *fakeRecords
	notifier  *fakeNotifier
	uploader  *fakeUploader
	registry  *records.Registry
	cache     *cache.StandingsCache
	standings StandingsService
	resultSvc ResultService
	recordSvc RecordService
	gameSvc   GameService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog, err := rulesets.New(testRules())
	if err != nil {
		t.Fatalf("rulesets.New: %v", err)
	}
	c, err := cache.NewStandingsCache(cache.DefaultOptions())
	if err != nil {
		t.Fatalf("NewStandingsCache: %v", err)
	}

	f := &fixture{
		games:    &fakeGames{games: map[int]*models.Game{1: {ID: 1, RaceID: 7, Name: "Boston", RuleSetVersion: 1}}},
		results:  &fakeResults{rows: map[[2]int]models.AthleteResult{}},
		rosters:  &fakeRosters{rosters: map[int]models.Rosters{1: {"ALPHA": {1, 2, 3, 4, 5, 6}, "BRAVO": {2, 1, 3, 5, 4, 6}}}},
		recs:     &fakeRecords{saved: map[string]models.RaceRecord{}},
		notifier: &fakeNotifier{},
		uploader: &fakeUploader{objects: map[string][]byte{}},
		registry: records.NewRegistry(),
		cache:    c,
	}
	f.standings = NewStandingsService(f.games, f.results, f.rosters, f.registry, catalog, c,
		storage.NewSnapshotArchiver(f.uploader), f.notifier, logger)
	f.resultSvc = NewResultService(f.games, f.results, f.recs, f.registry, c, f.notifier, logger)
	f.recordSvc = NewRecordService(f.recs, f.registry, c, f.notifier, logger)
	f.gameSvc = NewGameService(f.games, f.rosters, catalog, c, logger)
	return f
}

func (f *fixture) put(t *testing.T, r models.AthleteResult) {
	t.Helper()
	r.GameID = 1
	if _, err := f.resultSvc.RecordResult(context.Background(), &r); err != nil {
		t.Fatalf("RecordResult(%d): %v", r.AthleteID, err)
	}
}

func finished(id int, g models.Gender, ms int64) models.AthleteResult {
	return models.AthleteResult{AthleteID: id, Gender: g, FinishTimeMs: models.Int64Ptr(ms), IsFinal: true}
}

func atHalf(id int, g models.Gender, ms int64) models.AthleteResult {
	r := models.AthleteResult{AthleteID: id, Gender: g}
	r.SetSplit(models.SplitHalf, models.Int64Ptr(ms))
	return r
}
