package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Dosada05/fantasy-marathon/models"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
)

type Status string

const (
	StatusHit   Status = "HIT"
	StatusMiss  Status = "MISS"
	StatusStale Status = "STALE"
)

const (
	DefaultLiveTTL     = 15 * time.Second
	DefaultFinalTTL    = 45 * time.Second
	DefaultStaleWindow = 60 * time.Second

	MinLiveTTL  = 10 * time.Second
	MaxLiveTTL  = 30 * time.Second
	MinFinalTTL = 30 * time.Second
	MaxFinalTTL = 60 * time.Second
)

var ErrInvalidOptions = errors.New("invalid cache options")

type Options struct {
	LiveTTL     time.Duration
	FinalTTL    time.Duration
	StaleWindow time.Duration
	// Now подменяется в тестах.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		LiveTTL:     DefaultLiveTTL,
		FinalTTL:    DefaultFinalTTL,
		StaleWindow: DefaultStaleWindow,
	}
}

func (o Options) Validate() error {
	if o.LiveTTL < MinLiveTTL || o.LiveTTL > MaxLiveTTL {
		return fmt.Errorf("%w: live ttl %s outside [%s, %s]", ErrInvalidOptions, o.LiveTTL, MinLiveTTL, MaxLiveTTL)
	}
	if o.FinalTTL < MinFinalTTL || o.FinalTTL > MaxFinalTTL {
		return fmt.Errorf("%w: final ttl %s outside [%s, %s]", ErrInvalidOptions, o.FinalTTL, MinFinalTTL, MaxFinalTTL)
	}
	if o.StaleWindow < 0 {
		return fmt.Errorf("%w: negative stale window %s", ErrInvalidOptions, o.StaleWindow)
	}
	return nil
}

// Value is one computed leaderboard. It is shared between readers and must not be mutated.
type Value struct {
	Standings  *models.StandingsResponse
	Breakdowns map[int]models.ScoreBreakdown
}

func (v *Value) temporary() bool {
	return v.Standings == nil || v.Standings.IsTemporary
}

type key struct {
	gameID int
	hash   string
}

type entry struct {
	value    *Value
	storedAt time.Time
	expires  time.Time
}

// StandingsCache keeps computed standings keyed by game and input content hash.
type StandingsCache struct {
	mu       sync.RWMutex
	entries  map[key]*entry
	lastGood map[int]*Value
	opts     Options
	group    singleflight.Group
	bg       sync.WaitGroup
}

func NewStandingsCache(opts Options) (*StandingsCache, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &StandingsCache{
		entries:  make(map[key]*entry),
		lastGood: make(map[int]*Value),
		opts:     opts,
	}, nil
}

func (c *StandingsCache) ttl(v *Value) time.Duration {
	if v.temporary() {
		return c.opts.LiveTTL
	}
	return c.opts.FinalTTL
}

// Get returns a cached value. Final entries past their TTL are still returned
// as STALE within the stale window; live entries are never served stale.
func (c *StandingsCache) Get(gameID int, hash string) (*Value, Status) {
	c.mu.RLock()
	e, ok := c.entries[key{gameID, hash}]
	c.mu.RUnlock()
	if !ok {
		return nil, StatusMiss
	}

	now := c.opts.Now()
	if now.Before(e.expires) {
		return e.value, StatusHit
	}
	if !e.value.temporary() && now.Before(e.expires.Add(c.opts.StaleWindow)) {
		return e.value, StatusStale
	}
	return nil, StatusMiss
}

// Put stores a value; the last writer wins. Older entries of the same game are dropped.
func (c *StandingsCache) Put(gameID int, hash string, v *Value) {
	if v == nil {
		return
	}
	now := c.opts.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.gameID == gameID && k.hash != hash {
			delete(c.entries, k)
		}
	}
	c.entries[key{gameID, hash}] = &entry{value: v, storedAt: now, expires: now.Add(c.ttl(v))}
	c.lastGood[gameID] = v
}

// Invalidate drops every entry of a game. The last known good value is kept.
func (c *StandingsCache) Invalidate(gameID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.gameID == gameID {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll is used when a rule set changes.
func (c *StandingsCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]*entry)
}

func (c *StandingsCache) LastKnownGood(gameID int) (*Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.lastGood[gameID]
	return v, ok
}

// ComputeFunc builds a fresh value for a cache miss.
type ComputeFunc func(ctx context.Context) (*Value, error)

// GetOrCompute serves from cache or computes once per key, collapsing concurrent
// callers. A stale final entry is returned immediately and refreshed in the background.
func (c *StandingsCache) GetOrCompute(ctx context.Context, gameID int, hash string, fn ComputeFunc) (*Value, Status, error) {
	v, status := c.Get(gameID, hash)
	switch status {
	case StatusHit:
		return v, status, nil
	case StatusStale:
		c.revalidate(ctx, gameID, hash, fn)
		return v, status, nil
	}

	res, err, _ := c.group.Do(flightKey(gameID, hash), func() (interface{}, error) {
		fresh, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(gameID, hash, fresh)
		return fresh, nil
	})
	if err != nil {
		return nil, StatusMiss, err
	}
	return res.(*Value), StatusMiss, nil
}

func (c *StandingsCache) revalidate(ctx context.Context, gameID int, hash string, fn ComputeFunc) {
	bgCtx := context.WithoutCancel(ctx)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		_, _, _ = c.group.Do(flightKey(gameID, hash), func() (interface{}, error) {
			fresh, err := fn(bgCtx)
			if err != nil {
				// старое значение остаётся до конца окна
				return nil, err
			}
			c.Put(gameID, hash, fresh)
			return fresh, nil
		})
	}()
}

// Wait blocks until background revalidations finish.
func (c *StandingsCache) Wait() {
	c.bg.Wait()
}

// CacheControl returns the Cache-Control header value for a response.
func (c *StandingsCache) CacheControl(isTemporary bool) string {
	if isTemporary {
		return "no-store, max-age=0"
	}
	return "public, max-age=" + strconv.Itoa(int(c.opts.FinalTTL.Seconds())) +
		", stale-while-revalidate=" + strconv.Itoa(int(c.opts.StaleWindow.Seconds()))
}

func flightKey(gameID int, hash string) string {
	return strconv.Itoa(gameID) + ":" + hash
}

// ContentInput is everything the standings of a game depend on.
type ContentInput struct {
	GameID         int
	RuleSetVersion int
	Results        []models.AthleteResult
	Rosters        models.Rosters
	Records        []models.RaceRecord
}

// ContentHash is a blake2b-256 digest over a canonical encoding of the input:
// ordering of results, rosters and records does not change the hash.
func ContentHash(in ContentInput) string {
	h, _ := blake2b.New256(nil)

	fmt.Fprintf(h, "game:%d\nrules:%d\n", in.GameID, in.RuleSetVersion)

	results := make([]models.AthleteResult, len(in.Results))
	copy(results, in.Results)
	sort.Slice(results, func(i, j int) bool { return results[i].AthleteID < results[j].AthleteID })
	for _, r := range results {
		fmt.Fprintf(h, "r:%d:%s:%t:%t:%t", r.AthleteID, r.Gender, r.IsFinal, r.DNS, r.DNF)
		writeMs(h, r.FinishTimeMs)
		for _, label := range models.SplitOrder {
			writeMs(h, r.SplitTime(label))
		}
		h.Write([]byte{'\n'})
	}

	codes := make([]string, 0, len(in.Rosters))
	for code := range in.Rosters {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(h, "t:%q:%v\n", code, in.Rosters[code])
	}

	recs := make([]models.RaceRecord, len(in.Records))
	copy(recs, in.Records)
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	for _, rec := range recs {
		fmt.Fprintf(h, "rec:%s:%d:%s:%s:%d:%s\n", rec.ID, rec.RaceID, rec.Gender, rec.RecordType, rec.TimeMs, rec.State)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeMs(h hash.Hash, ms *int64) {
	if ms == nil {
		h.Write([]byte(":-"))
		return
	}
	fmt.Fprintf(h, ":%d", *ms)
}
