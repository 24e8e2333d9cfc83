package rulesets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Dosada05/fantasy-marathon/models"
	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound         = errors.New("rule set version not found")
	ErrDuplicateVersion = errors.New("duplicate rule set version")
)

// Catalog is an immutable set of rule-set versions. Games pin a version,
// so adding a new file never changes scores of past games.
type Catalog struct {
	byVersion map[int]models.ScoringRuleSet
	versions  []int
}

// New builds a catalog from already decoded rule sets.
func New(sets ...models.ScoringRuleSet) (*Catalog, error) {
	c := &Catalog{byVersion: make(map[int]models.ScoringRuleSet, len(sets))}
	for _, rs := range sets {
		if err := rs.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.byVersion[rs.Version]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateVersion, rs.Version)
		}
		c.byVersion[rs.Version] = clone(rs)
		c.versions = append(c.versions, rs.Version)
	}
	sort.Ints(c.versions)
	return c, nil
}

// LoadDir reads every *.yaml / *.yml file of dir. Each file holds one rule set.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rule sets dir %s: %w", dir, err)
	}

	var sets []models.ScoringRuleSet
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rule set %s: %w", path, err)
		}
		rs, err := Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("rule set %s: %w", path, err)
		}
		sets = append(sets, *rs)
	}
	return New(sets...)
}

// Decode parses one YAML rule set and validates it. Unknown keys are rejected.
func Decode(r io.Reader) (*models.ScoringRuleSet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var rs models.ScoringRuleSet
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Get returns a private copy of the requested version.
func (c *Catalog) Get(version int) (*models.ScoringRuleSet, error) {
	rs, ok := c.byVersion[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, version)
	}
	out := clone(rs)
	return &out, nil
}

// Latest returns the highest version, used for new games.
func (c *Catalog) Latest() (*models.ScoringRuleSet, error) {
	if len(c.versions) == 0 {
		return nil, ErrNotFound
	}
	return c.Get(c.versions[len(c.versions)-1])
}

func (c *Catalog) Versions() []int {
	out := make([]int, len(c.versions))
	copy(out, c.versions)
	return out
}

func clone(rs models.ScoringRuleSet) models.ScoringRuleSet {
	out := rs
	out.PlacementPoints = append([]int(nil), rs.PlacementPoints...)
	out.TimeGapTiers = append([]models.TimeGapTier(nil), rs.TimeGapTiers...)
	if rs.FatigueFactors != nil {
		out.FatigueFactors = make(map[models.SplitLabel]float64, len(rs.FatigueFactors))
		for k, v := range rs.FatigueFactors {
			out.FatigueFactors[k] = v
		}
	}
	return out
}
