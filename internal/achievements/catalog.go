package achievements

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Category groups achievements that are fed by the same game event
type Category string

const (
	CategoryScore      Category = "score"
	CategoryStreak     Category = "streak"
	CategoryLevel      Category = "level"
	CategoryMode       Category = "mode"
	CategorySpeed      Category = "speed"
	CategorySpecial    Category = "special"
	CategoryCollection Category = "collection"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryScore, CategoryStreak, CategoryLevel, CategoryMode,
	CategorySpeed, CategorySpecial, CategoryCollection,
}

// HighWaterMark reports whether progress in this category keeps the maximum
// observed value instead of summing increments.
func (c Category) HighWaterMark() bool {
	return c == CategoryScore || c == CategoryLevel
}

func (c Category) valid() bool {
	return lo.Contains(Categories, c)
}

// Well-known ids that the event handlers refer to directly
const (
	IDPerfectGame   = "perfect_game"
	IDNightOwl      = "night_owl"
	IDEarlyBird     = "early_bird"
	IDCompletionist = "completionist"
)

// DeriveCatalogSize sets a requirement to the number of other catalog entries
const DeriveCatalogSize = "catalog_size"

// Reward is paid out once when an achievement unlocks
type Reward struct {
	Coins int64 `yaml:"coins" json:"coins"`
	XP    int   `yaml:"xp" json:"xp"`
}

// Definition defines a single achievement
type Definition struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Icon        string   `yaml:"icon"`
	Category    Category `yaml:"category"`
	Requirement float64  `yaml:"requirement"`
	Reward      Reward   `yaml:"reward"`
	Mode        string   `yaml:"mode,omitempty"`   // game mode counted by a mode achievement
	Secret      bool     `yaml:"secret,omitempty"` // Hidden until unlocked
	Derive      string   `yaml:"derive,omitempty"`
}

// Target is the progress value at which the achievement unlocks. Speed
// achievements store a round time limit as their requirement and unlock on
// the first qualifying round.
func (d Definition) Target() float64 {
	if d.Category == CategorySpeed {
		return 1
	}
	return d.Requirement
}

// Catalog is the immutable, ordered set of achievement definitions
type Catalog struct {
	defs  []Definition
	index map[string]int
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() *Catalog {
	catalog, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in achievement catalog is invalid: %v", err))
	}
	return catalog
}

// ParseCatalog reads a catalog document. Derived requirements are resolved
// only after every entry has been registered.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Achievements []Definition `yaml:"achievements"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing achievement catalog: %w", err)
	}
	return NewCatalog(doc.Achievements)
}

// NewCatalog validates defs and resolves derived requirements
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}

	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("achievement %q: missing id", def.Name)
		}
		if _, dup := c.index[def.ID]; dup {
			return nil, fmt.Errorf("achievement %q: duplicate id", def.ID)
		}
		if !def.Category.valid() {
			return nil, fmt.Errorf("achievement %q: unknown category %q", def.ID, def.Category)
		}
		if def.Derive != "" && def.Derive != DeriveCatalogSize {
			return nil, fmt.Errorf("achievement %q: unknown derivation %q", def.ID, def.Derive)
		}
		if def.Derive == "" && def.Requirement <= 0 {
			return nil, fmt.Errorf("achievement %q: requirement must be positive", def.ID)
		}
		c.index[def.ID] = len(c.defs)
		c.defs = append(c.defs, def)
	}

	// The full catalog is known only now
	for i := range c.defs {
		if c.defs[i].Derive == DeriveCatalogSize {
			c.defs[i].Requirement = float64(len(c.defs) - 1)
		}
	}

	return c, nil
}

// Len returns the number of definitions
func (c *Catalog) Len() int {
	return len(c.defs)
}

// All returns every definition in catalog order
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Get returns the definition with the given id
func (c *Catalog) Get(id string) (Definition, bool) {
	i, ok := c.index[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// ByCategory returns the definitions of a category in catalog order
func (c *Catalog) ByCategory(category Category) []Definition {
	return lo.Filter(c.defs, func(def Definition, _ int) bool {
		return def.Category == category
	})
}

// speedTiers returns speed achievements fastest first
func (c *Catalog) speedTiers() []Definition {
	tiers := c.ByCategory(CategorySpeed)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Requirement < tiers[j].Requirement
	})
	return tiers
}
