package powerups

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// EffectKind names what a power-up does to a session
type EffectKind string

const (
	EffectAddTime         EffectKind = "add_time"
	EffectFreezeTime      EffectKind = "freeze_time"
	EffectMultiplyScore   EffectKind = "multiply_score"
	EffectBoostCombo      EffectKind = "boost_combo"
	EffectHighlightColors EffectKind = "highlight_colors"
	EffectSlowMotion      EffectKind = "slow_motion"
	EffectAddLife         EffectKind = "add_life"
	EffectSecondChance    EffectKind = "second_chance"
	EffectShield          EffectKind = "shield"
	EffectRainbowVision   EffectKind = "rainbow_vision"
	EffectAutoClick       EffectKind = "auto_click"
	EffectLuckyStreak     EffectKind = "lucky_streak"
)

var effectKinds = []EffectKind{
	EffectAddTime, EffectFreezeTime, EffectMultiplyScore, EffectBoostCombo,
	EffectHighlightColors, EffectSlowMotion, EffectAddLife, EffectSecondChance,
	EffectShield, EffectRainbowVision, EffectAutoClick, EffectLuckyStreak,
}

// Instant effects are applied once and never registered as active
func (k EffectKind) Instant() bool {
	return k == EffectAddTime || k == EffectAddLife
}

// Consumable effects last until their uses run out
func (k EffectKind) Consumable() bool {
	return k == EffectShield || k == EffectSecondChance || k == EffectLuckyStreak
}

// Hint effects are carried out by the presentation layer
func (k EffectKind) Hint() bool {
	return k == EffectHighlightColors || k == EffectRainbowVision ||
		k == EffectAutoClick || k == EffectSlowMotion
}

// Rarity is a cosmetic tier with no effect on gameplay
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

var rarities = []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}

// Definition describes a purchasable power-up
type Definition struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Icon        string        `yaml:"icon"`
	Cost        int64         `yaml:"cost"`
	Duration    time.Duration `yaml:"duration"`
	Effect      EffectKind    `yaml:"effect"`
	Value       float64       `yaml:"value"`
	Rarity      Rarity        `yaml:"rarity"`
}

// Uses returns how many times a consumable power-up can be used
func (d Definition) Uses() int {
	if !d.Effect.Consumable() {
		return 0
	}
	return int(d.Value)
}

// Catalog is the immutable set of power-up definitions
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
		panic(fmt.Sprintf("built-in power-up catalog is invalid: %v", err))
	}
	return catalog
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		PowerUps []Definition `yaml:"powerups"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing power-up catalog: %w", err)
	}
	return NewCatalog(doc.PowerUps)
}

func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}

	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("power-up %q: missing id", def.Name)
		}
		if _, dup := c.index[def.ID]; dup {
			return nil, fmt.Errorf("power-up %q: duplicate id", def.ID)
		}
		if !lo.Contains(effectKinds, def.Effect) {
			return nil, fmt.Errorf("power-up %q: unknown effect %q", def.ID, def.Effect)
		}
		if def.Rarity == "" {
			def.Rarity = RarityCommon
		}
		if !lo.Contains(rarities, def.Rarity) {
			return nil, fmt.Errorf("power-up %q: unknown rarity %q", def.ID, def.Rarity)
		}
		if def.Cost < 0 {
			return nil, fmt.Errorf("power-up %q: negative cost", def.ID)
		}
		if def.Value <= 0 {
			return nil, fmt.Errorf("power-up %q: value must be positive", def.ID)
		}
		if def.Effect.Consumable() && (def.Value < 1 || def.Value != math.Trunc(def.Value)) {
			return nil, fmt.Errorf("power-up %q: %s needs a whole number of uses", def.ID, def.Effect)
		}

		switch {
		case def.Effect.Instant(), def.Effect.Consumable():
			if def.Duration != 0 {
				return nil, fmt.Errorf("power-up %q: %s takes no duration", def.ID, def.Effect)
			}
		case def.Duration <= 0:
			return nil, fmt.Errorf("power-up %q: %s needs a duration", def.ID, def.Effect)
		}

		c.index[def.ID] = len(c.defs)
		c.defs = append(c.defs, def)
	}

	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.defs)
}

func (c *Catalog) Get(id string) (Definition, bool) {
	i, ok := c.index[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// IDs returns every id in catalog order
func (c *Catalog) IDs() []string {
	return lo.Map(c.defs, func(def Definition, _ int) string { return def.ID })
}

// ByCost returns every definition, cheapest first
func (c *Catalog) ByCost() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cost < out[j].Cost
	})
	return out
}
