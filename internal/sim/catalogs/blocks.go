package catalogs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
)

var (
	ErrUnknownBlock = errors.New("unknown block")
	ErrPairMismatch = errors.New("log pair mismatch")
)

type BlockKind string

// MaxAge bounds a stripped log's max_age so that max_age+1 still fits the
// uint16 age kept by chunk storage.
const MaxAge = 1<<16 - 2

const (
	KindAir          BlockKind = "AIR"
	KindSolid        BlockKind = "SOLID"
	KindPillar       BlockKind = "PILLAR"
	KindExplosiveLog BlockKind = "EXPLOSIVE_LOG"
	KindStrippedLog  BlockKind = "STRIPPED_LOG"
	KindFire         BlockKind = "FIRE"
)

// BlockDef is one entry of blocks.json.
type BlockDef struct {
	ID              string    `json:"id"`
	Kind            BlockKind `json:"kind"`
	Solid           bool      `json:"solid"`
	Stripped        string    `json:"stripped,omitempty"`     // EXPLOSIVE_LOG only
	RegrowsInto     string    `json:"regrows_into,omitempty"` // STRIPPED_LOG only
	Flammability    int       `json:"flammability,omitempty"`
	FireSpreadSpeed int       `json:"fire_spread_speed,omitempty"`
	LootTable       string    `json:"loot_table,omitempty"`
	MaxAge          int       `json:"max_age,omitempty"`
}

// BlockType is the resolved, immutable form of a BlockDef. Pair is the
// palette index of the stripped form (explosive logs) or of the regrown form
// (stripped logs), and -1 for everything else.
type BlockType struct {
	ID              string
	Index           uint16
	Kind            BlockKind
	Solid           bool
	Flammability    int
	FireSpreadSpeed int
	LootTable       string
	MaxAge          int
	Pair            int
}

func (t BlockType) Pillar() bool {
	switch t.Kind {
	case KindPillar, KindExplosiveLog, KindStrippedLog:
		return true
	}
	return false
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Types         []BlockType // indexed by palette id
	PaletteDigest string
	DefsDigest    string
}

// BuildBlocks registers every definition first and only then resolves the
// explosive/stripped cross references, so defs may appear in any order.
func BuildBlocks(defs []BlockDef, out *BlockCatalog) error {
	byID := make(map[string]BlockDef, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("empty id")
		}
		if _, dup := byID[d.ID]; dup {
			return fmt.Errorf("duplicate id %q", d.ID)
		}
		byID[d.ID] = d
	}
	if _, ok := byID["AIR"]; !ok {
		return fmt.Errorf("missing AIR")
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		if id != "AIR" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	ids = append([]string{"AIR"}, ids...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	out.Types = make([]BlockType, len(ids))
	for i, id := range ids {
		d := byID[id]
		out.Index[id] = uint16(i)
		out.Types[i] = BlockType{
			ID:              id,
			Index:           uint16(i),
			Kind:            d.Kind,
			Solid:           d.Solid,
			Flammability:    d.Flammability,
			FireSpreadSpeed: d.FireSpreadSpeed,
			LootTable:       d.LootTable,
			MaxAge:          d.MaxAge,
			Pair:            -1,
		}
	}

	for i, id := range ids {
		d := byID[id]
		var ref string
		var want BlockKind
		switch d.Kind {
		case KindExplosiveLog:
			ref, want = d.Stripped, KindStrippedLog
		case KindStrippedLog:
			ref, want = d.RegrowsInto, KindExplosiveLog
			if d.MaxAge < 0 {
				return fmt.Errorf("%s: negative max_age", id)
			}
			if d.MaxAge > MaxAge {
				return fmt.Errorf("%s: max_age %d above %d", id, d.MaxAge, MaxAge)
			}
		default:
			continue
		}
		j, ok := out.Index[ref]
		if !ok {
			return fmt.Errorf("%s: %w %q%s", id, ErrUnknownBlock, ref, suggest(ref, ids))
		}
		if out.Types[j].Kind != want {
			return fmt.Errorf("%s: %w: %s is %s, want %s", id, ErrPairMismatch, ref, out.Types[j].Kind, want)
		}
		out.Types[i].Pair = int(j)
	}

	for i, t := range out.Types {
		if t.Pair < 0 {
			continue
		}
		if back := out.Types[t.Pair].Pair; back != i {
			other := "<none>"
			if back >= 0 {
				other = out.Types[back].ID
			}
			return fmt.Errorf("%s: %w: %s points back to %s", t.ID, ErrPairMismatch, out.Types[t.Pair].ID, other)
		}
	}

	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func suggest(id string, known []string) string {
	best, bestDist := "", 4
	for _, k := range known {
		if d := levenshtein.ComputeDistance(id, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

func (c *BlockCatalog) Lookup(id string) (BlockType, bool) {
	i, ok := c.Index[id]
	if !ok {
		return BlockType{}, false
	}
	return c.Types[i], true
}

// Paired returns the other half of an explosive/stripped pair.
func (c *BlockCatalog) Paired(t BlockType) (BlockType, bool) {
	if t.Pair < 0 || t.Pair >= len(c.Types) {
		return BlockType{}, false
	}
	return c.Types[t.Pair], true
}

func (c *BlockCatalog) kindOf(id string) BlockKind {
	t, ok := c.Lookup(id)
	if !ok {
		return ""
	}
	return t.Kind
}

func (c *BlockCatalog) IsExplosive(id string) bool { return c.kindOf(id) == KindExplosiveLog }
func (c *BlockCatalog) IsStripped(id string) bool  { return c.kindOf(id) == KindStrippedLog }
func (c *BlockCatalog) IsFire(id string) bool      { return c.kindOf(id) == KindFire }

func (c *BlockCatalog) IsAir(id string) bool {
	return id == "" || c.kindOf(id) == KindAir
}
