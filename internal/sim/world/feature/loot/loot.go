package loot

import (
	"math/rand"

	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/world/grid"
)

// Context describes the block being harvested.
type Context struct {
	Block  grid.Cell
	Origin grid.Vec3
	Tool   *grid.Tool
	Actor  *grid.Actor
}

type Roller struct {
	Tables *catalogs.LootCatalog
}

func NewRoller(c *catalogs.LootCatalog) *Roller {
	return &Roller{Tables: c}
}

// Roll draws from table. Unknown or empty tables yield no drops.
func (r *Roller) Roll(table string, ctx Context, rng *rand.Rand) []grid.ItemStack {
	if r == nil || rng == nil {
		return nil
	}
	t, ok := r.Tables.Table(table)
	if !ok || t.Rolls <= 0 || len(t.Entries) == 0 {
		return nil
	}
	total := 0
	for _, e := range t.Entries {
		if e.Weight > 0 {
			total += e.Weight
		}
	}
	if total == 0 {
		return nil
	}

	var out []grid.ItemStack
	for i := 0; i < t.Rolls; i++ {
		pick := rng.Intn(total)
		for _, e := range t.Entries {
			if e.Weight <= 0 {
				continue
			}
			if pick >= e.Weight {
				pick -= e.Weight
				continue
			}
			n := e.Min
			if e.Max > e.Min {
				n += rng.Intn(e.Max - e.Min + 1)
			}
			if e.Item != "" && n > 0 {
				out = appendStack(out, grid.ItemStack{Item: e.Item, Count: n})
			}
			break
		}
	}
	return out
}

func appendStack(out []grid.ItemStack, s grid.ItemStack) []grid.ItemStack {
	for i := range out {
		if out[i].Item == s.Item {
			out[i].Count += s.Count
			return out
		}
	}
	return append(out, s)
}
