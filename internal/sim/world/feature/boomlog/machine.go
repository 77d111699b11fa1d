// Package boomlog drives explosive logs: detonation and its chain reaction
// through adjacent logs, bark stripping, and regrowth of stripped logs.
package boomlog

import (
	"context"
	"math/rand"

	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/world/audit"
	"boomtrees.dev/internal/sim/world/feature/loot"
	"boomtrees.dev/internal/sim/world/grid"
)

const DefaultBlastRadius = 2.0

type LootRoller interface {
	Roll(table string, ctx loot.Context, rng *rand.Rand) []grid.ItemStack
}

type Options struct {
	Drops       grid.Dropper
	Loot        LootRoller
	Rand        *rand.Rand
	BlastRadius float64 // 0 means DefaultBlastRadius
	MaxChain    int     // detonations per sweep, 0 means unbounded
	Audit       audit.Sink
}

// Machine holds no world state of its own; every call reads the grid afresh.
type Machine struct {
	grid   grid.Grid
	blocks *catalogs.BlockCatalog
	opts   Options
}

func New(g grid.Grid, blocks *catalogs.BlockCatalog, opts Options) *Machine {
	if opts.BlastRadius <= 0 {
		opts.BlastRadius = DefaultBlastRadius
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	return &Machine{grid: g, blocks: blocks, opts: opts}
}

func (m *Machine) explosive(c grid.Cell) (catalogs.BlockType, bool) {
	t, ok := m.blocks.Lookup(c.Block)
	if !ok || t.Kind != catalogs.KindExplosiveLog {
		return catalogs.BlockType{}, false
	}
	return t, true
}

func (m *Machine) intact(pos grid.Vec3i) bool {
	_, ok := m.explosive(m.grid.Cell(pos))
	return ok
}

// OnProjectileImpact detonates an intact log hit by a projectile. Replicas
// ignore the hit; the authoritative side reports the result.
func (m *Machine) OnProjectileImpact(pos grid.Vec3i) int {
	if !m.grid.IsServerAuthoritative() {
		return 0
	}
	return m.detonateAs(pos, "projectile")
}

// OnIgnite detonates an intact log set alight. igniter may be nil.
func (m *Machine) OnIgnite(pos grid.Vec3i, face grid.Direction, igniter *grid.Actor) int {
	actor := "fire"
	if igniter != nil && igniter.ID != "" {
		actor = igniter.ID
	}
	return m.detonateAs(pos, actor)
}

func (m *Machine) OnAttack(pos grid.Vec3i, player grid.Actor) int {
	return m.detonateAs(pos, player.ID)
}

// OnToolStrip strips an intact log without detonating it and pops the strip
// loot toward the player. It reports whether the tool acted on the block.
func (m *Machine) OnToolStrip(pos grid.Vec3i, player grid.Actor, tool grid.Tool) bool {
	if !tool.CanPerform(grid.ActionAxeStrip) {
		return false
	}
	cell := m.grid.Cell(pos)
	t, ok := m.explosive(cell)
	if !ok {
		return false
	}
	if m.grid.IsServerAuthoritative() {
		m.dropStripLoot(pos, cell, t, player, tool)
	}
	stripped := m.strippedCell(cell, t)
	m.grid.SetCell(pos, stripped)
	m.record(audit.ActionStrip, player.ID, pos, cell.Block, stripped.Block, tool.Item)
	return true
}

func (m *Machine) dropStripLoot(pos grid.Vec3i, cell grid.Cell, t catalogs.BlockType, player grid.Actor, tool grid.Tool) {
	if m.opts.Loot == nil || m.opts.Drops == nil {
		return
	}
	center := pos.Center()
	drops := m.opts.Loot.Roll(t.LootTable, loot.Context{
		Block:  cell,
		Origin: center,
		Tool:   &tool,
		Actor:  &player,
	}, m.opts.Rand)
	if len(drops) == 0 {
		return
	}
	v := player.Pos.Sub(center)
	face := grid.Nearest(v.X, v.Y, v.Z)
	for _, d := range drops {
		m.opts.Drops.EjectDrop(pos, face, d)
	}
}

// Detonate blasts the log at pos and every intact log connected to it.
// It returns the number of logs detonated.
func (m *Machine) Detonate(pos grid.Vec3i) int {
	n, _ := m.DetonateContext(context.Background(), pos)
	return n
}

// DetonateContext is Detonate with cancellation between detonations. Logs
// already detonated stay stripped when ctx ends the sweep.
func (m *Machine) DetonateContext(ctx context.Context, pos grid.Vec3i) (int, error) {
	return m.sweep(ctx, pos, "")
}

func (m *Machine) detonateAs(pos grid.Vec3i, actor string) int {
	n, _ := m.sweep(context.Background(), pos, actor)
	return n
}

// sweep is a depth-first flood over intact logs. A cell is stripped before
// its neighbors are queued, and re-checked when popped, so no cell is blasted
// twice even when reachable along several paths.
func (m *Machine) sweep(ctx context.Context, start grid.Vec3i, actor string) (int, error) {
	if !m.intact(start) {
		return 0, nil
	}
	n := 0
	stack := []grid.Vec3i{start}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		pos := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cell := m.grid.Cell(pos)
		t, ok := m.explosive(cell)
		if !ok {
			continue
		}
		m.grid.TriggerAreaEffect(pos.Center(), m.opts.BlastRadius, false)
		stripped := m.strippedCell(cell, t)
		m.grid.SetCell(pos, stripped)
		reason := "chain"
		if n == 0 {
			reason = "trigger"
		}
		m.record(audit.ActionDetonate, actor, pos, cell.Block, stripped.Block, reason)
		n++
		if m.opts.MaxChain > 0 && n >= m.opts.MaxChain {
			return n, nil
		}

		for i := len(grid.Directions) - 1; i >= 0; i-- {
			next := pos.Add(grid.Directions[i].Offset())
			if m.intact(next) {
				stack = append(stack, next)
			}
		}
	}
	return n, nil
}

func (m *Machine) strippedCell(c grid.Cell, t catalogs.BlockType) grid.Cell {
	s, ok := m.blocks.Paired(t)
	if !ok {
		// Registry build guarantees a pair for every explosive log.
		panic("boomlog: explosive log " + t.ID + " has no stripped form")
	}
	return grid.Cell{Block: s.ID, Axis: c.Axis}
}

// Flammability and FireSpreadSpeed feed the host's fire spread. Blocks
// without a catalog entry do not burn.
func (m *Machine) Flammability(c grid.Cell) int {
	t, ok := m.blocks.Lookup(c.Block)
	if !ok {
		return 0
	}
	return t.Flammability
}

func (m *Machine) FireSpreadSpeed(c grid.Cell) int {
	t, ok := m.blocks.Lookup(c.Block)
	if !ok {
		return 0
	}
	return t.FireSpreadSpeed
}

func (m *Machine) record(action, actor string, pos grid.Vec3i, from, to, reason string) {
	if m.opts.Audit == nil {
		return
	}
	_ = m.opts.Audit.WriteAudit(audit.Entry{
		Actor:  actor,
		Action: action,
		Pos:    pos.Array(),
		From:   from,
		To:     to,
		Reason: reason,
	})
}
