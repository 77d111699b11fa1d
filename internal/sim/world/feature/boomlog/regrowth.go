package boomlog

import (
	"boomtrees.dev/internal/sim/catalogs"
	"boomtrees.dev/internal/sim/world/audit"
	"boomtrees.dev/internal/sim/world/grid"
)

// NeedsRandomTicks reports whether the host should schedule ticks for c.
func (m *Machine) NeedsRandomTicks(c grid.Cell) bool {
	return m.blocks.IsStripped(c.Block)
}

// OnTick ages a stripped log by one step, regrowing it into its explosive
// form once the age passes MaxAge. Adjacent fire holds the log in place.
// It reports whether the cell was written.
func (m *Machine) OnTick(pos grid.Vec3i) bool {
	cell := m.grid.Cell(pos)
	t, ok := m.blocks.Lookup(cell.Block)
	if !ok || t.Kind != catalogs.KindStrippedLog {
		return false
	}
	for _, d := range grid.Directions {
		if m.blocks.IsFire(m.grid.Cell(pos.Add(d.Offset())).Block) {
			return false
		}
	}

	age := cell.Age + 1
	if age <= t.MaxAge {
		m.grid.SetCell(pos, grid.Cell{Block: cell.Block, Axis: cell.Axis, Age: age})
		return true
	}
	regrown, ok := m.blocks.Paired(t)
	if !ok {
		return false
	}
	m.grid.SetCell(pos, grid.Cell{Block: regrown.ID, Axis: cell.Axis})
	m.record(audit.ActionRegrow, "", pos, cell.Block, regrown.ID, "")
	return true
}
