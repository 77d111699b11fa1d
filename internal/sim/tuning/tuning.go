package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	World    World    `yaml:"world" json:"world"`
	Boom     Boom     `yaml:"boom" json:"boom"`
	WorldGen WorldGen `yaml:"worldgen" json:"worldgen"`
}

type World struct {
	Seed            int64 `yaml:"seed" json:"seed"`
	Height          int   `yaml:"height" json:"height"`
	SeaLevel        int   `yaml:"sea_level" json:"sea_level"`
	BoundaryR       int   `yaml:"boundary_r" json:"boundary_r"`
	BiomeRegionSize int   `yaml:"biome_region_size" json:"biome_region_size"`
}

// Boom.MaxChain caps detonations per sweep; 0 means unbounded.
type Boom struct {
	BlastRadius float64 `yaml:"blast_radius" json:"blast_radius"`
	MaxChain    int     `yaml:"max_chain" json:"max_chain"`
}

type WorldGen struct {
	// FungusBudget is the per-chunk fungus count shared between the vanilla
	// and the boom variant in nether forests.
	FungusBudget int       `yaml:"fungus_budget" json:"fungus_budget"`
	Oak          OakGen    `yaml:"oak" json:"oak"`
	Crimson      FungusGen `yaml:"crimson" json:"crimson"`
	Warped       FungusGen `yaml:"warped" json:"warped"`
}

// OakGen places one tree every Rarity chunks.
type OakGen struct {
	Spawn  bool `yaml:"spawn" json:"spawn"`
	Rarity int  `yaml:"rarity" json:"rarity"`
}

type FungusGen struct {
	Spawn bool    `yaml:"spawn" json:"spawn"`
	Ratio float64 `yaml:"ratio" json:"ratio"`
}

func Defaults() Tuning {
	return Tuning{
		World: World{
			Seed:            1337,
			Height:          64,
			SeaLevel:        32,
			BiomeRegionSize: 48,
		},
		Boom: Boom{
			BlastRadius: 2.0,
		},
		WorldGen: WorldGen{
			FungusBudget: 8,
			Oak:          OakGen{Spawn: true, Rarity: 8},
			Crimson:      FungusGen{Spawn: true, Ratio: 0.5},
			Warped:       FungusGen{Spawn: true, Ratio: 0.5},
		},
	}
}

// Load reads a tuning file on top of Defaults. Keys missing from the file
// keep their default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.World.Height <= 0 {
		return errors.New("world.height must be positive")
	}
	if t.World.SeaLevel <= 0 || t.World.SeaLevel >= t.World.Height {
		return errors.New("world.sea_level must be inside (0, height)")
	}
	if t.World.BoundaryR < 0 {
		return errors.New("world.boundary_r cannot be negative")
	}
	if t.Boom.BlastRadius < 0 {
		return errors.New("boom.blast_radius cannot be negative")
	}
	if t.Boom.MaxChain < 0 {
		return errors.New("boom.max_chain cannot be negative")
	}
	if t.WorldGen.FungusBudget < 0 {
		return errors.New("worldgen.fungus_budget cannot be negative")
	}
	if t.WorldGen.Oak.Rarity < 0 {
		return errors.New("worldgen.oak.rarity cannot be negative")
	}
	for name, r := range map[string]float64{"crimson": t.WorldGen.Crimson.Ratio, "warped": t.WorldGen.Warped.Ratio} {
		if r < 0 || r > 1 {
			return fmt.Errorf("worldgen.%s.ratio must be within [0, 1]", name)
		}
	}
	return nil
}
