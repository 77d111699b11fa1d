package catalogs

import "fmt"

// Phases are the generation steps of a biome, in the order the generator runs them.
var Phases = []string{
	"raw_generation",
	"lakes",
	"local_modifications",
	"underground_structures",
	"surface_structures",
	"strongholds",
	"underground_ores",
	"underground_decoration",
	"vegetal_decoration",
	"top_layer_modification",
}

func knownPhase(name string) bool {
	for _, p := range Phases {
		if p == name {
			return true
		}
	}
	return false
}

type DecoratorDef struct {
	Type   string `json:"type"`
	Count  int    `json:"count,omitempty"`
	Chance int    `json:"chance,omitempty"`
}

type FeatureConfig struct {
	Trunk      string `json:"trunk,omitempty"`
	Leaves     string `json:"leaves,omitempty"`
	BaseHeight int    `json:"base_height,omitempty"`
	HeightRand int    `json:"height_rand,omitempty"`

	Stem      string `json:"stem,omitempty"`
	Hat       string `json:"hat,omitempty"`
	ValidBase string `json:"valid_base,omitempty"`

	// random_selector: configured feature placed when no weighted option hits.
	Default string `json:"default,omitempty"`
}

// FeatureDef describes a generation unit. Decorators are listed outermost
// first. Ref names an entry of configured_features whose feature, config and
// decorators are used underneath the decorators given here.
type FeatureDef struct {
	Ref        string         `json:"ref,omitempty"`
	Feature    string         `json:"feature,omitempty"`
	Name       string         `json:"name,omitempty"`
	Config     FeatureConfig  `json:"config,omitempty"`
	Decorators []DecoratorDef `json:"decorators,omitempty"`
}

type BiomeDef struct {
	Name     string                  `json:"name"`
	Surface  string                  `json:"surface"`
	Features map[string][]FeatureDef `json:"features"`
}

type biomesDoc struct {
	ConfiguredFeatures map[string]FeatureDef `json:"configured_features"`
	Biomes             []BiomeDef            `json:"biomes"`
}

type BiomeCatalog struct {
	Configured map[string]FeatureDef // refs resolved, Name filled in
	Biomes     []BiomeDef            // file order, refs resolved
	ByName     map[string]BiomeDef
	Digest     string
}

func (c *BiomeCatalog) build(doc biomesDoc, blocks *BlockCatalog) error {
	c.Configured = make(map[string]FeatureDef, len(doc.ConfiguredFeatures))
	for _, name := range sortedKeys(doc.ConfiguredFeatures) {
		def, err := resolveRef(doc.ConfiguredFeatures, name, doc.ConfiguredFeatures[name], 0)
		if err != nil {
			return err
		}
		if def.Name == "" {
			def.Name = name
		}
		if err := checkBlocks(def, blocks); err != nil {
			return fmt.Errorf("configured feature %s: %w", name, err)
		}
		c.Configured[name] = def
	}
	for name, def := range c.Configured {
		if d := def.Config.Default; d != "" {
			if _, ok := c.Configured[d]; !ok {
				return fmt.Errorf("configured feature %s: unknown default %q", name, d)
			}
		}
	}

	c.Biomes = make([]BiomeDef, 0, len(doc.Biomes))
	c.ByName = make(map[string]BiomeDef, len(doc.Biomes))
	for _, b := range doc.Biomes {
		if b.Name == "" {
			return fmt.Errorf("biome with empty name")
		}
		if _, dup := c.ByName[b.Name]; dup {
			return fmt.Errorf("duplicate biome %q", b.Name)
		}
		if _, ok := blocks.Index[b.Surface]; !ok && b.Surface != "" {
			return fmt.Errorf("biome %s: surface: %w %q%s", b.Name, ErrUnknownBlock, b.Surface, suggest(b.Surface, blocks.Palette))
		}
		resolved := BiomeDef{Name: b.Name, Surface: b.Surface, Features: map[string][]FeatureDef{}}
		for phase, list := range b.Features {
			if !knownPhase(phase) {
				return fmt.Errorf("biome %s: unknown phase %q", b.Name, phase)
			}
			out := make([]FeatureDef, 0, len(list))
			for i, def := range list {
				r, err := resolveRef(doc.ConfiguredFeatures, "", def, 0)
				if err != nil {
					return fmt.Errorf("biome %s %s[%d]: %w", b.Name, phase, i, err)
				}
				if err := checkBlocks(r, blocks); err != nil {
					return fmt.Errorf("biome %s %s[%d]: %w", b.Name, phase, i, err)
				}
				out = append(out, r)
			}
			resolved.Features[phase] = out
		}
		c.Biomes = append(c.Biomes, resolved)
		c.ByName[b.Name] = resolved
	}
	return nil
}

const maxRefDepth = 8

func resolveRef(pool map[string]FeatureDef, self string, def FeatureDef, depth int) (FeatureDef, error) {
	if def.Ref == "" {
		if def.Feature == "" {
			return def, fmt.Errorf("feature without type or ref")
		}
		return def, nil
	}
	if depth >= maxRefDepth || def.Ref == self {
		return def, fmt.Errorf("ref cycle at %q", def.Ref)
	}
	base, ok := pool[def.Ref]
	if !ok {
		return def, fmt.Errorf("unknown configured feature %q%s", def.Ref, suggest(def.Ref, sortedKeys(pool)))
	}
	inner, err := resolveRef(pool, self, base, depth+1)
	if err != nil {
		return def, err
	}
	out := inner
	out.Ref = ""
	if inner.Name == "" {
		out.Name = def.Ref
	}
	if def.Name != "" {
		out.Name = def.Name
	}
	out.Decorators = append(append([]DecoratorDef{}, def.Decorators...), inner.Decorators...)
	return out, nil
}

func checkBlocks(def FeatureDef, blocks *BlockCatalog) error {
	for _, id := range []string{def.Config.Trunk, def.Config.Leaves, def.Config.Stem, def.Config.Hat, def.Config.ValidBase} {
		if id == "" {
			continue
		}
		if _, ok := blocks.Index[id]; !ok {
			return fmt.Errorf("%w %q%s", ErrUnknownBlock, id, suggest(id, blocks.Palette))
		}
	}
	return nil
}
