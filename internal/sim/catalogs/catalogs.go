package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Blocks BlockCatalog
	Loot   LootCatalog
	Biomes BiomeCatalog
}

// Load reads blocks.json, loot_tables.json and biomes.json from configDir.
// Every file is checked against its schema before it is decoded.
func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	if err := loadLoot(filepath.Join(configDir, "loot_tables.json"), &c.Loot); err != nil {
		return nil, err
	}
	if err := loadBiomes(filepath.Join(configDir, "biomes.json"), &c.Biomes, &c.Blocks); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validateDoc("blocks", raw); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	if err := BuildBlocks(defs, out); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.DefsDigest = sha256Hex(raw)
	return nil
}

func loadLoot(path string, out *LootCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// No loot file means every table rolls empty.
		if os.IsNotExist(err) {
			out.Tables = map[string]LootTable{}
			out.Digest = sha256Hex(nil)
			return nil
		}
		return err
	}
	if err := validateDoc("loot_tables", raw); err != nil {
		return fmt.Errorf("loot_tables.json: %w", err)
	}
	out.Tables = map[string]LootTable{}
	if err := json.Unmarshal(raw, &out.Tables); err != nil {
		return fmt.Errorf("loot_tables.json: %w", err)
	}
	out.Digest = sha256Hex(raw)
	return nil
}

func loadBiomes(path string, out *BiomeCatalog, blocks *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validateDoc("biomes", raw); err != nil {
		return fmt.Errorf("biomes.json: %w", err)
	}
	var doc biomesDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("biomes.json: %w", err)
	}
	if err := out.build(doc, blocks); err != nil {
		return fmt.Errorf("biomes.json: %w", err)
	}
	out.Digest = sha256Hex(raw)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
