package catalogs

type LootCatalog struct {
	Tables map[string]LootTable
	Digest string
}

type LootTable struct {
	Rolls   int         `json:"rolls"`
	Entries []LootEntry `json:"entries"`
}

// LootEntry yields Min..Max of Item; an empty Item is a weighted "nothing".
type LootEntry struct {
	Item   string `json:"item,omitempty"`
	Weight int    `json:"weight"`
	Min    int    `json:"min"`
	Max    int    `json:"max"`
}

func (c *LootCatalog) Table(id string) (LootTable, bool) {
	if c == nil || id == "" {
		return LootTable{}, false
	}
	t, ok := c.Tables[id]
	return t, ok
}
