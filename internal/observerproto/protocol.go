package observerproto

import "boomtrees.dev/internal/sim/world/audit"

// Version is the observer feed protocol version.
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeAudit     = "AUDIT"
)

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to change the filter.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Actions filters the feed by audit action; empty means all.
	Actions []string `json:"actions,omitempty"`
	// Replay asks for up to this many recent entries before live ones.
	Replay int `json:"replay,omitempty"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string   `json:"protocol_version"`
	Tick            uint64   `json:"tick"`
	Seed            int64    `json:"seed"`
	BlockPalette    []string `json:"block_palette"`
	PaletteDigest   string   `json:"palette_digest"`
	Biomes          []string `json:"biomes"`
}

// Server -> Client. One per audit entry.
type AuditMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Entry           audit.Entry `json:"entry"`
}

// HTTP response for GET /v1/observer/chunk?cx=&cz=. Blocks holds the palette
// ids of the chunk, x fastest then z then y, run-length encoded.
type ChunkMsg struct {
	ProtocolVersion string `json:"protocol_version"`
	CX              int    `json:"cx"`
	CZ              int    `json:"cz"`
	Height          int    `json:"height"`
	Blocks          string `json:"blocks"`
	Digest          string `json:"digest"`
}
