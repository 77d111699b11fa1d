package observer

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"boomtrees.dev/internal/observerproto"
	"boomtrees.dev/internal/sim/world/audit"
)

const defaultRecent = 1024

type client struct {
	out     chan []byte
	actions map[string]bool // nil = all
}

func (c *client) wants(action string) bool {
	return c.actions == nil || c.actions[action]
}

// Hub fans audit entries out to observer sessions. It is an audit.Sink and
// never blocks the caller: a session whose queue is full misses the entry.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	recent  []observerproto.AuditMsg
	max     int

	dropped atomic.Uint64
}

func NewHub(recent int) *Hub {
	if recent <= 0 {
		recent = defaultRecent
	}
	return &Hub{clients: map[string]*client{}, max: recent}
}

func (h *Hub) WriteAudit(e audit.Entry) error {
	msg := observerproto.AuditMsg{
		Type:            observerproto.TypeAudit,
		ProtocolVersion: observerproto.Version,
		Entry:           e,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, msg)
	if len(h.recent) > h.max {
		h.recent = h.recent[len(h.recent)-h.max:]
	}
	for _, c := range h.clients {
		if !c.wants(e.Action) {
			continue
		}
		select {
		case c.out <- b:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// join registers a session and queues up to replay recent entries that pass
// its filter.
func (h *Hub) join(id string, out chan []byte, sub observerproto.SubscribeMsg) {
	c := &client{out: out, actions: actionSet(sub.Actions)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = c
	if sub.Replay <= 0 {
		return
	}
	var backlog []observerproto.AuditMsg
	for i := len(h.recent) - 1; i >= 0 && len(backlog) < sub.Replay; i-- {
		if c.wants(h.recent[i].Entry.Action) {
			backlog = append(backlog, h.recent[i])
		}
	}
	for i := len(backlog) - 1; i >= 0; i-- {
		b, _ := json.Marshal(backlog[i])
		select {
		case out <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) resubscribe(id string, sub observerproto.SubscribeMsg) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		c.actions = actionSet(sub.Actions)
	}
}

func (h *Hub) leave(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func actionSet(actions []string) map[string]bool {
	if len(actions) == 0 {
		return nil
	}
	m := make(map[string]bool, len(actions))
	for _, a := range actions {
		m[a] = true
	}
	return m
}
