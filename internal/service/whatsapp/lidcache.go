package whatsapp

import (
	"context"
	"log"
	"sync"
)

// lidCache memoizes LID → phone-number JID resolutions. A miss is not an
// error: the caller proceeds with the unresolved LID, degraded.
type lidCache struct {
	mu       sync.RWMutex
	resolved map[string]string
}

func newLIDCache() *lidCache {
	return &lidCache{resolved: make(map[string]string)}
}

// resolve returns the stable JID for addr. Non-LID addresses pass through
// untouched. Resolution failures fall back to the LID itself with a
// degraded-resolution warning.
func (c *lidCache) resolve(ctx context.Context, conn Conn, addr string) string {
	if !isLIDJID(addr) {
		return addr
	}

	c.mu.RLock()
	jid, ok := c.resolved[addr]
	c.mu.RUnlock()
	if ok {
		return jid
	}

	jid, err := conn.ResolveLID(ctx, addr)
	if err != nil || jid == "" {
		log.Printf("[gateway] unresolved LID %s, proceeding with indirect identifier: %v", addr, err)
		return addr
	}

	c.mu.Lock()
	c.resolved[addr] = jid
	c.mu.Unlock()
	return jid
}
