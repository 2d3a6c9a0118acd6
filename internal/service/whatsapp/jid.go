package whatsapp

import "strings"

const (
	suffixGroup     = "@g.us"
	suffixLID       = "@lid"
	broadcastStatus = "status@broadcast"
)

func trimSpace(s string) string { return strings.TrimSpace(s) }

// isGroupJID reports whether jid addresses a group chat.
func isGroupJID(jid string) bool { return strings.HasSuffix(jid, suffixGroup) }

// isLIDJID reports whether jid uses the privacy-preserving LID scheme.
func isLIDJID(jid string) bool { return strings.HasSuffix(jid, suffixLID) }

// isBroadcastJID reports whether jid is the status/broadcast channel
// rather than a real participant.
func isBroadcastJID(jid string) bool {
	return jid == broadcastStatus || strings.HasSuffix(jid, "@broadcast")
}
