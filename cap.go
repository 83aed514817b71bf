package main

// Capability names supported by this server.
//
// Grounded on other_examples/btnmasher-dircd's Capabilities struct, scoped
// down to the four IRCv3 capabilities this server negotiates.
const (
	CapMessageTags = "message-tags"
	CapServerTime  = "server-time"
	CapMessageIDs  = "message-ids"
	CapSASL        = "sasl"
)

// SupportedCapabilities lists every capability advertised in CAP LS, in a
// stable order.
var SupportedCapabilities = []string{
	CapMessageTags,
	CapServerTime,
	CapMessageIDs,
	CapSASL,
}

// Capabilities tracks which capabilities a single client has enabled via
// CAP REQ, and whether it is mid-negotiation (CAP LS/REQ seen, CAP END not
// yet received).
type Capabilities struct {
	Negotiating bool

	enabled map[string]bool
}

// NewCapabilities returns an empty capability set.
func NewCapabilities() *Capabilities {
	return &Capabilities{enabled: map[string]bool{}}
}

// IsSupported reports whether name is one this server understands.
func IsSupported(name string) bool {
	for _, c := range SupportedCapabilities {
		if c == name {
			return true
		}
	}
	return false
}

// Enable turns on a capability.
func (c *Capabilities) Enable(name string) { c.enabled[name] = true }

// Disable turns off a capability.
func (c *Capabilities) Disable(name string) { delete(c.enabled, name) }

// Has reports whether a capability is currently enabled.
func (c *Capabilities) Has(name string) bool { return c.enabled[name] }

// RequestResult is the outcome of processing a CAP REQ's space-separated
// capability list: which were acknowledged and which were rejected.
//
// Grounded on original_source/ircd/irc.py's request_capabilities, whose ACK
// reply always precedes its NAK reply when a request mixes known and
// unknown capabilities.
type RequestResult struct {
	Acked  []string
	Nacked []string
}

// Request processes the capability names requested in a single CAP REQ,
// enabling the supported ones and reporting the rest as rejected.
func (c *Capabilities) Request(names []string) RequestResult {
	var result RequestResult
	for _, name := range names {
		if IsSupported(name) {
			c.Enable(name)
			result.Acked = append(result.Acked, name)
			continue
		}
		result.Nacked = append(result.Nacked, name)
	}
	return result
}
