package types

// Scope distinguishes addresses generated for external payments (shared
// with counterparties) from internal addresses used for a wallet's own
// change outputs.
type Scope uint8

const (
	// External scope is used for addresses handed out to counterparties.
	External Scope = iota
	// Internal scope is used for a wallet's own change addresses.
	Internal
)

func (s Scope) String() string {
	if s == Internal {
		return "internal"
	}
	return "external"
}
