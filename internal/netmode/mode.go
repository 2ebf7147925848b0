// Package netmode decides, per resolution pass, whether commands should be
// sent over the LAN-local transport or the cloud relay. The policy is
// local-first: LAN wins whenever it is viable, OFFLINE is a terminal fallback
// that is never silently upgraded without another resolution pass.
package netmode

// Mode is the resolved transport choice for the current session. It is never
// persisted; callers recompute it on demand and treat transitions as the only
// way it changes.
type Mode string

const (
	ModeLocal   Mode = "local"
	ModeCloud   Mode = "cloud"
	ModeOffline Mode = "offline"
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == "" {
		return string(ModeOffline)
	}
	return string(m)
}
