package updater

import (
	"strings"
	"time"

	"ddnsup/internal/state"
)

// Address is an IP address as handed over by the caller. The zero value is
// an absent address, which differs from every present one, including "".
type Address struct {
	value string
	set   bool
}

// NoAddress is the absent address
var NoAddress = Address{}

// AddressOf returns a present address
func AddressOf(s string) Address {
	return Address{value: s, set: true}
}

// Value returns the address text and whether it is present
func (a Address) Value() (string, bool) {
	return a.value, a.set
}

func (a Address) String() string {
	if !a.set {
		return "<none>"
	}
	return a.value
}

// Reason names one condition that calls for an update
type Reason string

const (
	ReasonAddressChanged Reason = "address_changed"
	ReasonStale          Reason = "stale"
	ReasonForced         Reason = "forced"
)

// Input holds everything the decision looks at
type Input struct {
	OldAddress  Address
	NewAddress  Address
	Force       bool
	MaxInterval time.Duration
	LastUpdate  state.UpdateState
	Now         time.Time
}

// Decision is the result of Evaluate
type Decision struct {
	Update  bool
	Reasons []Reason

	// Elapsed is the time since the last recorded update, negative under clock skew
	Elapsed time.Duration
}

func (d Decision) String() string {
	if !d.Update {
		return "skip"
	}
	reasons := make([]string, len(d.Reasons))
	for i, r := range d.Reasons {
		reasons[i] = string(r)
	}
	return "update (" + strings.Join(reasons, ", ") + ")"
}

// Evaluate decides whether the provider should be called. The address
// comparison is literal, so differently written forms of one IPv6 address
// count as a change.
func Evaluate(in Input) Decision {
	var d Decision

	if in.OldAddress != in.NewAddress {
		d.Reasons = append(d.Reasons, ReasonAddressChanged)
	}

	now := state.FromTime(in.Now).LastUpdateEpochSeconds
	elapsed := now - in.LastUpdate.LastUpdateEpochSeconds
	d.Elapsed = time.Duration(elapsed * float64(time.Second))
	if elapsed >= in.MaxInterval.Seconds() {
		d.Reasons = append(d.Reasons, ReasonStale)
	}

	if in.Force {
		d.Reasons = append(d.Reasons, ReasonForced)
	}

	d.Update = len(d.Reasons) > 0
	return d
}

// ShouldUpdate reports whether Evaluate calls for an update
func ShouldUpdate(in Input) bool {
	return Evaluate(in).Update
}
