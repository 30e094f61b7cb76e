package entity

// Exchanger identifies a supported centralized exchange.
type Exchanger string

const ExchangerKraken Exchanger = "KRAKEN"

// Exchangers returns the closed set of supported exchangers.
func Exchangers() []Exchanger {
	return []Exchanger{ExchangerKraken}
}

// ParseExchanger converts an identifier into an Exchanger.
func ParseExchanger(name string) (Exchanger, bool) {
	x := Exchanger(name)
	for _, known := range Exchangers() {
		if x == known {
			return x, true
		}
	}
	return "", false
}

// ExchangerProfile pairs an exchanger with the opaque credential used to
// authenticate against it.
type ExchangerProfile struct {
	Exchanger Exchanger `yaml:"exchanger"`
	AuthKey   string    `yaml:"authkey"`
}

// Profile is the persisted identity of what to monitor: watched on-chain
// addresses and exchange accounts. It is input configuration, read at the
// start of every operation and replaced whole on update.
type Profile struct {
	Addresses  []Address          `yaml:"addresses"`
	Exchangers []ExchangerProfile `yaml:"exchangers"`
}

// AddressesFor filters the profile's addresses down to the given assets.
func (p Profile) AddressesFor(assets []Asset) []Address {
	wanted := make(map[Asset]struct{}, len(assets))
	for _, a := range assets {
		wanted[a] = struct{}{}
	}

	var out []Address
	for _, addr := range p.Addresses {
		if _, ok := wanted[addr.Asset]; ok {
			out = append(out, addr)
		}
	}
	return out
}

// ExchangersFor filters the profile's exchanger entries down to the given
// exchanger identifiers.
func (p Profile) ExchangersFor(names []Exchanger) []ExchangerProfile {
	wanted := make(map[Exchanger]struct{}, len(names))
	for _, x := range names {
		wanted[x] = struct{}{}
	}

	var out []ExchangerProfile
	for _, xp := range p.Exchangers {
		if _, ok := wanted[xp.Exchanger]; ok {
			out = append(out, xp)
		}
	}
	return out
}
