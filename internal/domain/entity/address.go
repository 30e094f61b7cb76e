package entity

// Address identifies one on-chain wallet as an (address string, asset) pair.
// Two addresses are equal iff both fields match.
type Address struct {
	Addr  string `yaml:"addr"`
	Asset Asset  `yaml:"asset"`
}
