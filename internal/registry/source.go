package registry

import (
	"context"
	"fmt"
	"strings"
)

// HostEntry is one deployment host. Address is what we connect to; Name is
// the human-readable label shown in prompts and matched by --host.
type HostEntry struct {
	Address string `yaml:"address" json:"address"`
	Name    string `yaml:"name" json:"name"`
}

// Label returns Name when it differs from Address, otherwise just the address.
func (h HostEntry) Label() string {
	if h.Name == "" || h.Name == h.Address {
		return h.Address
	}
	return fmt.Sprintf("%s (%s)", h.Name, h.Address)
}

// Producer returns a host list on demand. Producers may do network I/O and
// must be idempotent and read-only.
type Producer func(ctx context.Context) ([]HostEntry, error)

type sourceKind int

const (
	kindFixed sourceKind = iota
	kindDynamic
)

// HostSource is either a fixed host list or a producer that builds one at
// resolution time.
type HostSource struct {
	kind     sourceKind
	fixed    []HostEntry
	producer Producer
}

// Fixed wraps a static host list.
func Fixed(entries ...HostEntry) HostSource {
	out := make([]HostEntry, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			e.Name = e.Address
		}
		out[i] = e
	}
	return HostSource{kind: kindFixed, fixed: out}
}

// FixedAddresses is Fixed for plain address strings.
func FixedAddresses(addrs ...string) HostSource {
	entries := make([]HostEntry, len(addrs))
	for i, a := range addrs {
		entries[i] = HostEntry{Address: a, Name: a}
	}
	return Fixed(entries...)
}

// Dynamic wraps a producer.
func Dynamic(p Producer) HostSource {
	return HostSource{kind: kindDynamic, producer: p}
}

// IsDynamic reports whether materializing this source calls a producer.
func (s HostSource) IsDynamic() bool {
	return s.kind == kindDynamic
}

// Materialize returns the concrete host list. Fixed sources return a copy;
// dynamic sources invoke their producer and fill in missing names.
func (s HostSource) Materialize(ctx context.Context) ([]HostEntry, error) {
	if s.kind == kindFixed {
		out := make([]HostEntry, len(s.fixed))
		copy(out, s.fixed)
		return out, nil
	}

	if s.producer == nil {
		return nil, fmt.Errorf("host producer is nil")
	}

	entries, err := s.producer(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]HostEntry, 0, len(entries))
	for _, e := range entries {
		e.Address = strings.TrimSpace(e.Address)
		if e.Address == "" {
			continue
		}
		if e.Name == "" {
			e.Name = e.Address
		}
		out = append(out, e)
	}
	return out, nil
}

// Addresses extracts the address column, preserving order.
func Addresses(entries []HostEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Address
	}
	return out
}

// Names extracts the name column, preserving order.
func Names(entries []HostEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
