// SPDX-License-Identifier: MIT

// Package variant defines the closed set of processing variants the lab
// routes audio through, together with the metadata shown while one is
// selected.
package variant

import (
	"fmt"
	"strings"

	"codeclab/internal/config"
	"codeclab/internal/errs"
)

// ID identifies a processing variant.
type ID string

// Built-in variant identifiers.
const (
	LPC  ID = "lpc"
	RELP ID = "relp"
	CELP ID = "celp"
)

// Label is the upper-case form used in status text, e.g. "CELP".
func (id ID) Label() string {
	return strings.ToUpper(string(id))
}

// FilterKind selects the biquad response of a variant node.
type FilterKind int

const (
	Lowpass FilterKind = iota
	Highpass
	Bandpass
)

func (k FilterKind) String() string {
	switch k {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	default:
		return "unknown"
	}
}

// ParseFilterKind converts a config name into a FilterKind.
func ParseFilterKind(s string) (FilterKind, error) {
	switch strings.ToLower(s) {
	case "lowpass":
		return Lowpass, nil
	case "highpass":
		return Highpass, nil
	case "bandpass":
		return Bandpass, nil
	default:
		return 0, fmt.Errorf("unknown filter kind %q", s)
	}
}

// DefaultQ is the Q used when a variant leaves it unset.
const DefaultQ = 1.0

// FilterSpec describes the node built for a variant.
type FilterSpec struct {
	Kind      FilterKind
	Frequency float64 // cutoff or centre frequency in Hz
	// Q is the resonance at the cutoff in dB for lowpass and highpass,
	// and the linear quality factor for bandpass.
	Q float64
}

// Metadata is the presentation data published when a variant is selected.
type Metadata struct {
	Color       string // display color, "#rrggbb"
	Bitrate     string // kbps
	Quality     string // MOS
	Latency     string // ms
	Complexity  string
	Title       string
	Description string
	Tag         string
}

// Variant is an immutable processing variant.
type Variant struct {
	ID     ID
	Filter FilterSpec
	Meta   Metadata
}

// Catalog is the ordered, immutable set of variants known to an engine.
type Catalog struct {
	list  []Variant
	index map[ID]int
}

// NewCatalog builds a catalog from vs. Order is preserved and the first
// variant becomes the default route.
func NewCatalog(vs []Variant) (*Catalog, error) {
	if len(vs) == 0 {
		return nil, fmt.Errorf("variant catalog is empty")
	}
	c := &Catalog{
		list:  make([]Variant, len(vs)),
		index: make(map[ID]int, len(vs)),
	}
	for i, v := range vs {
		if v.ID == "" {
			return nil, fmt.Errorf("variant %d has no id", i)
		}
		if _, dup := c.index[v.ID]; dup {
			return nil, fmt.Errorf("duplicate variant id %q", v.ID)
		}
		if v.Filter.Frequency <= 0 {
			return nil, fmt.Errorf("variant %q: frequency must be positive", v.ID)
		}
		if v.Filter.Q == 0 || (v.Filter.Kind == Bandpass && v.Filter.Q < 0) {
			v.Filter.Q = DefaultQ
		}
		c.list[i] = v
		c.index[v.ID] = i
	}
	return c, nil
}

// FromConfig builds a catalog from a configured override, or returns the
// built-in catalog when cfgs is empty.
func FromConfig(cfgs []config.VariantConfig) (*Catalog, error) {
	if len(cfgs) == 0 {
		return Default(), nil
	}
	vs := make([]Variant, 0, len(cfgs))
	for _, vc := range cfgs {
		kind, err := ParseFilterKind(vc.Filter)
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", vc.ID, err)
		}
		vs = append(vs, Variant{
			ID:     ID(vc.ID),
			Filter: FilterSpec{Kind: kind, Frequency: vc.Frequency, Q: vc.Q},
			Meta: Metadata{
				Color:       vc.Color,
				Bitrate:     vc.Bitrate,
				Quality:     vc.Quality,
				Latency:     vc.Latency,
				Complexity:  vc.Complexity,
				Title:       vc.Title,
				Description: vc.Description,
				Tag:         vc.Tag,
			},
		})
	}
	return NewCatalog(vs)
}

// Lookup returns the variant with the given id.
func (c *Catalog) Lookup(id ID) (Variant, error) {
	i, ok := c.index[id]
	if !ok {
		return Variant{}, fmt.Errorf("variant %q: %w", id, errs.ErrInvalidVariant)
	}
	return c.list[i], nil
}

// Has reports whether id names a known variant.
func (c *Catalog) Has(id ID) bool {
	_, ok := c.index[id]
	return ok
}

// Index returns the position of id in catalog order, or -1.
func (c *Catalog) Index(id ID) int {
	i, ok := c.index[id]
	if !ok {
		return -1
	}
	return i
}

// First returns the default variant.
func (c *Catalog) First() Variant {
	return c.list[0]
}

// Len returns the number of variants.
func (c *Catalog) Len() int {
	return len(c.list)
}

// At returns the variant at position i.
func (c *Catalog) At(i int) Variant {
	return c.list[i]
}

// All returns a copy of the variants in catalog order.
func (c *Catalog) All() []Variant {
	out := make([]Variant, len(c.list))
	copy(out, c.list)
	return out
}

// IDs returns the variant ids in catalog order.
func (c *Catalog) IDs() []ID {
	ids := make([]ID, len(c.list))
	for i, v := range c.list {
		ids[i] = v.ID
	}
	return ids
}
