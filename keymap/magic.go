package keymap

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dario/keymapgen/errors"
)

// MagicDefaultKind selects the fallback action of a magic key when no
// mapping matches the preceding key.
type MagicDefaultKind int

const (
	// MagicDefaultRepeat repeats the previous key.
	MagicDefaultRepeat MagicDefaultKind = iota
	// MagicDefaultNone does nothing.
	MagicDefaultNone
	// MagicDefaultKey emits a specific literal key.
	MagicDefaultKey
)

// MagicDefault is the configured fallback action.
type MagicDefault struct {
	Kind MagicDefaultKind
	// Key holds the literal key token when Kind is MagicDefaultKey.
	Key string
}

// UnmarshalYAML reads the default from a scalar: "repeat", "none", or any
// other value taken as a literal key token.
func (d *MagicDefault) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.NewConfigError("magic default must be a scalar, got %s", value.Tag)
	}
	switch value.Value {
	case "", "repeat":
		*d = MagicDefault{Kind: MagicDefaultRepeat}
	case "none":
		*d = MagicDefault{Kind: MagicDefaultNone}
	default:
		*d = MagicDefault{Kind: MagicDefaultKey, Key: value.Value}
	}
	return nil
}

// MagicRule maps one preceding key to the alternate output the magic key
// emits after it. Exactly one of Key and Text is set.
type MagicRule struct {
	// When is the preceding key token.
	When string `yaml:"when"`
	// Key is the alternate key token to emit.
	Key string `yaml:"key"`
	// Text is literal text to type out instead of a single key.
	Text string `yaml:"text"`
	// RequirePriorIdleMs optionally overrides the family timeout for this
	// rule.
	RequirePriorIdleMs int `yaml:"require_prior_idle_ms"`
}

// MagicBehavior is the magic-key configuration of one base-layer family.
type MagicBehavior struct {
	// Base is the base layer the family is named after (e.g. BASE_NIGHT).
	Base      string       `yaml:"-"`
	TimeoutMs int          `yaml:"timeout_ms"`
	Default   MagicDefault `yaml:"default"`
	// Rules are kept in declaration order so emission is deterministic.
	Rules []MagicRule `yaml:"mappings"`
}

// Validate checks the behavior structure.
func (m *MagicBehavior) Validate() error {
	if m.Base == "" {
		return errors.NewConfigError("magic behavior must name its base layer")
	}
	if m.TimeoutMs < 0 {
		return errors.NewConfigError("magic %s: timeout_ms must not be negative", m.Base)
	}
	for _, r := range m.Rules {
		if r.When == "" {
			return errors.NewConfigError("magic %s: mapping must have a 'when' key", m.Base)
		}
		if (r.Key == "") == (r.Text == "") {
			return errors.NewConfigError("magic %s: mapping for %q must have exactly one of 'key' or 'text'", m.Base, r.When)
		}
	}
	return nil
}

// DefaultMagicTimeoutMs applies when a family doesn't set timeout_ms.
const DefaultMagicTimeoutMs = 1200

// MagicConfig holds all configured magic-key families, in declaration order.
type MagicConfig struct {
	Families []*MagicBehavior
	byBase   map[string]*MagicBehavior
}

// NewMagicConfig builds a MagicConfig, validating each family.
func NewMagicConfig(families []*MagicBehavior) (*MagicConfig, error) {
	cfg := &MagicConfig{Families: families, byBase: make(map[string]*MagicBehavior, len(families))}
	for _, fam := range families {
		if err := fam.Validate(); err != nil {
			return nil, err
		}
		if _, dup := cfg.byBase[fam.Base]; dup {
			return nil, errors.NewConfigError("duplicate magic configuration for base layer %s", fam.Base)
		}
		cfg.byBase[fam.Base] = fam
	}
	return cfg, nil
}

// Lookup returns the family configured for the given base layer.
func (m *MagicConfig) Lookup(base string) (*MagicBehavior, bool) {
	if m == nil {
		return nil, false
	}
	fam, ok := m.byBase[base]
	return fam, ok
}

// ResolveFamily maps an active layer name to its base-layer family.
//
// A layer with its own magic configuration is its own family. Otherwise a
// layer named X_SUFFIX belongs to BASE_SUFFIX when that base layer has a
// mapping configured: NUM_NIGHT resolves to BASE_NIGHT. Family membership is
// inferred by name suffix, so two base layers sharing a suffix are
// ambiguous; the longest matching suffix wins and ties break on the
// lexicographically smaller base name. A configured bare "BASE" family
// (empty suffix) matches any layer as the last resort.
func (m *MagicConfig) ResolveFamily(layer string) (string, bool) {
	if m == nil {
		return "", false
	}
	if _, ok := m.byBase[layer]; ok {
		return layer, true
	}
	best := ""
	bestLen := -1
	for _, fam := range m.Families {
		if !strings.HasPrefix(fam.Base, "BASE") {
			continue
		}
		suffix := strings.TrimPrefix(fam.Base, "BASE")
		if !strings.HasSuffix(layer, suffix) {
			continue
		}
		if len(suffix) > bestLen || (len(suffix) == bestLen && fam.Base < best) {
			best = fam.Base
			bestLen = len(suffix)
		}
	}
	if bestLen < 0 {
		return "", false
	}
	return best, true
}

// DisplayName returns the short display form of a layer name for summaries:
// BASE_NIGHT becomes NIGHT, NUM_NIGHT becomes NUM, NAV stays NAV.
func DisplayName(layer string, families []*MagicBehavior) string {
	if strings.HasPrefix(layer, "BASE_") {
		return strings.TrimPrefix(layer, "BASE_")
	}
	for _, fam := range families {
		suffix := strings.TrimPrefix(fam.Base, "BASE")
		if suffix != "" && layer != fam.Base && strings.HasSuffix(layer, suffix) {
			return strings.TrimSuffix(layer, suffix)
		}
	}
	return layer
}
