package keymap

import (
	"github.com/dario/keymapgen/errors"
)

// Combo is a chorded multi-key trigger bound to a single output action.
// Key positions index the canonical 36-slot order; geometry translates them
// to board-specific physical positions at emission time.
type Combo struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// KeyPositions are canonical 0-35 positions, at least two.
	KeyPositions []int `yaml:"key_positions"`

	// Action is the abstract token emitted when the chord triggers.
	// Mutually exclusive with Macro.
	Action string `yaml:"action"`

	// Macro is literal text typed out when the chord triggers.
	Macro string `yaml:"macro"`

	TimeoutMs int `yaml:"timeout_ms"`

	// RequirePriorIdleMs suppresses the combo during fast typing (ZMK).
	RequirePriorIdleMs int `yaml:"require_prior_idle_ms"`

	// Layers restricts the combo to the named layers. Empty means active on
	// all layers.
	Layers []string `yaml:"layers"`

	// SlowRelease requires all chord keys released together (ZMK).
	SlowRelease bool `yaml:"slow_release"`
}

// DefaultComboTimeoutMs applies when a combo doesn't set timeout_ms.
const DefaultComboTimeoutMs = 50

// Validate checks combo structure.
func (c *Combo) Validate() error {
	if c.Name == "" {
		return errors.NewConfigError("combo must have a name")
	}
	if len(c.KeyPositions) < 2 {
		return errors.NewConfigError("combo %s: needs at least 2 key positions, got %d", c.Name, len(c.KeyPositions))
	}
	seen := make(map[int]bool, len(c.KeyPositions))
	for _, pos := range c.KeyPositions {
		if pos < 0 || pos >= CoreKeyCount {
			return errors.NewConfigError("combo %s: key position %d out of range [0, %d)", c.Name, pos, CoreKeyCount)
		}
		if seen[pos] {
			return errors.NewConfigError("combo %s: duplicate key position %d", c.Name, pos)
		}
		seen[pos] = true
	}
	if c.Action == "" && c.Macro == "" {
		return errors.NewConfigError("combo %s: must have an action or a macro", c.Name)
	}
	if c.Action != "" && c.Macro != "" {
		return errors.NewConfigError("combo %s: action and macro are mutually exclusive", c.Name)
	}
	if c.TimeoutMs <= 0 {
		return errors.NewConfigError("combo %s: timeout_ms must be positive", c.Name)
	}
	return nil
}
