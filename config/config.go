package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DeviceMode selects the host-software-specific MIDI emission conventions.
type DeviceMode string

const (
	ModeDefault DeviceMode = "default"
	ModeTraktor DeviceMode = "traktor"
	ModeAbleton DeviceMode = "ableton"
)

// Banking selects the four-bank addressing topology.
type Banking string

const (
	BankingOff      Banking = "off"
	BankingInternal Banking = "internal"
	BankingExternal Banking = "external"
)

// Config is the persisted device configuration. On the hardware this lives
// in EEPROM; here it is a JSON file under ~/.config/gridfighter.
type Config struct {
	Channel    uint8      `json:"channel"`
	DeviceMode DeviceMode `json:"deviceMode"`
	Banking    Banking    `json:"banking"`
	BaseNote   uint8      `json:"baseNote"`
	Velocity   uint8      `json:"velocity"`

	KeypressLights bool `json:"keypressLights"`
	Combos         bool `json:"combos"`

	// Per-slider polarity inversion. Suppressed entirely when the unit is
	// mounted rotated, since rotation already flips the sliders.
	InvertSliders [4]bool `json:"invertSliders"`
	Rotate        bool    `json:"rotate"`
}

// DefaultConfig returns the factory settings.
func DefaultConfig() *Config {
	return &Config{
		Channel:        0,
		DeviceMode:     ModeDefault,
		Banking:        BankingOff,
		BaseNote:       36,
		Velocity:       127,
		KeypressLights: true,
		Combos:         false,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gridfighter"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.normalize()

	return &cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FactoryReset overwrites the stored configuration with the defaults and
// applies them to c in place.
func (c *Config) FactoryReset() error {
	*c = *DefaultConfig()
	return c.Save()
}

// normalize clamps fields a hand-edited file could have pushed out of range.
func (c *Config) normalize() {
	c.Channel &= 0x0F
	if c.Velocity > 127 {
		c.Velocity = 127
	}
	if c.BaseNote > 127 {
		c.BaseNote = 127
	}
	switch c.DeviceMode {
	case ModeDefault, ModeTraktor, ModeAbleton:
	default:
		c.DeviceMode = ModeDefault
	}
	switch c.Banking {
	case BankingOff, BankingInternal, BankingExternal:
	default:
		c.Banking = BankingOff
	}
}
