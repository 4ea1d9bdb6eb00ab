package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"scheduleall/internal/domain"
	"scheduleall/internal/slots"
)

// Settings is the player-editable slot table.
type Settings struct {
	Slots []domain.SlotConfig `toml:"slots"`
}

func DefaultSettings() Settings {
	return Settings{Slots: domain.DefaultSlotConfigs()}
}

// Normalize pads to the fixed slot count with defaults and drops extras.
func (s Settings) Normalize() Settings {
	defaults := domain.DefaultSlotConfigs()
	out := make([]domain.SlotConfig, domain.SlotCount)
	for i := range out {
		if i >= len(s.Slots) {
			out[i] = defaults[i]
			continue
		}
		out[i] = s.Slots[i]
		if out[i].Label == "" {
			out[i].Label = domain.DefaultSlotLabel
		}
	}
	return Settings{Slots: out}
}

// LoadSettings reads the slot table. A missing file surfaces as an error
// wrapping fs.ErrNotExist.
func LoadSettings(path string) (Settings, error) {
	resolved := ExpandPath(path)
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file %s: %w", resolved, err)
	}
	var s Settings
	if _, err := toml.Decode(string(raw), &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings file: %w", err)
	}
	return s.Normalize(), nil
}

// SaveSettings writes the table atomically via a sibling temp file.
func SaveSettings(path string, s Settings) error {
	resolved := ExpandPath(path)
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.Normalize()); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(resolved); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// CheckTargets logs every slot whose target names no known work type and
// returns the offending slot indices.
func CheckTargets(s Settings, works []domain.WorkType, logger *zap.Logger) []int {
	if logger == nil {
		logger = zap.NewNop()
	}
	known := make(map[string]bool, len(works))
	for _, w := range works {
		known[w.DefName] = true
	}
	var bad []int
	for i, cfg := range s.Slots {
		if cfg.TargetWork == "" || known[cfg.TargetWork] {
			continue
		}
		bad = append(bad, i)
		fields := []zap.Field{zap.Int("slot", i), zap.String("target_work", cfg.TargetWork)}
		if hint, ok := slots.SuggestWorkType(cfg.TargetWork, works); ok {
			fields = append(fields, zap.String("did_you_mean", hint))
		}
		logger.Warn("slot target is not a known work type", fields...)
	}
	return bad
}
