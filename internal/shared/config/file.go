package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	AI        *AIConfig `yaml:"ai"`
	Retention *struct {
		MaxAge       string `yaml:"max_age"`
		Interval     string `yaml:"interval"`
		SignedURLTTL string `yaml:"signed_url_ttl"`
	} `yaml:"retention"`
}

// applyFile overlays non-zero values from a YAML file onto cfg. Environment
// variables read afterwards still take precedence.
func applyFile(fs afero.Fs, cfg *Config, path string) error {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if fc.AI != nil {
		mergeAI(&cfg.AI, *fc.AI)
	}
	if r := fc.Retention; r != nil {
		if err := overlayDuration(&cfg.Retention.MaxAge, r.MaxAge); err != nil {
			return fmt.Errorf("retention.max_age: %w", err)
		}
		if err := overlayDuration(&cfg.Retention.Interval, r.Interval); err != nil {
			return fmt.Errorf("retention.interval: %w", err)
		}
		if err := overlayDuration(&cfg.Retention.SignedURLTTL, r.SignedURLTTL); err != nil {
			return fmt.Errorf("retention.signed_url_ttl: %w", err)
		}
	}
	return nil
}

func mergeAI(dst *AIConfig, src AIConfig) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.ChatModel != "" {
		dst.ChatModel = src.ChatModel
	}
	if src.SpeechModel != "" {
		dst.SpeechModel = src.SpeechModel
	}
	if src.Language != "" {
		dst.Language = src.Language
	}
	if src.ResponseFormat != "" {
		dst.ResponseFormat = src.ResponseFormat
	}
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.SummaryTemperature > 0 {
		dst.SummaryTemperature = src.SummaryTemperature
	}
	if src.SummaryMaxTokens > 0 {
		dst.SummaryMaxTokens = src.SummaryMaxTokens
	}
	if src.TitleTemperature > 0 {
		dst.TitleTemperature = src.TitleTemperature
	}
	if src.TitleMaxTokens > 0 {
		dst.TitleMaxTokens = src.TitleMaxTokens
	}
	if src.TitleInputBudget > 0 {
		dst.TitleInputBudget = src.TitleInputBudget
	}
	if src.TitleFallback != "" {
		dst.TitleFallback = src.TitleFallback
	}
	if src.QATemperature > 0 {
		dst.QATemperature = src.QATemperature
	}
	if src.QAMaxTokens > 0 {
		dst.QAMaxTokens = src.QAMaxTokens
	}
}

// overlayDuration accepts Go durations plus a "<n>d" day suffix.
func overlayDuration(dst *time.Duration, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid day count %q", raw)
		}
		*dst = time.Duration(n) * 24 * time.Hour
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive: %q", raw)
	}
	*dst = d
	return nil
}
