// Package config loads ARES's process-level settings: the environment
// variables spec.md §6 names, plus an optional YAML file for ambient
// process tuning (timeouts, concurrency limits, extraction thresholds)
// that spec.md leaves as implementation detail. Domain artifacts
// (extraction.json, the pattern library, registry snapshots) stay plain
// JSON exactly as spec.md §6 mandates — YAML is only for this process
// config layer, the way theRebelliousNerd-codenerd and MrWong99-glyphoxa
// load their own service config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode is the operator-selectable analyzer mode (spec.md §6).
type Mode string

const (
	ModeLegacy   Mode = "legacy"
	ModePipeline Mode = "pipeline"
	ModeBookNLP  Mode = "booknlp"
	ModeHybrid   Mode = "hybrid"
)

// ExtractionThresholds are the numeric constants spec.md's open questions
// leave for the implementation to fix (mention-frequency bonus, generic
// penalty, sense/merge/coref similarity thresholds). Defaults mirror the
// teacher's discovery.NewEngine(2, ...) promotion-threshold pattern: start
// conservative. They are read from the YAML config file only; no
// extraction.json file is loaded.
type ExtractionThresholds struct {
	FrequencyBonusPerMention float64 `json:"frequency_bonus_per_mention" yaml:"frequency_bonus_per_mention"`
	FrequencyBonusMax        float64 `json:"frequency_bonus_max" yaml:"frequency_bonus_max"`
	GenericPenalty           float64 `json:"generic_penalty" yaml:"generic_penalty"`
	CorefDescriptorThreshold float64 `json:"coref_descriptor_threshold" yaml:"coref_descriptor_threshold"`
	MergeClusterThreshold    float64 `json:"merge_cluster_threshold" yaml:"merge_cluster_threshold"`
	SenseMatchThreshold      float64 `json:"sense_match_threshold" yaml:"sense_match_threshold"`
}

// DefaultExtractionThresholds returns the thresholds spec.md's examples and
// this module's other packages already assume as defaults.
func DefaultExtractionThresholds() ExtractionThresholds {
	return ExtractionThresholds{
		FrequencyBonusPerMention: 0.03,
		FrequencyBonusMax:        0.15,
		GenericPenalty:           0.20,
		CorefDescriptorThreshold: 0.70,
		MergeClusterThreshold:    0.70,
		SenseMatchThreshold:      0.70,
	}
}

// Config is the full set of process-level settings for one ares process.
type Config struct {
	Mode                Mode          `yaml:"mode"`
	AnalyzerURL         string        `yaml:"analyzer_url"`
	AnalyzerTimeout     time.Duration `yaml:"analyzer_timeout"`
	SkipPatternLibrary  bool          `yaml:"skip_pattern_library"`
	ChunkWorkerLimit    int           `yaml:"chunk_worker_limit"`
	ChunkParagraphLimit int           `yaml:"chunk_paragraph_limit"`

	L3Debug    bool `yaml:"l3_debug"`
	DebugMerge bool `yaml:"debug_merge"`

	GoldMinPrecision float64 `yaml:"gold_min_precision"`
	GoldMaxFP        int     `yaml:"gold_max_fp"`

	Thresholds ExtractionThresholds `yaml:"thresholds"`
}

// Default returns a Config with every field at its documented default.
func Default() Config {
	return Config{
		Mode:                ModePipeline,
		AnalyzerTimeout:     30 * time.Second,
		ChunkWorkerLimit:    4,
		ChunkParagraphLimit: 20,
		Thresholds:          DefaultExtractionThresholds(),
	}
}

// LoadYAML reads a YAML config file and overlays it onto Default().
// A missing file is not an error — callers get the defaults.
func LoadYAML(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays the process environment variables spec.md §6 names
// onto cfg, returning the result. Unset variables leave cfg's existing
// value untouched.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	if v := getenv("ARES_MODE"); v != "" {
		cfg.Mode = Mode(strings.ToLower(v))
	}
	if v := getenv("ARES_PIPELINE"); v == "true" {
		cfg.Mode = ModePipeline
	}
	if v := getenv("ARES_ANALYZER_URL"); v != "" {
		cfg.AnalyzerURL = v
	}
	if v := getenv("SKIP_PATTERN_LIBRARY"); v == "1" {
		cfg.SkipPatternLibrary = true
	}
	if v := getenv("L3_DEBUG"); v == "1" {
		cfg.L3Debug = true
	}
	if v := getenv("DEBUG_MERGE"); v == "1" {
		cfg.DebugMerge = true
	}
	if v := getenv("GOLD_MIN_PRECISION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.GoldMinPrecision = f
		}
	}
	if v := getenv("GOLD_MAX_FP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GoldMaxFP = n
		}
	}
	return cfg
}

// Load builds a Config from an optional YAML file plus the process
// environment, in that order (environment wins).
func Load(yamlPath string) (Config, error) {
	cfg, err := LoadYAML(yamlPath)
	if err != nil {
		return cfg, err
	}
	return ApplyEnv(cfg, os.Getenv), nil
}
