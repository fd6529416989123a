package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a strategy YAML file and returns Config with raw bytes.
// Fields absent from the file keep their defaults; KnownFields(true)
// makes typos and unused fields fail immediately. Enum values are
// accepted in any case.
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg := *Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}

	cfg.Similarity.EdgePolicy = strings.ToUpper(cfg.Similarity.EdgePolicy)
	cfg.Recommend.Order = strings.ToUpper(cfg.Recommend.Order)

	if err := Validate(&cfg); err != nil {
		return nil, data, err
	}

	return &cfg, data, nil
}

// LoadOrDefault loads the file when a path is given, otherwise returns
// the built-in defaults. The defaults always validate.
func LoadOrDefault(path string) (*Config, []byte, error) {
	if path == "" {
		return Default(), nil, nil
	}
	return Load(path)
}

// Hash generates a SHA256 hash from Config (canonical JSON).
// Structs rather than maps keep the field order deterministic.
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
