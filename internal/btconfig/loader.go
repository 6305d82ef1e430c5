package btconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/aegis-backtest/internal/engine"
)

// Load reads a backtest parameter YAML and returns the validated config
// with the raw bytes.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*engine.Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg := engine.DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cfg); err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, data, err
	}

	return &cfg, data, nil
}

// Hash generates a SHA256 hash of the config (canonical JSON).
// 주의: map 대신 struct 직렬화로 해시 재현성 보장
// The grid runner keys its result cache on this hash.
func Hash(cfg engine.Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
