package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

// Config is the gateway's complete runtime configuration, assembled from
// environment variables the same way the teacher's device registry was
// loaded from a YAML file — a single flat struct populated once at startup
// and passed by value to the packages that need it.
type Config struct {
	MQTTHost string
	MQTTPort int

	BLEMAC     string
	BLEService string
	BLECharTX  string
	BLECharRX  string

	// Key is the symmetric crypto key, or nil for plaintext framing.
	Key []byte

	HTTPAddr string
	LogLevel string
}

// Defaults reproduce the literal topic components hard-coded in the original
// Python gateway (original_source/fpc2534/quart_app.py).
const (
	DefaultMQTTHost = "localhost"
	DefaultMQTTPort = 1883

	DefaultBLEMAC     = "cb:6f:0f:38:a5:24"
	DefaultBLEService = "383f0000-7947-d815-7830-14f1584109c5"
	DefaultBLECharTX  = "383f0001-7947-d815-7830-14f1584109c5"
	DefaultBLECharRX  = "383f0002-7947-d815-7830-14f1584109c5"

	DefaultHTTPAddr = ":8080"
)

// FromEnv loads Config from the environment, applying defaults for anything
// unset. An FPC2534_KEY with an invalid hex encoding or a length other than
// 32/64 hex digits (16/32 raw bytes) is a startup error.
func FromEnv() (Config, error) {
	cfg := Config{
		MQTTHost:   getEnv("MQTT_HOST", DefaultMQTTHost),
		BLEMAC:     getEnv("FPC2534_BLE_MAC", DefaultBLEMAC),
		BLEService: getEnv("FPC2534_BLE_SERVICE", DefaultBLEService),
		BLECharTX:  getEnv("FPC2534_BLE_CHAR_TX", DefaultBLECharTX),
		BLECharRX:  getEnv("FPC2534_BLE_CHAR_RX", DefaultBLECharRX),
		HTTPAddr:   getEnv("FPC2534_HTTP_ADDR", DefaultHTTPAddr),
		LogLevel:   os.Getenv("FPC2534_LOG_LEVEL"),
	}

	port, err := getEnvInt("MQTT_PORT", DefaultMQTTPort)
	if err != nil {
		return Config{}, err
	}
	cfg.MQTTPort = port

	if raw := os.Getenv("FPC2534_KEY"); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: FPC2534_KEY is not valid hex: %w", err)
		}
		if len(key) != 16 && len(key) != 32 {
			return Config{}, fmt.Errorf("config: FPC2534_KEY must decode to 16 or 32 bytes, got %d", len(key))
		}
		cfg.Key = key
	}

	return cfg, nil
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getEnvInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q: %w", name, v, err)
	}
	return n, nil
}
