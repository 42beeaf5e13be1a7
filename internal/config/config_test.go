package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	for _, name := range []string{"MQTT_HOST", "MQTT_PORT", "FPC2534_BLE_MAC", "FPC2534_BLE_SERVICE", "FPC2534_BLE_CHAR_TX", "FPC2534_BLE_CHAR_RX", "FPC2534_HTTP_ADDR", "FPC2534_LOG_LEVEL", "FPC2534_KEY"} {
		t.Setenv(name, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.MQTTHost != DefaultMQTTHost || cfg.MQTTPort != DefaultMQTTPort {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if cfg.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Key != nil {
		t.Errorf("Key = %v, want nil when FPC2534_KEY unset", cfg.Key)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MQTT_HOST", "broker.local")
	t.Setenv("MQTT_PORT", "8883")
	t.Setenv("FPC2534_HTTP_ADDR", ":9090")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.MQTTHost != "broker.local" || cfg.MQTTPort != 8883 {
		t.Errorf("cfg = %+v, want overridden host/port", cfg)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
}

func TestFromEnvRejectsInvalidPort(t *testing.T) {
	t.Setenv("MQTT_PORT", "not-a-number")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for non-numeric MQTT_PORT")
	}
}

func TestFromEnvKeyValidation(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid 16 bytes", "00112233445566778899aabbccddeeff", false},
		{"valid 32 bytes", "00112233445566778899aabbccddeeff" + "00112233445566778899aabbccddeeff", false},
		{"odd length hex", "abc", true},
		{"wrong byte length", "aabb", true},
		{"not hex", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Setenv("FPC2534_KEY", c.key)
			_, err := FromEnv()
			if (err != nil) != c.wantErr {
				t.Errorf("FromEnv with key %q: err = %v, wantErr %v", c.key, err, c.wantErr)
			}
		})
	}
}
