package transport

import "fmt"

// Config addresses the MQTT broker and the two topics the BLE bridge uses
// for a single sensor's GATT characteristics.
type Config struct {
	Host string
	Port int

	MAC     string
	Service string
	CharTX  string
	CharRX  string

	ClientID string
}

// topicOut is the topic the bridge listens on for outbound writes to the
// sensor's TX characteristic.
func (c Config) topicOut() string {
	return fmt.Sprintf("ble_devices/%s/%s/%s/Set", c.MAC, c.Service, c.CharTX)
}

// topicIn is the topic the bridge publishes RX characteristic notifications
// on.
func (c Config) topicIn() string {
	return fmt.Sprintf("ble_devices/%s/%s/%s", c.MAC, c.Service, c.CharRX)
}

func (c Config) brokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}
