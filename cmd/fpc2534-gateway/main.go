// Fpc2534-gateway bridges an FPC2534 fingerprint sensor, reachable only
// through an MQTT-speaking BLE bridge, to a REST/WebSocket HTTP surface.
//
// It decodes and encodes the sensor's binary wire protocol (including its
// optional AES-GCM secure framing), serializes every session against the
// sensor's single exclusive hardware resource, and exposes status,
// template management, image capture, system configuration and streaming
// identification over HTTP.
//
// Usage:
//
//	fpc2534-gateway serve [flags]
//
// See 'fpc2534-gateway serve --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dakhnod/fpc2534-gateway/internal/config"
	"github.com/dakhnod/fpc2534-gateway/internal/coordinator"
	"github.com/dakhnod/fpc2534-gateway/internal/logging"
	"github.com/dakhnod/fpc2534-gateway/internal/protocol"
	"github.com/dakhnod/fpc2534-gateway/internal/server"
	"github.com/dakhnod/fpc2534-gateway/internal/transport"
	"github.com/dakhnod/fpc2534-gateway/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "fpc2534-gateway",
	Short:   "FPC2534 fingerprint sensor MQTT-to-HTTP gateway",
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var (
	httpAddr string
	logLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the sensor over MQTT and serve the HTTP/WebSocket surface",
	Long: `Connect to the MQTT broker the BLE bridge publishes on, and serve
REST endpoints for sensor status, template management, image capture,
system configuration and enroll, plus a streaming WebSocket endpoint for
continuous identification.

Configuration not passed as a flag falls back to the environment
variables MQTT_HOST, MQTT_PORT, FPC2534_KEY, FPC2534_BLE_MAC,
FPC2534_BLE_SERVICE, FPC2534_BLE_CHAR_TX, FPC2534_BLE_CHAR_RX,
FPC2534_HTTP_ADDR and FPC2534_LOG_LEVEL.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address (falls back to FPC2534_HTTP_ADDR, default :8080)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (falls back to FPC2534_LOG_LEVEL)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logging.Sync()

	codec := protocol.NewCodec(cfg.Key)

	transportClient := transport.New(transport.Config{
		Host:    cfg.MQTTHost,
		Port:    cfg.MQTTPort,
		MAC:     cfg.BLEMAC,
		Service: cfg.BLEService,
		CharTX:  cfg.BLECharTX,
		CharRX:  cfg.BLECharRX,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := transportClient.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	defer transportClient.Close()

	coord := coordinator.New(codec, transportClient)

	go ingestLoop(ctx, codec, transportClient, coord)
	go coord.IdentifyLoop(ctx)

	srv := server.New(server.Config{Addr: cfg.HTTPAddr}, coord)
	return srv.Start()
}

// ingestLoop decodes every inbound MQTT frame and routes the result to
// whichever consumer the coordinator's single-resource model says should
// see it. A malformed frame is logged and dropped rather than fatal, since
// the bridge may replay stale or partially-secure frames during rekeying.
func ingestLoop(ctx context.Context, codec *protocol.Codec, t *transport.Client, coord *coordinator.Coordinator) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-t.Inbound():
			if !ok {
				return
			}
			resp, err := codec.Decode(frame)
			if err != nil {
				logging.Error("discarding undecodable sensor frame", zap.Error(err))
				continue
			}
			coord.Route(resp)
		}
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fpc2534-gateway %s\n", version.Full())
	},
}
