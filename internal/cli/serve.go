package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sentinelai/sentinel/pkg/gateway"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Sentinel gateway server",
	Long: `Start the Sentinel server: WebSocket streaming on /ws plus the
HTTP endpoints (/health, /tools, /metrics, /query, /knowledge/add).
Runs until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := buildApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	a.refresher.Start()

	server, err := gateway.NewServer(gateway.Config{
		Host:     cfg.Gateway.Host,
		Port:     cfg.Gateway.Port,
		Pipeline: a.pipeline,
		Registry: a.registry,
		Store:    a.store,
		Metrics:  a.metrics,
		Logger:   a.log.GetZerolog(),
	})
	if err != nil {
		return err
	}

	if err := server.Start(); err != nil {
		return err
	}

	fmt.Printf("Sentinel listening on %s:%d (%d tools registered)\n",
		cfg.Gateway.Host, cfg.Gateway.Port, a.registry.Len())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	return server.Stop()
}
