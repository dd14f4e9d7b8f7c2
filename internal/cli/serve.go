package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/subnet-miner/internal/server"
)

var (
	serveAddr     string
	serveStrategy string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve verification requests over HTTP",
	Long: `Serve starts the miner's HTTP surface:
  POST /verify                  verify one statement
  GET  /health                  liveness
  GET  /stats                   processed counts, uptime, agent info
  GET  /metrics                 Prometheus metrics
  GET  /responses/<proof_hash>  served response lookup (history enabled)

Example:
  miner serve
  miner serve --addr :9000 --strategy ai_reasoning
  LLM_PROVIDER=groq GROQ_API_KEY=... miner serve --strategy resolution_api`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveStrategy, "strategy", "", "verification strategy (dummy, ai_reasoning, resolution_api)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Miner.Strategy = serveStrategy
	}

	logger := newLogger(cfg.Log)

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Subnet 90 Miner\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Address:   %s\n", cfg.Server.Addr)
	fmt.Fprintf(os.Stderr, "  Strategy:  %s\n", cfg.Miner.Strategy)
	fmt.Fprintf(os.Stderr, "  Agent:     %s\n", rt.processor.Agent().Name())
	fmt.Fprintf(os.Stderr, "  Version:   %s\n", rt.minerVersion())
	if rt.history != nil {
		fmt.Fprintf(os.Stderr, "  History:   %s\n", cfg.History.Path)
	}
	fmt.Fprintf(os.Stderr, "\n")

	srv := server.New(server.Config{
		Addr:              cfg.Server.Addr,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		MinerVersion:      rt.minerVersion(),
	}, server.Deps{
		Processor: rt.processor,
		Metrics:   rt.metrics,
		History:   rt.history,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
