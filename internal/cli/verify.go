package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/subnet-miner/internal/model"
)

var (
	verifyDeadline     string
	verifyCreated      string
	verifyID           string
	verifyInitialValue float64
	verifyDirection    string
	verifyStrategy     string
	verifyTimeout      time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <statement>",
	Short: "Verify a single statement and print the response",
	Long: `Verify runs one statement through the configured agent and prints the
validator-facing response as JSON on stdout.

Example:
  miner verify "Bitcoin will reach $100,000 by December 31, 2024" --deadline 2024-12-31T23:59:00Z
  miner verify "ETH above $4,000" --deadline 2025-01-31 --strategy ai_reasoning -v
  miner verify "BTC above $70k" --deadline 2024-06-30 --id stmt-123 --strategy resolution_api`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyDeadline, "deadline", "", "statement end date (ISO-8601)")
	verifyCmd.Flags().StringVar(&verifyCreated, "created", "", "statement creation time (ISO-8601, default: now)")
	verifyCmd.Flags().StringVar(&verifyID, "id", "", "statement id (used by the resolution_api strategy)")
	verifyCmd.Flags().Float64Var(&verifyInitialValue, "initial-value", 0, "value at statement creation")
	verifyCmd.Flags().StringVar(&verifyDirection, "direction", "", "expected direction (increase, decrease, neutral)")
	verifyCmd.Flags().StringVar(&verifyStrategy, "strategy", "", "verification strategy (dummy, ai_reasoning, resolution_api)")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 0, "verification timeout (overrides miner.verification_timeout)")
	_ = verifyCmd.MarkFlagRequired("deadline")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Miner.Strategy = verifyStrategy
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Miner.VerificationTimeout = verifyTimeout
	}

	st, err := buildStatement(cmd, args[0])
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", st.Statement)
		fmt.Fprintf(os.Stderr, "Deadline:  %s\n", st.EndDate)
		fmt.Fprintf(os.Stderr, "Agent:     %s\n", rt.processor.Agent().Name())
		fmt.Fprintln(os.Stderr)
	}

	start := time.Now()
	resp := rt.processor.Process(context.Background(), st)
	out := model.NewSynapseResponse(resp, time.Since(start).Seconds(), rt.minerVersion())

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %s (confidence %.1f) in %.2fs\n", out.Resolution, out.Confidence, out.AnalysisTime)
		fmt.Fprintln(os.Stderr)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

// buildStatement assembles a statement from the verify flags
func buildStatement(cmd *cobra.Command, text string) (model.Statement, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Statement{}, fmt.Errorf("statement is required")
	}
	if _, ok := model.ParseTimestamp(verifyDeadline); !ok {
		return model.Statement{}, fmt.Errorf("invalid --deadline %q (expected ISO-8601)", verifyDeadline)
	}

	created := verifyCreated
	if created == "" {
		created = model.Now()
	}

	st := model.Statement{
		ID:        verifyID,
		Statement: text,
		EndDate:   verifyDeadline,
		CreatedAt: created,
	}

	if cmd.Flags().Changed("initial-value") {
		v := verifyInitialValue
		st.InitialValue = &v
	}

	switch d := model.Direction(strings.ToLower(verifyDirection)); d {
	case "":
	case model.DirectionIncrease, model.DirectionDecrease, model.DirectionNeutral:
		st.Direction = d
	default:
		return model.Statement{}, fmt.Errorf("invalid --direction %q (supported: increase, decrease, neutral)", verifyDirection)
	}

	return st, nil
}
