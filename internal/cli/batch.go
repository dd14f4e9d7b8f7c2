package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/subnet-miner/internal/model"
	"github.com/ppiankov/subnet-miner/internal/worker"
)

var (
	concurrency   int
	batchOut      string
	batchTimeout  time.Duration
	batchStrategy string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify statements from a JSON Lines file in parallel",
	Long: `Batch verifies many statements concurrently:
- Read statements from input file (one JSON object per line)
- Skip blank lines, # comments and repeated statements
- Verify statements in parallel with configurable worker count
- Write one JSON result per line, in input order

Input line format:
  {"id": "stmt-1", "statement": "Bitcoin will reach $100,000", "end_date": "2024-12-31T23:59:00Z"}

Example:
  miner batch statements.jsonl
  miner batch statements.jsonl --concurrency 10 --out results.jsonl
  miner batch statements.jsonl --strategy ai_reasoning --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchOut, "out", "-", "output JSONL path (- for stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&batchStrategy, "strategy", "", "verification strategy (dummy, ai_reasoning, resolution_api)")
}

// batchLine is one line of batch output
type batchLine struct {
	Index       int                  `json:"index"`
	StatementID string               `json:"statement_id,omitempty"`
	Statement   string               `json:"statement"`
	ElapsedMS   int64                `json:"elapsed_ms"`
	Response    *model.MinerResponse `json:"response,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Miner.Strategy = batchStrategy
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Strategy:     %s\n", cfg.Miner.Strategy)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", batchOut)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	logger := newLogger(cfg.Log)
	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	var out io.Writer = os.Stdout
	if batchOut != "" && batchOut != "-" {
		f, cerr := os.Create(batchOut)
		if cerr != nil {
			return fmt.Errorf("create output file: %w", cerr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		out = f
	}

	processor := worker.NewBatchProcessor(rt.processor, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Verifying statements with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	counts, failures, err := writeBatchResults(out, results)
	if err != nil {
		return err
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d statements\n", len(results))
	fmt.Fprintf(os.Stderr, "  TRUE:      %d\n", counts[model.ResolutionTrue])
	fmt.Fprintf(os.Stderr, "  FALSE:     %d\n", counts[model.ResolutionFalse])
	fmt.Fprintf(os.Stderr, "  PENDING:   %d\n", counts[model.ResolutionPending])
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// writeBatchResults writes one JSON line per result and tallies resolutions
func writeBatchResults(w io.Writer, results []*worker.VerifyResult) (map[model.Resolution]int, int, error) {
	enc := json.NewEncoder(w)
	counts := make(map[model.Resolution]int)
	failures := 0

	for _, result := range results {
		line := batchLine{
			Index:       result.Index,
			StatementID: result.Statement.ID,
			Statement:   result.Statement.Statement,
			ElapsedMS:   result.Elapsed.Milliseconds(),
			Response:    result.Response,
		}

		if result.Error != nil {
			failures++
			line.Error = result.Error.Error()
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Statement.Statement, result.Error)
		} else if result.Response != nil {
			counts[result.Response.Resolution]++
			fmt.Fprintf(os.Stderr, "✓ %s → %s (%.1f)\n", result.Statement.Statement, result.Response.Resolution, result.Response.Confidence)
		}

		if err := enc.Encode(line); err != nil {
			return nil, 0, fmt.Errorf("write result: %w", err)
		}
	}
	return counts, failures, nil
}
