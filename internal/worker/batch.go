package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/subnet-miner/internal/model"
)

// Verifier turns a statement into a response; dispatch.Processor satisfies it
type Verifier interface {
	Process(ctx context.Context, st model.Statement) *model.MinerResponse
}

// VerifyJob represents one statement verification
type VerifyJob struct {
	Index     int
	Statement model.Statement
	Verifier  Verifier
}

// Execute executes the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &VerifyResult{Index: j.Index, Statement: j.Statement, Error: err}
	}

	start := time.Now()
	resp := j.Verifier.Process(ctx, j.Statement)
	return &VerifyResult{
		Index:     j.Index,
		Statement: j.Statement,
		Response:  resp,
		Elapsed:   time.Since(start),
	}
}

// VerifyResult represents the result of a verification job
type VerifyResult struct {
	Index     int
	Statement model.Statement
	Response  *model.MinerResponse
	Elapsed   time.Duration
	Error     error
}

// GetError returns the error from the verification result
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many statements concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessStatements verifies statements concurrently and returns results in input order
func (b *BatchProcessor) ProcessStatements(ctx context.Context, statements []model.Statement) []*VerifyResult {
	if len(statements) == 0 {
		return []*VerifyResult{}
	}

	// Create worker pool
	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Submit jobs
	for i, st := range statements {
		pool.Submit(&VerifyJob{
			Index:     i,
			Statement: st,
			Verifier:  b.verifier,
		})
	}

	// Wait for all jobs to complete
	results := pool.Wait()

	verifyResults := make([]*VerifyResult, 0, len(results))
	for _, result := range results {
		verifyResults = append(verifyResults, result.(*VerifyResult))
	}
	sort.Slice(verifyResults, func(i, j int) bool {
		return verifyResults[i].Index < verifyResults[j].Index
	})

	return verifyResults
}

// ProcessFile reads statements from a JSON Lines file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*VerifyResult, error) {
	statements, err := ReadStatementsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read statements: %w", err)
	}

	return b.ProcessStatements(ctx, statements), nil
}

// ReadStatementsFromFile reads one JSON statement per line.
// Blank lines and # comments are skipped; repeated statements are dropped.
func ReadStatementsFromFile(filePath string) ([]model.Statement, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var statements []model.Statement
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var st model.Statement
		if err := json.Unmarshal([]byte(line), &st); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if strings.TrimSpace(st.Statement) == "" {
			return nil, fmt.Errorf("line %d: statement is required", lineNo)
		}

		// Deduplicate statements
		key := dedupKey(st)
		if !seen[key] {
			seen[key] = true
			statements = append(statements, st)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return statements, nil
}

func dedupKey(st model.Statement) string {
	if st.ID != "" {
		return "id:" + st.ID
	}
	return "text:" + st.Statement + "\x00" + st.EndDate
}
