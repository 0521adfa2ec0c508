// Command loadtest оформляет заказы на один товар из многих горутин и
// проверяет, что журнал и остаток сходятся и товар не продан сверх остатка.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/app"
	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

const (
	outcomeOK                = "ok"
	outcomeInsufficientStock = "insufficient_stock"
	outcomeOutOfSync         = "stock_out_of_sync"
	outcomeError             = "error"

	loadSeller = "9000000000"
)

var errInvariantViolated = errors.New("stock invariant violated")

type config struct {
	total       int
	concurrency int
	stock       int64
	quantity    int64
	driver      string
	storageFile string
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type report struct {
	StartedAt       time.Time        `json:"startedAt"`
	DurationSeconds float64          `json:"durationSeconds"`
	Orders          int64            `json:"orders"`
	Outcomes        map[string]int64 `json:"outcomes"`
	RPS             float64          `json:"rps"`
	LatencyMs       latencySummary   `json:"latencyMs"`
	InitialStock    int64            `json:"initialStock"`
	FinalStock      int64            `json:"finalStock"`
	LedgerUnitsSold int64            `json:"ledgerUnitsSold"`
	AcceptedUnits   int64            `json:"acceptedUnits"`
	Consistent      bool             `json:"consistent"`
}

type collector struct {
	mu        sync.Mutex
	outcomes  map[string]int64
	latencies []float64
	accepted  int64
}

func newCollector() *collector {
	return &collector{outcomes: make(map[string]int64)}
}

func (c *collector) record(outcome string, latency time.Duration, units int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcomes[outcome]++
	c.latencies = append(c.latencies, float64(latency.Microseconds())/1000.0)
	if outcome == outcomeOK || outcome == outcomeOutOfSync {
		c.accepted += units
	}
}

func main() {
	log.SetLevel(log.WarnLevel)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseConfig(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&cfg.total, "total", 400, "orders to place")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent buyers")
	fs.Int64Var(&cfg.stock, "stock", 250, "initial stock of the contended product")
	fs.Int64Var(&cfg.quantity, "qty", 1, "units per order")
	fs.StringVar(&cfg.driver, "driver", app.StorageDriverMemory, "storage driver: memory|file")
	fs.StringVar(&cfg.storageFile, "file", "", "storage file for -driver file (default: temp file)")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	switch {
	case cfg.total <= 0:
		return cfg, errors.New("total must be > 0")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.stock <= 0:
		return cfg, errors.New("stock must be > 0")
	case cfg.quantity <= 0:
		return cfg, errors.New("qty must be > 0")
	case cfg.driver != app.StorageDriverMemory && cfg.driver != app.StorageDriverFile:
		return cfg, fmt.Errorf("unsupported driver %q (use memory|file)", cfg.driver)
	}
	return cfg, nil
}

func run(args []string, stdout io.Writer) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	appCfg := app.Config{StorageDriver: cfg.driver, StorageFile: cfg.storageFile}
	if cfg.driver == app.StorageDriverFile && appCfg.StorageFile == "" {
		dir, err := os.MkdirTemp("", "agromarket-loadtest-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		appCfg.StorageFile = filepath.Join(dir, "market.json")
	}

	deps, err := app.NewDependencies(context.Background(), appCfg, nil)
	if err != nil {
		return err
	}
	defer deps.Close()

	product, err := deps.Market.Catalog.Add(domain.ProductDraft{
		SellerMobileNumber: loadSeller,
		Name:               "Load Test Onions",
		Unit:               domain.UnitKilogram,
		PricePerUnit:       decimal.NewFromInt(25),
		CurrentStock:       cfg.stock,
	})
	if err != nil {
		return fmt.Errorf("create load product: %w", err)
	}

	result := execute(deps, product.ProductID, cfg)

	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if !result.Consistent {
		return errInvariantViolated
	}
	return nil
}

// execute раздаёт заказы воркерам и сверяет итог с журналом.
func execute(deps *app.Dependencies, productID string, cfg config) report {
	c := newCollector()
	jobs := make(chan int)
	var wg sync.WaitGroup

	startedAt := time.Now()
	for w := 0; w < cfg.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := time.Now()
				_, err := deps.Market.Ledger.Create(domain.OrderDraft{
					BuyerMobileNumber: fmt.Sprintf("8%09d", i),
					ProductID:         productID,
					QuantityOrdered:   cfg.quantity,
				})
				c.record(outcomeOf(err), time.Since(start), cfg.quantity)
			}
		}()
	}
	for i := 0; i < cfg.total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	duration := time.Since(startedAt)

	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Orders:          int64(cfg.total),
		Outcomes:        c.outcomes,
		LatencyMs:       buildLatencySummary(c.latencies),
		InitialStock:    cfg.stock,
		LedgerUnitsSold: deps.Market.Ledger.UnitsSoldFor(productID),
		AcceptedUnits:   c.accepted,
	}
	if duration > 0 {
		result.RPS = float64(cfg.total) / duration.Seconds()
	}
	if p, err := deps.Market.Catalog.Get(productID); err == nil {
		result.FinalStock = p.CurrentStock
	}

	result.Consistent = result.LedgerUnitsSold == result.AcceptedUnits &&
		result.LedgerUnitsSold <= result.InitialStock &&
		result.FinalStock == result.InitialStock-result.LedgerUnitsSold
	return result
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrInsufficientStock):
		return outcomeInsufficientStock
	case errors.Is(err, domain.ErrStockOutOfSync):
		return outcomeOutOfSync
	default:
		return outcomeError
	}
}

func writeJSONReport(path string, result report) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, value := range sorted {
		sum += value
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}
