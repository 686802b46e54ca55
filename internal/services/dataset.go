package services

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"superstore-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize    = 10000
	maxWorkers   = 10
	cacheVersion = "v1"
	cacheDir     = ".cache"

	// DateLayout is the wire format for all dates (order dates, filter
	// bounds, time-series keys).
	DateLayout = "2006-01-02"
)

// requiredColumns maps normalized CSV header names to record fields. Every
// column must be present or the load fails at startup.
var requiredColumns = []string{
	"orderdate", "region", "state", "city",
	"category", "subcategory", "productname",
	"sales", "quantity", "profit",
}

// Dataset is the immutable in-memory table of order records. It is built
// once and never mutated afterwards, so concurrent readers need no locking.
type Dataset struct {
	records []models.Record
	minDate time.Time
	maxDate time.Time
}

// NewDataset builds a dataset from already-parsed records.
func NewDataset(records []models.Record) *Dataset {
	ds := &Dataset{records: records}
	for _, r := range records {
		if ds.minDate.IsZero() || r.OrderDate.Before(ds.minDate) {
			ds.minDate = r.OrderDate
		}
		if ds.maxDate.IsZero() || r.OrderDate.After(ds.maxDate) {
			ds.maxDate = r.OrderDate
		}
	}
	return ds
}

func (d *Dataset) Records() []models.Record { return d.records }

func (d *Dataset) Len() int { return len(d.records) }

// MinMaxDate returns the bounds of the full dataset.
func (d *Dataset) MinMaxDate() (time.Time, time.Time) { return d.minDate, d.maxDate }

var (
	sharedOnce sync.Once
	sharedDS   *Dataset
	sharedErr  error
)

// SharedDataset loads the dataset exactly once for the process lifetime and
// returns the same instance on every subsequent call. Reloading would be
// safe, only slow.
func SharedDataset(ctx context.Context, filename string) (*Dataset, error) {
	sharedOnce.Do(func() {
		sharedDS, sharedErr = LoadDataset(ctx, filename)
	})
	return sharedDS, sharedErr
}

type cachedDataset struct {
	Records      []models.Record
	LastModified time.Time
}

// LoadDataset parses the CSV export of the sales table. A gob cache of the
// parsed records is kept under .cache and reused while it is newer than the
// source file.
func LoadDataset(ctx context.Context, filename string) (*Dataset, error) {
	logger := slog.Default()

	if cached, err := loadFromCache(filename); err == nil {
		if info, err := os.Stat(filename); err == nil && info.ModTime().Before(cached.LastModified) {
			logger.Info("dataset loaded from cache", "records", len(cached.Records))
			return NewDataset(cached.Records), nil
		}
	}

	start := time.Now()
	records, err := parseCSV(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	if err := saveToCache(filename, records); err != nil {
		logger.Warn("failed to save dataset cache", "error", err)
	}

	logger.Info("dataset loaded",
		"filename", filename,
		"records", len(records),
		"duration", time.Since(start))

	return NewDataset(records), nil
}

func parseCSV(ctx context.Context, filename string) ([]models.Record, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	// Parse in batches; each batch writes its own slice region so row order
	// is preserved without locking.
	parsed := make([]models.Record, len(rows))
	valid := make([]bool, len(rows))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for begin := 0; begin < len(rows); begin += batchSize {
		begin, end := begin, min(begin+batchSize, len(rows))
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for i := begin; i < end; i++ {
				rec, err := parseRecord(rows[i], cols)
				if err != nil {
					continue // skip malformed rows
				}
				parsed[i] = rec
				valid[i] = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows))
	for i, ok := range valid {
		if ok {
			records = append(records, parsed[i])
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found in %s", filename)
	}
	if skipped := len(rows) - len(records); skipped > 0 {
		slog.Default().Warn("skipped malformed rows", "count", skipped)
	}

	return records, nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	replacer := strings.NewReplacer(" ", "", "-", "", "_", "")
	return replacer.Replace(h)
}

func parseRecord(row []string, cols map[string]int) (models.Record, error) {
	field := func(name string) string {
		idx := cols[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	orderDate, err := time.Parse(DateLayout, field("orderdate"))
	if err != nil {
		return models.Record{}, err
	}

	sales, err := strconv.ParseFloat(field("sales"), 64)
	if err != nil {
		return models.Record{}, err
	}

	profit, err := strconv.ParseFloat(field("profit"), 64)
	if err != nil {
		return models.Record{}, err
	}

	quantity, err := strconv.Atoi(field("quantity"))
	if err != nil {
		return models.Record{}, err
	}

	return models.Record{
		OrderDate:   orderDate,
		Region:      field("region"),
		State:       field("state"),
		City:        field("city"),
		Category:    field("category"),
		SubCategory: field("subcategory"),
		ProductName: field("productname"),
		Sales:       sales,
		Profit:      profit,
		Quantity:    quantity,
	}, nil
}

// Cache management
func cacheFilename(csvPath string) string {
	return fmt.Sprintf("%s/%s_%s.gob", cacheDir, strings.ReplaceAll(csvPath, "/", "_"), cacheVersion)
}

func saveToCache(csvPath string, records []models.Record) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(cacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(cachedDataset{
		Records:      records,
		LastModified: time.Now(),
	})
}

func loadFromCache(csvPath string) (*cachedDataset, error) {
	file, err := os.Open(cacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data cachedDataset
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
