package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"retail-dashboard/internal/models"
)

const (
	batchSize  = 2000
	maxWorkers = 4
)

var requiredColumns = []string{
	models.ColumnDate,
	models.ColumnBranch,
	models.ColumnCity,
	models.ColumnCustomerType,
	models.ColumnGender,
	models.ColumnProductLine,
	models.ColumnPayment,
	models.ColumnTotal,
	models.ColumnGrossIncome,
	models.ColumnRating,
}

type Loader struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Digest identifies an upload by content.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse reads the first sheet of an xlsx workbook into a Dataset. Dates that
// cannot be read are kept as missing; only an unreadable workbook or a sheet
// without the expected columns fails.
func (l *Loader) Parse(ctx context.Context, name string, data []byte) (*models.Dataset, error) {
	start := time.Now()

	if len(data) == 0 {
		return nil, newParseError(name, "empty file", nil)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, newParseError(name, "not a readable spreadsheet", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, newParseError(name, "workbook has no sheets", nil)
	}

	rows, err := wb.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, newParseError(name, "read sheet "+sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, newParseError(name, "sheet is empty", nil)
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, newParseError(name, "header", err)
	}

	records, err := parseRows(ctx, rows[1:], cols)
	if err != nil {
		return nil, fmt.Errorf("parse rows: %w", err)
	}

	ds := &models.Dataset{
		ID:       uuid.NewString(),
		Name:     name,
		Digest:   Digest(data),
		LoadedAt: time.Now(),
		Records:  records,
	}
	for _, r := range records {
		if !r.HasDate() {
			ds.MissingDates++
		}
	}

	l.logger.Info("workbook parsed",
		"name", name,
		"sheet", sheets[0],
		"records", len(records),
		"missing_dates", ds.MissingDates,
		"duration", time.Since(start),
	)
	return ds, nil
}

type columnIndex map[string]int

func mapColumns(header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, seen := byName[key]; !seen {
			byName[key] = i
		}
	}

	cols := make(columnIndex, len(requiredColumns))
	var missing []string
	for _, c := range requiredColumns {
		idx, ok := byName[normalizeHeader(c)]
		if !ok {
			missing = append(missing, c)
			continue
		}
		cols[c] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// parseRows converts rows in parallel batches. Each batch writes to its own
// slice window so output order matches sheet order.
func parseRows(ctx context.Context, rows [][]string, cols columnIndex) ([]models.Record, error) {
	parsed := make([]models.Record, len(rows))
	keep := make([]bool, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for lo := 0; lo < len(rows); lo += batchSize {
		hi := min(lo+batchSize, len(rows))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if blankRow(rows[i]) {
					continue
				}
				parsed[i] = parseRecord(rows[i], cols)
				keep[i] = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows))
	for i := range parsed {
		if keep[i] {
			records = append(records, parsed[i])
		}
	}
	return records, nil
}

func parseRecord(row []string, cols columnIndex) models.Record {
	get := func(col string) string {
		if idx := cols[col]; idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	r := models.Record{
		Branch:       get(models.ColumnBranch),
		City:         get(models.ColumnCity),
		CustomerType: get(models.ColumnCustomerType),
		Gender:       get(models.ColumnGender),
		ProductLine:  get(models.ColumnProductLine),
		Payment:      get(models.ColumnPayment),
		Total:        parseAmount(get(models.ColumnTotal)),
		GrossIncome:  parseAmount(get(models.ColumnGrossIncome)),
	}
	if rating, ok := parseNumber(get(models.ColumnRating)); ok {
		r.Rating = rating
	} else {
		r.RatingMissing = true
	}
	if d, ok := parseDate(get(models.ColumnDate)); ok {
		r.Date = d
		r.Month = monthOf(d)
	}
	return r
}

// parseAmount strips thousands separators and currency symbols. Values that
// still do not parse count as zero.
func parseAmount(s string) float64 {
	f, _ := parseNumber(s)
	return f
}

// parseNumber is parseAmount that also reports whether the cell held a number.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', '€', '£', ' ':
			return -1
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
