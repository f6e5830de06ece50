package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jthadison/wyckvol/internal/wyckoff"
)

// CSVProvider loads historical bars from local CSV files, one file per
// symbol, named "<symbol>.csv" under Dir. Grounded in the teacher's
// data/cold CSVReader (header-driven column mapping, multi-format
// timestamp parsing): this is a local-file loader, not an
// exchange/vendor adapter, so it stays in scope even though concrete
// market-data fetch adapters are a Non-goal.
type CSVProvider struct {
	Dir         string
	dateFormats []string
}

// NewCSVProvider builds a CSVProvider reading "<symbol>.csv" files
// from dir.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{
		Dir: dir,
		dateFormats: []string{
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		},
	}
}

func (p *CSVProvider) parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range p.dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

// FetchHistorical implements Provider.
func (p *CSVProvider) FetchHistorical(ctx context.Context, symbol string, start, end time.Time, timeframe wyckoff.Timeframe, assetClass wyckoff.AssetClass) ([]wyckoff.OHLCVBar, error) {
	path := filepath.Join(p.Dir, strings.ToUpper(symbol)+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv provider: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv provider: reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var bars []wyckoff.OHLCVBar
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv provider: reading row: %w", err)
		}

		ts, err := p.parseTime(record[col["timestamp"]])
		if err != nil {
			continue
		}
		if ts.Before(start) || ts.After(end) {
			continue
		}

		bar := wyckoff.OHLCVBar{
			Symbol:    symbol,
			Timeframe: timeframe,
			Timestamp: ts,
			Open:      decimalAt(record, col, "open"),
			High:      decimalAt(record, col, "high"),
			Low:       decimalAt(record, col, "low"),
			Close:     decimalAt(record, col, "close"),
			Volume:    decimalAt(record, col, "volume"),
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func decimalAt(record []string, col map[string]int, name string) decimal.Decimal {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(record[i]))
	if err != nil {
		return decimal.Zero
	}
	return d
}
