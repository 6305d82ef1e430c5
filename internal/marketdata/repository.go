package marketdata

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-backtest/internal/contracts"
)

// DailyPrice is one stored daily bar.
type DailyPrice struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// SignalScore is one stored strategy score.
type SignalScore struct {
	Symbol string
	Date   time.Time
	Score  float64
}

// Repository loads and stores market data
/// ⭐ SSOT: 가격/시그널 데이터 저장소는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new market data repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SavePrices upserts daily bars.
func (r *Repository) SavePrices(ctx context.Context, prices []DailyPrice) error {
	query := `
		INSERT INTO data.daily_prices (symbol, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	for _, p := range prices {
		if _, err := r.pool.Exec(ctx, query,
			p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume,
		); err != nil {
			return err
		}
	}
	return nil
}

// SaveScores upserts signal scores.
func (r *Repository) SaveScores(ctx context.Context, scores []SignalScore) error {
	query := `
		INSERT INTO data.signal_scores (symbol, trade_date, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			score = EXCLUDED.score
	`

	for _, s := range scores {
		if _, err := r.pool.Exec(ctx, query, s.Symbol, s.Date, s.Score); err != nil {
			return err
		}
	}
	return nil
}

// LoadPriceFrame materializes close prices as a Frame for the given range.
// An empty symbol list loads every stored symbol. Missing cells are NaN.
func (r *Repository) LoadPriceFrame(ctx context.Context, from, to time.Time, symbols []string) (*contracts.Frame, error) {
	query := `
		SELECT symbol, trade_date, close_price
		FROM data.daily_prices
		WHERE trade_date BETWEEN $1 AND $2
		  AND ($3::text[] IS NULL OR symbol = ANY($3))
		ORDER BY trade_date ASC, symbol ASC
	`

	var symFilter interface{}
	if len(symbols) > 0 {
		symFilter = symbols
	}

	rows, err := r.pool.Query(ctx, query, from, to, symFilter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cells := make(map[int64]map[string]float64)
	symSet := make(map[string]bool)
	for rows.Next() {
		var sym string
		var date time.Time
		var px float64
		if err := rows.Scan(&sym, &date, &px); err != nil {
			return nil, err
		}
		day := contracts.Day(date).Unix()
		if cells[day] == nil {
			cells[day] = make(map[string]float64)
		}
		cells[day][sym] = px
		symSet[sym] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return buildFrame(cells, symSet)
}

// LoadSignalFrame materializes signal scores as a Frame for the given range.
func (r *Repository) LoadSignalFrame(ctx context.Context, from, to time.Time, symbols []string) (*contracts.Frame, error) {
	query := `
		SELECT symbol, trade_date, score
		FROM data.signal_scores
		WHERE trade_date BETWEEN $1 AND $2
		  AND ($3::text[] IS NULL OR symbol = ANY($3))
		ORDER BY trade_date ASC, symbol ASC
	`

	var symFilter interface{}
	if len(symbols) > 0 {
		symFilter = symbols
	}

	rows, err := r.pool.Query(ctx, query, from, to, symFilter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cells := make(map[int64]map[string]float64)
	symSet := make(map[string]bool)
	for rows.Next() {
		var sym string
		var date time.Time
		var score float64
		if err := rows.Scan(&sym, &date, &score); err != nil {
			return nil, err
		}
		day := contracts.Day(date).Unix()
		if cells[day] == nil {
			cells[day] = make(map[string]float64)
		}
		cells[day][sym] = score
		symSet[sym] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return buildFrame(cells, symSet)
}

// ListSymbols returns every symbol with stored prices, sorted.
func (r *Repository) ListSymbols(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT symbol FROM data.daily_prices ORDER BY symbol ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// buildFrame assembles a Frame from sparse (date, symbol) cells.
func buildFrame(cells map[int64]map[string]float64, symSet map[string]bool) (*contracts.Frame, error) {
	days := make([]int64, 0, len(cells))
	for d := range cells {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	symbols := make([]string, 0, len(symSet))
	for s := range symSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	dates := make([]time.Time, len(days))
	values := make([][]float64, len(days))
	for i, day := range days {
		dates[i] = time.Unix(day, 0).UTC()
		row := make([]float64, len(symbols))
		for j, sym := range symbols {
			if v, ok := cells[day][sym]; ok {
				row[j] = v
			} else {
				row[j] = math.NaN()
			}
		}
		values[i] = row
	}

	return contracts.NewFrame(dates, symbols, values)
}
