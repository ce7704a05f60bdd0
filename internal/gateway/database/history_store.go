package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"berza/internal/market"
)

// HistoryDBStore 基于 sqlite 的成交历史缓存，实现 store.HistoryStore。
// 镜像上游抓取结果，让仪表盘在重启或数据源故障后仍能展示旧数据。
type HistoryDBStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenHistoryDB 打开（必要时创建）sqlite 文件并执行迁移。
func OpenHistoryDB(path string) (*HistoryDBStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite 路径不能为空")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开 sqlite 失败: %w", err)
	}
	s := &HistoryDBStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *HistoryDBStore) migrate() error {
	_, err := s.db.ExecContext(context.Background(), `
        CREATE TABLE IF NOT EXISTS transactions (
            company           TEXT NOT NULL,
            date              INTEGER,
            last_price        REAL,
            min               REAL,
            max               REAL,
            average_price     REAL,
            percentage_change REAL,
            quantity          REAL,
            turnover          REAL,
            total_turnover    REAL,
            sma20             REAL,
            sma50             REAL,
            ema20             REAL,
            ema50             REAL,
            bb_mid            REAL,
            rsi               REAL,
            obv               REAL,
            momentum          REAL,
            buy_signal        INTEGER NOT NULL DEFAULT 0,
            sell_signal       INTEGER NOT NULL DEFAULT 0
        );
        CREATE INDEX IF NOT EXISTS idx_transactions_company_date
            ON transactions(company, date);`)
	if err != nil {
		return fmt.Errorf("迁移 transactions 表失败: %w", err)
	}
	return nil
}

// Close 释放底层连接。
func (s *HistoryDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// sqlite 的 REAL 列无法保存 NaN，落库用 NULL 表达，读回还原为 NaN。
func nanToNull(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func nullToNaN(v sql.NullFloat64) float64 {
	if v.Valid {
		return v.Float64
	}
	return math.NaN()
}

// Put 整体替换该公司的历史序列（单事务）。
func (s *HistoryDBStore) Put(ctx context.Context, company string, txs []market.Transaction) error {
	if company == "" {
		return fmt.Errorf("company 不能为空")
	}
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return fmt.Errorf("history store 已关闭")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE company=?`, company); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO transactions
            (company, date, last_price, min, max, average_price, percentage_change,
             quantity, turnover, total_turnover, sma20, sma50, ema20, ema50,
             bb_mid, rsi, obv, momentum, buy_signal, sell_signal)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, rec := range txs {
		var date any
		if !rec.Date.IsZero() {
			date = rec.Date.UnixMilli()
		}
		if _, err := stmt.ExecContext(ctx, company, date,
			nanToNull(rec.LastPrice), nanToNull(rec.Min), nanToNull(rec.Max),
			nanToNull(rec.AveragePrice), nanToNull(rec.PercentageChange),
			nanToNull(rec.Quantity), nanToNull(rec.Turnover), nanToNull(rec.TotalTurnover),
			nanToNull(rec.SMA20), nanToNull(rec.SMA50), nanToNull(rec.EMA20), nanToNull(rec.EMA50),
			nanToNull(rec.BBMid), nanToNull(rec.RSI), nanToNull(rec.OBV), nanToNull(rec.Momentum),
			boolToInt(rec.BuySignal), boolToInt(rec.SellSignal)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get 返回该公司的历史序列（按日期升序，NULL 日期排末尾）。
func (s *HistoryDBStore) Get(ctx context.Context, company string) ([]market.Transaction, error) {
	if company == "" {
		return nil, fmt.Errorf("company 不能为空")
	}
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("history store 已关闭")
	}
	rows, err := db.QueryContext(ctx, `
        SELECT date, last_price, min, max, average_price, percentage_change,
               quantity, turnover, total_turnover, sma20, sma50, ema20, ema50,
               bb_mid, rsi, obv, momentum, buy_signal, sell_signal
        FROM transactions
        WHERE company=?
        ORDER BY date IS NULL, date ASC, rowid ASC`, company)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Transaction
	for rows.Next() {
		var (
			date                                    sql.NullInt64
			lastPrice, min, max, avg, change        sql.NullFloat64
			quantity, turnover, totalTurnover       sql.NullFloat64
			sma20, sma50, ema20, ema50, bbMid       sql.NullFloat64
			rsi, obv, momentum                      sql.NullFloat64
			buySignal, sellSignal                   int
		)
		if err := rows.Scan(&date, &lastPrice, &min, &max, &avg, &change,
			&quantity, &turnover, &totalTurnover, &sma20, &sma50, &ema20, &ema50,
			&bbMid, &rsi, &obv, &momentum, &buySignal, &sellSignal); err != nil {
			return nil, err
		}
		rec := market.Transaction{
			LastPrice:        nullToNaN(lastPrice),
			Min:              nullToNaN(min),
			Max:              nullToNaN(max),
			AveragePrice:     nullToNaN(avg),
			PercentageChange: nullToNaN(change),
			Quantity:         nullToNaN(quantity),
			Turnover:         nullToNaN(turnover),
			TotalTurnover:    nullToNaN(totalTurnover),
			SMA20:            nullToNaN(sma20),
			SMA50:            nullToNaN(sma50),
			EMA20:            nullToNaN(ema20),
			EMA50:            nullToNaN(ema50),
			BBMid:            nullToNaN(bbMid),
			RSI:              nullToNaN(rsi),
			OBV:              nullToNaN(obv),
			Momentum:         nullToNaN(momentum),
			BuySignal:        buySignal != 0,
			SellSignal:       sellSignal != 0,
		}
		if date.Valid {
			rec.Date = time.UnixMilli(date.Int64).UTC()
		}
		rec.Signal = market.ClassifySignal(rec.BuySignal, rec.SellSignal)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Companies 返回已缓存的公司代码。
func (s *HistoryDBStore) Companies(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("history store 已关闭")
	}
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT company FROM transactions ORDER BY company`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
