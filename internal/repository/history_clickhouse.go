package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PokerAssist/internal/domain/models"
	domrepo "PokerAssist/internal/domain/repository"
	pkgch "PokerAssist/pkg/clickhouse"
	applogger "PokerAssist/pkg/logger"
)

const historyColumns = "id, ts, opponent_id, opponent_label, hole_cards, community_cards, num_players, my_position, pot_size, action, raise_size, ev, confidence, reasoning, reasoning_source"

// HistorySchema returns the idempotent DDL for the hand history table.
func HistorySchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.hand_history (
    id String,
    ts DateTime64(3, 'UTC'),
    opponent_id String,
    opponent_label LowCardinality(String),
    hole_cards Array(String),
    community_cards Array(String),
    num_players UInt8,
    my_position UInt8,
    pot_size Float64,
    action LowCardinality(String),
    raise_size Nullable(Float64),
    ev Nullable(Float64),
    confidence Nullable(Float64),
    reasoning String,
    reasoning_source LowCardinality(String)
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (opponent_id, ts)`, database),
	}
}

// ClickHouseHistoryStorage implements HistoryStorage for ClickHouse.
type ClickHouseHistoryStorage struct {
	db           *sql.DB
	table        string
	writeTimeout time.Duration
	l            *applogger.Logger
}

// NewClickHouseHistoryStorage creates ClickHouse storage over <database>.hand_history.
func NewClickHouseHistoryStorage(ch *pkgch.Client, database string, l *applogger.Logger) *ClickHouseHistoryStorage {
	if l == nil {
		l = applogger.NewNop()
	}
	return &ClickHouseHistoryStorage{
		db:           ch.DB(),
		table:        database + ".hand_history",
		writeTimeout: ch.WriteTimeout(),
		l:            l,
	}
}

// StoreBatch inserts records in one transaction; ClickHouse sends them as a single block.
func (s *ClickHouseHistoryStorage) StoreBatch(ctx context.Context, recs []*models.HandRecord) error {
	if len(recs) == 0 {
		return nil
	}
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s)", s.table, historyColumns))
	if err != nil {
		return fmt.Errorf("prepare history batch: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, r := range recs {
		if r == nil || r.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID,
			r.Timestamp,
			r.OpponentID,
			string(r.OpponentLabel),
			nonNil(r.HoleCards),
			nonNil(r.CommunityCards),
			clampUint8(r.NumPlayers),
			clampUint8(r.MyPosition),
			r.PotSize,
			string(r.Action),
			r.RaiseSize,
			r.EV,
			r.Confidence,
			r.Reasoning,
			string(r.ReasoningSource),
		); err != nil {
			return fmt.Errorf("append history row: %w", err)
		}
		n++
	}
	if n == 0 {
		return nil
	}
	if err := tx.Commit(); err != nil {
		s.l.Error("clickhouse hand_history insert failed", applogger.Int("rows", n), applogger.Error(err))
		return fmt.Errorf("commit history batch: %w", err)
	}
	return nil
}

// Query lists hands newest first. An empty opponentID matches every opponent.
func (s *ClickHouseHistoryStorage) Query(ctx context.Context, opponentID string, from, to time.Time, limit int) ([]*models.HandRecord, error) {
	q, args := buildHistoryQuery(s.table, opponentID, from, to, limit)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse hand_history query error",
			applogger.String("opponent_id", opponentID),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]*models.HandRecord, 0, limit)
	for rows.Next() {
		var (
			r                  models.HandRecord
			label, action, src string
			numPlayers, myPos  uint8
		)
		if err := rows.Scan(
			&r.ID, &r.Timestamp, &r.OpponentID, &label,
			&r.HoleCards, &r.CommunityCards, &numPlayers, &myPos,
			&r.PotSize, &action, &r.RaiseSize, &r.EV, &r.Confidence,
			&r.Reasoning, &src,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.OpponentLabel = models.Label(label)
		r.Action = models.Action(action)
		r.ReasoningSource = models.ReasoningSource(src)
		r.NumPlayers = int(numPlayers)
		r.MyPosition = int(myPos)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *ClickHouseHistoryStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func buildHistoryQuery(table, opponentID string, from, to time.Time, limit int) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if opponentID != "" {
		conds = append(conds, "opponent_id = ?")
		args = append(args, opponentID)
	}
	if !from.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, to)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", historyColumns, table)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY ts DESC LIMIT ?")
	args = append(args, limit)
	return b.String(), args
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clampUint8(n int) uint8 {
	switch {
	case n < 0:
		return 0
	case n > 255:
		return 255
	default:
		return uint8(n)
	}
}

var _ domrepo.HistoryStorage = (*ClickHouseHistoryStorage)(nil)
