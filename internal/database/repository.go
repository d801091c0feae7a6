package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// Repository is the durable Store the engine works against: users with
// balances and rules, the known-gift cache the differ diffs against,
// payments and the persisted log tail.
type Repository struct {
	db     *DB
	logger *logrus.Logger
}

func NewRepository(db *DB, logger *logrus.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ---------- Users ----------

// EnsureUser registers a user on first contact and refreshes the
// username, creating default rules alongside.
func (r *Repository) EnsureUser(ctx context.Context, userID int64, username string) error {
	query := `
        INSERT INTO users (user_id, username)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username
    `
	if _, err := r.db.ExecContext(ctx, query, userID, username); err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}

	rulesQuery := `INSERT INTO rules (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, rulesQuery, userID); err != nil {
		return fmt.Errorf("failed to ensure default rules: %w", err)
	}
	return nil
}

func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// AddBalance credits (or, with a negative delta, debits) a user's
// balance in a single statement; the statement itself is the only
// isolation the engine relies on.
func (r *Repository) AddBalance(ctx context.Context, userID int64, delta int64) error {
	query := `UPDATE users SET balance = COALESCE(balance, 0) + $1 WHERE user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, delta, userID); err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	return nil
}

func (r *Repository) SetAutobuy(ctx context.Context, userID int64, enabled bool) error {
	query := `UPDATE users SET autobuy = $1 WHERE user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, enabled, userID); err != nil {
		return fmt.Errorf("failed to set autobuy: %w", err)
	}
	return nil
}

func (r *Repository) IsAutobuy(ctx context.Context, userID int64) (bool, error) {
	var enabled bool
	err := r.db.QueryRowContext(ctx,
		`SELECT autobuy FROM users WHERE user_id = $1`, userID).Scan(&enabled)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to read autobuy flag: %w", err)
	}
	return enabled, nil
}

// AutobuyUsersWithRules returns every user with autobuy enabled joined
// with their rules, in registration order.
func (r *Repository) AutobuyUsersWithRules(ctx context.Context) ([]models.AutobuyUser, error) {
	query := `
        SELECT u.user_id, u.balance, r.only_limited, r.min_price, r.max_price
        FROM users u
        JOIN rules r ON r.user_id = u.user_id
        WHERE u.autobuy = TRUE
        ORDER BY u.user_id
    `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query autobuy users: %w", err)
	}
	defer rows.Close()

	var users []models.AutobuyUser
	for rows.Next() {
		var u models.AutobuyUser
		if err := rows.Scan(&u.UserID, &u.Balance, &u.OnlyLimited, &u.MinPrice, &u.MaxPrice); err != nil {
			r.logger.WithError(err).Error("Failed to scan autobuy user")
			continue
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ---------- Rules ----------

func (r *Repository) GetRules(ctx context.Context, userID int64) (*models.Rule, error) {
	query := `SELECT user_id, only_limited, min_price, max_price, updated_at FROM rules WHERE user_id = $1`

	var rule models.Rule
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&rule.UserID, &rule.OnlyLimited, &rule.MinPrice, &rule.MaxPrice, &rule.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			if err := r.EnsureUser(ctx, userID, ""); err != nil {
				return nil, err
			}
			return &models.Rule{UserID: userID, OnlyLimited: true, MaxPrice: 1000000000}, nil
		}
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}
	return &rule, nil
}

func (r *Repository) SetOnlyLimited(ctx context.Context, userID int64, enabled bool) error {
	query := `UPDATE rules SET only_limited = $1, updated_at = now() WHERE user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, enabled, userID); err != nil {
		return fmt.Errorf("failed to set only_limited: %w", err)
	}
	return nil
}

// SetPriceRange stores a normalized price window: negatives clamp to
// zero and inverted bounds are swapped, so min <= max always holds
// after any update.
func (r *Repository) SetPriceRange(ctx context.Context, userID int64, minPrice, maxPrice int64) error {
	minPrice, maxPrice = NormalizePriceRange(minPrice, maxPrice)

	query := `UPDATE rules SET min_price = $1, max_price = $2, updated_at = now() WHERE user_id = $3`
	if _, err := r.db.ExecContext(ctx, query, minPrice, maxPrice, userID); err != nil {
		return fmt.Errorf("failed to set price range: %w", err)
	}
	return nil
}

// NormalizePriceRange clamps negatives to zero and swaps inverted bounds.
func NormalizePriceRange(minPrice, maxPrice int64) (int64, int64) {
	if minPrice < 0 {
		minPrice = 0
	}
	if maxPrice < 0 {
		maxPrice = 0
	}
	if minPrice > maxPrice {
		minPrice, maxPrice = maxPrice, minPrice
	}
	return minPrice, maxPrice
}

// ---------- Gifts cache ----------

// UpsertGiftsCache persists every fetched gift, new or already known,
// so title/price drift is recorded without re-triggering the differ.
func (r *Repository) UpsertGiftsCache(ctx context.Context, gifts []models.Gift) error {
	if len(gifts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin gifts cache tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO gifts_cache (gift_id, title, price)
        VALUES ($1, $2, $3)
        ON CONFLICT (gift_id) DO UPDATE SET title = EXCLUDED.title, price = EXCLUDED.price
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare gifts cache upsert: %w", err)
	}
	defer stmt.Close()

	for _, g := range gifts {
		if _, err := stmt.ExecContext(ctx, g.ID, g.Title, g.Price); err != nil {
			return fmt.Errorf("failed to upsert gift %s: %w", g.ID, err)
		}
	}
	return tx.Commit()
}

// KnownGiftIDs returns the set of gift ids observed on earlier polls.
func (r *Repository) KnownGiftIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT gift_id FROM gifts_cache`)
	if err != nil {
		return nil, fmt.Errorf("failed to query known gift ids: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan gift id: %w", err)
		}
		known[id] = struct{}{}
	}
	return known, rows.Err()
}

// ---------- Payments / logs ----------

func (r *Repository) RecordPayment(ctx context.Context, userID int64, amount int64, payload string) error {
	query := `INSERT INTO payments (id, user_id, amount, payload) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), userID, amount, payload); err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
	}).Info("Payment recorded")
	return nil
}

// AppendLog persists one log line. Callers treat failures as non-fatal.
func (r *Repository) AppendLog(ctx context.Context, level, message string) error {
	query := `INSERT INTO logs (level, message) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, strings.ToUpper(level), message); err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// RecentLogs returns the newest persisted log lines, newest first,
// for the admin debug view.
func (r *Repository) RecentLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, level, message, ts FROM logs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent logs: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.Level, &e.Message, &e.TS); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneOldLogs removes log rows older than the retention window and
// returns how many were dropped.
func (r *Repository) PruneOldLogs(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := r.db.ExecContext(ctx, `DELETE FROM logs WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune logs: %w", err)
	}
	return res.RowsAffected()
}
