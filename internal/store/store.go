package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"

	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/store/config"
)

type Store interface {
	LoadUser(ctx context.Context, userID string) (model.UserState, error)
	SaveUser(ctx context.Context, state model.UserState) error
	AppendPurchase(ctx context.Context, record model.PurchaseRecord) error
	ListPurchases(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error)
	LastPurchase(ctx context.Context, userID string) (model.PurchaseRecord, error)
	DeletePurchase(ctx context.Context, userID string, id int64) (model.PurchaseRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	ErrNoRows        = errors.New("no rows")
	ErrAlreadyExists = errors.New("already exists")
)

type store struct {
	database *sql.DB
}

func NewStore(cfg config.Config) (Store, error) {
	db, err := sql.Open(cfg.DBDriver, cfg.DBDsn)
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == config.DriverSQLite {
		// sqlite не любит параллельную запись
		db.SetMaxOpenConns(1)
	}

	// Состояние пользователя: ограничения, бюджеты, счётчики прогона.
	// Одна строка на пользователя, перезаписывается целиком
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS user_state (" +
			" user_id VARCHAR (64) PRIMARY KEY," +
			" state VARCHAR (10) NOT NULL," +
			" stop_reason VARCHAR (32) NOT NULL," +
			" run_id VARCHAR (40) NOT NULL," +
			" notifications BOOLEAN NOT NULL," +
			" constraints TEXT NOT NULL," +
			" budgets TEXT NOT NULL," +
			" balance BIGINT NOT NULL," +
			" day_key VARCHAR (10) NOT NULL," +
			" daily_spent BIGINT NOT NULL," +
			" daily_budget BIGINT NOT NULL," +
			" overall_remaining BIGINT," +
			" supply_remaining BIGINT," +
			" cycles_remaining BIGINT," +
			" total_purchases BIGINT NOT NULL," +
			" total_spent BIGINT NOT NULL," +
			" total_alerts BIGINT NOT NULL," +
			" total_failures BIGINT NOT NULL" +
			" );")
	if err != nil {
		db.Close()
		return nil, err
	}

	// Журнал покупок. Записи не редактируются, удаляются только возвратом
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS purchase (" +
			" id BIGINT PRIMARY KEY," +
			" user_id VARCHAR (64) NOT NULL," +
			" run_id VARCHAR (40) NOT NULL," +
			" offer_id VARCHAR (64) NOT NULL," +
			" title TEXT NOT NULL," +
			" price BIGINT NOT NULL," +
			" mode VARCHAR (10) NOT NULL," +
			" created_at BIGINT NOT NULL" +
			" );")
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS purchase_user_idx ON purchase (user_id, id);")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &store{
		database: db,
	}, nil
}

func (store *store) LoadUser(ctx context.Context, userID string) (model.UserState, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT user_id, state, stop_reason, run_id, notifications, constraints, budgets,"+
			" balance, day_key, daily_spent, daily_budget, overall_remaining, supply_remaining, cycles_remaining,"+
			" total_purchases, total_spent, total_alerts, total_failures"+
			" FROM user_state"+
			" WHERE user_id = $1",
		userID)

	var (
		state                   model.UserState
		constraints, budgets    string
		overall, supply, cycles sql.NullInt64
		runState, reason        string
	)
	err := row.Scan(&state.UserID,
		&runState,
		&reason,
		&state.RunID,
		&state.Notifications,
		&constraints,
		&budgets,
		&state.Ledger.Balance,
		&state.Ledger.DayKey,
		&state.Ledger.DailySpent,
		&state.Ledger.DailyBudget,
		&overall,
		&supply,
		&cycles,
		&state.Totals.Purchases,
		&state.Totals.Spent,
		&state.Totals.Alerts,
		&state.Totals.Failures)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.UserState{}, ErrNoRows
		}
		return model.UserState{}, err
	}

	state.State = model.RunState(runState)
	state.Reason = model.StopReason(reason)
	state.Ledger.OverallRemaining = fromNull(overall)
	state.Ledger.SupplyRemaining = fromNull(supply)
	state.Ledger.CyclesRemaining = fromNull(cycles)
	if err := json.Unmarshal([]byte(constraints), &state.Constraints); err != nil {
		return model.UserState{}, err
	}
	if err := json.Unmarshal([]byte(budgets), &state.Budgets); err != nil {
		return model.UserState{}, err
	}
	return state, nil
}

func (store *store) SaveUser(ctx context.Context, state model.UserState) error {
	constraints, err := json.Marshal(state.Constraints)
	if err != nil {
		return err
	}
	budgets, err := json.Marshal(state.Budgets)
	if err != nil {
		return err
	}

	_, err = store.database.ExecContext(ctx,
		"INSERT INTO user_state (user_id, state, stop_reason, run_id, notifications, constraints, budgets,"+
			" balance, day_key, daily_spent, daily_budget, overall_remaining, supply_remaining, cycles_remaining,"+
			" total_purchases, total_spent, total_alerts, total_failures)"+
			" VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)"+
			" ON CONFLICT (user_id) DO UPDATE SET"+
			" state = excluded.state,"+
			" stop_reason = excluded.stop_reason,"+
			" run_id = excluded.run_id,"+
			" notifications = excluded.notifications,"+
			" constraints = excluded.constraints,"+
			" budgets = excluded.budgets,"+
			" balance = excluded.balance,"+
			" day_key = excluded.day_key,"+
			" daily_spent = excluded.daily_spent,"+
			" daily_budget = excluded.daily_budget,"+
			" overall_remaining = excluded.overall_remaining,"+
			" supply_remaining = excluded.supply_remaining,"+
			" cycles_remaining = excluded.cycles_remaining,"+
			" total_purchases = excluded.total_purchases,"+
			" total_spent = excluded.total_spent,"+
			" total_alerts = excluded.total_alerts,"+
			" total_failures = excluded.total_failures",
		state.UserID,
		string(state.State),
		string(state.Reason),
		state.RunID,
		state.Notifications,
		string(constraints),
		string(budgets),
		state.Ledger.Balance,
		state.Ledger.DayKey,
		state.Ledger.DailySpent,
		state.Ledger.DailyBudget,
		toNull(state.Ledger.OverallRemaining),
		toNull(state.Ledger.SupplyRemaining),
		toNull(state.Ledger.CyclesRemaining),
		state.Totals.Purchases,
		state.Totals.Spent,
		state.Totals.Alerts,
		state.Totals.Failures)
	return err
}

func (store *store) AppendPurchase(ctx context.Context, record model.PurchaseRecord) error {
	_, err := store.database.ExecContext(ctx,
		"INSERT INTO purchase (id, user_id, run_id, offer_id, title, price, mode, created_at)"+
			" VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		record.ID,
		record.UserID,
		record.RunID,
		record.OfferID,
		record.Title,
		record.Price,
		string(record.Mode),
		record.Timestamp.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ListPurchases - последние покупки, новые первыми
func (store *store) ListPurchases(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, user_id, run_id, offer_id, title, price, mode, created_at"+
			" FROM purchase"+
			" WHERE user_id = $1"+
			" ORDER BY id DESC"+
			" LIMIT $2",
		userID,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.PurchaseRecord
	for rows.Next() {
		record, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (store *store) LastPurchase(ctx context.Context, userID string) (model.PurchaseRecord, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT id, user_id, run_id, offer_id, title, price, mode, created_at"+
			" FROM purchase"+
			" WHERE user_id = $1"+
			" ORDER BY id DESC"+
			" LIMIT 1",
		userID)
	record, err := scanPurchase(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.PurchaseRecord{}, ErrNoRows
		}
		return model.PurchaseRecord{}, err
	}
	return record, nil
}

// DeletePurchase удаляет запись при возврате и отдаёт её для компенсации
func (store *store) DeletePurchase(ctx context.Context, userID string, id int64) (model.PurchaseRecord, error) {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return model.PurchaseRecord{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT id, user_id, run_id, offer_id, title, price, mode, created_at"+
			" FROM purchase"+
			" WHERE user_id = $1"+
			"   AND id = $2",
		userID,
		id)
	record, err := scanPurchase(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.PurchaseRecord{}, ErrNoRows
		}
		return model.PurchaseRecord{}, err
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM purchase"+
			" WHERE user_id = $1"+
			"   AND id = $2",
		userID,
		id)
	if err != nil {
		return model.PurchaseRecord{}, err
	}
	return record, tx.Commit()
}

func (store *store) Ping(ctx context.Context) error {
	return store.database.PingContext(ctx)
}

func (store *store) Close() error {
	return store.database.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row scanner) (model.PurchaseRecord, error) {
	var (
		record    model.PurchaseRecord
		mode      string
		createdAt int64
	)
	err := row.Scan(&record.ID,
		&record.UserID,
		&record.RunID,
		&record.OfferID,
		&record.Title,
		&record.Price,
		&mode,
		&createdAt)
	if err != nil {
		return model.PurchaseRecord{}, err
	}
	record.Mode = model.PurchaseMode(mode)
	record.Timestamp = time.UnixMilli(createdAt).UTC()
	return record, nil
}

// Проверка: уже существует (postgres 23505 или ограничение sqlite)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

func toNull(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func fromNull(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}
