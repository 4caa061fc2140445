// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/starquest/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrParentExists возвращается при попытке зарегистрировать родителя с уже существующим e-mail.
var (
	ErrParentExists = errors.New("parent already exists")
	// ErrParentNotFound возвращается, если родитель не найден.
	ErrParentNotFound = errors.New("parent not found")
	// ErrChildNotFound возвращается, если ребёнок не найден в семье.
	ErrChildNotFound = errors.New("child not found")
	// ErrSnapshotNotFound возвращается при восстановлении демо-данных семьи без сохранённого снимка.
	ErrSnapshotNotFound = errors.New("demo snapshot not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(retryDelays) {
			break
		}

		timer := time.NewTimer(retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

// restoreError переводит отсутствие снимка (no_data_found) в ErrSnapshotNotFound.
func restoreError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NoDataFound {
		return ErrSnapshotNotFound
	}
	return fmt.Errorf("restore demo data: %w", err)
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateParent создаёт семью и её первого родителя в одной транзакции.
func (r *PostgresRepository) CreateParent(ctx context.Context, familyName, email, name, locale string, passwordHash []byte) (*model.Parent, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p := model.Parent{
		Email:        email,
		Name:         name,
		Locale:       locale,
		PasswordHash: passwordHash,
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO families (name) VALUES ($1) RETURNING id`,
		familyName,
	).Scan(&p.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO parents (family_id, email, name, locale, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		p.FamilyID, email, name, locale, passwordHash,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrParentExists, email)
		}
		return nil, fmt.Errorf("insert parent: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &p, nil
}

const parentColumns = `id, family_id, email, name, locale, password_hash, created_at`

func scanParent(row pgx.Row) (*model.Parent, error) {
	var p model.Parent
	err := row.Scan(&p.ID, &p.FamilyID, &p.Email, &p.Name, &p.Locale, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParentNotFound
		}
		return nil, fmt.Errorf("get parent: %w", err)
	}
	return &p, nil
}

// GetParentByEmail возвращает родителя по e-mail.
func (r *PostgresRepository) GetParentByEmail(ctx context.Context, email string) (*model.Parent, error) {
	return scanParent(r.pool.QueryRow(ctx,
		`SELECT `+parentColumns+` FROM parents WHERE email = $1`,
		email,
	))
}

// GetParent возвращает родителя по идентификатору.
func (r *PostgresRepository) GetParent(ctx context.Context, id uuid.UUID) (*model.Parent, error) {
	return scanParent(r.pool.QueryRow(ctx,
		`SELECT `+parentColumns+` FROM parents WHERE id = $1`,
		id,
	))
}

// GetChildBalance возвращает сырые данные баланса и кредита ребёнка. Производные поля не заполняются.
func (r *PostgresRepository) GetChildBalance(ctx context.Context, familyID, childID uuid.UUID) (*model.ChildBalance, error) {
	var b model.ChildBalance
	err := r.pool.QueryRow(ctx,
		`SELECT c.id, c.name,
		        COALESCE(b.current_stars, 0), COALESCE(b.lifetime_stars, 0),
		        COALESCE(s.credit_enabled, FALSE), COALESCE(s.credit_limit, 0)
		 FROM children c
		 LEFT JOIN child_balances b ON b.child_id = c.id
		 LEFT JOIN child_credit_settings s ON s.child_id = c.id
		 WHERE c.family_id = $1 AND c.id = $2`,
		familyID, childID,
	).Scan(&b.ChildID, &b.Name, &b.CurrentStars, &b.LifetimeStars, &b.CreditEnabled, &b.CreditLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChildNotFound
		}
		return nil, fmt.Errorf("get child balance: %w", err)
	}
	return &b, nil
}

// ListInterestTiers возвращает ступени процентных ставок семьи в порядке tier_order.
func (r *PostgresRepository) ListInterestTiers(ctx context.Context, familyID uuid.UUID) ([]model.CreditInterestTier, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tier_order, min_debt, max_debt, interest_rate::text
		 FROM credit_interest_tiers
		 WHERE family_id = $1
		 ORDER BY tier_order`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("select interest tiers: %w", err)
	}
	defer rows.Close()

	var tiers []model.CreditInterestTier
	for rows.Next() {
		var (
			t    model.CreditInterestTier
			rate string
		)
		if err := rows.Scan(&t.TierOrder, &t.MinDebt, &t.MaxDebt, &rate); err != nil {
			return nil, fmt.Errorf("scan interest tier: %w", err)
		}
		t.InterestRate, err = decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("parse interest rate %q: %w", rate, err)
		}
		tiers = append(tiers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tiers, nil
}

// ListPendingActivities возвращает записи о заданиях семьи, ожидающие проверки.
func (r *PostgresRepository) ListPendingActivities(ctx context.Context, familyID uuid.UUID) ([]model.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, child_id, quest_title, stars, status, child_note, parent_response, created_at
		 FROM star_transactions
		 WHERE family_id = $1 AND status = $2
		 ORDER BY created_at DESC`,
		familyID, string(model.ReviewStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("select pending activities: %w", err)
	}
	defer rows.Close()

	var res []model.Activity
	for rows.Next() {
		var (
			a      model.Activity
			status string
		)
		if err := rows.Scan(&a.ID, &a.ChildID, &a.QuestTitle, &a.Stars, &status, &a.ChildNote, &a.ParentResponse, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Status = model.ReviewStatus(status)
		res = append(res, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListPendingRedemptions возвращает запросы на награды, ожидающие проверки.
func (r *PostgresRepository) ListPendingRedemptions(ctx context.Context, familyID uuid.UUID) ([]model.Redemption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, child_id, reward_name, stars_spent, status, child_note, parent_response, created_at
		 FROM redemptions
		 WHERE family_id = $1 AND status = $2
		 ORDER BY created_at DESC`,
		familyID, string(model.ReviewStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("select pending redemptions: %w", err)
	}
	defer rows.Close()

	var res []model.Redemption
	for rows.Next() {
		var (
			rd     model.Redemption
			status string
		)
		if err := rows.Scan(&rd.ID, &rd.ChildID, &rd.RewardName, &rd.StarsSpent, &status, &rd.ChildNote, &rd.ParentResponse, &rd.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		rd.Status = model.ReviewStatus(status)
		res = append(res, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateByIDs одним запросом обновляет поля всех строк table семьи familyID с id из ids.
// Атомарность обеспечивает сам PostgreSQL, конфликт сериализации повторяется.
func (r *PostgresRepository) UpdateByIDs(ctx context.Context, table string, familyID uuid.UUID, ids []string, fields map[string]any) error {
	query, args, err := buildBatchUpdate(table, familyID, ids, fields)
	if err != nil {
		return err
	}

	return withRetry(ctx, func() error {
		if _, err := r.pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("batch update %s: %w", table, err)
		}
		return nil
	})
}

// RunMonthlySettlement запускает ежемесячный расчёт процентов на стороне БД.
func (r *PostgresRepository) RunMonthlySettlement(ctx context.Context) error {
	return withRetry(ctx, func() error {
		if _, err := r.pool.Exec(ctx, `SELECT run_monthly_settlement()`); err != nil {
			return fmt.Errorf("run monthly settlement: %w", err)
		}
		return nil
	})
}

// SaveDemoSnapshot сохраняет снимок демо-данных семьи.
func (r *PostgresRepository) SaveDemoSnapshot(ctx context.Context, familyID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `SELECT save_demo_snapshot($1)`, familyID); err != nil {
		return fmt.Errorf("save demo snapshot: %w", err)
	}
	return nil
}

// RestoreDemoData восстанавливает демо-данные семьи из снимка.
func (r *PostgresRepository) RestoreDemoData(ctx context.Context, familyID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `SELECT restore_demo_data($1)`, familyID); err != nil {
		return restoreError(err)
	}
	return nil
}

// AdminDeleteChild удаляет ребёнка и все связанные с ним данные.
func (r *PostgresRepository) AdminDeleteChild(ctx context.Context, familyID, childID uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM children WHERE family_id = $1 AND id = $2)`,
		familyID, childID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check child: %w", err)
	}
	if !exists {
		return ErrChildNotFound
	}

	if _, err := r.pool.Exec(ctx, `SELECT admin_delete_child($1)`, childID); err != nil {
		return fmt.Errorf("admin delete child: %w", err)
	}
	return nil
}

// CreateFamilyInvite создаёт приглашение в семью и возвращает его код.
func (r *PostgresRepository) CreateFamilyInvite(ctx context.Context, familyID uuid.UUID, email string) (string, error) {
	var code string
	err := r.pool.QueryRow(ctx, `SELECT create_family_invite($1, $2)`, familyID, email).Scan(&code)
	if err != nil {
		return "", fmt.Errorf("create family invite: %w", err)
	}
	return code, nil
}
