package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ofi-Services/unified-backend/model"
)

//go:embed schema_postgres.sql
var postgresSchema string

const pgUniqueViolation = "23505"

// PgStore is a PostgreSQL-backed Store using pgx/v5.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a store over an existing pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// OpenPostgres connects to dsn, applies the schema and returns the store.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32) (*PgStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	return NewPgStore(pool), nil
}

const pgCaseColumns = `id, type, branch, ramo, broker, client, creator, value, insurance,
	insurance_creation, insurance_start, insurance_end, state, avg_time, approved`

// CreateCase inserts a new case.
func (s *PgStore) CreateCase(ctx context.Context, c model.Case) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cases (`+pgCaseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID, string(c.Type), c.Branch, c.Ramo, c.Broker, c.Client, c.Creator, c.Value, c.InsuranceNumber,
		c.InsuranceCreation.UTC(), c.InsuranceStart.UTC(), c.InsuranceEnd.UTC(), c.State, c.AvgTime, c.Approved,
	)
	if isUniqueViolation(err) {
		return model.NewConflictError(fmt.Sprintf("case %d already exists", c.ID))
	}
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

// UpdateCase updates the mutable fields of a case.
func (s *PgStore) UpdateCase(ctx context.Context, c model.Case) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE cases SET state = $2, avg_time = $3, approved = $4
		WHERE id = $1`,
		c.ID, c.State, c.AvgTime, c.Approved,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(fmt.Sprintf("case %d not found", c.ID))
	}
	return nil
}

// GetCase retrieves a case by id.
func (s *PgStore) GetCase(ctx context.Context, id int) (model.Case, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgCaseColumns+` FROM cases WHERE id = $1`, id)
	c, err := scanPgCase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Case{}, model.NewNotFoundError(fmt.Sprintf("case %d not found", id))
	}
	if err != nil {
		return model.Case{}, fmt.Errorf("query case: %w", err)
	}
	return c, nil
}

// ListCases returns a page of cases ordered by id.
func (s *PgStore) ListCases(ctx context.Context, page Page) ([]model.Case, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cases`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+pgCaseColumns+` FROM cases ORDER BY id`+postgresDialect.limit(page))
	if err != nil {
		return nil, 0, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	out := []model.Case{}
	for rows.Next() {
		c, err := scanPgCase(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// CaseIDs returns every case id, sorted.
func (s *PgStore) CaseIDs(ctx context.Context) ([]int, error) {
	return s.queryInts(ctx, `SELECT id FROM cases ORDER BY id`)
}

// SetCaseAvgTimes writes avg_time for each case in the map.
func (s *PgStore) SetCaseAvgTimes(ctx context.Context, avg map[int]float64) error {
	b := &pgx.Batch{}
	for id, v := range avg {
		b.Queue(`UPDATE cases SET avg_time = $2 WHERE id = $1`, id, v)
	}
	return s.sendBatch(ctx, b, "update case avg_time")
}

// AppendActivity inserts an activity and assigns its ID.
func (s *PgStore) AppendActivity(ctx context.Context, a *model.Activity) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO activities (case_id, case_index, name, ts, tpt, rework, automatic)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		a.CaseID, a.CaseIndex, a.Name, a.Timestamp.UTC(), a.TPT, a.Rework, a.Automatic,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

const pgActivityColumns = `a.id, a.case_id, a.case_index, a.name, a.ts, a.tpt, a.rework, a.automatic`

// FirstActivity returns the earliest-stored activity of a case with a name.
func (s *PgStore) FirstActivity(ctx context.Context, caseID int, name string) (model.Activity, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+pgActivityColumns+`
		FROM activities a
		WHERE a.case_id = $1 AND a.name = $2
		ORDER BY a.id
		LIMIT 1`,
		caseID, name,
	)
	a, err := scanPgActivity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Activity{}, false, nil
	}
	if err != nil {
		return model.Activity{}, false, fmt.Errorf("query first activity: %w", err)
	}
	return a, true, nil
}

// ListActivities returns a page of matching activities ordered by timestamp.
func (s *PgStore) ListActivities(ctx context.Context, f ActivityFilter, page Page) ([]model.Activity, int, error) {
	from, args := activityWhere(postgresDialect, f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	out, err := s.queryActivities(ctx, `SELECT `+pgActivityColumns+from+` ORDER BY a.ts, a.id`+postgresDialect.limit(page), args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllActivities returns every activity in storage order.
func (s *PgStore) AllActivities(ctx context.Context) ([]model.Activity, error) {
	return s.queryActivities(ctx, `SELECT `+pgActivityColumns+` FROM activities a ORDER BY a.id`)
}

// SetActivityTPTs writes tpt for each activity in the map.
func (s *PgStore) SetActivityTPTs(ctx context.Context, tpt map[int64]float64) error {
	b := &pgx.Batch{}
	for id, v := range tpt {
		b.Queue(`UPDATE activities SET tpt = $2 WHERE id = $1`, id, v)
	}
	return s.sendBatch(ctx, b, "update activity tpt")
}

// ActivityNames returns the distinct activity names, sorted.
func (s *PgStore) ActivityNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT name FROM activities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query activity names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan activity names: %w", err)
	}
	return names, nil
}

// ActivityCaseIDs returns the distinct case ids with activities, sorted.
func (s *PgStore) ActivityCaseIDs(ctx context.Context) ([]int, error) {
	return s.queryInts(ctx, `SELECT DISTINCT case_id FROM activities ORDER BY case_id`)
}

// CountActivityCases counts distinct cases with an activity in [from, to].
func (s *PgStore) CountActivityCases(ctx context.Context, from, to time.Time) (int, error) {
	clause, args := activityWhere(postgresDialect, ActivityFilter{From: from, To: to})
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT a.case_id)`+clause, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activity cases: %w", err)
	}
	return n, nil
}

// CreateRework inserts a rework and assigns its ID.
func (s *PgStore) CreateRework(ctx context.Context, r *model.Rework) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO reworks (activity_id, target, cost, cause)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		r.ActivityID, r.Target, r.Cost, r.Cause,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert rework: %w", err)
	}
	return nil
}

// ListReworks returns every rework ordered by id.
func (s *PgStore) ListReworks(ctx context.Context) ([]model.Rework, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, activity_id, target, cost, cause FROM reworks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query reworks: %w", err)
	}
	defer rows.Close()

	out := []model.Rework{}
	for rows.Next() {
		var r model.Rework
		if err := rows.Scan(&r.ID, &r.ActivityID, &r.Target, &r.Cost, &r.Cause); err != nil {
			return nil, fmt.Errorf("scan rework: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateBill inserts a bill and assigns its ID.
func (s *PgStore) CreateBill(ctx context.Context, b *model.Bill) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO bills (case_id, value, ts)
		VALUES ($1, $2, $3)
		RETURNING id`,
		b.CaseID, b.Value, b.Timestamp.UTC(),
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// ListBills returns the bills of a case ordered by timestamp.
func (s *PgStore) ListBills(ctx context.Context, caseID int) ([]model.Bill, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, case_id, value, ts FROM bills
		WHERE case_id = $1
		ORDER BY ts, id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	out := []model.Bill{}
	for rows.Next() {
		var b model.Bill
		if err := rows.Scan(&b.ID, &b.CaseID, &b.Value, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		b.Timestamp = b.Timestamp.UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReplaceVariants swaps the whole variant set in one transaction. IDs are
// the 1-based positions in vs.
func (s *PgStore) ReplaceVariants(ctx context.Context, vs []model.Variant) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM variants`); err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}
	for i := range vs {
		activities, cases, err := marshalVariant(vs[i])
		if err != nil {
			return err
		}
		vs[i].ID = int64(i + 1)
		_, err = tx.Exec(ctx, `
			INSERT INTO variants (id, activities, cases, number_cases, percentage, avg_time)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			vs[i].ID, activities, cases, vs[i].NumberCases, vs[i].Percentage, vs[i].AvgTime,
		)
		if err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit variants: %w", err)
	}
	return nil
}

// ListVariants returns a page of matching variants by percentage descending.
func (s *PgStore) ListVariants(ctx context.Context, f VariantFilter, page Page) ([]model.Variant, int, error) {
	clause, args := variantWhere(postgresDialect, f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM variants v`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count variants: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT v.id, v.activities, v.cases, v.number_cases, v.percentage, v.avg_time
		FROM variants v`+clause+`
		ORDER BY v.percentage DESC, v.id`+postgresDialect.limit(page), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	out := []model.Variant{}
	for rows.Next() {
		var v model.Variant
		var activities, cases []byte
		if err := rows.Scan(&v.ID, &activities, &cases, &v.NumberCases, &v.Percentage, &v.AvgTime); err != nil {
			return nil, 0, fmt.Errorf("scan variant: %w", err)
		}
		if err := unmarshalVariant(&v, activities, cases); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

const pgInvoiceColumns = `i.id, i.case_id, i.reference, i.date, i.pay_date, i.quantity, i.unit_price, i.value,
	i.vendor, i.region, i.description, i.payment_method, i.special_instructions, i.pattern,
	i.group_id, i.confidence, i.open, i.accuracy`

// CreateInvoice inserts an invoice and assigns its ID.
func (s *PgStore) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	var payDate *time.Time
	if inv.PayDate != nil {
		t := inv.PayDate.UTC()
		payDate = &t
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO invoices (
			case_id, reference, date, pay_date, quantity, unit_price, value,
			vendor, region, description, payment_method, special_instructions, pattern,
			group_id, confidence, open, accuracy
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`,
		inv.CaseID, inv.Reference, inv.Date.UTC(), payDate, inv.Quantity, inv.UnitPrice, inv.Value,
		inv.Vendor, inv.Region, inv.Description, inv.PaymentMethod, inv.SpecialInstructions, inv.Pattern,
		inv.GroupID, inv.Confidence, inv.Open, inv.Accuracy,
	).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetInvoice retrieves an invoice by id.
func (s *PgStore) GetInvoice(ctx context.Context, id int64) (model.Invoice, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgInvoiceColumns+` FROM invoices i WHERE i.id = $1`, id)
	inv, err := scanPgInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Invoice{}, model.NewNotFoundError(fmt.Sprintf("invoice %d not found", id))
	}
	if err != nil {
		return model.Invoice{}, fmt.Errorf("query invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns a page of matching invoices ordered by id.
func (s *PgStore) ListInvoices(ctx context.Context, f InvoiceFilter, page Page) ([]model.Invoice, int, error) {
	clause, args := invoiceWhere(postgresDialect, f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices i`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+pgInvoiceColumns+` FROM invoices i`+clause+` ORDER BY i.id`+postgresDialect.limit(page), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	out := []model.Invoice{}
	for rows.Next() {
		inv, err := scanPgInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// CreateInventoryItem inserts an inventory item and assigns its ID.
func (s *PgStore) CreateInventoryItem(ctx context.Context, item *model.InventoryItem) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO inventory (product_code, product_name, current_stock, unit_price, new_product)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		item.ProductCode, item.ProductName, item.CurrentStock, item.UnitPrice, item.NewProduct,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

// ListInventory returns a page of inventory items ordered by id.
func (s *PgStore) ListInventory(ctx context.Context, page Page) ([]model.InventoryItem, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, product_code, product_name, current_stock, unit_price, new_product
		FROM inventory ORDER BY id`+postgresDialect.limit(page))
	if err != nil {
		return nil, 0, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	out := []model.InventoryItem{}
	for rows.Next() {
		var it model.InventoryItem
		if err := rows.Scan(&it.ID, &it.ProductCode, &it.ProductName, &it.CurrentStock, &it.UnitPrice, &it.NewProduct); err != nil {
			return nil, 0, fmt.Errorf("scan inventory item: %w", err)
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// Counts returns the table totals.
func (s *PgStore) Counts(ctx context.Context) (Counts, error) {
	c := Counts{States: make(map[string]int)}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM cases),
			(SELECT COUNT(*) FROM cases WHERE approved),
			(SELECT COUNT(*) FROM bills),
			(SELECT COUNT(*) FROM reworks),
			(SELECT COUNT(*) FROM variants)`,
	).Scan(&c.Cases, &c.Approved, &c.Bills, &c.Reworks, &c.Variants)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT state, COUNT(*) FROM cases GROUP BY state`)
	if err != nil {
		return Counts{}, fmt.Errorf("count states: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return Counts{}, fmt.Errorf("scan state count: %w", err)
		}
		c.States[state] = n
	}
	return c, rows.Err()
}

// Reset deletes every row and restarts the id sequences.
func (s *PgStore) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		TRUNCATE reworks, bills, activities, variants, invoices, inventory, cases
		RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

// HealthCheck pings the pool.
func (s *PgStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PgStore) queryInts(ctx context.Context, sql string) ([]int, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("scan ids: %w", err)
	}
	return ids, nil
}

func (s *PgStore) queryActivities(ctx context.Context, sql string, args ...any) ([]model.Activity, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		a, err := scanPgActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PgStore) sendBatch(ctx context.Context, b *pgx.Batch, what string) error {
	if b.Len() == 0 {
		return nil
	}
	br := s.pool.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("%s: %w", what, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func scanPgCase(row pgx.Row) (model.Case, error) {
	var c model.Case
	var typ string
	err := row.Scan(
		&c.ID, &typ, &c.Branch, &c.Ramo, &c.Broker, &c.Client, &c.Creator, &c.Value, &c.InsuranceNumber,
		&c.InsuranceCreation, &c.InsuranceStart, &c.InsuranceEnd, &c.State, &c.AvgTime, &c.Approved,
	)
	c.Type = model.WorkflowType(typ)
	c.InsuranceCreation = c.InsuranceCreation.UTC()
	c.InsuranceStart = c.InsuranceStart.UTC()
	c.InsuranceEnd = c.InsuranceEnd.UTC()
	return c, err
}

func scanPgActivity(row pgx.Row) (model.Activity, error) {
	var a model.Activity
	err := row.Scan(&a.ID, &a.CaseID, &a.CaseIndex, &a.Name, &a.Timestamp, &a.TPT, &a.Rework, &a.Automatic)
	a.Timestamp = a.Timestamp.UTC()
	return a, err
}

func scanPgInvoice(row pgx.Row) (model.Invoice, error) {
	var inv model.Invoice
	err := row.Scan(
		&inv.ID, &inv.CaseID, &inv.Reference, &inv.Date, &inv.PayDate, &inv.Quantity, &inv.UnitPrice, &inv.Value,
		&inv.Vendor, &inv.Region, &inv.Description, &inv.PaymentMethod, &inv.SpecialInstructions, &inv.Pattern,
		&inv.GroupID, &inv.Confidence, &inv.Open, &inv.Accuracy,
	)
	inv.Date = inv.Date.UTC()
	if inv.PayDate != nil {
		t := inv.PayDate.UTC()
		inv.PayDate = &t
	}
	return inv, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func marshalVariant(v model.Variant) ([]byte, []byte, error) {
	activities, err := json.Marshal(v.Activities)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal variant activities: %w", err)
	}
	cases, err := json.Marshal(v.Cases)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal variant cases: %w", err)
	}
	return activities, cases, nil
}

func unmarshalVariant(v *model.Variant, activities, cases []byte) error {
	if err := json.Unmarshal(activities, &v.Activities); err != nil {
		return fmt.Errorf("unmarshal variant activities: %w", err)
	}
	if err := json.Unmarshal(cases, &v.Cases); err != nil {
		return fmt.Errorf("unmarshal variant cases: %w", err)
	}
	return nil
}
