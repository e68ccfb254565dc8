package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Ofi-Services/unified-backend/model"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore is a file-backed Store using go-sqlite3. Timestamps are stored
// as UTC unix nanoseconds so range filters compare numerically.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteCaseColumns = `id, type, branch, ramo, broker, client, creator, value, insurance,
	insurance_creation, insurance_start, insurance_end, state, avg_time, approved`

// CreateCase inserts a new case.
func (s *SQLiteStore) CreateCase(ctx context.Context, c model.Case) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cases (`+sqliteCaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, string(c.Type), c.Branch, c.Ramo, c.Broker, c.Client, c.Creator, c.Value, c.InsuranceNumber,
		nanos(c.InsuranceCreation), nanos(c.InsuranceStart), nanos(c.InsuranceEnd), c.State, c.AvgTime, c.Approved,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
		return model.NewConflictError(fmt.Sprintf("case %d already exists", c.ID))
	}
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

// UpdateCase updates the mutable fields of a case.
func (s *SQLiteStore) UpdateCase(ctx context.Context, c model.Case) error {
	res, err := s.db.ExecContext(ctx, `UPDATE cases SET state = ?, avg_time = ?, approved = ? WHERE id = ?`,
		c.State, c.AvgTime, c.Approved, c.ID)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewNotFoundError(fmt.Sprintf("case %d not found", c.ID))
	}
	return nil
}

// GetCase retrieves a case by id.
func (s *SQLiteStore) GetCase(ctx context.Context, id int) (model.Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteCaseColumns+` FROM cases WHERE id = ?`, id)
	c, err := scanSQLiteCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Case{}, model.NewNotFoundError(fmt.Sprintf("case %d not found", id))
	}
	if err != nil {
		return model.Case{}, fmt.Errorf("query case: %w", err)
	}
	return c, nil
}

// ListCases returns a page of cases ordered by id.
func (s *SQLiteStore) ListCases(ctx context.Context, page Page) ([]model.Case, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteCaseColumns+` FROM cases ORDER BY id`+sqliteDialect.limit(page))
	if err != nil {
		return nil, 0, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	out := []model.Case{}
	for rows.Next() {
		c, err := scanSQLiteCase(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// CaseIDs returns every case id, sorted.
func (s *SQLiteStore) CaseIDs(ctx context.Context) ([]int, error) {
	return s.queryInts(ctx, `SELECT id FROM cases ORDER BY id`)
}

// SetCaseAvgTimes writes avg_time for each case in the map.
func (s *SQLiteStore) SetCaseAvgTimes(ctx context.Context, avg map[int]float64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE cases SET avg_time = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("prepare avg_time update: %w", err)
		}
		defer stmt.Close()
		for id, v := range avg {
			if _, err := stmt.ExecContext(ctx, v, id); err != nil {
				return fmt.Errorf("update case avg_time: %w", err)
			}
		}
		return nil
	})
}

// AppendActivity inserts an activity and assigns its ID.
func (s *SQLiteStore) AppendActivity(ctx context.Context, a *model.Activity) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (case_id, case_index, name, ts, tpt, rework, automatic)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.CaseID, a.CaseIndex, a.Name, nanos(a.Timestamp), a.TPT, a.Rework, a.Automatic,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

const sqliteActivityColumns = `a.id, a.case_id, a.case_index, a.name, a.ts, a.tpt, a.rework, a.automatic`

// FirstActivity returns the earliest-stored activity of a case with a name.
func (s *SQLiteStore) FirstActivity(ctx context.Context, caseID int, name string) (model.Activity, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sqliteActivityColumns+`
		FROM activities a
		WHERE a.case_id = ? AND a.name = ?
		ORDER BY a.id
		LIMIT 1`, caseID, name)
	a, err := scanSQLiteActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Activity{}, false, nil
	}
	if err != nil {
		return model.Activity{}, false, fmt.Errorf("query first activity: %w", err)
	}
	return a, true, nil
}

// ListActivities returns a page of matching activities ordered by timestamp.
func (s *SQLiteStore) ListActivities(ctx context.Context, f ActivityFilter, page Page) ([]model.Activity, int, error) {
	from, args := activityWhere(sqliteDialect, f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	out, err := s.queryActivities(ctx, `SELECT `+sqliteActivityColumns+from+` ORDER BY a.ts, a.id`+sqliteDialect.limit(page), args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllActivities returns every activity in storage order.
func (s *SQLiteStore) AllActivities(ctx context.Context) ([]model.Activity, error) {
	return s.queryActivities(ctx, `SELECT `+sqliteActivityColumns+` FROM activities a ORDER BY a.id`)
}

// SetActivityTPTs writes tpt for each activity in the map.
func (s *SQLiteStore) SetActivityTPTs(ctx context.Context, tpt map[int64]float64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE activities SET tpt = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("prepare tpt update: %w", err)
		}
		defer stmt.Close()
		for id, v := range tpt {
			if _, err := stmt.ExecContext(ctx, v, id); err != nil {
				return fmt.Errorf("update activity tpt: %w", err)
			}
		}
		return nil
	})
}

// ActivityNames returns the distinct activity names, sorted.
func (s *SQLiteStore) ActivityNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM activities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query activity names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan activity name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// ActivityCaseIDs returns the distinct case ids with activities, sorted.
func (s *SQLiteStore) ActivityCaseIDs(ctx context.Context) ([]int, error) {
	return s.queryInts(ctx, `SELECT DISTINCT case_id FROM activities ORDER BY case_id`)
}

// CountActivityCases counts distinct cases with an activity in [from, to].
func (s *SQLiteStore) CountActivityCases(ctx context.Context, from, to time.Time) (int, error) {
	clause, args := activityWhere(sqliteDialect, ActivityFilter{From: from, To: to})
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT a.case_id)`+clause, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activity cases: %w", err)
	}
	return n, nil
}

// CreateRework inserts a rework and assigns its ID.
func (s *SQLiteStore) CreateRework(ctx context.Context, r *model.Rework) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO reworks (activity_id, target, cost, cause) VALUES (?, ?, ?, ?)`,
		r.ActivityID, r.Target, r.Cost, r.Cause)
	if err != nil {
		return fmt.Errorf("insert rework: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// ListReworks returns every rework ordered by id.
func (s *SQLiteStore) ListReworks(ctx context.Context) ([]model.Rework, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, activity_id, target, cost, cause FROM reworks ORDER BY id`)
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
func (s *SQLiteStore) CreateBill(ctx context.Context, b *model.Bill) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO bills (case_id, value, ts) VALUES (?, ?, ?)`,
		b.CaseID, b.Value, nanos(b.Timestamp))
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

// ListBills returns the bills of a case ordered by timestamp.
func (s *SQLiteStore) ListBills(ctx context.Context, caseID int) ([]model.Bill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, case_id, value, ts FROM bills WHERE case_id = ? ORDER BY ts, id`, caseID)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	out := []model.Bill{}
	for rows.Next() {
		var b model.Bill
		var ts int64
		if err := rows.Scan(&b.ID, &b.CaseID, &b.Value, &ts); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		b.Timestamp = fromNanos(ts)
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReplaceVariants swaps the whole variant set in one transaction. IDs are
// the 1-based positions in vs.
func (s *SQLiteStore) ReplaceVariants(ctx context.Context, vs []model.Variant) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM variants`); err != nil {
			return fmt.Errorf("delete variants: %w", err)
		}
		for i := range vs {
			activities, cases, err := marshalVariant(vs[i])
			if err != nil {
				return err
			}
			vs[i].ID = int64(i + 1)
			_, err = tx.ExecContext(ctx, `
				INSERT INTO variants (id, activities, cases, number_cases, percentage, avg_time)
				VALUES (?, ?, ?, ?, ?, ?)`,
				vs[i].ID, string(activities), string(cases), vs[i].NumberCases, vs[i].Percentage, vs[i].AvgTime,
			)
			if err != nil {
				return fmt.Errorf("insert variant: %w", err)
			}
		}
		return nil
	})
}

// ListVariants returns a page of matching variants by percentage descending.
func (s *SQLiteStore) ListVariants(ctx context.Context, f VariantFilter, page Page) ([]model.Variant, int, error) {
	clause, args := variantWhere(sqliteDialect, f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM variants v`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count variants: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.activities, v.cases, v.number_cases, v.percentage, v.avg_time
		FROM variants v`+clause+`
		ORDER BY v.percentage DESC, v.id`+sqliteDialect.limit(page), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	out := []model.Variant{}
	for rows.Next() {
		var v model.Variant
		var activities, cases string
		if err := rows.Scan(&v.ID, &activities, &cases, &v.NumberCases, &v.Percentage, &v.AvgTime); err != nil {
			return nil, 0, fmt.Errorf("scan variant: %w", err)
		}
		if err := unmarshalVariant(&v, []byte(activities), []byte(cases)); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

const sqliteInvoiceColumns = `i.id, i.case_id, i.reference, i.date, i.pay_date, i.quantity, i.unit_price, i.value,
	i.vendor, i.region, i.description, i.payment_method, i.special_instructions, i.pattern,
	i.group_id, i.confidence, i.open, i.accuracy`

// CreateInvoice inserts an invoice and assigns its ID.
func (s *SQLiteStore) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	var caseID, payDate sql.NullInt64
	if inv.CaseID != nil {
		caseID = sql.NullInt64{Int64: int64(*inv.CaseID), Valid: true}
	}
	if inv.PayDate != nil {
		payDate = sql.NullInt64{Int64: nanos(*inv.PayDate), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (
			case_id, reference, date, pay_date, quantity, unit_price, value,
			vendor, region, description, payment_method, special_instructions, pattern,
			group_id, confidence, open, accuracy
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		caseID, inv.Reference, nanos(inv.Date), payDate, inv.Quantity, inv.UnitPrice, inv.Value,
		inv.Vendor, inv.Region, inv.Description, inv.PaymentMethod, inv.SpecialInstructions, inv.Pattern,
		inv.GroupID, inv.Confidence, inv.Open, inv.Accuracy,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	inv.ID, err = res.LastInsertId()
	return err
}

// GetInvoice retrieves an invoice by id.
func (s *SQLiteStore) GetInvoice(ctx context.Context, id int64) (model.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteInvoiceColumns+` FROM invoices i WHERE i.id = ?`, id)
	inv, err := scanSQLiteInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Invoice{}, model.NewNotFoundError(fmt.Sprintf("invoice %d not found", id))
	}
	if err != nil {
		return model.Invoice{}, fmt.Errorf("query invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns a page of matching invoices ordered by id.
func (s *SQLiteStore) ListInvoices(ctx context.Context, f InvoiceFilter, page Page) ([]model.Invoice, int, error) {
	clause, args := invoiceWhere(sqliteDialect, f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices i`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteInvoiceColumns+` FROM invoices i`+clause+` ORDER BY i.id`+sqliteDialect.limit(page), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	out := []model.Invoice{}
	for rows.Next() {
		inv, err := scanSQLiteInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// CreateInventoryItem inserts an inventory item and assigns its ID.
func (s *SQLiteStore) CreateInventoryItem(ctx context.Context, item *model.InventoryItem) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory (product_code, product_name, current_stock, unit_price, new_product)
		VALUES (?, ?, ?, ?, ?)`,
		item.ProductCode, item.ProductName, item.CurrentStock, item.UnitPrice, item.NewProduct,
	)
	if err != nil {
		return fmt.Errorf("insert inventory item: %w", err)
	}
	item.ID, err = res.LastInsertId()
	return err
}

// ListInventory returns a page of inventory items ordered by id.
func (s *SQLiteStore) ListInventory(ctx context.Context, page Page) ([]model.InventoryItem, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_code, product_name, current_stock, unit_price, new_product
		FROM inventory ORDER BY id`+sqliteDialect.limit(page))
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
func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	c := Counts{States: make(map[string]int)}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM cases),
			(SELECT COUNT(*) FROM cases WHERE approved = 1),
			(SELECT COUNT(*) FROM bills),
			(SELECT COUNT(*) FROM reworks),
			(SELECT COUNT(*) FROM variants)`,
	).Scan(&c.Cases, &c.Approved, &c.Bills, &c.Reworks, &c.Variants)
	if err != nil {
		return Counts{}, fmt.Errorf("count rows: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM cases GROUP BY state`)
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
func (s *SQLiteStore) Reset(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		tables := []string{"reworks", "bills", "activities", "variants", "invoices", "inventory", "cases"}
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("delete %s: %w", t, err)
			}
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name IN ('`+strings.Join(tables, "', '")+`')`)
		return err
	})
}

// HealthCheck pings the database.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) queryInts(ctx context.Context, query string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) queryActivities(ctx context.Context, query string, args ...any) ([]model.Activity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		a, err := scanSQLiteActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCase(row rowScanner) (model.Case, error) {
	var c model.Case
	var typ string
	var created, started, ended int64
	err := row.Scan(
		&c.ID, &typ, &c.Branch, &c.Ramo, &c.Broker, &c.Client, &c.Creator, &c.Value, &c.InsuranceNumber,
		&created, &started, &ended, &c.State, &c.AvgTime, &c.Approved,
	)
	c.Type = model.WorkflowType(typ)
	c.InsuranceCreation = fromNanos(created)
	c.InsuranceStart = fromNanos(started)
	c.InsuranceEnd = fromNanos(ended)
	return c, err
}

func scanSQLiteActivity(row rowScanner) (model.Activity, error) {
	var a model.Activity
	var ts int64
	err := row.Scan(&a.ID, &a.CaseID, &a.CaseIndex, &a.Name, &ts, &a.TPT, &a.Rework, &a.Automatic)
	a.Timestamp = fromNanos(ts)
	return a, err
}

func scanSQLiteInvoice(row rowScanner) (model.Invoice, error) {
	var inv model.Invoice
	var caseID, payDate sql.NullInt64
	var date int64
	err := row.Scan(
		&inv.ID, &caseID, &inv.Reference, &date, &payDate, &inv.Quantity, &inv.UnitPrice, &inv.Value,
		&inv.Vendor, &inv.Region, &inv.Description, &inv.PaymentMethod, &inv.SpecialInstructions, &inv.Pattern,
		&inv.GroupID, &inv.Confidence, &inv.Open, &inv.Accuracy,
	)
	inv.Date = fromNanos(date)
	if caseID.Valid {
		id := int(caseID.Int64)
		inv.CaseID = &id
	}
	if payDate.Valid {
		t := fromNanos(payDate.Int64)
		inv.PayDate = &t
	}
	return inv, err
}

func nanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }
