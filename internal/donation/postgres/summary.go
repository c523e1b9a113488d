package postgres

import (
	"context"
	"strings"

	"github.com/frahmantamala/donation-management/internal/donation"
	"github.com/jmoiron/sqlx"
)

// SummaryRepository runs the reporting reads over sqlx.
type SummaryRepository struct {
	db *sqlx.DB
}

func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) Total(ctx context.Context, q donation.Query) (float64, error) {
	query, args, err := r.build("SELECT COALESCE(SUM(amount), 0) FROM donations", q, "")
	if err != nil {
		return 0, err
	}
	var total float64
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *SummaryRepository) Amounts(ctx context.Context, q donation.Query) ([]donation.DatedAmount, error) {
	query, args, err := r.build("SELECT amount, date FROM donations", q, " ORDER BY date DESC")
	if err != nil {
		return nil, err
	}
	var rows []donation.DatedAmount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SummaryRepository) build(head string, q donation.Query, tail string) (string, []interface{}, error) {
	where := []string{"deleted_at IS NULL"}
	var args []interface{}
	if q.Status != "" {
		where = append(where, "payment_status = ?")
		args = append(args, q.Status)
	}
	if len(q.CauseIDs) > 0 {
		where = append(where, "cause_id IN (?)")
		args = append(args, q.CauseIDs)
	}
	if q.From != nil {
		where = append(where, "date >= ?")
		args = append(args, *q.From)
	}
	if q.To != nil {
		where = append(where, "date <= ?")
		args = append(args, *q.To)
	}

	query, args, err := sqlx.In(head+" WHERE "+strings.Join(where, " AND ")+tail, args...)
	if err != nil {
		return "", nil, err
	}
	return r.db.Rebind(query), args, nil
}
