package donation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/frahmantamala/donation-management/internal"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
)

type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	// GetByID returns nil when no live donation has the id.
	GetByID(ctx context.Context, id string) (*donationDatamodel.Donation, error)
	// Search returns live donations matching q, newest first.
	Search(ctx context.Context, q Query) ([]*donationDatamodel.Donation, error)
	CauseExists(ctx context.Context, id int64) (bool, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, d *donationDatamodel.Donation) error
	Save(ctx context.Context, d *donationDatamodel.Donation) error
	SoftDelete(ctx context.Context, id string) error
	// Refs names the causes and users of the given ids, deleted ones included.
	Refs(ctx context.Context, causeIDs, userIDs []int64) (map[int64]CauseRef, map[int64]UserRef, error)
}

// SummaryRepositoryAPI reads captured amounts for reporting.
type SummaryRepositoryAPI interface {
	Total(ctx context.Context, q Query) (float64, error)
	Amounts(ctx context.Context, q Query) ([]DatedAmount, error)
}

type ServiceAPI interface {
	CreateDonations(ctx context.Context, items []CreateDonationDTO) ([]*Donation, error)
	GetDonation(ctx context.Context, id string) (*Donation, error)
	SearchDonations(ctx context.Context, filter SearchFilter) ([]*Donation, error)
	CauseDonations(ctx context.Context, filter SearchFilter) ([]*Donation, error)
	UpdateDonations(ctx context.Context, items []UpdateDonationItem) ([]*Donation, error)
	DeleteDonations(ctx context.Context, ids []string) error
	Summary(ctx context.Context, filter SummaryFilter) (*Summary, error)
}

type Service struct {
	repo      RepositoryAPI
	summaries SummaryRepositoryAPI
	logger    *slog.Logger
	Now       func() time.Time
}

func NewService(repo RepositoryAPI, summaries SummaryRepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, summaries: summaries, logger: logger, Now: time.Now}
}

// CreateDonations records the batch in one transaction. Every donation needs a
// live cause and, when a user is given, a live user.
func (s *Service) CreateDonations(ctx context.Context, items []CreateDonationDTO) ([]*Donation, error) {
	if err := validateCreateBatch(items); err != nil {
		return nil, err
	}

	rows := make([]*donationDatamodel.Donation, 0, len(items))
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		for i, item := range items {
			row := item.ToDataModel(s.Now())
			if err := checkRefs(ctx, repo, i, row); err != nil {
				return err
			}
			if err := repo.Create(ctx, row); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapError("create", err)
	}

	s.logger.InfoContext(ctx, "donations created", "count", len(rows))
	return s.views(ctx, rows)
}

func (s *Service) GetDonation(ctx context.Context, id string) (*Donation, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get donation", err)
	}
	if row == nil {
		return nil, internal.ErrDonationNotFound
	}
	out, err := s.views(ctx, []*donationDatamodel.Donation{row})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *Service) SearchDonations(ctx context.Context, filter SearchFilter) ([]*Donation, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.repo.Search(ctx, filter.Query())
	if err != nil {
		return nil, internal.NewInternalError("failed to search donations", err)
	}
	return s.views(ctx, rows)
}

// CauseDonations is SearchDonations restricted to at least one cause.
func (s *Service) CauseDonations(ctx context.Context, filter SearchFilter) ([]*Donation, error) {
	if len(filter.CauseIDs) == 0 {
		return nil, internal.NewValidationFieldError("causeIds", "causeIds is required", internal.ErrCodeValidationFailed)
	}
	return s.SearchDonations(ctx, filter)
}

// UpdateDonations applies every item in one transaction. A missing donation or
// a reference to a missing cause or user rejects the whole batch.
func (s *Service) UpdateDonations(ctx context.Context, items []UpdateDonationItem) ([]*Donation, error) {
	if err := validateUpdateBatch(items); err != nil {
		return nil, err
	}

	rows := make([]*donationDatamodel.Donation, 0, len(items))
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		for i, item := range items {
			row, err := repo.GetByID(ctx, item.ID)
			if err != nil {
				return err
			}
			if row == nil {
				return internal.ErrDonationNotFound.WithDetails(map[string]string{"id": item.ID})
			}

			causeBefore, userBefore := row.CauseID, row.UserID
			item.Apply(row)
			if row.CauseID != causeBefore || !sameUser(row.UserID, userBefore) {
				if err := checkRefs(ctx, repo, i, row); err != nil {
					return err
				}
			}
			if err := repo.Save(ctx, row); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapError("update", err)
	}

	s.logger.InfoContext(ctx, "donations updated", "count", len(rows))
	return s.views(ctx, rows)
}

func (s *Service) DeleteDonations(ctx context.Context, ids []string) error {
	ids = unique(ids)
	if len(ids) == 0 {
		return internal.ErrEmptyBatch
	}
	for _, id := range ids {
		if err := validateID("ids", id); err != nil {
			return err
		}
	}

	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		for _, id := range ids {
			row, err := repo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if row == nil {
				return internal.ErrDonationNotFound.WithDetails(map[string]string{"id": id})
			}
			if err := repo.SoftDelete(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.mapError("delete", err)
	}

	s.logger.InfoContext(ctx, "donations deleted", "count", len(ids), "user_id", internal.UserIDFromContext(ctx))
	return nil
}

// Summary totals the captured donations matching the filter and, when asked,
// groups them by day, month or year, latest period first.
func (s *Service) Summary(ctx context.Context, filter SummaryFilter) (*Summary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	q := filter.Query()

	total, err := s.summaries.Total(ctx, q)
	if err != nil {
		return nil, internal.NewInternalError("failed to summarize donations", err)
	}
	out := &Summary{Total: internal.RoundCents(total), Grouped: []PeriodTotal{}}
	if filter.GroupBy == "" {
		return out, nil
	}

	amounts, err := s.summaries.Amounts(ctx, q)
	if err != nil {
		return nil, internal.NewInternalError("failed to summarize donations", err)
	}
	out.Grouped = bucket(amounts, periodLayout(filter.GroupBy))
	return out, nil
}

func periodLayout(groupBy string) string {
	switch groupBy {
	case GroupByYear:
		return "2006"
	case GroupByMonth:
		return "2006-01"
	default:
		return "2006-01-02"
	}
}

// bucket sums amounts per formatted UTC period. Layouts sort lexically in time order.
func bucket(amounts []DatedAmount, layout string) []PeriodTotal {
	sums := make(map[string]float64)
	for _, a := range amounts {
		sums[a.Date.UTC().Format(layout)] += a.Amount
	}
	out := make([]PeriodTotal, 0, len(sums))
	for period, sum := range sums {
		out = append(out, PeriodTotal{Period: period, Sum: internal.RoundCents(sum)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out
}

// views attaches the cause and user names to the rows.
func (s *Service) views(ctx context.Context, rows []*donationDatamodel.Donation) ([]*Donation, error) {
	var causeIDs, userIDs []int64
	for _, row := range rows {
		causeIDs = append(causeIDs, row.CauseID)
		if row.UserID != nil {
			userIDs = append(userIDs, *row.UserID)
		}
	}
	causes, users, err := s.repo.Refs(ctx, causeIDs, userIDs)
	if err != nil {
		return nil, internal.NewInternalError("failed to load donation references", err)
	}

	out := make([]*Donation, 0, len(rows))
	for _, row := range rows {
		d := FromDataModel(row)
		if c, ok := causes[row.CauseID]; ok {
			d.Cause = &c
		}
		if row.UserID != nil {
			if u, ok := users[*row.UserID]; ok {
				d.User = &u
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func checkRefs(ctx context.Context, repo RepositoryAPI, idx int, row *donationDatamodel.Donation) error {
	ok, err := repo.CauseExists(ctx, row.CauseID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrCauseNotFound.WithDetails(map[string]interface{}{"index": idx, "causeId": row.CauseID})
	}
	if row.UserID == nil {
		return nil
	}
	ok, err = repo.UserExists(ctx, *row.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrUserNotFound.WithDetails(map[string]interface{}{"index": idx, "userId": *row.UserID})
	}
	return nil
}

func (s *Service) mapError(op string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.NewInternalError(fmt.Sprintf("failed to %s donations", op), err)
}

func sameUser(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
