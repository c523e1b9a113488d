package postgres

import (
	"context"
	"errors"
	"strings"

	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/donation"
	"gorm.io/gorm"
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Transaction(ctx context.Context, fn func(repo donation.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DonationRepository{db: tx})
	})
}

func (r *DonationRepository) GetByID(ctx context.Context, id string) (*donationDatamodel.Donation, error) {
	var row donationDatamodel.Donation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *DonationRepository) Search(ctx context.Context, q donation.Query) ([]*donationDatamodel.Donation, error) {
	tx := r.db.WithContext(ctx).Model(&donationDatamodel.Donation{})
	if q.Status != "" {
		tx = tx.Where("payment_status = ?", q.Status)
	}
	if len(q.CauseIDs) > 0 {
		tx = tx.Where("cause_id IN ?", q.CauseIDs)
	}
	if q.From != nil {
		tx = tx.Where("date >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("date <= ?", *q.To)
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		tx = tx.Where(
			`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(message) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}

	var rows []*donationDatamodel.Donation
	if err := tx.Order("date DESC, created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *DonationRepository) CauseExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&causeDatamodel.Cause{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *DonationRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *DonationRepository) Create(ctx context.Context, d *donationDatamodel.Donation) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DonationRepository) Save(ctx context.Context, d *donationDatamodel.Donation) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DonationRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&donationDatamodel.Donation{}).Error
}

func (r *DonationRepository) Refs(ctx context.Context, causeIDs, userIDs []int64) (map[int64]donation.CauseRef, map[int64]donation.UserRef, error) {
	causes := make(map[int64]donation.CauseRef)
	users := make(map[int64]donation.UserRef)
	// each lookup starts from a fresh session so clauses never leak between them
	unscoped := func() *gorm.DB { return r.db.WithContext(ctx).Unscoped().Session(&gorm.Session{}) }

	if len(causeIDs) > 0 {
		var rows []donation.CauseRef
		err := unscoped().Model(&causeDatamodel.Cause{}).Select("id", "name").Where("id IN ?", causeIDs).Scan(&rows).Error
		if err != nil {
			return nil, nil, err
		}
		for _, c := range rows {
			causes[c.ID] = c
		}
	}
	if len(userIDs) > 0 {
		var rows []donation.UserRef
		err := unscoped().Model(&userDatamodel.User{}).Select("id", "name", "email").Where("id IN ?", userIDs).Scan(&rows).Error
		if err != nil {
			return nil, nil, err
		}
		for _, u := range rows {
			users[u.ID] = u
		}
	}
	return causes, users, nil
}
