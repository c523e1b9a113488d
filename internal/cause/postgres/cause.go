package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/cause"
	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	"github.com/frahmantamala/donation-management/internal/core/naming"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CauseRepository struct {
	db    *gorm.DB
	names *naming.Reconciler
}

func NewCauseRepository(db *gorm.DB) *CauseRepository {
	return &CauseRepository{db: db, names: naming.NewReconciler("name")}
}

func (r *CauseRepository) Transaction(ctx context.Context, fn func(repo cause.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CauseRepository{db: tx, names: r.names})
	})
}

func (r *CauseRepository) List(ctx context.Context, includeHidden bool) ([]*causeDatamodel.Cause, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if !includeHidden {
		q = q.Where("show_on_website = ?", true)
	}
	var rows []*causeDatamodel.Cause
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CauseRepository) GetByID(ctx context.Context, id int64) (*causeDatamodel.Cause, error) {
	var row causeDatamodel.Cause
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *CauseRepository) LockByID(ctx context.Context, id int64) (*causeDatamodel.Cause, error) {
	var row causeDatamodel.Cause
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *CauseRepository) Images(ctx context.Context, causeIDs ...int64) (map[int64][]causeDatamodel.CauseImage, error) {
	out := make(map[int64][]causeDatamodel.CauseImage, len(causeIDs))
	if len(causeIDs) == 0 {
		return out, nil
	}

	var rows []causeDatamodel.CauseImage
	err := r.db.WithContext(ctx).
		Where("cause_id IN ?", causeIDs).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, img := range rows {
		out[img.CauseID] = append(out[img.CauseID], img)
	}
	return out, nil
}

type causeTotal struct {
	CauseID int64
	Total   float64
}

func (r *CauseRepository) Raised(ctx context.Context, causeIDs ...int64) (map[int64]float64, error) {
	out := make(map[int64]float64, len(causeIDs))
	if len(causeIDs) == 0 {
		return out, nil
	}

	var rows []causeTotal
	err := r.db.WithContext(ctx).
		Model(&donationDatamodel.Donation{}).
		Select("cause_id, COALESCE(SUM(amount), 0) AS total").
		Where("cause_id IN ? AND payment_status = ?", causeIDs, donationDatamodel.PaymentStatusCaptured).
		Group("cause_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CauseID] = internal.RoundCents(row.Total)
	}
	return out, nil
}

func (r *CauseRepository) RecentDonations(ctx context.Context, causeID int64, limit int) ([]donationDatamodel.Donation, error) {
	var rows []donationDatamodel.Donation
	err := r.db.WithContext(ctx).
		Where("cause_id = ? AND payment_status = ?", causeID, donationDatamodel.PaymentStatusCaptured).
		Order("date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CauseRepository) ReserveName(ctx context.Context, selfID int64, name string) error {
	if selfID == 0 {
		return r.names.FreeForCreate(r.db.WithContext(ctx), &causeDatamodel.Cause{}, name)
	}
	return r.names.FreeForRename(r.db.WithContext(ctx), &causeDatamodel.Cause{}, selfID, name)
}

func (r *CauseRepository) Create(ctx context.Context, c *causeDatamodel.Cause) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CauseRepository) Save(ctx context.Context, c *causeDatamodel.Cause) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CauseRepository) HasPrimaryImage(ctx context.Context, causeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&causeDatamodel.CauseImage{}).
		Where("cause_id = ? AND is_primary = ?", causeID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *CauseRepository) CreateImages(ctx context.Context, images []causeDatamodel.CauseImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

func (r *CauseRepository) SoftDelete(ctx context.Context, causeID int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cause_id = ?", causeID).Delete(&causeDatamodel.CauseImage{}).Error; err != nil {
		return err
	}
	return db.Delete(&causeDatamodel.Cause{}, causeID).Error
}
