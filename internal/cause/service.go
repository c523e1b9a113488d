package cause

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/blobstore"
	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	"github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/frahmantamala/donation-management/internal/core/naming"
)

const recentDonationsLimit = 3

type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error
	List(ctx context.Context, includeHidden bool) ([]*causeDatamodel.Cause, error)
	// GetByID returns nil when no live cause has the id.
	GetByID(ctx context.Context, id int64) (*causeDatamodel.Cause, error)
	// LockByID is GetByID holding a row lock until the transaction ends.
	LockByID(ctx context.Context, id int64) (*causeDatamodel.Cause, error)
	// Images returns the live images of each cause, oldest first.
	Images(ctx context.Context, causeIDs ...int64) (map[int64][]causeDatamodel.CauseImage, error)
	// Raised sums the live captured donations of each cause.
	Raised(ctx context.Context, causeIDs ...int64) (map[int64]float64, error)
	RecentDonations(ctx context.Context, causeID int64, limit int) ([]donationDatamodel.Donation, error)
	ReserveName(ctx context.Context, selfID int64, name string) error
	Create(ctx context.Context, c *causeDatamodel.Cause) error
	Save(ctx context.Context, c *causeDatamodel.Cause) error
	HasPrimaryImage(ctx context.Context, causeID int64) (bool, error)
	CreateImages(ctx context.Context, images []causeDatamodel.CauseImage) error
	// SoftDelete removes the cause and every live image of it.
	SoftDelete(ctx context.Context, causeID int64) error
}

type ServiceAPI interface {
	CreateCauses(ctx context.Context, items []CreateCauseDTO, files map[int][]Upload) ([]*Cause, error)
	AddImages(ctx context.Context, causeID int64, files []Upload) ([]Image, error)
	UpdateCause(ctx context.Context, id int64, dto UpdateCauseDTO) (*Cause, error)
	UpdateCauses(ctx context.Context, items []UpdateCauseItem) ([]*Cause, error)
	DeleteCauses(ctx context.Context, ids []int64) error
	ListCauses(ctx context.Context, includeHidden bool) ([]*Cause, error)
	GetCause(ctx context.Context, id int64) (*Cause, error)
}

// Publisher is the part of the event bus the service needs.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// UploadLimits bounds the images accepted per request.
type UploadLimits struct {
	MaxFileSize int64
	MaxFiles    int
}

var DefaultUploadLimits = UploadLimits{MaxFileSize: 25 << 20, MaxFiles: 10}

type Service struct {
	repo      RepositoryAPI
	blobs     blobstore.Store
	publisher Publisher
	limits    UploadLimits
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, blobs blobstore.Store, publisher Publisher, limits UploadLimits, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = DefaultUploadLimits.MaxFileSize
	}
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = DefaultUploadLimits.MaxFiles
	}
	return &Service{repo: repo, blobs: blobs, publisher: publisher, limits: limits, logger: logger}
}

// CreateCauses creates every cause of the batch with its images in one
// transaction. files is keyed by the index of the cause in items.
func (s *Service) CreateCauses(ctx context.Context, items []CreateCauseDTO, files map[int][]Upload) ([]*Cause, error) {
	if err := validateCreateBatch(items); err != nil {
		return nil, err
	}
	total := 0
	for idx, uploads := range files {
		if idx < 0 || idx >= len(items) {
			return nil, internal.NewValidationError(fmt.Sprintf("images[%d] has no matching cause", idx), internal.ErrCodeInvalidUpload)
		}
		total += len(uploads)
	}
	if err := s.checkUploads(total, files); err != nil {
		return nil, err
	}

	var (
		uploaded []string
		ids      []int64
	)
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		for i, item := range items {
			if err := repo.ReserveName(ctx, 0, item.Name); err != nil {
				return err
			}
			row := item.ToDataModel()
			if err := repo.Create(ctx, row); err != nil {
				return err
			}

			urls, err := s.attach(ctx, repo, row.ID, files[i], false)
			uploaded = append(uploaded, urls...)
			if err != nil {
				return err
			}
			ids = append(ids, row.ID)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, s.mapError("create", err)
	}

	s.logger.InfoContext(ctx, "causes created", "count", len(ids), "images", len(uploaded))
	return s.views(ctx, s.repo, ids...)
}

// AddImages uploads files for a live cause. The first image becomes primary
// only when the cause has no live primary image yet.
func (s *Service) AddImages(ctx context.Context, causeID int64, files []Upload) ([]Image, error) {
	if len(files) == 0 {
		return nil, internal.NewValidationError("No images provided", internal.ErrCodeInvalidUpload)
	}
	if err := s.checkUploads(len(files), map[int][]Upload{0: files}); err != nil {
		return nil, err
	}

	var (
		uploaded []string
		images   []Image
	)
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		// concurrent uploads to one cause queue here so only one can claim primary
		row, err := repo.LockByID(ctx, causeID)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrCauseNotFound
		}

		hasPrimary, err := repo.HasPrimaryImage(ctx, causeID)
		if err != nil {
			return err
		}
		uploaded, err = s.attach(ctx, repo, causeID, files, hasPrimary)
		if err != nil {
			return err
		}

		all, err := repo.Images(ctx, causeID)
		if err != nil {
			return err
		}
		for _, img := range all[causeID] {
			for _, u := range uploaded {
				if img.URL == u {
					images = append(images, ImageFromDataModel(img))
				}
			}
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, s.mapError("add images to", err)
	}

	s.logger.InfoContext(ctx, "cause images added", "cause_id", causeID, "count", len(images))
	return images, nil
}

// attach uploads files under causes/{id} and records them. It returns the URLs
// it managed to upload even on failure so the caller can discard them.
func (s *Service) attach(ctx context.Context, repo RepositoryAPI, causeID int64, files []Upload, hasPrimary bool) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.blobs == nil {
		return nil, internal.NewExternalError("image storage is not configured", internal.ErrCodeStorageFailed, blobstore.ErrNotConfigured)
	}

	folder := fmt.Sprintf("causes/%d", causeID)
	urls := make([]string, 0, len(files))
	images := make([]causeDatamodel.CauseImage, 0, len(files))
	for _, f := range files {
		url, err := s.blobs.Put(ctx, blobstore.Key(folder, f.Filename), f.ContentType, f.Data)
		if err != nil {
			return urls, internal.NewExternalError("failed to store image", internal.ErrCodeStorageFailed, err)
		}
		urls = append(urls, url)
		images = append(images, causeDatamodel.CauseImage{
			CauseID:   causeID,
			URL:       url,
			AltText:   f.Filename,
			IsPrimary: !hasPrimary && len(images) == 0,
		})
	}
	return urls, repo.CreateImages(ctx, images)
}

func (s *Service) checkUploads(total int, files map[int][]Upload) *internal.AppError {
	if total > s.limits.MaxFiles {
		return internal.NewValidationError(fmt.Sprintf("at most %d images per request", s.limits.MaxFiles), internal.ErrCodeInvalidUpload)
	}
	for _, uploads := range files {
		for _, f := range uploads {
			if !strings.HasPrefix(f.ContentType, "image/") {
				return internal.NewValidationFieldError(f.Filename, "Only images are allowed", internal.ErrCodeInvalidUpload)
			}
			if int64(len(f.Data)) > s.limits.MaxFileSize {
				return internal.NewValidationFieldError(f.Filename, fmt.Sprintf("image exceeds %d bytes", s.limits.MaxFileSize), internal.ErrCodeInvalidUpload)
			}
		}
	}
	return nil
}

// discard removes blobs uploaded by a transaction that rolled back.
func (s *Service) discard(ctx context.Context, urls []string) {
	if len(urls) == 0 || s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, urls); err != nil {
		s.logger.ErrorContext(ctx, "failed to discard uploaded images", "error", err, "urls", urls)
	}
}

func (s *Service) UpdateCause(ctx context.Context, id int64, dto UpdateCauseDTO) (*Cause, error) {
	out, err := s.UpdateCauses(ctx, []UpdateCauseItem{{ID: id, UpdateCauseDTO: dto}})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// UpdateCauses applies every item in one transaction. A missing cause or a
// name collision rejects the whole batch.
func (s *Service) UpdateCauses(ctx context.Context, items []UpdateCauseItem) ([]*Cause, error) {
	if err := validateUpdateBatch(items); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(items))
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		for _, item := range items {
			row, err := repo.GetByID(ctx, item.ID)
			if err != nil {
				return err
			}
			if row == nil {
				return internal.ErrCauseNotFound.WithDetails(map[string]int64{"id": item.ID})
			}
			if item.Name != nil && *item.Name != row.Name {
				if err := repo.ReserveName(ctx, row.ID, *item.Name); err != nil {
					return err
				}
			}
			item.Apply(row)
			if err := repo.Save(ctx, row); err != nil {
				return err
			}
			ids = append(ids, row.ID)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapError("update", err)
	}
	return s.views(ctx, s.repo, ids...)
}

// DeleteCauses soft-deletes the causes and their images in one transaction.
// Stored images are removed after commit by the cause.deleted subscribers; a
// failure there leaves orphaned blobs and is only logged.
func (s *Service) DeleteCauses(ctx context.Context, ids []int64) error {
	ids = unique(ids)
	if len(ids) == 0 {
		return internal.ErrEmptyBatch
	}

	deleted := make(map[int64][]string, len(ids))
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		for _, id := range ids {
			row, err := repo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if row == nil {
				return internal.ErrCauseNotFound.WithDetails(map[string]int64{"id": id})
			}

			images, err := repo.Images(ctx, id)
			if err != nil {
				return err
			}
			urls := make([]string, 0, len(images[id]))
			for _, img := range images[id] {
				urls = append(urls, img.URL)
			}
			deleted[id] = urls

			if err := repo.SoftDelete(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.mapError("delete", err)
	}

	for _, id := range ids {
		s.logger.InfoContext(ctx, "cause deleted", "cause_id", id, "images", len(deleted[id]), "user_id", internal.UserIDFromContext(ctx))
		if s.publisher == nil {
			continue
		}
		if err := s.publisher.Publish(ctx, events.NewCauseDeletedEvent(id, deleted[id])); err != nil {
			s.logger.ErrorContext(ctx, "cause cleanup failed", "cause_id", id, "error", err)
		}
	}
	return nil
}

func (s *Service) ListCauses(ctx context.Context, includeHidden bool) ([]*Cause, error) {
	rows, err := s.repo.List(ctx, includeHidden)
	if err != nil {
		return nil, internal.NewInternalError("failed to list causes", err)
	}
	out, err := s.assemble(ctx, s.repo, rows)
	if err != nil {
		return nil, internal.NewInternalError("failed to list causes", err)
	}
	return out, nil
}

// GetCause returns a live cause with its images, raised total and its three
// most recent captured donations.
func (s *Service) GetCause(ctx context.Context, id int64) (*Cause, error) {
	views, err := s.views(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.RecentDonations(ctx, id, recentDonationsLimit)
	if err != nil {
		return nil, internal.NewInternalError("failed to load recent donations", err)
	}
	c := views[0]
	c.RecentDonations = make([]RecentDonation, 0, len(recent))
	for _, d := range recent {
		c.RecentDonations = append(c.RecentDonations, RecentDonationFromDataModel(d))
	}
	return c, nil
}

// views loads the causes by id, in the order given.
func (s *Service) views(ctx context.Context, repo RepositoryAPI, ids ...int64) ([]*Cause, error) {
	rows := make([]*causeDatamodel.Cause, 0, len(ids))
	for _, id := range ids {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, internal.NewInternalError("failed to load cause", err)
		}
		if row == nil {
			return nil, internal.ErrCauseNotFound
		}
		rows = append(rows, row)
	}
	out, err := s.assemble(ctx, repo, rows)
	if err != nil {
		return nil, internal.NewInternalError("failed to load cause", err)
	}
	return out, nil
}

func (s *Service) assemble(ctx context.Context, repo RepositoryAPI, rows []*causeDatamodel.Cause) ([]*Cause, error) {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	images, err := repo.Images(ctx, ids...)
	if err != nil {
		return nil, err
	}
	raised, err := repo.Raised(ctx, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]*Cause, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row, images[row.ID], raised[row.ID]))
	}
	return out, nil
}

func (s *Service) mapError(op string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	if naming.IsConflict(err) {
		return internal.NewConflictError("Cause name already exists", internal.ErrCodeNameTaken)
	}
	return internal.NewInternalError("failed to "+op+" cause", err)
}

func unique(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
