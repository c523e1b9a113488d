package cause_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/blobstore"
	"github.com/frahmantamala/donation-management/internal/cause"
	causePostgres "github.com/frahmantamala/donation-management/internal/cause/postgres"
	"github.com/frahmantamala/donation-management/internal/core/database"
	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	"github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestCauseService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cause Service Suite")
}

func png(name string) cause.Upload {
	return cause.Upload{Filename: name, ContentType: "image/png", Data: []byte("\x89PNG" + name)}
}

// lockingRepository records which causes were locked inside a transaction.
type lockingRepository struct {
	cause.RepositoryAPI
	locked []int64
}

func (r *lockingRepository) Transaction(ctx context.Context, fn func(repo cause.RepositoryAPI) error) error {
	return r.RepositoryAPI.Transaction(ctx, func(tx cause.RepositoryAPI) error {
		return fn(&lockingTx{RepositoryAPI: tx, parent: r})
	})
}

type lockingTx struct {
	cause.RepositoryAPI
	parent *lockingRepository
}

func (t *lockingTx) LockByID(ctx context.Context, id int64) (*causeDatamodel.Cause, error) {
	t.parent.locked = append(t.parent.locked, id)
	return t.RepositoryAPI.LockByID(ctx, id)
}

var _ = Describe("Cause Service", func() {
	var (
		db      *gorm.DB
		blobs   *blobstore.MemoryStore
		service *cause.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		conn, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		db = conn.Gorm
		ctx = context.Background()
		blobs = blobstore.NewMemoryStore("")

		bus := events.NewEventBus(nil)
		cause.NewEventHandler(blobs, nil).RegisterEventHandlers(bus)
		service = cause.NewService(causePostgres.NewCauseRepository(db), blobs, bus, cause.DefaultUploadLimits, nil)
	})

	create := func(name string, files ...cause.Upload) *cause.Cause {
		var uploads map[int][]cause.Upload
		if len(files) > 0 {
			uploads = map[int][]cause.Upload{0: files}
		}
		out, err := service.CreateCauses(ctx, []cause.CreateCauseDTO{{Name: name, Goal: 1000, ShowOnWebsite: true}}, uploads)
		Expect(err).NotTo(HaveOccurred())
		return out[0]
	}

	donate := func(causeID int64, amount float64, status string, date time.Time) {
		Expect(db.Create(&donationDatamodel.Donation{
			ID:            uuid.NewString(),
			CauseID:       causeID,
			Name:          "Donor",
			Amount:        amount,
			PaymentStatus: status,
			Date:          date,
		}).Error).NotTo(HaveOccurred())
	}

	Describe("CreateCauses", func() {
		It("defaults the status and stores the images under the cause folder", func() {
			c := create("Clean Water", png("a.png"), png("b.png"))
			Expect(c.Status).To(Equal(causeDatamodel.StatusOpen))
			Expect(c.Images).To(HaveLen(2))
			Expect(c.Images[0].IsPrimary).To(BeTrue())
			Expect(c.Images[1].IsPrimary).To(BeFalse())
			Expect(c.Images[0].URL).To(ContainSubstring(fmt.Sprintf("/causes/%d/", c.ID)))
			Expect(c.Images[0].AltText).To(Equal("a.png"))
			Expect(blobs.Len()).To(Equal(2))
		})

		It("rejects the whole batch when one name is taken", func() {
			create("Existing")

			_, err := service.CreateCauses(ctx, []cause.CreateCauseDTO{
				{Name: "First", Goal: 10},
				{Name: "Existing", Goal: 10},
				{Name: "Third", Goal: 10},
			}, map[int][]cause.Upload{0: {png("first.png")}})
			Expect(err).To(MatchError(internal.ErrNameTaken))

			var names []string
			db.Model(&causeDatamodel.Cause{}).Pluck("name", &names)
			Expect(names).To(ConsistOf("Existing"))

			var images int64
			db.Unscoped().Model(&causeDatamodel.CauseImage{}).Count(&images)
			Expect(images).To(BeZero())
			Expect(blobs.Len()).To(BeZero())
		})

		It("rejects duplicate names inside one batch", func() {
			_, err := service.CreateCauses(ctx, []cause.CreateCauseDTO{{Name: "Twin", Goal: 1}, {Name: "Twin", Goal: 1}}, nil)
			Expect(err).To(MatchError(internal.ErrNameTaken))
		})

		It("reuses the name of a deleted cause", func() {
			old := create("Clean Water")
			Expect(service.DeleteCauses(ctx, []int64{old.ID})).To(Succeed())

			fresh := create("Clean Water")
			Expect(fresh.ID).NotTo(Equal(old.ID))

			var stale causeDatamodel.Cause
			Expect(db.Unscoped().First(&stale, old.ID).Error).NotTo(HaveOccurred())
			Expect(stale.Name).NotTo(Equal("Clean Water"))
		})

		It("validates every item before writing", func() {
			_, err := service.CreateCauses(ctx, []cause.CreateCauseDTO{
				{Name: "Fine", Goal: 10},
				{Name: "Broken", Goal: 0, Status: "ARCHIVED"},
			}, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))

			details := appErr.Details.(internal.ValidationErrors)
			Expect(details.Errors[0].Field).To(HavePrefix("causes[1]."))

			var count int64
			db.Model(&causeDatamodel.Cause{}).Count(&count)
			Expect(count).To(BeZero())
		})

		It("rejects an empty batch", func() {
			_, err := service.CreateCauses(ctx, nil, nil)
			Expect(err).To(MatchError(internal.ErrEmptyBatch))
		})

		It("rejects files that are not images", func() {
			_, err := service.CreateCauses(ctx, []cause.CreateCauseDTO{{Name: "A", Goal: 1}},
				map[int][]cause.Upload{0: {{Filename: "x.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}}})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("rejects images addressed to a cause outside the batch", func() {
			_, err := service.CreateCauses(ctx, []cause.CreateCauseDTO{{Name: "A", Goal: 1}},
				map[int][]cause.Upload{3: {png("x.png")}})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidUpload))
		})

		It("rolls back when the blob store fails", func() {
			blobs.PutErr = errors.New("bucket unavailable")
			_, err := service.CreateCauses(ctx, []cause.CreateCauseDTO{{Name: "A", Goal: 1}},
				map[int][]cause.Upload{0: {png("x.png")}})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeStorageFailed))

			var count int64
			db.Model(&causeDatamodel.Cause{}).Count(&count)
			Expect(count).To(BeZero())
		})
	})

	Describe("AddImages", func() {
		It("makes the first image primary and keeps it primary afterwards", func() {
			c := create("Clean Water")

			first, err := service.AddImages(ctx, c.ID, []cause.Upload{png("one.png")})
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(HaveLen(1))
			Expect(first[0].IsPrimary).To(BeTrue())

			second, err := service.AddImages(ctx, c.ID, []cause.Upload{png("two.png")})
			Expect(err).NotTo(HaveOccurred())
			Expect(second[0].IsPrimary).To(BeFalse())

			got, err := service.GetCause(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			primaries := 0
			for _, img := range got.Images {
				if img.IsPrimary {
					primaries++
					Expect(img.AltText).To(Equal("one.png"))
				}
			}
			Expect(primaries).To(Equal(1))
		})

		It("locks the cause row before choosing the primary image", func() {
			c := create("Clean Water")
			spy := &lockingRepository{RepositoryAPI: causePostgres.NewCauseRepository(db)}
			locked := cause.NewService(spy, blobs, nil, cause.DefaultUploadLimits, nil)

			out, err := locked.AddImages(ctx, c.ID, []cause.Upload{png("one.png")})
			Expect(err).NotTo(HaveOccurred())
			Expect(out[0].IsPrimary).To(BeTrue())
			Expect(spy.locked).To(Equal([]int64{c.ID}))
		})

		It("returns not found for a deleted cause without uploading", func() {
			c := create("Clean Water")
			Expect(service.DeleteCauses(ctx, []int64{c.ID})).To(Succeed())

			_, err := service.AddImages(ctx, c.ID, []cause.Upload{png("one.png")})
			Expect(err).To(MatchError(internal.ErrCauseNotFound))
			Expect(blobs.Len()).To(BeZero())
		})

		It("requires at least one file", func() {
			c := create("Clean Water")
			_, err := service.AddImages(ctx, c.ID, nil)
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("enforces the file count limit", func() {
			c := create("Clean Water")
			files := make([]cause.Upload, 11)
			for i := range files {
				files[i] = png(fmt.Sprintf("%d.png", i))
			}
			_, err := service.AddImages(ctx, c.ID, files)
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidUpload))
		})
	})

	Describe("UpdateCauses", func() {
		It("applies explicit zero values", func() {
			c := create("Clean Water")
			hidden := false
			empty := ""

			updated, err := service.UpdateCause(ctx, c.ID, cause.UpdateCauseDTO{ShowOnWebsite: &hidden, Color: &empty})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ShowOnWebsite).To(BeFalse())
			Expect(updated.Name).To(Equal("Clean Water"))
		})

		It("rejects a zero goal instead of ignoring it", func() {
			c := create("Clean Water")
			zero := 0.0
			_, err := service.UpdateCause(ctx, c.ID, cause.UpdateCauseDTO{Goal: &zero})
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("rolls back the batch when an id is missing", func() {
			a := create("A")
			name := "Renamed"

			_, err := service.UpdateCauses(ctx, []cause.UpdateCauseItem{
				{ID: a.ID, UpdateCauseDTO: cause.UpdateCauseDTO{Name: &name}},
				{ID: 999, UpdateCauseDTO: cause.UpdateCauseDTO{Name: &name}},
			})
			Expect(err).To(MatchError(internal.ErrCauseNotFound))

			got, err := service.GetCause(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("A"))
		})

		It("rejects renaming onto a live cause", func() {
			create("A")
			b := create("B")
			name := "A"
			_, err := service.UpdateCause(ctx, b.ID, cause.UpdateCauseDTO{Name: &name})
			Expect(err).To(MatchError(internal.ErrNameTaken))
		})
	})

	Describe("DeleteCauses", func() {
		It("soft deletes the cause and its images and deletes both blobs in one call", func() {
			c := create("Clean Water", png("a.png"), png("b.png"))

			Expect(service.DeleteCauses(ctx, []int64{c.ID})).To(Succeed())

			var live int64
			db.Model(&causeDatamodel.CauseImage{}).Where("cause_id = ?", c.ID).Count(&live)
			Expect(live).To(BeZero())

			var all int64
			db.Unscoped().Model(&causeDatamodel.CauseImage{}).Where("cause_id = ?", c.ID).Count(&all)
			Expect(all).To(Equal(int64(2)))

			calls := blobs.DeleteCalls()
			Expect(calls).To(HaveLen(1))
			Expect(calls[0]).To(ConsistOf(c.Images[0].URL, c.Images[1].URL))
			Expect(blobs.Len()).To(BeZero())

			_, err := service.GetCause(ctx, c.ID)
			Expect(err).To(MatchError(internal.ErrCauseNotFound))
		})

		It("skips the blob store for causes without images", func() {
			c := create("Clean Water")
			Expect(service.DeleteCauses(ctx, []int64{c.ID})).To(Succeed())
			Expect(blobs.DeleteCalls()).To(BeEmpty())
		})

		It("rejects the whole batch when one id is missing", func() {
			c := create("Clean Water")
			Expect(service.DeleteCauses(ctx, []int64{c.ID, 404})).To(MatchError(internal.ErrCauseNotFound))

			_, err := service.GetCause(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps the delete when the blob store fails afterwards", func() {
			c := create("Clean Water", png("a.png"))
			blobs.DeleteErr = errors.New("bucket unavailable")

			Expect(service.DeleteCauses(ctx, []int64{c.ID})).To(Succeed())
			_, err := service.GetCause(ctx, c.ID)
			Expect(err).To(MatchError(internal.ErrCauseNotFound))
		})
	})

	Describe("reading", func() {
		It("sums captured donations only", func() {
			c := create("Clean Water")
			now := time.Now().UTC()
			donate(c.ID, 100, donationDatamodel.PaymentStatusCaptured, now)
			donate(c.ID, 50, donationDatamodel.PaymentStatusPending, now)
			donate(c.ID, 25, donationDatamodel.PaymentStatusCaptured, now)

			got, err := service.GetCause(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Raised).To(BeNumerically("==", 125))

			list, err := service.ListCauses(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(list[0].Raised).To(BeNumerically("==", 125))
		})

		It("ignores deleted donations in the total", func() {
			c := create("Clean Water")
			donate(c.ID, 100, donationDatamodel.PaymentStatusCaptured, time.Now())
			Expect(db.Where("cause_id = ?", c.ID).Delete(&donationDatamodel.Donation{}).Error).NotTo(HaveOccurred())

			got, err := service.GetCause(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Raised).To(BeZero())
		})

		It("shows the three most recent captured donations", func() {
			c := create("Clean Water")
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				donate(c.ID, float64(i+1), donationDatamodel.PaymentStatusCaptured, base.AddDate(0, 0, i))
			}
			donate(c.ID, 99, donationDatamodel.PaymentStatusPending, base.AddDate(0, 0, 10))

			got, err := service.GetCause(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.RecentDonations).To(HaveLen(3))
			Expect(got.RecentDonations[0].Amount).To(BeNumerically("==", 5))
			Expect(got.RecentDonations[2].Amount).To(BeNumerically("==", 3))
		})

		It("hides causes not shown on the website from the public list", func() {
			create("Visible")
			_, err := service.CreateCauses(ctx, []cause.CreateCauseDTO{{Name: "Hidden", Goal: 1}}, nil)
			Expect(err).NotTo(HaveOccurred())

			public, err := service.ListCauses(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(public).To(HaveLen(1))
			Expect(public[0].Name).To(Equal("Visible"))

			all, err := service.ListCauses(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})
	})
})
