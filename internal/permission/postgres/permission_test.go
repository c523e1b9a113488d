package postgres_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/donation-management/internal/core/database"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/core/naming"
	"github.com/frahmantamala/donation-management/internal/permission"
	"github.com/frahmantamala/donation-management/internal/permission/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestPermissionRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Repository Suite")
}

var _ = Describe("PermissionRepository", func() {
	var (
		db   *gorm.DB
		repo *postgres.PermissionRepository
		ctx  context.Context
	)

	BeforeEach(func() {
		conn, err := database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		db = conn.Gorm
		repo = postgres.NewPermissionRepository(db)
		ctx = context.Background()
	})

	newPermission := func(name string) *userDatamodel.Permission {
		p := &userDatamodel.Permission{Name: name}
		Expect(repo.Create(ctx, p)).To(Succeed())
		return p
	}

	It("lists live permissions by name", func() {
		newPermission("write_causes")
		newPermission("read_causes")
		gone := newPermission("delete_causes")
		Expect(repo.Delete(ctx, gone)).To(Succeed())

		rows, err := repo.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Name).To(Equal("read_causes"))
		Expect(rows[1].Name).To(Equal("write_causes"))
		Expect(repo.GetByID(ctx, gone.ID)).To(BeNil())
	})

	Describe("ReserveName", func() {
		It("rejects a name held by a live permission", func() {
			newPermission("read_causes")
			err := repo.ReserveName(ctx, 0, "read_causes")
			Expect(err).To(MatchError(naming.ErrNameTaken))
			Expect(naming.IsConflict(err)).To(BeTrue())
		})

		It("rejects renaming onto another live permission", func() {
			newPermission("read_causes")
			write := newPermission("write_causes")
			Expect(repo.ReserveName(ctx, write.ID, "read_causes")).To(MatchError(naming.ErrNameTaken))
			Expect(repo.ReserveName(ctx, write.ID, "write_causes")).To(Succeed())
		})

		It("renames a deleted holder out of the way inside the caller's transaction", func() {
			old := newPermission("read_causes")
			Expect(repo.Delete(ctx, old)).To(Succeed())

			var created *userDatamodel.Permission
			err := repo.Transaction(ctx, func(tx permission.RepositoryAPI) error {
				if err := tx.ReserveName(ctx, 0, "read_causes"); err != nil {
					return err
				}
				created = &userDatamodel.Permission{Name: "read_causes"}
				return tx.Create(ctx, created)
			})
			Expect(err).NotTo(HaveOccurred())

			got, err := repo.GetByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("read_causes"))

			var stale userDatamodel.Permission
			Expect(db.Unscoped().First(&stale, old.ID).Error).NotTo(HaveOccurred())
			Expect(stale.Name).To(HavePrefix("read_causes__deleted_"))
		})
	})
})
