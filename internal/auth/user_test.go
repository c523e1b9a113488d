package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("User", func() {
	ginkgo.It("holds nothing without roles", func() {
		u := &User{ID: 1}
		gomega.Expect(u.HasPermission("view_donations")).To(gomega.BeFalse())
		gomega.Expect(u.HasPermission()).To(gomega.BeFalse())
		gomega.Expect(u.HasRole("Admin")).To(gomega.BeFalse())
	})

	ginkgo.It("short-circuits on the wildcard", func() {
		u := &User{Permissions: []string{AllPermissions}}
		gomega.Expect(u.HasPermission("anything")).To(gomega.BeTrue())
		gomega.Expect(u.HasPermission()).To(gomega.BeTrue())
	})

	ginkgo.It("succeeds when any one of the requested permissions is held", func() {
		u := &User{Permissions: []string{"view_donations"}}
		gomega.Expect(u.HasPermission("manage_donations", "view_donations")).To(gomega.BeTrue())
		gomega.Expect(u.HasPermission("manage_donations")).To(gomega.BeFalse())
	})

	ginkgo.It("is nil safe", func() {
		var u *User
		gomega.Expect(u.HasPermission(AllPermissions)).To(gomega.BeFalse())
	})

	ginkgo.It("round-trips bcrypt hashes", func() {
		hash, err := HashPassword("s3cret", 4)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(VerifyPassword(hash, "s3cret")).To(gomega.Succeed())
		gomega.Expect(VerifyPassword(hash, "other")).ToNot(gomega.Succeed())
	})
})
