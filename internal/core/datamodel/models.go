// Package datamodel lists every persisted row type.
package datamodel

import (
	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
)

// Models is the AutoMigrate set used by the sqlite driver and the test suites.
// Postgres schemas come from db/migrations.
func Models() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&userDatamodel.Role{},
		&userDatamodel.Permission{},
		&userDatamodel.RoleAssignment{},
		&userDatamodel.PermissionAssignment{},
		&causeDatamodel.Cause{},
		&causeDatamodel.CauseImage{},
		&donationDatamodel.Donation{},
	}
}
