package cmd

import (
	"fmt"
	"log"

	"github.com/frahmantamala/donation-management/internal/auth"
	"github.com/frahmantamala/donation-management/internal/core/database"
	causeDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/cause"
	donationDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/donation"
	userDatamodel "github.com/frahmantamala/donation-management/internal/core/datamodel/user"
	"github.com/frahmantamala/donation-management/internal/transport/rest"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@gmail.com"
	adminName     = "Administrator"
	adminPassword = "admin"
	adminRole     = "Admin"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the admin account and permissions",
	Long:  `Seed the permission catalogue, the Admin role and the admin@gmail.com account. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := configureLogger(cfg)

		db, err := database.Open(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}

		err = db.Gorm.Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearTables(tx); err != nil {
					return err
				}
				lg.Info("cleared existing data")
			}
			return seedAdmin(tx, string(hash))
		})
		if err != nil {
			log.Fatalf("seed failed: %v", err)
		}

		fmt.Println("Seeded admin user:", adminEmail)
	},
}

func clearTables(tx *gorm.DB) error {
	models := []interface{}{
		&donationDatamodel.Donation{},
		&causeDatamodel.CauseImage{},
		&causeDatamodel.Cause{},
		&userDatamodel.PermissionAssignment{},
		&userDatamodel.RoleAssignment{},
		&userDatamodel.Permission{},
		&userDatamodel.Role{},
		&userDatamodel.User{},
	}
	for _, m := range models {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

func seedAdmin(tx *gorm.DB, passwordHash string) error {
	names := append([]string{auth.AllPermissions}, rest.ModulePermissions...)

	var wildcardID int64
	for _, name := range names {
		p := userDatamodel.Permission{}
		if err := tx.Where(userDatamodel.Permission{Name: name}).
			Attrs(userDatamodel.Permission{Description: permissionDescription(name)}).
			FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", name, err)
		}
		if name == auth.AllPermissions {
			wildcardID = p.ID
		}
	}

	role := userDatamodel.Role{}
	if err := tx.Where(userDatamodel.Role{Name: adminRole}).
		Attrs(userDatamodel.Role{Description: "Full access"}).
		FirstOrCreate(&role).Error; err != nil {
		return fmt.Errorf("seed admin role: %w", err)
	}

	grant := userDatamodel.PermissionAssignment{}
	if err := tx.Where(userDatamodel.PermissionAssignment{RoleID: role.ID, PermissionID: wildcardID}).
		FirstOrCreate(&grant).Error; err != nil {
		return fmt.Errorf("grant wildcard to admin role: %w", err)
	}

	admin := userDatamodel.User{}
	if err := tx.Where(userDatamodel.User{Email: adminEmail}).
		Attrs(userDatamodel.User{Name: adminName, HashedPassword: passwordHash, IsActive: true}).
		FirstOrCreate(&admin).Error; err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	assignment := userDatamodel.RoleAssignment{}
	if err := tx.Where(userDatamodel.RoleAssignment{UserID: admin.ID, RoleID: role.ID}).
		FirstOrCreate(&assignment).Error; err != nil {
		return fmt.Errorf("assign admin role: %w", err)
	}
	return nil
}

func permissionDescription(name string) string {
	if name == auth.AllPermissions {
		return "Grants every permission"
	}
	return "Seeded module permission"
}
