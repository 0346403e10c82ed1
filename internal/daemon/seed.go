package daemon

import (
	"errors"

	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/access"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	"github.com/AgencyDesk/AgencyDesk/internal/db/controller/role"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"

	"github.com/rs/zerolog/log"
)

// systemRole describes one platform role template seeded at startup.
type systemRole struct {
	name           string
	slug           string
	color          string
	hierarchyLevel int
	legacyRole     models.LegacyRole
	immutable      bool
}

// systemRoles are the platform templates every agency starts from. Their
// grants mirror the legacy role fallback so both resolution paths agree.
var systemRoles = []systemRole{ //nolint:gochecknoglobals
	{"Owner", "owner", "#d4af37", models.HierarchyOwner, models.LegacyRoleOwner, true},
	{"Admin", "admin", "#c0392b", models.HierarchyAdmin, models.LegacyRoleAdmin, false},
	{"Manager", "manager", "#2980b9", models.HierarchyManager, models.LegacyRoleManager, false},
	{"Chatter", "chatter", "#27ae60", 10, models.LegacyRoleChatter, false},
}

func seed(_ *config.Config, db *gorm.DB) {
	seedPermissions(db)
	seedSystemRoles(db)
	seedPlatformAdmin(db)
}

// seedPermissions upserts the permission catalog. Codes are stable; the
// category, kind and description follow the catalog on every start.
func seedPermissions(db *gorm.DB) {
	for _, def := range access.Catalog() {
		err := db.Where(models.Permission{Code: def.Code}).
			Assign(models.Permission{
				Category:    def.Category,
				Kind:        def.Kind,
				Description: def.Description,
			}).
			FirstOrCreate(&models.Permission{}).Error
		if err != nil {
			log.Fatal().Err(err).Str("code", def.Code).Msg("failed to seed permission")
		}
	}
}

// seedSystemRoles creates the missing platform role templates with their
// grants. Existing roles are left alone so agencies keep their edits.
func seedSystemRoles(db *gorm.DB) {
	for _, tpl := range systemRoles {
		_, err := role.GetBySlug(db, tpl.slug)
		if err == nil {
			continue
		}

		if !errors.Is(err, role.ErrRoleNotFound) {
			log.Fatal().Err(err).Str("slug", tpl.slug).Msg("failed to look up system role")
		}

		r := models.Role{
			Name:            tpl.name,
			Slug:            tpl.slug,
			Color:           tpl.color,
			HierarchyLevel:  tpl.hierarchyLevel,
			IsSystemDefault: true,
			IsImmutable:     tpl.immutable,
		}

		if err := role.Create(db, &r); err != nil {
			log.Fatal().Err(err).Str("slug", tpl.slug).Msg("failed to seed system role")
		}

		if err := role.SetGrants(db, r.ID, access.LegacyGrants(tpl.legacyRole)); err != nil {
			log.Fatal().Err(err).Str("slug", tpl.slug).Msg("failed to seed system role grants")
		}
	}
}

// seedPlatformAdmin creates the initial platform administrator when none
// exists yet. Change the password right after the first login.
func seedPlatformAdmin(db *gorm.DB) {
	var count int64
	db.Model(&models.TeamMember{}).Where("is_platform_admin = ?", true).Count(&count)

	if count > 0 {
		return
	}

	err := db.Create(
		&models.TeamMember{
			Username:        "admin",
			Email:           "admin@localhost",
			Password:        models.HashPassword("changeme"),
			DisplayName:     "Platform Admin",
			Active:          true,
			IsPlatformAdmin: true,
			LegacyRole:      models.LegacyRolePending,
			AuthSource:      models.AuthSourceLocal,
		},
	).Error
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed platform admin")
	}

	log.Warn().Msg("seeded platform admin account 'admin' with the default password")
}
