// Package role provides CRUD operations for roles and their permission grants.
package role

import (
	"errors"

	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
)

const (
	agencyScopeQueryPattern = "agency_id = ? OR agency_id IS NULL"
	slugQueryPattern        = "slug = ?"
	roleIDQueryPattern      = "role_id = ?"
)

var (
	// ErrRoleNotFound is returned when a role is not found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleProtected is returned when deleting a system-default or immutable role.
	ErrRoleProtected = errors.New("role is protected and cannot be deleted")
	// ErrSlugTaken is returned when creating a role whose slug already exists.
	ErrSlugTaken = errors.New("role slug already exists")
	// ErrUnknownPermission is returned when a grant names a permission code
	// that is not in the catalog.
	ErrUnknownPermission = errors.New("unknown permission code")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a role visible to the agency: its own roles plus the
// platform role templates.
func Get(db *gorm.DB, agencyID uint, id uint) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role
	result := db.Where(agencyScopeQueryPattern, agencyID).First(&r, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// GetBySlug retrieves a role by its unique slug.
func GetBySlug(db *gorm.DB, slug string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role
	result := db.Where(slugQueryPattern, slug).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// List retrieves the roles visible to the agency, highest hierarchy first.
func List(db *gorm.DB, agencyID uint) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	result := db.Where(agencyScopeQueryPattern, agencyID).
		Order("hierarchy_level DESC, name ASC").
		Find(&roles)
	if result.Error != nil {
		return nil, result.Error
	}

	return roles, nil
}

// Create persists a new role. The slug must be unique across the platform.
func Create(db *gorm.DB, r *models.Role) error {
	if db == nil {
		return ErrDBNil
	}

	var existing models.Role
	result := db.Where(slugQueryPattern, r.Slug).First(&existing)
	if result.Error == nil {
		return ErrSlugTaken
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return db.Create(r).Error
}

// Update saves changes to an existing role.
func Update(db *gorm.DB, r *models.Role) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Save(r).Error
}

// Delete removes a deletable role. Members holding the role fall back to
// their legacy role: the member rows keep working with role_id cleared.
func Delete(db *gorm.DB, agencyID uint, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	r, err := Get(db, agencyID, id)
	if err != nil {
		return err
	}

	if !r.Deletable() {
		return ErrRoleProtected
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TeamMember{}).
			Where(roleIDQueryPattern, r.ID).
			Update("role_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where(roleIDQueryPattern, r.ID).
			Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Role{}, r.ID).Error
	})
}

// GrantCodes returns the permission codes granted to a role, sorted by code.
func GrantCodes(db *gorm.DB, roleID uint) ([]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var codes []string
	err := db.Table("permissions").
		Select("permissions.code").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Order("permissions.code ASC").
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, err
	}

	return codes, nil
}

// SetGrants replaces a role's permission grants with the given codes.
// Every code must exist in the permission catalog.
func SetGrants(db *gorm.DB, roleID uint, codes []string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var permissions []models.Permission
		if len(codes) > 0 {
			if err := tx.Where("code IN ?", codes).Find(&permissions).Error; err != nil {
				return err
			}

			if len(permissions) != len(codes) {
				return ErrUnknownPermission
			}
		}

		if err := tx.Where(roleIDQueryPattern, roleID).
			Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}

		for _, p := range permissions {
			if err := tx.Create(&models.RolePermission{
				RoleID:       roleID,
				PermissionID: p.ID,
			}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Clone copies a role and its grants into a new role owned by the agency.
// The clone is always deletable, even when the source is protected.
func Clone(db *gorm.DB, agencyID uint, sourceID uint, name string, slug string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	source, err := Get(db, agencyID, sourceID)
	if err != nil {
		return nil, err
	}

	codes, err := GrantCodes(db, source.ID)
	if err != nil {
		return nil, err
	}

	clone := &models.Role{
		AgencyID:       &agencyID,
		Name:           name,
		Slug:           slug,
		Color:          source.Color,
		HierarchyLevel: source.HierarchyLevel,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := Create(tx, clone); err != nil {
			return err
		}

		return SetGrants(tx, clone.ID, codes)
	})
	if err != nil {
		return nil, err
	}

	return clone, nil
}
