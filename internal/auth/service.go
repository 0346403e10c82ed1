package auth

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/access"
	"github.com/AgencyDesk/AgencyDesk/internal/db/controller/role"
	"github.com/AgencyDesk/AgencyDesk/internal/db/models"
)

// Service resolves members and their effective access.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// LoadMember retrieves a member by ID with the assigned role preloaded.
func (s *Service) LoadMember(memberID uint64) (*models.TeamMember, error) {
	var member models.TeamMember

	err := s.db.Preload("Role").First(&member, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load member: %w", err)
	}

	return &member, nil
}

// ResolveAccess computes the member's effective access. A failed grant
// lookup degrades to the legacy role mapping instead of failing the request.
func (s *Service) ResolveAccess(member *models.TeamMember) access.EffectiveAccess {
	var (
		codes   []string
		roleErr error
	)

	if member != nil && member.RoleID != nil {
		if member.Role == nil {
			var r models.Role
			roleErr = s.db.First(&r, *member.RoleID).Error
			if roleErr == nil {
				member.Role = &r
			}
		}

		if roleErr == nil {
			codes, roleErr = role.GrantCodes(s.db, *member.RoleID)
		}

		if roleErr != nil {
			log.Warn().Err(roleErr).Uint64("member_id", member.ID).
				Msg("role grant lookup failed, degrading to legacy role")
		}
	}

	return access.Resolve(member, codes, roleErr)
}

// ResolveAccessByID loads a member and computes their effective access.
func (s *Service) ResolveAccessByID(memberID uint64) (*models.TeamMember, access.EffectiveAccess, error) {
	member, err := s.LoadMember(memberID)
	if err != nil {
		return nil, access.Resolve(nil, nil, nil), err
	}

	return member, s.ResolveAccess(member), nil
}
