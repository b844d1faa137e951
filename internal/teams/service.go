package teams

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/internal/users"
	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
)

// Service manages provider teams. Only providers can own teams or be
// added as members; ownership gates mutation.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Team, error)
	AddMember(ctx context.Context, actorID, teamID, userID uuid.UUID) (*models.TeamMember, error)
	RemoveMember(ctx context.Context, actorID, teamID, userID uuid.UUID) error
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]models.Team, error)
}

type service struct {
	repo  Repository
	users users.Repository
}

func NewService(repo Repository, userRepo users.Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "teams repository required")
	}
	if userRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo, users: userRepo}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "team name required")
	}

	owner, err := s.loadProvider(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		ID:      uuid.New(),
		Name:    name,
		OwnerID: owner.ID,
	}
	if err := s.repo.CreateTeam(ctx, team); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist team")
	}
	return team, nil
}

func (s *service) AddMember(ctx context.Context, actorID, teamID, userID uuid.UUID) (*models.TeamMember, error) {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the team owner can add members")
	}

	if _, err := s.loadProvider(ctx, userID); err != nil {
		return nil, err
	}

	already, err := s.repo.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if already {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "provider is already a team member")
	}

	member := &models.TeamMember{
		ID:     uuid.New(),
		TeamID: teamID,
		UserID: userID,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist team member")
	}
	return member, nil
}

func (s *service) RemoveMember(ctx context.Context, actorID, teamID, userID uuid.UUID) error {
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the team owner can remove members")
	}

	removed, err := s.repo.RemoveMember(ctx, teamID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove team member")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "team member not found")
	}
	return nil
}

func (s *service) ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	if _, err := s.loadTeam(ctx, teamID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list team members")
	}
	return members, nil
}

func (s *service) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]models.Team, error) {
	teams, err := s.repo.ListTeamsByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list teams")
	}
	return teams, nil
}

func (s *service) loadTeam(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.repo.FindTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load team")
	}
	return team, nil
}

func (s *service) loadProvider(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if user.Role != enums.UserRoleProvider {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is not a provider")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider account is inactive")
	}
	return user, nil
}
