package teams

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
)

// Repository persists teams and their memberships.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTeam(ctx context.Context, team *models.Team) error
	FindTeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListTeamsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Team, error)
	AddMember(ctx context.Context, member *models.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) (int64, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error)
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateTeam(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *repositoryImpl) FindTeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *repositoryImpl) ListTeamsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&teams).Error
	return teams, err
}

func (r *repositoryImpl) AddMember(ctx context.Context, member *models.TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *repositoryImpl) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *repositoryImpl) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	return count > 0, err
}
