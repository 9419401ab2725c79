package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"treevite/server/internal/model"
)

type pgWaveRepository struct {
	db *gorm.DB
}

func NewPGWaveRepository(db *gorm.DB) WaveRepository {
	return &pgWaveRepository{db: db}
}

func (r *pgWaveRepository) Create(ctx context.Context, wave *model.Wave) error {
	return r.db.WithContext(ctx).Create(wave).Error
}

func (r *pgWaveRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Wave, error) {
	var wave model.Wave
	if err := r.db.WithContext(ctx).First(&wave, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wave, nil
}

func (r *pgWaveRepository) GetByNumber(ctx context.Context, conversationID uuid.UUID, number int) (*model.Wave, error) {
	var wave model.Wave
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND wave_number = ?", conversationID, number).
		First(&wave).Error
	if err != nil {
		return nil, err
	}
	return &wave, nil
}

func (r *pgWaveRepository) MaxWaveNumber(ctx context.Context, conversationID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&model.Wave{}).
		Where("conversation_id = ?", conversationID).
		Select("MAX(wave_number)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *pgWaveRepository) ListChildren(ctx context.Context, conversationID uuid.UUID, parentNumber int) ([]model.Wave, error) {
	var waves []model.Wave
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND parent_wave_number = ?", conversationID, parentNumber).
		Order("wave_number ASC").
		Find(&waves).Error
	return waves, err
}

func (r *pgWaveRepository) List(ctx context.Context, conversationID uuid.UUID, waveNumber *int, limit, offset int) ([]model.Wave, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Wave{}).
		Where("conversation_id = ?", conversationID)
	if waveNumber != nil {
		query = query.Where("wave_number = ?", *waveNumber)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var waves []model.Wave
	err := query.
		Order("wave_number ASC").
		Limit(limit).
		Offset(offset).
		Find(&waves).Error
	return waves, total, err
}
