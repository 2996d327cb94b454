// internal/service/checkout/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"storefront/internal/service/checkout/domain"
)

// GormFlowRepository 是 FlowRepository 的 GORM 实现
type GormFlowRepository struct {
	db *gorm.DB
}

func NewGormFlowRepository(db *gorm.DB) *GormFlowRepository {
	return &GormFlowRepository{db: db}
}

func (r *GormFlowRepository) FindByID(ctx context.Context, id string) (*domain.FlowConfig, error) {
	var model CheckoutFlowModel
	err := r.db.WithContext(ctx).Where("flow_id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, pkgerrors.Wrapf(err, "failed to load flow %s", id)
	}
	return toDomainFlow(&model)
}

// FindDefault 没有标记为默认的记录时返回内置默认流程。
func (r *GormFlowRepository) FindDefault(ctx context.Context) (*domain.FlowConfig, error) {
	var model CheckoutFlowModel
	err := r.db.WithContext(ctx).Where("is_default = ?", true).Order("flow_id").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			def := domain.DefaultFlow()
			return &def, nil
		}
		return nil, pkgerrors.Wrap(err, "failed to load default flow")
	}
	return toDomainFlow(&model)
}

func (r *GormFlowRepository) List(ctx context.Context) ([]domain.FlowConfig, error) {
	var models []CheckoutFlowModel
	if err := r.db.WithContext(ctx).Order("flow_id").Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list flows")
	}
	flows := make([]domain.FlowConfig, 0, len(models))
	for i := range models {
		f, err := toDomainFlow(&models[i])
		if err != nil {
			return nil, err
		}
		flows = append(flows, *f)
	}
	return flows, nil
}

// Save 以 upsert 方式保存流程；新的默认流程会在同一事务中取消其他流程的默认标记。
func (r *GormFlowRepository) Save(ctx context.Context, flow *domain.FlowConfig) error {
	model, err := toFlowModel(flow)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if model.IsDefault {
			err := tx.Model(&CheckoutFlowModel{}).
				Where("is_default = ? AND flow_id <> ?", true, model.FlowID).
				Update("is_default", false).Error
			if err != nil {
				return pkgerrors.Wrap(err, "failed to clear previous default flow")
			}
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "flow_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "is_default", "definition", "updated_at"}),
		}).Create(model).Error
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to save flow %s", model.FlowID)
		}
		return nil
	})
}
