// internal/service/checkout/infrastructure/gorm_model.go
package infrastructure

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"storefront/internal/service/checkout/domain"
)

// CheckoutFlowModel 对应数据库中的 checkout_flow 表。
// 步骤和支付规则作为一个 JSON 文档整体存储，流程总是整体读写。
type CheckoutFlowModel struct {
	FlowID     string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"size:255"`
	IsDefault  bool   `gorm:"index"`
	Definition string `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 指定 GORM 应该使用的表名
func (CheckoutFlowModel) TableName() string {
	return "checkout_flow"
}

// flowDefinition 是 Definition 列中 JSON 文档的结构。
type flowDefinition struct {
	Steps        []domain.Step        `json:"steps"`
	PaymentRules []domain.PaymentRule `json:"paymentRules"`
}

func toFlowModel(f *domain.FlowConfig) (*CheckoutFlowModel, error) {
	def, err := json.Marshal(flowDefinition{Steps: f.Steps, PaymentRules: f.PaymentRules})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal flow %s", f.ID)
	}
	return &CheckoutFlowModel{
		FlowID:     f.ID,
		Name:       f.Name,
		IsDefault:  f.IsDefault,
		Definition: string(def),
	}, nil
}

func toDomainFlow(m *CheckoutFlowModel) (*domain.FlowConfig, error) {
	var def flowDefinition
	if m.Definition != "" {
		if err := json.Unmarshal([]byte(m.Definition), &def); err != nil {
			return nil, errors.Wrapf(err, "corrupt definition for flow %s", m.FlowID)
		}
	}
	return &domain.FlowConfig{
		ID:           m.FlowID,
		Name:         m.Name,
		IsDefault:    m.IsDefault,
		Steps:        def.Steps,
		PaymentRules: def.PaymentRules,
	}, nil
}
