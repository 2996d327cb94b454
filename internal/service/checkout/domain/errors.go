// internal/service/checkout/domain/errors.go
package domain

import "errors"

var (
	ErrFlowNotFound     = errors.New("checkout flow not found")
	ErrInvalidFlow      = errors.New("invalid checkout flow")
	ErrFlowLocked       = errors.New("checkout flow is being edited")
	ErrInvalidCondition = errors.New("invalid condition expression")
)
