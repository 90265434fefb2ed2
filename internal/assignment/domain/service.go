package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Assign(ctx context.Context, req AssignRequest) (*CustomerPriceAssignment, error)
	Unassign(ctx context.Context, id string) error
	List(ctx context.Context, priceListID string) ([]CustomerPriceAssignment, error)
}

type AssignRequest struct {
	PriceListID   string       `json:"price_list_id"`
	AssigneeType  AssigneeType `json:"assignee_type"`
	AssigneeID    string       `json:"assignee_id"`
	Priority      int32        `json:"priority"`
	EffectiveFrom *time.Time   `json:"effective_from"`
	EffectiveTo   *time.Time   `json:"effective_to"`
	ExternalRef   *string      `json:"external_ref"`
}

var (
	ErrInvalidTenant       = errors.New("invalid_tenant")
	ErrInvalidPriceList    = errors.New("invalid_price_list")
	ErrInvalidAssigneeType = errors.New("invalid_assignee_type")
	ErrInvalidAssignee     = errors.New("invalid_assignee")
	ErrInvalidWindow       = errors.New("invalid_effective_window")
	ErrInvalidID           = errors.New("invalid_id")
	ErrDuplicateAssignment = errors.New("duplicate_assignment")
	ErrNotFound            = errors.New("not_found")
)
