package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	assignmentdomain "github.com/smallbiznis/pricebook/internal/assignment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() assignmentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, assignment *assignmentdomain.CustomerPriceAssignment) error {
	return db.WithContext(ctx).Create(assignment).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&assignmentdomain.CustomerPriceAssignment{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*assignmentdomain.CustomerPriceAssignment, error) {
	var assignment assignmentdomain.CustomerPriceAssignment
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *repo) ListByPriceList(ctx context.Context, db *gorm.DB, tenantID, priceListID snowflake.ID) ([]assignmentdomain.CustomerPriceAssignment, error) {
	var assignments []assignmentdomain.CustomerPriceAssignment
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND price_list_id = ?", tenantID, priceListID).
		Order("priority DESC, created_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repo) ListForAssignees(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, assignees []assignmentdomain.Assignee) ([]assignmentdomain.CustomerPriceAssignment, error) {
	if len(assignees) == 0 {
		return nil, nil
	}

	conds := make([]string, 0, len(assignees))
	args := make([]any, 0, len(assignees)*2)
	for _, assignee := range assignees {
		conds = append(conds, "(assignee_type = ? AND assignee_id = ?)")
		args = append(args, assignee.Type, assignee.ID)
	}

	var assignments []assignmentdomain.CustomerPriceAssignment
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Where(strings.Join(conds, " OR "), args...).
		Order("priority DESC, created_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}
