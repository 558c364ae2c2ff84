package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/team/domain"
)

const (
	defaultProvince     = "QC"
	defaultPrimaryColor = "#9B7EBF"
)

var (
	defaultFederalRate    = decimal.RequireFromString("0.05")
	defaultProvincialRate = decimal.RequireFromString("0.09975")
)

var defaultProjectStatuses = []entity.ProjectStatus{
	{Name: "Waiting", Color: "gray", SortOrder: 0, IsDefault: true},
	{Name: "Concepting", Color: "purple", SortOrder: 1},
	{Name: "In-Progress", Color: "blue", SortOrder: 2},
	{Name: "Review", Color: "yellow", SortOrder: 3},
	{Name: "Revision", Color: "orange", SortOrder: 4},
	{Name: "Delivered", Color: "green", SortOrder: 5},
}

var defaultProjectTypes = []entity.ProjectType{
	{Name: "Video", Color: "red", SortOrder: 0},
	{Name: "Photo", Color: "blue", SortOrder: 1},
	{Name: "Design", Color: "purple", SortOrder: 2},
	{Name: "Web", Color: "green", SortOrder: 3},
	{Name: "Other", Color: "gray", SortOrder: 4},
}

var defaultTaskStatuses = []entity.TaskStatus{
	{Name: "To Do", Color: "gray", SortOrder: 0, IsDefault: true},
	{Name: "In Progress", Color: "blue", SortOrder: 1},
	{Name: "Done", Color: "green", SortOrder: 2, IsCompleted: true},
}

// ValidateDefaultStatus checks that at most one status is flagged default.
// Storage does not enforce it.
func ValidateDefaultStatus[T entity.Record](statuses []T, isDefault func(T) bool) error {
	var defaults []string
	for _, s := range statuses {
		if isDefault(s) {
			defaults = append(defaults, s.RecordID())
		}
	}
	if len(defaults) > 1 {
		return fmt.Errorf("%w: %v", domain.ErrMultipleDefaultStatus, defaults)
	}
	return nil
}
