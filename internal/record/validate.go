package record

import (
	"strings"
	"time"

	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/entity"
)

var frequencies = map[entity.ExpenseFrequency]bool{
	entity.FrequencyOnce:      true,
	entity.FrequencyWeekly:    true,
	entity.FrequencyBiweekly:  true,
	entity.FrequencyMonthly:   true,
	entity.FrequencyQuarterly: true,
	entity.FrequencyYearly:    true,
}

var priorities = map[entity.TaskPriority]bool{
	entity.PriorityLow:    true,
	entity.PriorityMedium: true,
	entity.PriorityHigh:   true,
	entity.PriorityUrgent: true,
}

func validateExpense(c *cache.Cache, e entity.Expense) error {
	if strings.TrimSpace(e.Name) == "" {
		return invalid("expense name is required")
	}
	if e.Amount.IsNegative() {
		return invalid("expense amount is negative")
	}
	if e.Date.IsZero() {
		return invalid("expense date is required")
	}
	if e.Frequency != "" && !frequencies[e.Frequency] {
		return invalid("unknown frequency %q", e.Frequency)
	}
	return projectExists(c, e.ProjectID)
}

func validateTask(c *cache.Cache, t entity.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return invalid("task title is required")
	}
	if t.Priority != "" && !priorities[t.Priority] {
		return invalid("unknown priority %q", t.Priority)
	}
	if t.StatusID != nil {
		if _, ok := cache.Get[entity.TaskStatus](c, *t.StatusID); !ok {
			return invalid("unknown task status %s", *t.StatusID)
		}
	}
	return projectExists(c, t.ProjectID)
}

func validateBooking(c *cache.Cache, b entity.Booking) error {
	if strings.TrimSpace(b.Title) == "" {
		return invalid("booking title is required")
	}
	if !b.EndTime.After(b.StartTime) {
		return invalid("booking ends before it starts")
	}
	if _, ok := cache.Get[entity.Service](c, b.ServiceID); !ok {
		return invalid("unknown service %s", b.ServiceID)
	}
	if b.ClientID != nil {
		if _, ok := c.Client(*b.ClientID); !ok {
			return invalid("unknown client %s", *b.ClientID)
		}
	}
	return projectExists(c, b.ProjectID)
}

func validateService(c *cache.Cache, s entity.Service) error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid("service name is required")
	}
	if s.DurationMinutes <= 0 {
		return invalid("service duration must be positive")
	}
	if s.Price.IsNegative() {
		return invalid("service price is negative")
	}
	if s.CategoryID != nil {
		if _, ok := cache.Get[entity.ServiceCategory](c, *s.CategoryID); !ok {
			return invalid("unknown category %s", *s.CategoryID)
		}
	}
	return nil
}

func validateCategory(_ *cache.Cache, sc entity.ServiceCategory) error {
	if strings.TrimSpace(sc.Name) == "" {
		return invalid("category name is required")
	}
	return nil
}

func validateAvailability(_ *cache.Cache, a entity.TeamAvailability) error {
	if a.DayOfWeek < 0 || a.DayOfWeek > 6 {
		return invalid("day of week %d out of range", a.DayOfWeek)
	}
	start, err := time.Parse("15:04", a.StartTime)
	if err != nil {
		return invalid("start time %q", a.StartTime)
	}
	end, err := time.Parse("15:04", a.EndTime)
	if err != nil {
		return invalid("end time %q", a.EndTime)
	}
	if !end.After(start) {
		return invalid("availability ends before it starts")
	}
	return nil
}

func validateBlockedTime(_ *cache.Cache, b entity.BlockedTime) error {
	if !b.EndTime.After(b.StartTime) {
		return invalid("blocked time ends before it starts")
	}
	return nil
}

func projectExists(c *cache.Cache, id *string) error {
	if id == nil {
		return nil
	}
	if _, ok := c.Project(*id); !ok {
		return invalid("unknown project %s", *id)
	}
	return nil
}
