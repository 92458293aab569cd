package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/earnclock/internal/domain"
)

// Catalog is a converted import, ready for persistence.
type Catalog struct {
	Categories []*domain.Category
	Tasks      []*domain.Task
}

// Convert transforms a validated CatalogSchema into domain objects.
// Call ValidateCatalogSchema first; Convert assumes the schema is valid.
// fallbackUser owns tasks that name no user when the file has no default_user.
func Convert(schema *CatalogSchema, fallbackUser string, now time.Time) (*Catalog, error) {
	now = now.UTC()
	out := &Catalog{
		Categories: make([]*domain.Category, 0, len(schema.Categories)),
		Tasks:      make([]*domain.Task, 0, len(schema.Tasks)),
	}

	for _, c := range schema.Categories {
		cat := &domain.Category{ID: c.ID, Name: c.Name, UpdatedAt: now}
		if c.HourlyRate != nil {
			rate, err := domain.ParseMoney(c.HourlyRate.Raw)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", c.ID, err)
			}
			cat.HourlyRate = &rate
		}
		out.Categories = append(out.Categories, cat)
	}

	for _, t := range schema.Tasks {
		user := t.UserID
		if user == "" {
			user = schema.DefaultUser
		}
		if user == "" {
			user = fallbackUser
		}
		task := &domain.Task{ID: t.ID, UserID: user, Title: t.Title, CreatedAt: now}
		if t.CategoryID != "" {
			id := t.CategoryID
			task.CategoryID = &id
		}
		out.Tasks = append(out.Tasks, task)
	}
	return out, nil
}
