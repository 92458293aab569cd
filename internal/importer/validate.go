package importer

import (
	"fmt"

	"github.com/alexanderramin/earnclock/internal/domain"
)

// ValidateCatalogSchema checks the schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateCatalogSchema(schema *CatalogSchema) []error {
	var errs []error

	categoryIDs := make(map[string]bool)
	errs = append(errs, validateCategories(schema.Categories, categoryIDs)...)
	errs = append(errs, validateTasks(schema.Tasks, schema.DefaultUser)...)

	return errs
}

func validateCategories(cats []CategoryImport, ids map[string]bool) []error {
	var errs []error
	for i, c := range cats {
		prefix := fmt.Sprintf("categories[%d]", i)
		if c.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		} else if ids[c.ID] {
			errs = append(errs, fmt.Errorf("%s.id %q is duplicated", prefix, c.ID))
		}
		ids[c.ID] = true
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if c.HourlyRate != nil {
			rate, err := domain.ParseMoney(c.HourlyRate.Raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s.hourly_rate: %w", prefix, err))
			} else if rate.IsNegative() {
				errs = append(errs, fmt.Errorf("%s.hourly_rate must not be negative", prefix))
			}
		}
	}
	return errs
}

// Tasks may reference categories outside the file; those are resolved (or
// reported missing) when a session starts.
func validateTasks(tasks []TaskImport, defaultUser string) []error {
	var errs []error
	seen := make(map[string]bool)
	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		} else if seen[t.ID] {
			errs = append(errs, fmt.Errorf("%s.id %q is duplicated", prefix, t.ID))
		}
		seen[t.ID] = true
		if t.UserID == "" && defaultUser == "" {
			errs = append(errs, fmt.Errorf("%s.user_id is required (no default_user set)", prefix))
		}
	}
	return errs
}
