package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/broadcast"
	"github.com/alexanderramin/earnclock/internal/db"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/importer"
)

type catalogService struct {
	uow         db.UnitOfWork
	defaultUser string
	settings
}

// NewCatalogService maintains the local task/category read model. Category
// rate edits never touch sessions: rates are snapshotted at start.
func NewCatalogService(uow db.UnitOfWork, defaultUser string, opts ...Option) CatalogService {
	return &catalogService{uow: uow, defaultUser: defaultUser, settings: newSettings(opts)}
}

func (s *catalogService) ImportCatalog(ctx context.Context, filePath string) (*app.ImportResult, error) {
	schema, err := importer.LoadCatalogSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportCatalogFromSchema(ctx, schema)
}

func (s *catalogService) ImportCatalogFromSchema(ctx context.Context, schema *importer.CatalogSchema) (result *app.ImportResult, err error) {
	fields := map[string]any{"categories": len(schema.Categories), "tasks": len(schema.Tasks)}
	done := s.observe(ctx, "import-catalog", fields)
	defer func() { done(err) }()

	// Tasks without an owner fall back to the configured default user.
	resolved := *schema
	if resolved.DefaultUser == "" {
		resolved.DefaultUser = s.defaultUser
	}
	schema = &resolved

	if errs := importer.ValidateCatalogSchema(schema); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, domain.ValidationError("import catalog", "%d error(s): %s", len(errs), strings.Join(msgs, "; "))
	}

	now := s.now()
	catalog, err := importer.Convert(schema, s.defaultUser, now)
	if err != nil {
		return nil, err
	}

	result = &app.ImportResult{}
	users := make(map[string]bool)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		for _, c := range catalog.Categories {
			prev, err := r.categories.GetByID(ctx, c.ID)
			switch {
			case err == nil:
				if !sameRate(prev.HourlyRate, c.HourlyRate) {
					result.RateChanges++
				}
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
			if err := r.categories.Upsert(ctx, c); err != nil {
				return err
			}
			result.CategoryCount++
		}
		for _, t := range catalog.Tasks {
			if err := r.tasks.Upsert(ctx, t); err != nil {
				return err
			}
			users[t.UserID] = true
			result.TaskCount++
		}
		for u := range users {
			s.publishOnCommit(ctx, broadcast.Event{Kind: broadcast.CatalogChanged, UserID: u, At: now})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields["rate_changes"] = result.RateChanges
	return result, nil
}

func (s *catalogService) ListTasks(ctx context.Context, userID string) ([]*domain.Task, error) {
	if userID == "" {
		return nil, domain.ValidationError("list tasks", "user id is required")
	}
	var tasks []*domain.Task
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		tasks, err = newTxRepos(tx).tasks.ListByUser(ctx, userID)
		return err
	})
	return tasks, err
}

func sameRate(a, b *domain.Money) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
