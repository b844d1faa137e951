package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

func setupCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS services (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  description TEXT,
  base_price TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newCatalogService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestCreate_PersistsActiveService(t *testing.T) {
	db := setupCatalogDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Name:      "  Geyser Repair ",
		Category:  "appliances",
		BasePrice: decimal.NewFromInt(899),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Geyser Repair" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if !created.IsActive {
		t.Fatalf("expected new service to be active")
	}

	loaded, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !loaded.BasePrice.Equal(decimal.NewFromInt(899)) {
		t.Fatalf("unexpected base price %s", loaded.BasePrice)
	}
}

func TestCreate_RejectsNonPositivePrice(t *testing.T) {
	db := setupCatalogDB(t)
	svc := newCatalogService(t, db)

	_, err := svc.Create(context.Background(), CreateParams{
		Name:      "Pest Control",
		Category:  "cleaning",
		BasePrice: decimal.Zero,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdate_AppliesOnlyProvidedFields(t *testing.T) {
	db := setupCatalogDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Name:      "Sofa Shampoo",
		Category:  "cleaning",
		BasePrice: decimal.NewFromInt(1200),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newPrice := decimal.NewFromInt(1350)
	updated, err := svc.Update(ctx, created.ID, UpdateParams{BasePrice: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Sofa Shampoo" {
		t.Fatalf("name should be untouched, got %q", updated.Name)
	}
	if !updated.BasePrice.Equal(newPrice) {
		t.Fatalf("expected price %s, got %s", newPrice, updated.BasePrice)
	}

	blank := "   "
	if _, err := svc.Update(ctx, created.ID, UpdateParams{Name: &blank}); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
}

func TestUpdate_UnknownServiceNotFound(t *testing.T) {
	db := setupCatalogDB(t)
	svc := newCatalogService(t, db)

	name := "Anything"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateParams{Name: &name})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeactivate_HidesServiceFromActiveListing(t *testing.T) {
	db := setupCatalogDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateParams{
		Name:      "AC Servicing",
		Category:  "appliances",
		BasePrice: decimal.NewFromInt(649),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deactivated, err := svc.Deactivate(ctx, created.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.IsActive {
		t.Fatalf("expected service to be inactive")
	}

	result, err := svc.List(ctx, ListParams{Page: pagination.Params{Page: 1, Limit: 10}, ActiveOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Pagination.Total != 0 {
		t.Fatalf("expected no active services, got %d", result.Pagination.Total)
	}

	_, err = svc.Deactivate(ctx, uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestList_FiltersByCategory(t *testing.T) {
	db := setupCatalogDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	seeds := []CreateParams{
		{Name: "Tap Fix", Category: "plumbing", BasePrice: decimal.NewFromInt(299)},
		{Name: "Drain Cleaning", Category: "plumbing", BasePrice: decimal.NewFromInt(499)},
		{Name: "Fan Installation", Category: "electrical", BasePrice: decimal.NewFromInt(349)},
	}
	for _, params := range seeds {
		if _, err := svc.Create(ctx, params); err != nil {
			t.Fatalf("seed %s: %v", params.Name, err)
		}
	}

	result, err := svc.List(ctx, ListParams{
		Page:     pagination.Params{Page: 1, Limit: 10},
		Category: "plumbing",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Pagination.Total != 2 {
		t.Fatalf("expected 2 plumbing services, got %d", result.Pagination.Total)
	}
	// Alphabetical within the page.
	if result.Services[0].Name != "Drain Cleaning" {
		t.Fatalf("expected name ordering, got %q first", result.Services[0].Name)
	}
}
