package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/workflow"
)

func newTestTemplateService(tmplRepo *mockTemplateRepo, instRepo *mockInstanceRepo) TemplateService {
	return NewTemplateService(tmplRepo, instRepo, &mockLogger{})
}

func TestTemplateService_Create(t *testing.T) {
	svc := newTestTemplateService(&mockTemplateRepo{}, &mockInstanceRepo{})

	tmpl, err := svc.Create(context.Background(), testTemplate(0))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if tmpl.ID != 1 {
		t.Errorf("id = %d, want 1", tmpl.ID)
	}
	if tmpl.CreatedAt.IsZero() || tmpl.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestTemplateService_Create_Invalid(t *testing.T) {
	svc := newTestTemplateService(&mockTemplateRepo{
		createFunc: func(ctx context.Context, tmpl *entity.WorkflowTemplate) error {
			t.Error("Create() must not be called for an invalid template")
			return nil
		},
	}, &mockInstanceRepo{})

	tmpl := testTemplate(0)
	tmpl.Steps = nil

	_, err := svc.Create(context.Background(), tmpl)

	var verr *workflow.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Create() error = %v, want ValidationError", err)
	}
}

func TestTemplateService_UpdateMetadata(t *testing.T) {
	var saved *entity.WorkflowTemplate
	tmplRepo := &mockTemplateRepo{
		updateMetadataFunc: func(ctx context.Context, tmpl *entity.WorkflowTemplate) error {
			saved = tmpl
			return nil
		},
	}
	svc := newTestTemplateService(tmplRepo, &mockInstanceRepo{})

	name := "Expense approval v2"
	active := false
	tmpl, err := svc.UpdateMetadata(context.Background(), 1, TemplateMetadataUpdate{Name: &name, IsActive: &active})
	if err != nil {
		t.Fatalf("UpdateMetadata() failed: %v", err)
	}
	if tmpl.Name != name {
		t.Errorf("name = %q, want %q", tmpl.Name, name)
	}
	if tmpl.IsActive {
		t.Error("template should be inactive")
	}
	if saved == nil {
		t.Fatal("template was not written back")
	}
	if len(saved.Steps) != 2 {
		t.Errorf("steps were touched by a metadata update: %d", len(saved.Steps))
	}
}

func TestTemplateService_UpdateMetadata_RevalidatesName(t *testing.T) {
	svc := newTestTemplateService(&mockTemplateRepo{}, &mockInstanceRepo{})

	bad := "ab"
	_, err := svc.UpdateMetadata(context.Background(), 1, TemplateMetadataUpdate{Name: &bad})

	var verr *workflow.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("UpdateMetadata() error = %v, want ValidationError", err)
	}
}

func TestTemplateService_Delete(t *testing.T) {
	deleted := false
	tmplRepo := &mockTemplateRepo{
		deleteFunc: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}
	svc := newTestTemplateService(tmplRepo, &mockInstanceRepo{})

	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !deleted {
		t.Error("repository Delete() was not called")
	}
}

func TestTemplateService_Delete_RefusedWhileReferenced(t *testing.T) {
	tmplRepo := &mockTemplateRepo{
		deleteFunc: func(ctx context.Context, id int64) error {
			t.Error("Delete() must not be called while live instances exist")
			return nil
		},
	}
	instRepo := &mockInstanceRepo{
		countFunc: func(ctx context.Context, templateID int64) (int, error) {
			return 2, nil
		},
	}
	svc := newTestTemplateService(tmplRepo, instRepo)

	err := svc.Delete(context.Background(), 1)

	var verr *workflow.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Delete() error = %v, want ValidationError", err)
	}
	if !strings.Contains(err.Error(), "2 active instance(s)") {
		t.Errorf("error = %q, want it to name the live instance count", err)
	}
}
