package usecase

import (
	"context"
	"errors"
	"testing"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newServiceFixture() (ServiceUsecase, *fakeServiceRepo, *fakeCacheMirror) {
	repo := newFakeServiceRepo()
	cache := newFakeCacheMirror()
	return NewServiceUsecase(testLogger(), repo, cache), repo, cache
}

func TestServiceCreate(t *testing.T) {
	uc, repo, cache := newServiceFixture()

	resp, err := uc.Create(context.Background(), &dto.CreateServiceRequest{
		Name: "Limpieza dental", Price: decimal.RequireFromString("60.00"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Name != "Limpieza dental" || !resp.Price.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("response = %+v", resp)
	}
	if len(repo.services) != 1 {
		t.Errorf("stored services = %d, want 1", len(repo.services))
	}
	if len(cache.services) != 1 {
		t.Errorf("mirrored services = %d, want 1", len(cache.services))
	}
}

func TestServiceCreateRejectsNegativePrice(t *testing.T) {
	uc, _, _ := newServiceFixture()

	_, err := uc.Create(context.Background(), &dto.CreateServiceRequest{
		Name: "Consulta", Price: decimal.RequireFromString("-5"),
	})
	if !errors.Is(err, ErrNegativePrice) {
		t.Errorf("err = %v, want ErrNegativePrice", err)
	}
}

func TestServiceCreateFallsBackToMirror(t *testing.T) {
	uc, repo, cache := newServiceFixture()
	repo.err = errors.New("connection refused")

	resp, err := uc.Create(context.Background(), &dto.CreateServiceRequest{
		Name: "Consulta", Price: decimal.RequireFromString("20.00"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !resp.SyncPending {
		t.Error("SyncPending = false, want true")
	}
	if len(cache.services) != 1 {
		t.Errorf("mirrored services = %d, want 1", len(cache.services))
	}
}

func TestServiceGetAllFallsBackToMirror(t *testing.T) {
	uc, repo, cache := newServiceFixture()
	cache.services = []entity.Service{
		{ID: uuid.New(), Name: "Consulta", Price: decimal.RequireFromString("20.00")},
	}
	repo.err = errors.New("connection refused")

	resp, err := uc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if !resp.FromCache || resp.Total != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestServiceUpdate(t *testing.T) {
	uc, repo, _ := newServiceFixture()
	ctx := context.Background()

	created, err := uc.Create(ctx, &dto.CreateServiceRequest{
		Name: "Consulta", Price: decimal.RequireFromString("20.00"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := uc.Update(ctx, created.ID, &dto.UpdateServiceRequest{
		Name: "Consulta general", Price: decimal.RequireFromString("25.00"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Consulta general" {
		t.Errorf("Name = %q", updated.Name)
	}
	if !repo.services[created.ID].Price.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("stored price = %s", repo.services[created.ID].Price)
	}
}

func TestServiceUpdateNotFound(t *testing.T) {
	uc, _, _ := newServiceFixture()

	_, err := uc.Update(context.Background(), uuid.New(), &dto.UpdateServiceRequest{
		Name: "Consulta", Price: decimal.RequireFromString("20.00"),
	})
	if !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestServiceDelete(t *testing.T) {
	uc, repo, cache := newServiceFixture()
	ctx := context.Background()

	created, err := uc.Create(ctx, &dto.CreateServiceRequest{
		Name: "Consulta", Price: decimal.RequireFromString("20.00"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	syncPending, err := uc.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if syncPending {
		t.Error("syncPending = true, want false")
	}
	if len(repo.services) != 0 {
		t.Errorf("stored services = %d, want 0", len(repo.services))
	}
	if len(cache.services) != 0 {
		t.Errorf("mirrored services = %d, want 0", len(cache.services))
	}
}
