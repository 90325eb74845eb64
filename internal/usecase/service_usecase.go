package usecase

import (
	"context"
	"errors"

	"dental-clinic-api/internal/converter"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/domain/repository"
	"dental-clinic-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrNegativePrice   = errors.New("service price cannot be negative")
)

type ServiceUsecase interface {
	Create(ctx context.Context, req *dto.CreateServiceRequest) (*dto.ServiceResponse, error)
	GetAll(ctx context.Context) (*dto.ServiceListResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ServiceResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type serviceUsecase struct {
	log         *logrus.Logger
	serviceRepo repository.ServiceRepository
	cache       service.CacheMirror
}

func NewServiceUsecase(
	log *logrus.Logger,
	serviceRepo repository.ServiceRepository,
	cache service.CacheMirror,
) ServiceUsecase {
	return &serviceUsecase{
		log:         log,
		serviceRepo: serviceRepo,
		cache:       cache,
	}
}

func (u *serviceUsecase) Create(ctx context.Context, req *dto.CreateServiceRequest) (*dto.ServiceResponse, error) {
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	svc := &entity.Service{
		ID:    uuid.New(),
		Name:  req.Name,
		Price: req.Price,
	}

	createCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if err := u.serviceRepo.Create(createCtx, svc); err != nil {
		u.log.Warnf("Failed to persist service %q, keeping local copy: %+v", svc.Name, err)
		u.cache.AppendService(ctx, svc)

		resp := converter.ServiceToResponse(svc)
		resp.SyncPending = true
		return resp, nil
	}

	u.refreshServiceMirror(ctx)
	return converter.ServiceToResponse(svc), nil
}

func (u *serviceUsecase) GetAll(ctx context.Context) (*dto.ServiceListResponse, error) {
	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	services, err := u.serviceRepo.FindAll(findCtx)
	if err != nil {
		u.log.Warnf("Primary store unreachable, reading service mirror: %+v", err)

		cached, cacheErr := u.cache.LoadServices(ctx)
		if cacheErr != nil {
			return nil, err
		}
		return &dto.ServiceListResponse{
			Services:  converter.ServicesToResponses(cached),
			Total:     len(cached),
			FromCache: true,
		}, nil
	}

	return &dto.ServiceListResponse{
		Services: converter.ServicesToResponses(services),
		Total:    len(services),
	}, nil
}

func (u *serviceUsecase) GetByID(ctx context.Context, id uuid.UUID) (*dto.ServiceResponse, error) {
	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	svc, err := u.serviceRepo.FindByID(findCtx, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}

	return converter.ServiceToResponse(svc), nil
}

func (u *serviceUsecase) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateServiceRequest) (*dto.ServiceResponse, error) {
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	svc, err := u.serviceRepo.FindByID(findCtx, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}

	svc.Name = req.Name
	svc.Price = req.Price

	updateCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if err := u.serviceRepo.Update(updateCtx, svc); err != nil {
		u.log.Warnf("Failed to persist service update %q, keeping local copy: %+v", svc.Name, err)
		u.cache.RemoveService(ctx, svc.ID)
		u.cache.AppendService(ctx, svc)

		resp := converter.ServiceToResponse(svc)
		resp.SyncPending = true
		return resp, nil
	}

	u.refreshServiceMirror(ctx)
	return converter.ServiceToResponse(svc), nil
}

// Delete removes a service from the catalog. Existing invoices keep their
// denormalized line snapshots, so nothing cascades. Returns true when the
// deletion only reached the local tier.
func (u *serviceUsecase) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	findCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	svc, err := u.serviceRepo.FindByID(findCtx, id)
	if err != nil {
		return false, err
	}
	if svc == nil {
		return false, ErrServiceNotFound
	}

	deleteCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if err := u.serviceRepo.Delete(deleteCtx, id); err != nil {
		u.log.Warnf("Failed to delete service %q from primary store: %+v", svc.Name, err)
		u.cache.RemoveService(ctx, id)
		return true, nil
	}

	u.cache.RemoveService(ctx, id)
	u.refreshServiceMirror(ctx)
	return false, nil
}

func (u *serviceUsecase) refreshServiceMirror(ctx context.Context) {
	mirrorCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	services, err := u.serviceRepo.FindAll(mirrorCtx)
	if err != nil {
		u.log.Warnf("Skipping service mirror refresh: %+v", err)
		return
	}
	u.cache.MirrorServices(ctx, services)
}
