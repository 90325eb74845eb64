package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"dental-clinic-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// Redis keys for the local mirror. One entry per entity collection,
	// holding the JSON-encoded list in the same shape as the API responses.
	patientsMirrorKey = "cache:patients"
	servicesMirrorKey = "cache:services"

	// Queue of invoices that could not reach PostgreSQL. A reconciliation
	// pass can drain it later; until then the records are sync-pending.
	pendingInvoicesKey = "cache:invoices:pending"

	// Timeout for individual Redis operations
	mirrorOpTimeout = 5 * time.Second

	// Interval for cleaning up stale in-flight markers
	markerCleanupInterval = 10 * time.Minute

	// How long an in-flight marker must be unused before cleanup
	markerStaleThreshold = 10 * time.Minute
)

// CacheMirror is the local fallback tier: a full mirror of the patient and
// service collections plus a sync-pending invoice queue. It also guards
// against double-submitted invoice generations.
type CacheMirror interface {
	MirrorPatients(ctx context.Context, patients []entity.Patient)
	MirrorServices(ctx context.Context, services []entity.Service)
	LoadPatients(ctx context.Context) ([]entity.Patient, error)
	LoadServices(ctx context.Context) ([]entity.Service, error)
	AppendPatient(ctx context.Context, patient *entity.Patient)
	RemovePatient(ctx context.Context, id uuid.UUID)
	AppendService(ctx context.Context, svc *entity.Service)
	RemoveService(ctx context.Context, id uuid.UUID)
	EnqueuePendingInvoice(ctx context.Context, invoice *entity.Invoice)
	PendingInvoiceCount(ctx context.Context) (int64, error)
	BeginGeneration(patientID uuid.UUID) bool
	EndGeneration(patientID uuid.UUID)
	Stop()
}

// RedisCacheMirror implements CacheMirror on Redis.
//
// Mirror writes are best-effort: a failed mirror write is logged and
// swallowed, because the mirror is a fallback, not a source of truth. Reads
// are only consulted when PostgreSQL is unreachable.
type RedisCacheMirror struct {
	redisClient *redis.Client
	log         *logrus.Logger

	// Per-patient in-flight marker for invoice generation
	inflight sync.Map // map[uuid.UUID]*markerWithTimestamp

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// markerWithTimestamp tracks marker usage for cleanup
type markerWithTimestamp struct {
	active   atomic.Bool
	lastUsed atomic.Int64 // Unix timestamp
}

// NewRedisCacheMirror creates a RedisCacheMirror and starts the background
// marker cleanup goroutine. Call Stop() during graceful shutdown.
func NewRedisCacheMirror(redisClient *redis.Client, log *logrus.Logger) *RedisCacheMirror {
	m := &RedisCacheMirror{
		redisClient: redisClient,
		log:         log,
		stopChan:    make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupMarkersLoop()

	return m
}

// Stop gracefully shuts down the mirror. Safe to call multiple times.
func (m *RedisCacheMirror) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		close(m.stopChan)
		m.wg.Wait()
		m.log.Info("CacheMirror stopped")
	}
}

// MirrorPatients overwrites the patient mirror with the full collection.
// Called after every successful patient mutation.
func (m *RedisCacheMirror) MirrorPatients(ctx context.Context, patients []entity.Patient) {
	m.writeMirror(ctx, patientsMirrorKey, patients)
}

// MirrorServices overwrites the service mirror with the full collection.
func (m *RedisCacheMirror) MirrorServices(ctx context.Context, services []entity.Service) {
	m.writeMirror(ctx, servicesMirrorKey, services)
}

// LoadPatients reads the mirrored patient collection. Used when PostgreSQL
// is unreachable.
func (m *RedisCacheMirror) LoadPatients(ctx context.Context) ([]entity.Patient, error) {
	var patients []entity.Patient
	if err := m.readMirror(ctx, patientsMirrorKey, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// LoadServices reads the mirrored service collection.
func (m *RedisCacheMirror) LoadServices(ctx context.Context) ([]entity.Service, error) {
	var services []entity.Service
	if err := m.readMirror(ctx, servicesMirrorKey, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// AppendPatient adds one patient to the mirror without touching PostgreSQL.
// Used when the primary store rejected the write: the record must survive in
// the local tier so the operator's input is not lost.
func (m *RedisCacheMirror) AppendPatient(ctx context.Context, patient *entity.Patient) {
	patients, err := m.LoadPatients(ctx)
	if err != nil && err != redis.Nil {
		m.log.Warnf("Failed to load patient mirror for append: %+v", err)
	}
	patients = append(patients, *patient)
	m.MirrorPatients(ctx, patients)
}

// RemovePatient drops one patient from the mirror.
func (m *RedisCacheMirror) RemovePatient(ctx context.Context, id uuid.UUID) {
	patients, err := m.LoadPatients(ctx)
	if err != nil {
		if err != redis.Nil {
			m.log.Warnf("Failed to load patient mirror for removal: %+v", err)
		}
		return
	}

	kept := patients[:0]
	for _, p := range patients {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.MirrorPatients(ctx, kept)
}

// AppendService adds one service to the mirror after a failed primary write.
func (m *RedisCacheMirror) AppendService(ctx context.Context, svc *entity.Service) {
	services, err := m.LoadServices(ctx)
	if err != nil && err != redis.Nil {
		m.log.Warnf("Failed to load service mirror for append: %+v", err)
	}
	services = append(services, *svc)
	m.MirrorServices(ctx, services)
}

// RemoveService drops one service from the mirror.
func (m *RedisCacheMirror) RemoveService(ctx context.Context, id uuid.UUID) {
	services, err := m.LoadServices(ctx)
	if err != nil {
		if err != redis.Nil {
			m.log.Warnf("Failed to load service mirror for removal: %+v", err)
		}
		return
	}

	kept := services[:0]
	for _, s := range services {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	m.MirrorServices(ctx, kept)
}

// EnqueuePendingInvoice pushes an invoice that failed the transactional save
// onto the sync-pending queue. Best-effort: if Redis is also down, the
// failure is logged and the caller still returns the computed breakdown.
func (m *RedisCacheMirror) EnqueuePendingInvoice(ctx context.Context, invoice *entity.Invoice) {
	opCtx, cancel := context.WithTimeout(ctx, mirrorOpTimeout)
	defer cancel()

	payload, err := json.Marshal(invoice)
	if err != nil {
		m.log.Errorf("Failed to encode pending invoice %s: %+v", invoice.ID, err)
		return
	}

	if err := m.redisClient.RPush(opCtx, pendingInvoicesKey, payload).Err(); err != nil {
		m.log.Errorf("Failed to enqueue pending invoice for %s: %+v", invoice.PatientCode, err)
		return
	}

	m.log.Warnf("Invoice for %s queued as sync-pending", invoice.PatientCode)
}

// PendingInvoiceCount returns how many invoices await reconciliation.
func (m *RedisCacheMirror) PendingInvoiceCount(ctx context.Context) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, mirrorOpTimeout)
	defer cancel()

	n, err := m.redisClient.LLen(opCtx, pendingInvoicesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("pending invoice count: %w", err)
	}
	return n, nil
}

// BeginGeneration marks an invoice generation as in flight for a patient.
// Returns false when one is already running, so a double-submitted request
// cannot charge the patient twice. Callers that get true must call
// EndGeneration when done.
func (m *RedisCacheMirror) BeginGeneration(patientID uuid.UUID) bool {
	mk, _ := m.inflight.LoadOrStore(patientID, &markerWithTimestamp{})
	marker := mk.(*markerWithTimestamp)
	marker.lastUsed.Store(time.Now().Unix())
	return marker.active.CompareAndSwap(false, true)
}

// EndGeneration clears the in-flight marker for a patient.
func (m *RedisCacheMirror) EndGeneration(patientID uuid.UUID) {
	if mk, ok := m.inflight.Load(patientID); ok {
		mk.(*markerWithTimestamp).active.Store(false)
	}
}

func (m *RedisCacheMirror) writeMirror(ctx context.Context, key string, collection interface{}) {
	opCtx, cancel := context.WithTimeout(ctx, mirrorOpTimeout)
	defer cancel()

	payload, err := json.Marshal(collection)
	if err != nil {
		m.log.Errorf("Failed to encode mirror %s: %+v", key, err)
		return
	}

	if err := m.redisClient.Set(opCtx, key, payload, 0).Err(); err != nil {
		m.log.Warnf("Failed to write mirror %s (non-fatal): %+v", key, err)
		return
	}

	m.log.Debugf("Mirror %s updated", key)
}

func (m *RedisCacheMirror) readMirror(ctx context.Context, key string, out interface{}) error {
	opCtx, cancel := context.WithTimeout(ctx, mirrorOpTimeout)
	defer cancel()

	payload, err := m.redisClient.Get(opCtx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

// cleanupMarkersLoop runs in background to clean stale in-flight markers
func (m *RedisCacheMirror) cleanupMarkersLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(markerCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			m.log.Debug("Marker cleanup goroutine stopping")
			return
		case <-ticker.C:
			m.cleanupStaleMarkers()
		}
	}
}

// cleanupStaleMarkers removes markers that are inactive and unused past the
// stale threshold.
func (m *RedisCacheMirror) cleanupStaleMarkers() {
	cutoff := time.Now().Add(-markerStaleThreshold).Unix()
	var cleaned int

	m.inflight.Range(func(key, value any) bool {
		marker, ok := value.(*markerWithTimestamp)
		if !ok {
			return true
		}

		if !marker.active.Load() && marker.lastUsed.Load() < cutoff {
			m.inflight.Delete(key)
			cleaned++
		}
		return true
	})

	if cleaned > 0 {
		m.log.Debugf("Cleaned up %d stale in-flight markers", cleaned)
	}
}
