package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
)

type mockAuditRepo struct {
	mu     sync.Mutex
	events []models.AuditEvent
	err    error
}

func (m *mockAuditRepo) Create(ctx context.Context, event *models.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *mockAuditRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestAuditServicePersistsEvents(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, AuditQueueConfig{Workers: 1, BufferSize: 8}, nil)
	svc.Start(context.Background())

	svc.Record("teacher-1", models.AuditActionEnroll, "enrollment", "enr-1", map[string]interface{}{
		"offering_id": "off-1",
	})
	svc.Stop()

	require.Equal(t, 1, repo.count())
	event := repo.events[0]
	assert.Equal(t, "teacher-1", event.ActorID)
	assert.Equal(t, models.AuditActionEnroll, event.Action)
	assert.Equal(t, "enrollment", event.ResourceType)
	assert.JSONEq(t, `{"offering_id":"off-1"}`, string(event.Details))
}

func TestAuditServiceWriteFailureIsDiscarded(t *testing.T) {
	repo := &mockAuditRepo{err: errors.New("sink down")}
	svc := NewAuditService(repo, AuditQueueConfig{Workers: 1, BufferSize: 8, MaxRetries: 1, RetryDelay: time.Millisecond}, nil)
	svc.Start(context.Background())

	// Must not panic or surface the failure to the caller.
	svc.Record("teacher-1", models.AuditActionOfferingCreate, "offering", "off-1", nil)
	svc.Stop()

	assert.Equal(t, 0, repo.count())
}

func TestAuditServiceRecordBeforeStartDropsQuietly(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, AuditQueueConfig{}, nil)

	svc.Record("teacher-1", models.AuditActionEnroll, "enrollment", "enr-1", nil)
	assert.Equal(t, 0, repo.count())
}
