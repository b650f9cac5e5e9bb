package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/models"
	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
)

type mockOfferingRepo struct {
	mockOfferingCounterRepo
	created []*models.Offering
	updated []string
	status  map[string]models.OfferingStatus
}

func (m *mockOfferingRepo) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error) {
	var result []models.Offering
	for _, o := range m.offerings {
		result = append(result, o)
	}
	return result, len(result), nil
}

func (m *mockOfferingRepo) Create(ctx context.Context, offering *models.Offering) error {
	if offering.ID == "" {
		offering.ID = "new-offering"
	}
	if m.offerings == nil {
		m.offerings = make(map[string]models.Offering)
	}
	m.offerings[offering.ID] = *offering
	m.created = append(m.created, offering)
	return nil
}

func (m *mockOfferingRepo) Update(ctx context.Context, offering *models.Offering) error {
	m.offerings[offering.ID] = *offering
	m.updated = append(m.updated, offering.ID)
	return nil
}

func (m *mockOfferingRepo) UpdateStatus(ctx context.Context, id string, status models.OfferingStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.OfferingStatus)
	}
	m.status[id] = status
	if o, ok := m.offerings[id]; ok {
		o.Status = status
		m.offerings[id] = o
	}
	return nil
}

func newOfferingFixture() (*OfferingService, *mockOfferingRepo, *mockAuditRecorder) {
	repo := &mockOfferingRepo{mockOfferingCounterRepo: mockOfferingCounterRepo{
		offerings: map[string]models.Offering{
			"off-1": {
				ID: "off-1", Title: "Robotics Seminar", OwnerID: "teacher-1",
				Period: 3, Capacity: 12, CurrentEnrollment: 4,
				Status: models.OfferingStatusPublished,
			},
		},
	}}
	audit := &mockAuditRecorder{}
	svc := NewOfferingService(repo, audit, nil, nil)
	return svc, repo, audit
}

func TestCreateOfferingStartsAsDraft(t *testing.T) {
	svc, repo, audit := newOfferingFixture()

	offering, err := svc.Create(context.Background(), "teacher-1", CreateOfferingRequest{
		Title:      "Pottery Workshop",
		Period:     2,
		DaysOfWeek: []int{1, 3},
		Capacity:   8,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OfferingStatusDraft, offering.Status)
	assert.Equal(t, "teacher-1", offering.OwnerID)
	assert.Equal(t, 0, offering.CurrentEnrollment)
	assert.Len(t, repo.created, 1)
	assert.Contains(t, audit.actions, models.AuditActionOfferingCreate)
}

func TestCreateOfferingValidation(t *testing.T) {
	svc, _, _ := newOfferingFixture()

	cases := []CreateOfferingRequest{
		{Title: "No days", Period: 2, Capacity: 8},
		{Title: "Bad period", Period: 8, DaysOfWeek: []int{1}, Capacity: 8},
		{Title: "Bad day", Period: 2, DaysOfWeek: []int{7}, Capacity: 8},
		{Title: "Zero seats", Period: 2, DaysOfWeek: []int{1}, Capacity: 0},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), "teacher-1", req)
		assert.Error(t, err, "title %q should fail validation", req.Title)
	}
}

func TestUpdateOfferingRequiresOwner(t *testing.T) {
	svc, _, _ := newOfferingFixture()
	title := "Hijacked"

	_, err := svc.Update(context.Background(), "intruder", "off-1", UpdateOfferingRequest{Title: &title})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestUpdateOfferingRejectsCapacityBelowEnrollment(t *testing.T) {
	svc, _, _ := newOfferingFixture()
	capacity := 2 // off-1 already has 4 enrolled

	_, err := svc.Update(context.Background(), "teacher-1", "off-1", UpdateOfferingRequest{Capacity: &capacity})
	require.Error(t, err)
}

func TestArchiveKeepsOfferingRow(t *testing.T) {
	svc, repo, audit := newOfferingFixture()

	offering, err := svc.Archive(context.Background(), "teacher-1", "off-1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferingStatusArchived, offering.Status)
	assert.Equal(t, models.OfferingStatusArchived, repo.status["off-1"])
	_, exists := repo.offerings["off-1"]
	assert.True(t, exists)
	assert.Contains(t, audit.actions, models.AuditActionOfferingArchive)
}

func TestArchivedOfferingCannotBeUpdated(t *testing.T) {
	svc, _, _ := newOfferingFixture()
	_, err := svc.Archive(context.Background(), "teacher-1", "off-1")
	require.NoError(t, err)

	title := "Too late"
	_, err = svc.Update(context.Background(), "teacher-1", "off-1", UpdateOfferingRequest{Title: &title})
	require.Error(t, err)
}

func TestCloneZeroesCountersAndDrafts(t *testing.T) {
	svc, _, audit := newOfferingFixture()

	clone, err := svc.Clone(context.Background(), "teacher-1", "off-1")
	require.NoError(t, err)
	assert.NotEqual(t, "off-1", clone.ID)
	assert.Equal(t, models.OfferingStatusDraft, clone.Status)
	assert.Equal(t, 0, clone.CurrentEnrollment)
	assert.Equal(t, 0, clone.WaitlistCount)
	assert.Equal(t, 12, clone.Capacity)
	assert.Contains(t, audit.actions, models.AuditActionOfferingClone)
}

func TestPublishIsIdempotent(t *testing.T) {
	svc, repo, _ := newOfferingFixture()

	offering, err := svc.Publish(context.Background(), "teacher-1", "off-1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferingStatusPublished, offering.Status)
	// Already published; no status write should have happened.
	assert.Empty(t, repo.status)
}
