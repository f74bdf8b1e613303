package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"collectflow_backend/internal/arrangements"
	"collectflow_backend/internal/campaigns/targeting"
	consumerrepo "collectflow_backend/internal/consumers/repository"
	"collectflow_backend/internal/email"
	"collectflow_backend/internal/sequences/repository"
	"collectflow_backend/internal/sms"
	tenantrepo "collectflow_backend/internal/tenants/repository"
	"collectflow_backend/platform/logger"
)

// fakeStore is an in-memory SequenceStore mirroring the dedup semantics of
// the real repository, including the unique-index no-op on duplicates.
type fakeStore struct {
	sequences   []repository.Sequence
	steps       map[uuid.UUID][]repository.Step
	enrollments map[uuid.UUID]*repository.Enrollment
	listErr     error
	stepsErrFor uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		steps:       make(map[uuid.UUID][]repository.Step),
		enrollments: make(map[uuid.UUID]*repository.Enrollment),
	}
}

func (f *fakeStore) ListActiveSequencesByTenant(ctx context.Context, tenantID uuid.UUID) ([]repository.Sequence, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []repository.Sequence
	for _, s := range f.sequences {
		if s.TenantID == tenantID && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) GetSequence(ctx context.Context, tenantID, id uuid.UUID) (*repository.Sequence, error) {
	for i := range f.sequences {
		if f.sequences[i].ID == id {
			return &f.sequences[i], nil
		}
	}
	return nil, errors.New("sequence not found")
}

func (f *fakeStore) ListSteps(ctx context.Context, sequenceID uuid.UUID) ([]repository.Step, error) {
	if f.stepsErrFor == sequenceID {
		return nil, errors.New("steps query failed")
	}
	return f.steps[sequenceID], nil
}

func (f *fakeStore) HasActiveEnrollment(ctx context.Context, sequenceID, consumerID uuid.UUID) (bool, error) {
	for _, e := range f.enrollments {
		if e.SequenceID == sequenceID && e.ConsumerID == consumerID && e.Status == repository.EnrollmentActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateEnrollment(ctx context.Context, e *repository.Enrollment) (bool, error) {
	for _, existing := range f.enrollments {
		if existing.SequenceID == e.SequenceID && existing.ConsumerID == e.ConsumerID &&
			existing.Status == repository.EnrollmentActive {
			return false, nil
		}
	}
	e.ID = uuid.New()
	clone := *e
	f.enrollments[e.ID] = &clone
	return true, nil
}

func (f *fakeStore) GetEnrollment(ctx context.Context, tenantID, id uuid.UUID) (*repository.Enrollment, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return nil, errors.New("enrollment not found")
	}
	return e, nil
}

func (f *fakeStore) AdvanceEnrollment(ctx context.Context, id, stepID uuid.UUID, stepOrder int, nextMessageAt time.Time) error {
	e := f.enrollments[id]
	e.CurrentStepID = stepID
	e.CurrentStepOrder = stepOrder
	e.NextMessageAt = nextMessageAt
	return nil
}

func (f *fakeStore) CloseEnrollment(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	f.enrollments[id].Status = status
	return nil
}

func (f *fakeStore) activeEnrollments() []*repository.Enrollment {
	var out []*repository.Enrollment
	for _, e := range f.enrollments {
		if e.Status == repository.EnrollmentActive {
			out = append(out, e)
		}
	}
	return out
}

type fakeConsumers struct {
	consumer *consumerrepo.Consumer
	accounts []consumerrepo.Account
}

func (f *fakeConsumers) GetConsumer(ctx context.Context, tenantID, id uuid.UUID) (*consumerrepo.Consumer, error) {
	return f.consumer, nil
}

func (f *fakeConsumers) ListAccountsByConsumer(ctx context.Context, tenantID, consumerID uuid.UUID) ([]consumerrepo.Account, error) {
	return f.accounts, nil
}

func (f *fakeConsumers) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*consumerrepo.Account, error) {
	for i := range f.accounts {
		if f.accounts[i].ID == id {
			return &f.accounts[i], nil
		}
	}
	return nil, errors.New("account not found")
}

type fakeTenants struct {
	tenant   *tenantrepo.Tenant
	template *tenantrepo.MessageTemplate
}

func (f *fakeTenants) GetTenant(ctx context.Context, id uuid.UUID) (*tenantrepo.Tenant, error) {
	return f.tenant, nil
}

func (f *fakeTenants) GetTemplate(ctx context.Context, tenantID, id uuid.UUID) (*tenantrepo.MessageTemplate, error) {
	return f.template, nil
}

type fakeArrangements struct{ option *arrangements.Option }

func (f *fakeArrangements) Get(ctx context.Context, tenantID, id uuid.UUID) (*arrangements.Option, error) {
	return f.option, nil
}

type fakeBranding struct{}

func (fakeBranding) EmailBranding(ctx context.Context, tenantID uuid.UUID) (email.Branding, error) {
	return email.Branding{}, nil
}

type fakeEmail struct {
	sent []email.Message
	err  error
}

func (f *fakeEmail) Send(ctx context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSMS struct{ sent []sms.Message }

func (f *fakeSMS) Send(ctx context.Context, msg sms.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

var enrollTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func testEngine(store *fakeStore, consumers *fakeConsumers) (*Service, *fakeEmail) {
	sender := &fakeEmail{}
	tenants := &fakeTenants{
		tenant:   &tenantrepo.Tenant{ID: uuid.New(), Name: "Northwind"},
		template: &tenantrepo.MessageTemplate{Channel: tenantrepo.ChannelEmail, Subject: "s", Body: "Hi {{firstName}}"},
	}
	svc := New(store, consumers, tenants, &fakeArrangements{}, fakeBranding{},
		sender, &fakeSMS{}, logger.New("development"))
	svc.now = func() time.Time { return enrollTime }
	return svc, sender
}

func eventSequence(tenantID uuid.UUID, trigger string, spec targeting.Spec) repository.Sequence {
	return repository.Sequence{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         "seq",
		IsActive:     true,
		TriggerType:  repository.TriggerEvent,
		TriggerEvent: trigger,
		Targeting:    spec,
	}
}

func stepFor(seqID uuid.UUID, order, delayDays, delayHours int) repository.Step {
	return repository.Step{
		ID:         uuid.New(),
		SequenceID: seqID,
		StepOrder:  order,
		DelayDays:  delayDays,
		DelayHours: delayHours,
		TemplateID: uuid.New(),
	}
}

func TestProcessEventEnrollsAndSchedulesFirstMessage(t *testing.T) {
	tenantID := uuid.New()
	consumerID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagAccountCreated, targeting.Spec{TargetType: targeting.TargetAll})
	seq.TriggerDelayDays = 2
	store.sequences = []repository.Sequence{seq}
	store.steps[seq.ID] = []repository.Step{stepFor(seq.ID, 1, 1, 3)}

	svc, _ := testEngine(store, &fakeConsumers{})
	err := svc.ProcessEvent(context.Background(), EnrollmentRequest{
		TenantID: tenantID, ConsumerID: consumerID, Tag: TagAccountCreated,
	})
	if err != nil {
		t.Fatalf("ProcessEvent returned error: %v", err)
	}

	active := store.activeEnrollments()
	if len(active) != 1 {
		t.Fatalf("expected 1 enrollment, got %d", len(active))
	}
	e := active[0]

	// triggerDelay 2d + step 1d 3h from 2024-01-01T10:00Z, truncated to the hour.
	want := time.Date(2024, 1, 4, 13, 0, 0, 0, time.UTC)
	if !e.NextMessageAt.Equal(want) {
		t.Fatalf("nextMessageAt = %s, want %s", e.NextMessageAt, want)
	}
	if e.CurrentStepOrder != 1 {
		t.Fatalf("currentStepOrder = %d, want 1", e.CurrentStepOrder)
	}
	if e.Status != repository.EnrollmentActive {
		t.Fatalf("status = %q", e.Status)
	}
}

func TestProcessEventIsIdempotent(t *testing.T) {
	tenantID := uuid.New()
	consumerID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagPaymentOverdue, targeting.Spec{TargetType: targeting.TargetAll})
	store.sequences = []repository.Sequence{seq}
	store.steps[seq.ID] = []repository.Step{stepFor(seq.ID, 1, 0, 0)}

	svc, _ := testEngine(store, &fakeConsumers{})
	req := EnrollmentRequest{TenantID: tenantID, ConsumerID: consumerID, Tag: TagPaymentOverdue}

	for i := 0; i < 3; i++ {
		if err := svc.ProcessEvent(context.Background(), req); err != nil {
			t.Fatalf("ProcessEvent %d returned error: %v", i, err)
		}
	}
	if got := len(store.activeEnrollments()); got != 1 {
		t.Fatalf("expected exactly 1 active enrollment after repeat events, got %d", got)
	}
}

func TestCustomTargetingNeverAutoEnrolls(t *testing.T) {
	tenantID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagAccountCreated, targeting.Spec{
		TargetType:    targeting.TargetCustom,
		CustomFilters: targeting.CustomFilters{BalanceMin: "$0"},
	})
	store.sequences = []repository.Sequence{seq}
	store.steps[seq.ID] = []repository.Step{stepFor(seq.ID, 1, 0, 0)}

	svc, _ := testEngine(store, &fakeConsumers{})
	err := svc.ProcessEvent(context.Background(), EnrollmentRequest{
		TenantID: tenantID, ConsumerID: uuid.New(), Tag: TagAccountCreated,
	})
	if err != nil {
		t.Fatalf("ProcessEvent returned error: %v", err)
	}
	if len(store.enrollments) != 0 {
		t.Fatalf("custom-targeted sequence must not auto-enroll")
	}
}

func TestManualTriggerCanEnrollCustomSequence(t *testing.T) {
	tenantID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, "", targeting.Spec{TargetType: targeting.TargetCustom})
	seq.TriggerType = repository.TriggerManual
	store.sequences = []repository.Sequence{seq}
	store.steps[seq.ID] = []repository.Step{stepFor(seq.ID, 1, 0, 0)}

	svc, _ := testEngine(store, &fakeConsumers{})
	err := svc.ProcessEvent(context.Background(), EnrollmentRequest{
		TenantID: tenantID, ConsumerID: uuid.New(), Tag: TagManual, SequenceID: &seq.ID,
	})
	if err != nil {
		t.Fatalf("ProcessEvent returned error: %v", err)
	}
	if len(store.activeEnrollments()) != 1 {
		t.Fatalf("manual trigger should enroll into a custom-targeted sequence")
	}
}

func TestFolderTargetingFailsClosed(t *testing.T) {
	tenantID := uuid.New()
	consumerID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagAccountCreated, targeting.Spec{TargetType: targeting.TargetFolder})
	store.sequences = []repository.Sequence{seq}
	store.steps[seq.ID] = []repository.Step{stepFor(seq.ID, 1, 0, 0)}

	// Consumer has accounts, just no folder anywhere; empty target set must
	// still match nobody.
	consumers := &fakeConsumers{accounts: []consumerrepo.Account{{ID: uuid.New(), ConsumerID: consumerID}}}
	svc, _ := testEngine(store, consumers)
	err := svc.ProcessEvent(context.Background(), EnrollmentRequest{
		TenantID: tenantID, ConsumerID: consumerID, Tag: TagAccountCreated,
	})
	if err != nil {
		t.Fatalf("ProcessEvent returned error: %v", err)
	}
	if len(store.enrollments) != 0 {
		t.Fatalf("empty folder set must enroll nobody")
	}
}

func TestFolderTargetingMatchesAccountFolder(t *testing.T) {
	tenantID := uuid.New()
	consumerID := uuid.New()
	folderID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagAccountCreated, targeting.Spec{
		TargetType:      targeting.TargetFolder,
		TargetFolderIDs: []uuid.UUID{folderID},
	})
	store.sequences = []repository.Sequence{seq}
	store.steps[seq.ID] = []repository.Step{stepFor(seq.ID, 1, 0, 0)}

	consumers := &fakeConsumers{accounts: []consumerrepo.Account{
		{ID: uuid.New(), ConsumerID: consumerID, FolderID: &folderID},
	}}
	svc, _ := testEngine(store, consumers)
	err := svc.ProcessEvent(context.Background(), EnrollmentRequest{
		TenantID: tenantID, ConsumerID: consumerID, Tag: TagAccountCreated,
	})
	if err != nil {
		t.Fatalf("ProcessEvent returned error: %v", err)
	}
	if len(store.activeEnrollments()) != 1 {
		t.Fatalf("account in targeted folder should enroll")
	}
}

func TestSequenceWithoutStepsIsSkipped(t *testing.T) {
	tenantID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagAccountCreated, targeting.Spec{TargetType: targeting.TargetAll})
	store.sequences = []repository.Sequence{seq}

	svc, _ := testEngine(store, &fakeConsumers{})
	err := svc.ProcessEvent(context.Background(), EnrollmentRequest{
		TenantID: tenantID, ConsumerID: uuid.New(), Tag: TagAccountCreated,
	})
	if err != nil {
		t.Fatalf("ProcessEvent returned error: %v", err)
	}
	if len(store.enrollments) != 0 {
		t.Fatalf("sequence without steps must not enroll")
	}
}

func TestOneSequenceFailureDoesNotBlockOthers(t *testing.T) {
	tenantID := uuid.New()

	store := newFakeStore()
	broken := eventSequence(tenantID, TagAccountCreated, targeting.Spec{TargetType: targeting.TargetAll})
	healthy := eventSequence(tenantID, TagAccountCreated, targeting.Spec{TargetType: targeting.TargetAll})
	store.sequences = []repository.Sequence{broken, healthy}
	store.steps[healthy.ID] = []repository.Step{stepFor(healthy.ID, 1, 0, 0)}
	store.stepsErrFor = broken.ID

	svc, _ := testEngine(store, &fakeConsumers{})
	err := svc.ProcessEvent(context.Background(), EnrollmentRequest{
		TenantID: tenantID, ConsumerID: uuid.New(), Tag: TagAccountCreated,
	})
	if err != nil {
		t.Fatalf("ProcessEvent returned error: %v", err)
	}

	active := store.activeEnrollments()
	if len(active) != 1 || active[0].SequenceID != healthy.ID {
		t.Fatalf("healthy sequence should enroll despite sibling failure")
	}
}

func TestNonMatchingTriggerDoesNotEnroll(t *testing.T) {
	tenantID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagPaymentReceived, targeting.Spec{TargetType: targeting.TargetAll})
	store.sequences = []repository.Sequence{seq}
	store.steps[seq.ID] = []repository.Step{stepFor(seq.ID, 1, 0, 0)}

	svc, _ := testEngine(store, &fakeConsumers{})
	err := svc.ProcessEvent(context.Background(), EnrollmentRequest{
		TenantID: tenantID, ConsumerID: uuid.New(), Tag: TagAccountCreated,
	})
	if err != nil {
		t.Fatalf("ProcessEvent returned error: %v", err)
	}
	if len(store.enrollments) != 0 {
		t.Fatalf("sequence with different trigger must not enroll")
	}
}

func TestNextMessageAtTruncatesToHour(t *testing.T) {
	base := time.Date(2024, 5, 10, 9, 42, 31, 500, time.UTC)
	got := nextMessageAt(base, 0, 0, 1)
	want := time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("nextMessageAt = %s, want %s", got, want)
	}
}

func TestProcessDueMessageAdvancesToNextStep(t *testing.T) {
	tenantID := uuid.New()
	consumerID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagAccountCreated, targeting.Spec{TargetType: targeting.TargetAll})
	store.sequences = []repository.Sequence{seq}
	first := stepFor(seq.ID, 1, 0, 0)
	second := stepFor(seq.ID, 2, 2, 0)
	store.steps[seq.ID] = []repository.Step{first, second}

	enrollment := &repository.Enrollment{
		ID: uuid.New(), TenantID: tenantID, SequenceID: seq.ID, ConsumerID: consumerID,
		Status: repository.EnrollmentActive, CurrentStepID: first.ID, CurrentStepOrder: 1,
	}
	store.enrollments[enrollment.ID] = enrollment

	consumers := &fakeConsumers{consumer: &consumerrepo.Consumer{
		ID: consumerID, TenantID: tenantID, FirstName: "Avery", Email: "avery@example.com",
	}}
	svc, sender := testEngine(store, consumers)

	if err := svc.ProcessDueMessage(context.Background(), tenantID, enrollment.ID); err != nil {
		t.Fatalf("ProcessDueMessage returned error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}

	if enrollment.CurrentStepID != second.ID || enrollment.CurrentStepOrder != 2 {
		t.Fatalf("enrollment did not advance to step 2")
	}
	want := enrollTime.AddDate(0, 0, 2).Truncate(time.Hour)
	if !enrollment.NextMessageAt.Equal(want) {
		t.Fatalf("nextMessageAt = %s, want %s", enrollment.NextMessageAt, want)
	}
}

func TestProcessDueMessageCompletesOnLastStep(t *testing.T) {
	tenantID := uuid.New()
	consumerID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagAccountCreated, targeting.Spec{TargetType: targeting.TargetAll})
	store.sequences = []repository.Sequence{seq}
	only := stepFor(seq.ID, 1, 0, 0)
	store.steps[seq.ID] = []repository.Step{only}

	enrollment := &repository.Enrollment{
		ID: uuid.New(), TenantID: tenantID, SequenceID: seq.ID, ConsumerID: consumerID,
		Status: repository.EnrollmentActive, CurrentStepID: only.ID, CurrentStepOrder: 1,
	}
	store.enrollments[enrollment.ID] = enrollment

	consumers := &fakeConsumers{consumer: &consumerrepo.Consumer{
		ID: consumerID, TenantID: tenantID, FirstName: "Avery", Email: "avery@example.com",
	}}
	svc, _ := testEngine(store, consumers)

	if err := svc.ProcessDueMessage(context.Background(), tenantID, enrollment.ID); err != nil {
		t.Fatalf("ProcessDueMessage returned error: %v", err)
	}
	if enrollment.Status != repository.EnrollmentCompleted {
		t.Fatalf("enrollment status = %q, want completed", enrollment.Status)
	}
}

func TestProcessDueMessageSendFailureLeavesStep(t *testing.T) {
	tenantID := uuid.New()
	consumerID := uuid.New()

	store := newFakeStore()
	seq := eventSequence(tenantID, TagAccountCreated, targeting.Spec{TargetType: targeting.TargetAll})
	store.sequences = []repository.Sequence{seq}
	first := stepFor(seq.ID, 1, 0, 0)
	second := stepFor(seq.ID, 2, 1, 0)
	store.steps[seq.ID] = []repository.Step{first, second}

	enrollment := &repository.Enrollment{
		ID: uuid.New(), TenantID: tenantID, SequenceID: seq.ID, ConsumerID: consumerID,
		Status: repository.EnrollmentActive, CurrentStepID: first.ID, CurrentStepOrder: 1,
	}
	store.enrollments[enrollment.ID] = enrollment

	consumers := &fakeConsumers{consumer: &consumerrepo.Consumer{
		ID: consumerID, TenantID: tenantID, FirstName: "Avery", Email: "avery@example.com",
	}}
	svc, sender := testEngine(store, consumers)
	sender.err = errors.New("smtp down")

	if err := svc.ProcessDueMessage(context.Background(), tenantID, enrollment.ID); err == nil {
		t.Fatalf("expected send failure to surface")
	}
	if enrollment.CurrentStepOrder != 1 || enrollment.Status != repository.EnrollmentActive {
		t.Fatalf("failed send must not advance or close the enrollment")
	}
}

func TestProcessDueMessageSkipsClosedEnrollment(t *testing.T) {
	tenantID := uuid.New()

	store := newFakeStore()
	enrollment := &repository.Enrollment{
		ID: uuid.New(), TenantID: tenantID, SequenceID: uuid.New(), ConsumerID: uuid.New(),
		Status: repository.EnrollmentCancelled,
	}
	store.enrollments[enrollment.ID] = enrollment

	svc, sender := testEngine(store, &fakeConsumers{})
	if err := svc.ProcessDueMessage(context.Background(), tenantID, enrollment.ID); err != nil {
		t.Fatalf("stale due task should be a no-op, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("cancelled enrollment must not send")
	}
}
