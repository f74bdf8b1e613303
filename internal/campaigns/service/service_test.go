package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"collectflow_backend/internal/arrangements"
	"collectflow_backend/internal/campaigns/repository"
	"collectflow_backend/internal/campaigns/targeting"
	consumerrepo "collectflow_backend/internal/consumers/repository"
	"collectflow_backend/internal/email"
	"collectflow_backend/internal/sms"
	tenantrepo "collectflow_backend/internal/tenants/repository"
	"collectflow_backend/platform/apperr"
	"collectflow_backend/platform/logger"
)

type fakeCampaignStore struct {
	campaign  *repository.Campaign
	sentCount int
	marked    bool
}

func (f *fakeCampaignStore) Get(ctx context.Context, tenantID, id uuid.UUID) (*repository.Campaign, error) {
	return f.campaign, nil
}

func (f *fakeCampaignStore) MarkSent(ctx context.Context, tenantID, id uuid.UUID, sentCount int) error {
	f.marked = true
	f.sentCount = sentCount
	return nil
}

type fakeConsumerStore struct {
	consumers []consumerrepo.Consumer
	accounts  []consumerrepo.Account
}

func (f *fakeConsumerStore) ListConsumersByTenant(ctx context.Context, tenantID uuid.UUID) ([]consumerrepo.Consumer, error) {
	return f.consumers, nil
}

func (f *fakeConsumerStore) ListAccountsByTenant(ctx context.Context, tenantID uuid.UUID) ([]consumerrepo.Account, error) {
	return f.accounts, nil
}

func (f *fakeConsumerStore) ListAccountsByConsumer(ctx context.Context, tenantID, consumerID uuid.UUID) ([]consumerrepo.Account, error) {
	var out []consumerrepo.Account
	for _, a := range f.accounts {
		if a.ConsumerID == consumerID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeTenantStore struct {
	tenant   *tenantrepo.Tenant
	template *tenantrepo.MessageTemplate
}

func (f *fakeTenantStore) GetTenant(ctx context.Context, id uuid.UUID) (*tenantrepo.Tenant, error) {
	return f.tenant, nil
}

func (f *fakeTenantStore) GetTemplate(ctx context.Context, tenantID, id uuid.UUID) (*tenantrepo.MessageTemplate, error) {
	return f.template, nil
}

type fakeArrangementStore struct {
	option *arrangements.Option
}

func (f *fakeArrangementStore) Get(ctx context.Context, tenantID, id uuid.UUID) (*arrangements.Option, error) {
	return f.option, nil
}

type fakeBranding struct{}

func (fakeBranding) EmailBranding(ctx context.Context, tenantID uuid.UUID) (email.Branding, error) {
	return email.Branding{}, nil
}

type fakeEmailSender struct {
	sent    []email.Message
	failFor string
}

func (f *fakeEmailSender) Send(ctx context.Context, msg email.Message) error {
	if f.failFor != "" && msg.To == f.failFor {
		return errors.New("smtp rejected")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSMSSender struct {
	sent []sms.Message
}

func (f *fakeSMSSender) Send(ctx context.Context, msg sms.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func testService(campaigns *fakeCampaignStore, consumers *fakeConsumerStore,
	tenants *fakeTenantStore, emailSender *fakeEmailSender) (*Service, *fakeSMSSender) {
	smsSender := &fakeSMSSender{}
	svc := New(campaigns, consumers, tenants, &fakeArrangementStore{}, fakeBranding{},
		emailSender, smsSender, logger.New("development"))
	return svc, smsSender
}

func TestSendRendersAndDeliversEmail(t *testing.T) {
	tenantID := uuid.New()
	consumer := consumerrepo.Consumer{
		ID: uuid.New(), TenantID: tenantID,
		FirstName: "Avery", LastName: "Stone", Email: "avery@example.com",
	}
	account := consumerrepo.Account{
		ID: uuid.New(), TenantID: tenantID, ConsumerID: consumer.ID,
		AccountNumber: "ACC-1", CreditorName: "Acme Bank", BalanceCents: 125000, Status: "open",
	}

	campaigns := &fakeCampaignStore{campaign: &repository.Campaign{
		ID: uuid.New(), TenantID: tenantID, TemplateID: uuid.New(),
		Status:    repository.StatusDraft,
		Targeting: targeting.Spec{TargetType: targeting.TargetAll},
	}}
	consumers := &fakeConsumerStore{
		consumers: []consumerrepo.Consumer{consumer},
		accounts:  []consumerrepo.Account{account},
	}
	tenants := &fakeTenantStore{
		tenant: &tenantrepo.Tenant{ID: tenantID, Name: "Northwind Recovery"},
		template: &tenantrepo.MessageTemplate{
			Channel: tenantrepo.ChannelEmail,
			Subject: "About your {{creditorName}} account",
			Body:    "<p>Hi {{firstName}}, you owe {{balance}}.</p>",
		},
	}
	emailSender := &fakeEmailSender{}
	svc, _ := testService(campaigns, consumers, tenants, emailSender)

	sent, err := svc.Send(context.Background(), tenantID, campaigns.campaign.ID)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if sent != 1 || len(emailSender.sent) != 1 {
		t.Fatalf("expected 1 delivery, got sent=%d deliveries=%d", sent, len(emailSender.sent))
	}

	msg := emailSender.sent[0]
	if msg.Subject != "About your Acme Bank account" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTMLBody, "Hi Avery, you owe $1,250.00.") {
		t.Fatalf("body not rendered: %q", msg.HTMLBody)
	}
	if !strings.Contains(msg.HTMLBody, "<html>") {
		t.Fatalf("body was not finalized into a document")
	}
	if !campaigns.marked || campaigns.sentCount != 1 {
		t.Fatalf("campaign not marked sent with count 1")
	}
}

func TestSendSkipsFailedConsumersAndContinues(t *testing.T) {
	tenantID := uuid.New()
	a := consumerrepo.Consumer{ID: uuid.New(), TenantID: tenantID, FirstName: "A", Email: "a@example.com"}
	b := consumerrepo.Consumer{ID: uuid.New(), TenantID: tenantID, FirstName: "B", Email: "b@example.com"}
	noEmail := consumerrepo.Consumer{ID: uuid.New(), TenantID: tenantID, FirstName: "C"}

	campaigns := &fakeCampaignStore{campaign: &repository.Campaign{
		ID: uuid.New(), TenantID: tenantID, TemplateID: uuid.New(),
		Status:    repository.StatusDraft,
		Targeting: targeting.Spec{TargetType: targeting.TargetAll},
	}}
	consumers := &fakeConsumerStore{consumers: []consumerrepo.Consumer{a, b, noEmail}}
	tenants := &fakeTenantStore{
		tenant:   &tenantrepo.Tenant{ID: tenantID, Name: "Northwind"},
		template: &tenantrepo.MessageTemplate{Channel: tenantrepo.ChannelEmail, Subject: "s", Body: "hi"},
	}
	emailSender := &fakeEmailSender{failFor: "a@example.com"}
	svc, _ := testService(campaigns, consumers, tenants, emailSender)

	sent, err := svc.Send(context.Background(), tenantID, campaigns.campaign.ID)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 successful delivery out of 3 consumers, got %d", sent)
	}
}

func TestSendRejectsAlreadySentCampaign(t *testing.T) {
	tenantID := uuid.New()
	campaigns := &fakeCampaignStore{campaign: &repository.Campaign{
		ID: uuid.New(), TenantID: tenantID, Status: repository.StatusSent,
	}}
	svc, _ := testService(campaigns, &fakeConsumerStore{}, &fakeTenantStore{}, &fakeEmailSender{})

	_, err := svc.Send(context.Background(), tenantID, campaigns.campaign.ID)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestSendSMSCampaign(t *testing.T) {
	tenantID := uuid.New()
	consumer := consumerrepo.Consumer{
		ID: uuid.New(), TenantID: tenantID, FirstName: "Avery", Phone: "+15551234567",
	}

	campaigns := &fakeCampaignStore{campaign: &repository.Campaign{
		ID: uuid.New(), TenantID: tenantID, TemplateID: uuid.New(),
		Status:    repository.StatusDraft,
		Targeting: targeting.Spec{TargetType: targeting.TargetAll},
	}}
	consumers := &fakeConsumerStore{consumers: []consumerrepo.Consumer{consumer}}
	tenants := &fakeTenantStore{
		tenant:   &tenantrepo.Tenant{ID: tenantID, Name: "Northwind"},
		template: &tenantrepo.MessageTemplate{Channel: tenantrepo.ChannelSMS, Body: "Hi {{firstName}}"},
	}
	emailSender := &fakeEmailSender{}
	svc, smsSender := testService(campaigns, consumers, tenants, emailSender)

	sent, err := svc.Send(context.Background(), tenantID, campaigns.campaign.ID)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if sent != 1 || len(smsSender.sent) != 1 {
		t.Fatalf("expected 1 sms delivery, got %d", len(smsSender.sent))
	}
	if smsSender.sent[0].Body != "Hi Avery" {
		t.Fatalf("sms body = %q", smsSender.sent[0].Body)
	}
	if len(emailSender.sent) != 0 {
		t.Fatalf("email sender used for sms campaign")
	}
}
