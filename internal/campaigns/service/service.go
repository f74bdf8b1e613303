// Package service implements campaign preview and sending: targeting
// evaluation, template rendering and delivery, one consumer at a time with
// log-and-continue semantics.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"collectflow_backend/internal/arrangements"
	"collectflow_backend/internal/campaigns/repository"
	"collectflow_backend/internal/campaigns/targeting"
	consumerrepo "collectflow_backend/internal/consumers/repository"
	"collectflow_backend/internal/email"
	"collectflow_backend/internal/sms"
	"collectflow_backend/internal/templating"
	tenantrepo "collectflow_backend/internal/tenants/repository"
	"collectflow_backend/platform/apperr"
	"collectflow_backend/platform/logger"
)

// ConsumerStore loads the snapshots targeting evaluates.
type ConsumerStore interface {
	ListConsumersByTenant(ctx context.Context, tenantID uuid.UUID) ([]consumerrepo.Consumer, error)
	ListAccountsByTenant(ctx context.Context, tenantID uuid.UUID) ([]consumerrepo.Account, error)
	ListAccountsByConsumer(ctx context.Context, tenantID, consumerID uuid.UUID) ([]consumerrepo.Account, error)
}

// TenantStore loads the tenant record and its message templates.
type TenantStore interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*tenantrepo.Tenant, error)
	GetTemplate(ctx context.Context, tenantID, id uuid.UUID) (*tenantrepo.MessageTemplate, error)
}

// ArrangementStore loads the plan a campaign promotes.
type ArrangementStore interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*arrangements.Option, error)
}

// BrandingResolver supplies the email branding for the finalizer.
type BrandingResolver interface {
	EmailBranding(ctx context.Context, tenantID uuid.UUID) (email.Branding, error)
}

// CampaignStore persists campaign state transitions.
type CampaignStore interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*repository.Campaign, error)
	MarkSent(ctx context.Context, tenantID, id uuid.UUID, sentCount int) error
}

// Service runs campaign preview and send.
type Service struct {
	campaigns    CampaignStore
	consumers    ConsumerStore
	tenants      TenantStore
	arrangements ArrangementStore
	branding     BrandingResolver
	email        email.Sender
	sms          sms.Sender
	log          *logger.Logger
}

func New(campaigns CampaignStore, consumers ConsumerStore, tenants TenantStore,
	arrangementStore ArrangementStore, branding BrandingResolver,
	emailSender email.Sender, smsSender sms.Sender, log *logger.Logger) *Service {
	return &Service{
		campaigns:    campaigns,
		consumers:    consumers,
		tenants:      tenants,
		arrangements: arrangementStore,
		branding:     branding,
		email:        emailSender,
		sms:          smsSender,
		log:          log,
	}
}

// Preview evaluates a targeting spec and returns the matched consumers
// without sending anything.
func (s *Service) Preview(ctx context.Context, tenantID uuid.UUID, spec targeting.Spec) ([]consumerrepo.Consumer, error) {
	consumers, err := s.consumers.ListConsumersByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.consumers.ListAccountsByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return targeting.FilterConsumers(consumers, accounts, spec), nil
}

// Send renders and delivers a draft campaign to every matched consumer.
// Per-consumer failures are logged and skipped; the campaign is marked sent
// with the count of successful deliveries.
func (s *Service) Send(ctx context.Context, tenantID, campaignID uuid.UUID) (int, error) {
	campaign, err := s.campaigns.Get(ctx, tenantID, campaignID)
	if err != nil {
		return 0, err
	}
	if campaign.Status != repository.StatusDraft {
		return 0, apperr.Conflict("campaign already sent")
	}

	tenant, err := s.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	template, err := s.tenants.GetTemplate(ctx, tenantID, campaign.TemplateID)
	if err != nil {
		return 0, err
	}

	var enriched *arrangements.Enriched
	if campaign.ArrangementID != nil {
		opt, err := s.arrangements.Get(ctx, tenantID, *campaign.ArrangementID)
		if err != nil {
			return 0, err
		}
		enriched = arrangements.Enrich(opt)
	}

	matched, err := s.Preview(ctx, tenantID, campaign.Targeting)
	if err != nil {
		return 0, err
	}

	branding := email.Branding{}
	if template.Channel == tenantrepo.ChannelEmail {
		branding, err = s.branding.EmailBranding(ctx, tenantID)
		if err != nil {
			return 0, err
		}
	}

	sent := 0
	for i := range matched {
		consumer := &matched[i]
		if err := s.sendToConsumer(ctx, tenant, template, branding, enriched, consumer); err != nil {
			s.log.Warn("campaign_send_skipped",
				"campaign_id", campaign.ID.String(),
				"consumer_id", consumer.ID.String(),
				"error", err.Error(),
			)
			continue
		}
		sent++
	}

	if err := s.campaigns.MarkSent(ctx, tenantID, campaignID, sent); err != nil {
		return sent, err
	}

	s.log.Info("campaign_sent",
		"campaign_id", campaign.ID.String(),
		"matched", len(matched),
		"sent", sent,
	)
	return sent, nil
}

func (s *Service) sendToConsumer(ctx context.Context, tenant *tenantrepo.Tenant,
	template *tenantrepo.MessageTemplate, branding email.Branding,
	enriched *arrangements.Enriched, consumer *consumerrepo.Consumer) error {

	accounts, err := s.consumers.ListAccountsByConsumer(ctx, tenant.ID, consumer.ID)
	if err != nil {
		return err
	}
	var account *consumerrepo.Account
	if len(accounts) > 0 {
		account = &accounts[0]
	}

	renderCtx := templating.FromDomain(consumer, account, tenant, enriched)
	body := templating.Replace(template.Body, renderCtx)

	switch template.Channel {
	case tenantrepo.ChannelSMS:
		if consumer.Phone == "" {
			return fmt.Errorf("consumer has no phone number")
		}
		return s.sms.Send(ctx, sms.Message{To: consumer.Phone, Body: body})
	default:
		if consumer.Email == "" {
			return fmt.Errorf("consumer has no email address")
		}
		subject := templating.Replace(template.Subject, renderCtx)
		return s.email.Send(ctx, email.Message{
			To:       consumer.Email,
			ToName:   consumer.FirstName + " " + consumer.LastName,
			Subject:  subject,
			HTMLBody: email.FinalizeHTML(body, branding),
		})
	}
}
