// Package service implements tenant branding and template management.
package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"collectflow_backend/internal/adapters/storage"
	"collectflow_backend/internal/email"
	"collectflow_backend/internal/tenants/repository"
	"collectflow_backend/platform/apperr"
	"collectflow_backend/platform/logger"
)

// logoURLExpiry bounds presigned logo links. Links are embedded in emails,
// so they must outlive typical inbox latency.
const logoURLExpiry = 7 * 24 * time.Hour

// Service coordinates tenant branding with object storage.
type Service struct {
	repo    *repository.Repository
	storage *storage.Service
	log     *logger.Logger
}

func New(repo *repository.Repository, storage *storage.Service, log *logger.Logger) *Service {
	return &Service{repo: repo, storage: storage, log: log}
}

var allowedLogoTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/svg+xml": ".svg",
}

// UploadLogo stores a tenant logo and records its object key.
func (s *Service) UploadLogo(ctx context.Context, tenantID uuid.UUID, r io.Reader, size int64, contentType string) (string, error) {
	ext, ok := allowedLogoTypes[strings.ToLower(contentType)]
	if !ok {
		return "", apperr.Validation("logo must be PNG, JPEG or SVG")
	}
	if size > 2<<20 {
		return "", apperr.Validation("logo must be 2MB or smaller")
	}

	key := path.Join("logos", tenantID.String(), uuid.NewString()+ext)
	if _, err := s.storage.Upload(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("upload logo: %w", err)
	}
	if err := s.repo.SetLogoKey(ctx, tenantID, key); err != nil {
		return "", err
	}
	return key, nil
}

// EmailBranding resolves the tenant's branding into the shape the email
// finalizer consumes, presigning the logo when one is uploaded. A failed
// presign degrades to no logo rather than blocking the send.
func (s *Service) EmailBranding(ctx context.Context, tenantID uuid.UUID) (email.Branding, error) {
	b, err := s.repo.GetBranding(ctx, tenantID)
	if err != nil {
		return email.Branding{}, err
	}

	out := email.Branding{
		BackgroundColor:   b.BackgroundColor,
		ContentBackground: b.ContentBackground,
		TextColor:         b.TextColor,
		PrimaryColor:      b.PrimaryColor,
		AccentColor:       b.AccentColor,
	}
	if b.LogoKey != "" && s.storage != nil {
		url, err := s.storage.PresignedGetURL(ctx, b.LogoKey, logoURLExpiry)
		if err != nil {
			s.log.Warn("logo_presign_failed", "tenant_id", tenantID.String(), "error", err.Error())
		} else {
			out.LogoURL = url
		}
	}
	return out, nil
}
