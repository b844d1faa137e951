package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/internal/users"
	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/logger"
	"github.com/gharseva/gharseva-backend/pkg/mailer"
	"github.com/gharseva/gharseva-backend/pkg/vision"
)

// Aadhaar extractions below this confidence are rejected outright.
const minExtractionConfidence = 0.6

// Extractor is the slice of the vision client used for Aadhaar OCR.
type Extractor interface {
	ExtractAadhaar(ctx context.Context, image []byte) (*vision.AadhaarExtraction, error)
}

// Sender delivers transactional email for verification outcomes.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Service runs the provider onboarding workflow: identity capture via
// Aadhaar OCR, then an admin decision. Email delivery is best effort;
// a relay failure never rolls back the state change.
type Service interface {
	SubmitIdentity(ctx context.Context, providerID uuid.UUID, image []byte) (*users.UserDTO, error)
	Verify(ctx context.Context, providerID uuid.UUID) (*users.UserDTO, error)
	Reject(ctx context.Context, providerID uuid.UUID, reason string) (*users.UserDTO, error)
	Suspend(ctx context.Context, providerID uuid.UUID, reason string) (*users.UserDTO, error)
	Reactivate(ctx context.Context, providerID uuid.UUID) (*users.UserDTO, error)
	Get(ctx context.Context, providerID uuid.UUID) (*users.UserDTO, error)
}

type service struct {
	repo      users.Repository
	extractor Extractor
	sender    Sender
	logg      *logger.Logger
}

func NewService(repo users.Repository, extractor Extractor, sender Sender, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, extractor: extractor, sender: sender, logg: logg}, nil
}

func (s *service) SubmitIdentity(ctx context.Context, providerID uuid.UUID, image []byte) (*users.UserDTO, error) {
	if s.extractor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "identity extraction unavailable")
	}
	if len(image) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document image required")
	}

	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	extraction, err := s.extractor.ExtractAadhaar(ctx, image)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "extract aadhaar document")
	}
	if extraction.Confidence < minExtractionConfidence {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document could not be read, upload a clearer image")
	}
	if len(extraction.Last4) != 4 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "aadhaar number not found in document")
	}

	if err := s.repo.SetAadhaarLast4(ctx, provider.ID, extraction.Last4); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store identity")
	}
	if err := s.repo.SetVerificationStatus(ctx, provider.ID, enums.VerificationStatusPending); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset verification status")
	}

	provider.AadhaarLast4 = &extraction.Last4
	pending := enums.VerificationStatusPending
	provider.VerificationStatus = &pending
	return users.FromModel(provider), nil
}

func (s *service) Verify(ctx context.Context, providerID uuid.UUID) (*users.UserDTO, error) {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetVerificationStatus(ctx, provider.ID, enums.VerificationStatusVerified); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark provider verified")
	}

	s.sendMail(ctx, provider, "Your GharSeva provider account is verified",
		"Congratulations "+provider.FullName+", your provider account has been verified. You can now accept bookings.")

	verified := enums.VerificationStatusVerified
	provider.VerificationStatus = &verified
	return users.FromModel(provider), nil
}

func (s *service) Reject(ctx context.Context, providerID uuid.UUID, reason string) (*users.UserDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetVerificationStatus(ctx, provider.ID, enums.VerificationStatusRejected); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark provider rejected")
	}

	s.sendMail(ctx, provider, "Your GharSeva provider application",
		"Hello "+provider.FullName+", your provider application was not approved: "+reason)

	rejected := enums.VerificationStatusRejected
	provider.VerificationStatus = &rejected
	return users.FromModel(provider), nil
}

func (s *service) Suspend(ctx context.Context, providerID uuid.UUID, reason string) (*users.UserDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "suspension reason required")
	}

	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, provider.ID, false, &reason); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "suspend provider")
	}
	if err := s.repo.SetVerificationStatus(ctx, provider.ID, enums.VerificationStatusSuspended); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark provider suspended")
	}

	s.sendMail(ctx, provider, "Your GharSeva provider account has been suspended",
		"Hello "+provider.FullName+", your account has been suspended: "+reason+". Contact support to appeal.")

	suspended := enums.VerificationStatusSuspended
	provider.VerificationStatus = &suspended
	provider.IsActive = false
	provider.SuspensionReason = &reason
	return users.FromModel(provider), nil
}

func (s *service) Reactivate(ctx context.Context, providerID uuid.UUID) (*users.UserDTO, error) {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, provider.ID, true, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reactivate provider")
	}
	if err := s.repo.SetVerificationStatus(ctx, provider.ID, enums.VerificationStatusVerified); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore provider verification")
	}

	s.sendMail(ctx, provider, "Your GharSeva provider account is active again",
		"Welcome back "+provider.FullName+", your account has been reactivated and you can accept bookings again.")

	verified := enums.VerificationStatusVerified
	provider.VerificationStatus = &verified
	provider.IsActive = true
	provider.SuspensionReason = nil
	return users.FromModel(provider), nil
}

func (s *service) Get(ctx context.Context, providerID uuid.UUID) (*users.UserDTO, error) {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(provider), nil
}

func (s *service) loadProvider(ctx context.Context, providerID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if user.Role != enums.UserRoleProvider {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user is not a provider")
	}
	return user, nil
}

func (s *service) sendMail(ctx context.Context, provider *models.User, subject, body string) {
	if s.sender == nil {
		return
	}
	err := s.sender.Send(ctx, mailer.Message{
		To:      provider.Email,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		ctx = s.logg.WithField(ctx, "provider_id", provider.ID.String())
		s.logg.Warn(ctx, "verification email delivery failed")
	}
}
