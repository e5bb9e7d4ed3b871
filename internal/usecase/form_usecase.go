package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"go-form-relay/config"
	"go-form-relay/internal/domain"
	"go-form-relay/pkg/apperror"
	"go-form-relay/pkg/email"
	"go-form-relay/pkg/logger"
	"go-form-relay/pkg/security"
	"go-form-relay/pkg/security/antivirus"
	"go-form-relay/pkg/validation"
)

// FormDeps wires the form usecase. Scanner, Uploads, Nonces and SecurityLog are optional.
type FormDeps struct {
	Config     *config.Config
	Dispatcher *email.Dispatcher
	Validator  *validation.Validator
	Forms      map[domain.FormKind]Form

	Scanner     antivirus.Scanner
	Uploads     *security.UploadLimiter
	Nonces      *security.NonceGuard
	SecurityLog *security.SecurityLogger
}

type formUsecase struct {
	cfg        *config.Config
	dispatcher *email.Dispatcher
	validator  *validation.Validator
	forms      map[domain.FormKind]Form

	scanner antivirus.Scanner
	uploads *security.UploadLimiter
	nonces  *security.NonceGuard
	seclog  *security.SecurityLogger
}

// NewFormUsecase creates the usecase behind every form route
func NewFormUsecase(deps FormDeps) domain.FormUsecase {
	uc := &formUsecase{
		cfg:        deps.Config,
		dispatcher: deps.Dispatcher,
		validator:  deps.Validator,
		forms:      deps.Forms,
		scanner:    deps.Scanner,
		uploads:    deps.Uploads,
		nonces:     deps.Nonces,
		seclog:     deps.SecurityLog,
	}
	if uc.validator == nil {
		uc.validator = validation.NewValidator()
	}
	if uc.forms == nil {
		uc.forms = DefaultForms(deps.Config)
	}
	if uc.scanner == nil {
		uc.scanner = antivirus.NewNoOpScanner()
	}
	if uc.seclog == nil {
		uc.seclog = security.DefaultLogger()
	}
	return uc
}

// SubmitForm runs validate, render, dispatch for the form registered under kind.
func (uc *formUsecase) SubmitForm(ctx context.Context, kind domain.FormKind, sub *domain.Submission) error {
	form, ok := uc.forms[kind]
	if !ok {
		return apperror.Internal(fmt.Errorf("unknown form %q", kind))
	}

	clean, err := uc.validator.Validate(form.Schema, sub.Payload)
	if err != nil {
		var vErr *validation.ValidationError
		if errors.As(err, &vErr) {
			uc.logEvent(ctx, security.EventValidationFailed, form, sub, map[string]any{
				"kind":   string(vErr.Kind),
				"fields": vErr.Fields,
			})
			return apperror.Validation(messageFor(vErr.Kind), vErr)
		}
		return apperror.Internal(err)
	}

	var attachments []email.Attachment
	if form.AcceptsResume && sub.Resume != nil {
		if err := uc.checkResume(ctx, form, sub, clean["email"]); err != nil {
			return err
		}
		attachments = append(attachments, email.Attachment{
			Filename:    sub.Resume.Filename,
			ContentType: sub.Resume.ContentType,
			Data:        sub.Resume.Data,
		})
	}

	if !uc.cfg.IsMailConfigured() {
		return apperror.New(http.StatusServiceUnavailable, msgUnavailable, errors.New("email service is not configured"))
	}

	claimed, err := uc.claimNonce(ctx, form, sub)
	if err != nil || !claimed {
		return err
	}

	internal, ack, err := uc.buildMessages(form, clean, attachments)
	if err != nil {
		_ = uc.nonces.Release(ctx, string(form.Kind), sub.Nonce)
		return apperror.Internal(err)
	}

	if form.VerifyProvider {
		if err := uc.dispatcher.Verify(ctx); err != nil {
			return uc.dispatchFailed(ctx, form, sub, err)
		}
	}

	if err := uc.dispatcher.Dispatch(ctx, internal, ack); err != nil {
		return uc.dispatchFailed(ctx, form, sub, err)
	}

	if uc.nonces.Enabled() {
		if err := uc.nonces.Confirm(ctx, string(form.Kind), sub.Nonce); err != nil {
			logger.Log.Warn("Dedup confirm failed", "form", form.Kind, "error", err)
		}
	}

	logger.Log.Info("Form submitted",
		"form", form.Kind,
		"request_id", sub.RequestID,
		"attachments", len(attachments),
	)
	return nil
}

func (uc *formUsecase) buildMessages(form Form, clean map[string]string, attachments []email.Attachment) (*email.Message, *email.Message, error) {
	data := make(map[string]string, len(clean)+3)
	for k, v := range clean {
		data[k] = v
	}
	data["organization"] = uc.cfg.OrganizationName
	data["supportEmail"] = uc.cfg.SupportEmail
	if len(attachments) > 0 {
		data["hasResume"] = "true"
	}

	subject, body, err := form.Templates.Internal.Render(data)
	if err != nil {
		return nil, nil, err
	}
	internal := &email.Message{
		FromName:    form.InternalFromName,
		To:          form.InternalRecipients(uc.cfg),
		ReplyTo:     clean["email"],
		Subject:     subject,
		HTML:        body,
		Attachments: attachments,
	}

	subject, body, err = form.Templates.Acknowledgment.Render(data)
	if err != nil {
		return nil, nil, err
	}
	ack := &email.Message{
		FromName: form.AckFromName,
		To:       []string{clean["email"]},
		Subject:  subject,
		HTML:     body,
	}

	return internal, ack, nil
}

// checkResume applies the upload limiter, content validation and malware scan, in that order.
func (uc *formUsecase) checkResume(ctx context.Context, form Form, sub *domain.Submission, applicant string) error {
	if uc.uploads != nil {
		allowed, retryAfter, err := uc.uploads.AllowUpload(ctx, sub.ClientIP, applicant)
		if err != nil {
			logger.Log.Error("Upload limiter failed", "error", err)
			return apperror.New(http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", err)
		}
		if !allowed {
			uc.logEvent(ctx, security.EventRateLimitTriggered, form, sub, map[string]any{"retry_after": retryAfter})
			return apperror.TooManyRequests("Too many uploads. Please try again later.")
		}
	}

	if limit := uc.cfg.MaxResumeBytes; limit > 0 && int64(len(sub.Resume.Data)) > limit {
		uc.logEvent(ctx, security.EventUploadRejected, form, sub, map[string]any{"reason": "too_large", "size": len(sub.Resume.Data)})
		return apperror.Validation(msgInvalidResume, fmt.Errorf("resume exceeds %d bytes", limit))
	}

	result := security.ValidateResume(sub.Resume.Filename, sub.Resume.Data)
	if !result.Valid {
		uc.logEvent(ctx, security.EventUploadRejected, form, sub, map[string]any{
			"reason":        result.Error,
			"detected_mime": result.DetectedMIME,
		})
		return apperror.Validation(msgInvalidResume, errors.New(result.Error))
	}
	// The client header is not trusted
	sub.Resume.ContentType = result.DetectedMIME

	scan := uc.scanner.Scan(ctx, sub.Resume.Filename, bytes.NewReader(sub.Resume.Data))
	if scan.Error != nil {
		logger.Log.Error("Resume scan failed", "scanner", scan.ScannerName, "error", scan.Error)
		return apperror.New(http.StatusServiceUnavailable, "Resume scanning unavailable. Please try again later.", scan.Error)
	}
	if scan.Infected {
		uc.logEvent(ctx, security.EventMalwareDetected, form, sub, map[string]any{
			"threat":  scan.ThreatName,
			"scanner": scan.ScannerName,
		})
		return apperror.Validation(msgInvalidResume, fmt.Errorf("malware detected: %s", scan.ThreatName))
	}

	return nil
}

// claimNonce reports whether the submission should be delivered. A replay of a
// delivered nonce succeeds without sending. A replay of one still being sent is a conflict.
func (uc *formUsecase) claimNonce(ctx context.Context, form Form, sub *domain.Submission) (bool, error) {
	if !uc.nonces.Enabled() {
		return true, nil
	}

	state, err := uc.nonces.Claim(ctx, string(form.Kind), sub.Nonce)
	if err != nil {
		logger.Log.Warn("Dedup check failed, continuing", "form", form.Kind, "error", err)
		return true, nil
	}

	switch state {
	case security.NonceDelivered:
		uc.logEvent(ctx, security.EventDuplicateSubmission, form, sub, map[string]any{"state": "delivered"})
		return false, nil
	case security.NonceInFlight:
		uc.logEvent(ctx, security.EventDuplicateSubmission, form, sub, map[string]any{"state": "in_flight"})
		return false, apperror.New(http.StatusConflict, msgInFlight, nil)
	}
	return true, nil
}

func (uc *formUsecase) dispatchFailed(ctx context.Context, form Form, sub *domain.Submission, err error) error {
	logger.Log.Error("Form dispatch failed", "form", form.Kind, "request_id", sub.RequestID, "error", err)
	uc.logEvent(ctx, security.EventDispatchFailed, form, sub, map[string]any{"error": err.Error()})
	if uc.nonces.Enabled() {
		// A failed delivery must stay retryable under the same nonce
		_ = uc.nonces.Release(ctx, string(form.Kind), sub.Nonce)
	}
	return apperror.Dispatch(form.FailureMessage, err, form.ExposeCause)
}

func (uc *formUsecase) logEvent(ctx context.Context, event security.EventType, form Form, sub *domain.Submission, details map[string]any) {
	uc.seclog.Log(ctx, security.SecurityEvent{
		Event:        event,
		Form:         string(form.Kind),
		SubjectType:  "email",
		SubjectValue: sub.Payload["email"],
		IP:           sub.ClientIP,
		UserAgent:    sub.UserAgent,
		RequestID:    sub.RequestID,
		Details:      details,
	})
}
