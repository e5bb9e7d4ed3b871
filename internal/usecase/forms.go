package usecase

import (
	"go-form-relay/config"
	"go-form-relay/internal/domain"
	"go-form-relay/pkg/email"
	"go-form-relay/pkg/validation"
)

// Form declares one public form: what it accepts, what it sends and to whom.
type Form struct {
	Kind      domain.FormKind
	Schema    validation.Schema
	Templates email.Templates

	InternalFromName string
	AckFromName      string
	// InternalRecipients resolves the organisation inbox from configuration
	InternalRecipients func(cfg *config.Config) []string

	// AcceptsResume forwards a resume upload on the internal notification
	AcceptsResume bool
	// VerifyProvider checks the SMTP connection before dispatching
	VerifyProvider bool

	FailureMessage string
	// ExposeCause puts the provider error text in the 500 body
	ExposeCause bool
}

const (
	msgMissingFields = "Missing required fields"
	msgInvalidEmail  = "Invalid email address"
	msgTooShort      = "Message must be at least 10 characters"
	msgInvalidResume = "Invalid resume file"
	msgUnavailable   = "Email service temporarily unavailable"
	msgInFlight      = "This submission is already being processed"
)

// CareerForm relays job applications to HR.
func CareerForm() Form {
	return Form{
		Kind: domain.FormCareer,
		Schema: validation.Schema{
			Required:    []string{"firstName", "lastName", "email", "position"},
			EmailFields: []string{"email"},
			DateFields:  []string{"noticePeriod"},
		},
		Templates:        careerTemplates,
		InternalFromName: "HR Recruitment Portal",
		AckFromName:      "HR Recruitment Team",
		InternalRecipients: func(cfg *config.Config) []string {
			return []string{cfg.HREmail}
		},
		AcceptsResume:  true,
		FailureMessage: "Submission failed",
		ExposeCause:    true,
	}
}

// ContactForm relays the contact page form.
func ContactForm(orgName string) Form {
	return Form{
		Kind: domain.FormContact,
		Schema: validation.Schema{
			Required:    []string{"name", "email", "message"},
			EmailFields: []string{"email"},
			MinLength:   map[string]int{"message": 10},
		},
		Templates:        contactTemplates,
		InternalFromName: "Corporate Contact Form",
		AckFromName:      orgName,
		InternalRecipients: func(cfg *config.Config) []string {
			return []string{cfg.ContactEmailTo}
		},
		VerifyProvider: true,
		FailureMessage: "Failed to send message",
	}
}

// FooterForm relays the footer form, which also carries a subject.
func FooterForm(orgName string) Form {
	f := ContactForm(orgName)
	f.Kind = domain.FormFooter
	f.Schema.Required = []string{"name", "email", "subject", "message"}
	f.Templates = footerTemplates
	return f
}

// DefaultForms returns the registry served by the HTTP routes.
func DefaultForms(cfg *config.Config) map[domain.FormKind]Form {
	forms := []Form{CareerForm(), ContactForm(cfg.OrganizationName), FooterForm(cfg.OrganizationName)}
	registry := make(map[domain.FormKind]Form, len(forms))
	for _, f := range forms {
		registry[f.Kind] = f
	}
	return registry
}

// messageFor returns the client-facing text for a validation failure
func messageFor(kind validation.Kind) string {
	switch kind {
	case validation.KindInvalidEmail:
		return msgInvalidEmail
	case validation.KindTooShort:
		return msgTooShort
	default:
		return msgMissingFields
	}
}
