package domain

import "context"

// FormKind identifies one of the public forms
type FormKind string

const (
	FormCareer  FormKind = "career"
	FormContact FormKind = "contact"
	FormFooter  FormKind = "footer"
)

// ContactRequest represents a general contact form submission
type ContactRequest struct {
	Name    string `json:"name" example:"Ada Lovelace"`
	Email   string `json:"email" example:"ada@example.com"`
	Company string `json:"company,omitempty" example:"Analytical Engines Ltd"`
	Phone   string `json:"phone,omitempty" example:"+44 20 7946 0000"`
	Message string `json:"message" example:"I would like to book a demo."`
}

func (r *ContactRequest) Payload() map[string]string {
	return map[string]string{
		"name":    r.Name,
		"email":   r.Email,
		"company": r.Company,
		"phone":   r.Phone,
		"message": r.Message,
	}
}

// FooterContactRequest represents the short footer form; subject is required
type FooterContactRequest struct {
	Name    string `json:"name" example:"Ada Lovelace"`
	Email   string `json:"email" example:"ada@example.com"`
	Subject string `json:"subject" example:"Partnership"`
	Message string `json:"message" example:"Hello there, let's talk."`
}

func (r *FooterContactRequest) Payload() map[string]string {
	return map[string]string{
		"name":    r.Name,
		"email":   r.Email,
		"subject": r.Subject,
		"message": r.Message,
	}
}

// ApplicationFields are the multipart field names of a career application.
// The resume travels as the "resume" file part.
var ApplicationFields = []string{
	"firstName", "lastName", "email", "phone", "position", "noticePeriod",
	"coverLetter", "skills", "experience", "linkedinUrl", "portfolioUrl",
}

// Resume is an uploaded file, forwarded as an attachment
type Resume struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submission is one inbound form post. It lives for the duration of the request.
type Submission struct {
	Payload map[string]string
	Resume  *Resume

	ClientIP  string
	UserAgent string
	RequestID string
	// Nonce is the optional X-Submission-Nonce header used for duplicate suppression
	Nonce string
}

// FormUsecase defines the interface for form submission operations
type FormUsecase interface {
	// SubmitForm validates the submission and delivers the notification pair for kind
	SubmitForm(ctx context.Context, kind FormKind, sub *Submission) error
}
