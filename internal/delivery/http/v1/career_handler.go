package v1

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"go-form-relay/internal/delivery/http/response"
	"go-form-relay/internal/domain"
	"go-form-relay/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const (
	msgApplicationSubmitted = "Application submitted successfully"
	msgInvalidResume        = "Invalid resume file"
	// Room for the text fields on top of the resume
	multipartOverhead = 1 << 20
)

type CareerHandler struct {
	formUC         domain.FormUsecase
	maxResumeBytes int64
}

// NewCareerHandler registers the job application routes (public, no auth required)
func NewCareerHandler(legacy, public *gin.RouterGroup, formUC domain.FormUsecase, maxResumeBytes int64, limit gin.HandlerFunc) {
	handler := &CareerHandler{
		formUC:         formUC,
		maxResumeBytes: maxResumeBytes,
	}

	legacy.POST("/career", limit, handler.SubmitApplication)
	public.POST("/career", limit, handler.SubmitApplication)
}

// SubmitApplication godoc
// @Summary      Submit Job Application
// @Description  Relays a job application to HR with the resume attached, and sends the applicant an acknowledgment.
// @Tags         forms
// @Accept       multipart/form-data
// @Produce      json
// @Param        firstName     formData  string  true   "First name"
// @Param        lastName      formData  string  true   "Last name"
// @Param        email         formData  string  true   "Email"
// @Param        position      formData  string  true   "Position applied for"
// @Param        phone         formData  string  false  "Phone"
// @Param        noticePeriod  formData  string  false  "Available from (date)"
// @Param        coverLetter   formData  string  false  "Cover letter"
// @Param        skills        formData  string  false  "Skills"
// @Param        experience    formData  string  false  "Experience"
// @Param        linkedinUrl   formData  string  false  "LinkedIn URL"
// @Param        portfolioUrl  formData  string  false  "Portfolio URL"
// @Param        resume        formData  file    false  "Resume (pdf, doc, docx, rtf, txt)"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /forms/career [post]
func (h *CareerHandler) SubmitApplication(c *gin.Context) {
	if h.maxResumeBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxResumeBytes+multipartOverhead)
	}

	if err := c.Request.ParseMultipartForm(multipartOverhead); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Error(apperror.Validation(msgInvalidResume, err))
			return
		}
		c.Error(apperror.New(http.StatusBadRequest, msgInvalidBody, err))
		return
	}
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}

	payload := make(map[string]string, len(domain.ApplicationFields))
	for _, field := range domain.ApplicationFields {
		payload[field] = c.Request.PostFormValue(field)
	}
	sub := newSubmission(c, payload)

	resume, err := h.readResume(c)
	if err != nil {
		c.Error(apperror.Validation(msgInvalidResume, err))
		return
	}
	sub.Resume = resume

	if err := h.formUC.SubmitForm(c.Request.Context(), domain.FormCareer, sub); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, msgApplicationSubmitted, nil)
}

// readResume returns nil when no resume part was sent
func (h *CareerHandler) readResume(c *gin.Context) (*domain.Resume, error) {
	if c.Request.MultipartForm == nil {
		return nil, nil
	}
	files := c.Request.MultipartForm.File["resume"]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	if h.maxResumeBytes > 0 && fh.Size > h.maxResumeBytes {
		return nil, errors.New("resume exceeds size limit")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("resume is empty")
	}

	return &domain.Resume{
		Filename:    filepath.Base(fh.Filename),
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
