package v1

import (
	"net/http"

	"go-form-relay/internal/delivery/http/response"
	"go-form-relay/internal/domain"
	"go-form-relay/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgMessageSent   = "Message sent successfully!"
	maxJSONBodyBytes = 64 << 10
	nonceHeader      = "X-Submission-Nonce"
)

type ContactHandler struct {
	formUC domain.FormUsecase
}

// NewContactHandler registers the contact and footer routes (public, no auth required)
func NewContactHandler(legacy, public *gin.RouterGroup, formUC domain.FormUsecase, limit gin.HandlerFunc) {
	handler := &ContactHandler{
		formUC: formUC,
	}

	legacy.POST("/contact-us-route", limit, handler.SubmitContact)
	legacy.POST("/footer-route", limit, handler.SubmitFooter)

	public.POST("/contact", limit, handler.SubmitContact)
	public.POST("/footer", limit, handler.SubmitFooter)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Relays the contact page form to the organisation inbox and sends the submitter an acknowledgment.
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        contact             body      domain.ContactRequest  true   "Contact Form Data"
// @Param        X-Submission-Nonce  header    string                 false  "Optional idempotency nonce"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /forms/contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req domain.ContactRequest
	if !bindJSON(c, &req) {
		return
	}
	h.submit(c, domain.FormContact, req.Payload())
}

// SubmitFooter godoc
// @Summary      Submit Footer Contact Form
// @Description  Relays the footer form (name, email, subject, message) and sends the submitter an acknowledgment.
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        contact             body      domain.FooterContactRequest  true   "Footer Form Data"
// @Param        X-Submission-Nonce  header    string                       false  "Optional idempotency nonce"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /forms/footer [post]
func (h *ContactHandler) SubmitFooter(c *gin.Context) {
	var req domain.FooterContactRequest
	if !bindJSON(c, &req) {
		return
	}
	h.submit(c, domain.FormFooter, req.Payload())
}

func (h *ContactHandler) submit(c *gin.Context, kind domain.FormKind, payload map[string]string) {
	sub := newSubmission(c, payload)
	if err := h.formUC.SubmitForm(c.Request.Context(), kind, sub); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, msgMessageSent, nil)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		c.Error(apperror.New(http.StatusBadRequest, msgInvalidBody, err))
		return false
	}
	return true
}

func newSubmission(c *gin.Context, payload map[string]string) *domain.Submission {
	return &domain.Submission{
		Payload:   payload,
		ClientIP:  c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		RequestID: c.GetString("RequestID"),
		Nonce:     c.GetHeader(nonceHeader),
	}
}
