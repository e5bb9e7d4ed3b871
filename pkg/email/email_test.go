package email

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeSMTP is a minimal in-process SMTP server: EHLO, AUTH PLAIN, MAIL, RCPT, DATA, QUIT.
type fakeSMTP struct {
	ln       net.Listener
	rejectAt string // command prefix to answer with 550

	mu       sync.Mutex
	messages []string
	rcpts    [][]string
	authed   []string
	wg       sync.WaitGroup
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeSMTP{ln: ln}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(func() {
		ln.Close()
		s.wg.Wait()
	})
	return s
}

func (s *fakeSMTP) port() string {
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	return port
}

func (s *fakeSMTP) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *fakeSMTP) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = io.WriteString(conn, line+"\r\n") }
	reply("220 fake.local ESMTP")

	var rcpts []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(cmd)
		if s.rejectAt != "" && strings.HasPrefix(upper, s.rejectAt) {
			reply("550 5.7.1 rejected")
			continue
		}
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			reply("250-fake.local")
			reply("250 AUTH PLAIN")
		case strings.HasPrefix(upper, "AUTH PLAIN"):
			raw, _ := base64.StdEncoding.DecodeString(strings.TrimSpace(cmd[len("AUTH PLAIN"):]))
			s.mu.Lock()
			s.authed = append(s.authed, string(raw))
			s.mu.Unlock()
			reply("235 2.7.0 Authentication successful")
		case strings.HasPrefix(upper, "MAIL FROM"):
			rcpts = nil
			reply("250 OK")
		case strings.HasPrefix(upper, "RCPT TO"):
			rcpts = append(rcpts, cmd)
			reply("250 OK")
		case upper == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				body.WriteString(l)
			}
			s.mu.Lock()
			s.messages = append(s.messages, body.String())
			s.rcpts = append(s.rcpts, rcpts)
			s.mu.Unlock()
			reply("250 OK queued")
		case upper == "QUIT":
			reply("221 Bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func (s *fakeSMTP) snapshot() ([]string, [][]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...), append([][]string(nil), s.rcpts...), append([]string(nil), s.authed...)
}

func newTestSender(s *fakeSMTP) *SMTPSender {
	return NewSMTPSender(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     s.port(),
		Username: "relay@example.com",
		Password: "app-password",
		Timeout:  5 * time.Second,
	})
}

func TestSMTPSender_Send(t *testing.T) {
	srv := startFakeSMTP(t)
	sender := newTestSender(srv)

	err := sender.Send(context.Background(), &Message{
		FromName: "Corporate Contact Form",
		To:       []string{"org@example.com"},
		ReplyTo:  "ada@example.com",
		Subject:  "New Contact: Hello",
		HTML:     "<p>This is a test message.</p>",
	})
	require.NoError(t, err)

	msgs, rcpts, authed := srv.snapshot()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"RCPT TO:<org@example.com>"}, rcpts[0])
	assert.Equal(t, []string{"\x00relay@example.com\x00app-password"}, authed)

	parsed, err := mail.ReadMessage(strings.NewReader(msgs[0]))
	require.NoError(t, err)
	assert.Equal(t, `"Corporate Contact Form" <relay@example.com>`, parsed.Header.Get("From"))
	assert.Equal(t, "<ada@example.com>", parsed.Header.Get("Reply-To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "New Contact: Hello", subject)
}

func TestSMTPSender_Verify(t *testing.T) {
	srv := startFakeSMTP(t)
	require.NoError(t, newTestSender(srv).Verify(context.Background()))

	msgs, _, authed := srv.snapshot()
	assert.Empty(t, msgs)
	assert.Len(t, authed, 1)
}

func TestSMTPSender_ProviderRejects(t *testing.T) {
	srv := startFakeSMTP(t)
	srv.rejectAt = "RCPT TO"

	err := newTestSender(srv).Send(context.Background(), &Message{
		To:      []string{"org@example.com"},
		Subject: "x",
		HTML:    "<p>x</p>",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550")
}

func TestSMTPSender_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	sender := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port, Username: "u@example.com", Password: "p", Timeout: time.Second})
	err = sender.Send(context.Background(), &Message{To: []string{"a@example.com"}, Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestSMTPSender_NoRecipients(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: "25"})
	assert.Error(t, sender.Send(context.Background(), &Message{}))
	assert.False(t, sender.IsConfigured())
}

func TestBuildMIME_WithAttachment(t *testing.T) {
	resume := []byte("%PDF-1.4 fake resume bytes \x00\x01\x02")
	raw, err := BuildMIME(&Message{
		FromName:    "HR Recruitment Portal",
		From:        "relay@example.com",
		To:          []string{"hr@example.com"},
		Subject:     "New Application Received - Engineer (Ada Lovelace)",
		HTML:        "<p>Resume attached.</p>",
		Attachments: []Attachment{{Filename: "ada resume.pdf", ContentType: "application/pdf", Data: resume}},
	}, time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Sun, 05 Jan 2025 10:00:00 +0000", parsed.Header.Get("Date"))
	assert.True(t, strings.HasSuffix(parsed.Header.Get("Message-ID"), "@example.com>"))

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])

	htmlPart, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=UTF-8", htmlPart.Header.Get("Content-Type"))
	html, _ := io.ReadAll(htmlPart) // multipart decodes quoted-printable itself
	assert.Equal(t, "<p>Resume attached.</p>", string(html))

	filePart, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "ada resume.pdf", filePart.FileName())
	encoded, _ := io.ReadAll(filePart)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, resume, decoded)

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuildMIME_AttachmentContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantType    string
		wantParams  map[string]string
	}{
		{"plain", "application/pdf", "application/pdf", map[string]string{"name": "résumé.txt"}},
		{"with charset", "text/plain; charset=utf-8", "text/plain", map[string]string{"charset": "utf-8", "name": "résumé.txt"}},
		{"client name replaced", `text/plain; name="other.txt"`, "text/plain", map[string]string{"name": "résumé.txt"}},
		{"empty", "", "application/octet-stream", map[string]string{"name": "résumé.txt"}},
		{"garbage", ";;;", "application/octet-stream", map[string]string{"name": "résumé.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := BuildMIME(&Message{
				From:        "relay@example.com",
				To:          []string{"hr@example.com"},
				HTML:        "<p>x</p>",
				Attachments: []Attachment{{Filename: "résumé.txt", ContentType: tt.contentType, Data: []byte("hello")}},
			}, time.Now())
			require.NoError(t, err)

			parsed, err := mail.ReadMessage(bytes.NewReader(raw))
			require.NoError(t, err)
			_, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
			require.NoError(t, err)

			mr := multipart.NewReader(parsed.Body, params["boundary"])
			_, err = mr.NextPart()
			require.NoError(t, err)
			filePart, err := mr.NextPart()
			require.NoError(t, err)

			header := filePart.Header.Get("Content-Type")
			require.NotEmpty(t, header)
			mediaType, partParams, err := mime.ParseMediaType(header)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, mediaType)
			assert.Equal(t, tt.wantParams, partParams)
		})
	}
}

func TestBuildMIME_StripsHeaderInjection(t *testing.T) {
	raw, err := BuildMIME(&Message{
		From:    "relay@example.com",
		To:      []string{"org@example.com"},
		Subject: "Hello\r\nBcc: victim@example.com",
		HTML:    "<p>x</p>",
	}, time.Now())
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Empty(t, parsed.Header.Get("Bcc"))
}

func TestTemplate_EscapesUserInput(t *testing.T) {
	tmpl := MustTemplate("t", "New Contact: {{.subject}}", `<p>{{.message}}</p><p>{{orNotProvided .company}}</p><b>{{upper .name}}</b>`)

	subject, html, err := tmpl.Render(map[string]string{
		"subject": "Hi\nthere",
		"message": `<script>alert("x")</script>`,
		"name":    "ada",
	})
	require.NoError(t, err)

	assert.Equal(t, "New Contact: Hi there", subject)
	assert.Contains(t, html, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "<p>Not provided</p>")
	assert.Contains(t, html, "<b>ADA</b>")
	assert.Equal(t, "t", tmpl.Name())
}

func TestNewTemplate_BadSyntax(t *testing.T) {
	_, err := NewTemplate("bad", "{{.x", "<p></p>")
	assert.Error(t, err)
	assert.Panics(t, func() { MustTemplate("bad", "", "{{if}}") })
}

// recordingSender counts sends and fails any message whose subject is in failOn.
type recordingSender struct {
	calls  atomic.Int32
	failOn string
	delay  time.Duration
}

func (r *recordingSender) Send(ctx context.Context, msg *Message) error {
	r.calls.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if msg.Subject == r.failOn {
		return errors.New("421 service not available")
	}
	return nil
}

func (r *recordingSender) Verify(ctx context.Context) error { return nil }

func TestDispatcher_SendsBoth(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &recordingSender{}
	d := NewDispatcher(sender)

	err := d.Dispatch(context.Background(), &Message{Subject: "internal"}, &Message{Subject: "ack"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, sender.calls.Load())
	assert.NoError(t, d.Verify(context.Background()))
}

func TestDispatcher_OneFailureFailsAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &recordingSender{failOn: "ack", delay: 10 * time.Millisecond}
	err := NewDispatcher(sender).Dispatch(context.Background(), &Message{Subject: "internal"}, &Message{Subject: "ack"})

	var failure *DispatchFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "ack", failure.Message)
	assert.Contains(t, failure.Error(), "421")
	// Both sends ran to completion before the failure was reported
	assert.EqualValues(t, 2, sender.calls.Load())
}
