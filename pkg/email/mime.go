package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

var headerSanitizer = strings.NewReplacer("\r", " ", "\n", " ")

// BuildMIME renders msg as an RFC 5322 message. Bodies are quoted-printable HTML;
// attachments switch the message to multipart/mixed with base64 parts.
func BuildMIME(msg *Message, date time.Time) ([]byte, error) {
	if msg.From == "" {
		return nil, fmt.Errorf("message has no sender")
	}

	var buf bytes.Buffer
	from := mail.Address{Name: headerSanitizer.Replace(msg.FromName), Address: msg.From}

	to := make([]string, len(msg.To))
	for i, addr := range msg.To {
		to[i] = (&mail.Address{Address: headerSanitizer.Replace(addr)}).String()
	}

	writeHeader(&buf, "From", from.String())
	writeHeader(&buf, "To", strings.Join(to, ", "))
	if msg.ReplyTo != "" {
		writeHeader(&buf, "Reply-To", (&mail.Address{Address: headerSanitizer.Replace(msg.ReplyTo)}).String())
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", headerSanitizer.Replace(msg.Subject)))
	writeHeader(&buf, "Date", date.Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(msg.From)))
	writeHeader(&buf, "MIME-Version", "1.0")

	if len(msg.Attachments) == 0 {
		writeHeader(&buf, "Content-Type", "text/html; charset=UTF-8")
		writeHeader(&buf, "Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, msg.HTML); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary()))
	buf.WriteString("\r\n")

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeQuotedPrintable(htmlPart, msg.HTML); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		filename := headerSanitizer.Replace(att.Filename)
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {attachmentType(att.ContentType, filename)},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": filename})},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64Lines(part, att.Data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// attachmentType keeps the parameters of contentType and adds the file name.
// Unparseable types are sent as application/octet-stream.
func attachmentType(contentType, filename string) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "application/octet-stream", nil
	}
	merged := make(map[string]string, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	merged["name"] = filename

	if formatted := mime.FormatMediaType(mediaType, merged); formatted != "" {
		return formatted
	}
	return mime.FormatMediaType("application/octet-stream", map[string]string{"name": filename})
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

// writeBase64Lines wraps encoded output at 76 characters per RFC 2045.
func writeBase64Lines(w io.Writer, data []byte) error {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := lineLen
		if len(encoded) < n {
			n = len(encoded)
		}
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
