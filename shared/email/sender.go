package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"video-license-agent/internal/models"
	"video-license-agent/shared/config"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var reportTemplate = template.Must(template.New("report").Parse(`<html>
<body style="font-family: sans-serif;">
<h2>Video License Analysis: {{.SourceName}}</h2>
<p>Batch {{.Batch.ID}} processed {{len .Batch.Rows}} rows on {{.Date.Format "Jan 2, 2006 15:04"}}.</p>
<ul>
  <li>Analyzed: {{.Batch.Succeeded}}</li>
  <li>Errors: {{.Batch.Failed}}</li>
  <li>Skipped cells: {{.Batch.Skipped}}</li>
</ul>
<p>Results are attached as <b>{{.OutputName}}</b>.</p>
</body>
</html>`))

type Sender struct {
	config *config.EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// SendResults emails a summary of the batch with the result workbook attached.
func (s *Sender) SendResults(report *models.DeliveryReport, workbook []byte) error {
	if report == nil || report.Batch == nil {
		return fmt.Errorf("report cannot be nil")
	}

	subject := fmt.Sprintf("Video License Analysis - %s (%d rows, %d errors)",
		report.SourceName, len(report.Batch.Rows), report.Batch.Failed())

	body, err := generateEmailBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	msg, err := s.buildMessage(subject, body, report.OutputName, workbook)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return s.send(addr, auth, s.config.FromEmail, []string{s.config.ToEmail}, msg)
}

func (s *Sender) buildMessage(subject, htmlBody, attachmentName string, attachment []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: multipart/mixed; boundary=%s\r\n\r\n",
		s.config.ToEmail, s.config.FromEmail, subject, mw.Boundary())

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}

	filePart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {xlsxContentType},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", attachmentName)},
	})
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 76 {
		fmt.Fprintf(filePart, "%s\r\n", encoded[:76])
		encoded = encoded[76:]
	}
	fmt.Fprintf(filePart, "%s\r\n", encoded)

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func generateEmailBody(report *models.DeliveryReport) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}
