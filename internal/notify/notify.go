package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"resultscraper/internal/results"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("resultscraper/notify")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && len(c.To) > 0
}

type Failure struct {
	RegisterNumber string
	Error          string
}

// Summary is the outcome of a batch as it is reported to whoever ran it.
type Summary struct {
	Total      int
	Succeeded  int
	Failures   []Failure
	ExportPath string
}

func Summarize(rs []results.Result, exportPath string) Summary {
	s := Summary{Total: len(rs), ExportPath: exportPath}
	for _, r := range rs {
		if r.Failed() {
			s.Failures = append(s.Failures, Failure{
				RegisterNumber: r[results.KeyRegisterNumber],
				Error:          r[results.KeyError],
			})
			continue
		}
		s.Succeeded++
	}
	return s
}

func (s Summary) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d students: %d succeeded, %d failed.\n", s.Total, s.Succeeded, len(s.Failures))
	if len(s.Failures) > 0 {
		b.WriteString("\nFailed students:\n")
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "- %s: %s\n", f.RegisterNumber, f.Error)
		}
	}
	if s.ExportPath != "" {
		b.WriteString("\nThe exported results are attached.\n")
	}
	return b.String()
}

func (c SmtpConfig) message(s Summary) (*email.Email, error) {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Result Scraper <%s>", c.EmailAddress)
	mail.To = c.To
	mail.Subject = fmt.Sprintf("Results batch: %d/%d succeeded", s.Succeeded, s.Total)
	mail.Text = []byte(s.Body())
	if s.ExportPath != "" {
		_, err := mail.AttachFile(s.ExportPath)
		if err != nil {
			return nil, err
		}
	}
	return mail, nil
}

// Send emails the summary, servers that do not support AUTH are retried
// without it.
func Send(ctx context.Context, c SmtpConfig, s Summary) error {
	_, span := tracer.Start(ctx, "notify:Send")
	defer span.End()

	mail, err := c.message(s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build email")
		return err
	}

	addr := fmt.Sprintf("%s:%d", c.Server, c.Port)
	err = mail.Send(addr, smtp.PlainAuth("", c.EmailAddress, c.Password, c.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
