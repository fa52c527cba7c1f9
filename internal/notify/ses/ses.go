package ses

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"leadscan/internal/port"
)

type sesNotifier struct {
	client      *sesv2.Client
	fromAddress string
	toAddress   string
}

// NewSESNotifier creates a new SES-backed drift Notifier. Notices are
// mailed to a fixed operations address.
func NewSESNotifier(region, fromAddress, toAddress string) (port.Notifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesNotifier{
		client:      client,
		fromAddress: fromAddress,
		toAddress:   toAddress,
	}, nil
}

func (s *sesNotifier) NotifyDrift(ctx context.Context, notice port.DriftNotice) error {
	subject := fmt.Sprintf("Lead %s no longer matches its card images", notice.LeadID)
	textBody := buildDriftText(notice)
	htmlBody := buildDriftHTML(notice)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &s.fromAddress,
		Destination: &types.Destination{
			ToAddresses: []string{s.toAddress},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildDriftText(notice port.DriftNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A periodic audit re-extracted the card images for lead %s and the result differs from the stored record.\n\n", notice.LeadID)
	if len(notice.ChangedFields) > 0 {
		fmt.Fprintf(&b, "Changed fields: %s\n", strings.Join(notice.ChangedFields, ", "))
	}
	if len(notice.MissingPhones) > 0 {
		fmt.Fprintf(&b, "Phone numbers on the card but not in the record: %s\n", strings.Join(notice.MissingPhones, ", "))
	}
	b.WriteString("\nReview the lead and update or dismiss as needed.\n")
	return b.String()
}

func buildDriftHTML(notice port.DriftNotice) string {
	var rows strings.Builder
	for _, f := range notice.ChangedFields {
		fmt.Fprintf(&rows, "<li>%s</li>", f)
	}
	var phones strings.Builder
	for _, p := range notice.MissingPhones {
		fmt.Fprintf(&phones, "<li>%s</li>", p)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Lead drift detected</h2>
  <p>A periodic audit re-extracted the card images for lead <strong>%s</strong> and the result differs from the stored record.</p>
  <h3 style="color: #333;">Changed fields</h3>
  <ul>%s</ul>
  <h3 style="color: #333;">Phone numbers on the card but not in the record</h3>
  <ul>%s</ul>
  <p style="color: #999; font-size: 12px;">Review the lead and update or dismiss as needed.</p>
</body>
</html>`, notice.LeadID, rows.String(), phones.String())
}
