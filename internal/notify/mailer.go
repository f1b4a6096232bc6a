package notify

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SESAPI is the slice of the SES client the mailer needs.
type SESAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESMailer struct {
	Client SESAPI
	Sender string
}

// NewSESMailer loads the AWS config for region. Static keys are used when given,
// otherwise the default credential chain applies.
func NewSESMailer(ctx context.Context, region, accessKey, secretKey, sender string) (*SESMailer, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESMailer{Client: ses.NewFromConfig(cfg), Sender: sender}, nil
}

func content(s string) *types.Content {
	return &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(s)}
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	if m.Sender == "" {
		return fmt.Errorf("sender address is not configured")
	}
	if msg.To == "" {
		return fmt.Errorf("recipient address is empty")
	}
	_, err := m.Client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(m.Sender),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message: &types.Message{
			Subject: content(msg.Subject),
			Body:    &types.Body{Html: content(msg.HTML), Text: content(msg.Text)},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", msg.To, err)
	}
	return nil
}
