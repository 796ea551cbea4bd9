package services

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type TwilioSMSSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMSSender(accountSID, authToken, from string) *TwilioSMSSender {
	return &TwilioSMSSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

// SendSMS does not honor ctx cancellation; the Twilio client has no context-aware call.
func (s *TwilioSMSSender) SendSMS(_ context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}
