package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
	"go.uber.org/zap"
)

var ErrConfirmationUnavailable = errors.New("email confirmation is not configured")

// Confirmer sends and checks email confirmation codes.
type Confirmer interface {
	Send(ctx context.Context, email string) error
	Check(ctx context.Context, email, code string) (bool, error)
}

// TwilioConfirmer uses a Twilio Verify service on the email channel.
type TwilioConfirmer struct {
	client     *twilio.RestClient
	serviceSID string
}

func NewTwilioConfirmer(accountSID, authToken, serviceSID string) *TwilioConfirmer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioConfirmer{client: client, serviceSID: serviceSID}
}

func (t *TwilioConfirmer) Send(ctx context.Context, email string) error {
	params := &verify.CreateVerificationParams{}
	params.SetTo(email)
	params.SetChannel("email")

	if _, err := t.client.VerifyV2.CreateVerification(t.serviceSID, params); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

func (t *TwilioConfirmer) Check(ctx context.Context, email, code string) (bool, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(email)
	params.SetCode(code)

	resp, err := t.client.VerifyV2.CreateVerificationCheck(t.serviceSID, params)
	if err != nil {
		return false, fmt.Errorf("failed to check confirmation: %w", err)
	}
	return resp.Status != nil && *resp.Status == "approved", nil
}

// DevConfirmCode is the only code DevConfirmer accepts.
const DevConfirmCode = "000000"

// DevConfirmer logs instead of sending and accepts DevConfirmCode.
type DevConfirmer struct {
	log *zap.Logger
}

func NewDevConfirmer(log *zap.Logger) *DevConfirmer {
	return &DevConfirmer{log: log}
}

func (d *DevConfirmer) Send(ctx context.Context, email string) error {
	d.log.Warn("dev confirmation code issued", zap.String("email", email), zap.String("code", DevConfirmCode))
	return nil
}

func (d *DevConfirmer) Check(ctx context.Context, email, code string) (bool, error) {
	return code == DevConfirmCode, nil
}

// noConfirmer refuses sign-ups when neither Twilio nor dev mode is set up.
type noConfirmer struct{}

func (noConfirmer) Send(context.Context, string) error { return ErrConfirmationUnavailable }

func (noConfirmer) Check(context.Context, string, string) (bool, error) {
	return false, ErrConfirmationUnavailable
}
