// Package notification sends account confirmation emails.
package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"psup-auth/internal/logger"
	userdomain "psup-auth/internal/user/domain"
)

// SendError reports a failed confirmation email delivery.
type SendError struct {
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send confirmation email to %s: %v", logger.MaskEmail(e.Recipient), e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Gateway sends confirmation emails. Each call sends exactly one message and never retries.
type Gateway struct {
	mailer    Mailer
	publicURL string
	siteName  string
	log       *zap.Logger
}

// NewGateway returns a Gateway that builds links under publicURL and delivers through mailer.
func NewGateway(mailer Mailer, publicURL, siteName string, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	if siteName == "" {
		siteName = "Parcoursup"
	}
	return &Gateway{mailer: mailer, publicURL: publicURL, siteName: siteName, log: log}
}

// Resend sends the confirmation email for u. Delivery failures are returned as *SendError.
func (g *Gateway) Resend(ctx context.Context, u *userdomain.User) error {
	if u == nil {
		return errors.New("notification: nil user")
	}
	params := confirmationParams{
		SiteName:  g.siteName,
		FirstName: u.FirstName,
		PsupID:    u.Username,
		URL:       ConfirmationURL(g.publicURL, u.Username, u.Secret),
	}
	subject, err := render(subjectTemplate, params)
	if err != nil {
		return &SendError{Recipient: u.Email, Err: err}
	}
	body, err := render(bodyTemplate, params)
	if err != nil {
		return &SendError{Recipient: u.Email, Err: err}
	}
	if err := g.mailer.Send(ctx, Message{To: u.Email, Subject: subject, Body: body}); err != nil {
		return &SendError{Recipient: u.Email, Err: err}
	}
	g.log.Debug("confirmation email sent",
		zap.String("user_id", u.ID),
		zap.String("to", logger.MaskEmail(u.Email)),
	)
	return nil
}
