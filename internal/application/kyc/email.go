package kyc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/go-rental-kyc/internal/application/ledger"
	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/infrastructure/smtp"
	"github.com/go-rental-kyc/internal/pkg/token"
)

const verifySubject = "Verify your email"

var verifyHTML = template.Must(template.New("verify").Parse(`<p>Hi {{.Name}},</p>
<p>Confirm your email address within 10 minutes:</p>
<p><a href="{{.Link}}">Verify my email</a></p>`))

// EmailFlow proves control of the account email through a one-time link.
type EmailFlow struct {
	users   userStore
	ledger  *ledger.Ledger
	mailer  smtp.Mailer
	homeURL string
	now     clock
}

func NewEmailFlow(users userStore, l *ledger.Ledger, mailer smtp.Mailer, homeURL string) *EmailFlow {
	return &EmailFlow{users: users, ledger: l, mailer: mailer, homeURL: homeURL, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (f *EmailFlow) WithClock(now func() time.Time) *EmailFlow {
	f.now = now
	return f
}

// Initiate opens a ledger entry for u and mails the verification link.
// next is carried through the link for the client to redirect to.
func (f *EmailFlow) Initiate(ctx context.Context, u *domain.User, next string) (*domain.Verification, error) {
	code, err := token.NumericCode(codeLength)
	if err != nil {
		return nil, err
	}
	v, err := f.ledger.BeginEmail(ctx, u.UserID, code, u.Salt)
	if err != nil {
		return nil, sendFailure(u, err)
	}
	if _, err := f.users.Update(ctx, u.UserID, map[string]interface{}{fieldVerificationID: v.VerificationID}); err != nil {
		return nil, sendFailure(u, err)
	}
	msg, err := verificationMail(u, f.link(code, v.Reference, v.TokenExpiresAt, next))
	if err != nil {
		return nil, err
	}
	if err := f.mailer.Send(ctx, msg); err != nil {
		return nil, sendFailure(u, err)
	}
	return v, nil
}

// Resend starts a fresh link for a user whose email is not yet verified.
func (f *EmailFlow) Resend(ctx context.Context, u *domain.User, next string) (*domain.Verification, error) {
	if u.VerificationLevel.AtLeast(domain.LevelEmail) {
		return nil, fmt.Errorf("email already verified: %w", domain.ErrValidation)
	}
	return f.Initiate(ctx, u, next)
}

// Confirm redeems the link token for reference. externalExpiry is the
// link's expires parameter in Unix seconds, or 0 when absent.
func (f *EmailFlow) Confirm(ctx context.Context, code, reference string, externalExpiry int64) (*domain.User, error) {
	v, err := f.ledger.ByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid verification: %w", domain.ErrAuthentication)
		}
		return nil, err
	}
	if f.ledger.Expired(v) {
		if v.Status != domain.StatusExpired {
			if _, err := f.ledger.MarkStatus(ctx, v.VerificationID, domain.StatusExpired); err != nil {
				slog.Warn("could not expire verification", "verification_id", v.VerificationID, "err", err)
			}
		}
		return nil, fmt.Errorf("invalid verification: %w", domain.ErrValidation)
	}
	u, err := f.users.GetByVerificationID(ctx, v.VerificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid verification: %w", domain.ErrAuthentication)
		}
		return nil, err
	}
	if u.UserID != v.UserID {
		return nil, fmt.Errorf("invalid verification: %w", domain.ErrAuthentication)
	}
	if externalExpiry != 0 && externalExpiry <= f.now().Unix() {
		return nil, fmt.Errorf("invalid verification: %w", domain.ErrValidation)
	}
	if err := f.ledger.Redeem(ctx, v, domain.ChallengeEmailToken, code, u.Salt); err != nil {
		if errors.Is(err, ledger.ErrChallengeFailed) {
			return nil, fmt.Errorf("invalid verification: %w", domain.ErrValidation)
		}
		return nil, err
	}

	updated, err := f.users.Update(ctx, u.UserID, map[string]interface{}{
		fieldVerificationLevel:    domain.MaxLevel(u.VerificationLevel, domain.LevelEmail),
		fieldVerificationProgress: domain.StatusInProgress,
	})
	if err != nil {
		return nil, err
	}
	if _, err := f.ledger.MarkStatus(ctx, v.VerificationID, domain.StatusInProgress); err != nil {
		slog.Warn("could not update verification status", "verification_id", v.VerificationID, "err", err)
	}
	return updated, nil
}

func (f *EmailFlow) link(code, reference string, expires int64, next string) string {
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	if next != "" {
		q.Set("next", next)
	}
	return fmt.Sprintf("%s/rider/on-boarding/%s/%s?%s",
		f.homeURL, url.PathEscape(code), url.PathEscape(reference), q.Encode())
}

func verificationMail(u *domain.User, link string) (smtp.Message, error) {
	var html bytes.Buffer
	if err := verifyHTML.Execute(&html, struct{ Name, Link string }{u.FirstName, link}); err != nil {
		return smtp.Message{}, err
	}
	return smtp.Message{
		To:      u.Email,
		Subject: verifySubject,
		Text:    fmt.Sprintf("Welcome! Confirm your email address within 10 minutes:\n\n%s\n", link),
		HTML:    html.String(),
	}, nil
}

func sendFailure(u *domain.User, err error) error {
	if errors.Is(err, domain.ErrConfiguration) {
		return err
	}
	slog.Error("verification email failed", "user_id", u.UserID, "err", err)
	return fmt.Errorf("could not send verification email: %w", domain.ErrValidation)
}
