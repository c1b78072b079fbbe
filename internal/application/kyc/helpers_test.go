package kyc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-rental-kyc/internal/application/ledger"
	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/infrastructure/smtp"
	"github.com/go-rental-kyc/internal/infrastructure/sns"
)

var epoch = time.Unix(1_700_000_000, 0).UTC()

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// applyUpdates overlays updates on the DynamoDB representation of current so
// partial updates behave like an UpdateItem SET.
func applyUpdates(current interface{}, updates map[string]interface{}) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(current)
	if err != nil {
		return nil, err
	}
	for k, v := range updates {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, err
		}
		item[k] = av
	}
	return item, nil
}

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*domain.User
}

func newMemUsers(users ...*domain.User) *memUsers {
	m := &memUsers{byID: map[string]*domain.User{}}
	for _, u := range users {
		m.byID[u.UserID] = u
	}
	return m
}

func (m *memUsers) get(id string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.byID[id]
	return &cp
}

func (m *memUsers) GetByVerificationID(_ context.Context, verificationID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.VerificationID == verificationID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) FindByPhone(_ context.Context, phone string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.byID {
		if u.Phone == phone {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) PhoneClaimed(_ context.Context, e164, excludeUserID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.UserID != excludeUserID && u.Phone == e164 {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Update(_ context.Context, userID string, updates map[string]interface{}) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	item, err := applyUpdates(u, updates)
	if err != nil {
		return nil, err
	}
	var fresh domain.User
	if err := attributevalue.UnmarshalMap(item, &fresh); err != nil {
		return nil, err
	}
	m.byID[userID] = &fresh
	cp := fresh
	return &cp, nil
}

type memEntries struct {
	mu   sync.Mutex
	byID map[string]*domain.Verification
}

func newMemEntries() *memEntries {
	return &memEntries{byID: map[string]*domain.Verification{}}
}

func (m *memEntries) only() *domain.Verification {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.byID {
		cp := *v
		return &cp
	}
	return nil
}

func (m *memEntries) Put(_ context.Context, v *domain.Verification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.byID[v.VerificationID] = &cp
	return nil
}

func (m *memEntries) Get(_ context.Context, id string) (*domain.Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memEntries) GetByReference(_ context.Context, reference string) (*domain.Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.byID {
		if v.Reference == reference {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memEntries) Update(_ context.Context, id string, updates map[string]interface{}) (*domain.Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	item, err := applyUpdates(v, updates)
	if err != nil {
		return nil, err
	}
	var fresh domain.Verification
	if err := attributevalue.UnmarshalMap(item, &fresh); err != nil {
		return nil, err
	}
	m.byID[id] = &fresh
	cp := fresh
	return &cp, nil
}

func (m *memEntries) MarkConsumed(_ context.Context, id string, kind domain.ChallengeKind, hash string, at int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return domain.ErrConflict
	}
	ch, consumed := v.Challenge(kind)
	if consumed || ch.Hash != hash {
		return domain.ErrConflict
	}
	if kind == domain.ChallengeOTP {
		otp := *v.OTP
		otp.ConsumedAt = at
		v.OTP = &otp
	} else {
		v.TokenConsumedAt = at
	}
	return nil
}

var linkPattern = regexp.MustCompile(`/rider/on-boarding/(\d{6})/([0-9a-f-]{36})\?expires=(\d+)`)

type fakeMailer struct {
	err  error
	to   string
	body string
	html string
}

func (m *fakeMailer) Send(_ context.Context, msg smtp.Message) error {
	m.to, m.body, m.html = msg.To, msg.Text, msg.HTML
	return m.err
}

// link returns the token, reference and expires parameter of the last mail.
func (m *fakeMailer) link() (string, string, string) {
	parts := linkPattern.FindStringSubmatch(m.body)
	if parts == nil {
		return "", "", ""
	}
	return parts[1], parts[2], parts[3]
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

type fakeSMS struct {
	status int
	err    error
	to     string
	msg    string
}

func (s *fakeSMS) SendSMS(_ context.Context, to, message string) (sns.Delivery, error) {
	s.to, s.msg = to, message
	if s.err != nil {
		return sns.Delivery{}, s.err
	}
	return sns.Delivery{StatusCode: s.status, MessageID: "msg-1"}, nil
}

func (s *fakeSMS) code() string {
	return codePattern.FindString(s.msg)
}

type fakeDocs struct {
	key         string
	contentType string
	data        []byte
}

func (d *fakeDocs) Upload(_ context.Context, key string, r io.Reader, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	d.key, d.contentType, d.data = key, contentType, buf.Bytes()
	return "s3://bucket/" + key, nil
}

func (d *fakeDocs) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	return "https://bucket.example.com/" + key + "?sig=x", nil
}

type harness struct {
	clock   *fakeClock
	users   *memUsers
	entries *memEntries
	mailer  *fakeMailer
	sms     *fakeSMS
	docs    *fakeDocs
	email   *EmailFlow
	phone   *PhoneFlow
	profile *ProfileFlow
}

func newHarness(users ...*domain.User) *harness {
	h := &harness{
		clock:   &fakeClock{t: epoch},
		users:   newMemUsers(users...),
		entries: newMemEntries(),
		mailer:  &fakeMailer{},
		sms:     &fakeSMS{status: 200},
		docs:    &fakeDocs{},
	}
	l := ledger.New(h.entries).WithClock(h.clock.Now)
	h.email = NewEmailFlow(h.users, l, h.mailer, "https://rent.example.com").WithClock(h.clock.Now)
	h.phone = NewPhoneFlow(h.users, l, h.sms)
	h.profile = NewProfileFlow(h.users, h.docs)
	return h
}

func newUser(id string) *domain.User {
	return &domain.User{
		UserID:            id,
		Email:             id + "@example.com",
		Salt:              "salt-" + id,
		Roles:             []string{domain.RoleRenter},
		VerificationLevel: domain.LevelNone,
		CreatedAt:         epoch,
		UpdatedAt:         epoch,
	}
}

var usPhone = domain.PhoneRequest{InternationalPhone: "5551234567", CountryCode: "+1"}
