package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"centavo/internal/models"
)

// In-memory collaborators shared by the service tests.

type stubProfiles struct {
	mu      sync.Mutex
	byPhone map[string]*models.UserProfile
	saves   int
}

func newStubProfiles(profiles ...*models.UserProfile) *stubProfiles {
	s := &stubProfiles{byPhone: make(map[string]*models.UserProfile)}
	for _, p := range profiles {
		s.byPhone[p.Phone] = p
	}
	return s
}

func (s *stubProfiles) Get(_ context.Context, phone string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byPhone[phone], nil
}

func (s *stubProfiles) Save(_ context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.byPhone[profile.Phone] = profile
	return nil
}

func (s *stubProfiles) ListActive(_ context.Context) ([]*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.UserProfile
	for _, p := range s.byPhone {
		if p.Status == models.StatusActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubLedger struct {
	mu      sync.Mutex
	byPhone map[string][]models.Transaction
}

func newStubLedger() *stubLedger {
	return &stubLedger{byPhone: make(map[string][]models.Transaction)}
}

func (s *stubLedger) Append(_ context.Context, phone string, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPhone[phone] = append(s.byPhone[phone], *tx)
	return nil
}

func (s *stubLedger) List(_ context.Context, phone string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction(nil), s.byPhone[phone]...), nil
}

func (s *stubLedger) DeleteLatest(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.byPhone[phone]
	if len(rows) > 0 {
		s.byPhone[phone] = rows[:len(rows)-1]
	}
	return nil
}

func (s *stubLedger) DeleteAll(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byPhone, phone)
	return nil
}

type stubVerifStore struct {
	mu       sync.Mutex
	sessions map[string]*models.VerificationSession
	links    map[string]*models.VerifiedLink
}

func newStubVerifStore() *stubVerifStore {
	return &stubVerifStore{
		sessions: make(map[string]*models.VerificationSession),
		links:    make(map[string]*models.VerifiedLink),
	}
}

func (s *stubVerifStore) GetSession(_ context.Context, lid string) (*models.VerificationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[lid]; ok {
		cp := *sess
		return &cp, nil
	}
	return nil, nil
}

func (s *stubVerifStore) SaveSession(_ context.Context, sess *models.VerificationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.LID] = &cp
	return nil
}

func (s *stubVerifStore) DeleteSession(_ context.Context, lid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, lid)
	return nil
}

func (s *stubVerifStore) SessionForPhone(_ context.Context, phone string) (*models.VerificationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.Phone == phone {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubVerifStore) GetLink(_ context.Context, lid string) (*models.VerifiedLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if link, ok := s.links[lid]; ok {
		cp := *link
		return &cp, nil
	}
	return nil, nil
}

func (s *stubVerifStore) SaveLink(_ context.Context, link *models.VerifiedLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *link
	s.links[link.LID] = &cp
	return nil
}

func (s *stubVerifStore) LinkForPhone(_ context.Context, phone string) (*models.VerifiedLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, link := range s.links {
		if link.Phone == phone {
			cp := *link
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubVerifStore) PurgePhone(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for lid, sess := range s.sessions {
		if sess.Phone == phone {
			delete(s.sessions, lid)
		}
	}
	for lid, link := range s.links {
		if link.Phone == phone {
			delete(s.links, lid)
		}
	}
	return nil
}

type sentMessage struct {
	To   string
	Text string
}

type stubTransport struct {
	mu           sync.Mutex
	sent         []sentMessage
	typing       int
	disconnected bool

	// failFrom >= 0 fails every Send whose zero-based index is >= failFrom.
	failFrom int
}

func newStubTransport() *stubTransport {
	return &stubTransport{failFrom: -1}
}

func (s *stubTransport) Send(_ context.Context, recipientID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFrom >= 0 && len(s.sent) >= s.failFrom {
		return fmt.Errorf("send to %s failed", recipientID)
	}
	s.sent = append(s.sent, sentMessage{To: recipientID, Text: text})
	return nil
}

func (s *stubTransport) SetTyping(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing++
	return nil
}

func (s *stubTransport) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected = true
	return nil
}

func (s *stubTransport) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

func (s *stubTransport) lastTo(to string) (sentMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sent) - 1; i >= 0; i-- {
		if s.sent[i].To == to {
			return s.sent[i], true
		}
	}
	return sentMessage{}, false
}

type stubCodeSender struct {
	mu        sync.Mutex
	delivered []sentMessage
	err       error
}

func (s *stubCodeSender) DeliverCode(_ context.Context, phone, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, sentMessage{To: phone, Text: message})
	return nil
}

func (s *stubCodeSender) lastDelivery() (sentMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.delivered) == 0 {
		return sentMessage{}, false
	}
	return s.delivered[len(s.delivered)-1], true
}

type stubExtractor struct {
	fn func(ctx context.Context, text string, ec models.ExtractionContext) (*models.Intent, error)

	mu     sync.Mutex
	calls  int
	lastEC models.ExtractionContext
}

func (s *stubExtractor) ExtractIntent(ctx context.Context, text string, ec models.ExtractionContext) (*models.Intent, error) {
	s.mu.Lock()
	s.calls++
	s.lastEC = ec
	s.mu.Unlock()
	if s.fn == nil {
		return &models.Intent{Kind: models.IntentNoAction}, nil
	}
	return s.fn(ctx, text, ec)
}

type stubLocker struct {
	mu    sync.Mutex
	deny  bool
	held  map[string]bool
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[string]bool)}
}

func (s *stubLocker) Acquire(_ context.Context, name string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deny || s.held[name] {
		return false, nil
	}
	s.held[name] = true
	return true, nil
}

func (s *stubLocker) Release(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, name)
	return nil
}
