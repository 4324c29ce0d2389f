package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"centavo/internal/models"
)

type pipelineFixture struct {
	pipeline  *PipelineService
	profiles  *stubProfiles
	ledger    *stubLedger
	verif     *stubVerifStore
	transport *stubTransport
	extractor *stubExtractor
	codes     *stubCodeSender
}

func newPipelineFixture(llmTimeout time.Duration, profiles ...*models.UserProfile) *pipelineFixture {
	f := &pipelineFixture{
		profiles:  newStubProfiles(profiles...),
		ledger:    newStubLedger(),
		verif:     newStubVerifStore(),
		transport: newStubTransport(),
		extractor: &stubExtractor{},
		codes:     &stubCodeSender{},
	}
	log := zap.NewNop()
	totals := NewTotalsService(PacePolicy{})
	verification := NewVerificationService(f.verif, f.profiles, f.transport, f.codes, log)
	dispatch := NewDispatchService(f.profiles, f.ledger, totals, 50, log)
	f.pipeline = NewPipelineService(
		f.profiles, f.ledger, verification, totals, dispatch,
		f.extractor, f.transport,
		llmTimeout, "https://pay.example.com", 48, log,
	)
	return f
}

func TestHandleInboundCreatesTrialProfile(t *testing.T) {
	f := newPipelineFixture(time.Second)
	now := time.Now()

	f.pipeline.HandleInbound(context.Background(), testPhone, "hello")

	profile, _ := f.profiles.Get(context.Background(), testPhone)
	if profile == nil {
		t.Fatal("no profile created for first contact")
	}
	if profile.Plan != models.PlanTrial || profile.Status != models.StatusActive {
		t.Errorf("new profile = %+v", profile)
	}
	if profile.TrialEndsAt.Before(now.Add(47 * time.Hour)) {
		t.Errorf("TrialEndsAt = %v, want ~48h out", profile.TrialEndsAt)
	}
}

func TestHandleInboundTrialExpiredShortCircuits(t *testing.T) {
	profile := &models.UserProfile{
		Phone:       testPhone,
		Plan:        models.PlanTrial,
		Status:      models.StatusActive,
		TrialEndsAt: time.Now().Add(-time.Hour),
	}
	f := newPipelineFixture(time.Second, profile)

	f.pipeline.HandleInbound(context.Background(), testPhone, "spent 10 on lunch")

	if f.extractor.calls != 0 {
		t.Errorf("extractor ran for an expired trial")
	}
	msg, ok := f.transport.lastTo(testPhone)
	if !ok || !strings.Contains(msg.Text, "https://pay.example.com") {
		t.Errorf("upsell = %+v", msg)
	}
}

func TestHandleInboundCommandShortCircuits(t *testing.T) {
	profile := premiumProfile(testPhone)
	profile.OnboardingComplete = true
	profile.MonthlyIncome = 2600
	f := newPipelineFixture(time.Second, profile)
	ctx := context.Background()
	f.ledger.Append(ctx, testPhone, &models.Transaction{Amount: 10, Type: models.TxExpense})

	f.pipeline.HandleInbound(ctx, testPhone, "reset")

	if f.extractor.calls != 0 {
		t.Errorf("extractor ran for a command")
	}
	rows, _ := f.ledger.List(ctx, testPhone)
	if len(rows) != 0 {
		t.Errorf("ledger not cleared: %+v", rows)
	}
	if profile.OnboardingComplete || profile.MonthlyIncome != 0 {
		t.Errorf("income setup survived reset: %+v", profile)
	}
	if profile.Plan != models.PlanPremium {
		t.Errorf("soft reset touched the plan: %s", profile.Plan)
	}
}

func TestHandleInboundExtractionContext(t *testing.T) {
	profile := premiumProfile(testPhone)
	profile.IncomeType = models.IncomeHourly
	profile.HourlyRate = 15
	f := newPipelineFixture(time.Second, profile)

	f.pipeline.HandleInbound(context.Background(), testPhone, "40 hours")

	if f.extractor.calls != 1 {
		t.Fatalf("extractor calls = %d", f.extractor.calls)
	}
	if f.extractor.lastEC.Step != models.StepAskWeeklyHours {
		t.Errorf("step = %v, want AskWeeklyHours", f.extractor.lastEC.Step)
	}
	if f.extractor.lastEC.Locale != models.LocaleUK {
		t.Errorf("locale = %q", f.extractor.lastEC.Locale)
	}
}

func TestHandleInboundDispatchReplyAndAlert(t *testing.T) {
	profile := premiumProfile(testPhone)
	profile.OnboardingComplete = true
	profile.HasSyncedBalance = true
	f := newPipelineFixture(time.Second, profile)
	ctx := context.Background()
	f.ledger.Append(ctx, testPhone, &models.Transaction{Amount: 60, Type: models.TxIncome, CreatedAt: time.Now().Add(-time.Hour)})

	f.extractor.fn = func(context.Context, string, models.ExtractionContext) (*models.Intent, error) {
		return &models.Intent{Kind: models.IntentAddExpense, Amount: 20, Category: "Food", ResponseMessage: "noted"}, nil
	}
	f.pipeline.HandleInbound(ctx, testPhone, "20 lunch")

	msgs := f.transport.messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %+v, want reply then alert", msgs)
	}
	if msgs[0].Text != "noted" {
		t.Errorf("reply = %q", msgs[0].Text)
	}
	if !strings.Contains(msgs[1].Text, "⚠️") {
		t.Errorf("alert = %q", msgs[1].Text)
	}
}

func TestHandleInboundNoActionWithoutMessageStaysSilent(t *testing.T) {
	profile := premiumProfile(testPhone)
	f := newPipelineFixture(time.Second, profile)

	f.extractor.fn = func(context.Context, string, models.ExtractionContext) (*models.Intent, error) {
		return &models.Intent{Kind: models.IntentNoAction}, nil
	}
	f.pipeline.HandleInbound(context.Background(), testPhone, "ok")

	if msgs := f.transport.messages(); len(msgs) != 0 {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestHandleInboundTimeoutSendsSlowReply(t *testing.T) {
	profile := premiumProfile(testPhone)
	f := newPipelineFixture(20*time.Millisecond, profile)

	f.extractor.fn = func(ctx context.Context, _ string, _ models.ExtractionContext) (*models.Intent, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.pipeline.HandleInbound(context.Background(), testPhone, "spent 10")

	msg, ok := f.transport.lastTo(testPhone)
	if !ok || msg.Text != msgSlow(models.LocaleUK) {
		t.Errorf("reply = %+v, want slow apology", msg)
	}
}

func TestHandleInboundGenericErrorReply(t *testing.T) {
	profile := premiumProfile(testPhone)
	f := newPipelineFixture(time.Second, profile)

	f.extractor.fn = func(context.Context, string, models.ExtractionContext) (*models.Intent, error) {
		return nil, errors.New("upstream 500")
	}
	f.pipeline.HandleInbound(context.Background(), testPhone, "spent 10")

	msg, ok := f.transport.lastTo(testPhone)
	if !ok || msg.Text != msgGenericError(models.LocaleUK) {
		t.Errorf("reply = %+v, want generic error", msg)
	}
}

func TestHandleInboundNoDoubleReplyAfterPartialSend(t *testing.T) {
	profile := premiumProfile(testPhone)
	profile.OnboardingComplete = true
	profile.HasSyncedBalance = true
	f := newPipelineFixture(time.Second, profile)
	ctx := context.Background()
	f.ledger.Append(ctx, testPhone, &models.Transaction{Amount: 60, Type: models.TxIncome, CreatedAt: time.Now().Add(-time.Hour)})

	f.extractor.fn = func(context.Context, string, models.ExtractionContext) (*models.Intent, error) {
		return &models.Intent{Kind: models.IntentAddExpense, Amount: 20, Category: "Food", ResponseMessage: "noted"}, nil
	}
	// The reply goes out, the follow-up alert send fails.
	f.transport.failFrom = 1
	f.pipeline.HandleInbound(ctx, testPhone, "20 lunch")

	msgs := f.transport.messages()
	if len(msgs) != 1 || msgs[0].Text != "noted" {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestHandleInboundAnonymousStartsHandshake(t *testing.T) {
	f := newPipelineFixture(time.Second)

	f.pipeline.HandleInbound(context.Background(), testLID, "oi")

	if f.extractor.calls != 0 {
		t.Errorf("extractor ran before verification")
	}
	msg, ok := f.transport.lastTo(testLID)
	if !ok || msg.Text != msgPhonePrompt(models.LocaleBR) {
		t.Errorf("reply = %+v", msg)
	}
	if _, exists := f.profiles.byPhone[testLID]; exists {
		t.Error("profile created under the anonymous LID")
	}
}

func TestHandleInboundVerifiedLIDActsAsPhone(t *testing.T) {
	profile := premiumProfile(testPhone)
	profile.LocaleMode = models.LocaleBR
	f := newPipelineFixture(time.Second, profile)
	ctx := context.Background()
	f.verif.SaveLink(ctx, &models.VerifiedLink{LID: testLID, Phone: testPhone})

	f.pipeline.HandleInbound(ctx, testLID, "gastei 10 no almoço")

	if f.extractor.calls != 1 {
		t.Fatalf("extractor calls = %d", f.extractor.calls)
	}
	if f.extractor.lastEC.Locale != models.LocaleBR {
		t.Errorf("locale = %q", f.extractor.lastEC.Locale)
	}
}

func TestHandleInboundHandshakeCompletionReentersPipeline(t *testing.T) {
	profile := premiumProfile(testPhone)
	f := newPipelineFixture(time.Second, profile)
	ctx := context.Background()

	f.pipeline.HandleInbound(ctx, testLID, "oi")
	f.pipeline.HandleInbound(ctx, testLID, testPhone)
	delivery, ok := f.codes.lastDelivery()
	if !ok {
		t.Fatal("no code delivered")
	}
	code := codePattern.FindString(delivery.Text)

	f.pipeline.HandleInbound(ctx, testLID, code)

	// The verified message re-enters as a greeting and hits the extractor
	// under the phone identity.
	if f.extractor.calls != 1 {
		t.Fatalf("extractor calls = %d, want 1", f.extractor.calls)
	}
	if f.extractor.lastEC.Locale != models.LocaleBR {
		t.Errorf("locale = %q, want forced pt-BR", f.extractor.lastEC.Locale)
	}
}

func TestRunCommandTokens(t *testing.T) {
	cases := []struct {
		text    string
		handled bool
	}{
		{"reset", true},
		{"  RESET TOTAL ", true},
		{"premium", true},
		{"report off", true},
		{"modo br", true},
		{"spent 10 on lunch", false},
		{"resetting my password", false},
	}
	for _, c := range cases {
		profile := premiumProfile(testPhone)
		f := newPipelineFixture(time.Second, profile)
		send := func(string) error { return nil }
		handled, err := f.pipeline.runCommand(context.Background(), profile, c.text, time.Now(), send)
		if err != nil {
			t.Fatalf("runCommand(%q): %v", c.text, err)
		}
		if handled != c.handled {
			t.Errorf("runCommand(%q) handled = %v, want %v", c.text, handled, c.handled)
		}
	}
}

func TestRunCommandHardResetPurgesVerification(t *testing.T) {
	profile := premiumProfile(testPhone)
	profile.LocaleMode = models.LocaleBR
	profile.MonthlyIncome = 2600
	f := newPipelineFixture(time.Second, profile)
	ctx := context.Background()
	f.verif.SaveLink(ctx, &models.VerifiedLink{LID: testLID, Phone: testPhone})
	f.ledger.Append(ctx, testPhone, &models.Transaction{Amount: 10, Type: models.TxExpense})

	f.pipeline.HandleInbound(ctx, testPhone, "reset total")

	if link, _ := f.verif.LinkForPhone(ctx, testPhone); link != nil {
		t.Errorf("link survived hard reset: %+v", link)
	}
	rows, _ := f.ledger.List(ctx, testPhone)
	if len(rows) != 0 {
		t.Errorf("ledger survived hard reset")
	}
	saved, _ := f.profiles.Get(ctx, testPhone)
	if saved.MonthlyIncome != 0 || saved.LocaleMode != models.LocaleBR {
		t.Errorf("hard reset profile = %+v", saved)
	}
	if saved.Plan != models.PlanPremium {
		t.Errorf("hard reset dropped the subscription: %s", saved.Plan)
	}
}

func TestHandleInboundEvictsIdleLocks(t *testing.T) {
	profile := premiumProfile(testPhone)
	f := newPipelineFixture(time.Second, profile)
	ctx := context.Background()

	f.extractor.fn = func(context.Context, string, models.ExtractionContext) (*models.Intent, error) {
		return &models.Intent{Kind: models.IntentNoAction}, nil
	}
	f.pipeline.HandleInbound(ctx, testPhone, "ok")
	f.pipeline.HandleInbound(ctx, "999888777@lid", "oi")

	// Per-sender locks are held only while a message is in flight; a chat
	// with nothing pending leaves no entry behind.
	f.pipeline.mu.Lock()
	remaining := len(f.pipeline.userLocks)
	f.pipeline.mu.Unlock()
	if remaining != 0 {
		t.Errorf("idle lock entries = %d, want 0", remaining)
	}
}

func TestRunCommandPanicDisconnects(t *testing.T) {
	profile := premiumProfile(testPhone)
	f := newPipelineFixture(time.Second, profile)

	f.pipeline.HandleInbound(context.Background(), testPhone, "panic")

	if !f.transport.disconnected {
		t.Error("transport still connected after panic command")
	}
	if msg, _ := f.transport.lastTo(testPhone); msg.Text != msgDisarmed(models.LocaleUK) {
		t.Errorf("reply = %q", msg.Text)
	}
}
