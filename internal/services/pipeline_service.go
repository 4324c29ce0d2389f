package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"centavo/internal/models"
)

// syntheticGreeting re-enters the pipeline under the verified phone right
// after a handshake completes, so onboarding starts without the user having
// to type anything else.
const syntheticGreeting = "Hi"

// PipelineService sequences one inbound message through security check,
// subscription gate, command short-circuit, extraction and dispatch. There is
// no persisted pipeline state; the per-stage early returns are the control
// flow, and the next message always restarts from scratch.
type PipelineService struct {
	profiles     ProfileStore
	ledger       LedgerStore
	verification *VerificationService
	totals       *TotalsService
	dispatch     *DispatchService
	extractor    IntentExtractor
	transport    Transport
	log          *zap.Logger

	llmTimeout  time.Duration
	checkoutURL string
	trialHours  int

	mu        sync.Mutex
	userLocks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewPipelineService(
	profiles ProfileStore,
	ledger LedgerStore,
	verification *VerificationService,
	totals *TotalsService,
	dispatch *DispatchService,
	extractor IntentExtractor,
	transport Transport,
	llmTimeout time.Duration,
	checkoutURL string,
	trialHours int,
	log *zap.Logger,
) *PipelineService {
	return &PipelineService{
		profiles:     profiles,
		ledger:       ledger,
		verification: verification,
		totals:       totals,
		dispatch:     dispatch,
		extractor:    extractor,
		transport:    transport,
		llmTimeout:   llmTimeout,
		checkoutURL:  checkoutURL,
		trialHours:   trialHours,
		log:          log,
		userLocks:    make(map[string]*userLock),
	}
}

// acquireLock serializes processing per sender. Two rapid messages from the
// same user would otherwise both compute totals from the same snapshot and
// lose an update; messages from different users still run concurrently.
// Entries are refcounted and evicted in releaseLock, so the map only holds
// senders with messages in flight.
func (p *PipelineService) acquireLock(senderID string) *userLock {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.userLocks[senderID]
	if !ok {
		lock = &userLock{}
		p.userLocks[senderID] = lock
	}
	lock.refs++
	return lock
}

func (p *PipelineService) releaseLock(senderID string, lock *userLock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(p.userLocks, senderID)
	}
}

type messagePass struct {
	replied bool
	locale  string
}

// HandleInbound processes one inbound message to completion. It never lets a
// failure escape: timeouts get the fixed "slow" apology, anything else the
// generic one — unless a reply already went out in this pass, in which case
// the error is only logged to avoid double-replying.
func (p *PipelineService) HandleInbound(ctx context.Context, senderID, text string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline panic", zap.String("sender", senderID), zap.Any("panic", r))
		}
	}()

	lock := p.acquireLock(senderID)
	lock.mu.Lock()
	defer func() {
		lock.mu.Unlock()
		p.releaseLock(senderID, lock)
	}()

	pass := &messagePass{locale: models.LocaleUK}
	err := p.process(ctx, senderID, text, time.Now(), pass)
	if err == nil {
		return
	}
	p.log.Error("pipeline failed", zap.String("sender", senderID), zap.Error(err))

	if errors.Is(err, context.DeadlineExceeded) {
		// No automatic retry: the next inbound message restarts everything.
		_ = p.transport.Send(ctx, senderID, msgSlow(pass.locale))
		return
	}
	if !pass.replied {
		_ = p.transport.Send(ctx, senderID, msgGenericError(pass.locale))
	}
}

func (p *PipelineService) process(ctx context.Context, senderID, text string, now time.Time, pass *messagePass) error {
	// Presence is best-effort; a failure here never blocks the message.
	_ = p.transport.SetTyping(ctx, senderID)

	userID := senderID
	if models.IsAnonymousID(senderID) {
		phone, err := p.verification.Resolve(ctx, senderID)
		if err != nil {
			return err
		}
		if phone == "" {
			phone, err = p.verification.Advance(ctx, senderID, text, now)
			if err != nil {
				return err
			}
			if phone == "" {
				return nil
			}
			text = syntheticGreeting
		}
		userID = phone
	}

	profile, err := p.profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		profile = p.newTrialProfile(userID, now)
		if err := p.profiles.Save(ctx, profile); err != nil {
			return err
		}
		p.log.Info("profile created", zap.String("phone", userID))
	}
	pass.locale = profile.Locale()

	send := func(msg string) error {
		if err := p.transport.Send(ctx, senderID, msg); err != nil {
			return err
		}
		pass.replied = true
		return nil
	}

	if profile.TrialExpired(now) {
		return send(msgTrialExpired(pass.locale, p.checkoutURL))
	}

	handled, err := p.runCommand(ctx, profile, text, now, send)
	if err != nil || handled {
		return err
	}

	rows, err := p.ledger.List(ctx, profile.Phone)
	if err != nil {
		return err
	}
	totals := p.totals.Compute(rows, profile, now)
	step := ResolveStep(profile)

	balance, _ := totals.Balance.Float64()
	today, _ := totals.TodayTotal.Float64()
	month, _ := totals.MonthTotal.Float64()
	ec := models.ExtractionContext{
		Step:               step,
		Locale:             pass.locale,
		OnboardingComplete: profile.OnboardingComplete,
		IncomeType:         profile.IncomeType,
		MonthlyIncome:      profile.MonthlyIncome,
		Balance:            balance,
		TodayTotal:         today,
		MonthTotal:         month,
		StatusMonth:        totals.StatusMonth,
	}

	llmCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()
	intent, err := p.extractor.ExtractIntent(llmCtx, text, ec)
	if err != nil {
		if llmCtx.Err() != nil {
			return llmCtx.Err()
		}
		return err
	}

	if intent.Kind == models.IntentNoAction {
		if intent.ResponseMessage != "" {
			return send(intent.ResponseMessage)
		}
		return nil
	}

	reply, alert, err := p.dispatch.Dispatch(ctx, intent, profile, now)
	if err != nil {
		return err
	}
	if reply != "" {
		if err := send(reply); err != nil {
			return err
		}
	}
	if alert != "" {
		if err := send(alert); err != nil {
			return err
		}
	}
	return nil
}

func (p *PipelineService) newTrialProfile(phone string, now time.Time) *models.UserProfile {
	return &models.UserProfile{
		Phone:              phone,
		Plan:               models.PlanTrial,
		Status:             models.StatusActive,
		TrialEndsAt:        now.Add(time.Duration(p.trialHours) * time.Hour),
		DailyReportEnabled: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
