package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"centavo/internal/models"
	"centavo/internal/utils"
)

// Handshake policy. Mismatches, expiry and exhaustion are transitions of the
// state machine, never errors.
const (
	verificationCodeTTL = 5 * time.Minute
	maxCodeAttempts     = 3
	minPhoneDigits      = 10
)

// VerificationService binds an anonymous transport identity (LID) to a
// billing phone number. The claimed number is never trusted: the challenge
// code goes out-of-band to the claimed phone's own channel, so only the
// legitimate subscriber can complete the handshake.
type VerificationService struct {
	store     VerificationStore
	profiles  ProfileStore
	transport Transport
	codes     CodeSender
	log       *zap.Logger
}

func NewVerificationService(store VerificationStore, profiles ProfileStore, transport Transport, codes CodeSender, log *zap.Logger) *VerificationService {
	return &VerificationService{store: store, profiles: profiles, transport: transport, codes: codes, log: log}
}

// PurgePhone drops every session and link targeting the phone. Used by the
// hard reset so the next anonymous message restarts the handshake.
func (s *VerificationService) PurgePhone(ctx context.Context, phone string) error {
	return s.store.PurgePhone(ctx, phone)
}

// Resolve returns the verified phone for a LID, or "" when no permanent link
// exists yet.
func (s *VerificationService) Resolve(ctx context.Context, lid string) (string, error) {
	link, err := s.store.GetLink(ctx, lid)
	if err != nil {
		return "", err
	}
	if link == nil {
		return "", nil
	}
	return link.Phone, nil
}

// Advance runs one transition of the handshake for an inbound message from an
// unverified LID. It returns the verified phone when this message completes
// the handshake; otherwise "" after sending the appropriate prompt. Every
// transition sends exactly one message to the anonymous channel, except code
// issuance which also delivers the code to the claimed phone's channel.
func (s *VerificationService) Advance(ctx context.Context, lid, text string, now time.Time) (string, error) {
	sess, err := s.store.GetSession(ctx, lid)
	if err != nil {
		return "", err
	}

	if sess == nil {
		sess = &models.VerificationSession{
			LID:       lid,
			State:     models.VerifAwaitingPhone,
			CreatedAt: now,
		}
		if err := s.store.SaveSession(ctx, sess); err != nil {
			return "", err
		}
		return "", s.transport.Send(ctx, lid, msgPhonePrompt(models.LocaleBR))
	}

	switch sess.State {
	case models.VerifAwaitingPhone:
		return "", s.handlePhone(ctx, sess, text, now)
	case models.VerifAwaitingCode:
		return s.handleCode(ctx, sess, text, now)
	default:
		// Unknown persisted state; start over.
		if err := s.store.DeleteSession(ctx, lid); err != nil {
			return "", err
		}
		return "", s.transport.Send(ctx, lid, msgPhonePrompt(models.LocaleBR))
	}
}

func (s *VerificationService) handlePhone(ctx context.Context, sess *models.VerificationSession, text string, now time.Time) error {
	locale := models.LocaleBR
	phone := utils.Digits(text)
	if len(phone) < minPhoneDigits {
		return s.transport.Send(ctx, sess.LID, msgPhoneInvalid(locale))
	}

	profile, err := s.profiles.Get(ctx, phone)
	if err != nil {
		return err
	}
	if profile == nil || !profile.Subscribed(now) {
		// Not found does not advance the machine and does not cost attempts.
		return s.transport.Send(ctx, sess.LID, msgAccountNotFound(locale))
	}

	// A phone may be the target of at most one active anonymous session.
	existing, err := s.store.SessionForPhone(ctx, phone)
	if err != nil {
		return err
	}
	if existing != nil && existing.LID != sess.LID {
		return s.transport.Send(ctx, sess.LID, msgPhoneBusy(locale))
	}

	code, err := utils.NewVerificationCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	// Out-of-band delivery to the claimed number, before the transition is
	// committed: a session must never sit in AWAITING_CODE with a code the
	// user was not actually sent.
	if err := s.codes.DeliverCode(ctx, phone, msgCodeDelivery(code)); err != nil {
		return fmt.Errorf("deliver code to %s: %w", phone, err)
	}

	sess.State = models.VerifAwaitingCode
	sess.Phone = phone
	sess.CodeHash = string(hash)
	sess.ExpiresAt = now.Add(verificationCodeTTL)
	sess.Attempts = 0
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	s.log.Info("verification code issued", zap.String("lid", sess.LID), zap.String("phone", phone))
	return s.transport.Send(ctx, sess.LID, msgCodeSentNotice(locale))
}

func (s *VerificationService) handleCode(ctx context.Context, sess *models.VerificationSession, text string, now time.Time) (string, error) {
	locale := models.LocaleBR

	if now.After(sess.ExpiresAt) {
		sess.State = models.VerifAwaitingPhone
		sess.Phone = ""
		sess.CodeHash = ""
		sess.Attempts = 0
		if err := s.store.SaveSession(ctx, sess); err != nil {
			return "", err
		}
		return "", s.transport.Send(ctx, sess.LID, msgCodeExpired(locale))
	}

	if bcrypt.CompareHashAndPassword([]byte(sess.CodeHash), []byte(utils.Digits(text))) == nil {
		return s.complete(ctx, sess, now)
	}

	sess.Attempts++
	if sess.Attempts >= maxCodeAttempts {
		if err := s.store.DeleteSession(ctx, sess.LID); err != nil {
			return "", err
		}
		s.log.Warn("verification abandoned", zap.String("lid", sess.LID), zap.Int("attempts", sess.Attempts))
		return "", s.transport.Send(ctx, sess.LID, msgCodeAbandoned(locale))
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return "", err
	}
	return "", s.transport.Send(ctx, sess.LID, msgCodeWrong(locale, maxCodeAttempts-sess.Attempts))
}

func (s *VerificationService) complete(ctx context.Context, sess *models.VerificationSession, now time.Time) (string, error) {
	link := &models.VerifiedLink{LID: sess.LID, Phone: sess.Phone, CreatedAt: now}
	if err := s.store.SaveLink(ctx, link); err != nil {
		return "", err
	}
	if err := s.store.DeleteSession(ctx, sess.LID); err != nil {
		return "", err
	}

	// LID traffic is the Brazil rollout; force the locale on the profile.
	profile, err := s.profiles.Get(ctx, sess.Phone)
	if err != nil {
		return "", err
	}
	if profile != nil && profile.LocaleMode != models.LocaleBR {
		profile.LocaleMode = models.LocaleBR
		if err := s.profiles.Save(ctx, profile); err != nil {
			return "", err
		}
	}

	s.log.Info("verification complete", zap.String("lid", sess.LID), zap.String("phone", sess.Phone))
	return sess.Phone, nil
}
