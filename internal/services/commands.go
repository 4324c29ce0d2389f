package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"centavo/internal/models"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdPanic
	cmdLocaleSwitch
	cmdSoftReset
	cmdHardReset
	cmdPremium
	cmdReportOn
	cmdReportOff
)

// Hard-coded command tokens, matched against the upper-cased message before
// the LLM ever runs. Each match short-circuits the whole pipeline.
var commandTable = map[string]commandKind{
	"PANIC":         cmdPanic,
	"MODO BR":       cmdLocaleSwitch,
	"UK MODE":       cmdLocaleSwitch,
	"RESET":         cmdSoftReset,
	"RESET TOTAL":   cmdHardReset,
	"RESET ALL":     cmdHardReset,
	"PREMIUM":       cmdPremium,
	"RELATORIO ON":  cmdReportOn,
	"REPORT ON":     cmdReportOn,
	"RELATORIO OFF": cmdReportOff,
	"REPORT OFF":    cmdReportOff,
}

// runCommand executes a matched command and replies through send. Returns
// false when the text is not a command.
func (p *PipelineService) runCommand(ctx context.Context, profile *models.UserProfile, text string, now time.Time, send func(string) error) (bool, error) {
	kind, ok := commandTable[strings.ToUpper(strings.TrimSpace(text))]
	if !ok || kind == cmdNone {
		return false, nil
	}
	locale := profile.Locale()

	switch kind {
	case cmdPanic:
		if err := send(msgDisarmed(locale)); err != nil {
			return true, err
		}
		p.log.Warn("panic command received", zap.String("phone", profile.Phone))
		return true, p.transport.Disconnect()

	case cmdLocaleSwitch:
		if profile.LocaleMode == models.LocaleBR {
			profile.LocaleMode = models.LocaleUK
		} else {
			profile.LocaleMode = models.LocaleBR
		}
		profile.UpdatedAt = now
		if err := p.profiles.Save(ctx, profile); err != nil {
			return true, err
		}
		return true, send(msgLocaleSwitched(profile.Locale()))

	case cmdSoftReset:
		// Wipe the ledger and income setup, keep the subscription.
		if err := p.ledger.DeleteAll(ctx, profile.Phone); err != nil {
			return true, err
		}
		profile.IncomeType = ""
		profile.HourlyRate = 0
		profile.WeeklyHours = 0
		profile.WeeklyIncome = 0
		profile.MonthlyIncome = 0
		profile.PayDay = 0
		profile.HasSyncedBalance = false
		profile.OnboardingComplete = false
		profile.UpdatedAt = now
		if err := p.profiles.Save(ctx, profile); err != nil {
			return true, err
		}
		return true, send(msgSoftResetDone(locale))

	case cmdHardReset:
		if err := p.ledger.DeleteAll(ctx, profile.Phone); err != nil {
			return true, err
		}
		if err := p.verification.PurgePhone(ctx, profile.Phone); err != nil {
			return true, err
		}
		*profile = models.UserProfile{
			Phone:              profile.Phone,
			Plan:               models.PlanPremium,
			Status:             models.StatusActive,
			LocaleMode:         profile.LocaleMode,
			DailyReportEnabled: true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := p.profiles.Save(ctx, profile); err != nil {
			return true, err
		}
		return true, send(msgHardResetDone(locale))

	case cmdPremium:
		return true, send(msgPremiumUpsell(locale, p.checkoutURL))

	case cmdReportOn, cmdReportOff:
		profile.DailyReportEnabled = kind == cmdReportOn
		profile.UpdatedAt = now
		if err := p.profiles.Save(ctx, profile); err != nil {
			return true, err
		}
		return true, send(msgReportToggled(locale, profile.DailyReportEnabled))
	}
	return false, nil
}
