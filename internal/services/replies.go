package services

import (
	"fmt"

	"centavo/internal/models"
)

// Message catalog. Every user-facing fixed string lives here, in both
// locales, so the services never build prose inline.

func isBR(locale string) bool { return locale == models.LocaleBR }

func msgPhonePrompt(locale string) string {
	if isBR(locale) {
		return "Oi! Para conectar sua conta, me envie o número de telefone usado na assinatura (com DDD)."
	}
	return "Hi! To connect your account, send me the phone number you subscribed with."
}

func msgPhoneInvalid(locale string) string {
	if isBR(locale) {
		return "Esse número não parece completo. Me envie o telefone com DDD, por exemplo 11912345678."
	}
	return "That number looks incomplete. Send the full phone number, e.g. 447446196108."
}

func msgAccountNotFound(locale string) string {
	if isBR(locale) {
		return "Não encontrei uma assinatura ativa para esse número. Confira o número e tente de novo."
	}
	return "I couldn't find an active subscription for that number. Check it and try again."
}

func msgPhoneBusy(locale string) string {
	if isBR(locale) {
		return "Esse número já está sendo verificado em outra conversa. Termine lá ou aguarde alguns minutos."
	}
	return "That number is already being verified in another conversation. Finish there or wait a few minutes."
}

func msgCodeDelivery(code string) string {
	return fmt.Sprintf("Seu código de verificação: %s. Ele expira em 5 minutos.", code)
}

func msgCodeSentNotice(locale string) string {
	if isBR(locale) {
		return "Enviei um código de 6 dígitos para o seu número. Digite o código aqui para confirmar."
	}
	return "I sent a 6-digit code to your number. Type it here to confirm."
}

func msgCodeExpired(locale string) string {
	if isBR(locale) {
		return "O código expirou. Me envie o número de telefone de novo para gerar outro."
	}
	return "That code expired. Send me the phone number again to get a new one."
}

func msgCodeWrong(locale string, remaining int) string {
	if isBR(locale) {
		return fmt.Sprintf("Código incorreto. Você ainda tem %d tentativa(s).", remaining)
	}
	return fmt.Sprintf("Wrong code. You have %d attempt(s) left.", remaining)
}

func msgCodeAbandoned(locale string) string {
	if isBR(locale) {
		return "Muitas tentativas incorretas. Me mande qualquer mensagem para começar de novo."
	}
	return "Too many wrong attempts. Send me any message to start over."
}

func msgTrialExpired(locale, checkoutURL string) string {
	if isBR(locale) {
		return "Seu período de teste acabou! Para continuar organizando suas finanças comigo, assine aqui: " + checkoutURL
	}
	return "Your trial has ended! To keep tracking your money with me, subscribe here: " + checkoutURL
}

func msgSlow(locale string) string {
	if isBR(locale) {
		return "Estou um pouco lento agora... me manda essa mensagem de novo?"
	}
	return "I'm a bit slow right now... could you send that again?"
}

func msgGenericError(locale string) string {
	if isBR(locale) {
		return "Ops, algo deu errado aqui. Tenta de novo em instantes."
	}
	return "Oops, something went wrong on my side. Try again in a moment."
}

func msgLowBalance(locale string, balance string) string {
	if isBR(locale) {
		return fmt.Sprintf("⚠️ Atenção: seu saldo caiu para %s. Vale segurar os gastos até o próximo pagamento.", balance)
	}
	return fmt.Sprintf("⚠️ Heads up: your balance is down to %s. Might be worth easing off until payday.", balance)
}

func msgInactivityNudge(locale string) string {
	if isBR(locale) {
		return "Faz um tempo que você não registra nada. Gastou algo hoje? É só me contar."
	}
	return "It's been a while since your last entry. Spent anything today? Just tell me."
}

func msgTrialReminder(locale, checkoutURL string) string {
	if isBR(locale) {
		return "Seu teste grátis termina em breve! Garanta seu acesso: " + checkoutURL
	}
	return "Your free trial ends soon! Keep your access: " + checkoutURL
}

func msgDailyReport(locale string, today, month, balance, status string) string {
	if isBR(locale) {
		return fmt.Sprintf("📊 Resumo do dia\nGastos hoje: %s\nGastos no mês: %s\nSaldo: %s\nRitmo do mês: %s", today, month, balance, status)
	}
	return fmt.Sprintf("📊 Daily summary\nSpent today: %s\nSpent this month: %s\nBalance: %s\nMonthly pace: %s", today, month, balance, status)
}

func msgWeeklyReport(locale string, week, month, balance, status string) string {
	if isBR(locale) {
		return fmt.Sprintf("🗓 Resumo da semana\nGastos na semana: %s\nGastos no mês: %s\nSaldo: %s\nRitmo da semana: %s", week, month, balance, status)
	}
	return fmt.Sprintf("🗓 Weekly summary\nSpent this week: %s\nSpent this month: %s\nBalance: %s\nWeekly pace: %s", week, month, balance, status)
}

func msgSoftResetDone(locale string) string {
	if isBR(locale) {
		return "Pronto! Apaguei seus lançamentos e dados de renda. Vamos recomeçar: qual é o seu tipo de renda?"
	}
	return "Done! I cleared your entries and income data. Let's start over: what's your income type?"
}

func msgHardResetDone(locale string) string {
	if isBR(locale) {
		return "Conta reiniciada por completo. Me manda um oi para configurarmos tudo de novo."
	}
	return "Your account has been fully reset. Say hi and we'll set everything up again."
}

func msgPremiumUpsell(locale, checkoutURL string) string {
	if isBR(locale) {
		return "Quer o plano premium? Assine aqui: " + checkoutURL
	}
	return "Want the premium plan? Subscribe here: " + checkoutURL
}

func msgReportToggled(locale string, enabled bool) string {
	if isBR(locale) {
		if enabled {
			return "Relatório diário ativado! Te mando um resumo todo dia."
		}
		return "Relatório diário desativado."
	}
	if enabled {
		return "Daily report enabled! I'll send you a summary every day."
	}
	return "Daily report disabled."
}

func msgLocaleSwitched(locale string) string {
	if isBR(locale) {
		return "Modo Brasil ativado! 🇧🇷"
	}
	return "UK mode on! 🇬🇧"
}

func msgDisarmed(locale string) string {
	if isBR(locale) {
		return "Sessão desconectada. Até logo."
	}
	return "Session disconnected. Goodbye."
}
