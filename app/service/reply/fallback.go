package reply

import "maxbot/app/service/classify"

var fallbackReplies = map[classify.Intent]string{
	classify.IntentInvest:    "Спасибо за интерес к нашим инвестиционным продуктам! Расскажите, пожалуйста, какую сумму вы хотели бы инвестировать и какие цели преследуете?",
	classify.IntentDocuments: "Конечно! Какие именно документы вас интересуют? Презентации проектов, договоры или другая информация?",
	classify.IntentConsult:   "Буду рад помочь вам с консультацией! По какому вопросу вы хотели бы получить консультацию?",
	classify.IntentSupport:   "Конечно, помогу решить вашу проблему! Расскажите, пожалуйста, с чем именно возникли трудности?",
}

const defaultFallback = "Здравствуйте! Я консультант MAXCAPITAL. Чем могу помочь? Расскажите о ваших инвестиционных целях или задайте вопрос."

// Fallback is the deterministic reply used whenever the model is
// unavailable or errors out.
func Fallback(intent classify.Intent) string {
	if text, ok := fallbackReplies[intent]; ok {
		return text
	}

	return defaultFallback
}
