package classify

// Intent trigger phrases in English and Russian. Table order is the
// declared priority for score ties: invest > documents > consult > support.
var intentTable = []struct {
	intent   Intent
	keywords []string
}{
	{
		intent: IntentInvest,
		keywords: []string{
			"invest", "investment", "investing", "investor", "capital", "portfolio",
			"assets", "fund", "funds", "financial", "finance",
			"инвестировать", "инвестиция", "инвестиции", "инвестор", "капитал",
			"портфель", "активы", "фонд", "фонды", "финансовый", "финансы",
			"вложить", "вложение", "вложения", "хочу инвестировать", "инвестирую",
			"инвестиционный", "инвестиционные", "инвестиционное",
		},
	},
	{
		intent: IntentDocuments,
		keywords: []string{
			"documents", "document", "doc", "paperwork", "papers", "file", "files",
			"certificate", "certificates", "contract", "contracts", "agreement", "agreements",
			"презентация", "презентации", "документ", "документы", "документация",
			"файл", "файлы", "справка", "справки", "сертификат", "сертификаты",
			"договор", "договоры", "соглашение", "соглашения", "проект", "проекты",
			"нужна презентация", "нужны документы", "нужен файл", "хочу посмотреть",
			"покажите", "покажи", "отправьте", "отправь", "пришлите", "пришли",
		},
	},
	{
		intent: IntentConsult,
		keywords: []string{
			"consult", "consultation", "consulting", "advice", "advisor", "adviser",
			"guidance", "help", "recommendation", "recommendations", "expert", "expertise",
			"консультация", "консультации", "консультирование", "совет", "советы",
			"советник", "рекомендация", "рекомендации", "эксперт", "экспертиза",
			"помощь", "помочь",
		},
	},
	{
		intent: IntentSupport,
		keywords: []string{
			"support", "assistance", "help", "issue", "issues", "problem", "problems",
			"trouble", "error", "errors", "bug", "bugs", "technical", "service",
			"поддержка", "помощь", "помочь", "проблема", "проблемы", "ошибка",
			"ошибки", "неполадка", "неполадки", "технический", "техническая",
			"сервис", "служба поддержки",
		},
	},
}

// Offerings of the company. Mentions are independent of each other and of
// the intent table.
var serviceTable = []struct {
	service  Service
	keywords []string
}{
	{
		service: Service{Code: "venture_capital", Name: "Venture Capital"},
		keywords: []string{
			"venture", "startup", "seed", "венчур", "стартап", "раунд",
		},
	},
	{
		service: Service{Code: "hnwi", Name: "HNWI Consultations"},
		keywords: []string{
			"hnwi", "private banking", "крупный капитал", "частный капитал",
			"состояние", "персональные инвестиции",
		},
	},
	{
		service: Service{Code: "real_estate", Name: "Real Estate"},
		keywords: []string{
			"real estate", "property", "недвижимость", "недвижимост",
			"апартамент", "квартир", "аукционный дом",
		},
	},
	{
		service: Service{Code: "crypto", Name: "Crypto"},
		keywords: []string{
			"crypto", "bitcoin", "mining", "otc", "крипт", "биткоин",
			"майнинг", "токен",
		},
	},
	{
		service: Service{Code: "ma", Name: "M&A"},
		keywords: []string{
			"m&a", "merger", "acquisition", "слияни", "поглощени",
			"покупка бизнеса", "продажа бизнеса",
		},
	},
	{
		service: Service{Code: "private_equity", Name: "Private Equity"},
		keywords: []string{
			"private equity", "buyout", "акционерный капитал", "выкуп",
			"экспортная выручка",
		},
	},
	{
		service: Service{Code: "relocation", Name: "Relocation Support"},
		keywords: []string{
			"relocation", "residence permit", "релокац", "внж", "пмж",
			"гражданств", "переезд",
		},
	},
	{
		service: Service{Code: "bank_cards", Name: "Зарубежные банковские карты"},
		keywords: []string{
			"mastercard", "visa", "банковская карта", "банковские карты",
			"зарубежная карта", "зарубежные карты", "оформить карту",
		},
	},
}
