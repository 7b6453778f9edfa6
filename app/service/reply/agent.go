package reply

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"maxbot/app/config"
	"maxbot/app/service/classify"
	"maxbot/app/service/store"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

//go:embed reply_prompt.txt
var systemPrompt string

const (
	maxCallDuration = 30 * time.Second
	historyWindow   = 10
)

var intentNames = map[classify.Intent]string{
	classify.IntentInvest:    "инвестиции",
	classify.IntentDocuments: "документы",
	classify.IntentConsult:   "консультация",
	classify.IntentSupport:   "поддержка",
}

// Service holds the two LLM collaborators: the reply generator and the
// confirmation oracle. Either may be unconfigured; callers are expected
// to treat every error as a cue for the deterministic fallback.
type Service struct {
	replyClient   *openai.Client
	replyModel    string
	confirmClient *openai.Client
	confirmModel  string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	s := &Service{}

	if cfg.OpenAI.Reply.Enabled() {
		s.replyClient = createClient(cfg.OpenAI.Reply)
		s.replyModel = cfg.OpenAI.Reply.Model
	}

	if cfg.OpenAI.Confirm.Enabled() {
		s.confirmClient = createClient(cfg.OpenAI.Confirm)
		s.confirmModel = cfg.OpenAI.Confirm.Model
	}

	return s, nil
}

func (s *Service) Generate(ctx context.Context, message string, history []store.HistoryEntry, rc Context) (string, error) {
	if s.replyClient == nil {
		return "", fmt.Errorf("reply model is not configured")
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
	}

	if contextBlock := formatContext(rc); contextBlock != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Контекст: " + contextBlock,
		})
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	for _, entry := range history {
		role := openai.ChatMessageRoleUser
		if entry.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: entry.Text,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	ctx, cancel := context.WithTimeout(ctx, maxCallDuration)
	defer cancel()

	aiResponse, err := s.replyClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:               s.replyModel,
			Messages:            messages,
			MaxCompletionTokens: 500,
			Temperature:         0.7,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	return strings.TrimSpace(aiResponse.Choices[0].Message.Content), nil
}

func formatContext(rc Context) string {
	var parts []string

	if rc.Intent != "" {
		name, ok := intentNames[rc.Intent]
		if !ok {
			name = string(rc.Intent)
		}

		parts = append(parts, "Определено намерение клиента: "+name)
	}

	if len(rc.DetectedServices) > 0 {
		names := pie.Map(rc.DetectedServices, func(s classify.Service) string {
			return s.Name
		})

		parts = append(parts, "Обнаруженные услуги, которые интересуют клиента: "+strings.Join(names, ", "))
	}

	if len(rc.SelectedServices) > 0 {
		names := pie.Map(rc.SelectedServices, func(s classify.Service) string {
			return s.Name
		})

		parts = append(parts, "Услуги, по которым клиент уже консультируется: "+strings.Join(names, ", "))
	}

	if rc.CollectingData {
		parts = append(parts, "ВАЖНО: Клиент готов к оформлению заявки. Необходимо собрать ФИО и номер телефона.")
	}

	return strings.Join(parts, ". ")
}
