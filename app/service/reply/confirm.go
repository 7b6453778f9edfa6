package reply

import (
	"context"
	"fmt"
	"strings"

	"maxbot/app/service/store"

	"github.com/sashabaranov/go-openai"
)

const confirmPrompt = `Проанализируй сообщение пользователя и определи, подтверждает ли он свое намерение продолжить работу с компанией (инвестировать, получить документы, консультацию и т.д.).

Ответь только "ДА" если пользователь явно подтверждает намерение или выражает готовность, или "НЕТ" если это просто вопрос без подтверждения.`

// Confirm is the secondary confirmation signal, consulted only after the
// keyword allow-list stayed silent.
func (s *Service) Confirm(ctx context.Context, message string, history []store.HistoryEntry) (bool, error) {
	if s.confirmClient == nil {
		return false, fmt.Errorf("confirmation model is not configured")
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: confirmPrompt,
		},
	}

	if len(history) > 0 {
		last := history[len(history)-1]
		if last.Role == "assistant" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: last.Text,
			})
		}
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	ctx, cancel := context.WithTimeout(ctx, maxCallDuration)
	defer cancel()

	aiResponse, err := s.confirmClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:               s.confirmModel,
			Messages:            messages,
			MaxCompletionTokens: 10,
			Temperature:         0.3,
		},
	)
	if err != nil {
		return false, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return false, fmt.Errorf("no chat completion found")
	}

	answer := strings.ToUpper(strings.TrimSpace(aiResponse.Choices[0].Message.Content))

	return strings.Contains(answer, "ДА") || strings.Contains(answer, "YES"), nil
}
