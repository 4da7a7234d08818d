package openai

import (
	"github.com/moonbeamcafe/barista/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// Service holds the OpenAI client the barista agent talks through.
// Optional: without OPENAI_KEY the room server still runs, there is just
// no agent on the other side of the counter.
type Service struct {
	client *openai.Client
}

func NewService() *Service {
	key := config.GetOpenAIKey()
	if key == "" {
		log.Warn().Msg("OpenAI service not configured - OPENAI_KEY missing, barista agent disabled")
		return nil
	}

	return &Service{client: openai.NewClient(key)}
}

func (s *Service) GetClient() *openai.Client {
	return s.client
}
