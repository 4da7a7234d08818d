package services

import (
	"github.com/moonbeamcafe/barista/internal/config"
	openaiinfra "github.com/moonbeamcafe/barista/internal/infrastructure/openai"
	"github.com/moonbeamcafe/barista/internal/infrastructure/redis"
	"github.com/moonbeamcafe/barista/internal/services/agent"
	"github.com/moonbeamcafe/barista/internal/services/orders"
	"github.com/moonbeamcafe/barista/internal/services/session"
	"github.com/rs/zerolog/log"
)

type Services struct {
	redisService   *redis.Service
	openAIService  *openaiinfra.Service
	sessionService *session.Service
	orderService   *orders.Service
	agentService   *agent.Service
}

// Initialize wires all services. Redis and OpenAI are optional: without
// Redis the stores are in-memory, without OpenAI there is no barista agent
// and the room server runs as pure relay.
func Initialize() *Services {
	log.Info().Msg("Initializing services")

	redisService := redis.NewService()
	openAIService := openaiinfra.NewService()

	sessionService := session.NewService(redisService)
	orderService := orders.NewService(redisService, config.GetOrderArchiveDir())

	agentService := agent.NewService(openAIService, orderService)
	if agentService == nil {
		log.Warn().Msg("Barista agent disabled - sessions will have no agent participant")
	}

	return &Services{
		redisService:   redisService,
		openAIService:  openAIService,
		sessionService: sessionService,
		orderService:   orderService,
		agentService:   agentService,
	}
}

// GetSessionService returns the session service
func (s *Services) GetSessionService() *session.Service {
	return s.sessionService
}

// GetOrderService returns the order archive service
func (s *Services) GetOrderService() *orders.Service {
	return s.orderService
}

// GetAgentService returns the barista agent service, nil when disabled
func (s *Services) GetAgentService() *agent.Service {
	return s.agentService
}
