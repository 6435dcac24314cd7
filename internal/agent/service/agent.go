package service

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lk2023060901/mercari-shopper-backend/internal/agent/biz"
	atypes "github.com/lk2023060901/mercari-shopper-backend/internal/agent/types"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// AgentService exposes the shopping agent over HTTP.
type AgentService struct {
	agent  *biz.Agent
	logger *logger.Logger
}

// NewAgentService creates the HTTP service around an agent.
func NewAgentService(agent *biz.Agent, log *logger.Logger) *AgentService {
	return &AgentService{
		agent:  agent,
		logger: log.Named("agent-service"),
	}
}

// RegisterRoutes mounts the service routes onto a router group.
func (s *AgentService) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/recommend", s.Recommend)
}

// Recommend handles one free-text shopping request.
func (s *AgentService) Recommend(c *gin.Context) {
	var req atypes.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "input is required")
		return
	}

	requestID := uuid.NewString()
	log := s.logger.With(zap.String("request_id", requestID))
	log.Info("recommendation request received", zap.Int("input_length", len(req.Input)))

	result, err := s.agent.Respond(c.Request.Context(), req.Input)
	if err != nil {
		log.Error("recommendation failed", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	log.Info("recommendation request served", zap.Int("products", len(result.Products)))
	response.Success(c, result)
}
