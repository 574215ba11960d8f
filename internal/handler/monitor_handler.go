package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akademia-app/exam-api/internal/middleware"
	"github.com/akademia-app/exam-api/internal/service"
)

// MonitorHandler wires the staff websocket feed of attempt activity.
type MonitorHandler struct {
	service service.MonitorService
	logger  zerolog.Logger
}

// NewMonitorHandler constructs the handler.
func NewMonitorHandler(service service.MonitorService, logger zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		service: service,
		logger:  logger.With().Str("component", "monitor_handler").Logger(),
	}
}

// Register attaches the websocket upgrade endpoint.
func (h *MonitorHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("monitor_exam_id", c.Query("exam_id"))
			c.Locals("monitor_academy_id", uuidFromLocals(c, middleware.LocalsAcademyID))
			c.Locals("monitor_correlation_id", middleware.GetCorrelationID(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *MonitorHandler) handleConnection(conn *websocket.Conn) {
	opts := service.MonitorOptions{}

	if raw, ok := conn.Locals("monitor_exam_id").(string); ok && raw != "" {
		if examID, err := uuid.Parse(raw); err == nil {
			opts.ExamID = examID
		}
	}
	if academyID, ok := conn.Locals("monitor_academy_id").(uuid.UUID); ok {
		opts.AcademyID = academyID
	}
	if correlation, ok := conn.Locals("monitor_correlation_id").(string); ok {
		opts.CorrelationID = correlation
	}

	h.logger.Debug().
		Str("exam_id", opts.ExamID.String()).
		Str("correlation_id", opts.CorrelationID).
		Msg("monitor connection opened")

	h.service.ServeConnection(conn, opts)
}
