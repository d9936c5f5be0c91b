package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/integration-kit/internal/application/codec"
	"github.com/garyjia/integration-kit/internal/application/port"
	"github.com/garyjia/integration-kit/internal/domain/entity"
	"github.com/garyjia/integration-kit/internal/domain/integration"
	"github.com/garyjia/integration-kit/internal/infrastructure/export"
	"github.com/garyjia/integration-kit/internal/worker"
	"github.com/garyjia/integration-kit/pkg/utils"
)

// RequestIDHeader is copied into the envelope metadata of enqueued commands
const RequestIDHeader = "X-Request-ID"

// IntegrationCatalog lists registered integrations
type IntegrationCatalog interface {
	Get(name string) (integration.Integration, error)
	All() map[string]integration.Integration
}

// CommandDecoder rebuilds commands from JSON bodies
type CommandDecoder interface {
	Decode(commandType integration.CommandType, payload json.RawMessage) (integration.Command, error)
	Types() []integration.CommandType
}

// CommandExecutor runs a command and reports its Result
type CommandExecutor interface {
	ExecuteWithResult(ctx context.Context, cmd integration.Command) (integration.Result, error)
}

// CommandEnqueuer queues a command for the background workers
type CommandEnqueuer interface {
	Enqueue(ctx context.Context, cmd integration.Command, metadata integration.Metadata) (*worker.Envelope, error)
}

// HealthReporter reports component health
type HealthReporter interface {
	HealthReport() (healthy bool, details any)
}

// Dependencies are the collaborators served over HTTP.
// Enqueuer, Calls, Exporter and Health are optional; their routes answer 503 when nil.
type Dependencies struct {
	Integrations IntegrationCatalog
	Codec        CommandDecoder
	Executor     CommandExecutor
	Enqueuer     CommandEnqueuer
	Calls        port.CallRepository
	Exporter     port.CallExporter
	Health       HealthReporter
	Version      string
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handlers{
		deps:   deps,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Version    string `json:"version"`
	Components any    `json:"components,omitempty"`
}

// IntegrationResponse represents a registered integration
type IntegrationResponse struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// EnqueueResponse represents an accepted asynchronous command
type EnqueueResponse struct {
	EnvelopeID  string `json:"envelope_id"`
	CommandType string `json:"command_type"`
	EnqueuedAt  string `json:"enqueued_at"`
}

// ListCallsRequest represents query parameters for listing calls
type ListCallsRequest struct {
	Integration string `form:"integration"`
	Limit       int    `form:"limit"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.deps.Version,
	}

	status := http.StatusOK
	if h.deps.Health != nil {
		healthy, details := h.deps.Health.HealthReport()
		response.Components = details
		if !healthy {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// ListIntegrations handles GET /api/v1/integrations
func (h *Handlers) ListIntegrations(c *gin.Context) {
	all := h.deps.Integrations.All()

	integrations := make([]IntegrationResponse, 0, len(all))
	for name, i := range all {
		integrations = append(integrations, toIntegrationResponse(name, i))
	}
	sort.Slice(integrations, func(a, b int) bool { return integrations[a].Name < integrations[b].Name })

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    integrations,
	})
}

// GetIntegration handles GET /api/v1/integrations/:name
func (h *Handlers) GetIntegration(c *gin.Context) {
	name := c.Param("name")

	i, err := h.deps.Integrations.Get(name)
	if err != nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toIntegrationResponse(name, i),
	})
}

// ListCommandTypes handles GET /api/v1/commands
func (h *Handlers) ListCommandTypes(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.deps.Codec.Types(),
	})
}

// ExecuteCommand handles POST /api/v1/commands/:type.
// The body is the JSON command; the response is the Result.
func (h *Handlers) ExecuteCommand(c *gin.Context) {
	cmd, ok := h.decodeCommand(c)
	if !ok {
		return
	}

	result, err := h.deps.Executor.ExecuteWithResult(c.Request.Context(), cmd)
	if err != nil {
		if errors.Is(err, integration.ErrHandlerNotFound) {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
			return
		}
		h.logger.Error("Failed to execute command", "command_type", cmd.CommandType().String(), "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to execute command"})
		return
	}

	status := http.StatusOK
	if result.IsFailure() {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

// EnqueueCommand handles POST /api/v1/commands/:type/enqueue
func (h *Handlers) EnqueueCommand(c *gin.Context) {
	if h.deps.Enqueuer == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "queue is not configured"})
		return
	}

	cmd, ok := h.decodeCommand(c)
	if !ok {
		return
	}

	metadata := integration.Metadata{}
	if requestID := utils.SanitizeString(c.GetHeader(RequestIDHeader)); requestID != "" {
		metadata["request_id"] = requestID
	}

	env, err := h.deps.Enqueuer.Enqueue(c.Request.Context(), cmd, metadata)
	if err != nil {
		h.logger.Error("Failed to enqueue command", "command_type", cmd.CommandType().String(), "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrQueueClosed) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, Response{
		Success: true,
		Data: EnqueueResponse{
			EnvelopeID:  env.ID,
			CommandType: env.CommandType.String(),
			EnqueuedAt:  env.EnqueuedAt.UTC().Format(time.RFC3339Nano),
		},
	})
}

// ListCalls handles GET /api/v1/calls
func (h *Handlers) ListCalls(c *gin.Context) {
	if !h.requireCallLog(c) {
		return
	}

	records, ok := h.loadCalls(c, entity.DefaultListLimit)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

// CallStats handles GET /api/v1/calls/stats
func (h *Handlers) CallStats(c *gin.Context) {
	if !h.requireCallLog(c) {
		return
	}

	stats, err := h.deps.Calls.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load call stats", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve call stats"})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    stats,
	})
}

// ExportCalls handles GET /api/v1/calls/export
func (h *Handlers) ExportCalls(c *gin.Context) {
	if !h.requireCallLog(c) {
		return
	}
	if h.deps.Exporter == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "export is not configured"})
		return
	}

	records, ok := h.loadCalls(c, entity.MaxListLimit)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.deps.Exporter.Export(&buf, records); err != nil {
		h.logger.Error("Failed to export calls", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to export calls"})
		return
	}

	fileName := export.FileName(h.deps.Exporter, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, h.deps.Exporter.ContentType(), buf.Bytes())
}

func (h *Handlers) decodeCommand(c *gin.Context) (integration.Command, bool) {
	commandType := c.Param("type")
	if err := utils.ValidateCommandType(commandType); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return nil, false
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read request body"})
		return nil, false
	}

	cmd, err := h.deps.Codec.Decode(integration.CommandType(commandType), body)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, codec.ErrUnknownCommandType) {
			status = http.StatusNotFound
		}
		c.JSON(status, Response{Success: false, Error: err.Error()})
		return nil, false
	}

	return cmd, true
}

func (h *Handlers) requireCallLog(c *gin.Context) bool {
	if h.deps.Calls == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "call log is not configured"})
		return false
	}
	return true
}

func (h *Handlers) loadCalls(c *gin.Context, defaultLimit int) ([]*entity.CallRecord, bool) {
	var req ListCallsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return nil, false
	}

	if req.Limit == 0 {
		req.Limit = defaultLimit
	}
	if err := utils.ValidateLimit(req.Limit, entity.MaxListLimit); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return nil, false
	}

	var (
		records []*entity.CallRecord
		err     error
	)
	if req.Integration != "" {
		records, err = h.deps.Calls.ListByIntegration(c.Request.Context(), req.Integration, req.Limit)
	} else {
		records, err = h.deps.Calls.ListRecent(c.Request.Context(), req.Limit)
	}
	if err != nil {
		h.logger.Error("Failed to list calls", "integration", req.Integration, "limit", strconv.Itoa(req.Limit), "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve calls"})
		return nil, false
	}

	if records == nil {
		records = []*entity.CallRecord{}
	}
	return records, true
}

func toIntegrationResponse(name string, i integration.Integration) IntegrationResponse {
	resp := IntegrationResponse{Name: name}
	if described, ok := i.(interface{ Description() string }); ok {
		resp.Description = described.Description()
	}
	return resp
}
