package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"jurisgate/internal/http/middleware"
	"jurisgate/internal/model"
	"jurisgate/internal/service"
)

// ReplayedHeader marks a response answered from a recorded outcome.
const ReplayedHeader = "X-Gate-Replayed"

type gateRequest struct {
	ToolName model.ToolName  `json:"toolName" example:"doc_status_transition"`
	Payload  json.RawMessage `json:"payload" swaggertype:"object"`
	CaseID   model.ID        `json:"caseId,omitempty" example:"case-1"`
}

type batchRequest struct {
	CaseID     model.ID                 `json:"caseId"`
	Operations []service.BatchOperation `json:"operations"`
}

type batchResponse struct {
	Results  []json.RawMessage `json:"results" swaggertype:"array,object"`
	HaltedAt *int              `json:"halted_at,omitempty"`
}

// SubmitGate godoc
// @Summary Submit one Gate operation
// @Description Every decision, accepted or rejected, is HTTP 200 with the Gate envelope.
// @Tags gate
// @Accept json
// @Produce json
// @Param request body gateRequest true "tool call"
// @Success 200 {object} model.Response
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/gate [post]
func SubmitGate(svc service.GateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body gateRequest
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}
		if body.ToolName == "" {
			return writeError(c, fiber.StatusBadRequest, "TOOL_REQUIRED", "toolName is required")
		}

		res, err := svc.Submit(c.UserContext(), model.Request{
			ToolName: body.ToolName,
			Payload:  body.Payload,
			CaseID:   body.CaseID,
			Actor:    middleware.ActorFromCtx(c),
		})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "gate unavailable")
		}

		if res.Replayed {
			c.Set(ReplayedHeader, "true")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).Send(res.Raw)
	}
}

// SubmitBatch godoc
// @Summary Submit operations in order, halting at the first rejection
// @Tags gate
// @Accept json
// @Produce json
// @Param request body batchRequest true "operations on one case"
// @Success 200 {object} batchResponse
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/gate/batch [post]
func SubmitBatch(svc service.GateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body batchRequest
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}
		for _, op := range body.Operations {
			if op.ToolName == "" {
				return writeError(c, fiber.StatusBadRequest, "TOOL_REQUIRED", "every operation needs a toolName")
			}
		}

		out, err := svc.SubmitBatch(c.UserContext(), body.CaseID, middleware.ActorFromCtx(c), body.Operations)
		if errors.Is(err, service.ErrNoOperations) {
			return writeError(c, fiber.StatusBadRequest, "NO_OPERATIONS", "operations must not be empty")
		}
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "gate unavailable")
		}

		res := batchResponse{Results: make([]json.RawMessage, len(out.Results)), HaltedAt: out.HaltedAt}
		for i, r := range out.Results {
			res.Results[i] = r.Raw
		}
		return c.Status(fiber.StatusOK).JSON(res)
	}
}
