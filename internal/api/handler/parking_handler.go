package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parking_tickets/internal/api/response"
	"parking_tickets/internal/domain"
	"parking_tickets/internal/metrics"
	"parking_tickets/internal/service"
	"parking_tickets/internal/validation"
)

const (
	opEntry = "entry"
	opExit  = "exit"
)

type ParkingHandler struct {
	parkingService *service.ParkingService
	logger         *slog.Logger
}

func NewParkingHandler(ps *service.ParkingService, logger *slog.Logger) *ParkingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParkingHandler{parkingService: ps, logger: logger}
}

type entryResponse struct {
	TicketID string `json:"ticketId"`
}

// HandleEntry runs the entry flow over already extracted query parameters.
// It is shared by the gin route and the entry Lambda.
func (h *ParkingHandler) HandleEntry(ctx context.Context, params map[string]string) response.Result {
	plate := strings.ToUpper(strings.TrimSpace(params["plate"]))
	if ok, reason := validation.ValidateLicensePlate(plate); !ok {
		h.logger.WarnContext(ctx, "invalid entry request", "reason", reason)
		metrics.RequestFailed(opEntry, string(domain.KindValidation))
		return response.ValidationError(reason)
	}

	rawLot := params["parkingLot"]
	if rawLot == "" {
		rawLot = params["lot"]
	}
	lot, err := validation.ParseParkingLot(rawLot)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid entry request", "reason", domain.MessageOf(err))
		return h.errorResult(ctx, opEntry, err, "Failed to create parking entry")
	}

	ticketID, err := h.parkingService.CreateEntry(ctx, plate, lot)
	if err != nil {
		return h.errorResult(ctx, opEntry, err, "Failed to create parking entry")
	}
	return response.Created(entryResponse{TicketID: ticketID})
}

// HandleExit runs the exit flow over already extracted query parameters.
func (h *ParkingHandler) HandleExit(ctx context.Context, params map[string]string) response.Result {
	ticketID := strings.TrimSpace(params["ticketId"])
	if ok, reason := validation.ValidateTicketID(ticketID); !ok {
		h.logger.WarnContext(ctx, "invalid exit request", "reason", reason)
		metrics.RequestFailed(opExit, string(domain.KindValidation))
		return response.ValidationError(reason)
	}

	summary, err := h.parkingService.ProcessExit(ctx, ticketID)
	if err != nil {
		return h.errorResult(ctx, opExit, err, "Failed to process parking exit")
	}
	return response.Success(summary)
}

// errorResult maps a service error onto the response envelope. Persistence
// and unexpected failures are logged in full and answered with fallback.
func (h *ParkingHandler) errorResult(ctx context.Context, op string, err error, fallback string) response.Result {
	kind := domain.KindOf(err)
	metrics.RequestFailed(op, string(kind))

	switch kind {
	case domain.KindValidation, domain.KindInvalidState:
		h.logger.WarnContext(ctx, "request rejected", "operation", op, "error", err)
		return response.ValidationError(domain.MessageOf(err))
	case domain.KindNotFound:
		h.logger.WarnContext(ctx, "request rejected", "operation", op, "error", err)
		return response.NotFound(domain.MessageOf(err))
	default:
		h.logger.ErrorContext(ctx, "request failed", "operation", op, "kind", kind, "error", err)
		return response.InternalError(fallback)
	}
}

// POST /entry
func (h *ParkingHandler) Entry(c *gin.Context) {
	writeResult(c, h.HandleEntry(c.Request.Context(), QueryParams(c)))
}

// POST /exit
func (h *ParkingHandler) Exit(c *gin.Context) {
	writeResult(c, h.HandleExit(c.Request.Context(), QueryParams(c)))
}

type ticketView struct {
	*domain.Ticket
	Status domain.TicketStatus `json:"status"`
}

// GET /tickets/:id
func (h *ParkingHandler) GetTicket(c *gin.Context) {
	ticketID := strings.TrimSpace(c.Param("id"))
	if ok, reason := validation.ValidateTicketID(ticketID); !ok {
		writeResult(c, response.ValidationError(reason))
		return
	}
	ticket := h.parkingService.GetTicket(c.Request.Context(), ticketID)
	if ticket == nil {
		writeResult(c, response.NotFound("ticket "+ticketID+" not found"))
		return
	}
	c.JSON(http.StatusOK, ticketView{Ticket: ticket, Status: ticket.Status()})
}

// GET /billing
func (h *ParkingHandler) Billing(c *gin.Context) {
	c.JSON(http.StatusOK, h.parkingService.BillingInfo())
}

// QueryParams flattens the request query to its first value per key.
func QueryParams(c *gin.Context) map[string]string {
	query := c.Request.URL.Query()
	params := make(map[string]string, len(query))
	for k := range query {
		params[k] = query.Get(k)
	}
	return validation.ExtractQueryParams(params)
}

func writeResult(c *gin.Context, res response.Result) {
	status, body := res.Encode()
	c.Data(status, "application/json", []byte(body))
}
