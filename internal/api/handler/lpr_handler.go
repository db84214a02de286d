package handler

import (
	"encoding/base64"

	"github.com/gin-gonic/gin"

	"parking_tickets/internal/api/response"
	"parking_tickets/internal/domain"
	"parking_tickets/internal/metrics"
	"parking_tickets/internal/service"
	"parking_tickets/internal/validation"
)

const opEntryLPR = "entry_lpr"

type LPRHandler struct {
	lprService *service.LPRService
	parking    *ParkingHandler
}

func NewLPRHandler(lprService *service.LPRService, parking *ParkingHandler) *LPRHandler {
	return &LPRHandler{lprService: lprService, parking: parking}
}

type lprEntryRequest struct {
	ImageBase64 string `json:"image_base64"`
	ParkingLot  int    `json:"parkingLot"`
}

type lprEntryResponse struct {
	TicketID   string  `json:"ticketId"`
	Plate      string  `json:"plate"`
	Confidence float32 `json:"confidence"`
}

// POST /entry/lpr
func (h *LPRHandler) EntryFromImage(c *gin.Context) {
	ctx := c.Request.Context()

	var req lprEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RequestFailed(opEntryLPR, string(domain.KindValidation))
		writeResult(c, response.ValidationError("Invalid request body"))
		return
	}
	if ok, reason := validation.ValidateParkingLotNumber(req.ParkingLot); !ok {
		metrics.RequestFailed(opEntryLPR, string(domain.KindValidation))
		writeResult(c, response.ValidationError(reason))
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		metrics.RequestFailed(opEntryLPR, string(domain.KindValidation))
		writeResult(c, response.ValidationError("Image must be base64 encoded"))
		return
	}

	plate, confidence, err := h.lprService.RecognizePlate(ctx, image)
	if err != nil {
		writeResult(c, h.parking.errorResult(ctx, opEntryLPR, err, "Failed to recognize license plate"))
		return
	}

	ticketID, err := h.parking.parkingService.CreateEntry(ctx, plate, req.ParkingLot)
	if err != nil {
		writeResult(c, h.parking.errorResult(ctx, opEntryLPR, err, "Failed to create parking entry"))
		return
	}
	h.parking.logger.InfoContext(ctx, "camera entry created", "ticket_id", ticketID, "plate", plate, "confidence", confidence)
	writeResult(c, response.Created(lprEntryResponse{TicketID: ticketID, Plate: plate, Confidence: confidence}))
}
