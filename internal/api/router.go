package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking_tickets/internal/api/handler"
	"parking_tickets/internal/api/middleware"
)

// SetupRouter wires the parking routes. lprHandler may be nil, in which
// case camera entry is not served.
func SetupRouter(parkingHandler *handler.ParkingHandler, lprHandler *handler.LPRHandler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/entry", parkingHandler.Entry)
	r.POST("/exit", parkingHandler.Exit)
	r.GET("/tickets/:id", parkingHandler.GetTicket)
	r.GET("/billing", parkingHandler.Billing)

	if lprHandler != nil {
		r.POST("/entry/lpr", lprHandler.EntryFromImage)
	}
	return r
}
