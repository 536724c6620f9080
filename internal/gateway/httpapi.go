package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketgateway/internal/metrics"
	"marketgateway/internal/normalize"
	"marketgateway/internal/provider"
)

// NewRouter wires the HTTP boundary. Error bodies use {"detail": ...} so the
// relay tier can re-emit them verbatim.
func NewRouter(svc *Service, m *metrics.Metrics, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", m.Handler())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API Gateway is running."})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/analyze/:ticker", func(c *gin.Context) {
		result, err := svc.Analyze(c.Request.Context(), c.Param("ticker"))
		if err != nil {
			status := statusFor(err)
			log.Warn("analyze failed",
				zap.String("ticker", c.Param("ticker")),
				zap.Int("status", status),
				zap.Error(err))
			c.JSON(status, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})
	return r
}

// statusFor is the only place an error kind becomes an HTTP status:
// upstream non-2xx -> 502, transport failure -> 503, validation -> 502
// (a provider failure for classification purposes), anything else -> 500.
func statusFor(err error) int {
	var pe *provider.Error
	if errors.As(err, &pe) {
		if pe.Transport() {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	}
	var ve *normalize.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
