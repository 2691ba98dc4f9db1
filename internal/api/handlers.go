package api

import (
	"context"
	"net/http"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type welcomeResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type healthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Provider         string `json:"provider,omitempty"`
	ShioajiConnected *bool  `json:"shioaji_connected,omitempty"`
	ProviderReady    *bool  `json:"provider_ready,omitempty"`
}

type protectedResponse struct {
	Message string `json:"message"`
	APIKey  string `json:"api_key"`
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, welcomeResponse{
		Message: "Welcome to MarketPulse API 📈",
		Version: version,
		Status:  "running",
	})
}

// health always answers 200; readiness is reported, not enforced.
// shioaji_connected is kept as an alias of provider_ready.
func (h *handler) health(c *gin.Context) {
	ready := h.svc.Ready()
	c.JSON(http.StatusOK, healthResponse{
		Status:           "healthy",
		Service:          serviceName,
		Provider:         h.svc.ProviderName(),
		ShioajiConnected: &ready,
		ProviderReady:    &ready,
	})
}

func (h *handler) stocksHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "healthy", Service: stockServiceName})
}

func (h *handler) protected(c *gin.Context) {
	c.JSON(http.StatusOK, protectedResponse{
		Message: "You have access to protected content!",
		APIKey:  maskKey(c.GetString(apiKeyContextKey)),
	})
}

func (h *handler) quote(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		writeError(c, newHTTPError(http.StatusBadRequest, "Symbol is required"))
		return
	}
	if !isAlphanumeric(symbol) {
		writeError(c, newHTTPError(http.StatusBadRequest, "Invalid symbol format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	q, err := h.svc.GetQuote(ctx, symbol)
	if err != nil {
		status, msg := statusFor(err)
		log := h.log.WithFields(logrus.Fields{
			"symbol":     symbol,
			"request_id": c.GetString(requestIDContextKey),
			"status":     status,
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			log.Error("quote request failed")
		} else {
			log.Info("quote request rejected")
		}
		writeError(c, newHTTPError(status, msg))
		return
	}
	c.JSON(http.StatusOK, q)
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
