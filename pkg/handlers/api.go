package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"blog-server/pkg/models"
	"blog-server/pkg/services"

	"github.com/gin-gonic/gin"
)

const corsAllowHeaders = "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version"

// ProxyCORS lets any origin call the GET proxies. Preflight requests end here with
// 200 and every method other than GET is refused.
func ProxyCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Credentials", "true")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET,OPTIONS")
	c.Header("Access-Control-Allow-Headers", corsAllowHeaders)

	switch c.Request.Method {
	case http.MethodOptions:
		c.AbortWithStatus(http.StatusOK)
	case http.MethodGet:
		c.Next()
	default:
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	}
}

func (h *Handler) Weather(c *gin.Context) {
	data, err := h.Proxy.Weather(c.Request.Context(), c.Query("location"))
	if errors.Is(err, services.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Weather API not configured"})
		return
	}
	if err != nil {
		log.Printf("Error fetching weather data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch weather data"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *Handler) Geo(c *gin.Context) {
	data, err := h.Proxy.Geo(c.Request.Context(), c.Query("location"))
	if err != nil {
		log.Printf("Error fetching geo data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    "Failed to fetch geo data",
			"message":  err.Error(),
			"code":     "404",
			"location": []models.GeoLocation{services.GeoFallback},
		})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// clientIP prefers the first X-Forwarded-For hop.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}

func (h *Handler) Location(c *gin.Context) {
	loc, err := h.Proxy.Location(c.Request.Context(), clientIP(c))
	if err != nil {
		log.Printf("Error fetching location data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch location data"})
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h *Handler) DailyQuote(c *gin.Context) {
	quote, err := h.Proxy.DailyQuote(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching daily quote: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch daily quote"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) TelegramNotify(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}
	var req models.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || !services.ValidateNotifyRequest(req) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required data"})
		return
	}

	result, err := h.Notifier.Notify(c.Request.Context(), req)
	if err != nil {
		log.Printf("Server error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "message": err.Error()})
		return
	}
	if !result.OK {
		log.Printf("Telegram API error: %s", result.Raw)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification", "details": result.Raw})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification sent successfully"})
}
