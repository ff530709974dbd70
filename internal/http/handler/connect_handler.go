package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/potensiadev/onesns.ai-sub001/internal/domain/social"
	"github.com/potensiadev/onesns.ai-sub001/internal/http/middleware"
	"github.com/potensiadev/onesns.ai-sub001/internal/service/connect"
)

const (
	actionStart    = "start"
	actionExchange = "exchange"
)

// ConnectHandler serves the social connect endpoints.
type ConnectHandler struct {
	Social connect.Service
	Logger *zap.Logger
}

// NewConnectHandler constructs the connect handler.
func NewConnectHandler(social connect.Service, logger *zap.Logger) *ConnectHandler {
	return &ConnectHandler{Social: social, Logger: logger}
}

// Connect dispatches the two-step connect flow on the action field:
// "start" prepares an authorization URL, "exchange" redeems the callback
// code and stores the encrypted credentials.
func (h *ConnectHandler) Connect(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Session required."})
		return
	}

	var req struct {
		Action       string `json:"action"`
		Provider     string `json:"provider"`
		RedirectURI  string `json:"redirect_uri"`
		Code         string `json:"code"`
		CodeVerifier string `json:"code_verifier"`
		State        string `json:"state"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case actionStart:
		out, err := h.Social.StartAuthorization(c.Request.Context(), connect.StartAuthorizationInput{
			Provider:    req.Provider,
			RedirectURI: req.RedirectURI,
		})
		if err != nil {
			h.respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"provider":          out.Provider,
			"authorization_url": out.AuthorizationURL,
			"state":             out.State,
			"code_verifier":     out.CodeVerifier,
		})
	case actionExchange:
		conn, err := h.Social.ExchangeCode(c.Request.Context(), userID, connect.ExchangeCodeInput{
			Provider:     req.Provider,
			Code:         req.Code,
			CodeVerifier: req.CodeVerifier,
			RedirectURI:  req.RedirectURI,
		})
		if err != nil {
			h.respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "record": conn})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Unknown action."})
	}
}

// Connections lists the caller's social accounts without token material.
func (h *ConnectHandler) Connections(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Session required."})
		return
	}

	conns, err := h.Social.ListConnections(c.Request.Context(), userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

func (h *ConnectHandler) respondServiceError(c *gin.Context, err error) {
	var exchangeErr *social.ExchangeError
	var postErr *social.PostExchangeError

	switch {
	case errors.Is(err, social.ErrUnknownProvider), errors.Is(err, social.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
	case errors.As(err, &postErr):
		h.log().Error("connect attempt failed after exchange", zap.Error(err))
		payload := gin.H{
			"error":             "server_error",
			"error_description": "The connect attempt failed after the provider issued tokens and may have partially succeeded upstream. Retry the flow from the start.",
		}
		if errors.As(err, &exchangeErr) {
			payload["upstream_status"] = exchangeErr.StatusCode
			payload["upstream_body"] = exchangeErr.Body
		}
		c.JSON(http.StatusInternalServerError, payload)
	case errors.As(err, &exchangeErr):
		h.log().Error("provider exchange failed",
			zap.String("provider", exchangeErr.Provider.String()),
			zap.Int("upstream_status", exchangeErr.StatusCode),
			zap.String("upstream_body", exchangeErr.Body),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "upstream_error",
			"error_description": "Provider token endpoint rejected the request.",
			"upstream_status":   exchangeErr.StatusCode,
			"upstream_body":     exchangeErr.Body,
		})
	default:
		h.log().Error("connect request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": err.Error()})
	}
}

func (h *ConnectHandler) log() *zap.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}
