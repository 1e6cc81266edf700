package api

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"ddnsup/internal/dns"
	"ddnsup/internal/response"
	"ddnsup/internal/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateHandler points a hostname at the requesting client's address
type UpdateHandler struct {
	token     string
	backend   dns.Backend
	ttl       int
	proxied   bool
	logger    *zap.Logger
	validator *validator.Validator
}

// NewUpdateHandler creates the handler. An empty token or nil backend makes
// every request fail with a configuration error. X-Forwarded-For is only
// honoured when trustProxy is set.
func NewUpdateHandler(token string, backend dns.Backend, ttl int, trustProxy bool, logger *zap.Logger) *UpdateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateHandler{
		token:     token,
		backend:   backend,
		ttl:       ttl,
		proxied:   trustProxy,
		logger:    logger,
		validator: validator.New(),
	}
}

// Update handles GET /update?hostname=...&token=...
func (h *UpdateHandler) Update(c *gin.Context) {
	if h.token == "" || h.backend == nil {
		h.reply(c, http.StatusServiceUnavailable, response.Error("Missing required configuration"))
		return
	}

	addr, ok := clientAddress(c.Request, h.proxied)
	if !ok {
		h.reply(c, http.StatusBadRequest, response.Error("Unknown client address"))
		return
	}

	hostname := c.Query("hostname")
	token := c.Query("token")

	h.logger.Info("Checking update request",
		zap.String("request_id", c.GetString("request_id")),
		zap.String("client", addr.String()),
		zap.String("hostname", hostname))

	if subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
		h.reply(c, http.StatusUnauthorized, response.Error("Invalid update token"))
		return
	}

	if err := h.validator.Var(hostname, "required,hostname"); err != nil {
		h.reply(c, http.StatusBadRequest, response.Error("Invalid hostname"))
		return
	}

	result, err := h.backend.Upsert(c.Request.Context(), hostname, addr, h.ttl)
	if err != nil {
		h.logger.Error("Failed to update record",
			zap.String("hostname", hostname),
			zap.String("address", addr.String()),
			zap.Error(err))
		_ = c.Error(err)
		h.reply(c, http.StatusBadGateway, response.Error("Failed to update record",
			response.WithResult(err.Error())))
		return
	}

	h.logger.Info("Updated record",
		zap.String("hostname", hostname),
		zap.String("address", addr.String()),
		zap.String("result", result))

	h.reply(c, http.StatusOK, response.Success(
		fmt.Sprintf("Updated address for %s", hostname),
		response.WithHostInfo(hostname, addr.String()),
		response.WithResult(result)))
}

func (h *UpdateHandler) reply(c *gin.Context, status int, resp *response.Response) {
	c.JSON(status, resp)
}

// clientAddress returns the connection's remote address, or the first
// X-Forwarded-For entry when the server sits behind a trusted proxy
func clientAddress(r *http.Request, trustProxy bool) (netip.Addr, bool) {
	var raw string
	if xff := r.Header.Get("X-Forwarded-For"); trustProxy && xff != "" {
		raw, _, _ = strings.Cut(xff, ",")
		raw = strings.TrimSpace(raw)
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		raw = host
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
