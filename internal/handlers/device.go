package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"coldchain_logger"
	"coldchain_logger/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errCallFunction    = "function call failed"
	errReadBody        = "failed to read body"
	errUnknownDevice   = "unknown device"
	errUnknownVarPref  = "unknown variable: "
	errInvalidBodyPref = "invalid body: "

	maxHookBody = 1 << 10
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Call a device function
// @Description  measure-now, set-verbose-mode, set-upper-temp-limit, set-lower-temp-limit, set-upper-humidity-limit, set-lower-humidity-limit, set-keep-alive, set-alternate-carrier-mode
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        name  path  string                         true   "Function name"
// @Param        body  body  coldchain_logger.FunctionCall  false  "Argument"
// @Success      200   {object}  coldchain_logger.FunctionResult
// @Failure      400   {object}  coldchain_logger.FunctionResult
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  coldchain_logger.FunctionResult
// @Router       /api/v1/functions/{name} [post]
// @Security     BearerAuth
func (h *Handler) callFunction(c *gin.Context) {
	name := c.Param("name")
	var req coldchain_logger.FunctionCall
	// measure-now takes no argument, so an empty body is fine
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	ret, err := h.services.Controller.Call(name, req.Arg)
	res := coldchain_logger.FunctionResult{Name: name, ReturnValue: ret}
	switch {
	case err == nil:
		h.log.Infow("function_called", "name", name, "arg", req.Arg)
		c.JSON(http.StatusOK, res)
	case errors.Is(err, service.ErrUnknownFunction):
		res.Error = err.Error()
		c.JSON(http.StatusNotFound, res)
	case errors.Is(err, service.ErrInvalidConfigValue):
		h.log.Infow("function_rejected", "name", name, "arg", req.Arg, "err", err)
		res.Error = err.Error()
		c.JSON(http.StatusBadRequest, res)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errCallFunction, "function_call_failed", err, "name", name)
	}
}

// @Summary      List telemetry variables
// @Tags         device
// @Produce      json
// @Success      200  {object}  coldchain_logger.VariablesResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/variables [get]
// @Security     BearerAuth
func (h *Handler) getVariables(c *gin.Context) {
	c.JSON(http.StatusOK, coldchain_logger.VariablesResponse{
		DeviceID:  h.deviceID,
		Variables: h.services.Controller.Telemetry().Variables(),
	})
}

// @Summary      Read one telemetry variable
// @Tags         device
// @Produce      json
// @Param        name  path  string  true  "Variable name"
// @Success      200   {object}  coldchain_logger.VariableResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/variables/{name} [get]
// @Security     BearerAuth
func (h *Handler) getVariable(c *gin.Context) {
	name := c.Param("name")
	v, ok := h.services.Controller.Telemetry().Variable(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownVarPref + name})
		return
	}
	c.JSON(http.StatusOK, coldchain_logger.VariableResponse{Name: name, Result: v})
}

// @Summary      Deliver the reporting endpoint's response
// @Description  The body is the raw HTTP status text the endpoint answered with, e.g. "201 Created".
// @Tags         device
// @Accept       plain
// @Produce      json
// @Param        id    path  string  true  "Device ID"
// @Param        body  body  string  true  "Status text"
// @Success      200   {object}  map[string]bool  "accepted"
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/devices/{id}/hook-response [post]
// @Security     BearerAuth
func (h *Handler) hookResponse(c *gin.Context) {
	if id := c.Param("id"); id != h.deviceID {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownDevice})
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxHookBody))
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errReadBody, "hook_response_read_failed", err)
		return
	}
	accepted := h.services.Controller.Acknowledge(string(body), time.Now())
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

// @Summary      Raise or drop the simulated cloud link
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body  coldchain_logger.LinkRequest  true  "Link state"
// @Success      200   {object}  map[string]bool  "connected"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/link [put]
// @Security     BearerAuth
func (h *Handler) setLink(c *gin.Context) {
	var req coldchain_logger.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	h.link.SetConnected(*req.Connected)
	c.JSON(http.StatusOK, gin.H{"connected": h.link.Connected()})
}
