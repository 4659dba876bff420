package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/coedit/internal/ir"
	"github.com/roach88/coedit/internal/schema"
)

// Responses use PureJSON so "<" and ">" in user text reach clients
// unescaped, matching the CLI output.

func (s *Server) handleState(c *gin.Context) {
	c.PureJSON(http.StatusOK, s.store.Current())
}

// handlePatch applies the raw request body as patch text. A rejected patch
// is still a well-formed answer, so the EditResult is returned with 422.
func (s *Server) handlePatch(c *gin.Context) {
	source := ir.SourceUser
	if q := c.Query("source"); q != "" {
		parsed, err := ir.ParseSource(q)
		if err != nil {
			c.PureJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		source = parsed
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.PureJSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read body: " + err.Error()})
		return
	}

	result := s.store.ApplyFromText(c.Request.Context(), string(raw), source)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.PureJSON(status, result)
}

// handleSetField is the direct UI write path. It bypasses the patch engine
// and is not audited.
func (s *Server) handleSetField(c *gin.Context) {
	name := c.Param("name")
	if !s.store.Registry().Has(name) {
		c.PureJSON(http.StatusNotFound, ErrorResponse{Error: (&schema.UnknownFieldError{Name: name}).Error()})
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.PureJSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read body: " + err.Error()})
		return
	}
	value, err := ir.UnmarshalValue(raw)
	if err != nil {
		c.PureJSON(http.StatusBadRequest, ErrorResponse{Error: "JSON parse error: " + err.Error()})
		return
	}

	if err := s.store.Container().SetFieldResult(name, value); err != nil {
		var verr *schema.ValidationError
		msg := err.Error()
		if errors.As(err, &verr) {
			msg = "Invalid value for " + name + ": " + verr.Error()
		}
		c.PureJSON(http.StatusUnprocessableEntity, ErrorResponse{Error: msg})
		return
	}
	c.PureJSON(http.StatusOK, s.store.Current())
}

func (s *Server) handleReset(c *gin.Context) {
	s.store.Reset()
	c.PureJSON(http.StatusOK, s.store.Current())
}

func (s *Server) handleHistory(c *gin.Context) {
	c.PureJSON(http.StatusOK, s.store.History())
}

func (s *Server) handleClearHistory(c *gin.Context) {
	s.store.ClearHistory()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleContext(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(s.store.Context()))
}

func (s *Server) handleToolSchema(c *gin.Context) {
	c.PureJSON(http.StatusOK, s.store.ToolSchema())
}
