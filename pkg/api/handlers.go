package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pferrors "github.com/otherjamesbrown/meetsum/pkg/errors"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/storage"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
	"github.com/otherjamesbrown/meetsum/pkg/writeback"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	status := s.health(c.Request.Context())
	if !status.Healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": status})
}

func (s *Server) handleListMeetings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(storage.DefaultPageSize)))

	result, err := s.reader.ListMeetings(c.Request.Context(), page, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTodaysMeetings(c *gin.Context) {
	day := s.today()
	items, err := s.reader.TodaysMeetings(c.Request.Context(), day)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format(time.DateOnly), "data": nonNilMeetings(items)})
}

func (s *Server) handleMeetingTranscripts(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	items, err := s.reader.MeetingTranscripts(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNilTranscripts(items)})
}

func (s *Server) handleSeriesTranscripts(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	items, err := s.reader.SeriesTranscripts(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNilTranscripts(items)})
}

func (s *Server) handleTranscriptStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	status, err := s.reader.GetTranscriptStatus(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// handleSummary returns the stored summary. ?format=text renders it the way
// write-back appends it to the source file.
func (s *Server) handleSummary(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	summary, err := s.reader.GetSummaryByTranscriptID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if c.Query("format") == "text" {
		c.String(http.StatusOK, writeback.Render(summary.SummaryContent, summary.CreatedAt))
		return
	}
	c.JSON(http.StatusOK, summary)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) fail(c *gin.Context, err error) {
	if pferrors.IsNotFound(err) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	s.logger.Error("Request failed",
		logging.F("path", c.FullPath()),
		logging.Err(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func nonNilMeetings(items []storage.MeetingListItem) []storage.MeetingListItem {
	if items == nil {
		return []storage.MeetingListItem{}
	}
	return items
}

func nonNilTranscripts(items []storage.TranscriptListItem) []storage.TranscriptListItem {
	if items == nil {
		return []storage.TranscriptListItem{}
	}
	return items
}
