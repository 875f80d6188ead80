package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/pylearn/internal/adaptive"
	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/engine"
	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/store"
)

// maxEventBody bounds an event submission.
const maxEventBody = 64 << 10

type Handler struct {
	engine  *engine.Engine
	catalog *catalog.Catalog
}

func NewHandler(eng *engine.Engine, cat *catalog.Catalog) *Handler {
	return &Handler{engine: eng, catalog: cat}
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, progress.ErrValidation), errors.Is(err, progress.ErrInvalidEventKind):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, progress.ErrUnknownActivity):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrAlreadyRegistered):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": http.StatusText(status), "details": err.Error()}
	var ve *progress.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	c.JSON(status, body)
}

// Register creates a learner.
func (h *Handler) Register(c *gin.Context) {
	var req engine.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	rec, err := h.engine.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetLearner(c *gin.Context) {
	rec, err := h.engine.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteLearner(c *gin.Context) {
	if err := h.engine.DeleteLearner(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyEvent accepts one tagged event, e.g.
// {"kind":"lesson_completed","lesson_id":"lesson_1","points":10}.
func (h *Handler) ApplyEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	ev, err := progress.DecodeEvent(body)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := h.engine.ApplyEvent(c.Request.Context(), c.Param("id"), ev)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) EventLog(c *gin.Context) {
	limit, err := intQuery(c, "limit", 100)
	if err != nil {
		fail(c, err)
		return
	}
	after, err := intQuery(c, "after", 0)
	if err != nil {
		fail(c, err)
		return
	}
	entries, err := h.engine.EventLog(c.Request.Context(), store.QueryOpts{
		LearnerID: c.Param("id"),
		Kind:      c.Query("kind"),
		Limit:     limit,
		After:     int64(after),
	})
	if err != nil {
		fail(c, err)
		return
	}
	if entries == nil {
		entries = []store.LogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"events": entries})
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.engine.Dashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// LearningPath takes optional goals (comma separated), style and limit.
// Without goals the path is ordered by difficulty fit alone;
// profile_goals=true plans for the learner's registered goals instead.
func (h *Handler) LearningPath(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		fail(c, err)
		return
	}
	profile, err := boolQuery(c, "profile_goals")
	if err != nil {
		fail(c, err)
		return
	}
	req := adaptive.PathRequest{
		Goals:           splitList(c.Query("goals")),
		Style:           c.Query("style"),
		Limit:           limit,
		UseProfileGoals: profile,
	}
	path, err := h.engine.LearningPath(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, path)
}

func (h *Handler) MicrolearningLesson(c *gin.Context) {
	lesson, err := h.engine.MicrolearningLesson(c.Request.Context(), c.Param("id"), c.Param("lesson"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h *Handler) DueReviews(c *gin.Context) {
	due, err := h.engine.DueReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"due": due, "count": len(due)})
}

func (h *Handler) Achievements(c *gin.Context) {
	view, err := h.engine.Achievements(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit, err := intQuery(c, "limit", engine.DefaultLeaderboardLimit)
	if err != nil {
		fail(c, err)
		return
	}
	rows, err := h.engine.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}

// DailyChallenge defaults to today's date.
func (h *Handler) DailyChallenge(c *gin.Context) {
	date := clock.Date(c.Query("date"))
	if date.IsZero() {
		date = h.engine.Today()
	}
	dc, err := h.engine.DailyChallenge(date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dc)
}

// Catalog lists activities, optionally filtered by kind.
func (h *Handler) Catalog(c *gin.Context) {
	var acts []catalog.Activity
	if k := c.Query("kind"); k != "" {
		kind := catalog.Kind(k)
		if !kind.Valid() {
			fail(c, &progress.ValidationError{Field: "kind", Reason: "unknown activity kind " + strconv.Quote(k)})
			return
		}
		acts = h.catalog.List(kind)
	} else {
		acts = h.catalog.All()
	}
	c.JSON(http.StatusOK, gin.H{
		"version":    h.catalog.Version(),
		"goals":      h.catalog.Goals(),
		"activities": acts,
	})
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &progress.ValidationError{Field: key, Reason: "not an integer: " + strconv.Quote(raw)}
	}
	return n, nil
}

func boolQuery(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &progress.ValidationError{Field: key, Reason: "not a boolean: " + strconv.Quote(raw)}
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
