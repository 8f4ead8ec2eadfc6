package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/store"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimelineHorizon = 2 * breath.SessionDuration
	maxTimelineHorizon     = 10 * time.Minute
)

type moodRequest struct {
	Mood string `json:"mood"`
}

type audioResponse struct {
	Audio     string `json:"audio,omitempty"`
	Script    string `json:"script,omitempty"`
	Available bool   `json:"available"`
}

type prepareResponse struct {
	Story            string        `json:"story"`
	BreathingPattern string        `json:"breathingPattern"`
	Audio            audioResponse `json:"audio"`
}

type createSessionRequest struct {
	Mood  string `json:"mood"`
	Theme string `json:"theme"`
	Loop  bool   `json:"loop"`
}

type loopRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type patternView struct {
	Name         breath.PatternName `json:"name"`
	Title        string             `json:"title"`
	Instructions string             `json:"instructions"`
	Phases       []breath.Phase     `json:"phases"`
	CycleMs      int64              `json:"cycleMs"`
}

func newPatternView(p breath.Pattern) patternView {
	return patternView{
		Name:         p.Name,
		Title:        p.Title(),
		Instructions: p.Instructions(),
		Phases:       p.Phases,
		CycleMs:      p.CycleLength().Milliseconds(),
	}
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog)
}

func (s *Server) handlePatterns(c *gin.Context) {
	patterns := breath.Patterns()

	views := make([]patternView, 0, len(patterns))
	for _, p := range patterns {
		views = append(views, newPatternView(p))
	}

	c.JSON(http.StatusOK, views)
}

// handleTimeline replays a pattern in virtual time so clients can check
// their own scheduling against the server's.
func (s *Server) handleTimeline(c *gin.Context) {
	p, err := breath.Lookup(c.Param("name"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, err)
		return
	}

	looping, err := strconv.ParseBool(c.DefaultQuery("loop", "false"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, errors.New("loop must be a boolean"))
		return
	}

	horizon := defaultTimelineHorizon
	if h := c.Query("horizon"); h != "" {
		horizon, err = time.ParseDuration(h)
		if err != nil || horizon <= 0 || horizon > maxTimelineHorizon {
			abortWithError(c, http.StatusBadRequest, errors.New("horizon must be a positive duration up to 10m"))
			return
		}
	}

	ticks, err := breath.Timeline(p, looping, horizon)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pattern":   newPatternView(p),
		"looping":   looping,
		"horizonMs": horizon.Milliseconds(),
		"ticks":     ticks,
	})
}

func (s *Server) handleStory(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"story": s.guide.Story(c.Request.Context(), req.Mood)})
}

func (s *Server) handleSuggestion(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"breathingPattern": s.guide.Suggestion(c.Request.Context(), req.Mood)})
}

// handleAudio answers 200 even when guidance fails; the page then simply
// runs without sound.
func (s *Server) handleAudio(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, s.audio(c, req.Mood))
}

// handlePrepare generates story, suggestion and audio concurrently.
func (s *Server) handlePrepare(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	var (
		resp prepareResponse
		g    errgroup.Group
	)

	g.Go(func() error {
		resp.Story = s.guide.Story(c.Request.Context(), req.Mood)
		return nil
	})
	g.Go(func() error {
		resp.BreathingPattern = s.guide.Suggestion(c.Request.Context(), req.Mood)
		return nil
	})
	g.Go(func() error {
		resp.Audio = s.audio(c, req.Mood)
		return nil
	})

	// the guide service never fails text calls and audio failures are in-band
	_ = g.Wait()

	c.JSON(http.StatusOK, resp)
}

func (s *Server) audio(c *gin.Context, mood string) audioResponse {
	m, ok := s.catalog.Mood(mood)
	if !ok {
		m, _ = s.catalog.Mood(s.catalog.DefaultMood)
	}

	g, err := s.guide.Audio(c.Request.Context(), mood, m.BreathingPattern())
	if err != nil {
		s.logger.Error("failed to generate guidance audio", "mood", mood, "error", err)
		return audioResponse{Available: false}
	}

	return audioResponse{Audio: g.URI, Script: g.Script, Available: true}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	mood, theme := s.catalog.Resolve(req.Mood, req.Theme)

	sess, err := s.sessions.Create(mood, theme, req.Loop)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      sess.ID(),
		"mood":    mood.Name,
		"theme":   theme.Name,
		"looping": req.Loop,
		"pattern": newPatternView(sess.Pattern()),
	})
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, err)
		return
	}

	elapsed, total := sess.Progress().Cap()

	c.JSON(http.StatusOK, gin.H{
		"id":        sess.ID(),
		"state":     sess.State(),
		"elapsedMs": elapsed,
		"totalMs":   total,
	})
}

func (s *Server) handleSetLooping(c *gin.Context) {
	var req loopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	if err := s.sessions.SetLooping(c.Param("id"), *req.Enabled); err != nil {
		abortWithError(c, http.StatusNotFound, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"looping": *req.Enabled})
}

func (s *Server) handleRestart(c *gin.Context) {
	err := s.sessions.Restart(c.Param("id"))
	switch {
	case errors.Is(err, ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err)
	case errors.Is(err, ErrSessionNotMounted):
		abortWithError(c, http.StatusConflict, err)
	case err != nil:
		abortWithError(c, http.StatusInternalServerError, err)
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.sessions.Unmount(c.Param("id")); err != nil {
		abortWithError(c, http.StatusNotFound, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleHistory(c *gin.Context) {
	kind, err := store.ParseGenerationKind(c.Query("kind"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	limit := store.DefaultListLimit
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit <= 0 {
			abortWithError(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
	}

	ctx := c.Request.Context()

	sessions, err := s.history.ListSessions(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to load history"))
		return
	}

	generations, err := s.history.ListGenerations(ctx, kind, limit)
	if err != nil {
		s.logger.Error("failed to list generations", "error", err)
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to load history"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions":    nonNil(sessions),
		"generations": nonNil(generations),
	})
}

// nonNil keeps empty lists as [] rather than null in JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
