package server

import (
	"net/http"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/alkime/breathewise/internal/catalog"
	"github.com/gin-gonic/gin"
)

type homePage struct {
	Moods         []catalog.Mood
	Themes        []catalog.Theme
	SelectedMood  string
	SelectedTheme string
}

type sessionPage struct {
	Mood           catalog.Mood
	Theme          catalog.Theme
	Pattern        patternView
	FirstPhase     breath.Phase
	Countdown      string
	AudioAvailable bool
}

func (s *Server) handleHome(c *gin.Context) {
	mood, theme := s.catalog.Resolve(c.Query("mood"), c.Query("theme"))

	c.HTML(http.StatusOK, "home.tmpl", homePage{
		Moods:         s.catalog.Moods,
		Themes:        s.catalog.Themes,
		SelectedMood:  mood.Name,
		SelectedTheme: theme.Name,
	})
}

// handleSessionPage renders the breathing page. Missing or unknown mood and
// theme values fall back to the catalog defaults.
func (s *Server) handleSessionPage(c *gin.Context) {
	mood, theme := s.catalog.Resolve(c.Query("mood"), c.Query("theme"))
	p := mood.BreathingPattern()

	c.HTML(http.StatusOK, "session.tmpl", sessionPage{
		Mood:           mood,
		Theme:          theme,
		Pattern:        newPatternView(p),
		FirstPhase:     p.Phases[0],
		Countdown:      breath.Countdown(p.Phases[0]),
		AudioAvailable: s.guide != nil && s.guide.AudioAvailable(),
	})
}
