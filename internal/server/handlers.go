package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyloop/studyloop/internal/achieve"
	"github.com/studyloop/studyloop/internal/focus"
	"github.com/studyloop/studyloop/internal/gamify"
	"github.com/studyloop/studyloop/internal/srs"
)

func (s *Server) listModes() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := srs.Modes()
		modes := make([]srs.Mode, 0, len(ids))
		for _, id := range ids {
			m, _ := srs.GetMode(id)
			modes = append(modes, m)
		}
		c.JSON(http.StatusOK, modes)
	}
}

func (s *Server) createItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			TopicID  string `json:"topic_id"`
			Content  string `json:"content"`
			Priority int    `json:"priority"`
			Mode     string `json:"mode"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item payload"})
			return
		}

		mode := srs.ModeID(body.Mode)
		if body.Mode == "" {
			mode = srs.ModeSteady
		} else if _, err := srs.GetMode(mode); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item := srs.NewItem(uuid.NewString(), s.userID, body.TopicID, body.Content, mode)
		if body.Priority >= 1 && body.Priority <= 5 {
			item.Priority = body.Priority
		}

		if err := s.store.CreateItem(item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func (s *Server) listItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.store.ItemsForUser(s.userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if items == nil {
			items = []*srs.Item{}
		}
		c.JSON(http.StatusOK, items)
	}
}

func (s *Server) getItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := s.store.Item(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if item == nil || item.UserID != s.userID {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func (s *Server) recordReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.svc.RecordReview(s.userID, c.Param("id"))
		if errors.Is(err, gamify.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) transitionItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Status          string `json:"status"`
			MaintenanceDays int    `json:"maintenance_days"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transition payload"})
			return
		}

		item, err := s.svc.TransitionItem(s.userID, c.Param("id"), srs.MasteryStatus(body.Status), body.MaintenanceDays)
		if errors.Is(err, gamify.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func (s *Server) dueQueue() gin.HandlerFunc {
	return func(c *gin.Context) {
		queue, err := s.svc.DueQueue(s.userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if queue == nil {
			queue = []*srs.Item{}
		}
		c.JSON(http.StatusOK, queue)
	}
}

func (s *Server) getStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := s.svc.Stats(s.userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func (s *Server) listAchievements() gin.HandlerFunc {
	return func(c *gin.Context) {
		unlocked, err := s.store.UnlockedAchievements(s.userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		type entry struct {
			achieve.Achievement
			Unlocked bool `json:"unlocked"`
		}
		out := make([]entry, 0, len(achieve.Catalog))
		for _, a := range achieve.Catalog {
			out = append(out, entry{Achievement: a, Unlocked: unlocked[a.ID]})
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) sessionSnapshot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.engine.Snapshot())
	}
}

func (s *Server) sessionHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := s.store.SessionsForUser(s.userID, 50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if sessions == nil {
			sessions = []focus.Session{}
		}
		c.JSON(http.StatusOK, sessions)
	}
}

func (s *Server) startWork() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.engine.StartWorking(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s.engine.Snapshot())
	}
}

func (s *Server) startBreak() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.engine.StartBreak()
		if errors.Is(err, focus.ErrNoActiveSession) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s.engine.Snapshot())
	}
}

func (s *Server) stopSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := s.engine.Stop()
		if errors.Is(err, focus.ErrNoActiveSession) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func (s *Server) resumeSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.engine.Resume()
		if errors.Is(err, focus.ErrNoActiveSession) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s.engine.Snapshot())
	}
}

func (s *Server) discardSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.engine.Discard()
		if errors.Is(err, focus.ErrNoActiveSession) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "discarded"})
	}
}

func (s *Server) setVisibility() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Visible *bool `json:"visible"`
		}
		if err := c.BindJSON(&body); err != nil || body.Visible == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "visible flag required"})
			return
		}
		s.engine.SetVisible(*body.Visible)
		c.JSON(http.StatusOK, gin.H{"visible": *body.Visible})
	}
}

func (s *Server) reduceDuration() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			WorkMinutes float64 `json:"work_minutes"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration payload"})
			return
		}

		session, err := s.engine.ReduceSessionDuration(c.Param("id"), body.WorkMinutes)
		switch {
		case errors.Is(err, focus.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, focus.ErrSessionStillActive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusOK, session)
		}
	}
}
