package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/checkin"
	"rollcall/internal/config"
	"rollcall/internal/geofence"
	"rollcall/internal/live"
	"rollcall/internal/metrics"
	"rollcall/internal/report"
	"rollcall/internal/roster"
	"rollcall/internal/session"
	"rollcall/internal/store"
	"rollcall/internal/subjects"
)

type apiServer struct {
	cfg      config.App
	roster   *roster.Repository
	sessions *session.Repository
	events   *attendance.Repository
	ranking  *roster.Ranking
	checkin  *checkin.Validator
	feed     live.Feed
	cache    *store.Redis
}

func (s *apiServer) registerRoutes(r *gin.Engine) {
	r.POST("/v1/auth/login", s.handleLogin)
	r.GET("/v1/subjects", s.handleSubjects)
	r.GET("/v1/sessions/:id", s.handleGetSession)
	r.POST("/v1/checkins", s.handleCheckin)

	instructor := r.Group("/v1", auth.InstructorAuth(s.cfg.JWTSigningKey, s.cfg.JWTIssuer))
	instructor.POST("/students", s.handleImportStudents)
	instructor.GET("/students", s.handleListStudents)
	instructor.GET("/students/:id/history", s.handleStudentHistory)
	instructor.POST("/sessions", s.handleCreateSession)
	instructor.GET("/sessions", s.handleFindSession)
	instructor.POST("/sessions/:id/expire", s.handleExpireSession)
	instructor.GET("/sessions/:id/attendance", s.handleSessionAttendance)
	instructor.GET("/sessions/:id/rollup", s.handleSessionRollup)
	instructor.GET("/sessions/:id/live", s.handleSessionLive)
	instructor.GET("/sessions/:id/export", s.handleSessionExport)
}

func (s *apiServer) handleLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Password != s.cfg.InstructorPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.Issue("instructor", auth.RoleInstructor, s.cfg.JWTIssuer, s.cfg.JWTSigningKey, s.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token.AccessToken,
		"expires_at":   token.ExpiresAt.Unix(),
	})
}

func (s *apiServer) handleSubjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subjects": subjects.All()})
}

func (s *apiServer) handleImportStudents(c *gin.Context) {
	var req struct {
		Students []roster.Student `json:"students" binding:"required"`
		Source   string           `json:"source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Source == "" {
		req.Source = "manual"
	}

	count, err := s.roster.UpsertStudents(c.Request.Context(), req.Students, req.Source)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"count": count})
}

func (s *apiServer) handleListStudents(c *gin.Context) {
	students, err := s.roster.ListStudents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load roster"})
		return
	}

	type entry struct {
		RollNumber int `json:"roll_number"`
		roster.Student
	}
	sorted := s.ranking.Sorted(students)
	out := make([]entry, 0, len(sorted))
	for i, st := range sorted {
		out = append(out, entry{RollNumber: i + 1, Student: st})
	}
	c.JSON(http.StatusOK, gin.H{"students": out, "count": len(out)})
}

func (s *apiServer) handleCreateSession(c *gin.Context) {
	var req struct {
		Date        string `json:"date"`
		SubjectCode string `json:"subject_code" binding:"required"`
		SubjectName string `json:"subject_name"`
		SecretCode  string `json:"secret_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}
	if req.SubjectName == "" {
		if subj, ok := subjects.Lookup(req.SubjectCode); ok {
			req.SubjectName = subj.Code + " - " + subj.Name
		} else {
			req.SubjectName = req.SubjectCode
		}
	}

	// Reuse an existing active session for the same (date, subject) instead
	// of handing out a second code. Lookup failures never block creation.
	existing, err := s.sessions.FindActiveForSubjectDate(c.Request.Context(), req.Date, req.SubjectCode, time.Now())
	if err != nil {
		log.Printf("session reuse lookup failed: %v", err)
	}
	if existing != nil {
		c.JSON(http.StatusOK, gin.H{"session": existing, "reused": true})
		return
	}

	if req.SecretCode == "" {
		req.SecretCode = session.GenerateSecretCode(s.cfg.SecretCodeLength)
	}

	rosterSize, err := s.roster.CountStudents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to read roster"})
		return
	}

	sess := session.New(req.Date, req.SubjectCode, req.SubjectName, req.SecretCode, rosterSize, time.Now(), s.cfg.SessionTTL)
	if err := s.sessions.Create(c.Request.Context(), sess); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to create session"})
		return
	}
	metrics.SessionsCreated.Inc()
	c.JSON(http.StatusCreated, gin.H{"session": sess, "reused": false})
}

func (s *apiServer) handleFindSession(c *gin.Context) {
	date := c.Query("date")
	subjectCode := c.Query("subjectCode")
	if date == "" || subjectCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date and subjectCode are required"})
		return
	}

	existing, err := s.sessions.FindActiveForSubjectDate(c.Request.Context(), date, subjectCode, time.Now())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": existing})
}

// handleGetSession is the public session view the check-in page loads. The
// secret code is never exposed here.
func (s *apiServer) handleGetSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lookup failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":     sess.SessionID,
		"date":           sess.Date,
		"subject_code":   sess.SubjectCode,
		"subject_name":   sess.SubjectName,
		"expiry_time":    sess.ExpiryTime,
		"total_students": sess.TotalStudents,
		"is_expired":     sess.IsExpired(time.Now()),
	})
}

func (s *apiServer) handleExpireSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lookup failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	// idempotent: expiring an expired session is a no-op
	if err := s.sessions.Expire(c.Request.Context(), sess.SessionID); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to expire session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sess.SessionID, "active": false})
}

func (s *apiServer) handleCheckin(c *gin.Context) {
	var req struct {
		SessionID  string            `json:"session_id" binding:"required"`
		RollNumber string            `json:"roll_number"`
		Name       string            `json:"name"`
		SecretCode string            `json:"secret_code"`
		Location   *geofence.Reading `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.checkin.Submit(c.Request.Context(), checkin.Attempt{
		SessionID:  req.SessionID,
		RollNumber: req.RollNumber,
		Name:       req.Name,
		SecretCode: req.SecretCode,
		Location:   req.Location,
	})
	if err != nil {
		log.Printf("checkin store failure: %v", err)
		metrics.CheckinErrors.Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary failure, please try again"})
		return
	}

	if !result.Accepted() {
		metrics.CheckinRejected.WithLabelValues(string(result.Reason)).Inc()
		c.JSON(rejectionStatus(result.Reason), gin.H{
			"error":  result.Message,
			"reason": result.Reason,
		})
		return
	}

	metrics.CheckinAccepted.Inc()
	evt := result.Event
	if err := s.feed.Publish(c.Request.Context(), live.Update{
		SessionID:  evt.SessionID,
		StudentID:  evt.StudentID,
		RollNumber: evt.RollNumber,
		Name:       evt.Name,
		Timestamp:  evt.Timestamp,
	}); err != nil {
		log.Printf("live feed publish failed: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     result.Message,
		"student_id":  evt.StudentID,
		"roll_number": evt.RollNumber,
		"timestamp":   evt.Timestamp,
	})
}

func rejectionStatus(reason checkin.Reason) int {
	switch reason {
	case checkin.ReasonSessionNotFound:
		return http.StatusNotFound
	case checkin.ReasonAlreadyMarked:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *apiServer) handleSessionAttendance(c *gin.Context) {
	sess, err := s.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lookup failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	students, err := s.roster.ListStudents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load roster"})
		return
	}
	events, err := s.events.ListBySession(c.Request.Context(), sess.SessionID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load attendance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": sess,
		"records": report.BuildRecords(s.ranking, students, events),
		"rollup":  attendance.ComputeRollup(len(students), len(events)),
	})
}

// handleSessionRollup serves the cheap dashboard counter, preferring the
// worker-maintained cache and falling back to a store count.
func (s *apiServer) handleSessionRollup(c *gin.Context) {
	sessionID := c.Param("id")

	present, err := s.cache.CachedPresent(c.Request.Context(), sessionID)
	if err != nil || present < 0 {
		present, err = s.events.CountBySession(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to count attendance"})
			return
		}
	}

	rosterSize, err := s.roster.CountStudents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to read roster"})
		return
	}
	c.JSON(http.StatusOK, attendance.ComputeRollup(rosterSize, present))
}

// handleSessionLive streams accepted check-ins for one session as SSE.
func (s *apiServer) handleSessionLive(c *gin.Context) {
	updates, err := s.feed.Subscribe(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed unavailable"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case update, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("checkin", update)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *apiServer) handleStudentHistory(c *gin.Context) {
	student, err := s.roster.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lookup failed"})
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	sessions, err := s.sessions.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load sessions"})
		return
	}
	events, err := s.events.ListByStudent(c.Request.Context(), student.ID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load attendance"})
		return
	}

	history := attendance.PerStudentHistory(student.ID, sessions, events)
	c.JSON(http.StatusOK, gin.H{
		"student":       student,
		"history":       history,
		"subject_stats": attendance.PerSubjectStats(history),
		"overall":       attendance.OverallStats(history),
	})
}

func (s *apiServer) handleSessionExport(c *gin.Context) {
	sess, err := s.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lookup failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	students, err := s.roster.ListStudents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load roster"})
		return
	}
	events, err := s.events.ListBySession(c.Request.Context(), sess.SessionID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load attendance"})
		return
	}

	records := report.BuildRecords(s.ranking, students, events)
	filename := fmt.Sprintf("attendance-%s-%s.csv", sess.SubjectCode, sess.Date)
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := report.WriteCSV(c.Writer, report.SessionInfo{Date: sess.Date, SubjectName: sess.SubjectName}, records); err != nil {
		log.Printf("csv export failed: %v", err)
	}
}
