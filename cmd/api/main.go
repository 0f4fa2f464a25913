package main

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartattend/internal/attendance"
	"smartattend/internal/auth"
	"smartattend/internal/config"
	"smartattend/internal/geo"
	"smartattend/internal/httpmiddleware"
	"smartattend/internal/metrics"
	"smartattend/internal/queue"
	"smartattend/internal/session"
	"smartattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	var (
		db       *store.DB
		registry session.Registry
		ledger   attendance.Ledger
	)
	if cfg.StoreBackend == "postgres" {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer db.Close()
		registry = session.NewPostgresRegistry(db.Client)
		ledger = attendance.NewPostgresLedger(db.Client)
		log.Println("store backend: postgres")
	} else {
		registry = session.NewMemoryRegistry()
		ledger = attendance.NewMemoryLedger()
		log.Println("store backend: memory (state lives for the process lifetime)")
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(redisClient.Client, "smartattend:events")
	} else {
		q = queue.NewInMemory(64)
	}

	engine := attendance.NewEngine(registry, ledger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := cfg.StoreBackend != "postgres" || db != nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/instructor/login", func(c *gin.Context) {
		var req struct {
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tok, err := auth.Login(req.Password, cfg.InstructorPassword, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": tok.Value,
			"expires_at":   tok.ExpiresAt.Unix(),
		})
	})

	// Student-facing routes. No auth: the link itself is the capability,
	// exactly as the instructor shares it.
	r.GET("/v1/sessions/:id", func(c *gin.Context) {
		sess, err := registry.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		now := time.Now()
		c.JSON(http.StatusOK, gin.H{
			"id":                     sess.ID,
			"class_name":             sess.ClassName,
			"start_time":             sess.StartTime,
			"end_time":               sess.End(),
			"phase":                  sess.PhaseAt(now).String(),
			"time_remaining_seconds": int(sess.TimeRemaining(now).Seconds()),
		})
	})

	r.POST("/v1/sessions/:id/checkins", func(c *gin.Context) {
		var req struct {
			StudentName         string          `json:"student_name" binding:"required"`
			Coordinate          *geo.Coordinate `json:"coordinate"`
			LocationUnavailable bool            `json:"location_unavailable"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fix := req.Coordinate
		if req.LocationUnavailable {
			fix = nil
		}
		if fix != nil && !fix.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "coordinate out of range"})
			return
		}

		rec, err := engine.AttemptCheckIn(c.Request.Context(), c.Param("id"), req.StudentName, time.Now(), fix)
		if err != nil {
			writeRejection(c, err)
			return
		}

		metrics.CheckinsAccepted.Inc()
		if err := q.Publish(c.Request.Context(), queue.Event{
			Type:      queue.TypeCheckIn,
			SessionID: rec.SessionID,
			RecordID:  rec.ID,
		}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusCreated, gin.H{"record": rec})
	})

	// Instructor routes.
	authGroup := r.Group("/v1", auth.InstructorAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.POST("/sessions", func(c *gin.Context) {
		var spec session.Spec
		if err := c.ShouldBindJSON(&spec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sess, err := registry.Create(c.Request.Context(), spec)
		if err != nil {
			var verr *session.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		metrics.SessionsCreated.Inc()
		c.JSON(http.StatusCreated, gin.H{
			"session":   sess,
			"end_time":  sess.End(),
			"join_path": joinPath(sess.ID),
		})
	})

	authGroup.GET("/sessions", func(c *gin.Context) {
		sessions, err := registry.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		tallies := redisClient.Tallies(c.Request.Context())
		now := time.Now()
		out := make([]gin.H, 0, len(sessions))
		for _, sess := range sessions {
			item := gin.H{
				"session":   sess,
				"end_time":  sess.End(),
				"phase":     sess.PhaseAt(now).String(),
				"join_path": joinPath(sess.ID),
			}
			if raw, ok := tallies[sess.ID]; ok {
				if n, err := strconv.Atoi(raw); err == nil {
					item["checkins"] = n
				}
			}
			out = append(out, item)
		}
		c.JSON(http.StatusOK, gin.H{"sessions": out})
	})

	authGroup.DELETE("/sessions/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := registry.Delete(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := q.Publish(c.Request.Context(), queue.Event{
			Type:      queue.TypeSessionDeleted,
			SessionID: id,
		}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
		c.Status(http.StatusNoContent)
	})

	authGroup.GET("/attendance", func(c *gin.Context) {
		ctx := c.Request.Context()
		var (
			records []attendance.Record
			err     error
		)
		if sessionID := c.Query("session_id"); sessionID != "" {
			records, err = ledger.ListBySession(ctx, sessionID)
		} else {
			records, err = ledger.ListAll(ctx)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Resolve class names; records may outlive their session.
		names := make(map[string]string)
		out := make([]gin.H, 0, len(records))
		for _, rec := range records {
			className, seen := names[rec.SessionID]
			if !seen {
				className = "Unknown Session"
				if sess, err := registry.Get(ctx, rec.SessionID); err == nil {
					className = sess.ClassName
				}
				names[rec.SessionID] = className
			}
			out = append(out, gin.H{
				"record":     rec,
				"class_name": className,
			})
		}
		c.JSON(http.StatusOK, gin.H{"attendance": out})
	})

	authGroup.DELETE("/attendance/:id", func(c *gin.Context) {
		if err := ledger.Delete(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// joinPath is the student-facing check-in link path for a session,
// matching the /session/{id}/attendance links instructors share.
func joinPath(sessionID string) string {
	return "/session/" + sessionID + "/attendance"
}

// writeRejection maps a check-in rejection to a status code and a
// payload with a stable machine code, plus phase or distance detail
// where the error carries it.
func writeRejection(c *gin.Context, err error) {
	reason := attendance.RejectReason(err)
	metrics.CheckinsRejected.WithLabelValues(reason).Inc()

	status := http.StatusBadRequest
	payload := gin.H{"error": err.Error(), "code": reason}

	switch reason {
	case "session_not_found":
		status = http.StatusNotFound
	case "session_not_active":
		status = http.StatusConflict
		var notActive *attendance.NotActiveError
		if errors.As(err, &notActive) {
			payload["phase"] = notActive.Phase.String()
		}
	case "out_of_range":
		status = http.StatusForbidden
		var outOfRange *attendance.OutOfRangeError
		if errors.As(err, &outOfRange) {
			payload["distance_meters"] = math.Round(outOfRange.DistanceMeters)
		}
	case "already_checked_in":
		status = http.StatusConflict
	case "internal":
		status = http.StatusInternalServerError
	}

	c.JSON(status, payload)
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
