package notesrv

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"
)

const (
	shutdownTimeout = 5 * time.Second
)

type Config struct {
	Addr  string
	Token string
}

// Server is an in-memory note service speaking the same API as the remote
// note store. It backs local development and tests.
type Server struct {
	config *Config
	store  *Store
	logger *slog.Logger
	http   *http.Server
}

func New(config *Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		store:  NewStore(),
		logger: logger,
	}
	s.http = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Store exposes the backing store, mainly for seeding and assertions in tests
func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) Handler() http.Handler {
	r := gin.New()

	h := &handler{store: s.store}

	r.Use(slogGin.NewWithConfig(s.logger.WithGroup("http"), slogGin.Config{
		DefaultLevel:     slog.LevelDebug,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.BestSpeed))

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.PureJSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(bearerAuth(s.config.Token))
	{
		v1.GET("/notebooks", h.ListNotebooks)
		v1.POST("/notebooks", h.CreateNotebook)

		v1.GET("/notes", h.FindNotes)
		v1.POST("/notes", h.CreateNote)
		v1.GET("/notes/:guid", h.GetNote)
		v1.PUT("/notes/:guid", h.UpdateNote)
		v1.DELETE("/notes/:guid", h.DeleteNote)
	}

	r.NoRoute(func(ctx *gin.Context) {
		ctx.PureJSON(http.StatusNotFound, gin.H{"code": "E_NOT_FOUND", "error": "not found"})
	})

	return r.Handler()
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("note service listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
