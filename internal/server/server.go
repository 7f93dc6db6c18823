// Package server exposes the research pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"research-assistant/internal/config"
	"research-assistant/internal/models"
	"research-assistant/internal/rag"
)

const shutdownTimeout = 10 * time.Second

// errInvalidBody marks a request body that could not be decoded
var errInvalidBody = errors.New("invalid request body")

type Researcher interface {
	Research(ctx context.Context, req models.ResearchRequest) (*models.ResearchResponse, error)
	WebResearch(ctx context.Context, req models.ResearchRequest) (*models.ResearchResponse, error)
}

type Server struct {
	cfg        config.ServerConfig
	researcher Researcher
	router     *gin.Engine
}

// researchBody is the JSON shape accepted by both research routes
type researchBody struct {
	Query   string `json:"query"`
	Context string `json:"context"`
	Model   string `json:"model"`
}

// New builds the router. It fails only on an invalid allowed_origins list;
// an empty list disables CORS headers.
func New(cfg config.ServerConfig, researcher Researcher) (*Server, error) {
	s := &Server{cfg: cfg, researcher: researcher}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg, err := corsConfig(cfg.AllowedOrigins)
		if err != nil {
			return nil, err
		}
		router.Use(cors.New(corsCfg))
	}
	router.GET("/healthz", s.handleHealth)
	router.POST("/api/research", s.handleResearch)
	router.POST("/api/websearch", s.handleWebSearch)
	s.router = router

	return s, nil
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.router}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleResearch accepts a multipart upload (document mode, file required)
// or a JSON body (web mode)
func (s *Server) handleResearch(c *gin.Context) {
	var req models.ResearchRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		r, err := s.readUpload(c)
		if err != nil {
			writeError(c, err)
			return
		}
		req = r
	} else {
		body, err := bindBody(c)
		if err != nil {
			writeError(c, err)
			return
		}
		req = models.ResearchRequest{Query: body.Query, Context: body.Context, Model: body.Model}
	}

	resp, err := s.researcher.Research(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleWebSearch(c *gin.Context) {
	body, err := bindBody(c)
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := s.researcher.WebResearch(c.Request.Context(), models.ResearchRequest{
		Query:   body.Query,
		Context: body.Context,
		Model:   body.Model,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// bindBody decodes the JSON body. An empty body carries no query.
func bindBody(c *gin.Context) (researchBody, error) {
	var body researchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return body, rag.ErrMissingQuery
		}
		return body, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return body, nil
}

func (s *Server) readUpload(c *gin.Context) (models.ResearchRequest, error) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}

	var req models.ResearchRequest
	if _, err := c.MultipartForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, fmt.Errorf("%w: upload exceeds %d bytes", rag.ErrUnreadableDocument, tooLarge.Limit)
		}
		return req, fmt.Errorf("%w: %v", rag.ErrUnreadableDocument, err)
	}

	req.Query = c.PostForm("query")
	req.Context = c.PostForm("context")
	req.Model = c.PostForm("model")
	if strings.TrimSpace(req.Query) == "" {
		return req, rag.ErrMissingQuery
	}

	header, err := c.FormFile("file")
	if err != nil {
		return req, rag.ErrMissingDocument
	}
	f, err := header.Open()
	if err != nil {
		return req, fmt.Errorf("%w: %v", rag.ErrUnreadableDocument, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return req, fmt.Errorf("%w: %v", rag.ErrUnreadableDocument, err)
	}
	req.Document = &models.Document{Name: header.Filename, Data: data}
	return req, nil
}

// writeError maps input errors to 400 and everything else to 500. The body
// is always {"detail": message}.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if rag.IsClientError(err) || errors.Is(err, errInvalidBody) {
		status = http.StatusBadRequest
	}
	logger := log.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
	} else {
		logger.Warn().Err(err).Msg("Rejected request")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
}
