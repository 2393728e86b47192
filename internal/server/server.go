package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/catalog"
	money "github.com/rezonia/efactura-editor/internal/decimal"
	"github.com/rezonia/efactura-editor/internal/editor"
	"github.com/rezonia/efactura-editor/internal/model"
	"github.com/rezonia/efactura-editor/internal/numfmt"
)

// Config holds server configuration
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool

	Locale                   string
	DefaultCurrency          string
	DefaultVATRate           decimal.Decimal
	ClearOverridesOnLineEdit bool
	TempDir                  string

	Logger zerolog.Logger
}

// Server represents the HTTP API server. It keeps no invoice between requests:
// clients post the session state and receive the updated one.
type Server struct {
	config    *Config
	router    *gin.Engine
	catalogs  *catalog.Catalogs
	formatter *numfmt.Formatter
	logger    zerolog.Logger
}

// NewServer creates a new API server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := config.Logger.With().Str("component", "server").Logger()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	s := &Server{
		config:    config,
		router:    router,
		catalogs:  catalog.New(),
		formatter: numfmt.New(config.Locale),
		logger:    logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/catalogs", s.handleCatalogs)

		invoice := v1.Group("/invoice")
		invoice.POST("/new", s.handleNew)
		invoice.POST("/import", s.handleImport)
		invoice.POST("/totals", s.handleTotals)
		invoice.POST("/apply", s.handleApply)
		invoice.POST("/storno", s.handleStorno)
		invoice.POST("/export", s.handleExport)
		invoice.GET("/temp/:name", s.handleTemp)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Catalogs returns the registries shared by every request
func (s *Server) Catalogs() *catalog.Catalogs {
	return s.catalogs
}

func (s *Server) newSession() *editor.Session {
	opts := []editor.Option{
		editor.WithCatalogs(s.catalogs),
		editor.WithLogger(s.logger),
		editor.WithClearOverridesOnLineEdit(s.config.ClearOverridesOnLineEdit),
	}
	if s.config.DefaultCurrency != "" {
		opts = append(opts, editor.WithDefaultCurrency(s.config.DefaultCurrency))
	}
	if money.IsPositive(s.config.DefaultVATRate) {
		opts = append(opts, editor.WithStandardRate(s.config.DefaultVATRate))
	}
	return editor.NewSession(opts...)
}

func (s *Server) respond(c *gin.Context, session *editor.Session) {
	st := session.Snapshot()
	resp := StateResponse{
		State:   st,
		Display: formatTotals(s.formatter, st.Totals),
	}
	if st.Original != nil {
		drift := formatTotals(s.formatter, driftOf(st.Totals, *st.Original))
		resp.Drift = &drift
	}
	c.JSON(http.StatusOK, resp)
}

func driftOf(current, original model.Totals) model.Totals {
	return model.Totals{
		Subtotal:   current.Subtotal.Sub(original.Subtotal),
		Allowances: current.Allowances.Sub(original.Allowances),
		Charges:    current.Charges.Sub(original.Charges),
		NetAmount:  current.NetAmount.Sub(original.NetAmount),
		VAT:        current.VAT.Sub(original.VAT),
		Total:      current.Total.Sub(original.Total),
	}
}

// fail maps domain errors onto status codes
func (s *Server) fail(c *gin.Context, err error) {
	var (
		verrs    model.ValidationErrors
		verr     *model.ValidationError
		parseErr *model.ParseError
	)
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Fields: verrs})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Fields: []*model.ValidationError{verr}})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, editor.ErrEmptyState):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, editor.ErrLineIndex),
		errors.Is(err, editor.ErrChargeIndex),
		errors.Is(err, editor.ErrRowNotFound),
		errors.Is(err, editor.ErrVATLocked),
		errors.Is(err, editor.ErrDuplicateVATRow),
		errors.Is(err, editor.ErrUnknownAction):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// restore binds the posted state into a fresh session
func (s *Server) restore(c *gin.Context, st *editor.State) (*editor.Session, bool) {
	if err := c.ShouldBindJSON(st); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid state: %v", err)})
		return nil, false
	}
	session := s.newSession()
	if err := session.Restore(*st); err != nil {
		s.fail(c, err)
		return nil, false
	}
	return session, true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCatalogs(c *gin.Context) {
	c.JSON(http.StatusOK, CatalogsResponse{
		Units:            s.catalogs.Units.Entries(),
		Exemptions:       s.catalogs.Exemptions.Entries(),
		VATTypes:         catalog.VATTypeLabels,
		ChargeReasons:    catalog.ChargeReasons,
		AllowanceReasons: catalog.AllowanceReasons,
		Countries:        catalog.Countries,
		Counties:         catalog.Counties,
		BucharestSectors: catalog.BucharestSectors,
	})
}

func (s *Server) handleNew(c *gin.Context) {
	s.respond(c, s.newSession())
}

func (s *Server) handleImport(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return
	}

	s.load(c, body)
}

func (s *Server) load(c *gin.Context, body []byte) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	session := s.newSession()
	if err := session.LoadXML(ctx, body); err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, session)
}

func (s *Server) handleTotals(c *gin.Context) {
	var st editor.State
	session, ok := s.restore(c, &st)
	if !ok {
		return
	}
	session.RefreshTotals()
	s.respond(c, session)
}

func (s *Server) handleApply(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	session := s.newSession()
	if err := session.Restore(req.State); err != nil {
		s.fail(c, err)
		return
	}
	if err := session.ApplyAll(req.Actions); err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, session)
}

func (s *Server) handleStorno(c *gin.Context) {
	var st editor.State
	session, ok := s.restore(c, &st)
	if !ok {
		return
	}
	session.HandleStorno()
	s.respond(c, session)
}

func (s *Server) handleExport(c *gin.Context) {
	var st editor.State
	session, ok := s.restore(c, &st)
	if !ok {
		return
	}

	out, name, err := session.SaveXML()
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", out)
}

// handleTemp loads an XML file dropped into the temp directory by another
// service. The file is consumed: it is removed once read.
func (s *Server) handleTemp(c *gin.Context) {
	name := c.Param("name")
	if !validTempName(name) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file name"})
		return
	}

	path := filepath.Join(s.config.TempDir, name)
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "temp file not found"})
			return
		}
		s.fail(c, err)
		return
	}
	if err := os.Remove(path); err != nil {
		s.logger.Warn().Err(err).Str("file", name).Msg("temp file cleanup failed")
	}

	s.load(c, body)
}

func validTempName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".xml")
}
