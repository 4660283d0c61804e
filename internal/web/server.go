// Package web serves the local launcher UI: a login form and a menu
// that starts the invoice and timesheet batches as detached processes.
package web

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
	"os/exec"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/internal/models"
	"github.com/wegpiraten/billing/internal/secrets"
)

// sessionCookie names the login session cookie
const sessionCookie = "billing_session"

// Server is the launcher web server
type Server struct {
	cfg      *config.Config
	store    *secrets.Store
	logger   *zap.Logger
	engine   *gin.Engine
	tmpl     *template.Template
	sessions sync.Map
}

// NewServer creates the launcher server and registers its routes
func NewServer(cfg *config.Config, store *secrets.Store, logger *zap.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse web templates: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		engine: gin.New(),
		tmpl:   tmpl,
	}
	s.engine.Use(gin.Recovery())
	s.engine.SetHTMLTemplate(tmpl)
	s.routes()
	return s, nil
}

// Run starts the server on the configured address
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)
	s.logger.Info("Launcher listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}

func (s *Server) routes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	})
	s.engine.GET("/login", s.loginForm)
	s.engine.POST("/login", s.login)
	s.engine.GET("/logout", s.logout)

	auth := s.engine.Group("/", s.requireSession)
	auth.GET("/menu", s.menu)
	auth.POST("/invoices", s.runInvoices)
	auth.POST("/timesheets", s.runTimesheets)
}

func (s *Server) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (s *Server) login(c *gin.Context) {
	user := c.PostForm("username")
	pass := c.PostForm("password")

	wantUser := s.store.Get("APP_USER", "")
	wantPass := s.store.Get("APP_PASSWORD", "")
	if wantUser == "" || wantPass == "" {
		s.logger.Error("APP_USER / APP_PASSWORD not configured")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"Error": "Anmeldung ist nicht konfiguriert",
		})
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass)) == 1
	if !userOK || !passOK {
		s.logger.Warn("Login failed", zap.String("user", user))
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Error": "Benutzername oder Passwort falsch",
		})
		return
	}

	token, err := newToken()
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	s.sessions.Store(token, struct{}{})
	c.SetCookie(sessionCookie, token, 3600, "/", "", false, true)
	c.Redirect(http.StatusFound, "/menu")
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		s.sessions.Delete(token)
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) requireSession(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	if _, ok := s.sessions.Load(token); !ok {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) menu(c *gin.Context) {
	c.HTML(http.StatusOK, "menu.html", gin.H{})
}

func (s *Server) runInvoices(c *gin.Context) {
	s.launch(c, "invoices")
}

func (s *Server) runTimesheets(c *gin.Context) {
	s.launch(c, "timesheets", "create")
}

// launch validates the posted month and starts the CLI detached. The
// batch outlives the request; progress is followed in the batch log.
func (s *Server) launch(c *gin.Context, args ...string) {
	month := c.PostForm("month")
	if _, err := models.ParseBillingMonth(month); err != nil {
		c.HTML(http.StatusBadRequest, "menu.html", gin.H{
			"Error": "Ungültiger Abrechnungsmonat, erwartet MM.JJJJ",
		})
		return
	}

	cmd := exec.Command(s.cfg.Web.BinaryPath, append(args, month)...)
	if err := cmd.Start(); err != nil {
		s.logger.Error("Failed to launch batch",
			zap.Strings("args", args),
			zap.Error(err))
		c.HTML(http.StatusInternalServerError, "menu.html", gin.H{
			"Error": "Der Lauf konnte nicht gestartet werden",
		})
		return
	}
	go func() {
		// reap the child; its exit code lands in the batch log
		if err := cmd.Wait(); err != nil {
			s.logger.Error("Batch exited with error",
				zap.Strings("args", args),
				zap.Error(err))
		}
	}()

	s.logger.Info("Batch launched",
		zap.Strings("args", args),
		zap.String("month", month),
		zap.Int("pid", cmd.Process.Pid))
	c.HTML(http.StatusOK, "menu.html", gin.H{
		"Message": fmt.Sprintf("Lauf für %s gestartet", month),
	})
}

// newToken returns a random session token
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
