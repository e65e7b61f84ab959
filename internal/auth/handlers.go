package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dkovalev/novelshelf/internal/config"
)

// isLocalPath validates that a redirect path is local to prevent open
// redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// anonymousTemplateData is the auth block rendered on pages that only
// anonymous callers can reach.
var anonymousTemplateData = gin.H{"Authenticated": false, "Email": ""}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// Controller handles the login, register and logout endpoints.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
}

// NewController creates a new authentication controller.
func NewController(service *Service, sessionManager *SessionManager, cfg config.Auth) *Controller {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &Controller{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
	}
}

// RegisterRoutes registers authentication routes on the router.
// The anonymousOnly middleware sends logged-in users back home.
func (ac *Controller) RegisterRoutes(router *gin.Engine, anonymousOnly, requireAuth gin.HandlerFunc) {
	router.GET("/login", anonymousOnly, ac.LoginPage)
	router.POST("/login", anonymousOnly, ac.Login)
	router.GET("/register", anonymousOnly, ac.RegisterPage)
	router.POST("/register", anonymousOnly, ac.Register)
	router.POST("/logout", requireAuth, ac.Logout)
	router.GET("/logout", requireAuth, ac.Logout) // Support GET for simple logout links
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *Controller) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// LoginPage renders the login form.
func (ac *Controller) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login", gin.H{
		"Title":     "Login",
		"Next":      sanitizeRedirectPath(c.Query("next")),
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
		"Flash":     ac.sessionManager.PopFlash(c.Request),
		"Auth":      anonymousTemplateData,
	})
}

// Login handles the login form submission.
func (ac *Controller) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	renderError := func(message string) {
		c.HTML(http.StatusOK, "login", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Email":     email,
			"CSRFToken": GetCSRFToken(c),
			"Error":     message,
			"Auth":      anonymousTemplateData,
		})
	}

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, email); !allowed {
		c.Header("Retry-After", retryAfter.String())
		renderError("Too many login attempts. Please try again later.")
		return
	}

	user, err := ac.service.Authenticate(email, password)
	if err != nil {
		ac.rateLimiter.RecordFailure(clientIP, email)
		// One message for unknown email and wrong password alike.
		renderError("Invalid email or password")
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, email)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		renderError("Failed to create session")
		return
	}

	c.Redirect(http.StatusFound, next)
}

// RegisterPage renders the registration form.
func (ac *Controller) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register", gin.H{
		"Title":     "Register",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
		"Auth":      anonymousTemplateData,
	})
}

// Register handles the registration form submission.
func (ac *Controller) Register(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	_, err := ac.service.Register(email, password)
	if err != nil {
		errorMsg := "Failed to create account"
		switch {
		case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrPasswordRequired):
			errorMsg = "Email and password are required"
		case errors.Is(err, ErrEmailInvalid):
			errorMsg = "Invalid email format"
		case errors.Is(err, ErrEmailTaken):
			errorMsg = "Email already registered"
		case errors.Is(err, ErrPasswordTooLong):
			errorMsg = "Password exceeds maximum length of 72 characters"
		}

		c.HTML(http.StatusOK, "register", gin.H{
			"Title":     "Register",
			"Email":     email,
			"CSRFToken": GetCSRFToken(c),
			"Error":     errorMsg,
			"Auth":      anonymousTemplateData,
		})
		return
	}

	ac.sessionManager.PutFlash(c.Request, "Registration successful! Please log in.")
	c.Redirect(http.StatusFound, "/login")
}

// Logout destroys the session and redirects to the home page.
func (ac *Controller) Logout(c *gin.Context) {
	_ = ac.sessionManager.DestroySession(c.Request)
	c.Redirect(http.StatusFound, "/")
}
