package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"secretsanta/internal/auth"
	"secretsanta/internal/models"
	"secretsanta/internal/services"
	"secretsanta/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// DataFile exposes the storage location for the admin debug panel.
type DataFile interface {
	Stat() storage.FileInfo
}

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	service   *services.ExchangeService
	auth      *auth.Authenticator
	cookie    auth.CookieConfig
	dataFile  DataFile
	templates *template.Template
	title     string
}

// WishlistRow is one entry of the admin wishlist overview.
type WishlistRow struct {
	User string
	Text string
}

var flashMessages = map[string]string{
	"drawn":    "Auslosung erfolgreich durchgeführt und gespeichert!",
	"reset":    "Auslosung wurde zurückgesetzt!",
	"wishlist": "Deine Wunschliste wurde gespeichert!",
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.ExchangeService, authenticator *auth.Authenticator, cookie auth.CookieConfig, dataFile DataFile, templates *template.Template, title string) *HTTPHandler {
	return &HTTPHandler{
		service:   service,
		auth:      authenticator,
		cookie:    cookie,
		dataFile:  dataFile,
		templates: templates,
		title:     title,
	}
}

// TemplateFuncs must be installed on the template set before parsing.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"display": services.DisplayName,
	}
}

// renderPage is a helper to perform a two-step template rendering.
// It first executes the content template into a buffer, then executes the main
// layout template, passing the rendered content as a variable.
func (h *HTTPHandler) renderPage(c *gin.Context, status int, pageData gin.H, contentTmpl string) {
	pageData["AppTitle"] = h.title

	buf := new(bytes.Buffer)
	if err := h.templates.ExecuteTemplate(buf, contentTmpl, pageData); err != nil {
		logger.Errorf("Error executing content template %s: %v", contentTmpl, err)
		c.String(http.StatusInternalServerError, "Template rendering error")
		return
	}

	pageData["PageContent"] = template.HTML(buf.String())

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(c.Writer, "layout.html", pageData); err != nil {
		logger.Errorf("Error executing layout template: %v", err)
	}
}

// RegisterPublicRoutes registers the routes reachable without a session.
func (h *HTTPHandler) RegisterPublicRoutes(router gin.IRoutes) {
	router.GET("/healthz", h.Health)
	router.GET("/login", h.ShowLogin)
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
}

// RegisterSessionRoutes registers the routes that need a logged-in user.
func (h *HTTPHandler) RegisterSessionRoutes(group *gin.RouterGroup) {
	group.GET("/", h.Root)
	group.GET("/home", h.ShowHome)
	group.POST("/wishlist", h.SaveWishlist)

	admin := group.Group("/admin")
	admin.Use(auth.RequireAdmin())
	admin.POST("/draw", h.RunDrawing)
	admin.POST("/reset", h.ResetDrawing)
}

// Health answers liveness probes.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Root sends logged-in users to their home page.
func (h *HTTPHandler) Root(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/home")
}

// ShowLogin renders the login form.
func (h *HTTPHandler) ShowLogin(c *gin.Context) {
	h.renderPage(c, http.StatusOK, gin.H{"title": "Anmelden", "Username": ""}, "login.html")
}

// Login checks the submitted credentials and sets the session cookie.
func (h *HTTPHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if username == "" || password == "" {
		h.renderPage(c, http.StatusBadRequest, gin.H{
			"title":    "Anmelden",
			"Error":    "Bitte Username und Passwort eingeben",
			"Username": username,
		}, "login.html")
		return
	}

	session, err := h.auth.Login(username, password)
	if err != nil {
		logger.Infof("Failed login for %q from %s", username, c.ClientIP())
		h.renderPage(c, http.StatusUnauthorized, gin.H{
			"title":    "Anmelden",
			"Error":    "Username/Passwort ist falsch",
			"Username": username,
		}, "login.html")
		return
	}

	h.auth.SetCookie(c, h.cookie, session)
	logger.Infof("User %s logged in", session.Username)
	c.Redirect(http.StatusSeeOther, "/home")
}

// Logout clears the session cookie.
func (h *HTTPHandler) Logout(c *gin.Context) {
	auth.ClearCookie(c, h.cookie)
	c.Redirect(http.StatusSeeOther, "/login")
}

// ShowHome renders the admin area and/or the participant area.
func (h *HTTPHandler) ShowHome(c *gin.Context) {
	session, _ := auth.SessionFrom(c)
	doc := h.service.Current()
	participant := h.service.IsParticipant(session.Username)

	data := gin.H{
		"title":         h.title,
		"Session":       session,
		"IsAdmin":       session.Admin,
		"IsParticipant": participant,
		"Done":          doc.AssignmentDone,
		"Flash":         flashMessages[c.Query("msg")],
	}

	if session.Admin {
		data["Pairings"] = services.Pairings(doc, h.service.Participants())
		data["Wishlists"] = h.wishlistRows(doc)
		data["DataFile"] = h.dataFile.Stat()
	}

	if participant {
		data["OwnWishlist"] = doc.Wishlists[session.Username]
		if recipient, ok := services.RecipientOf(doc, session.Username); ok {
			data["Recipient"] = recipient
			data["RecipientWishlist"] = doc.Wishlists[recipient]
		}
	}

	h.renderPage(c, http.StatusOK, data, "home.html")
}

func (h *HTTPHandler) wishlistRows(doc models.Document) []WishlistRow {
	rows := make([]WishlistRow, 0, len(doc.Wishlists))
	for _, p := range h.service.Participants() {
		rows = append(rows, WishlistRow{User: p, Text: doc.Wishlists[p]})
	}
	return rows
}

// RunDrawing handles the admin's "start drawing" button.
func (h *HTTPHandler) RunDrawing(c *gin.Context) {
	if _, err := h.service.RunDrawing(); err != nil {
		logger.Errorf("Drawing failed: %v", err)
		c.String(http.StatusInternalServerError, "Auslosung fehlgeschlagen: %v", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/home?msg=drawn")
}

// ResetDrawing handles the admin's "reset drawing" button.
func (h *HTTPHandler) ResetDrawing(c *gin.Context) {
	if _, err := h.service.ResetDrawing(); err != nil {
		logger.Errorf("Reset failed: %v", err)
		c.String(http.StatusInternalServerError, "Zurücksetzen fehlgeschlagen: %v", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/home?msg=reset")
}

// SaveWishlist stores the logged-in participant's wishlist.
func (h *HTTPHandler) SaveWishlist(c *gin.Context) {
	session, _ := auth.SessionFrom(c)

	_, err := h.service.SaveWishlist(session.Username, c.PostForm("wishlist"))
	if errors.Is(err, services.ErrUnknownParticipant) {
		c.String(http.StatusForbidden, "Du nimmst nicht am Wichteln teil")
		return
	}
	if err != nil {
		logger.Errorf("Saving wishlist for %s failed: %v", session.Username, err)
		c.String(http.StatusInternalServerError, "Wunschliste konnte nicht gespeichert werden: %v", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/home?msg=wishlist")
}
