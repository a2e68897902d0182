package main

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"secretsanta/internal/auth"
	"secretsanta/internal/config"
	"secretsanta/internal/handlers"
	"secretsanta/internal/services"
	"secretsanta/internal/storage"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:assets
var assetsFS embed.FS

func main() {
	// 1. Load configuration
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		logger.Fatalf("Failed to parse flags: %v", err)
	}
	if flags.HashPassword {
		if err := hashPassword(os.Stdin, os.Stdout); err != nil {
			logger.Fatalf("Failed to hash password: %v", err)
		}
		return
	}
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load config %s: %v", flags.ConfigPath, err)
	}

	// 2. Initialize logging
	logWriter, closeLog, err := cfg.LogWriter()
	if err != nil {
		logger.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	defer logger.Init("secretsanta", cfg.Log.Verbose, false, logWriter).Close()
	logger.Infof("Loaded config from %s with %d participants", flags.ConfigPath, len(cfg.Participants))

	// 3. Initialize the store and the exchange service
	store := storage.NewFileStore(cfg.Storage.DataFile, cfg.Roster())
	exchangeService := services.NewExchangeService(store, cfg.Roster(), nil)

	// 4. Initialize authentication
	accounts := make(map[string]auth.Account, len(cfg.Users))
	for username, u := range cfg.Users {
		accounts[username] = auth.Account{
			Name:         u.Name,
			PasswordHash: u.Password,
			Admin:        cfg.IsAdmin(username),
		}
	}
	authenticator := auth.NewAuthenticator(accounts, cfg.Cookie.Key, time.Duration(cfg.Cookie.ExpiryDays)*24*time.Hour)
	cookie := auth.CookieConfig{Name: cfg.Cookie.Name, Secure: cfg.Cookie.Secure}

	// 5. Load HTML templates from the embedded filesystem.
	templates, err := template.New("").Funcs(handlers.TemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		logger.Fatalf("Failed to parse templates: %v", err)
	}

	// 6. Initialize the HTTP Handler
	httpHandler := handlers.NewHTTPHandler(exchangeService, authenticator, cookie, store, templates, cfg.Title)

	// 7. Set up the Gin router
	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	r.Use(handlers.RequestLogger(), gin.Recovery())

	assetsSubFS, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		logger.Fatalf("Failed to create assets sub-filesystem: %v", err)
	}
	r.StaticFS("/assets", http.FS(assetsSubFS))

	httpHandler.RegisterPublicRoutes(r)

	sessionRoutes := r.Group("/")
	sessionRoutes.Use(authenticator.RequireSession(cookie))
	httpHandler.RegisterSessionRoutes(sessionRoutes)

	// 8. Run the server until interrupted
	server := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		logger.Infof("Server starting on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	logger.Infof("Received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}

// hashPassword reads one password line from in and prints its bcrypt hash
// for the users section of config.yaml.
func hashPassword(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		return errors.New("no password given on stdin")
	}
	password := strings.TrimRight(scanner.Text(), "\r")
	if password == "" {
		return errors.New("password must not be empty")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
