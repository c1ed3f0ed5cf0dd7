package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/safeher/safeher/server/auth"
	"github.com/safeher/safeher/server/auth/key"
	"github.com/safeher/safeher/server/logger"
	"github.com/safeher/safeher/server/models"
	"github.com/safeher/safeher/server/twilio"
	"github.com/safeher/safeher/server/work"
	"github.com/safeher/safeher/shared"
	"github.com/spf13/viper"
)

const (
	DEFAULT_TOKEN_EXPIRY_SECS  = 3600
	DEFAULT_RATE_LIMIT_PER_MIN = 60
)

type RequestContextKey string

type DecodedJWT struct {
	Claims   *auth.SafeHerTokenClaims
	ErrorMsg string
}

// ErrorPayload is the shape of every non-2xx response body.
type ErrorPayload struct {
	Error string `json:"error"`
}

var (
	logg     = logger.NewLogger()
	validate = validator.New()

	authKeyPair  *key.KeyPair
	twilioClient *twilio.ClientWrapper
	workerPool   *work.WorkerPoolAdapter
	serverConfig *shared.ServerConfig
	configDir    string
)

// Start brings up the safeher API server - it runs migrations, starts the
// background worker pool, registers routes & blocks until an interrupt.
func Start(config *viper.Viper, devMode bool) {
	var cfg shared.ServerConfig
	fatalOnError(config.Unmarshal(&cfg))

	fatalOnError(RegisterValidators(validate))
	fatalOnError(validate.Struct(cfg))
	applyConfigDefaults(&cfg)
	serverConfig = &cfg

	configDir = configDirectory(devMode)

	keyPair, err := key.NewKeyPairFromRSAPrivateKeyPem([]byte(cfg.SafeHer.PrivateKeyPem))
	fatalOnError(err)
	authKeyPair = keyPair

	fatalOnError(models.AutoMigrate(cfg.Sqlite.PassPhrase, configDir))

	twilioClient = twilio.NewClient(cfg.Twilio)
	if !twilioClient.Enabled() {
		logg.Warn("Twilio is not configured - emergency alerts will be logged instead of sent")
	}

	workerPool = work.NewWorkerAdapter(cfg.SafeHer.Cron.TimeZone)
	registerJobHandlers(workerPool)
	enqueueJobs(workerPool)
	workerPool.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%v", cfg.SafeHer.Listener.Port),
		Handler:      newRouter(cfg.SafeHer.RateLimitPerMin),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go serve(server)

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
	<-stopChan

	cleanup(workerPool, server, sqliteBackupEnabled())
}

func newRouter(rateLimitPerMin int) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(securityHeadersMiddleware)
	router.Use(rateLimitMiddleware(rateLimitPerMin))
	router.Use(initialContextMiddleware)

	// Public routes
	router.HandleFunc("/register", registerUser).Methods("POST")
	router.HandleFunc("/login", logIn).Methods("POST")
	router.HandleFunc("/safety-tips", safetyTips).Methods("GET")
	router.HandleFunc("/.well-known/jwks.json", jwks).Methods("GET")
	router.HandleFunc("/health", healthCheck).Methods("GET")

	// Protected routes
	protected := router.NewRoute().Subrouter()
	protected.Use(protectedRouteMiddleware)
	protected.HandleFunc("/validate-token", validateToken).Methods("GET")
	protected.HandleFunc("/contacts", listContacts).Methods("GET")
	protected.HandleFunc("/contacts", createContact).Methods("POST")
	protected.HandleFunc("/contacts/{id:[0-9]+}", updateContact).Methods("PUT")
	protected.HandleFunc("/contacts/{id:[0-9]+}", deleteContact).Methods("DELETE")
	protected.HandleFunc("/emergency", triggerEmergency).Methods("POST")

	return router
}

func applyConfigDefaults(cfg *shared.ServerConfig) {
	if cfg.SafeHer.TokenExpirySecs <= 0 {
		cfg.SafeHer.TokenExpirySecs = DEFAULT_TOKEN_EXPIRY_SECS
	}

	if cfg.SafeHer.RateLimitPerMin <= 0 {
		cfg.SafeHer.RateLimitPerMin = DEFAULT_RATE_LIMIT_PER_MIN
	}
}

func sqliteBackupEnabled() bool {
	return fmt.Sprintf("%v", serverConfig.Google.Storage.EnableSqliteBackupAndSync) == "true"
}
