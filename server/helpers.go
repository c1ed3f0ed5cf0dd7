package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/golang-jwt/jwt"
	"github.com/safeher/safeher/server/auth"
	"github.com/safeher/safeher/server/models"
	"github.com/safeher/safeher/server/work"
	"github.com/safeher/safeher/utils"
)

var phoneRegexp = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ---------------------------------------------------------------------------------//
// Handler Helper functions
// --------------------------------------------------------------------------------//

func writeResponse(rw http.ResponseWriter, payload interface{}, statusCode int) {
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payload)
}

func writeError(rw http.ResponseWriter, errMsg string, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(errMsg)
	} else {
		logg.Info(errMsg)
	}

	writeResponse(rw, ErrorPayload{Error: errMsg}, statusCode)
}

func removeUnknownFields(args map[string]interface{}, validFields map[string]bool) {
	for key := range args {
		if !validFields[key] {
			delete(args, key)
		}
	}
}

func RegisterValidators(validate *validator.Validate) error {
	err := validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		// if whitespace in password return false
		err := validate.Var(fl.Field().String(), "contains= ")
		if err == nil {
			return false
		}
		return len(fl.Field().String()) >= 8
	})
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegexp.MatchString(fl.Field().String())
	})
	if err != nil {
		return err
	}

	// 'bool' on an interface{} field i.e. the value can be
	// true/false/"true"/"false"
	err = validate.RegisterValidation("bool", func(fl validator.FieldLevel) bool {
		value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		return value == "true" || value == "false"
	})
	if err != nil {
		return err
	}

	return nil
}

// issueToken signs a fresh JWT for the given user.
func issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := auth.SafeHerTokenClaims{
		Name:  user.Name,
		Email: user.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(user.ID),
			Issuer:    "safeher",
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(time.Duration(serverConfig.SafeHer.TokenExpirySecs) * time.Second).Unix(),
		},
	}

	return auth.EncodeJWT(claims, authKeyPair)
}

// registerDevice records the device a login/registration came from. Device
// info is best-effort metadata & never fails the request.
func registerDevice(user *models.User, device deviceParams) {
	if device.ID == "" {
		return
	}

	err := user.UpsertDevice(&models.Device{
		DeviceID:   device.ID,
		DeviceType: device.Type,
		OS:         device.OS,
	})
	if err != nil {
		logg.Errorf("recording device for user %v failed: %v", user.ID, err)
	}
}

// currentUser loads the user record for the verified token on the request.
// Only call it behind protectedRouteMiddleware.
func currentUser(r *http.Request) (*models.User, error) {
	decodedJWT := r.Context().Value(RequestContextKey("decodedJWT")).(DecodedJWT)
	return models.FindUserBy("id", decodedJWT.Claims.Subject)
}

// ---------------------------------------------------------------------------------//
// Middleware Helper functions
// --------------------------------------------------------------------------------//

func decodeAndVerifyAuthHeader(authHeaderValue string) DecodedJWT {
	authHeaderList := strings.Split(authHeaderValue, "Bearer ")
	if len(authHeaderList) < 2 {
		return DecodedJWT{ErrorMsg: "no token provided"}
	}

	tokenClaims, err := auth.DecodeJWT(authHeaderList[1], authKeyPair)
	if err != nil {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	// validate that the user account still exists
	_, err = models.FindUserBy("id", tokenClaims.Subject)
	if err != nil {
		return DecodedJWT{ErrorMsg: "invalid token provided"}
	}

	return DecodedJWT{Claims: tokenClaims}
}

// ---------------------------------------------------------------------------------//
// Server Helper functions
// --------------------------------------------------------------------------------//

func serve(server *http.Server) {
	logg.Infof("SafeHer server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(workerPool *work.WorkerPoolAdapter, server *http.Server, backupDb bool) {
	// Stop all background jobs i.e. alert fanout & periodic backups
	workerPool.Stop()

	if backupDb {
		backupSqliteDb(nil)
	}

	// Shutdown server gracefully
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("SafeHer server shutdown failed:%+s", err)
	}

	logg.Infof("SafeHer server stopped properly")
}

// configDirectory retrieves the directory to store safeher configs & data
// Or logs an error message and then calls os.Exit if it's unable to.
func configDirectory(devMode bool) string {
	// Use 'safeher' folder in home directory for prod
	configFolderName := "safeher"
	rootDir, err := os.UserHomeDir()
	fatalOnError(err)

	// Use 'dev' folder in current directory for dev mode
	if devMode {
		configFolderName = "dev"
		rootDir, err = os.Getwd()
		fatalOnError(err)
	}

	configDir := filepath.Join(rootDir, configFolderName)

	err = utils.CreateDirIfNotExist(configDir)
	fatalOnError(err)

	return configDir
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
