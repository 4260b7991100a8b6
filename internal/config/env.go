package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDSN      string
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	BillsDir   string
	RedisURL   string
	GeoDBURL   string
	CORSOrigin []string

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string
}

const defaultGeoDBURL = "http://geodb-free-service.wirefreethought.com/v1/geo"

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env: %v", err)
	}

	env := Env{
		AppAddr:           getenv("APP_ADDR", ":8081"),
		GinMode:           getenv("GIN_MODE", ""),
		DBDSN:             getenv("DB_DSN", ""),
		DBUser:            getenv("DB_USER", "root"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBHost:            getenv("DB_HOST", "127.0.0.1:3306"),
		DBName:            getenv("DB_NAME", "travel_agency"),
		BillsDir:          getenv("BILLS_DIR", "bills"),
		RedisURL:          getenv("REDIS_URL", ""),
		GeoDBURL:          getenv("GEODB_BASE_URL", defaultGeoDBURL),
		JWTSecret:         getenv("JWT_SECRET", ""),
		AdminUsername:     getenv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getenv("ADMIN_PASSWORD_HASH", ""),
	}
	if raw := getenv("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.CORSOrigin = append(env.CORSOrigin, o)
			}
		}
	}
	return env
}

// DSN builds the MySQL connection string unless DB_DSN overrides it.
func (e Env) DSN() string {
	if e.DBDSN != "" {
		return e.DBDSN
	}
	cfg := mysql.NewConfig()
	cfg.User = e.DBUser
	cfg.Passwd = e.DBPassword
	cfg.Net = "tcp"
	cfg.Addr = e.DBHost
	cfg.DBName = e.DBName
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	cfg.Timeout = 5 * time.Second
	cfg.ReadTimeout = 30 * time.Second
	cfg.WriteTimeout = 30 * time.Second
	return cfg.FormatDSN()
}

// AdminAuthEnabled reports whether admin routes require a token.
func (e Env) AdminAuthEnabled() bool {
	return e.AdminPasswordHash != "" && e.JWTSecret != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
