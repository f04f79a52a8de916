// Package config exposes process-wide configuration for the model dashboard.
// All values come from environment variables with sensible defaults; an
// optional .env file next to the binary is loaded on startup.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func init() {
	// Missing .env is fine, env vars alone are enough.
	_ = godotenv.Load()
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("MDB_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("MDB_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("MDB_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/data/models/.auth"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("MDB_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/data/models/.logs"
	}
	return logFolderPath
}

func GetListen() string {
	return os.Getenv("MDB_LISTEN")
}

func GetPort() int {
	return getEnvInt("MDB_PORT", 8080)
}

func GetBasePath() string {
	basePath := os.Getenv("MDB_BASE_PATH")
	if basePath == "" {
		basePath = "/"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath
}

func GetSessionSecret() string {
	return os.Getenv("MDB_SESSION_SECRET")
}

func GetSessionMaxAge() int {
	// minutes
	return getEnvInt("MDB_SESSION_MAX_AGE", 60)
}

func GetWebDomain() string {
	return os.Getenv("MDB_WEB_DOMAIN")
}

// Ldap describes the directory service used for network logins. A zero
// Enabled value disables the directory path entirely and logins go straight
// to the local credential store.
type Ldap struct {
	Enabled        bool
	ServerURL      string
	BaseDN         string
	UserDNTemplate string
	SearchFilter   string
	RequiredGroup  string
	GroupAttribute string
	Timeout        time.Duration
}

func GetLdap() Ldap {
	return Ldap{
		Enabled:        os.Getenv("LDAP_ENABLED") == "true",
		ServerURL:      getEnvDefault("LDAP_SERVER", "ldap://ldap.example.com:389"),
		BaseDN:         getEnvDefault("LDAP_BASE_DN", "dc=example,dc=com"),
		UserDNTemplate: getEnvDefault("LDAP_USER_DN_TEMPLATE", "uid={username},ou=users,dc=example,dc=com"),
		SearchFilter:   getEnvDefault("LDAP_SEARCH_FILTER", "(uid={username})"),
		RequiredGroup:  getEnvDefault("LDAP_REQUIRED_GROUP", "cn=model-dashboard-users,ou=groups,dc=example,dc=com"),
		GroupAttribute: getEnvDefault("LDAP_GROUP_ATTRIBUTE", "memberOf"),
		Timeout:        time.Duration(getEnvInt("LDAP_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

// ObjectStore describes the S3-compatible bucket holding model records.
type ObjectStore struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

func GetObjectStore() ObjectStore {
	host := getEnvDefault("MINIO_HOST", "127.0.0.1")
	port := getEnvInt("MINIO_PORT", 9000)
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = fmt.Sprintf("http://%s:%d", host, port)
	}
	return ObjectStore{
		Endpoint:  endpoint,
		Region:    getEnvDefault("MINIO_REGION", "us-east-1"),
		Bucket:    getEnvDefault("MINIO_BUCKET", "argo-models"),
		AccessKey: getEnvDefault("MINIO_USERNAME", "minioadmin"),
		SecretKey: getEnvDefault("MINIO_PASSWORD", "minioadmin"),
	}
}

// GetTokenExpiryDays returns the default TTL for newly issued API tokens.
func GetTokenExpiryDays() int {
	return getEnvInt("API_TOKEN_EXPIRY_DAYS", 30)
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
