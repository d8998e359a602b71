package utils

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	// Server
	ServerPort  string `yaml:"SERVER_PORT"`
	CORSOrigins string `yaml:"CORS_ORIGINS"`
	LogFile     string `yaml:"LOG_FILE"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// Identity provider tokens
	JWTSecret   string `yaml:"JWT_SECRET"`
	JWTIssuer   string `yaml:"JWT_ISSUER"`
	JWTAudience string `yaml:"JWT_AUDIENCE"`

	// Mailing configuration
	AppURL           string `yaml:"APP_URL"`
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`

	// AWS S3 configuration
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`

	// LLM configuration
	OpenAIBaseURL       string `yaml:"OPENAI_BASE_URL"`
	OpenAIAPIKey        string `yaml:"OPENAI_API_KEY"`
	GeneralModel        string `yaml:"GENERAL_MODEL"`
	ChefModel           string `yaml:"CHEF_MODEL"`
	GeneralTemperature  string `yaml:"GENERAL_TEMPERATURE"`
	ModelTimeoutSeconds string `yaml:"MODEL_TIMEOUT_SECONDS"`

	// Web search
	TavilyAPIKey            string `yaml:"TAVILY_API_KEY"`
	WebSearchTimeoutSeconds string `yaml:"WEB_SEARCH_TIMEOUT_SECONDS"`

	// Agent runtime
	CheckpointDriver     string `yaml:"CHECKPOINT_DRIVER"`
	CheckpointSQLitePath string `yaml:"CHECKPOINT_SQLITE_PATH"`
	RedisAddr            string `yaml:"REDIS_ADDR"`
	RedisPassword        string `yaml:"REDIS_PASSWORD"`
	ThreadLockTTLSeconds string `yaml:"THREAD_LOCK_TTL_SECONDS"`
	HITLTools            string `yaml:"HITL_TOOLS"`
	HistoryLimit         string `yaml:"HISTORY_LIMIT"`

	// Tracing
	OTELExporterEndpoint string `yaml:"OTEL_EXPORTER_ENDPOINT"`
}

var config Config

var defaults = map[string]string{
	"SERVER_PORT":                "8080",
	"CORS_ORIGINS":               "*",
	"LOG_FILE":                   "./logs/app.log",
	"DB_PORT":                    "5432",
	"OPENAI_BASE_URL":            "https://api.openai.com/v1",
	"GENERAL_MODEL":              "gpt-4o-mini",
	"CHEF_MODEL":                 "gpt-4o-mini",
	"GENERAL_TEMPERATURE":        "0.3",
	"MODEL_TIMEOUT_SECONDS":      "120",
	"WEB_SEARCH_TIMEOUT_SECONDS": "15",
	"CHECKPOINT_DRIVER":          "postgres",
	"CHECKPOINT_SQLITE_PATH":     "./data/checkpoints.db",
	"THREAD_LOCK_TTL_SECONDS":    "300",
	"HITL_TOOLS":                 "present_recipes_for_save",
	"HISTORY_LIMIT":              "10",
	"SMTP_PORT":                  "587",
}

// LoadConfig reads config.yaml from the working directory. A missing file is
// not fatal: environment variables and defaults still apply.
func LoadConfig() {
	file, err := os.ReadFile("config.yaml")
	if err != nil {
		log.Printf("Error reading YAML file: %s\n", err)
		return
	}

	if err := yaml.Unmarshal(file, &config); err != nil {
		log.Printf("Error parsing YAML file: %s\n", err)
		return
	}
}

func fileValue(key string) string {
	switch key {
	case "SERVER_PORT":
		return config.ServerPort
	case "CORS_ORIGINS":
		return config.CORSOrigins
	case "LOG_FILE":
		return config.LogFile
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "JWT_SECRET":
		return config.JWTSecret
	case "JWT_ISSUER":
		return config.JWTIssuer
	case "JWT_AUDIENCE":
		return config.JWTAudience
	case "APP_URL":
		return config.AppURL
	case "SMTP_HOST":
		return config.SMTPHost
	case "SMTP_PORT":
		return config.SMTPPort
	case "SMTP_SENDER_NAME":
		return config.SMTPSenderName
	case "SMTP_AUTH_EMAIL":
		return config.SMTPAuthEmail
	case "SMTP_AUTH_PASSWORD":
		return config.SMTPAuthPassword
	case "AWS_S3_BUCKET":
		return config.AWSS3Bucket
	case "AWS_S3_REGION":
		return config.AWSS3Region
	case "AWS_ACCESS_KEY":
		return config.AWSAccessKey
	case "AWS_SECRET_KEY":
		return config.AWSSecretKey
	case "OPENAI_BASE_URL":
		return config.OpenAIBaseURL
	case "OPENAI_API_KEY":
		return config.OpenAIAPIKey
	case "GENERAL_MODEL":
		return config.GeneralModel
	case "CHEF_MODEL":
		return config.ChefModel
	case "GENERAL_TEMPERATURE":
		return config.GeneralTemperature
	case "MODEL_TIMEOUT_SECONDS":
		return config.ModelTimeoutSeconds
	case "TAVILY_API_KEY":
		return config.TavilyAPIKey
	case "WEB_SEARCH_TIMEOUT_SECONDS":
		return config.WebSearchTimeoutSeconds
	case "CHECKPOINT_DRIVER":
		return config.CheckpointDriver
	case "CHECKPOINT_SQLITE_PATH":
		return config.CheckpointSQLitePath
	case "REDIS_ADDR":
		return config.RedisAddr
	case "REDIS_PASSWORD":
		return config.RedisPassword
	case "THREAD_LOCK_TTL_SECONDS":
		return config.ThreadLockTTLSeconds
	case "HITL_TOOLS":
		return config.HITLTools
	case "HISTORY_LIMIT":
		return config.HistoryLimit
	case "OTEL_EXPORTER_ENDPOINT":
		return config.OTELExporterEndpoint
	default:
		return ""
	}
}

// GetConfig resolves a key from the environment first, then config.yaml, then
// the built-in default.
func GetConfig(key string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v := fileValue(key); v != "" {
		return v
	}
	return defaults[key]
}

func GetConfigInt(key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(GetConfig(key)))
	if err != nil {
		v, _ = strconv.Atoi(defaults[key])
	}
	return v
}

func GetConfigFloat(key string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(GetConfig(key)), 64)
	if err != nil {
		v, _ = strconv.ParseFloat(defaults[key], 64)
	}
	return v
}

// GetConfigList splits a comma separated value, dropping empty entries.
func GetConfigList(key string) []string {
	var out []string
	for _, part := range strings.Split(GetConfig(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
