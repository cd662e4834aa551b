package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Cache     CacheConfig
	Inventory InventoryConfig
	Documents DocumentsConfig
	Storage   StorageConfig
	Catalog   CatalogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConcurrentTx int
}

type AppConfig struct {
	UploadDir string
	DataDir   string
	LogLevel  string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

// InventoryConfig holds the classification knobs of the derivation engine.
type InventoryConfig struct {
	StockLowThreshold      int
	StockCriticalThreshold int
	DefaultTargetDays      int
	WarningWindowDays      int
	TopOutboundLimit       int
}

// DocumentsConfig controls document numbering.
type DocumentsConfig struct {
	BASequencePolicy string
	LH05UnitCode     string
}

// StorageConfig points at the S3-compatible bucket holding signature images.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// CatalogConfig locates the part catalogue spreadsheet, locally or on Google Drive.
type CatalogConfig struct {
	LocalPath       string
	Sheet           string
	DriveFolderID   string
	CredentialsPath string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_DATA_DIR"))

		instance = fromViper()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "material_tracker")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_MAX_CONCURRENT_TX", 10)
	viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	viper.SetDefault("APP_DATA_DIR", "./data/output")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_REPORT_TTL_SECONDS", 60)
	viper.SetDefault("STOCK_LOW_THRESHOLD", 5)
	viper.SetDefault("STOCK_CRITICAL_THRESHOLD", 10)
	viper.SetDefault("AGE_DEFAULT_TARGET_DAYS", 365)
	viper.SetDefault("AGE_WARNING_WINDOW_DAYS", 20)
	viper.SetDefault("TOP_OUTBOUND_LIMIT", 5)
	viper.SetDefault("BA_SEQUENCE_POLICY", "global")
	viper.SetDefault("LH05_UNIT_CODE", "ND KAL 2")
	viper.SetDefault("STORAGE_ENABLED", false)
	viper.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	viper.SetDefault("STORAGE_BUCKET", "signatures")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", false)
	viper.SetDefault("CATALOG_LOCAL_PATH", "")
	viper.SetDefault("CATALOG_SHEET", "")
	viper.SetDefault("CATALOG_DRIVE_FOLDER_ID", "")
	viper.SetDefault("GOOGLE_APPLICATION_CREDENTIALS", "")
}

func fromViper() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxConcurrentTx: viper.GetInt("DB_MAX_CONCURRENT_TX"),
		},
		App: AppConfig{
			UploadDir: viper.GetString("APP_UPLOAD_DIR"),
			DataDir:   viper.GetString("APP_DATA_DIR"),
			LogLevel:  viper.GetString("LOG_LEVEL"),
		},
		Cache: CacheConfig{
			Enabled:          viper.GetBool("CACHE_ENABLED"),
			RedisURL:         viper.GetString("REDIS_URL"),
			RedisHost:        viper.GetString("REDIS_HOST"),
			RedisPort:        viper.GetString("REDIS_PORT"),
			RedisPassword:    viper.GetString("REDIS_PASSWORD"),
			RedisDB:          viper.GetInt("REDIS_DB"),
			ReportTTLSeconds: viper.GetInt("CACHE_REPORT_TTL_SECONDS"),
		},
		Inventory: InventoryConfig{
			StockLowThreshold:      viper.GetInt("STOCK_LOW_THRESHOLD"),
			StockCriticalThreshold: viper.GetInt("STOCK_CRITICAL_THRESHOLD"),
			DefaultTargetDays:      viper.GetInt("AGE_DEFAULT_TARGET_DAYS"),
			WarningWindowDays:      viper.GetInt("AGE_WARNING_WINDOW_DAYS"),
			TopOutboundLimit:       viper.GetInt("TOP_OUTBOUND_LIMIT"),
		},
		Documents: DocumentsConfig{
			BASequencePolicy: viper.GetString("BA_SEQUENCE_POLICY"),
			LH05UnitCode:     viper.GetString("LH05_UNIT_CODE"),
		},
		Storage: StorageConfig{
			Enabled:   viper.GetBool("STORAGE_ENABLED"),
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
		},
		Catalog: CatalogConfig{
			LocalPath:       viper.GetString("CATALOG_LOCAL_PATH"),
			Sheet:           viper.GetString("CATALOG_SHEET"),
			DriveFolderID:   viper.GetString("CATALOG_DRIVE_FOLDER_ID"),
			CredentialsPath: viper.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		},
	}
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
