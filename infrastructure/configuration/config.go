package configuration

import (
	"fmt"
	"os"
	"strconv"

	"tubedigest/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	OAuth       OAuth       `json:"oauth"`
	Pubsub      Pubsub      `json:"pubsub"`
	Frontend    Frontend    `json:"frontend"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
	// TokenEncKey is the hex-encoded 32-byte key for credential encryption.
	// When empty a development-only key is derived; see securetoken.
	TokenEncKey string `json:"tokenEncKey"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// OAuth holds the Google client used for the YouTube account connection.
type OAuth struct {
	Google OAuthClient `json:"google"`
}

type OAuthClient struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

// Frontend holds the routes the backend redirects the browser to after the
// OAuth callback.
type Frontend struct {
	BaseURL string `json:"baseURL"`
}

var C Config

func init() {
	LoadConfig()
	initApp(&C)
	initDatabase(&C)
	initOAuth(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	if v := os.Getenv("TOKEN_ENC_KEY"); v != "" {
		C.App.TokenEncKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10002
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10002
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; session authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	// Optional MSSQL config via environment variables (Azure SQL in production)
	if v := os.Getenv("MSSQL_DB_NAME"); v != "" && C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = v
	}
	if v := os.Getenv("MSSQL_HOST"); v != "" && C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = v
	}
	if v := os.Getenv("MSSQL_USER"); v != "" && C.Database.Mssql.User == "" {
		C.Database.Mssql.User = v
	}
	if v := os.Getenv("MSSQL_PASSWORD"); v != "" && C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = v
	}
	if C.Database.Mssql.Port == "" {
		if v := os.Getenv("MSSQL_PORT"); v != "" {
			C.Database.Mssql.Port = v
		} else {
			C.Database.Mssql.Port = "1433"
		}
	}

	if C.RedisClient.Host == "" {
		C.RedisClient.Host = os.Getenv("REDIS_HOST")
	}
	if C.RedisClient.Port == "" {
		if v := os.Getenv("REDIS_PORT"); v != "" {
			C.RedisClient.Port = v
		} else {
			C.RedisClient.Port = "6379"
		}
	}
	if C.RedisClient.Password == "" {
		C.RedisClient.Password = os.Getenv("REDIS_PASSWORD")
	}
}

func initOAuth(C *Config) {
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		C.OAuth.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		C.OAuth.Google.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_REDIRECT_URL"); v != "" {
		C.OAuth.Google.RedirectURI = v
	}
	if C.OAuth.Google.RedirectURI == "" {
		C.OAuth.Google.RedirectURI = fmt.Sprintf("http://localhost:%d/auth/google/callback", C.App.Port)
	}
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		C.Pubsub.ProjectID = v
	}
	if C.Pubsub.Topic == "" {
		C.Pubsub.Topic = "selection-changed"
	}
	if v := os.Getenv("FRONTEND_BASE_URL"); v != "" {
		C.Frontend.BaseURL = v
	}
	if C.Frontend.BaseURL == "" {
		C.Frontend.BaseURL = "http://localhost:4200"
	}
}
