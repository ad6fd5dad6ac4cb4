package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	Port        = "8080"
	ContentPath = "./content"
	DataPath    = "./data/site.yaml"
	StaticPath  = "./static"
	MediaFolder = "img"
	DBPath      = "./blog.db"

	// SessionSecret signs the session cookie. When empty a random per-process
	// key is used, see SessionKey.
	SessionSecret = ""

	// Password gate settings
	DefaultPostPassword = "123456"
	PrivatePassword     = "123456"
	AuthTTL             = 24 * time.Hour
	WrongPasswordDelay  = 1500 * time.Millisecond

	// Upstream APIs
	UpstreamTimeout        = 10 * time.Second
	QWeatherAPIKey         = ""
	WeatherDefaultLocation = "101010100"
	GeoDefaultLocation     = "南京"
	WeatherAPIURL          = "https://devapi.qweather.com/v7/weather/now"
	GeoAPIURL              = "https://geoapi.qweather.com/v2/city/lookup"
	LocationAPIURL         = "https://ipapi.co"
	QuoteAPIURL            = "https://open.iciba.com/dsapi/"

	// Telegram relay
	TelegramAPIURL   = "https://api.telegram.org"
	TelegramBotToken = ""
	TelegramChatID   = ""
	NotifyTimezone   = "Asia/Shanghai"

	// View tracking
	MaxTrackedArticles = 100

	WatchContent = true

	// Admin / git settings
	AdminGithubLogin = ""
	GitRemote        = "origin"
	GitBranch        = "main"
)

var OauthConf *oauth2.Config

// placeholderSecret is the value shipped in .env.example; it is never accepted.
const placeholderSecret = "change-me"

var (
	randomKeyOnce sync.Once
	randomKey     []byte
)

// SessionKey returns the key for signing session cookies. Without a usable
// SESSION_SECRET it falls back to a random key generated once per process, so
// sessions do not survive a restart but cannot be forged either.
func SessionKey() []byte {
	if SessionSecret != "" && SessionSecret != placeholderSecret {
		return []byte(SessionSecret)
	}
	randomKeyOnce.Do(func() {
		fmt.Println("SESSION_SECRET is unset or a placeholder; using a random session key. Sessions will not survive a restart.")
		randomKey = make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			panic(fmt.Sprintf("generate session key: %v", err))
		}
	})
	return randomKey
}

// Init loads the .env file (if any) and populates the package settings.
func Init(envFiles ...string) {
	if err := godotenv.Load(envFiles...); err != nil {
		fmt.Println("No .env file found or error loading it.")
	}

	// Helper to get env with default
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	getDuration := func(key string, fallback time.Duration) time.Duration {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
			fmt.Printf("Invalid duration for %s: %q, using %s\n", key, v, fallback)
		}
		return fallback
	}

	appURL := GetAppURL()
	redirectURL := getEnv("GITHUB_REDIRECT_URL", appURL+"/auth/callback")

	Port = getEnv("PORT", "8080")
	ContentPath = getEnv("CONTENT_PATH", "./content")
	DataPath = getEnv("DATA_PATH", "./data/site.yaml")
	StaticPath = getEnv("STATIC_PATH", "./static")
	MediaFolder = getEnv("MEDIA_FOLDER", "img")
	DBPath = getEnv("DB_PATH", "./blog.db")
	SessionSecret = os.Getenv("SESSION_SECRET")

	DefaultPostPassword = getEnv("DEFAULT_POST_PASSWORD", "123456")
	PrivatePassword = getEnv("PRIVATE_PASSWORD", "123456")
	AuthTTL = getDuration("AUTH_TTL", 24*time.Hour)
	WrongPasswordDelay = getDuration("WRONG_PASSWORD_DELAY", 1500*time.Millisecond)

	UpstreamTimeout = getDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	QWeatherAPIKey = os.Getenv("QWEATHER_API_KEY")
	WeatherDefaultLocation = getEnv("WEATHER_DEFAULT_LOCATION", "101010100")
	GeoDefaultLocation = getEnv("GEO_DEFAULT_LOCATION", "南京")
	WeatherAPIURL = getEnv("WEATHER_API_URL", "https://devapi.qweather.com/v7/weather/now")
	GeoAPIURL = getEnv("GEO_API_URL", "https://geoapi.qweather.com/v2/city/lookup")
	LocationAPIURL = getEnv("LOCATION_API_URL", "https://ipapi.co")
	QuoteAPIURL = getEnv("QUOTE_API_URL", "https://open.iciba.com/dsapi/")

	TelegramAPIURL = getEnv("TELEGRAM_API_URL", "https://api.telegram.org")
	TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	NotifyTimezone = getEnv("NOTIFY_TIMEZONE", "Asia/Shanghai")

	if v := os.Getenv("MAX_TRACKED_ARTICLES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			MaxTrackedArticles = val
		}
	}
	if v := os.Getenv("WATCH_CONTENT"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			WatchContent = val
		}
	}

	AdminGithubLogin = os.Getenv("ADMIN_GITHUB_LOGIN")
	GitRemote = getEnv("GIT_REMOTE", "origin")
	GitBranch = getEnv("GIT_BRANCH", "main")

	OauthConf = &oauth2.Config{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		Scopes:       []string{"repo", "read:user"},
		Endpoint:     github.Endpoint,
		RedirectURL:  redirectURL,
	}
}

func GetAppURL() string {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}
	return appURL
}
