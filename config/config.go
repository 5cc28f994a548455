package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lpernett/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is process-wide, loaded once at startup and read-only afterwards.
type Config struct {
	HTTPAddress   string
	AllowedOrigin string

	RedisAddr     string
	RedisPassword string

	OpenAIAPIKey string
	ChatModel    string
	VisionModel  string
	TTSModel     string
	TTSVoice     string
	EmbedModel   string

	DeepgramAPIKey string
	DeepgramModel  string

	PineconeAPIKey string
	PineconeIndex  string

	// FilesRoot is the only directory file commands may touch.
	FilesRoot string
	// DangerousCommands gates destructive operations (delete, shutdown,
	// restart). When false they require an explicit confirmation.
	DangerousCommands bool

	// Upper bound for one language/vision model call.
	AITimeout time.Duration
	// Upper bound for synthesizing one reply; on expiry the result ships
	// without audio.
	TTSTimeout time.Duration

	MonitorInterval time.Duration

	// AppAliases maps spoken application names to executables.
	AppAliases map[string]string
	// PlatformAliases maps spoken messaging platform names to executables.
	PlatformAliases map[string]string
}

func defaultAppAliases() map[string]string {
	return map[string]string{
		"notepad":    "gedit",
		"editor":     "gedit",
		"calculator": "gnome-calculator",
		"chrome":     "google-chrome",
		"browser":    "google-chrome",
		"firefox":    "firefox",
		"files":      "nautilus",
		"explorer":   "nautilus",
		"terminal":   "gnome-terminal",
		"paint":      "gimp",
	}
}

func defaultPlatformAliases() map[string]string {
	return map[string]string{
		"whatsapp": "whatsapp-desktop",
		"telegram": "telegram-desktop",
		"slack":    "slack",
		"discord":  "discord",
	}
}

// Load reads environment variables and optional alias overrides, returning a
// Config with working defaults for everything but API keys.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("no .env file loaded", zap.Error(err))
	}

	home, _ := os.UserHomeDir()
	cfg := Config{
		HTTPAddress:   getEnvDefault("HTTP_ADDRESS", ":8080"),
		AllowedOrigin: getEnvDefault("ALLOWED_ORIGIN", "*"),

		RedisAddr:     getEnvDefault("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		ChatModel:    getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		VisionModel:  getEnvDefault("OPENAI_VISION_MODEL", "gpt-4o"),
		TTSModel:     getEnvDefault("OPENAI_TTS_MODEL", "tts-1"),
		TTSVoice:     getEnvDefault("OPENAI_TTS_VOICE", "onyx"),
		EmbedModel:   getEnvDefault("OPENAI_EMBED_MODEL", "text-embedding-ada-002"),

		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramModel:  getEnvDefault("DEEPGRAM_MODEL", "nova-2"),

		PineconeAPIKey: os.Getenv("PINECONE_API_KEY"),
		PineconeIndex:  os.Getenv("PINECONE_INDEX"),

		FilesRoot:         getEnvDefault("FILES_ROOT", filepath.Join(home, "Documents")),
		DangerousCommands: getEnvBool("ENABLE_DANGEROUS_COMMANDS", false),

		AITimeout:       getEnvDuration("AI_TIMEOUT", 8*time.Second),
		TTSTimeout:      getEnvDuration("TTS_TIMEOUT", 3*time.Second),
		MonitorInterval: getEnvDuration("MONITOR_INTERVAL", time.Minute),

		AppAliases:      defaultAppAliases(),
		PlatformAliases: defaultPlatformAliases(),
	}

	if path := os.Getenv("APP_ALIASES_FILE"); path != "" {
		if err := mergeAliasFile(path, cfg.AppAliases, cfg.PlatformAliases); err != nil {
			zap.L().Warn("failed to load alias file", zap.String("path", path), zap.Error(err))
		}
	}

	if cfg.OpenAIAPIKey == "" {
		zap.L().Warn("OPENAI_API_KEY not set; conversational and vision commands will fail")
	}
	return cfg
}

type aliasFile struct {
	Apps      map[string]string `yaml:"apps"`
	Platforms map[string]string `yaml:"platforms"`
}

func mergeAliasFile(path string, apps, platforms map[string]string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var af aliasFile
	if err := yaml.Unmarshal(raw, &af); err != nil {
		return err
	}
	for k, v := range af.Apps {
		apps[strings.ToLower(k)] = v
	}
	for k, v := range af.Platforms {
		platforms[strings.ToLower(k)] = v
	}
	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}
