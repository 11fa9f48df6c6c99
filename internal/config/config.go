package config

import (
	"fmt"
	"os"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DiscordConfig stores Discord specific configurations.
type DiscordConfig struct {
	BotToken      string             `yaml:"bot_token"`
	ApplicationID *discord.Snowflake `yaml:"application_id"`
	GuildIDs      []string           `yaml:"guild_ids"`
}

// OpenAIConfig stores OpenAI specific configurations.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key"`
	ChatModel    string `yaml:"chat_model"`
	ImageModel   string `yaml:"image_model"`
	SpeechModel  string `yaml:"speech_model"`
	SpeechVoice  string `yaml:"speech_voice"`
	MaxTokens    int    `yaml:"max_tokens"`
	SystemPrompt string `yaml:"system_prompt"`
}

// DataConfig stores paths for generated media artifacts.
type DataConfig struct {
	Dir        string `yaml:"dir"`
	SpeechFile string `yaml:"speech_file"`
}

// VoiceConfig stores voice session tuning knobs.
type VoiceConfig struct {
	// DecodeReceived enables Opus decoding of inbound voice frames so that
	// tick records carry decoded sample data.
	DecodeReceived      bool `yaml:"decode_received"`
	PlaybackQueueSize   int  `yaml:"playback_queue_size"`
	CompletionCacheSize int  `yaml:"completion_cache_size"`
}

// Config stores the application configuration.
type Config struct {
	Discord  DiscordConfig `yaml:"discord"`
	OpenAI   OpenAIConfig  `yaml:"openai"`
	Data     DataConfig    `yaml:"data"`
	Voice    VoiceConfig   `yaml:"voice"`
	LogLevel string        `yaml:"log_level"`
}

// Defaults applied after loading when the corresponding field is unset.
const (
	DefaultChatModel           = "gpt-4o"
	DefaultImageModel          = "dall-e-3"
	DefaultSpeechModel         = "tts-1-hd"
	DefaultSpeechVoice         = "echo"
	DefaultMaxTokens           = 512
	DefaultSystemPrompt        = "Your name is Knocker. You're a conversational chatbot in a Discord server."
	DefaultDataDir             = "./data"
	DefaultSpeechFile          = "speech.mp3"
	DefaultPlaybackQueueSize   = 16
	DefaultCompletionCacheSize = 64
)

// LoadConfig loads the configuration from the given file path. A .env file
// in the working directory is honored if present, and the DISCORD_TOKEN,
// OPENAI_API_KEY and LOG_LEVEL environment variables override the file.
func LoadConfig(filePath string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		c.Discord.BotToken = token
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.OpenAI.APIKey = key
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

func (c *Config) applyDefaults() {
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = DefaultChatModel
	}
	if c.OpenAI.ImageModel == "" {
		c.OpenAI.ImageModel = DefaultImageModel
	}
	if c.OpenAI.SpeechModel == "" {
		c.OpenAI.SpeechModel = DefaultSpeechModel
	}
	if c.OpenAI.SpeechVoice == "" {
		c.OpenAI.SpeechVoice = DefaultSpeechVoice
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = DefaultMaxTokens
	}
	if c.OpenAI.SystemPrompt == "" {
		c.OpenAI.SystemPrompt = DefaultSystemPrompt
	}
	if c.Data.Dir == "" {
		c.Data.Dir = DefaultDataDir
	}
	if c.Data.SpeechFile == "" {
		c.Data.SpeechFile = DefaultSpeechFile
	}
	if c.Voice.PlaybackQueueSize == 0 {
		c.Voice.PlaybackQueueSize = DefaultPlaybackQueueSize
	}
	if c.Voice.CompletionCacheSize == 0 {
		c.Voice.CompletionCacheSize = DefaultCompletionCacheSize
	}
}
