// Package config loads the process configuration purely from environment
// variables, per the external-interfaces contract: there is no dotfile
// config loader in this system (that concern is an out-of-scope terminal
// UI / CLI concern), only a flat set of recognized variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Platform selects which Backend Adapter variant to construct.
type Platform string

const (
	PlatformAnthropic Platform = "anthropic"
	PlatformOpenAI    Platform = "openai"
	PlatformGemini    Platform = "gemini"
	PlatformKimi      Platform = "kimi"
	PlatformCLI       Platform = "cli"
)

// ToolsMode selects whether an OpenAI-compatible endpoint gets native
// function-calling or the prompt-tooling fallback.
type ToolsMode string

const (
	ToolsNative ToolsMode = "native"
	ToolsPrompt ToolsMode = "prompt"
)

// Config is every environment-derived setting the runtime needs. Device
// credentials (camera/mobility/TTS/STT) are carried as opaque strings
// since the devices themselves are external collaborators; only their
// presence/absence is meaningful to this module.
type Config struct {
	Platform Platform
	APIKey   string
	Model    string
	BaseURL  string
	ToolsMode ToolsMode

	AgentName     string
	CompanionName string

	CodingWorkdir string
	CodingBash    bool

	Embeddings EmbeddingsConfig

	Camera   CameraConfig
	Mobility MobilityConfig
	TTS      TTSConfig
	STT      STTConfig

	Locale string
}

// CameraConfig carries the PTZ camera's connection credentials. The
// camera itself is an external collaborator; this module only needs to
// know whether it is configured.
type CameraConfig struct {
	Host, Username, Password string
	Port                     string
	Go2RTCURL, StreamName    string
}

// MobilityConfig carries the wheeled-base credentials.
type MobilityConfig struct {
	APIKey, Region, DeviceID string
}

// TTSConfig carries the remote text-to-speech credentials.
type TTSConfig struct {
	APIKey, VoiceID string
}

// STTConfig carries the remote speech-to-text credentials.
type STTConfig struct {
	APIKey, Language string
}

// EmbeddingsConfig selects and configures the memory store's embedding
// encoder. Provider "ollama" (the default, fitting a local-first setup)
// needs no key; "openai" calls an OpenAI-compatible /embeddings endpoint.
type EmbeddingsConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// Load reads Config from the process environment. It does not validate
// required fields beyond what is necessary to pick a backend factory;
// missing-API-key validation happens at the call site so the caller can
// print to stderr and exit non-zero per the fatal-error class.
func Load() (*Config, error) {
	platform := Platform(strings.ToLower(strings.TrimSpace(os.Getenv("PLATFORM"))))
	switch platform {
	case PlatformAnthropic, PlatformOpenAI, PlatformGemini, PlatformKimi, PlatformCLI:
	case "":
		platform = PlatformAnthropic
	default:
		return nil, fmt.Errorf("config: unrecognized PLATFORM %q", platform)
	}

	baseURL := os.Getenv("BASE_URL")
	toolsMode := ToolsMode(strings.ToLower(strings.TrimSpace(os.Getenv("TOOLS_MODE"))))
	if toolsMode == "" {
		toolsMode = defaultToolsMode(baseURL)
	}

	cfg := &Config{
		Platform:      platform,
		APIKey:        os.Getenv("API_KEY"),
		Model:         os.Getenv("MODEL"),
		BaseURL:       baseURL,
		ToolsMode:     toolsMode,
		AgentName:     envOr("AGENT_NAME", "Familiar"),
		CompanionName: envOr("COMPANION_NAME", "Companion"),
		CodingWorkdir: os.Getenv("CODING_WORKDIR"),
		CodingBash:    envBool("CODING_BASH"),
		Embeddings: EmbeddingsConfig{
			Provider: envOr("EMBEDDINGS_PROVIDER", "ollama"),
			BaseURL:  os.Getenv("EMBEDDINGS_BASE_URL"),
			APIKey:   os.Getenv("EMBEDDINGS_API_KEY"),
			Model:    os.Getenv("EMBEDDINGS_MODEL"),
		},
		Camera: CameraConfig{
			Host:       os.Getenv("CAMERA_HOST"),
			Username:   os.Getenv("CAMERA_USERNAME"),
			Password:   os.Getenv("CAMERA_PASSWORD"),
			Port:       os.Getenv("CAMERA_PORT"),
			Go2RTCURL:  os.Getenv("CAMERA_GO2RTC_URL"),
			StreamName: os.Getenv("CAMERA_STREAM_NAME"),
		},
		Mobility: MobilityConfig{
			APIKey:   os.Getenv("MOBILITY_API_KEY"),
			Region:   os.Getenv("MOBILITY_REGION"),
			DeviceID: os.Getenv("MOBILITY_DEVICE_ID"),
		},
		TTS: TTSConfig{
			APIKey:  os.Getenv("TTS_API_KEY"),
			VoiceID: os.Getenv("TTS_VOICE_ID"),
		},
		STT: STTConfig{
			APIKey:   os.Getenv("STT_API_KEY"),
			Language: os.Getenv("STT_LANGUAGE"),
		},
		Locale: detectLocale(),
	}
	return cfg, nil
}

// defaultToolsMode mirrors the spec's default: prompt tooling for local
// servers, native function-calling for api.openai.com.
func defaultToolsMode(baseURL string) ToolsMode {
	if baseURL == "" || strings.Contains(baseURL, "api.openai.com") {
		return ToolsNative
	}
	return ToolsPrompt
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

// detectLocale resolves LANG/LC_*/LANGUAGE down to one of the supported
// locale keys, defaulting to English.
func detectLocale() string {
	for _, key := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return normalizeLocale(v)
		}
	}
	return "en"
}

func normalizeLocale(raw string) string {
	v := strings.ToLower(raw)
	v = strings.SplitN(v, ".", 2)[0]
	v = strings.SplitN(v, ":", 2)[0]
	switch {
	case strings.HasPrefix(v, "zh_tw"), strings.HasPrefix(v, "zh-tw"):
		return "zh-tw"
	case strings.HasPrefix(v, "zh"):
		return "zh"
	case strings.HasPrefix(v, "ja"):
		return "ja"
	case strings.HasPrefix(v, "fr"):
		return "fr"
	case strings.HasPrefix(v, "de"):
		return "de"
	default:
		return "en"
	}
}
