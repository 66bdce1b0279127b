package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PLATFORM", "API_KEY", "MODEL", "BASE_URL", "TOOLS_MODE",
		"AGENT_NAME", "COMPANION_NAME", "CODING_WORKDIR", "CODING_BASH",
		"EMBEDDINGS_PROVIDER", "EMBEDDINGS_BASE_URL", "EMBEDDINGS_API_KEY", "EMBEDDINGS_MODEL",
		"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PlatformAnthropic, cfg.Platform)
	assert.Equal(t, "Familiar", cfg.AgentName)
	assert.Equal(t, "Companion", cfg.CompanionName)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.False(t, cfg.CodingBash)
	assert.Equal(t, "en", cfg.Locale)
}

func TestLoadRejectsUnknownPlatform(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PLATFORM", "carrier-pigeon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadPlatformIsCaseInsensitive(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PLATFORM", "OpenAI")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PlatformOpenAI, cfg.Platform)
}

func TestDefaultToolsModeNativeForOpenAIAPI(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("BASE_URL", "https://api.openai.com/v1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ToolsNative, cfg.ToolsMode)
}

func TestDefaultToolsModePromptForLocalServer(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("BASE_URL", "http://localhost:8080/v1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ToolsPrompt, cfg.ToolsMode)
}

func TestExplicitToolsModeOverridesDefault(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("BASE_URL", "https://api.openai.com/v1")
	t.Setenv("TOOLS_MODE", "prompt")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ToolsPrompt, cfg.ToolsMode)
}

func TestEnvBoolRecognizesTruthyVariants(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "on"} {
		t.Setenv("CODING_BASH", v)
		assert.True(t, envBool("CODING_BASH"), v)
	}
}

func TestEnvBoolRejectsEverythingElse(t *testing.T) {
	t.Setenv("CODING_BASH", "nope")
	assert.False(t, envBool("CODING_BASH"))
}

func TestDetectLocaleNormalizesVariants(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LANG", "zh_TW.UTF-8")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "zh-tw", cfg.Locale)
}

func TestDetectLocaleFallsBackToEnglish(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LANG", "ko_KR.UTF-8")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Locale)
}
