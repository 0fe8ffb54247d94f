package llmpipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBaseURLStripsV1(t *testing.T) {
	assert.Equal(t, "https://api.openai.com", normalizeBaseURL("https://api.openai.com/v1"))
	assert.Equal(t, "https://api.openai.com", normalizeBaseURL("https://api.openai.com/v1/"))
}

func TestNormalizeBaseURLStripsAPI(t *testing.T) {
	assert.Equal(t, "http://localhost:11434", normalizeBaseURL("http://localhost:11434/api"))
	assert.Equal(t, "http://localhost:11434", normalizeBaseURL("http://localhost:11434/api/"))
}

func TestNormalizeBaseURLPreservesClean(t *testing.T) {
	assert.Equal(t, "http://localhost:11434", normalizeBaseURL("http://localhost:11434"))
	assert.Equal(t, "https://api.openai.com", normalizeBaseURL("https://api.openai.com"))
}

func TestNormalizeBaseURLStripsFullPath(t *testing.T) {
	assert.Equal(t, "https://api.openai.com", normalizeBaseURL("https://api.openai.com/v1/chat/completions"))
}

func TestNormalizeBaseURLTrailingSlash(t *testing.T) {
	assert.Equal(t, "http://localhost:11434", normalizeBaseURL("http://localhost:11434/"))
}

func TestExecCtxBuilderDefaults(t *testing.T) {
	ctx := NewExecCtxBuilder("http://localhost:11434").Build()
	assert.Equal(t, "http://localhost:11434", ctx.BaseURL)
	assert.Equal(t, "ollama", ctx.Backend.String())
	assert.Equal(t, 0, ctx.Backoff.MaxRetries)
	assert.NotNil(t, ctx.Client)
}

func TestExecCtxBuilderCustomTimeout(t *testing.T) {
	ctx := NewExecCtxBuilder("http://localhost:11434").WithTimeout(120 * time.Second).Build()
	assert.Equal(t, 120*time.Second, ctx.Client.Timeout)
}

func TestExecCtxBuilderVars(t *testing.T) {
	ctx := NewExecCtxBuilder("http://localhost:11434").WithVar("domain", "science").WithVar("audience", "researchers").Build()
	assert.Equal(t, "science", ctx.Vars["domain"])
	assert.Equal(t, "researchers", ctx.Vars["audience"])
}

func TestExecCtxBuilderOpenAIKey(t *testing.T) {
	ctx := NewExecCtxBuilder("https://api.openai.com/v1").WithOpenAIKey("sk-test").Build()
	assert.Equal(t, "https://api.openai.com", ctx.BaseURL)
	assert.Contains(t, ctx.Backend.String(), "sk-tes")
}
