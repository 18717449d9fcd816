package llm

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ModeMock selects the offline mock client.
const ModeMock = "MOCK"

// NewClient creates the client for mode. MOCK returns a MockClient;
// any other mode talks to the OpenAI-compatible API at baseURL.
func NewClient(mode, baseURL, apiKey, model string, timeout time.Duration) Client {
	if strings.EqualFold(mode, ModeMock) {
		log.Info().Msg("LLM_MODE=MOCK, using mock analysis client")
		return NewMockClient()
	}
	return NewOpenAIClient(baseURL, apiKey, model, timeout)
}
