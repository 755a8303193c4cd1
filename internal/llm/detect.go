package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// tagTimeout bounds the startup model-discovery probe. A daemon that can't
// list its models in five seconds isn't going to answer chat requests
// either.
const tagTimeout = 5 * time.Second

// Availability records whether a chat backend was reachable at startup and
// which model was selected. It is set once and read thereafter.
type Availability struct {
	Available bool
	Provider  string
	Model     string
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// DetectOllama probes the Ollama daemon at baseURL and picks a model.
// The preferred model is used when installed; otherwise the first
// installed model wins. An unreachable daemon or an empty model list
// yields Available=false, never an error: carl runs fine without a model.
func DetectOllama(baseURL, preferred string) Availability {
	ctx, cancel := context.WithTimeout(context.Background(), tagTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return Availability{}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Availability{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Availability{}
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return Availability{}
	}
	if len(tags.Models) == 0 {
		return Availability{}
	}

	model := tags.Models[0].Name
	for _, m := range tags.Models {
		if m.Name == preferred || strings.SplitN(m.Name, ":", 2)[0] == preferred {
			model = m.Name
			break
		}
	}

	return Availability{Available: true, Provider: "ollama", Model: model}
}

// Detect resolves the configured provider into an Availability plus a
// ready-to-use Provider. For "ollama" it probes the daemon; for "openai"
// an API key is all that's needed.
func Detect(providerType, host, model, openAIKey string) (Provider, Availability, error) {
	switch providerType {
	case "ollama":
		avail := DetectOllama(host, model)
		if !avail.Available {
			return nil, avail, nil
		}
		return NewOllamaProvider(host, avail.Model), avail, nil

	case "openai":
		if openAIKey == "" {
			return nil, Availability{}, nil
		}
		// The hosted API enforces per-minute quotas; stay under them
		// instead of eating 429s.
		provider := NewRateLimitedProvider(NewOpenAIProvider(openAIKey, model), defaultOpenAIRPM)
		return provider, Availability{Available: true, Provider: "openai", Model: model}, nil

	case "", "none":
		return nil, Availability{}, nil

	default:
		return nil, Availability{}, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
