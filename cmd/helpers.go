package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mtgibbs/carl/internal/canvas"
	"github.com/mtgibbs/carl/internal/config"
	"github.com/mtgibbs/carl/internal/coursework"
	"github.com/mtgibbs/carl/internal/guardrail"
	"github.com/mtgibbs/carl/internal/llm"
	"github.com/mtgibbs/carl/internal/nlu"
	"github.com/mtgibbs/carl/internal/pipeline"
)

// buildPipeline assembles the full pipeline from configuration: Canvas
// client, coursework service, escalation tracker, and — when a backend
// answers the startup probe — the NLU resolver and summarizer.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, llm.Availability, error) {
	if err := cfg.Validate(); err != nil {
		return nil, llm.Availability{}, fmt.Errorf("invalid config: %w", err)
	}

	client := canvas.NewClient(cfg.Canvas.BaseURL, cfg.Canvas.Token)
	svc := coursework.New(client)
	tracker := guardrail.NewTracker()

	provider, avail, err := llm.Detect(cfg.LLM.Provider, cfg.LLM.Host, cfg.LLM.Model, os.Getenv("OPENAI_API_KEY"))
	if err != nil {
		return nil, llm.Availability{}, err
	}

	opts := []pipeline.Option{}
	if avail.Available {
		timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
		opts = append(opts,
			pipeline.WithResolver(nlu.New(provider, avail.Model, timeout)),
			pipeline.WithSummarizer(provider, avail.Model),
		)
		log.Printf("carl: using %s model %s", avail.Provider, avail.Model)
	} else {
		log.Printf("carl: no chat model available, running keyword-only")
	}

	return pipeline.New(tracker, svc, opts...), avail, nil
}
