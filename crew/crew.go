// Package crew provides the default round executor: an analyst model writes the draft and a
// reviewer model critiques it.
//
// Each round makes two streaming model calls. The producer role is announced before the first
// call and the critic role before the second, and every chunk is reported as a fragment, so a
// controller sees the producer to critic handoff exactly when the draft is complete.
//
//	model, _ := models.NewOllama("qwen2.5:3b", "http://localhost:11434")
//	exec := crew.New(model, model)
//	ctrl := controller.New(exec, refine.DefaultConfig())
package crew

import (
	"context"
	"fmt"

	"github.com/rickchristie/refine"
	"go.uber.org/zap"
)

// Crew is a refine.RoundExecutor backed by two models. It holds no per-session state and is
// safe for concurrent use.
type Crew struct {
	producer          refine.Model
	critic            refine.Model
	producerTemplates Templates
	criticTemplates   Templates
	logger            *zap.Logger
}

// New creates a Crew. producer and critic may be the same model.
func New(producer, critic refine.Model) *Crew {
	return &Crew{
		producer:          producer,
		critic:            critic,
		producerTemplates: DefaultProducerTemplates,
		criticTemplates:   DefaultCriticTemplates,
		logger:            zap.NewNop(),
	}
}

// WithProducerTemplates replaces the producer prompts. Nil templates keep the current ones.
// Returns the crew for chaining.
func (c *Crew) WithProducerTemplates(t Templates) *Crew {
	c.producerTemplates = merge(c.producerTemplates, t)
	return c
}

// WithCriticTemplates replaces the critic prompts. Nil templates keep the current ones.
// Returns the crew for chaining.
func (c *Crew) WithCriticTemplates(t Templates) *Crew {
	c.criticTemplates = merge(c.criticTemplates, t)
	return c
}

// WithLogger sets the logger. Returns the crew for chaining.
func (c *Crew) WithLogger(logger *zap.Logger) *Crew {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func merge(base, override Templates) Templates {
	if override.System != nil {
		base.System = override.System
	}
	if override.User != nil {
		base.User = override.User
	}
	return base
}

// ExecuteRound implements refine.RoundExecutor.
func (c *Crew) ExecuteRound(
	ctx context.Context,
	in refine.RoundInput,
	sub *refine.Subscription,
) (refine.RoundOutput, error) {
	prompt, err := render(c.producerTemplates, PromptData{
		Subject:  in.Subject,
		Round:    in.Round,
		Draft:    in.Draft,
		Feedback: in.Feedback,
	})
	if err != nil {
		return refine.RoundOutput{}, fmt.Errorf("producer prompt: %w", err)
	}

	sub.RoleChange(refine.RoleProducer)
	draft, err := c.producer.GenerateStream(ctx, prompt, fragments(sub))
	if err != nil {
		return refine.RoundOutput{}, fmt.Errorf("producer: %w", err)
	}
	c.logGeneration("producer", in.Round, draft)

	prompt, err = render(c.criticTemplates, PromptData{
		Subject: in.Subject,
		Round:   in.Round,
		Draft:   draft.Content,
	})
	if err != nil {
		return refine.RoundOutput{}, fmt.Errorf("critic prompt: %w", err)
	}

	sub.RoleChange(refine.RoleCritic)
	critique, err := c.critic.GenerateStream(ctx, prompt, fragments(sub))
	if err != nil {
		return refine.RoundOutput{}, fmt.Errorf("critic: %w", err)
	}
	c.logGeneration("critic", in.Round, critique)

	return refine.RoundOutput{
		Producer: draft.Content,
		Critic:   critique.Content,
	}, nil
}

func (c *Crew) logGeneration(role string, round int, completion *refine.Completion) {
	fields := []zap.Field{
		zap.String("role", role),
		zap.Int("round", round),
		zap.Int("chars", len(completion.Content)),
	}
	if info := completion.Info; info != nil {
		fields = append(fields,
			zap.Int("input_tokens", info.InputTokens),
			zap.Int("output_tokens", info.OutputTokens),
			zap.Duration("duration", info.Duration),
		)
	}
	c.logger.Debug("generation finished", fields...)
}

func render(t Templates, data PromptData) (refine.Prompt, error) {
	system, err := ExecuteTemplate(t.System, data)
	if err != nil {
		return refine.Prompt{}, err
	}
	user, err := ExecuteTemplate(t.User, data)
	if err != nil {
		return refine.Prompt{}, err
	}
	return refine.Prompt{System: system, User: user}, nil
}

func fragments(sub *refine.Subscription) func(string) error {
	return func(chunk string) error {
		sub.Fragment(chunk)
		return nil
	}
}

var _ refine.RoundExecutor = (*Crew)(nil)
