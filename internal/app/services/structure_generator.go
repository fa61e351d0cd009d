package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkaya/coursebuilder/internal/app/models"
	"github.com/mkaya/coursebuilder/internal/pkg/llm"
	"github.com/mkaya/coursebuilder/internal/pkg/logger"
)

// GenerationResult is the outcome of a structure-generation run: the
// grouping itself plus where it came from.
type GenerationResult struct {
	Structure models.ProposedStructure
	Source    models.StructureSource
}

// structureStrategy is one way of producing a course structure from a
// lesson pool. Strategies are tried in order; the first valid result wins.
type structureStrategy interface {
	name() string
	source() models.StructureSource
	generate(ctx context.Context, path []models.TopicInput, skills []string, pool []models.LessonContent) (*models.ProposedStructure, error)
}

// StructureGenerator turns a lesson pool into a Topic→Module→Lesson
// grouping. The AI strategy is attempted first when a provider is
// configured; the deterministic fallback closes the chain and cannot fail.
type StructureGenerator struct {
	strategies []structureStrategy
	log        zerolog.Logger
}

// NewStructureGenerator builds the strategy chain. Passing a nil provider
// disables the AI strategy entirely.
func NewStructureGenerator(provider llm.Provider, temperature float64, timeout time.Duration) *StructureGenerator {
	strategies := []structureStrategy{}
	if provider != nil {
		strategies = append(strategies, &aiStrategy{
			provider:    provider,
			temperature: temperature,
			timeout:     timeout,
		})
	}
	strategies = append(strategies, &fallbackStrategy{})

	return &StructureGenerator{
		strategies: strategies,
		log:        logger.With("structure_generator"),
	}
}

// Generate runs the strategy chain. The returned structure only ever
// references lesson ids present in the pool, with duplicates removed
// (first occurrence wins).
func (g *StructureGenerator) Generate(ctx context.Context, path []models.TopicInput, skills []string, pool []models.LessonContent) GenerationResult {
	poolIDs := make(map[string]struct{}, len(pool))
	for _, lesson := range pool {
		poolIDs[lesson.LessonID] = struct{}{}
	}

	for _, strategy := range g.strategies {
		structure, err := strategy.generate(ctx, path, skills, pool)
		if err != nil {
			g.log.Warn().Err(err).Str("strategy", strategy.name()).Msg("Structure strategy failed, trying next")
			continue
		}

		if err := validateStructure(structure, poolIDs); err != nil {
			g.log.Warn().Err(err).Str("strategy", strategy.name()).Msg("Structure strategy produced invalid result, trying next")
			continue
		}

		dedupeLessonIDs(structure)
		g.log.Info().
			Str("strategy", strategy.name()).
			Int("topics", len(structure.Topics)).
			Int("modules", structure.ModuleCount()).
			Int("lessons", structure.LessonCount()).
			Msg("Course structure generated")

		return GenerationResult{Structure: *structure, Source: strategy.source()}
	}

	// The fallback strategy always produces a valid structure, so this
	// is unreachable unless the chain is misconfigured.
	g.log.Error().Msg("All structure strategies failed")
	return GenerationResult{Source: models.StructureSourceFallback}
}

// validateStructure rejects proposals that reference lesson ids outside
// the pool or contain no lesson assignments at all.
func validateStructure(structure *models.ProposedStructure, poolIDs map[string]struct{}) error {
	if structure == nil || len(structure.Topics) == 0 {
		return fmt.Errorf("structure has no topics")
	}

	referenced := 0
	for _, topic := range structure.Topics {
		if strings.TrimSpace(topic.TopicName) == "" {
			return fmt.Errorf("structure contains a topic without a name")
		}
		for _, module := range topic.Modules {
			for _, id := range module.LessonIDs {
				if _, ok := poolIDs[id]; !ok {
					return fmt.Errorf("structure references unknown lesson id %q", id)
				}
				referenced++
			}
		}
	}

	if referenced == 0 && len(poolIDs) > 0 {
		return fmt.Errorf("structure assigns no lessons")
	}

	return nil
}

// dedupeLessonIDs removes repeated lesson references across the whole
// structure, keeping the first occurrence.
func dedupeLessonIDs(structure *models.ProposedStructure) {
	seen := map[string]struct{}{}
	for ti := range structure.Topics {
		for mi := range structure.Topics[ti].Modules {
			module := &structure.Topics[ti].Modules[mi]
			kept := module.LessonIDs[:0]
			for _, id := range module.LessonIDs {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				kept = append(kept, id)
			}
			module.LessonIDs = kept
		}
	}
}

// aiStrategy asks a generative model to group the lesson pool.
type aiStrategy struct {
	provider    llm.Provider
	temperature float64
	timeout     time.Duration
}

func (s *aiStrategy) name() string                   { return "ai" }
func (s *aiStrategy) source() models.StructureSource { return models.StructureSourceAI }

const structureSystemPrompt = `You are a curriculum designer. You group existing lessons into a course structure of topics and modules.
Respond with a single JSON object only, no prose, matching this shape:
{"topics":[{"topicName":"...","topicDescription":"...","modules":[{"moduleName":"...","moduleDescription":"...","lessonIds":["..."]}]}]}
Only use lessonIds that appear in the lesson list. Every module must contain at least one lesson.`

func (s *aiStrategy) generate(ctx context.Context, path []models.TopicInput, skills []string, pool []models.LessonContent) (*models.ProposedStructure, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("lesson pool is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Complete(ctx, llm.Request{
		System:      structureSystemPrompt,
		Prompt:      buildStructurePrompt(path, skills, pool),
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	raw := extractJSON(resp.Content)
	if raw == "" {
		return nil, fmt.Errorf("model response contains no JSON object")
	}

	var structure models.ProposedStructure
	if err := json.Unmarshal([]byte(raw), &structure); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	return &structure, nil
}

// buildStructurePrompt embeds the learning path, target skills and the
// full lesson pool with short content excerpts.
func buildStructurePrompt(path []models.TopicInput, skills []string, pool []models.LessonContent) string {
	var b strings.Builder

	b.WriteString("Requested learning path topics:\n")
	for _, topic := range path {
		b.WriteString("- ")
		b.WriteString(topic.Name)
		if topic.Description != "" {
			b.WriteString(": ")
			b.WriteString(topic.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nTarget skills: ")
	b.WriteString(strings.Join(skills, ", "))
	b.WriteString("\n\nAvailable lessons:\n")

	for _, lesson := range pool {
		fmt.Fprintf(&b, "- id: %s | name: %s | topic: %s", lesson.LessonID, lesson.LessonName, lesson.OriginatingTopicName)
		if lesson.Description != "" {
			fmt.Fprintf(&b, " | description: %s", excerpt(lesson.Description, 200))
		}
		if len(lesson.ContentData) > 0 {
			if block, ok := lesson.ContentData[0].(map[string]interface{}); ok {
				if body, ok := block["body"].(string); ok && body != "" {
					fmt.Fprintf(&b, " | content: %s", excerpt(body, 200))
				}
			}
		}
		if len(lesson.Skills) > 0 {
			fmt.Fprintf(&b, " | skills: %s", strings.Join(lesson.Skills, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nGroup every lesson into a coherent topic and module structure following the learning path order.")
	return b.String()
}

func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// extractJSON pulls the outermost JSON object out of a model response,
// tolerating markdown code fences and surrounding prose.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.Contains(content, "```") {
		content = strings.ReplaceAll(content, "```json", "```")
		parts := strings.Split(content, "```")
		for _, part := range parts {
			if strings.Contains(part, "{") {
				content = part
				break
			}
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// fallbackStrategy groups lessons deterministically by their originating
// topic. It is the terminal strategy and never fails.
type fallbackStrategy struct{}

func (s *fallbackStrategy) name() string                   { return "fallback" }
func (s *fallbackStrategy) source() models.StructureSource { return models.StructureSourceFallback }

func (s *fallbackStrategy) generate(_ context.Context, path []models.TopicInput, _ []string, pool []models.LessonContent) (*models.ProposedStructure, error) {
	topics := path
	if len(topics) == 0 {
		topics = []models.TopicInput{{Name: "Course Content"}}
	}

	structure := &models.ProposedStructure{Topics: make([]models.ProposedTopic, 0, len(topics))}
	topicIndex := make(map[string]int, len(topics))

	for i, topic := range topics {
		description := topic.Description
		if description == "" {
			description = fmt.Sprintf("Lessons covering %s", topic.Name)
		}
		structure.Topics = append(structure.Topics, models.ProposedTopic{
			TopicName:        topic.Name,
			TopicDescription: description,
			Modules: []models.ProposedModule{{
				ModuleName:        fmt.Sprintf("%s Essentials", topic.Name),
				ModuleDescription: fmt.Sprintf("Core lessons for %s", topic.Name),
			}},
		})
		topicIndex[strings.ToLower(topic.Name)] = i
	}

	seen := map[string]struct{}{}
	leftovers := []string{}
	for _, lesson := range pool {
		if _, dup := seen[lesson.LessonID]; dup {
			continue
		}
		seen[lesson.LessonID] = struct{}{}

		if i, ok := topicIndex[strings.ToLower(lesson.OriginatingTopicName)]; ok {
			module := &structure.Topics[i].Modules[0]
			module.LessonIDs = append(module.LessonIDs, lesson.LessonID)
		} else {
			leftovers = append(leftovers, lesson.LessonID)
		}
	}

	// Lessons whose topic is not in the learning path are spread
	// round-robin so no single topic absorbs them all.
	for i, id := range leftovers {
		module := &structure.Topics[i%len(structure.Topics)].Modules[0]
		module.LessonIDs = append(module.LessonIDs, id)
	}

	// A topic that ended up without lessons keeps its module only if the
	// pool was empty everywhere; empty modules are dropped otherwise.
	if len(pool) > 0 {
		kept := structure.Topics[:0]
		for _, topic := range structure.Topics {
			if len(topic.Modules[0].LessonIDs) > 0 {
				kept = append(kept, topic)
			}
		}
		structure.Topics = kept
	}

	return structure, nil
}
