package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"comment_analyzer/internal/domain"
)

// Dispatcher routes texts to a backend chosen by method and model name.
// Model backends are initialized lazily on first use and cached for the life
// of the process; initialization is mutually exclusive per model name.
type Dispatcher struct {
	lexicon  *Lexicon
	registry map[string]ModelConfig

	mu    sync.Mutex
	slots map[string]*modelSlot

	logger *slog.Logger
}

// modelSlot makes at most one goroutine build a given model backend while
// others wait on the same Once.
type modelSlot struct {
	once    sync.Once
	backend *ModelBackend
}

func NewDispatcher(lexicon *Lexicon, registry map[string]ModelConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		lexicon:  lexicon,
		registry: registry,
		slots:    make(map[string]*modelSlot),
		logger:   logger.With("component", "sentiment"),
	}
}

// Classify returns one verdict per input text, order preserved. Unknown
// methods and model names fail fast even for empty input; they are caller
// mistakes, not conditions to retry. Empty input against a valid backend
// returns an empty result.
func (d *Dispatcher) Classify(ctx context.Context, texts []string, method, modelName string) ([]domain.Verdict, error) {
	backend, err := d.backend(method, modelName)
	if err != nil {
		return nil, err
	}

	if len(texts) == 0 {
		return []domain.Verdict{}, nil
	}

	verdicts, err := backend.Classify(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("classify via %s: %w", backend.Name(), err)
	}
	if len(verdicts) != len(texts) {
		return nil, fmt.Errorf("backend %s returned %d verdicts for %d texts", backend.Name(), len(verdicts), len(texts))
	}
	return verdicts, nil
}

// Models lists the registered model names, for status surfaces.
func (d *Dispatcher) Models() []string {
	names := make([]string, 0, len(d.registry))
	for name := range d.registry {
		names = append(names, name)
	}
	return names
}

func (d *Dispatcher) backend(method, modelName string) (Backend, error) {
	switch method {
	case MethodLexicon:
		return d.lexicon, nil
	case MethodModel:
		return d.model(modelName)
	default:
		return nil, fmt.Errorf("%q: %w", method, domain.ErrUnknownMethod)
	}
}

func (d *Dispatcher) model(name string) (Backend, error) {
	cfg, ok := d.registry[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrUnknownModel)
	}

	d.mu.Lock()
	slot, ok := d.slots[name]
	if !ok {
		slot = &modelSlot{}
		d.slots[name] = slot
	}
	d.mu.Unlock()

	slot.once.Do(func() {
		d.logger.Info("loading model backend", "model", name, "upstream_model", cfg.UpstreamModel)
		slot.backend = newModelBackend(name, cfg)
	})
	return slot.backend, nil
}
