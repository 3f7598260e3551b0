package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/scriptvox/internal/config"
)

// Versioner is implemented by backends that expose a version endpoint, such
// as the VOICEVOX client.
type Versioner interface {
	Version(ctx context.Context) (string, error)
}

// EngineChecker reports the engine healthy when its version endpoint answers
// with a non-empty version.
func EngineChecker(name string, v Versioner) Checker {
	return Checker{
		Name: name,
		Check: func(ctx context.Context) error {
			ver, err := v.Version(ctx)
			if err != nil {
				return err
			}
			if ver == "" {
				return errors.New("empty version")
			}
			return nil
		},
	}
}

// LLMConfigChecker reports whether the inference provider entry is usable.
// It does not contact the backend: a readiness probe must not spend tokens.
func LLMConfigChecker(entry config.ProviderEntry) Checker {
	return Checker{
		Name: "llm",
		Check: func(context.Context) error {
			if entry.Name == "" {
				return errors.New("no provider configured")
			}
			if entry.Model == "" {
				return fmt.Errorf("provider %q has no model", entry.Name)
			}
			return nil
		},
	}
}
