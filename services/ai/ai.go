// Package aisvc provides the assistants behind the tutor tools.
package aisvc

import (
	"context"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/tutor"
)

// New returns the Gemini assistant when an API key is configured, the offline one otherwise.
// The returned func releases the assistant resources.
func New(ctx context.Context, conf *core.Config, logger core.Logger) (tutor.Assistant, func() error, error) {
	if conf.AI.APIKey == "" || conf.TestMode {
		return Offline{}, func() error { return nil }, nil
	}
	g, err := NewGemini(ctx, conf.AI, logger)
	if err != nil {
		return nil, nil, err
	}
	return g, g.Close, nil
}
