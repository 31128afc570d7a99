// Package tokens estimates token counts for responses recovered from
// the local RPC backend, which reports no usage metadata of its own.
package tokens

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Estimator counts tokens with a tiktoken codec. Counts are estimates:
// the upstream models do not share their exact vocabularies.
type Estimator struct {
	once  sync.Once
	codec tokenizer.Codec
	err   error
}

// NewEstimator creates an estimator. The codec loads lazily on first
// use.
func NewEstimator() *Estimator {
	return &Estimator{}
}

func (e *Estimator) load() {
	e.codec, e.err = tokenizer.Get(tokenizer.Cl100kBase)
	if e.err != nil {
		e.err = fmt.Errorf("load tokenizer codec: %w", e.err)
	}
}

// Count returns the estimated token count of text. On codec failure it
// falls back to a characters-per-token heuristic rather than erroring;
// usage reporting is best-effort.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}

	e.once.Do(e.load)
	if e.err != nil {
		return len(text) / 4
	}

	ids, _, err := e.codec.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}
