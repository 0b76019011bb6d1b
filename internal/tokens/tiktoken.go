package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// modelEncodings maps model name prefixes to their tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

const defaultEncoding = "cl100k_base"

// TiktokenEstimator estimates tokens using the tiktoken BPE vocabulary for
// the configured model. The encoding is initialized lazily on first use; if
// initialization fails the estimator falls back to a character-ratio
// estimate so Estimate never errors.
type TiktokenEstimator struct {
	encoding string
	fallback *CharEstimator

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTiktokenEstimator creates an estimator for the given model name.
// Unknown models use the cl100k_base encoding.
func NewTiktokenEstimator(model string) *TiktokenEstimator {
	encoding := defaultEncoding
	for prefix, enc := range modelEncodings {
		if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
			encoding = enc
			break
		}
	}
	return &TiktokenEstimator{
		encoding: encoding,
		fallback: NewCharEstimator(0),
	}
}

// Compile-time interface check.
var _ Estimator = (*TiktokenEstimator)(nil)

func (e *TiktokenEstimator) init() {
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding(e.encoding)
		if err != nil {
			return
		}
		e.enc = enc
	})
}

// Estimate returns the token count of text under the model's encoding, or a
// character-ratio estimate if the encoding could not be loaded.
func (e *TiktokenEstimator) Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	e.init()
	if e.enc == nil {
		return e.fallback.Estimate(text)
	}
	return len(e.enc.Encode(text, nil, nil))
}
