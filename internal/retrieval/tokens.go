package retrieval

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// defaultEncoding is used when no encoding is configured or the configured
// one cannot be loaded.
const defaultEncoding = "cl100k_base"

// TiktokenCounter implements Counter using the tiktoken-go BPE tokenizer.
type TiktokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the given encoding name,
// falling back to cl100k_base when the name is empty or unknown.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}

	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		tke, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to load encoding %q: %w", defaultEncoding, err)
		}
	}

	return &TiktokenCounter{tke: tke}, nil
}

// Count returns the exact token count of text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}
