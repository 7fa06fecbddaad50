package replicate

import (
	"testing"

	replicatego "github.com/replicate/replicate-go"
	"github.com/stretchr/testify/assert"
)

func TestExtractTextString(t *testing.T) {
	assert.Equal(t, "hello", extractText("hello"))
}

func TestExtractTextStringSlice(t *testing.T) {
	assert.Equal(t, "helloworld", extractText([]string{"hello", "world"}))
}

func TestExtractTextAnySliceFiltersNonStrings(t *testing.T) {
	out := extractText([]any{"a", 42, "b"})
	assert.Equal(t, "ab", out)
}

func TestWrapErrorMapsAPIErrorStatus(t *testing.T) {
	rateLimited := wrapError("llama-2-7b", &replicatego.APIError{Status: 429})
	assert.Contains(t, rateLimited.Error(), "429")
}

func TestNewTypedRequiresModelAndAPIKey(t *testing.T) {
	_, err := NewTyped(Config{})
	assert.Error(t, err)

	_, err = NewTyped(Config{Model: "meta/llama-2-7b-chat"})
	assert.Error(t, err)
}
