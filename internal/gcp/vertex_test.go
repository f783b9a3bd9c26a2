package gcp

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariationUserPrompt(t *testing.T) {
	prompt := VariationUserPrompt([]string{"front", "left"})
	assert.Contains(t, prompt, "Generate 2 different angle variations")
	assert.Contains(t, prompt, "front, left")
}

func TestExtractVariations(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text("here you go"),
				genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Blob{MIMEType: "text/plain", Data: []byte("ignored")},
			}}},
			nil,
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Blob{MIMEType: "image/jpeg", Data: []byte{2}},
				genai.Blob{MIMEType: "image/jpeg", Data: []byte{3}},
			}}},
		},
	}

	variations, text := extractVariations(resp, []string{"front", "left"})
	require.Len(t, variations, 2)
	assert.Equal(t, "front", variations[0].Angle)
	assert.Equal(t, "image/png", variations[0].MimeType)
	assert.Equal(t, []byte{1}, variations[0].Data)
	assert.Equal(t, "left", variations[1].Angle)
	assert.Equal(t, []byte{2}, variations[1].Data)
	assert.Equal(t, "here you go", text)
}

func TestExtractVariations_NilResponse(t *testing.T) {
	variations, text := extractVariations(nil, []string{"front"})
	assert.Empty(t, variations)
	assert.Empty(t, text)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
