package gcp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/mediabatchflow/internal/models"
)

// --- Variation Model Prompts ---
const VariationSystemPrompt = "You are an image generation assistant. You produce new renderings of the subject of a reference photo from different camera angles while keeping its identity, style and content unchanged."

// VariationUserPrompt asks for one image per listed angle.
func VariationUserPrompt(angles []string) string {
	return fmt.Sprintf(
		"Generate %d different angle variations of this image, one image per view, in this order: %s. "+
			"Maintain the style and content while changing the viewing angle. Return only the images.",
		len(angles), strings.Join(angles, ", "),
	)
}

// VertexClient holds the pre-configured variation model.
type VertexClient struct {
	VariationModel *genai.GenerativeModel
	baseClient     *genai.Client
}

// NewVertexClient creates a new client for image variations.
func NewVertexClient(ctx context.Context, projectID, region, modelName, credentialsFile string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region, ClientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	variationModel := baseClient.GenerativeModel(modelName)
	variationModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(VariationSystemPrompt)},
	}
	variationModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
	}

	return &VertexClient{
		VariationModel: variationModel,
		baseClient:     baseClient,
	}, nil
}

// GenerateVariations sends the image with the variation prompt and returns the
// generated images labelled with their angles.
func (c *VertexClient) GenerateVariations(ctx context.Context, item *models.MediaItemResult, count int) ([]models.Variation, error) {
	count = min(max(count, 1), len(models.VariationAngles))
	angles := models.VariationAngles[:count]

	mimeType := item.Metadata.MimeType
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(item.Data)
	}
	imagePart := genai.Blob{MIMEType: mimeType, Data: item.Data}

	resp, err := c.VariationModel.GenerateContent(ctx, imagePart, genai.Text(VariationUserPrompt(angles)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate variations from gemini: %w", err)
	}

	variations, text := extractVariations(resp, angles)
	if len(variations) == 0 {
		if text != "" {
			return nil, fmt.Errorf("gemini returned no images: %q", truncate(text, 200))
		}
		return nil, fmt.Errorf("gemini returned an empty response for item %s", item.ID)
	}
	return variations, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// extractVariations collects inline image parts in order, labelling each with
// the matching angle, and returns any text the model produced alongside.
func extractVariations(resp *genai.GenerateContentResponse, angles []string) ([]models.Variation, string) {
	if resp == nil {
		return nil, ""
	}

	var variations []models.Variation
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch p := part.(type) {
			case genai.Blob:
				if !strings.HasPrefix(p.MIMEType, "image/") || len(variations) >= len(angles) {
					continue
				}
				variations = append(variations, models.Variation{
					Angle:    angles[len(variations)],
					MimeType: p.MIMEType,
					Data:     p.Data,
				})
			case genai.Text:
				text.WriteString(string(p))
			}
		}
	}
	return variations, strings.TrimSpace(text.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
