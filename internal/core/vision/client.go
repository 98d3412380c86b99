package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"meal-planner-api/internal/infrastructure/config"
	"meal-planner-api/internal/pkg/common"
)

// prompt asks the model for a strict JSON answer. The parser still
// tolerates prose around it.
const prompt = `Identify every food ingredient visible in this image. ` +
	`Answer with JSON only, in the form {"ingredients": ["name", ...]}. ` +
	`Use simple lowercase ingredient names. If no food is visible, return {"ingredients": []}.`

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Client recognizes ingredients on food photos through an external
// vision model.
type Client struct {
	http     *resty.Client
	download *resty.Client
	apiKey   string
	model    string
	maxNames int
	log      *zap.Logger
}

// NewClient creates a vision client.
func NewClient(cfg config.VisionConfig, log *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:     httpClient,
		download: resty.New().SetTimeout(cfg.Timeout),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		maxNames: cfg.MaxNames,
		log:      log.Named("vision-client"),
	}
}

// DetectIngredients sends an image to the vision model and returns the
// deduplicated ingredient names it reports, capped at the configured
// maximum. Exactly one of imageURL and imageData must be set.
func (c *Client) DetectIngredients(ctx context.Context, imageURL string, imageData []byte, mimeType string) ([]string, error) {
	if imageURL != "" {
		fetched, fetchedType, err := c.fetchImage(ctx, imageURL)
		if err != nil {
			return nil, err
		}
		imageData = fetched
		if fetchedType != "" {
			mimeType = fetchedType
		}
	}
	if len(imageData) == 0 {
		return nil, common.NewValidationError("either image or imageUrl is required")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	req := generateRequest{Contents: []generateContent{{
		Parts: []generatePart{
			{Text: prompt},
			{InlineData: &inlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(imageData),
			}},
		},
	}}}

	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return nil, common.NewUpstreamError("vision service unreachable", err)
	}
	if resp.IsError() {
		c.log.Error("vision service error", zap.Int("status", resp.StatusCode()))
		return nil, common.NewUpstreamError(
			fmt.Sprintf("vision service returned status %d", resp.StatusCode()), nil)
	}

	text := firstText(out)
	if text == "" {
		return nil, common.NewUpstreamError("vision service returned an empty answer", nil)
	}

	names := parseIngredientNames(text)
	return c.capNames(names), nil
}

// fetchImage downloads a remote image so it can be inlined into the
// model request.
func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	resp, err := c.download.R().
		SetContext(ctx).
		Get(imageURL)
	if err != nil {
		return nil, "", common.NewUpstreamError("failed to download image", err)
	}
	if resp.IsError() {
		return nil, "", common.NewUpstreamError(
			fmt.Sprintf("image download returned status %d", resp.StatusCode()), nil)
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

func (c *Client) capNames(names []string) []string {
	if c.maxNames > 0 && len(names) > c.maxNames {
		return names[:c.maxNames]
	}
	return names
}

func firstText(out generateResponse) string {
	for _, cand := range out.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parseIngredientNames extracts ingredient names from a model answer.
// Preferred form is the JSON object the prompt asks for; when the model
// wraps it in prose or markdown fences the object is dug out by pattern,
// and as a last resort the answer is split on lines and commas.
func parseIngredientNames(text string) []string {
	if raw := jsonObjectPattern.FindString(text); raw != "" {
		var parsed struct {
			Ingredients []string `json:"ingredients"`
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			return dedupNames(parsed.Ingredients)
		}
	}

	var names []string
	for _, line := range strings.Split(text, "\n") {
		for _, piece := range strings.Split(line, ",") {
			piece = strings.Trim(piece, " \t-*•.\"'`")
			if piece != "" && !strings.ContainsAny(piece, "{}[]:") {
				names = append(names, piece)
			}
		}
	}
	return dedupNames(names)
}

func dedupNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
