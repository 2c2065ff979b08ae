// Package generation speaks to the external multimodal generation service.
// Requests are ordered part lists (instruction text, inline media bytes, or a
// reference to previously uploaded media); responses are free-form text that
// callers parse with the validating helpers in this package.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"scenescribe/config"
)

// Part is one element of a generation request. Exactly one field group is set.
type Part struct {
	Text       string
	InlineData *InlineData
	FileData   *FileData
}

// InlineData carries raw media bytes embedded directly in the request.
type InlineData struct {
	MIMEType string
	Data     []byte
}

// FileData references media previously uploaded to the service's media store.
type FileData struct {
	MIMEType string
	FileURI  string
}

// TextPart builds an instruction part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline JPEG part.
func ImagePart(data []byte) Part {
	return Part{InlineData: &InlineData{MIMEType: "image/jpeg", Data: data}}
}

// VideoPart builds an inline MP4 part.
func VideoPart(data []byte) Part {
	return Part{InlineData: &InlineData{MIMEType: "video/mp4", Data: data}}
}

// FilePart builds a part referencing uploaded media.
func FilePart(uri, mimeType string) Part {
	return Part{FileData: &FileData{MIMEType: mimeType, FileURI: uri}}
}

// Client is the HTTP client for the generation service.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a generation client from validated configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}
}

// wire types for the generateContent call

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *wireInline   `json:"inline_data,omitempty"`
	FileData   *wireFileData `json:"file_data,omitempty"`
}

type wireInline struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"` // base64 via encoding/json
}

type wireFileData struct {
	MIMEType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
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

// Generate submits an ordered part list and returns the service's raw text
// output. The text is expected, but not guaranteed, to contain JSON; callers
// run it through Decode.
func (c *Client) Generate(ctx context.Context, parts []Part) (string, error) {
	body := generateRequest{Contents: []content{{Parts: toWireParts(parts)}}}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generation service returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generation service returned no candidates")
	}

	var text bytes.Buffer
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

func toWireParts(parts []Part) []wirePart {
	wire := make([]wirePart, 0, len(parts))
	for _, p := range parts {
		w := wirePart{Text: p.Text}
		if p.InlineData != nil {
			w.InlineData = &wireInline{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}
		}
		if p.FileData != nil {
			w.FileData = &wireFileData{MIMEType: p.FileData.MIMEType, FileURI: p.FileData.FileURI}
		}
		wire = append(wire, w)
	}
	return wire
}
