package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pixelfall/gallerybackend/config"
	"github.com/pixelfall/gallerybackend/repository"
	"gorm.io/gorm"
)

const aiRequestTimeout = 90 * time.Second

// the analysis instruction sent alongside the image. the reply must be a
// bare JSON object with the fixed keys Analysis unmarshals.
const analysisPrompt = `Please analyze this image, focusing on any visible watermark text (often in corners) or EXIF-like data overlaid on the image.
Extract the following information if available:
1. Camera Model (e.g., "Xiaomi 17 Ultra", "Leica", "Sony A7M4")
2. Lens Model (e.g., "75mm f/1.8", "24-70mm GM")
3. Shooting Parameters (ISO, Aperture, Shutter Speed)
4. Shooting Time (Date/Time)
5. Location (if visible text)

For the "story" field: distill the mood or meaning behind the picture in a single evocative sentence of at most 30 words; no plain scene description.

If specific text is not visible, infer the scene description and suggest a camera model if distinctive features appear (but prefer "Unknown" if unsure).

Return ONLY a JSON object with these keys:
{
  "camera": "string or null",
  "lens": "string or null",
  "iso": "string or null",
  "aperture": "string or null",
  "shutter": "string or null",
  "takenAt": "ISO date string or null",
  "description": "string (brief scene description)",
  "story": "string (max 30 words)",
  "location": "string or null"
}
Do not include markdown formatting. Just the raw JSON.`

// Analysis is the fixed-key reply of the AI collaborator
type Analysis struct {
	Camera      *string `json:"camera"`
	Lens        *string `json:"lens"`
	ISO         *string `json:"iso"`
	Aperture    *string `json:"aperture"`
	Shutter     *string `json:"shutter"`
	TakenAt     *string `json:"takenAt"`
	Description *string `json:"description"`
	Story       *string `json:"story"`
	Location    *string `json:"location"`
}

// chat-completion request/response wire types, trimmed to what we send
// and read
type chatImageURL struct {
	URL string `json:"url"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AIService forwards image bytes to the external analysis collaborator
// and parses its fixed-key JSON reply. the endpoint configuration is
// injected once at startup.
type AIService struct {
	Cfg         config.AIConfig
	Photos      repository.PhotoRepositoryInterface
	UploadsPath string
	Client      *http.Client
}

func NewAIService(cfg config.AIConfig, photos repository.PhotoRepositoryInterface, uploadsPath string) *AIService {
	return &AIService{
		Cfg:         cfg,
		Photos:      photos,
		UploadsPath: uploadsPath,
		Client:      &http.Client{Timeout: aiRequestTimeout},
	}
}

// resolveLocalPath maps a stored photo URL back to a file under the
// uploads root, rejecting anything that would escape it
func (s *AIService) resolveLocalPath(photoURL string) (string, error) {
	rel := strings.TrimPrefix(photoURL, "/")
	rel = strings.TrimPrefix(rel, "uploads/")
	if rel == "" || strings.Contains(rel, "..") {
		return "", fmt.Errorf("invalid photo path %q: %w", photoURL, ErrValidation)
	}
	full := filepath.Join(s.UploadsPath, filepath.FromSlash(path.Clean(rel)))
	if !strings.HasPrefix(full, s.UploadsPath) {
		return "", fmt.Errorf("invalid photo path %q: %w", photoURL, ErrValidation)
	}
	return full, nil
}

// AnalyzePhoto reads a stored photo's display variant from disk and runs
// the analysis on it
func (s *AIService) AnalyzePhoto(ctx context.Context, id uint) (*Analysis, error) {
	photo, err := s.Photos.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("photo %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	filePath, err := s.resolveLocalPath(photo.URL)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("photo file not found on server: %w", err)
	}

	return s.Analyze(ctx, data)
}

// Analyze sends image bytes to the collaborator and parses the reply.
// missing configuration and an unparsable reply are both validation
// errors; there is no safe fallback value for an analysis.
func (s *AIService) Analyze(ctx context.Context, imageData []byte) (*Analysis, error) {
	if !s.Cfg.Enabled() {
		return nil, fmt.Errorf("AI configuration missing (AI_API_BASE_URL, AI_API_KEY): %w", ErrValidation)
	}

	base64Image := base64.StdEncoding.EncodeToString(imageData)
	reqBody := chatRequest{
		Model: s.Cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContentPart{
					{Type: "text", Text: analysisPrompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: "data:image/jpeg;base64," + base64Image}},
				},
			},
		},
		MaxTokens: 500,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode AI request: %w", err)
	}

	url := strings.TrimSuffix(s.Cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build AI request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Cfg.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("AI API call failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode AI response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("AI service error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI service returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("AI response contained no choices")
	}

	content := stripCodeFences(parsed.Choices[0].Message.Content)
	var analysis Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		log.Printf("ai: failed to parse AI response JSON: %v", err)
		return nil, fmt.Errorf("invalid AI response format: %w", ErrValidation)
	}
	return &analysis, nil
}

// stripCodeFences removes an optional markdown code fence wrapping the
// model sometimes adds despite instructions
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}
