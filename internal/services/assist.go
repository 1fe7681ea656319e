package services

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/shared"
)

const (
	// MaxAssistBytes is the largest file accepted by [Gateway.CodeAssist].
	MaxAssistBytes = 50000
	// MinAssistChars is the shortest trimmed content worth sending.
	MinAssistChars = 10

	NoAnalysis    = "No analysis available"
	NoSuggestions = "No suggestions available"
)

var languages = map[string]string{
	"js":   "javascript",
	"jsx":  "javascript",
	"mjs":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"py":   "python",
	"java": "java",
	"cpp":  "cpp",
	"cc":   "cpp",
	"hpp":  "cpp",
	"c":    "c",
	"h":    "c",
	"go":   "go",
	"rs":   "rust",
}

// DetectLanguage maps a file name to the language name the backend expects, or "unknown".
func DetectLanguage(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return "unknown"
}

// CodeAssist asks the backend to review a single source file with POST /analyze-code.
//
// Quick mode requests short inline suggestions instead of a full review.
func (g *Gateway) CodeAssist(ctx context.Context, fileName, code string, quick bool) (*models.CodeAnalysisResponse, error) {
	if len(code) > MaxAssistBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", shared.ErrInvalidInput, fileName, MaxAssistBytes)
	}
	if len(strings.TrimSpace(code)) < MinAssistChars {
		return nil, fmt.Errorf("%w: %s has too little code to analyze", shared.ErrInvalidInput, fileName)
	}

	body := models.CodeAnalysisRequest{
		Code:     code,
		FileName: fileName,
		Language: DetectLanguage(fileName),
	}
	fallback := NoAnalysis
	if quick {
		body.Mode = "quick"
		fallback = NoSuggestions
	}

	var resp models.CodeAnalysisResponse
	if err := g.doRequest(ctx, http.MethodPost, "/analyze-code", body, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Analysis) == "" {
		resp.Analysis = fallback
	}
	return &resp, nil
}
