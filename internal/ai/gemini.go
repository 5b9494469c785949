package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// formatInstruction pins the backend to the workspace JSON contract: a single
// JSON object with type, files[] and readme, no surrounding prose or fences.
const formatInstruction = `You are helping users collaboratively build software projects.

You MUST ALWAYS respond with a SINGLE VALID JSON OBJECT (UTF-8, no comments),
with this exact structure:

{
  "type": "workspace",
  "files": [
    {
      "path": "string (e.g. 'src/index.js' or 'app.js')",
      "language": "string (e.g. 'js', 'ts', 'jsx', 'tsx', 'html', 'css', 'json')",
      "content": "full file content as a single string"
    }
  ],
  "readme": "Markdown string describing the project, how files work, and how to run it"
}

STRICT RULES:
- Do NOT include any text outside the JSON.
- Do NOT wrap the JSON in backticks.
- Do NOT explain what you are doing.
- Do NOT use markdown formatting outside "readme".
- Put ALL code only inside the "content" fields of files.
- Use a realistic, clean file/folder structure.

Now, generate such a workspace for the following user request.`

const systemInstruction = "Follow the given instructions exactly. Output ONLY the JSON object described, with no extra text or markdown."

// GeminiGenerator generates workspaces using Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generation backend for the given API key and
// model.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate sends the prompt under the workspace-format contract and returns
// the raw reply text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	finalPrompt := formatInstruction + "\n\nUSER REQUEST:\n" + prompt

	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(finalPrompt),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no response from model")
	}
	return text, nil
}
