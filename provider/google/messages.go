package google

import (
	"encoding/json"

	"google.golang.org/genai"

	ai "github.com/coleremick/relay"
)

func convertMessages(messages []ai.Message) []*genai.Content {
	var contents []*genai.Content

	// Gemini identifies function responses by function name, not call ID,
	// so map the IDs we assigned back to their names.
	callNames := make(map[string]string)
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls {
			callNames[tc.ID] = tc.Name
		}
	}

	for _, msg := range messages {
		role := "user"
		switch msg.Role {
		case ai.RoleUser, ai.RoleSystem, ai.RoleTool:
			role = "user"
		case ai.RoleAssistant:
			role = "model"
		}

		var parts []*genai.Part

		if msg.Content != "" {
			parts = append(parts, &genai.Part{Text: msg.Content})
		}

		for _, tc := range msg.ToolCalls {
			var args map[string]any
			json.Unmarshal([]byte(tc.Arguments), &args)
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: tc.Name,
					Args: args,
				},
			})
		}

		for _, tr := range msg.ToolResults {
			name := callNames[tr.ToolCallID]
			if name == "" {
				name = tr.ToolCallID
			}
			// Send the content as JSON when it parses, wrapped otherwise.
			var result map[string]any
			if err := json.Unmarshal([]byte(tr.Content), &result); err != nil {
				result = map[string]any{"result": tr.Content}
			}
			if tr.IsError {
				result = map[string]any{"error": tr.Content}
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     name,
					Response: result,
				},
			})
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{
				Role:  role,
				Parts: parts,
			})
		}
	}

	return contents
}
