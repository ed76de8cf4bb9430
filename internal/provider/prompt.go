package provider

import (
	"encoding/json"
	"fmt"

	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
)

func systemPrompt(feature model.FeatureType) string {
	switch feature {
	case model.FeatureSpendingReport:
		return "You are a personal finance analyst. Summarize the user's spending data into clear, actionable insights. Answer in plain prose."
	case model.FeatureBudgetPlan:
		return "You are a budgeting coach. Build a realistic monthly budget from the user's income and spending data. Answer in plain prose."
	case model.FeatureAdvisorChat:
		return "You are a friendly personal finance advisor. Keep answers short, concrete and grounded in the user's situation."
	}
	return "You are a personal finance assistant."
}

func buildPrompt(feature model.FeatureType, payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("empty input payload for %s", feature)
	}

	// Keep payloads compact before embedding them in the prompt.
	compact, err := compactJSON(payload)
	if err != nil {
		return "", fmt.Errorf("invalid input payload for %s: %w", feature, err)
	}

	switch feature {
	case model.FeatureSpendingReport:
		return "Analyze this spending summary and report the notable patterns:\n" + string(compact), nil
	case model.FeatureBudgetPlan:
		return "Create a monthly budget plan from this financial snapshot:\n" + string(compact), nil
	}
	return string(compact), nil
}

func compactJSON(raw json.RawMessage) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
