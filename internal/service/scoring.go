package service

import (
	"encoding/json"
	"sort"
	"strings"

	"gorm.io/datatypes"
)

// selectionPayload is the closed-form answer shape: the option ids the
// student picked.
type selectionPayload struct {
	Selected []string `json:"selected"`
}

// textPayload is the open-form answer shape.
type textPayload struct {
	Text string `json:"text"`
}

// decodeSelectedOptions extracts the selected option set from a closed-form
// answer payload. The second result is false when the payload is missing or
// malformed; a malformed payload scores zero rather than failing the submit.
func decodeSelectedOptions(payload datatypes.JSON) ([]string, bool) {
	if len(payload) == 0 {
		return nil, false
	}

	var decoded selectionPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, false
	}

	return normalizeOptionSet(decoded.Selected), true
}

// decodeCorrectOptions parses a question's stored correct-option set.
func decodeCorrectOptions(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}

	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil
	}

	return normalizeOptionSet(options)
}

// decodeAnswerText extracts the free-text body from an open-form payload.
func decodeAnswerText(payload datatypes.JSON) string {
	if len(payload) == 0 {
		return ""
	}

	var decoded textPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return ""
	}

	return decoded.Text
}

func normalizeOptionSet(options []string) []string {
	seen := make(map[string]struct{}, len(options))
	normalized := make([]string, 0, len(options))
	for _, option := range options {
		cleaned := strings.ToLower(strings.TrimSpace(option))
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		normalized = append(normalized, cleaned)
	}
	sort.Strings(normalized)
	return normalized
}

func equalOptionSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// scoreClosedForm awards the full point value when the submitted option set
// exactly matches the correct set, zero otherwise. No partial credit.
func scoreClosedForm(correctRaw, payload datatypes.JSON, points float64) float64 {
	correct := decodeCorrectOptions(correctRaw)
	if len(correct) == 0 {
		return 0
	}

	selected, ok := decodeSelectedOptions(payload)
	if !ok {
		return 0
	}

	if equalOptionSets(selected, correct) {
		return points
	}

	return 0
}
