package attribution

import "strings"

// Model selects the weighting scheme applied to a touchpoint sequence.
type Model string

const (
	ModelFirstClick    Model = "first-click"
	ModelLastClick     Model = "last-click"
	ModelMultiTouch    Model = "multi-touch"
	ModelTimeDecay     Model = "time-decay"
	ModelPositionBased Model = "position-based"
)

// ParseModel maps a stored tag to a Model. Unknown tags resolve to
// last-click so a bad link configuration can never break attribution.
func ParseModel(s string) Model {
	switch Model(strings.ToLower(strings.TrimSpace(s))) {
	case ModelFirstClick:
		return ModelFirstClick
	case ModelLastClick:
		return ModelLastClick
	case ModelMultiTouch:
		return ModelMultiTouch
	case ModelTimeDecay:
		return ModelTimeDecay
	case ModelPositionBased:
		return ModelPositionBased
	default:
		return ModelLastClick
	}
}

// Role tags the part a touchpoint played under the applied model.
type Role string

const (
	RoleFirst     Role = "first"
	RoleLast      Role = "last"
	RoleMulti     Role = "multi"
	RoleTimeDecay Role = "time-decay"
	RoleMiddle    Role = "middle"
	RoleOnly      Role = "only"
	RoleIgnored   Role = "ignored"
)

// ModelInfo describes one model for the public catalog endpoint.
type ModelInfo struct {
	ID          Model  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Recommended bool   `json:"recommended"`
}

// AvailableModels lists the supported models.
func AvailableModels() []ModelInfo {
	return []ModelInfo{
		{ID: ModelFirstClick, Name: "First click", Description: "100% credit to the first touchpoint; suits brand-awareness campaigns."},
		{ID: ModelLastClick, Name: "Last click", Description: "100% credit to the final touchpoint before conversion.", Recommended: true},
		{ID: ModelMultiTouch, Name: "Multi touch", Description: "Equal credit to every touchpoint; suits long decision funnels."},
		{ID: ModelTimeDecay, Name: "Time decay", Description: "Touchpoints closer to the final click carry more weight."},
		{ID: ModelPositionBased, Name: "Position based", Description: "40% first, 40% last, 20% split across the middle."},
	}
}
