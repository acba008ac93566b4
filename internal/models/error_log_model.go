package models

// ErrorLog is an append-only record of a failure caught at an action boundary.
type ErrorLog struct {
	ID           string `json:"_id,omitempty" mapstructure:"_id"`
	ErrorMessage string `json:"errorMessage" mapstructure:"errorMessage"`
	Context      string `json:"context" mapstructure:"context"`
	Timestamp    string `json:"timestamp" mapstructure:"timestamp"`
	MemberID     string `json:"memberId,omitempty" mapstructure:"memberId"`
}
