package scheduler

import (
	"encoding/json"

	"travel_portal_backend/internal/documents"

	"github.com/hibiken/asynq"
)

const TaskPolicyConfirmation = "policy.confirmation"

// PolicyConfirmationPayload carries everything needed to email an issued
// policy, so the worker needs no access to the wizard session.
type PolicyConfirmationPayload struct {
	SessionID       string                `json:"sessionId"`
	PolicyNumber    string                `json:"policyNumber"`
	HolderName      string                `json:"holderName"`
	HolderEmail     string                `json:"holderEmail"`
	QuoteName       string                `json:"quoteName"`
	TotalCents      int64                 `json:"totalCents"`
	Currency        string                `json:"currency"`
	ProviderEmailed bool                  `json:"providerEmailed"`
	Summary         documents.SummaryData `json:"summary"`
}

func NewPolicyConfirmationTask(payload PolicyConfirmationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPolicyConfirmation, data), nil
}

func ParsePolicyConfirmationPayload(task *asynq.Task) (PolicyConfirmationPayload, error) {
	var payload PolicyConfirmationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PolicyConfirmationPayload{}, err
	}
	return payload, nil
}
