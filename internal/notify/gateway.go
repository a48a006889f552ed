package notify

import (
	"context"
	"log"
	"time"

	"github.com/agrogpt/advisor/internal/advisory"
)

// Gateway is the SMS delivery boundary. The transport implementation
// lives outside this service; failures surface as UpstreamError.
type Gateway interface {
	// Send delivers a message and returns the provider message id.
	Send(ctx context.Context, phone, message string) (string, error)
}

// SendResult is the per-recipient outcome of a bulk send
type SendResult struct {
	Phone     string `json:"phone_number"`
	Status    string `json:"status"`
	MessageID string `json:"message_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// BulkReport summarizes a bulk send
type BulkReport struct {
	Status    string       `json:"status"`
	Results   []SendResult `json:"results"`
	TotalSent int          `json:"total_sent"`
}

// SendBulk delivers a message to every recipient. A gateway failure
// for one recipient is reported and never aborts the rest.
func SendBulk(ctx context.Context, gw Gateway, phones []string, message string) BulkReport {
	report := BulkReport{Status: "completed"}

	for _, phone := range phones {
		result := SendResult{
			Phone:     phone,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		id, err := gw.Send(ctx, phone, message)
		if err != nil {
			upstream := &advisory.UpstreamError{Collaborator: "sms gateway", Err: err}
			log.Printf("Bulk send to %s failed: %v", phone, upstream)
			result.Status = advisory.StatusError
		} else {
			result.Status = advisory.StatusSuccess
			result.MessageID = id
			report.TotalSent++
		}

		report.Results = append(report.Results, result)
	}

	return report
}
