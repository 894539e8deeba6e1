package model

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// FormTypeContactForm labels submissions captured by the plain contact form.
	FormTypeContactForm = "Contact Form"
	// FormTypeDemoRequest labels submissions captured by the demo request form.
	FormTypeDemoRequest = "Demo Request"

	displayDateLayout       = "Jan 2, 2006 3:04 PM"
	displayDateMissingValue = "N/A"
	displayDateInvalidValue = "Invalid Date"
	createdAtDateOnlyLayout = "2006-01-02"
	createdAtNoZoneLayout   = "2006-01-02T15:04:05"
	createdAtSpaceLayout    = "2006-01-02 15:04:05"
)

var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	createdAtNoZoneLayout,
	createdAtSpaceLayout,
	createdAtDateOnlyLayout,
}

// Submission is one captured lead, normalized from the backend wire format.
// Records are read-only once decoded; deletes remove them, nothing mutates them.
type Submission struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Company      string
	Role         string
	Interests    []string
	Message      string
	CreatedAtRaw string
	CreatedAt    time.Time
}

type submissionWire struct {
	MongoID      string   `json:"_id"`
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	InterestedIn []string `json:"interestedIn"`
	Interests    []string `json:"interests"`
	Message      string   `json:"message"`
	CreatedAt    string   `json:"createdAt"`
	Date         string   `json:"date"`
}

// DecodeSubmissions parses the backend's submissions payload into normalized
// records. The backend emits either `_id` or `id` and either `createdAt` or
// `date` depending on its data source; both pairs collapse to one canonical
// field here. Records without any identifier are dropped, and a duplicated
// identifier keeps its first occurrence so one fetched list never contains
// two records with the same id.
func DecodeSubmissions(payload []byte) ([]Submission, error) {
	var wireRecords []submissionWire
	if unmarshalErr := json.Unmarshal(payload, &wireRecords); unmarshalErr != nil {
		return nil, unmarshalErr
	}

	submissions := make([]Submission, 0, len(wireRecords))
	seenIdentifiers := make(map[string]struct{}, len(wireRecords))
	for _, wireRecord := range wireRecords {
		submission := normalizeSubmission(wireRecord)
		if submission.ID == "" {
			continue
		}
		if _, duplicate := seenIdentifiers[submission.ID]; duplicate {
			continue
		}
		seenIdentifiers[submission.ID] = struct{}{}
		submissions = append(submissions, submission)
	}

	return submissions, nil
}

func normalizeSubmission(wireRecord submissionWire) Submission {
	identifier := strings.TrimSpace(wireRecord.MongoID)
	if identifier == "" {
		identifier = strings.TrimSpace(wireRecord.ID)
	}

	createdAtRaw := strings.TrimSpace(wireRecord.CreatedAt)
	if createdAtRaw == "" {
		createdAtRaw = strings.TrimSpace(wireRecord.Date)
	}

	interests := wireRecord.InterestedIn
	if len(interests) == 0 {
		interests = wireRecord.Interests
	}
	normalizedInterests := make([]string, 0, len(interests))
	for _, interest := range interests {
		trimmedInterest := strings.TrimSpace(interest)
		if trimmedInterest != "" {
			normalizedInterests = append(normalizedInterests, trimmedInterest)
		}
	}

	return Submission{
		ID:           identifier,
		Name:         strings.TrimSpace(wireRecord.Name),
		Email:        strings.TrimSpace(wireRecord.Email),
		Phone:        strings.TrimSpace(wireRecord.Phone),
		Company:      strings.TrimSpace(wireRecord.Company),
		Role:         strings.TrimSpace(wireRecord.Role),
		Interests:    normalizedInterests,
		Message:      wireRecord.Message,
		CreatedAtRaw: createdAtRaw,
		CreatedAt:    parseCreatedAt(createdAtRaw),
	}
}

func parseCreatedAt(rawValue string) time.Time {
	if rawValue == "" {
		return time.Time{}
	}
	for _, layout := range createdAtLayouts {
		if parsed, parseErr := time.Parse(layout, rawValue); parseErr == nil {
			return parsed
		}
	}
	return time.Time{}
}

// FormType classifies the submission. A non-empty interest list or a non-empty
// role marks a demo request; everything else is a contact-form lead. The
// classification is derived at read time, never stored.
func (submission Submission) FormType() string {
	if len(submission.Interests) > 0 || submission.Role != "" {
		return FormTypeDemoRequest
	}
	return FormTypeContactForm
}

// FormattedDate renders the creation timestamp for tables and exports.
func (submission Submission) FormattedDate() string {
	if submission.CreatedAtRaw == "" {
		return displayDateMissingValue
	}
	if submission.CreatedAt.IsZero() {
		return displayDateInvalidValue
	}
	return submission.CreatedAt.UTC().Format(displayDateLayout)
}
