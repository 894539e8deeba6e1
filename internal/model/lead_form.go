package model

import "strings"

// LeadForm is the backend's expected submit schema. Name, email and phone are
// required by the backend; everything else is optional.
type LeadForm struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	InterestedIn []string `json:"interestedIn"`
	Message      string   `json:"message"`
}

// RawLeadForm carries a marketing-form payload as the site widgets post it.
// The forms disagree on field names: some split the name, some still use the
// legacy `contact` key for the phone number, and the demo form posts its
// checkbox group as `interests`.
type RawLeadForm struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Contact   string   `json:"contact"`
	Company   string   `json:"company"`
	Role      string   `json:"role"`
	Interests []string `json:"interests"`
	Message   string   `json:"message"`
}

// Normalize maps a raw marketing-form payload onto the backend schema.
func (rawForm RawLeadForm) Normalize() LeadForm {
	name := strings.TrimSpace(rawForm.Name)
	if strings.TrimSpace(rawForm.FirstName) != "" && strings.TrimSpace(rawForm.LastName) != "" {
		name = strings.TrimSpace(strings.TrimSpace(rawForm.FirstName) + " " + strings.TrimSpace(rawForm.LastName))
	}

	phone := strings.TrimSpace(rawForm.Phone)
	if phone == "" {
		phone = strings.TrimSpace(rawForm.Contact)
	}

	interests := make([]string, 0, len(rawForm.Interests))
	for _, interest := range rawForm.Interests {
		trimmedInterest := strings.TrimSpace(interest)
		if trimmedInterest != "" {
			interests = append(interests, trimmedInterest)
		}
	}

	return LeadForm{
		Name:         name,
		Email:        strings.TrimSpace(rawForm.Email),
		Phone:        phone,
		Company:      strings.TrimSpace(rawForm.Company),
		Role:         strings.TrimSpace(rawForm.Role),
		InterestedIn: interests,
		Message:      strings.TrimSpace(rawForm.Message),
	}
}

// HasRequiredFields reports whether the backend's mandatory fields are present.
func (leadForm LeadForm) HasRequiredFields() bool {
	return leadForm.Name != "" && leadForm.Email != "" && leadForm.Phone != ""
}
