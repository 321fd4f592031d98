package dto

import "time"

// SignatureDocumentInput documento a firmar (contenido en Base64).
type SignatureDocumentInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// StepUpInput datos de consentimiento por móvil (solo con distinguished_name).
type StepUpInput struct {
	MSISDN       string `json:"msisdn"`
	Message      string `json:"message"` // admite #TRANSID#
	Language     string `json:"language"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// CreateSignatureRequest cuerpo de POST /api/signatures.
type CreateSignatureRequest struct {
	Type              string                   `json:"type"` // sign | timestamp
	Documents         []SignatureDocumentInput `json:"documents"`
	DistinguishedName string                   `json:"distinguished_name,omitempty"`
	StepUp            *StepUpInput             `json:"step_up,omitempty"`
	Reason            string                   `json:"reason,omitempty"`
	Location          string                   `json:"location,omitempty"`
	ContactInfo       string                   `json:"contact_info,omitempty"`
}

// SignatureJobResponse estado de un trabajo de firma.
type SignatureJobResponse struct {
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	Status       string    `json:"status"`
	ConsentURL   string    `json:"consent_url,omitempty"`
	Documents    int       `json:"documents"`
	AppliedCount int       `json:"applied_count"`
	Message      string    `json:"message,omitempty"`
	Warnings     []string  `json:"warnings,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
