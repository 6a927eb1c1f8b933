// File: services/appointment/gateway.go
package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"medichat/models"
	"medichat/utils"

	"go.uber.org/zap"
)

// Gateway is the typed boundary to the external appointment REST API. It
// attaches the stored bearer token, normalizes response shapes, and keeps no
// local state of its own.
type Gateway interface {
	IsAuthenticated(ctx context.Context, userID string) bool
	FetchDoctors(ctx context.Context, userID, specialty string) ([]models.Doctor, error)
	FetchAvailability(ctx context.Context, userID, doctorID string) ([]models.Slot, error)
	RequestAppointment(ctx context.Context, userID string, req models.AppointmentRequest) (*Confirmation, error)
	CheckAppointmentStatus(ctx context.Context, userID, appointmentID string) (*models.AppointmentStatus, error)
	FindPatientByExternalID(ctx context.Context, userID, externalID string) (*Patient, error)
	CreatePatient(ctx context.Context, userID string, patient Patient) (*Patient, error)
}

// Confirmation is the booking endpoint's response.
type Confirmation struct {
	AppointmentID string `json:"appointmentId"`
	Status        string `json:"status,omitempty"`
}

// Patient is the remote system's patient record.
type Patient struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
}

// hexIDPattern matches the remote system's native primary key format.
var hexIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// provenancePrefix tags identifiers that did not originate in the remote
// system so they stay distinguishable from its native 24-hex keys.
const provenancePrefix = "firebase_"

// NormalizeID passes 24-hex identifiers through unchanged and tags any
// other identifier with the provenance prefix before transmission.
func NormalizeID(id string) string {
	if hexIDPattern.MatchString(id) {
		return id
	}
	return provenancePrefix + id
}

type restGateway struct {
	baseURL string
	client  *http.Client
	creds   CredentialStore
	logger  *zap.Logger
}

// NewGateway returns a Gateway for the appointment API at baseURL, reading
// bearer tokens from creds.
func NewGateway(baseURL string, creds CredentialStore) Gateway {
	return &restGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		creds:   creds,
		logger:  utils.GetLogger(),
	}
}

// IsAuthenticated reports whether a bearer token is stored for the user.
func (g *restGateway) IsAuthenticated(ctx context.Context, userID string) bool {
	token, err := g.creds.Token(ctx, userID)
	if err != nil {
		g.logger.Warn("credential read failed", zap.Error(err))
		return false
	}
	return token != ""
}

// FetchDoctors lists doctors, optionally filtered by specialty.
func (g *restGateway) FetchDoctors(ctx context.Context, userID, specialty string) ([]models.Doctor, error) {
	endpoint := g.baseURL + "/doctors"
	if specialty != "" {
		endpoint += "?specialty=" + url.QueryEscape(specialty)
	}

	body, err := g.do(ctx, userID, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var doctors []models.Doctor
	if err := json.Unmarshal(body, &doctors); err != nil {
		return nil, fmt.Errorf("failed to parse doctors response: %w", err)
	}
	return doctors, nil
}

// FetchAvailability returns the bookable slots for a doctor, normalizing the
// remote system's response shapes. An empty result is not an error.
func (g *restGateway) FetchAvailability(ctx context.Context, userID, doctorID string) ([]models.Slot, error) {
	if doctorID == "" {
		return nil, NewInvalidArgument("doctorId")
	}

	endpoint := fmt.Sprintf("%s/doctors/%s/availability", g.baseURL, url.PathEscape(doctorID))
	body, err := g.do(ctx, userID, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	slots, err := parseAvailability(body)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		g.logger.Debug("no availability returned", zap.String("doctorId", doctorID))
	}
	return slots, nil
}

// RequestAppointment submits a booking request. The caller-supplied external
// patient identifier is forwarded so the remote system can resolve or create
// the patient record; this gateway never creates patients implicitly.
func (g *restGateway) RequestAppointment(ctx context.Context, userID string, req models.AppointmentRequest) (*Confirmation, error) {
	if req.DoctorID == "" {
		return nil, NewInvalidArgument("doctorId")
	}
	if req.Date == "" && req.DateTime == "" {
		return nil, NewInvalidArgument("date")
	}

	req.DoctorID = NormalizeID(req.DoctorID)
	if req.PatientExternalID != "" {
		req.PatientExternalID = NormalizeID(req.PatientExternalID)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal appointment request: %w", err)
	}

	body, err := g.do(ctx, userID, http.MethodPost, g.baseURL+"/appointments", payload)
	if err != nil {
		return nil, err
	}

	var confirmation Confirmation
	if err := json.Unmarshal(body, &confirmation); err != nil {
		return nil, fmt.Errorf("failed to parse booking response: %w", err)
	}
	if confirmation.AppointmentID == "" {
		return nil, &GatewayError{StatusCode: http.StatusOK, Message: "booking response missing appointmentId"}
	}
	return &confirmation, nil
}

// CheckAppointmentStatus reads the remote approval state of an appointment.
func (g *restGateway) CheckAppointmentStatus(ctx context.Context, userID, appointmentID string) (*models.AppointmentStatus, error) {
	if appointmentID == "" {
		return nil, NewInvalidArgument("appointmentId")
	}

	endpoint := fmt.Sprintf("%s/appointments/%s/status", g.baseURL, url.PathEscape(appointmentID))
	body, err := g.do(ctx, userID, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var status models.AppointmentStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &status, nil
}

// FindPatientByExternalID looks up a patient by foreign-origin id. A missing
// patient is a nil result, not an error; the login sub-flow creates one.
func (g *restGateway) FindPatientByExternalID(ctx context.Context, userID, externalID string) (*Patient, error) {
	if externalID == "" {
		return nil, NewInvalidArgument("externalId")
	}

	endpoint := fmt.Sprintf("%s/patients/external/%s", g.baseURL, url.PathEscape(externalID))
	body, err := g.do(ctx, userID, http.MethodGet, endpoint, nil)
	if err != nil {
		var gwErr *GatewayError
		if errors.As(err, &gwErr) && gwErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var patient Patient
	if err := json.Unmarshal(body, &patient); err != nil {
		return nil, fmt.Errorf("failed to parse patient response: %w", err)
	}
	return &patient, nil
}

// CreatePatient registers a patient record with the appointment system.
func (g *restGateway) CreatePatient(ctx context.Context, userID string, patient Patient) (*Patient, error) {
	if patient.Name == "" {
		return nil, NewInvalidArgument("name")
	}

	payload, err := json.Marshal(patient)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patient: %w", err)
	}

	body, err := g.do(ctx, userID, http.MethodPost, g.baseURL+"/patients", payload)
	if err != nil {
		return nil, err
	}

	var created Patient
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse patient creation response: %w", err)
	}
	return &created, nil
}

// do performs one authenticated request and returns the response body, or a
// GatewayError carrying the parsed error message on non-2xx.
func (g *restGateway) do(ctx context.Context, userID, method, endpoint string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := g.creds.Token(ctx, userID)
	if err != nil {
		return nil, err
	}
	if token == "" {
		// Every endpoint behind this gateway requires a bearer token, so a
		// missing one is surfaced before any network round trip.
		return nil, ErrAuthRequired
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("appointment API unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode, Message: parseErrorMessage(body)}
		g.logger.Warn("appointment API error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", gwErr.Message),
		)
		return nil, gwErr
	}
	return body, nil
}

// parseErrorMessage extracts the remote error message when the body is JSON
// with a message field; otherwise it returns an empty string.
func parseErrorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.Error
}
