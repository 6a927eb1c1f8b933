package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"medichat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds struct {
	token string
}

func (s staticCreds) Token(ctx context.Context, userID string) (string, error) {
	return s.token, nil
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "507f1f77bcf86cd799439011", NormalizeID("507f1f77bcf86cd799439011"))
	assert.Equal(t, "507F1F77BCF86CD799439011", NormalizeID("507F1F77BCF86CD799439011"))
	assert.Equal(t, "firebase_abc123", NormalizeID("abc123"))
	assert.Equal(t, "firebase_507f1f77bcf86cd79943901", NormalizeID("507f1f77bcf86cd79943901")) // 23 hex chars
	assert.Equal(t, "firebase_507f1f77bcf86cd79943901z", NormalizeID("507f1f77bcf86cd79943901z"))
}

func TestIsAuthenticated(t *testing.T) {
	withToken := NewGateway("http://unused", staticCreds{token: "tok"})
	assert.True(t, withToken.IsAuthenticated(context.Background(), "u1"))

	withoutToken := NewGateway("http://unused", staticCreds{})
	assert.False(t, withoutToken.IsAuthenticated(context.Background(), "u1"))
}

func TestFetchDoctorsAttachesBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Doctor{{ID: "d1", Name: "Dr. Adams"}})
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, staticCreds{token: "tok"})
	doctors, err := gw.FetchDoctors(context.Background(), "u1", "")

	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "Dr. Adams", doctors[0].DisplayName())
}

func TestMissingTokenFailsBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, staticCreds{})

	_, err := gw.FetchDoctors(context.Background(), "u1", "")
	require.ErrorIs(t, err, ErrAuthRequired)

	_, err = gw.CheckAppointmentStatus(context.Background(), "u1", "a1")
	require.ErrorIs(t, err, ErrAuthRequired)

	assert.False(t, called)
}

func TestGatewayErrorCarriesParsedMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"doctor is fully booked"}`))
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, staticCreds{token: "tok"})
	_, err := gw.FetchDoctors(context.Background(), "u1", "")

	require.Error(t, err)
	require.True(t, IsGatewayError(err))
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "doctor is fully booked")
}

func TestGatewayErrorFallbackErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, staticCreds{token: "tok"})
	_, err := gw.CheckAppointmentStatus(context.Background(), "u1", "a1")

	require.True(t, IsGatewayError(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestRequestAppointmentValidatesBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, staticCreds{token: "tok"})

	_, err := gw.RequestAppointment(context.Background(), "u1", models.AppointmentRequest{Date: "2026-09-01"})
	require.True(t, IsInvalidArgument(err))

	_, err = gw.RequestAppointment(context.Background(), "u1", models.AppointmentRequest{DoctorID: "d1"})
	require.True(t, IsInvalidArgument(err))

	assert.False(t, called, "invalid requests must not reach the network")
}

func TestRequestAppointmentNormalizesIDs(t *testing.T) {
	var got models.AppointmentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(Confirmation{AppointmentID: "a1", Status: "pending"})
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, staticCreds{token: "tok"})
	conf, err := gw.RequestAppointment(context.Background(), "u1", models.AppointmentRequest{
		DoctorID:          "507f1f77bcf86cd799439011",
		PatientExternalID: "firebase-uid-42",
		Date:              "2026-09-01",
		Time:              "09:00",
	})

	require.NoError(t, err)
	assert.Equal(t, "a1", conf.AppointmentID)
	assert.Equal(t, "507f1f77bcf86cd799439011", got.DoctorID)
	assert.Equal(t, "firebase_firebase-uid-42", got.PatientExternalID)
}

func TestFindPatientByExternalIDNotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, staticCreds{token: "tok"})
	patient, err := gw.FindPatientByExternalID(context.Background(), "u1", "ext-1")

	require.NoError(t, err)
	assert.Nil(t, patient)
}

func TestFetchAvailabilityNormalizesShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"availability":[{"date":"2026-09-01","startTime":"09:00","endTime":"13:00"}]}`))
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, staticCreds{token: "tok"})
	slots, err := gw.FetchAvailability(context.Background(), "u1", "d1")

	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "11:00", slots[1].StartTime)
}
