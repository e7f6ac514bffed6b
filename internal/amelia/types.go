package amelia

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dottori-online/agenda-calendar/internal/appointments"
)

// The backend wraps payloads inconsistently: a bare array, {"data": [...]},
// or {"data": {...}}. Normalization happens here, once; nothing downstream
// ever branches on envelope shape.

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// normalizeCollection flattens any of the three envelope shapes into a slice.
func normalizeCollection[T any](raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []T{}, nil
	}

	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("amelia: decode bare array: %w", err)
		}
		return out, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("amelia: decode envelope: %w", err)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}

	if data[0] == '[' {
		var out []T
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("amelia: decode data array: %w", err)
		}
		return out, nil
	}

	// {"data": {...}}: a single object becomes a one-element collection.
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("amelia: decode data object: %w", err)
	}
	return []T{one}, nil
}

// normalizeObject decodes a single payload object, enveloped or bare.
func normalizeObject[T any](raw []byte) (T, error) {
	var out T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out, fmt.Errorf("amelia: empty response body")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(bytes.TrimSpace(env.Data)) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return out, fmt.Errorf("amelia: decode data object: %w", err)
		}
		return out, nil
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("amelia: decode object: %w", err)
	}
	return out, nil
}

// mutationEnvelope is the write-path response shape. Older backend revisions
// report {"success": true}, newer ones {"status": "success"}.
type mutationEnvelope struct {
	Success bool            `json:"success"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e mutationEnvelope) ok() bool {
	return e.Success || e.Status == "success"
}

// errorBody is the minimal error shape non-2xx responses carry.
type errorBody struct {
	Message string `json:"message"`
}

// CreateAppointmentRequest is the write payload for a new appointment.
type CreateAppointmentRequest struct {
	CustomerID    int64                  `json:"customerId"`
	ServiceID     int64                  `json:"serviceId"`
	LocationID    int64                  `json:"locationId,omitempty"`
	BookingStart  appointments.LocalTime `json:"bookingStart"`
	BookingEnd    appointments.LocalTime `json:"bookingEnd"`
	InternalNotes string                 `json:"internalNotes,omitempty"`
	Status        appointments.Status    `json:"status,omitempty"`
}

// CreateCustomerRequest is the write payload for a new customer.
type CreateCustomerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender,omitempty"`
	Birthday  string `json:"birthday,omitempty"`
	Note      string `json:"note,omitempty"`
}
