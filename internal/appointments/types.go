// Package appointments holds the canonical appointment model plus the
// bucketing, layout, and status-filtering logic the calendar grid is built on.
package appointments

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Status is the backend lifecycle state of an appointment.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusCanceled Status = "canceled"
	StatusRejected Status = "rejected"
	StatusNoShow   Status = "no-show"
)

// localTimeLayout is the wire format for booking timestamps. The backend
// speaks local wall-clock time; converting through UTC shifts bookings across
// midnight for non-UTC clinics.
const (
	localTimeLayout = "2006-01-02 15:04:05"
	localDateLayout = "2006-01-02"
)

// LocalTime is a second-precision local timestamp serialized as
// "YYYY-MM-DD HH:MM:SS".
type LocalTime struct {
	time.Time
}

// NewLocalTime truncates t to second precision.
func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{t.Truncate(time.Second)}
}

// ParseLocalTime parses a wire timestamp in the local zone.
func ParseLocalTime(s string) (LocalTime, error) {
	t, err := time.ParseInLocation(localTimeLayout, s, time.Local)
	if err != nil {
		return LocalTime{}, fmt.Errorf("appointments: parse local time %q: %w", s, err)
	}
	return LocalTime{t}, nil
}

// String renders the wire format.
func (t LocalTime) String() string {
	return t.Format(localTimeLayout)
}

// DateString returns the "YYYY-MM-DD" prefix used for day matching.
func (t LocalTime) DateString() string {
	return t.Format(localDateLayout)
}

// MarshalJSON writes the wire format as a JSON string.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(localTimeLayout) + `"`), nil
}

// UnmarshalJSON accepts the wire format; null and "" stay zero.
func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		return nil
	}
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Customer is the embedded client record on an appointment and the entries of
// the selection list in the create flow.
type Customer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// DisplayName prefers the backend-provided name and falls back to
// firstName + lastName.
func (c Customer) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Service is a bookable service. Color is required; the grid uses it for
// visual coding and its absence is a data defect, not a default.
type Service struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Duration int     `json:"duration"` // seconds
	Price    float64 `json:"price,omitempty"`
}

// Location is the embedded place record.
type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Appointment is the canonical booking as normalized by the gateway.
type Appointment struct {
	ID            int64     `json:"id"`
	BookingStart  LocalTime `json:"bookingStart"`
	BookingEnd    LocalTime `json:"bookingEnd"`
	Status        Status    `json:"status"`
	InternalNotes string    `json:"internalNotes,omitempty"`
	Customer      *Customer `json:"customer"`
	Service       *Service  `json:"service"`
	Location      *Location `json:"location"`
}

// Duration returns bookingEnd − bookingStart.
func (a *Appointment) Duration() time.Duration {
	return a.BookingEnd.Sub(a.BookingStart.Time)
}

// MalformedAppointmentError reports an appointment that violates the data
// contract: missing embedded records or an inverted time range. The gateway
// guarantees these never reach the indexer, so hitting one is a defect to
// surface, not to paper over.
type MalformedAppointmentError struct {
	ID     int64
	Reason string
}

func (e *MalformedAppointmentError) Error() string {
	return fmt.Sprintf("appointments: malformed appointment %d: %s", e.ID, e.Reason)
}

// Validate enforces the data contract for one appointment.
func (a *Appointment) Validate() error {
	switch {
	case a.Service == nil:
		return &MalformedAppointmentError{ID: a.ID, Reason: "missing service"}
	case a.Service.Color == "":
		return &MalformedAppointmentError{ID: a.ID, Reason: "service has no color"}
	case a.Customer == nil:
		return &MalformedAppointmentError{ID: a.ID, Reason: "missing customer"}
	case a.Location == nil:
		return &MalformedAppointmentError{ID: a.ID, Reason: "missing location"}
	case a.BookingStart.IsZero() || a.BookingEnd.IsZero():
		return &MalformedAppointmentError{ID: a.ID, Reason: "missing booking times"}
	case !a.BookingEnd.After(a.BookingStart.Time):
		return &MalformedAppointmentError{ID: a.ID, Reason: "bookingEnd not after bookingStart"}
	}
	return nil
}

// ActiveSet filters out canceled appointments. The grid renders the active
// set; stat drill-downs keep operating on the full superset.
func ActiveSet(appts []*Appointment) []*Appointment {
	active := make([]*Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status != StatusCanceled {
			active = append(active, a)
		}
	}
	return active
}

// Stats are the aggregate counters shown on the header cards.
type Stats struct {
	Today          int `json:"appointments_today"`
	ThisPeriod     int `json:"appointments_this_month"`
	Approved       int `json:"approved"`
	Pending        int `json:"pending"`
	Canceled       int `json:"canceled"`
	Rejected       int `json:"rejected"`
	TotalCustomers int `json:"total_customers"`
	TotalServices  int `json:"total_services"`
}
