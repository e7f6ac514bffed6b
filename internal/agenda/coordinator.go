package agenda

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dottori-online/agenda-calendar/internal/amelia"
	"github.com/dottori-online/agenda-calendar/internal/appointments"
	"github.com/dottori-online/agenda-calendar/pkg/logging"
)

// ValidationError reports locally rejected input. No network call was made.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("agenda: missing required fields: %s", strings.Join(e.Missing, ", "))
}

// ErrMutationInFlight is returned when a mutation is attempted while another
// is still submitting. The client never runs two writes concurrently; the
// backend remains the sole arbiter of conflicts between clients.
var ErrMutationInFlight = fmt.Errorf("agenda: another mutation is in flight")

const (
	stateIdle int32 = iota
	stateSubmitting
)

// Coordinator orchestrates appointment writes. Each mutation runs
// Idle → Submitting → Idle; there is no optimistic state. The collections
// only change when the server confirms and the post-mutation reload lands.
type Coordinator struct {
	gw     Gateway
	store  *Store
	logger *logging.Logger
	state  atomic.Int32
}

// NewCoordinator creates a mutation coordinator bound to a gateway and store.
func NewCoordinator(gw Gateway, store *Store, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Coordinator{
		gw:     gw,
		store:  store,
		logger: logger.With("component", "coordinator"),
	}
}

// Create books a new appointment. Required fields are checked locally before
// any network call.
func (c *Coordinator) Create(ctx context.Context, req amelia.CreateAppointmentRequest) (*appointments.Appointment, error) {
	var missing []string
	if req.CustomerID == 0 {
		missing = append(missing, "customerId")
	}
	if req.ServiceID == 0 {
		missing = append(missing, "serviceId")
	}
	if req.BookingStart.IsZero() {
		missing = append(missing, "bookingStart")
	}
	if req.BookingEnd.IsZero() {
		missing = append(missing, "bookingEnd")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	if !c.state.CompareAndSwap(stateIdle, stateSubmitting) {
		return nil, ErrMutationInFlight
	}
	defer c.state.Store(stateIdle)

	created, err := c.gw.CreateAppointment(ctx, req)
	if err != nil {
		c.logger.Error("create appointment failed", "error", err)
		return nil, err
	}
	if err := c.refresh(ctx); err != nil {
		return created, err
	}
	c.logger.Info("appointment created", "customer_id", req.CustomerID, "service_id", req.ServiceID)
	return created, nil
}

// Update sends a partial update: exactly the fields supplied, no diffing.
// Reschedules, status changes, and notes edits all go through here.
func (c *Coordinator) Update(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return &ValidationError{Missing: []string{"fields"}}
	}
	if !c.state.CompareAndSwap(stateIdle, stateSubmitting) {
		return ErrMutationInFlight
	}
	defer c.state.Store(stateIdle)

	if err := c.gw.UpdateAppointment(ctx, id, fields); err != nil {
		c.logger.Error("update appointment failed", "id", id, "error", err)
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	c.logger.Info("appointment updated", "id", id)
	return nil
}

// Cancel soft-cancels: a status transition to canceled. The record stays on
// the server and keeps counting in the canceled stats.
func (c *Coordinator) Cancel(ctx context.Context, id int64) error {
	return c.Update(ctx, id, map[string]any{"status": string(appointments.StatusCanceled)})
}

// Delete hard-removes the appointment from the working set entirely. This is
// a different server operation from Cancel and is never unified with it.
func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	if !c.state.CompareAndSwap(stateIdle, stateSubmitting) {
		return ErrMutationInFlight
	}
	defer c.state.Store(stateIdle)

	if err := c.gw.DeleteAppointment(ctx, id); err != nil {
		c.logger.Error("delete appointment failed", "id", id, "error", err)
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	c.logger.Info("appointment deleted", "id", id)
	return nil
}

// CreateCustomer creates a customer and augments the store's selection list
// in place; the new record is usable immediately.
func (c *Coordinator) CreateCustomer(ctx context.Context, req amelia.CreateCustomerRequest) (*appointments.Customer, error) {
	var missing []string
	if req.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if req.LastName == "" {
		missing = append(missing, "lastName")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	customer, err := c.gw.CreateCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	c.store.AddCustomer(customer)
	return customer, nil
}

// refresh is the post-mutation reload: the window's appointments and the
// stats aggregate, by policy, after every successful write.
func (c *Coordinator) refresh(ctx context.Context) error {
	if err := c.store.ReloadAppointments(ctx); err != nil {
		return fmt.Errorf("agenda: reload after mutation: %w", err)
	}
	if err := c.store.RefreshStats(ctx); err != nil {
		return fmt.Errorf("agenda: reload after mutation: %w", err)
	}
	return nil
}
