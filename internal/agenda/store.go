// Package agenda holds the calendar's client-side state: the current view
// window, the appointment collections, reference data, and the mutation
// coordinator. It is deliberately decoupled from any rendering layer.
package agenda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dottori-online/agenda-calendar/internal/amelia"
	"github.com/dottori-online/agenda-calendar/internal/appointments"
	"github.com/dottori-online/agenda-calendar/internal/calendar"
	"github.com/dottori-online/agenda-calendar/internal/observability/metrics"
	"github.com/dottori-online/agenda-calendar/pkg/logging"
)

// Gateway is the backend surface the store and coordinator depend on.
// *amelia.Client satisfies it; tests inject fakes.
type Gateway interface {
	ListAppointments(ctx context.Context, start, end time.Time) ([]*appointments.Appointment, error)
	ListServices(ctx context.Context) ([]*appointments.Service, error)
	ListCustomers(ctx context.Context) ([]*appointments.Customer, error)
	ListLocations(ctx context.Context) ([]*appointments.Location, error)
	GetStats(ctx context.Context) (*appointments.Stats, error)
	AvailableDays(ctx context.Context, year, month int, serviceID, locationID int64) ([]string, error)
	AvailableSlots(ctx context.Context, start, end time.Time, serviceID, locationID int64) (map[string][]appointments.LocalTime, error)
	CreateAppointment(ctx context.Context, req amelia.CreateAppointmentRequest) (*appointments.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, fields map[string]any) error
	DeleteAppointment(ctx context.Context, id int64) error
	CreateCustomer(ctx context.Context, req amelia.CreateCustomerRequest) (*appointments.Customer, error)
}

// Snapshot is a point-in-time copy of the store for rendering. Slices are
// copied so the caller can iterate without holding the store's lock.
type Snapshot struct {
	Window    calendar.Window
	Selected  time.Time
	Active    []*appointments.Appointment
	All       []*appointments.Appointment
	Services  []*appointments.Service
	Customers []*appointments.Customer
	Locations []*appointments.Location
	Stats     *appointments.Stats
}

// Store is the single owner of the displayed calendar state. The appointment
// collections are wholly replaced on every windowed fetch; nothing is merged.
type Store struct {
	gw      Gateway
	logger  *logging.Logger
	metrics *metrics.GatewayMetrics

	mu        sync.RWMutex
	selected  time.Time
	window    calendar.Window
	issuedGen uint64 // latest fetch generation handed out
	active    []*appointments.Appointment
	all       []*appointments.Appointment
	services  []*appointments.Service
	customers []*appointments.Customer
	locations []*appointments.Location
	stats     *appointments.Stats
}

// NewStore creates a store bound to a gateway. m may be nil.
func NewStore(gw Gateway, m *metrics.GatewayMetrics, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		gw:      gw,
		metrics: m,
		logger:  logger.With("component", "store"),
	}
}

// SetWindow switches the view to (selected, granularity) and fetches the
// window's appointments. Each call gets a monotonically increasing
// generation; if a newer window is requested while this fetch is in flight,
// the completed result is discarded instead of overwriting newer state.
func (s *Store) SetWindow(ctx context.Context, selected time.Time, g calendar.Granularity) error {
	s.mu.Lock()
	s.issuedGen++
	gen := s.issuedGen
	s.selected = selected
	s.window = calendar.ComputeWindow(selected, g)
	window := s.window
	s.mu.Unlock()

	return s.fetchWindow(ctx, gen, window)
}

// ReloadAppointments re-fetches the current window. Used after every
// mutation: the system favors consistency-by-reload over local patching.
func (s *Store) ReloadAppointments(ctx context.Context) error {
	s.mu.Lock()
	if s.window.Granularity == "" {
		s.mu.Unlock()
		return fmt.Errorf("agenda: no window selected")
	}
	s.issuedGen++
	gen := s.issuedGen
	window := s.window
	s.mu.Unlock()

	return s.fetchWindow(ctx, gen, window)
}

func (s *Store) fetchWindow(ctx context.Context, gen uint64, window calendar.Window) error {
	all, err := s.gw.ListAppointments(ctx, window.Start, window.End)
	if err != nil {
		return fmt.Errorf("agenda: load appointments: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issuedGen {
		// A newer window was requested while this fetch was in flight.
		s.metrics.ObserveStaleDiscard()
		s.logger.Debug("discarding stale window fetch", "generation", gen, "latest", s.issuedGen)
		return nil
	}
	s.all = all
	s.active = appointments.ActiveSet(all)
	s.logger.Info("window loaded",
		"start", window.Start.Format(calendar.WireDateTime),
		"end", window.End.Format(calendar.WireDateTime),
		"total", len(all),
		"active", len(s.active),
	)
	return nil
}

// LoadReference fetches services, customers, locations, and stats
// concurrently. These are background reads; the appointment fetch is
// sequenced first by the caller to protect time-to-first-render.
func (s *Store) LoadReference(ctx context.Context) error {
	var (
		services  []*appointments.Service
		customers []*appointments.Customer
		locations []*appointments.Location
		stats     *appointments.Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		services, err = s.gw.ListServices(gctx)
		return err
	})
	g.Go(func() (err error) {
		customers, err = s.gw.ListCustomers(gctx)
		return err
	})
	g.Go(func() (err error) {
		locations, err = s.gw.ListLocations(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats, err = s.gw.GetStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("agenda: load reference data: %w", err)
	}

	s.mu.Lock()
	s.services = services
	s.customers = customers
	s.locations = locations
	s.stats = stats
	s.mu.Unlock()
	return nil
}

// RefreshStats re-fetches only the aggregate counters.
func (s *Store) RefreshStats(ctx context.Context) error {
	stats, err := s.gw.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("agenda: refresh stats: %w", err)
	}
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
	return nil
}

// Bootstrap performs the initial load: the window's appointments first,
// then the reference collections.
func (s *Store) Bootstrap(ctx context.Context, selected time.Time, g calendar.Granularity) error {
	if err := s.SetWindow(ctx, selected, g); err != nil {
		return err
	}
	return s.LoadReference(ctx)
}

// AddCustomer appends a freshly created customer to the selection list so it
// is usable immediately, without a refetch. Duplicate ids are ignored.
func (s *Store) AddCustomer(c *appointments.Customer) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.customers {
		if existing.ID == c.ID {
			return
		}
	}
	s.customers = append(s.customers, c)
}

// FilterByCriterion runs a stat-card drill-down over the superset, which
// still contains the canceled items the grid hides.
func (s *Store) FilterByCriterion(c appointments.Criterion, now time.Time) []*appointments.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return appointments.FilterByCriterion(s.all, c, now)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Window:    s.window,
		Selected:  s.selected,
		Active:    append([]*appointments.Appointment(nil), s.active...),
		All:       append([]*appointments.Appointment(nil), s.all...),
		Services:  append([]*appointments.Service(nil), s.services...),
		Customers: append([]*appointments.Customer(nil), s.customers...),
		Locations: append([]*appointments.Location(nil), s.locations...),
		Stats:     s.stats,
	}
}
