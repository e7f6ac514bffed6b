// Package handlers exposes the agenda's calendar state over HTTP to the
// embedded admin UI.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dottori-online/agenda-calendar/internal/agenda"
	"github.com/dottori-online/agenda-calendar/internal/amelia"
	"github.com/dottori-online/agenda-calendar/internal/appointments"
	"github.com/dottori-online/agenda-calendar/internal/calendar"
	"github.com/dottori-online/agenda-calendar/pkg/logging"
)

// AgendaHandler provides the calendar endpoints: windowed views, stat
// drill-downs, reference collections, availability lookups, and mutations.
type AgendaHandler struct {
	store     *agenda.Store
	coord     *agenda.Coordinator
	gw        agenda.Gateway
	gridStart int
	gridEnd   int
	logger    *logging.Logger
}

// NewAgendaHandler creates the calendar HTTP handler.
func NewAgendaHandler(store *agenda.Store, coord *agenda.Coordinator, gw agenda.Gateway, gridStart, gridEnd int, logger *logging.Logger) *AgendaHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if gridEnd <= gridStart {
		gridStart = appointments.DefaultGridHourStart
		gridEnd = appointments.DefaultGridHourEnd
	}
	return &AgendaHandler{
		store:     store,
		coord:     coord,
		gw:        gw,
		gridStart: gridStart,
		gridEnd:   gridEnd,
		logger:    logger,
	}
}

// Routes returns a chi router with all agenda routes.
func (h *AgendaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/window", h.GetWindow)
	r.Get("/appointments", h.ListByCriterion)
	r.Post("/appointments", h.CreateAppointment)
	r.Put("/appointments/{id}", h.UpdateAppointment)
	r.Post("/appointments/{id}/cancel", h.CancelAppointment)
	r.Delete("/appointments/{id}", h.DeleteAppointment)
	r.Get("/stats", h.GetStats)
	r.Get("/services", h.GetServices)
	r.Get("/customers", h.GetCustomers)
	r.Post("/customers", h.CreateCustomer)
	r.Get("/locations", h.GetLocations)
	r.Get("/availability/days", h.AvailableDays)
	r.Get("/availability/slots", h.AvailableSlots)
	return r
}

// appointmentView decorates an appointment with its status badge and, where
// the grid needs it, its block geometry.
type appointmentView struct {
	*appointments.Appointment
	Badge  appointments.Badge   `json:"badge"`
	Layout *appointments.Layout `json:"layout,omitempty"`
}

func viewOf(a *appointments.Appointment, withLayout bool) appointmentView {
	v := appointmentView{Appointment: a, Badge: appointments.Classify(a.Status)}
	if withLayout {
		layout := appointments.ComputeLayout(a)
		v.Layout = &layout
	}
	return v
}

type dayView struct {
	Date  string                    `json:"date"`
	Hours map[int][]appointmentView `json:"hours"`
}

type windowView struct {
	Selected    string                    `json:"selected"`
	Granularity string                    `json:"granularity"`
	Start       string                    `json:"start"`
	End         string                    `json:"end"`
	HourRows    []int                     `json:"hourRows,omitempty"`
	Days        []dayView                 `json:"days,omitempty"`
	MonthDays   map[int][]appointmentView `json:"monthDays,omitempty"`
}

// GetWindow switches the view window and returns its appointments already
// bucketed for rendering.
// GET /agenda/window?date=2025-03-10&granularity=week[&direction=1]
func (h *AgendaHandler) GetWindow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	selected := time.Now()
	if s := q.Get("date"); s != "" {
		t, err := time.ParseInLocation(calendar.WireDate, s, time.Local)
		if err != nil {
			http.Error(w, `{"error": "invalid date, want YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		selected = t
	}

	g := calendar.GranularityWeek
	if s := q.Get("granularity"); s != "" {
		parsed, err := calendar.ParseGranularity(s)
		if err != nil {
			http.Error(w, `{"error": "invalid granularity, want day|week|month"}`, http.StatusBadRequest)
			return
		}
		g = parsed
	}

	// direction=1 / direction=-1 steps the selected date one granularity
	// unit forward or back before the window is computed.
	if s := q.Get("direction"); s != "" {
		direction, err := strconv.Atoi(s)
		if err != nil || (direction != 1 && direction != -1) {
			http.Error(w, `{"error": "invalid direction, want 1 or -1"}`, http.StatusBadRequest)
			return
		}
		selected = calendar.Navigate(selected, g, direction)
	}

	if err := h.store.SetWindow(r.Context(), selected, g); err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.buildWindowView(selected, g)
	if err != nil {
		h.logger.Error("window view build failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *AgendaHandler) buildWindowView(selected time.Time, g calendar.Granularity) (*windowView, error) {
	snap := h.store.Snapshot()
	view := &windowView{
		Selected:    selected.Format(calendar.WireDate),
		Granularity: string(g),
		Start:       snap.Window.Start.Format(calendar.WireDateTime),
		End:         snap.Window.End.Format(calendar.WireDateTime),
	}

	switch g {
	case calendar.GranularityDay:
		view.HourRows = appointments.HourRange(h.gridStart, h.gridEnd)
		day, err := h.buildDayView(snap.Active, selected, view.HourRows)
		if err != nil {
			return nil, err
		}
		view.Days = []dayView{day}
	case calendar.GranularityWeek:
		view.HourRows = appointments.HourRange(h.gridStart, h.gridEnd)
		for _, d := range calendar.WeekDays(selected) {
			day, err := h.buildDayView(snap.Active, d, view.HourRows)
			if err != nil {
				return nil, err
			}
			view.Days = append(view.Days, day)
		}
	case calendar.GranularityMonth:
		buckets, err := appointments.BucketByDay(snap.Active, selected)
		if err != nil {
			return nil, err
		}
		view.MonthDays = make(map[int][]appointmentView, len(buckets))
		for day, appts := range buckets {
			for _, a := range appts {
				view.MonthDays[day] = append(view.MonthDays[day], viewOf(a, false))
			}
		}
	}
	return view, nil
}

func (h *AgendaHandler) buildDayView(active []*appointments.Appointment, day time.Time, hours []int) (dayView, error) {
	buckets, err := appointments.BucketByHour(active, day, hours)
	if err != nil {
		return dayView{}, err
	}
	view := dayView{
		Date:  day.Format(calendar.WireDate),
		Hours: make(map[int][]appointmentView, len(buckets)),
	}
	for hour, appts := range buckets {
		for _, a := range appts {
			view.Hours[hour] = append(view.Hours[hour], viewOf(a, true))
		}
	}
	return view, nil
}

// ListByCriterion is the stat-card drill-down: it filters the loaded window's
// full superset, so canceled appointments are reachable here even though the
// grid hides them.
// GET /agenda/appointments?criterion=canceled
func (h *AgendaHandler) ListByCriterion(w http.ResponseWriter, r *http.Request) {
	criterion, err := appointments.ParseCriterion(r.URL.Query().Get("criterion"))
	if err != nil {
		http.Error(w, `{"error": "invalid criterion"}`, http.StatusBadRequest)
		return
	}

	matched := h.store.FilterByCriterion(criterion, time.Now())
	views := make([]appointmentView, 0, len(matched))
	for _, a := range matched {
		views = append(views, viewOf(a, false))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"appointments": views})
}

// createAppointmentRequest is the booking payload from the UI. bookingEnd may
// be omitted when serviceId is set; the end is then derived from the
// service's duration.
type createAppointmentRequest struct {
	CustomerID    int64                   `json:"customerId"`
	ServiceID     int64                   `json:"serviceId"`
	LocationID    int64                   `json:"locationId"`
	BookingStart  appointments.LocalTime  `json:"bookingStart"`
	BookingEnd    *appointments.LocalTime `json:"bookingEnd"`
	InternalNotes string                  `json:"internalNotes"`
	Status        string                  `json:"status"`
}

// CreateAppointment books a new appointment.
// POST /agenda/appointments
func (h *AgendaHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	end := appointments.LocalTime{}
	if req.BookingEnd != nil {
		end = *req.BookingEnd
	} else if svc := h.findService(req.ServiceID); svc != nil && !req.BookingStart.IsZero() {
		end = appointments.EndForService(req.BookingStart, svc)
	}

	created, err := h.coord.Create(r.Context(), amelia.CreateAppointmentRequest{
		CustomerID:    req.CustomerID,
		ServiceID:     req.ServiceID,
		LocationID:    req.LocationID,
		BookingStart:  req.BookingStart,
		BookingEnd:    end,
		InternalNotes: req.InternalNotes,
		Status:        appointments.Status(req.Status),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := map[string]any{"snapshot": h.snapshotView()}
	if created != nil {
		resp["appointment"] = viewOf(created, false)
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

// UpdateAppointment sends a partial update carrying exactly the supplied
// fields. Reschedules, status changes, and notes edits all land here.
// PUT /agenda/appointments/{id}
func (h *AgendaHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	if err := h.coord.Update(r.Context(), id, fields); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"snapshot": h.snapshotView()})
}

// CancelAppointment soft-cancels: the record stays on the server with status
// canceled and keeps counting in the stats.
// POST /agenda/appointments/{id}/cancel
func (h *AgendaHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	if err := h.coord.Cancel(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"snapshot": h.snapshotView()})
}

// DeleteAppointment hard-removes the record. Distinct from Cancel.
// DELETE /agenda/appointments/{id}
func (h *AgendaHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}
	if err := h.coord.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"snapshot": h.snapshotView()})
}

// GetStats returns the header-card counters.
// GET /agenda/stats
func (h *AgendaHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap.Stats == nil {
		if err := h.store.RefreshStats(r.Context()); err != nil {
			h.writeError(w, err)
			return
		}
		snap = h.store.Snapshot()
	}
	h.writeJSON(w, http.StatusOK, snap.Stats)
}

// GetServices returns the bookable services.
// GET /agenda/services
func (h *AgendaHandler) GetServices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"services": h.store.Snapshot().Services})
}

// GetCustomers returns the customer selection list.
// GET /agenda/customers
func (h *AgendaHandler) GetCustomers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"customers": h.store.Snapshot().Customers})
}

// GetLocations returns the known locations.
// GET /agenda/locations
func (h *AgendaHandler) GetLocations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"locations": h.store.Snapshot().Locations})
}

// CreateCustomer registers a customer and adds it to the selection list so
// it is usable in the booking form immediately.
// POST /agenda/customers
func (h *AgendaHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req amelia.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	customer, err := h.coord.CreateCustomer(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
}

// AvailableDays returns the bookable days of a month for a service at a
// location.
// GET /agenda/availability/days?year=2025&month=3&service_id=7&location_id=2
func (h *AgendaHandler) AvailableDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		http.Error(w, `{"error": "year required"}`, http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		http.Error(w, `{"error": "month required, 1-12"}`, http.StatusBadRequest)
		return
	}
	serviceID, _ := strconv.ParseInt(q.Get("service_id"), 10, 64)
	locationID, _ := strconv.ParseInt(q.Get("location_id"), 10, 64)
	if serviceID == 0 {
		http.Error(w, `{"error": "service_id required"}`, http.StatusBadRequest)
		return
	}

	days, err := h.gw.AvailableDays(r.Context(), year, month, serviceID, locationID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// AvailableSlots returns a day's open start times grouped into morning,
// afternoon, and evening, the way the booking form presents them.
// GET /agenda/availability/slots?date=2025-03-10&service_id=7&location_id=2
func (h *AgendaHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, err := time.ParseInLocation(calendar.WireDate, q.Get("date"), time.Local)
	if err != nil {
		http.Error(w, `{"error": "invalid date, want YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	serviceID, _ := strconv.ParseInt(q.Get("service_id"), 10, 64)
	locationID, _ := strconv.ParseInt(q.Get("location_id"), 10, 64)
	if serviceID == 0 {
		http.Error(w, `{"error": "service_id required"}`, http.StatusBadRequest)
		return
	}

	slots, err := h.gw.AvailableSlots(r.Context(), day, day, serviceID, locationID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	grouped := make(map[string]map[appointments.Period][]appointments.LocalTime, len(slots))
	for date, times := range slots {
		grouped[date] = appointments.GroupSlotsByPeriod(times)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"slots": grouped})
}

type snapshotView struct {
	Appointments []appointmentView   `json:"appointments"`
	Stats        *appointments.Stats `json:"stats,omitempty"`
}

// snapshotView returns the post-mutation state the UI re-renders from: the
// reloaded active set plus the refreshed stats.
func (h *AgendaHandler) snapshotView() snapshotView {
	snap := h.store.Snapshot()
	views := make([]appointmentView, 0, len(snap.Active))
	for _, a := range snap.Active {
		views = append(views, viewOf(a, false))
	}
	return snapshotView{Appointments: views, Stats: snap.Stats}
}

func (h *AgendaHandler) findService(id int64) *appointments.Service {
	if id == 0 {
		return nil
	}
	for _, svc := range h.store.Snapshot().Services {
		if svc.ID == id {
			return svc
		}
	}
	return nil
}

func (h *AgendaHandler) appointmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, `{"error": "invalid appointment id"}`, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *AgendaHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses: local validation is the
// caller's fault, an in-flight mutation is a conflict, backend failures are
// gateway errors.
func (h *AgendaHandler) writeError(w http.ResponseWriter, err error) {
	var verr *agenda.ValidationError
	var serverErr *amelia.ServerError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, agenda.ErrMutationInFlight):
		status = http.StatusConflict
	case amelia.IsTransient(err):
		status = http.StatusGatewayTimeout
	case errors.As(err, &serverErr):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
