// Package httpapi implements the gin handlers for the scheduling HTTP
// surface, binding requests and mapping errors into the
// {success, data} / {success: false, error: {code, message}} envelope,
// with the closed ErrorCode set of internal/apperr.
package httpapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sanjshine99/care-app-backend/internal/analyzer"
	"github.com/sanjshine99/care-app-backend/internal/apperr"
	"github.com/sanjshine99/care-app-backend/internal/assignment"
	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/feasibility"
	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/orchestrator"
	"github.com/sanjshine99/care-app-backend/internal/routing"
	"github.com/sanjshine99/care-app-backend/internal/settings"
	"github.com/sanjshine99/care-app-backend/internal/store"
)

// Handler holds every dependency the scheduling HTTP surface needs.
type Handler struct {
	Orchestrator  *orchestrator.Orchestrator
	Engine        *assignment.Engine
	CareGivers    store.CareGiverRepo
	CareReceivers store.CareReceiverRepo
	Availability  store.AvailabilityRepo
	Appointments  store.AppointmentRepo
	Settings      *settings.Service
	Router        routing.Client
}

// GenerateSchedule handles POST /schedule/generate.
func (h *Handler) GenerateSchedule(c *gin.Context) {
	var req generateRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}
	start, end, ok2 := parseDateRange(c, req.StartDate, req.EndDate)
	if !ok2 {
		return
	}

	ctx := c.Request.Context()
	var results []receiverResultDTO

	switch {
	case req.CareReceiverID != "":
		r, err := h.Orchestrator.GenerateOne(ctx, req.CareReceiverID, start, end)
		if err != nil {
			fail(c, err)
			return
		}
		results = append(results, toReceiverResultDTO(r))
	case len(req.CareReceiverIDs) > 0:
		bulk, err := h.Orchestrator.GenerateBulk(ctx, req.CareReceiverIDs, start, end)
		if err != nil {
			fail(c, err)
			return
		}
		for _, r := range bulk.Receivers {
			results = append(results, toReceiverResultDTO(r))
		}
	default:
		bulk, err := h.Orchestrator.GenerateAll(ctx, start, end)
		if err != nil {
			fail(c, err)
			return
		}
		for _, r := range bulk.Receivers {
			results = append(results, toReceiverResultDTO(r))
		}
	}

	ok(c, http.StatusOK, generateResponseData{Results: results, Summary: summarize(results)})
}

// ListAppointments handles GET /schedule/appointments.
func (h *Handler) ListAppointments(c *gin.Context) {
	start, end, ok2 := parseDateRange(c, c.Query("start_date"), c.Query("end_date"))
	if !ok2 {
		return
	}

	filter := store.AppointmentFilter{
		CareGiverID:    c.Query("care_giver_id"),
		CareReceiverID: c.Query("care_receiver_id"),
	}
	if s := c.Query("status"); s != "" {
		filter.Status = domain.AppointmentStatus(s)
	}

	appointments, err := h.Appointments.InRange(c.Request.Context(), start, end, filter)
	if err != nil {
		fail(c, err)
		return
	}

	page := atoiOr(c.Query("page"), 1)
	limit := atoiOr(c.Query("limit"), 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	total := len(appointments)
	from := (page - 1) * limit
	if from > total {
		from = total
	}
	to := from + limit
	if to > total {
		to = total
	}

	dtos := make([]appointmentDTO, 0, to-from)
	for _, a := range appointments[from:to] {
		dtos = append(dtos, toAppointmentDTO(a))
	}

	ok(c, http.StatusOK, gin.H{
		"appointments": dtos,
		"page":         page,
		"limit":        limit,
		"total":        total,
	})
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Unscheduled handles GET /schedule/unscheduled.
func (h *Handler) Unscheduled(c *gin.Context) {
	start, end, ok2 := parseDateRange(c, c.Query("start_date"), c.Query("end_date"))
	if !ok2 {
		return
	}

	ctx := c.Request.Context()
	cfg, err := h.Settings.Get(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	receivers, err := h.CareReceivers.ListActive(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	type entry struct {
		CareReceiverID string       `json:"care_receiver_id"`
		Missing        []failureDTO `json:"missing"`
	}
	var out []entry
	for _, r := range receivers {
		missing, err := h.Engine.Unscheduled(ctx, r.ID, start, end, cfg)
		if err != nil {
			fail(c, err)
			return
		}
		if len(missing) == 0 {
			continue
		}
		dtos := make([]failureDTO, len(missing))
		for i, f := range missing {
			dtos[i] = toFailureDTO(f)
		}
		out = append(out, entry{CareReceiverID: r.ID, Missing: dtos})
	}

	ok(c, http.StatusOK, out)
}

// AnalyzeUnscheduled handles POST /schedule/analyze-unscheduled.
func (h *Handler) AnalyzeUnscheduled(c *gin.Context) {
	var req analyzeRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}
	if req.CareReceiverID == "" {
		fail(c, apperr.MissingFields("care_receiver_id is required"))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		fail(c, apperr.Validation("date must be an ISO-8601 date"))
		return
	}
	visit, err := req.Visit.toDomain()
	if err != nil {
		fail(c, apperr.Validation("visit.preferred_time must be HH:MM"))
		return
	}

	ctx := c.Request.Context()
	receiver, err := h.CareReceivers.Get(ctx, req.CareReceiverID)
	if err != nil {
		if err == store.ErrNotFound {
			fail(c, apperr.CareReceiverNotFound(req.CareReceiverID))
			return
		}
		fail(c, err)
		return
	}

	cfg, err := h.Settings.Get(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	a := &analyzer.Analyzer{
		CareGivers:   h.CareGivers,
		Availability: h.Availability,
		Appointments: h.Appointments,
		Settings:     cfg,
	}
	reports, err := a.Analyze(ctx, receiver, visit, date)
	if err != nil {
		fail(c, err)
		return
	}

	dtos := make([]reportDTO, len(reports))
	for i, r := range reports {
		dtos[i] = toReportDTO(r)
	}
	ok(c, http.StatusOK, dtos)
}

// Validate handles POST /schedule/validate.
func (h *Handler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}
	start, end, ok2 := parseDateRange(c, req.StartDate, req.EndDate)
	if !ok2 {
		return
	}

	transitions, err := h.Orchestrator.Validate(c.Request.Context(), start, end)
	if err != nil {
		fail(c, err)
		return
	}

	var invalid, valid []transitionDTO
	for _, t := range transitions {
		dto := toTransitionDTO(t)
		if t.To == domain.StatusNeedsReassignment {
			invalid = append(invalid, dto)
		} else {
			valid = append(valid, dto)
		}
	}

	ok(c, http.StatusOK, gin.H{
		"summary": gin.H{"flagged": len(invalid), "restored": len(valid)},
		"invalid": invalid,
		"valid":   valid,
	})
}

// FindAvailable handles POST /schedule/find-available.
func (h *Handler) FindAvailable(c *gin.Context) {
	var req findAvailableRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}
	if req.CareReceiverID == "" {
		fail(c, apperr.MissingFields("care_receiver_id is required"))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		fail(c, apperr.Validation("date must be an ISO-8601 date"))
		return
	}
	start, err := geo.ParseHHMM(req.StartTime)
	if err != nil {
		fail(c, apperr.Validation("start_time must be HH:MM"))
		return
	}
	end, err := geo.ParseHHMM(req.EndTime)
	if err != nil {
		fail(c, apperr.Validation("end_time must be HH:MM"))
		return
	}

	ctx := c.Request.Context()
	receiver, err := h.CareReceivers.Get(ctx, req.CareReceiverID)
	if err != nil {
		if err == store.ErrNotFound {
			fail(c, apperr.CareReceiverNotFound(req.CareReceiverID))
			return
		}
		fail(c, err)
		return
	}

	cfg, err := h.Settings.Get(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	reqs := make([]domain.Skill, len(req.Requirements))
	for i, r := range req.Requirements {
		reqs[i] = domain.Skill(r)
	}
	v := domain.VisitTemplate{Requirements: reqs, DoubleHanded: req.DoubleHanded}

	allCareGivers, err := h.CareGivers.ListActive(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	candidates := assignment.CandidateFilter(allCareGivers, receiver, v, cfg.MaxDistanceKM, nil)

	oracle := feasibility.New(h.CareGivers, h.CareReceivers, h.Availability, h.Appointments, cfg, h.Router)

	var out []candidateDTO
	for _, cg := range candidates {
		res, err := oracle.IsAvailable(ctx, cg.ID, date, start, end, receiver.Home, "")
		if err != nil {
			fail(c, err)
			return
		}
		if !res.Available {
			continue
		}
		travelMins, _ := h.Router.TravelTime(ctx, cg.Home, receiver.Home)
		out = append(out, candidateDTO{
			CareGiverID:    cg.ID,
			Name:           cg.Name,
			DistanceKM:     geo.Haversine(cg.Home, receiver.Home),
			TravelTimeMins: travelMins,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKM < out[j].DistanceKM })

	ok(c, http.StatusOK, out)
}

// CreateManualAppointment handles POST /schedule/appointments/manual.
func (h *Handler) CreateManualAppointment(c *gin.Context) {
	var req manualAppointmentRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}
	if req.CareReceiverID == "" || req.CareGiverID == "" || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		fail(c, apperr.MissingFields("care_receiver_id, care_giver_id, date, start_time, end_time are required"))
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		fail(c, apperr.Validation("date must be an ISO-8601 date"))
		return
	}
	start, err := geo.ParseHHMM(req.StartTime)
	if err != nil {
		fail(c, apperr.Validation("start_time must be HH:MM"))
		return
	}
	end, err := geo.ParseHHMM(req.EndTime)
	if err != nil {
		fail(c, apperr.Validation("end_time must be HH:MM"))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.CareReceivers.Get(ctx, req.CareReceiverID); err != nil {
		if err == store.ErrNotFound {
			fail(c, apperr.CareReceiverNotFound(req.CareReceiverID))
			return
		}
		fail(c, err)
		return
	}
	primary, err := h.CareGivers.Get(ctx, req.CareGiverID)
	if err != nil {
		if err == store.ErrNotFound {
			fail(c, apperr.CareGiverNotFound(req.CareGiverID))
			return
		}
		fail(c, err)
		return
	}

	reqs := make([]domain.Skill, len(req.Requirements))
	for i, r := range req.Requirements {
		reqs[i] = domain.Skill(r)
	}

	primarySnapshot, err := assignment.SnapshotFor(ctx, h.Availability, primary, date)
	if err != nil {
		fail(c, err)
		return
	}

	apt := domain.Appointment{
		CareReceiverID:  req.CareReceiverID,
		CareGiverID:     req.CareGiverID,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		VisitNumber:     req.VisitNumber,
		Requirements:    reqs,
		DoubleHanded:    req.DoubleHanded,
		Priority:        req.Priority,
		Status:          domain.StatusScheduled,
		PrimarySnapshot: primarySnapshot,
	}

	if req.SecondaryCareGiverID != "" {
		secondary, err := h.CareGivers.Get(ctx, req.SecondaryCareGiverID)
		if err != nil {
			if err == store.ErrNotFound {
				fail(c, apperr.CareGiverNotFound(req.SecondaryCareGiverID))
				return
			}
			fail(c, err)
			return
		}
		secSnapshot, err := assignment.SnapshotFor(ctx, h.Availability, secondary, date)
		if err != nil {
			fail(c, err)
			return
		}
		apt.SecondaryCareGiverID = req.SecondaryCareGiverID
		apt.SecondarySnapshot = &secSnapshot
	}

	created, err := h.Appointments.Create(ctx, apt)
	if err != nil {
		fail(c, err)
		return
	}

	h.Orchestrator.NotifyManualSchedule(ctx, created.ID, actorID(c), "created")
	ok(c, http.StatusCreated, toAppointmentDTO(created))
}

// UpdateAppointmentStatus handles PATCH /schedule/appointments/:id/status.
func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	id := c.Param("id")
	var req statusUpdateRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, apperr.Validation(err.Error()))
		return
	}
	if req.Status == "" {
		fail(c, apperr.MissingFields("status is required"))
		return
	}

	ctx := c.Request.Context()
	apt, err := h.Appointments.Get(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			fail(c, apperr.AppointmentNotFound(id))
			return
		}
		fail(c, err)
		return
	}

	apt.Status = domain.AppointmentStatus(req.Status)
	if apt.Status == domain.StatusCancelled {
		apt.CancellationReason = req.CancellationReason
	}

	if err := h.Appointments.Update(ctx, apt); err != nil {
		fail(c, err)
		return
	}

	h.Orchestrator.NotifyManualSchedule(ctx, apt.ID, actorID(c), "status_changed:"+req.Status)
	ok(c, http.StatusOK, toAppointmentDTO(apt))
}

// DeleteAppointment handles DELETE /schedule/appointments/:id.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := h.Appointments.Get(ctx, id); err != nil {
		if err == store.ErrNotFound {
			fail(c, apperr.AppointmentNotFound(id))
			return
		}
		fail(c, err)
		return
	}

	if err := h.Appointments.Delete(ctx, id); err != nil {
		fail(c, err)
		return
	}

	h.Orchestrator.NotifyManualSchedule(ctx, id, actorID(c), "deleted")
	ok(c, http.StatusOK, gin.H{"deleted": true})
}

// CareReceiverAppointments handles GET /schedule/care-receivers/:id/appointments.
func (h *Handler) CareReceiverAppointments(c *gin.Context) {
	id := c.Param("id")
	start, end, ok2 := parseDateRange(c, c.Query("start_date"), c.Query("end_date"))
	if !ok2 {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.CareReceivers.Get(ctx, id); err != nil {
		if err == store.ErrNotFound {
			fail(c, apperr.CareReceiverNotFound(id))
			return
		}
		fail(c, err)
		return
	}

	appointments, err := h.Appointments.ForCareReceiver(ctx, id, start, end)
	if err != nil {
		fail(c, err)
		return
	}

	dtos := make([]appointmentDTO, len(appointments))
	for i, a := range appointments {
		dtos[i] = toAppointmentDTO(a)
	}
	ok(c, http.StatusOK, dtos)
}

// Stats handles GET /schedule/stats.
func (h *Handler) Stats(c *gin.Context) {
	start, end, ok2 := parseDateRange(c, c.Query("start_date"), c.Query("end_date"))
	if !ok2 {
		return
	}

	appointments, err := h.Appointments.InRange(c.Request.Context(), start, end, store.AppointmentFilter{})
	if err != nil {
		fail(c, err)
		return
	}

	var resp statsResponse
	resp.TotalAppointments = len(appointments)
	for _, a := range appointments {
		switch a.Status {
		case domain.StatusCompleted:
			resp.Completed++
		case domain.StatusCancelled:
			resp.Cancelled++
		case domain.StatusNeedsReassignment:
			resp.NeedsReassignment++
		case domain.StatusScheduled, domain.StatusInProgress:
			resp.Scheduled++
		}
	}
	if resp.TotalAppointments > 0 {
		resp.CompletionRate = float64(resp.Completed) / float64(resp.TotalAppointments)
	}

	ok(c, http.StatusOK, resp)
}

func actorID(c *gin.Context) string {
	if v, ok := c.Get("actor_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
