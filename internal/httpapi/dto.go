package httpapi

import (
	"time"

	"github.com/sanjshine99/care-app-backend/internal/analyzer"
	"github.com/sanjshine99/care-app-backend/internal/assignment"
	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/validator"
)

const dateLayout = "2006-01-02"

// appointmentDTO is the wire shape of a domain.Appointment; the domain
// struct carries no json tags on purpose (it is not a wire type), so the
// snake_case mapping happens here, keeping request/response shapes
// local to this package.
type appointmentDTO struct {
	ID                   string  `json:"id"`
	CareReceiverID       string  `json:"care_receiver_id"`
	CareGiverID          string  `json:"care_giver_id"`
	SecondaryCareGiverID string  `json:"secondary_care_giver_id,omitempty"`
	Date                 string  `json:"date"`
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	VisitNumber          int     `json:"visit_number"`
	Requirements         []string `json:"requirements,omitempty"`
	DoubleHanded         bool    `json:"double_handed"`
	Priority             int     `json:"priority"`
	Status               string  `json:"status"`
	CancellationReason   string  `json:"cancellation_reason,omitempty"`
	InvalidationReason   string  `json:"invalidation_reason,omitempty"`
}

func toAppointmentDTO(a domain.Appointment) appointmentDTO {
	reqs := make([]string, len(a.Requirements))
	for i, r := range a.Requirements {
		reqs[i] = string(r)
	}
	return appointmentDTO{
		ID:                   a.ID,
		CareReceiverID:       a.CareReceiverID,
		CareGiverID:          a.CareGiverID,
		SecondaryCareGiverID: a.SecondaryCareGiverID,
		Date:                 a.Date.Format(dateLayout),
		StartTime:            a.StartTime.String(),
		EndTime:              a.EndTime.String(),
		VisitNumber:          a.VisitNumber,
		Requirements:         reqs,
		DoubleHanded:         a.DoubleHanded,
		Priority:             a.Priority,
		Status:               string(a.Status),
		CancellationReason:   a.CancellationReason,
		InvalidationReason:   a.InvalidationReason,
	}
}

type failureDTO struct {
	VisitNumber int    `json:"visit_number"`
	Date        string `json:"date"`
	Reason      string `json:"reason"`
}

func toFailureDTO(f assignment.Failure) failureDTO {
	return failureDTO{VisitNumber: f.VisitNumber, Date: f.Date.Format(dateLayout), Reason: f.Reason}
}

type receiverResultDTO struct {
	CareReceiverID string           `json:"care_receiver_id"`
	Scheduled      []appointmentDTO `json:"scheduled"`
	Failed         []failureDTO     `json:"failed"`
}

func toReceiverResultDTO(r assignment.ReceiverResult) receiverResultDTO {
	out := receiverResultDTO{CareReceiverID: r.CareReceiverID}
	for _, a := range r.Scheduled {
		out.Scheduled = append(out.Scheduled, toAppointmentDTO(a))
	}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, toFailureDTO(f))
	}
	return out
}

type generateRequest struct {
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	CareReceiverID  string   `json:"care_receiver_id,omitempty"`
	CareReceiverIDs []string `json:"care_receiver_ids,omitempty"`
}

type generateResponseData struct {
	Results []receiverResultDTO `json:"results"`
	Summary generateSummary     `json:"summary"`
}

type generateSummary struct {
	TotalScheduled         int `json:"total_scheduled"`
	TotalFailed            int `json:"total_failed"`
	CareReceiversProcessed int `json:"care_receivers_processed"`
}

func summarize(results []receiverResultDTO) generateSummary {
	s := generateSummary{CareReceiversProcessed: len(results)}
	for _, r := range results {
		s.TotalScheduled += len(r.Scheduled)
		s.TotalFailed += len(r.Failed)
	}
	return s
}

type validateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type transitionDTO struct {
	AppointmentID string `json:"appointment_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	Reason        string `json:"reason,omitempty"`
}

func toTransitionDTO(t validator.Transition) transitionDTO {
	return transitionDTO{AppointmentID: t.AppointmentID, From: string(t.From), To: string(t.To), Reason: t.Reason}
}

type analyzeRequest struct {
	CareReceiverID string   `json:"care_receiver_id"`
	Visit          visitDTO `json:"visit"`
	Date           string   `json:"date"`
}

type visitDTO struct {
	PreferredTime   string   `json:"preferred_time"`
	DurationMinutes int      `json:"duration_minutes"`
	Requirements    []string `json:"requirements,omitempty"`
	DoubleHanded    bool     `json:"double_handed,omitempty"`
	Priority        int      `json:"priority,omitempty"`
}

func (v visitDTO) toDomain() (domain.VisitTemplate, error) {
	t, err := geo.ParseHHMM(v.PreferredTime)
	if err != nil {
		return domain.VisitTemplate{}, err
	}
	reqs := make([]domain.Skill, len(v.Requirements))
	for i, r := range v.Requirements {
		reqs[i] = domain.Skill(r)
	}
	priority := v.Priority
	if priority == 0 {
		priority = 1
	}
	return domain.VisitTemplate{
		PreferredTime:   t,
		DurationMinutes: v.DurationMinutes,
		Requirements:    reqs,
		DoubleHanded:    v.DoubleHanded,
		Priority:        priority,
	}, nil
}

type reportDTO struct {
	CareGiverID      string   `json:"care_giver_id"`
	Name             string   `json:"name"`
	CanAssign        bool     `json:"can_assign"`
	RejectionReasons []string `json:"rejection_reasons,omitempty"`
	MatchScore       int      `json:"match_score"`
	DistanceKM       float64  `json:"distance_km"`
}

func toReportDTO(r analyzer.Report) reportDTO {
	return reportDTO{
		CareGiverID:      r.CareGiverID,
		Name:             r.Name,
		CanAssign:        r.CanAssign,
		RejectionReasons: r.RejectionReasons,
		MatchScore:       r.MatchScore,
		DistanceKM:       r.DistanceKM,
	}
}

type findAvailableRequest struct {
	CareReceiverID string   `json:"care_receiver_id"`
	Date           string   `json:"date"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	Requirements   []string `json:"requirements,omitempty"`
	DoubleHanded   bool     `json:"double_handed,omitempty"`
}

type candidateDTO struct {
	CareGiverID    string  `json:"care_giver_id"`
	Name           string  `json:"name"`
	DistanceKM     float64 `json:"distance_km"`
	TravelTimeMins int     `json:"travel_time_minutes"`
}

type manualAppointmentRequest struct {
	CareReceiverID       string   `json:"care_receiver_id"`
	CareGiverID          string   `json:"care_giver_id"`
	SecondaryCareGiverID string   `json:"secondary_care_giver_id,omitempty"`
	Date                 string   `json:"date"`
	StartTime            string   `json:"start_time"`
	EndTime              string   `json:"end_time"`
	VisitNumber          int      `json:"visit_number"`
	Requirements         []string `json:"requirements,omitempty"`
	DoubleHanded         bool     `json:"double_handed,omitempty"`
	Priority             int      `json:"priority,omitempty"`
}

type statusUpdateRequest struct {
	Status              string `json:"status"`
	CancellationReason  string `json:"cancellation_reason,omitempty"`
}

type statsResponse struct {
	TotalAppointments    int     `json:"total_appointments"`
	Scheduled            int     `json:"scheduled"`
	Completed            int     `json:"completed"`
	Cancelled            int     `json:"cancelled"`
	NeedsReassignment    int     `json:"needs_reassignment"`
	CompletionRate       float64 `json:"completion_rate"`
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
