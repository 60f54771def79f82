package http

import (
	"time"

	"github.com/example/community-hub/internal/application"
)

type memberResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMemberResponse(member application.Member) memberResponse {
	return memberResponse{
		ID:          member.ID,
		Email:       member.Email,
		DisplayName: member.DisplayName,
		Phone:       member.Phone,
		IsAdmin:     member.IsAdmin,
		Status:      string(member.Status),
		CreatedAt:   member.CreatedAt,
		UpdatedAt:   member.UpdatedAt,
	}
}

type eventResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Location       string    `json:"location,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Capacity       *int      `json:"capacity"`
	ConfirmedCount int       `json:"confirmed_count"`
	Status         string    `json:"status"`
	TokenPrefix    string    `json:"token_prefix"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toEventResponse(event application.Event) eventResponse {
	return eventResponse{
		ID:             event.ID,
		Title:          event.Title,
		Description:    event.Description,
		Location:       event.Location,
		StartTime:      event.StartTime,
		EndTime:        event.EndTime,
		Capacity:       event.Capacity,
		ConfirmedCount: event.ConfirmedCount,
		Status:         string(event.Status),
		TokenPrefix:    event.TokenPrefix,
		CreatedAt:      event.CreatedAt,
		UpdatedAt:      event.UpdatedAt,
	}
}

type registrationResponse struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	MemberID     string     `json:"member_id"`
	EntryToken   string     `json:"entry_token"`
	Status       string     `json:"status"`
	RegisteredAt time.Time  `json:"registered_at"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
}

func toRegistrationResponse(reg application.Registration) registrationResponse {
	return registrationResponse{
		ID:           reg.ID,
		EventID:      reg.EventID,
		MemberID:     reg.MemberID,
		EntryToken:   reg.EntryToken,
		Status:       string(reg.Status),
		RegisteredAt: reg.RegisteredAt,
		CheckedInAt:  reg.CheckedInAt,
	}
}

type resourceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Capacity    *int      `json:"capacity"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResourceResponse(resource application.Resource) resourceResponse {
	return resourceResponse{
		ID:          resource.ID,
		Name:        resource.Name,
		Type:        resource.Type,
		Description: resource.Description,
		Capacity:    resource.Capacity,
		Available:   resource.Available,
		CreatedAt:   resource.CreatedAt,
		UpdatedAt:   resource.UpdatedAt,
	}
}

type reservationResponse struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	MemberID   string    `json:"member_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toReservationResponse(reservation application.Reservation) reservationResponse {
	return reservationResponse{
		ID:         reservation.ID,
		ResourceID: reservation.ResourceID,
		MemberID:   reservation.MemberID,
		StartTime:  reservation.StartTime,
		EndTime:    reservation.EndTime,
		Status:     string(reservation.Status),
		Notes:      reservation.Notes,
		CreatedAt:  reservation.CreatedAt,
		UpdatedAt:  reservation.UpdatedAt,
	}
}

type overlapWarningResponse struct {
	ReservationID string    `json:"reservation_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

func toOverlapWarningResponses(warnings []application.OverlapWarning) []overlapWarningResponse {
	out := make([]overlapWarningResponse, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, overlapWarningResponse{
			ReservationID: warning.ReservationID,
			StartTime:     warning.StartTime,
			EndTime:       warning.EndTime,
		})
	}
	return out
}
