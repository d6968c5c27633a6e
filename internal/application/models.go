package application

import (
	"time"

	"github.com/samber/mo"
)

// Principal represents the user invoking a service method.
type Principal struct {
	UserID string
}

// ListOptions narrows directory listings. Limit <= 0 means no limit.
type ListOptions struct {
	Limit  int
	Offset int
	Search string
}

// Patient is a person receiving therapy.
type Patient struct {
	ID        string
	FullName  string
	BirthDate *string
	Phone     *string
	Email     *string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PatientInput captures caller provided patient fields.
type PatientInput struct {
	FullName  string  `json:"full_name" validate:"required"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Notes     *string `json:"notes"`
}

// TherapyType is a kind of therapy offered by the clinic.
type TherapyType struct {
	ID             string
	Name           string
	SessionMinutes int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TherapyTypeInput captures caller provided therapy type fields. A zero
// SessionMinutes selects DefaultSessionMinutes.
type TherapyTypeInput struct {
	Name           string `json:"name" validate:"required"`
	SessionMinutes int    `json:"session_minutes" validate:"gt=0"`
}

// DefaultSessionMinutes is the session length of a therapy type created without one.
const DefaultSessionMinutes = 40

// Professional is a therapist who attends plans.
type Professional struct {
	ID            string
	Name          string
	TherapyTypeID string
	TherapyName   string
	Email         *string
	Phone         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfessionalInput captures caller provided professional fields.
type ProfessionalInput struct {
	Name          string  `json:"name" validate:"required"`
	TherapyTypeID string  `json:"therapy_type_id" validate:"required"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Phone         *string `json:"phone"`
}

// Plan is a weekly recurring session joined with display names.
type Plan struct {
	ID               string
	PatientID        string
	ProfessionalID   string
	TherapyTypeID    string
	DayOfWeek        int
	StartTime        string
	EndTime          string
	Active           bool
	CreatedByUserID  string
	PatientName      string
	ProfessionalName string
	TherapyName      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PlanInput captures the fields of a new plan. Active defaults to true.
type PlanInput struct {
	PatientID      string `json:"patient_id" validate:"required"`
	ProfessionalID string `json:"professional_id" validate:"required"`
	TherapyTypeID  string `json:"therapy_type_id" validate:"required"`
	DayOfWeek      *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	Active         *bool  `json:"active"`
}

// PlanPatch carries a partial plan update; absent options keep the stored value.
type PlanPatch struct {
	PatientID      mo.Option[string]
	ProfessionalID mo.Option[string]
	TherapyTypeID  mo.Option[string]
	DayOfWeek      mo.Option[int]
	StartTime      mo.Option[string]
	EndTime        mo.Option[string]
	Active         mo.Option[bool]
}

// CreatePlanParams wraps the data required to create a plan.
type CreatePlanParams struct {
	Principal Principal
	Input     PlanInput
}

// UpdatePlanParams wraps the data required to patch a plan.
type UpdatePlanParams struct {
	Principal Principal
	PlanID    string
	Patch     PlanPatch
}

// CalendarEvent is one dated session derived from an active plan.
type CalendarEvent struct {
	Title            string
	Start            time.Time
	End              time.Time
	SourcePlanID     string
	TherapyName      string
	ProfessionalName string
	PatientName      string
}

// AgendaParams bounds an agenda request. Both values are calendar dates
// (YYYY-MM-DD) or RFC3339 timestamps and the range is inclusive.
type AgendaParams struct {
	Start string
	End   string
}

// OccupancyRow is the pre-aggregated load of one professional.
type OccupancyRow struct {
	ProfessionalID      string
	TotalSessionMinutes int
	SessionCount        int
}

// OccupancyRecord is the weekly load of one professional.
type OccupancyRecord struct {
	ProfessionalID       string
	ProfessionalName     string
	TotalSessionMinutes  int
	SessionCount         int
	DistinctPatientCount int
	TherapyName          string
	OccupationHours      float64
}

// Profile types of an operator account.
const (
	ProfileAdmin = "ADM"
	ProfileUser  = "Usuario"
)

// UserProfile is an operator account without its credentials.
type UserProfile struct {
	ID          string
	Email       string
	Name        string
	ProfileType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserInput captures the fields of a new operator account.
type CreateUserInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Name        string `json:"name" validate:"required"`
	ProfileType string `json:"profile_type" validate:"omitempty,oneof=ADM Usuario"`
}

// UpdateUserInput captures the editable profile fields. The email is fixed
// once the account exists.
type UpdateUserInput struct {
	Name        string `json:"name" validate:"required"`
	ProfileType string `json:"profile_type" validate:"omitempty,oneof=ADM Usuario"`
}
