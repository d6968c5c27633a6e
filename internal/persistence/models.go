package persistence

import "time"

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

// TherapyType is a kind of therapy offered by the clinic.
type TherapyType struct {
	ID             string
	Name           string
	SessionMinutes int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Professional is a therapist who attends plans.
type Professional struct {
	ID            string
	Name          string
	TherapyTypeID string
	Email         *string
	Phone         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// TherapyName is filled on reads from the joined therapy type.
	TherapyName string
}

// Plan is a weekly recurring session booking.
type Plan struct {
	ID              string
	PatientID       string
	ProfessionalID  string
	TherapyTypeID   string
	DayOfWeek       int
	StartTime       string
	EndTime         string
	Active          bool
	CreatedByUserID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PlanView is a plan joined with the names of the records it references.
type PlanView struct {
	Plan
	PatientName      string
	ProfessionalName string
	TherapyName      string
}

// OccupancyRow is the pre-aggregated load of one professional.
type OccupancyRow struct {
	ProfessionalID      string
	TotalSessionMinutes int
	SessionCount        int
}

// User is an operator account and its profile.
type User struct {
	ID           string
	Email        string
	Name         string
	ProfileType  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Backup records that a semester was archived.
type Backup struct {
	ID                string
	SemesterLabel     string
	PerformedAt       time.Time
	StoragePath       string
	PerformedByUserID string
	SummaryHash       string
}
