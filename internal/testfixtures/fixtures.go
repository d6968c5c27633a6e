package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/persistence"
)

var (
	therapyCounter      uint64
	professionalCounter uint64
	patientCounter      uint64
	planCounter         uint64
	userCounter         uint64
)

// referenceTime is a Monday.
var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

func stamp(idx uint64) time.Time {
	return referenceTime.Add(time.Duration(idx) * time.Minute)
}

// -------------------------- Therapy type fixtures --------------------------

// TherapyTypeFixture represents a deterministic therapy type.
type TherapyTypeFixture struct {
	ID             string
	Name           string
	SessionMinutes int
	CreatedAt      time.Time
}

// TherapyTypeOption configures the generated therapy type fixture.
type TherapyTypeOption func(*TherapyTypeFixture)

// NewTherapyTypeFixture returns a therapy type fixture with optional overrides.
func NewTherapyTypeFixture(opts ...TherapyTypeOption) TherapyTypeFixture {
	idx := atomic.AddUint64(&therapyCounter, 1)
	fixture := TherapyTypeFixture{
		ID:             fmt.Sprintf("therapy-%03d", idx),
		Name:           fmt.Sprintf("Terapia %03d", idx),
		SessionMinutes: application.DefaultSessionMinutes,
		CreatedAt:      stamp(idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTherapyName overrides the generated name.
func WithTherapyName(name string) TherapyTypeOption {
	return func(f *TherapyTypeFixture) {
		f.Name = name
	}
}

// WithSessionMinutes overrides the session length.
func WithSessionMinutes(minutes int) TherapyTypeOption {
	return func(f *TherapyTypeFixture) {
		f.SessionMinutes = minutes
	}
}

// Persistence converts the fixture into a storage model.
func (f TherapyTypeFixture) Persistence() persistence.TherapyType {
	return persistence.TherapyType{ID: f.ID, Name: f.Name, SessionMinutes: f.SessionMinutes, CreatedAt: f.CreatedAt, UpdatedAt: f.CreatedAt}
}

// ------------------------- Professional fixtures -------------------------

// ProfessionalFixture represents a deterministic professional.
type ProfessionalFixture struct {
	ID            string
	Name          string
	TherapyTypeID string
	CreatedAt     time.Time
}

// ProfessionalOption configures the generated professional fixture.
type ProfessionalOption func(*ProfessionalFixture)

// NewProfessionalFixture returns a professional of therapyTypeID.
func NewProfessionalFixture(therapyTypeID string, opts ...ProfessionalOption) ProfessionalFixture {
	idx := atomic.AddUint64(&professionalCounter, 1)
	fixture := ProfessionalFixture{
		ID:            fmt.Sprintf("professional-%03d", idx),
		Name:          fmt.Sprintf("Profissional %03d", idx),
		TherapyTypeID: therapyTypeID,
		CreatedAt:     stamp(idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithProfessionalName overrides the generated name.
func WithProfessionalName(name string) ProfessionalOption {
	return func(f *ProfessionalFixture) {
		f.Name = name
	}
}

// Persistence converts the fixture into a storage model.
func (f ProfessionalFixture) Persistence() persistence.Professional {
	return persistence.Professional{ID: f.ID, Name: f.Name, TherapyTypeID: f.TherapyTypeID, CreatedAt: f.CreatedAt, UpdatedAt: f.CreatedAt}
}

// --------------------------- Patient fixtures ---------------------------

// PatientFixture represents a deterministic patient.
type PatientFixture struct {
	ID        string
	FullName  string
	BirthDate *string
	CreatedAt time.Time
}

// PatientOption configures the generated patient fixture.
type PatientOption func(*PatientFixture)

// NewPatientFixture returns a patient fixture with optional overrides.
func NewPatientFixture(opts ...PatientOption) PatientFixture {
	idx := atomic.AddUint64(&patientCounter, 1)
	fixture := PatientFixture{
		ID:        fmt.Sprintf("patient-%03d", idx),
		FullName:  fmt.Sprintf("Paciente %03d", idx),
		CreatedAt: stamp(idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPatientName overrides the generated name.
func WithPatientName(name string) PatientOption {
	return func(f *PatientFixture) {
		f.FullName = name
	}
}

// WithBirthDate sets the birth date (YYYY-MM-DD).
func WithBirthDate(date string) PatientOption {
	return func(f *PatientFixture) {
		f.BirthDate = &date
	}
}

// Persistence converts the fixture into a storage model.
func (f PatientFixture) Persistence() persistence.Patient {
	return persistence.Patient{ID: f.ID, FullName: f.FullName, BirthDate: f.BirthDate, CreatedAt: f.CreatedAt, UpdatedAt: f.CreatedAt}
}

// Input converts the fixture into a service input.
func (f PatientFixture) Input() application.PatientInput {
	return application.PatientInput{FullName: f.FullName, BirthDate: f.BirthDate}
}

// ----------------------------- Plan fixtures -----------------------------

// PlanFixture represents a deterministic weekly plan. By default it runs on
// Monday from 09:00 to 10:00.
type PlanFixture struct {
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
}

// PlanOption configures the generated plan fixture.
type PlanOption func(*PlanFixture)

// NewPlanFixture returns a plan linking patient, professional and therapy type.
func NewPlanFixture(patientID, professionalID, therapyTypeID string, opts ...PlanOption) PlanFixture {
	idx := atomic.AddUint64(&planCounter, 1)
	fixture := PlanFixture{
		ID:              fmt.Sprintf("plan-%03d", idx),
		PatientID:       patientID,
		ProfessionalID:  professionalID,
		TherapyTypeID:   therapyTypeID,
		DayOfWeek:       int(time.Monday),
		StartTime:       "09:00:00",
		EndTime:         "10:00:00",
		Active:          true,
		CreatedByUserID: "user-fixture",
		CreatedAt:       stamp(idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPlanID overrides the generated plan ID.
func WithPlanID(id string) PlanOption {
	return func(f *PlanFixture) {
		f.ID = id
	}
}

// WithPlanSlot sets the weekday and the canonical start and end times.
func WithPlanSlot(day time.Weekday, start, end string) PlanOption {
	return func(f *PlanFixture) {
		f.DayOfWeek = int(day)
		f.StartTime = start
		f.EndTime = end
	}
}

// WithPlanInactive marks the plan as inactive.
func WithPlanInactive() PlanOption {
	return func(f *PlanFixture) {
		f.Active = false
	}
}

// Persistence converts the fixture into a storage model.
func (f PlanFixture) Persistence() persistence.Plan {
	return persistence.Plan{
		ID:              f.ID,
		PatientID:       f.PatientID,
		ProfessionalID:  f.ProfessionalID,
		TherapyTypeID:   f.TherapyTypeID,
		DayOfWeek:       f.DayOfWeek,
		StartTime:       f.StartTime,
		EndTime:         f.EndTime,
		Active:          f.Active,
		CreatedByUserID: f.CreatedByUserID,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

// Application converts the fixture into the service model without names.
func (f PlanFixture) Application() application.Plan {
	return application.Plan{
		ID:              f.ID,
		PatientID:       f.PatientID,
		ProfessionalID:  f.ProfessionalID,
		TherapyTypeID:   f.TherapyTypeID,
		DayOfWeek:       f.DayOfWeek,
		StartTime:       f.StartTime,
		EndTime:         f.EndTime,
		Active:          f.Active,
		CreatedByUserID: f.CreatedByUserID,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

// Input converts the fixture into a create request.
func (f PlanFixture) Input() application.PlanInput {
	day := f.DayOfWeek
	active := f.Active
	return application.PlanInput{
		PatientID:      f.PatientID,
		ProfessionalID: f.ProfessionalID,
		TherapyTypeID:  f.TherapyTypeID,
		DayOfWeek:      &day,
		StartTime:      f.StartTime,
		EndTime:        f.EndTime,
		Active:         &active,
	}
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic operator account.
type UserFixture struct {
	ID           string
	Email        string
	Name         string
	ProfileType  string
	PasswordHash string
	CreatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:           id,
		Email:        id + "@example.com",
		Name:         fmt.Sprintf("Usuário %03d", idx),
		ProfileType:  application.ProfileUser,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    stamp(idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserAdmin switches the profile type to ADM.
func WithUserAdmin() UserOption {
	return func(f *UserFixture) {
		f.ProfileType = application.ProfileAdmin
	}
}

// Persistence converts the fixture into a storage model.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		Name:         f.Name,
		ProfileType:  f.ProfileType,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.CreatedAt,
	}
}

// Principal returns the principal acting as this user.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID}
}
