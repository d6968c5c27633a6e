package persistence

import "context"

// ListOptions narrows directory listings. Limit <= 0 means no limit.
type ListOptions struct {
	Limit  int
	Offset int
	Search string
}

// PlanFilter narrows plan queries.
type PlanFilter struct {
	ProfessionalID string
	DayOfWeek      *int
	ActiveOnly     bool
}

// PatientRepository exposes CRUD operations for patients.
type PatientRepository interface {
	CreatePatient(ctx context.Context, patient Patient) error
	UpdatePatient(ctx context.Context, patient Patient) error
	GetPatient(ctx context.Context, id string) (Patient, error)
	ListPatients(ctx context.Context, opts ListOptions) ([]Patient, error)
	DeletePatient(ctx context.Context, id string) error
}

// TherapyTypeRepository exposes CRUD operations for therapy types.
type TherapyTypeRepository interface {
	CreateTherapyType(ctx context.Context, therapy TherapyType) error
	UpdateTherapyType(ctx context.Context, therapy TherapyType) error
	GetTherapyType(ctx context.Context, id string) (TherapyType, error)
	ListTherapyTypes(ctx context.Context, opts ListOptions) ([]TherapyType, error)
	DeleteTherapyType(ctx context.Context, id string) error
}

// ProfessionalRepository exposes CRUD operations for professionals.
type ProfessionalRepository interface {
	CreateProfessional(ctx context.Context, professional Professional) error
	UpdateProfessional(ctx context.Context, professional Professional) error
	GetProfessional(ctx context.Context, id string) (Professional, error)
	ListProfessionals(ctx context.Context, opts ListOptions) ([]Professional, error)
	DeleteProfessional(ctx context.Context, id string) error
}

// PlanRepository stores weekly plans.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan Plan) error
	UpdatePlan(ctx context.Context, plan Plan) error
	GetPlan(ctx context.Context, id string) (PlanView, error)
	ListPlans(ctx context.Context, filter PlanFilter) ([]PlanView, error)
	DeletePlan(ctx context.Context, id string) error
	OccupancyAggregate(ctx context.Context) ([]OccupancyRow, error)
}

// UserRepository stores operator accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// BackupRepository stores semester backup records.
type BackupRepository interface {
	InsertBackup(ctx context.Context, backup Backup) error
	GetBackupByLabel(ctx context.Context, label string) (Backup, error)
}
