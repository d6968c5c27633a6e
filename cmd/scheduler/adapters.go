package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/recurrence"
	"github.com/example/clinic-scheduler/internal/semester"
	"github.com/example/clinic-scheduler/internal/upstream"
)

var (
	_ application.PatientRepository        = (*patientRepositoryAdapter)(nil)
	_ application.TherapyTypeRepository    = (*therapyTypeRepositoryAdapter)(nil)
	_ application.ProfessionalRepository   = (*professionalRepositoryAdapter)(nil)
	_ application.PlanRepository           = (*planRepositoryAdapter)(nil)
	_ application.OccupancyAggregateSource = (*planRepositoryAdapter)(nil)
	_ application.OccupancyAggregateSource = (*upstreamOccupancyAdapter)(nil)
	_ application.UserRepository           = (*userRepositoryAdapter)(nil)
	_ semester.BackupStore                 = (*backupStoreAdapter)(nil)
	_ semester.EventCounter                = (*localEventCounter)(nil)
)

// ----------------------------- Patients -----------------------------

type patientRepositoryAdapter struct {
	repo persistence.PatientRepository
}

func newPatientRepositoryAdapter(repo persistence.PatientRepository) *patientRepositoryAdapter {
	return &patientRepositoryAdapter{repo: repo}
}

func (a *patientRepositoryAdapter) CreatePatient(ctx context.Context, patient application.Patient) (application.Patient, error) {
	if err := a.repo.CreatePatient(ctx, persistence.Patient(patient)); err != nil {
		return application.Patient{}, err
	}
	return a.GetPatient(ctx, patient.ID)
}

func (a *patientRepositoryAdapter) UpdatePatient(ctx context.Context, patient application.Patient) (application.Patient, error) {
	if err := a.repo.UpdatePatient(ctx, persistence.Patient(patient)); err != nil {
		return application.Patient{}, err
	}
	return a.GetPatient(ctx, patient.ID)
}

func (a *patientRepositoryAdapter) GetPatient(ctx context.Context, id string) (application.Patient, error) {
	stored, err := a.repo.GetPatient(ctx, id)
	if err != nil {
		return application.Patient{}, err
	}
	return application.Patient(stored), nil
}

func (a *patientRepositoryAdapter) ListPatients(ctx context.Context, opts application.ListOptions) ([]application.Patient, error) {
	stored, err := a.repo.ListPatients(ctx, persistence.ListOptions(opts))
	if err != nil {
		return nil, err
	}
	out := make([]application.Patient, 0, len(stored))
	for _, p := range stored {
		out = append(out, application.Patient(p))
	}
	return out, nil
}

func (a *patientRepositoryAdapter) DeletePatient(ctx context.Context, id string) error {
	return a.repo.DeletePatient(ctx, id)
}

// --------------------------- Therapy types ---------------------------

type therapyTypeRepositoryAdapter struct {
	repo persistence.TherapyTypeRepository
}

func newTherapyTypeRepositoryAdapter(repo persistence.TherapyTypeRepository) *therapyTypeRepositoryAdapter {
	return &therapyTypeRepositoryAdapter{repo: repo}
}

func (a *therapyTypeRepositoryAdapter) CreateTherapyType(ctx context.Context, therapy application.TherapyType) (application.TherapyType, error) {
	if err := a.repo.CreateTherapyType(ctx, persistence.TherapyType(therapy)); err != nil {
		return application.TherapyType{}, err
	}
	return a.GetTherapyType(ctx, therapy.ID)
}

func (a *therapyTypeRepositoryAdapter) UpdateTherapyType(ctx context.Context, therapy application.TherapyType) (application.TherapyType, error) {
	if err := a.repo.UpdateTherapyType(ctx, persistence.TherapyType(therapy)); err != nil {
		return application.TherapyType{}, err
	}
	return a.GetTherapyType(ctx, therapy.ID)
}

func (a *therapyTypeRepositoryAdapter) GetTherapyType(ctx context.Context, id string) (application.TherapyType, error) {
	stored, err := a.repo.GetTherapyType(ctx, id)
	if err != nil {
		return application.TherapyType{}, err
	}
	return application.TherapyType(stored), nil
}

func (a *therapyTypeRepositoryAdapter) ListTherapyTypes(ctx context.Context, opts application.ListOptions) ([]application.TherapyType, error) {
	stored, err := a.repo.ListTherapyTypes(ctx, persistence.ListOptions(opts))
	if err != nil {
		return nil, err
	}
	out := make([]application.TherapyType, 0, len(stored))
	for _, t := range stored {
		out = append(out, application.TherapyType(t))
	}
	return out, nil
}

func (a *therapyTypeRepositoryAdapter) DeleteTherapyType(ctx context.Context, id string) error {
	return a.repo.DeleteTherapyType(ctx, id)
}

// --------------------------- Professionals ---------------------------

type professionalRepositoryAdapter struct {
	repo persistence.ProfessionalRepository
}

func newProfessionalRepositoryAdapter(repo persistence.ProfessionalRepository) *professionalRepositoryAdapter {
	return &professionalRepositoryAdapter{repo: repo}
}

func (a *professionalRepositoryAdapter) CreateProfessional(ctx context.Context, professional application.Professional) (application.Professional, error) {
	if err := a.repo.CreateProfessional(ctx, toPersistenceProfessional(professional)); err != nil {
		return application.Professional{}, err
	}
	return a.GetProfessional(ctx, professional.ID)
}

func (a *professionalRepositoryAdapter) UpdateProfessional(ctx context.Context, professional application.Professional) (application.Professional, error) {
	if err := a.repo.UpdateProfessional(ctx, toPersistenceProfessional(professional)); err != nil {
		return application.Professional{}, err
	}
	return a.GetProfessional(ctx, professional.ID)
}

func (a *professionalRepositoryAdapter) GetProfessional(ctx context.Context, id string) (application.Professional, error) {
	stored, err := a.repo.GetProfessional(ctx, id)
	if err != nil {
		return application.Professional{}, err
	}
	return toApplicationProfessional(stored), nil
}

func (a *professionalRepositoryAdapter) ListProfessionals(ctx context.Context, opts application.ListOptions) ([]application.Professional, error) {
	stored, err := a.repo.ListProfessionals(ctx, persistence.ListOptions(opts))
	if err != nil {
		return nil, err
	}
	out := make([]application.Professional, 0, len(stored))
	for _, p := range stored {
		out = append(out, toApplicationProfessional(p))
	}
	return out, nil
}

func (a *professionalRepositoryAdapter) DeleteProfessional(ctx context.Context, id string) error {
	return a.repo.DeleteProfessional(ctx, id)
}

func toPersistenceProfessional(p application.Professional) persistence.Professional {
	return persistence.Professional{
		ID:            p.ID,
		Name:          p.Name,
		TherapyTypeID: p.TherapyTypeID,
		Email:         p.Email,
		Phone:         p.Phone,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toApplicationProfessional(p persistence.Professional) application.Professional {
	return application.Professional{
		ID:            p.ID,
		Name:          p.Name,
		TherapyTypeID: p.TherapyTypeID,
		TherapyName:   p.TherapyName,
		Email:         p.Email,
		Phone:         p.Phone,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ------------------------------- Plans -------------------------------

type planRepositoryAdapter struct {
	repo persistence.PlanRepository
}

func newPlanRepositoryAdapter(repo persistence.PlanRepository) *planRepositoryAdapter {
	return &planRepositoryAdapter{repo: repo}
}

func (a *planRepositoryAdapter) CreatePlan(ctx context.Context, plan application.Plan) (application.Plan, error) {
	if err := a.repo.CreatePlan(ctx, toPersistencePlan(plan)); err != nil {
		return application.Plan{}, err
	}
	return a.GetPlan(ctx, plan.ID)
}

func (a *planRepositoryAdapter) UpdatePlan(ctx context.Context, plan application.Plan) (application.Plan, error) {
	if err := a.repo.UpdatePlan(ctx, toPersistencePlan(plan)); err != nil {
		return application.Plan{}, err
	}
	return a.GetPlan(ctx, plan.ID)
}

func (a *planRepositoryAdapter) DeletePlan(ctx context.Context, id string) error {
	return a.repo.DeletePlan(ctx, id)
}

func (a *planRepositoryAdapter) GetPlan(ctx context.Context, id string) (application.Plan, error) {
	view, err := a.repo.GetPlan(ctx, id)
	if err != nil {
		return application.Plan{}, err
	}
	return toApplicationPlan(view), nil
}

func (a *planRepositoryAdapter) ListActivePlans(ctx context.Context) ([]application.Plan, error) {
	return a.list(ctx, persistence.PlanFilter{ActiveOnly: true})
}

func (a *planRepositoryAdapter) ListPlansForProfessionalDay(ctx context.Context, professionalID string, dayOfWeek int) ([]application.Plan, error) {
	return a.list(ctx, persistence.PlanFilter{ProfessionalID: professionalID, DayOfWeek: &dayOfWeek, ActiveOnly: true})
}

func (a *planRepositoryAdapter) FetchOccupancyAggregate(ctx context.Context) ([]application.OccupancyRow, error) {
	rows, err := a.repo.OccupancyAggregate(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.OccupancyRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, application.OccupancyRow(row))
	}
	return out, nil
}

func (a *planRepositoryAdapter) list(ctx context.Context, filter persistence.PlanFilter) ([]application.Plan, error) {
	views, err := a.repo.ListPlans(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]application.Plan, 0, len(views))
	for _, view := range views {
		out = append(out, toApplicationPlan(view))
	}
	return out, nil
}

func toPersistencePlan(p application.Plan) persistence.Plan {
	return persistence.Plan{
		ID:              p.ID,
		PatientID:       p.PatientID,
		ProfessionalID:  p.ProfessionalID,
		TherapyTypeID:   p.TherapyTypeID,
		DayOfWeek:       p.DayOfWeek,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Active:          p.Active,
		CreatedByUserID: p.CreatedByUserID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toApplicationPlan(v persistence.PlanView) application.Plan {
	return application.Plan{
		ID:               v.ID,
		PatientID:        v.PatientID,
		ProfessionalID:   v.ProfessionalID,
		TherapyTypeID:    v.TherapyTypeID,
		DayOfWeek:        v.DayOfWeek,
		StartTime:        v.StartTime,
		EndTime:          v.EndTime,
		Active:           v.Active,
		CreatedByUserID:  v.CreatedByUserID,
		PatientName:      v.PatientName,
		ProfessionalName: v.ProfessionalName,
		TherapyName:      v.TherapyName,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

// upstreamOccupancyAdapter reads the occupancy aggregate from the hosted store.
type upstreamOccupancyAdapter struct {
	client *upstream.Client
}

func (a *upstreamOccupancyAdapter) FetchOccupancyAggregate(ctx context.Context) ([]application.OccupancyRow, error) {
	rows, err := a.client.FetchOccupancyAggregate(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.OccupancyRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, application.OccupancyRow{
			ProfessionalID:      row.ProfessionalID,
			TotalSessionMinutes: row.TotalSessionMinutes,
			SessionCount:        row.SessionCount,
		})
	}
	return out, nil
}

// ------------------------------- Users -------------------------------

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) ListProfiles(ctx context.Context) ([]application.UserProfile, error) {
	stored, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.UserProfile, 0, len(stored))
	for _, u := range stored {
		out = append(out, toApplicationProfile(u))
	}
	return out, nil
}

func (a *userRepositoryAdapter) GetProfile(ctx context.Context, id string) (application.UserProfile, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.UserProfile{}, err
	}
	return toApplicationProfile(stored), nil
}

func (a *userRepositoryAdapter) CreateUserAndProfile(ctx context.Context, profile application.UserProfile, passwordHash string) (application.UserProfile, error) {
	user := persistence.User{
		ID:           profile.ID,
		Email:        profile.Email,
		Name:         profile.Name,
		ProfileType:  profile.ProfileType,
		PasswordHash: passwordHash,
		CreatedAt:    profile.CreatedAt,
		UpdatedAt:    profile.UpdatedAt,
	}
	if err := a.repo.CreateUser(ctx, user); err != nil {
		return application.UserProfile{}, err
	}
	return a.GetProfile(ctx, profile.ID)
}

func (a *userRepositoryAdapter) UpdateProfile(ctx context.Context, profile application.UserProfile) (application.UserProfile, error) {
	current, err := a.repo.GetUser(ctx, profile.ID)
	if err != nil {
		return application.UserProfile{}, err
	}
	current.Name = profile.Name
	current.ProfileType = profile.ProfileType
	current.UpdatedAt = profile.UpdatedAt
	if err := a.repo.UpdateUser(ctx, current); err != nil {
		return application.UserProfile{}, err
	}
	return a.GetProfile(ctx, profile.ID)
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ResetPassword(ctx context.Context, id, passwordHash string) error {
	return a.repo.UpdatePasswordHash(ctx, id, passwordHash)
}

func toApplicationProfile(u persistence.User) application.UserProfile {
	return application.UserProfile{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		ProfileType: u.ProfileType,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ------------------------------ Semester ------------------------------

type backupStoreAdapter struct {
	repo persistence.BackupRepository
}

func newBackupStoreAdapter(repo persistence.BackupRepository) *backupStoreAdapter {
	return &backupStoreAdapter{repo: repo}
}

func (a *backupStoreAdapter) FindBackup(ctx context.Context, label string) (semester.BackupRecord, bool, error) {
	stored, err := a.repo.GetBackupByLabel(ctx, label)
	if errors.Is(err, persistence.ErrNotFound) {
		return semester.BackupRecord{}, false, nil
	}
	if err != nil {
		return semester.BackupRecord{}, false, err
	}
	return semester.BackupRecord(stored), true, nil
}

func (a *backupStoreAdapter) InsertBackup(ctx context.Context, record semester.BackupRecord) error {
	err := a.repo.InsertBackup(ctx, persistence.Backup(record))
	if errors.Is(err, persistence.ErrDuplicate) {
		return semester.ErrBackupExists
	}
	return err
}

// backupTrigger serves POST /backup-semester through the semester service.
type backupTrigger struct {
	service *application.SemesterService
}

func (b backupTrigger) Backup(ctx context.Context, invokerUserID string) (semester.BackupResult, error) {
	return b.service.Backup(ctx, application.Principal{UserID: invokerUserID})
}

// localEventCounter counts the sessions the active plans produce inside a
// semester, since the local store keeps no materialized events.
type localEventCounter struct {
	plans  application.ActivePlanSource
	engine *recurrence.Engine
}

func newLocalEventCounter(plans application.ActivePlanSource, loc *time.Location) *localEventCounter {
	return &localEventCounter{plans: plans, engine: recurrence.NewEngine(loc)}
}

func (c *localEventCounter) CountEvents(ctx context.Context, label string) (int, error) {
	start, next, err := semester.Bounds(label, c.engine.Location())
	if err != nil {
		return 0, err
	}
	plans, err := c.plans.ListActivePlans(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active plans: %w", err)
	}

	weekly := make([]recurrence.WeeklyPlan, 0, len(plans))
	for _, p := range plans {
		weekly = append(weekly, recurrence.WeeklyPlan{ID: p.ID, Weekday: p.DayOfWeek, StartTime: p.StartTime, EndTime: p.EndTime})
	}
	expansion, err := c.engine.Expand(weekly, start, next.AddDate(0, 0, -1))
	if err != nil {
		return 0, err
	}
	return len(expansion.Occurrences), nil
}
