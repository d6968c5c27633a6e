package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewPlanService builds a plan service over plans.
func (f *ServiceFactory) NewPlanService(plans application.PlanRepository) *application.PlanService {
	return application.NewPlanServiceWithLogger(plans, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewPatientService builds a patient service over patients.
func (f *ServiceFactory) NewPatientService(patients application.PatientRepository) *application.PatientService {
	return application.NewPatientServiceWithLogger(patients, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewTherapyTypeService builds a therapy type service over therapies.
func (f *ServiceFactory) NewTherapyTypeService(therapies application.TherapyTypeRepository) *application.TherapyTypeService {
	return application.NewTherapyTypeServiceWithLogger(therapies, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewProfessionalService builds a professional service over professionals.
func (f *ServiceFactory) NewProfessionalService(professionals application.ProfessionalRepository) *application.ProfessionalService {
	return application.NewProfessionalServiceWithLogger(professionals, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewAgendaService builds an agenda service evaluating dates in loc.
func (f *ServiceFactory) NewAgendaService(plans application.ActivePlanSource, loc *time.Location) *application.AgendaService {
	return application.NewAgendaServiceWithLogger(plans, loc, f.Logger)
}
