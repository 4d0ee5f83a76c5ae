package application

import (
	"context"
	"log/slog"
	"time"

	"contact-stream/contact/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EventContactCreated é o nome do evento publicado a cada novo registro.
const EventContactCreated = "contact:new"

const tracerName = "contact-stream/contact/application"

// Publisher entrega um evento a todos os ouvintes ativos e devolve quantos
// aceitaram. broadcast.Hub implementa esta interface.
type Publisher interface {
	Publish(event string, payload any) int
}

// Recorder recebe os resultados das operações para métricas.
type Recorder interface {
	Submitted()
	Rejected(field string)
	StorageFailed(op string)
}

type nopRecorder struct{}

func (nopRecorder) Submitted()           {}
func (nopRecorder) Rejected(string)      {}
func (nopRecorder) StorageFailed(string) {}

// HealthReport é o corpo de GET /health.
type HealthReport struct {
	OK     bool    `json:"ok"`
	Uptime float64 `json:"uptime"`
	DB     string  `json:"db"`
}

const (
	DBUp   = "up"
	DBDown = "down"
)

// Service orquestra validação, persistência e broadcast.
//
// Não conhece HTTP: devolve o registro canônico ou um erro tipado do domínio.
type Service struct {
	store    domain.Store
	pub      Publisher
	log      *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	started  time.Time
	now      func() time.Time
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock troca o relógio usado no uptime (testes).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store domain.Store, pub Publisher, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:    store,
		pub:      pub,
		log:      log,
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// Submit valida, grava e publica uma submissão.
//
// Falha de validação volta como *domain.ValidationError sem tocar no banco;
// falha do banco volta como *domain.StorageError e nada é publicado.
// O resultado do broadcast nunca afeta o retorno.
func (s *Service) Submit(ctx context.Context, sub domain.Submission) (domain.Contact, error) {
	ctx, span := s.tracer.Start(ctx, "contact.Submit")
	defer span.End()

	fields, err := domain.Validate(sub)
	if err != nil {
		field := "unknown"
		if ve, ok := domain.AsValidation(err); ok {
			field = ve.Field
		}
		s.recorder.Rejected(field)
		span.SetAttributes(attribute.String("contact.rejected_field", field))
		s.log.Debug("Contact rejected", "field", field)
		return domain.Contact{}, err
	}

	saved, err := s.store.Insert(ctx, fields)
	if err != nil {
		s.recorder.StorageFailed("insert")
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		s.log.Error("Failed to insert contact", "err", err)
		return domain.Contact{}, domain.WrapStorage("insert", err)
	}
	s.recorder.Submitted()
	span.SetAttributes(attribute.Int64("contact.id", saved.ID))

	delivered := 0
	if s.pub != nil {
		delivered = s.pub.Publish(EventContactCreated, saved)
	}
	span.SetAttributes(attribute.Int("contact.delivered", delivered))
	s.log.Info("Contact created", "id", saved.ID, "delivered", delivered)
	return saved, nil
}

// ListRecent devolve até domain.DefaultListLimit registros, mais novos primeiro.
func (s *Service) ListRecent(ctx context.Context) ([]domain.Contact, error) {
	ctx, span := s.tracer.Start(ctx, "contact.ListRecent")
	defer span.End()

	list, err := s.store.ListRecent(ctx, domain.DefaultListLimit)
	if err != nil {
		s.recorder.StorageFailed("list")
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		s.log.Error("Failed to list contacts", "err", err)
		return nil, domain.WrapStorage("list", err)
	}
	if list == nil {
		list = []domain.Contact{}
	}
	span.SetAttributes(attribute.Int("contact.count", len(list)))
	return list, nil
}

// Health nunca falha: banco inacessível aparece como DB "down".
func (s *Service) Health(ctx context.Context) HealthReport {
	ctx, span := s.tracer.Start(ctx, "contact.Health")
	defer span.End()

	report := HealthReport{OK: true, DB: DBUp, Uptime: s.now().Sub(s.started).Seconds()}
	if err := s.store.Ping(ctx); err != nil {
		report.DB = DBDown
		span.RecordError(err)
		s.log.Warn("Database ping failed", "err", err)
	}
	return report
}
