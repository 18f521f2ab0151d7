package candidate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"admissions/internal/core/apperror"
	"admissions/internal/core/id"
	"admissions/internal/core/sequence"
	"admissions/internal/core/tx"
	"admissions/internal/domain/program"
	"admissions/pkg/logger"
)

// ProgramDirectory resolves programme codes.
type ProgramDirectory interface {
	FindByCodes(ctx context.Context, codes []string) ([]*program.Program, error)
	GetVisible(ctx context.Context, departmentCode, code string) (*program.Program, error)
}

// TokenIssuer issues candidate access tokens.
type TokenIssuer interface {
	IssueCandidateToken(subject string, registrationNumber int64, paymentStatus string) (string, time.Time, error)
}

// Auditor records created candidates.
type Auditor interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action string, payload any) error
}

// Recorder observes candidate creation.
type Recorder interface {
	RetryRecorder
	IncCandidatesCreated()
}

// ServiceConfig configures the candidate service.
type ServiceConfig struct {
	Repo      Repository
	Allocator sequence.Allocator
	TxManager tx.Manager
	Programs  ProgramDirectory
	Tokens    TokenIssuer
	Auditor   Auditor        // Optional
	Metrics   Recorder       // Optional
	Events    EventPublisher // Optional

	MaxRetries   int
	AcademicYear string

	// Transactional allocates numbers and inserts in one transaction.
	Transactional bool

	Now func() time.Time
}

// Service provides candidate registration and lookup.
type Service struct {
	repo      Repository
	allocator sequence.Allocator
	txManager tx.Manager
	programs  ProgramDirectory
	tokens    TokenIssuer
	auditor   Auditor
	metrics   Recorder
	events    EventPublisher
	creator   *Creator

	maxRetries    int
	academicYear  string
	transactional bool
	now           func() time.Time
}

// NewService creates a new candidate service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:          cfg.Repo,
		allocator:     cfg.Allocator,
		txManager:     cfg.TxManager,
		programs:      cfg.Programs,
		tokens:        cfg.Tokens,
		auditor:       cfg.Auditor,
		metrics:       cfg.Metrics,
		events:        cfg.Events,
		maxRetries:    cfg.MaxRetries,
		academicYear:  cfg.AcademicYear,
		transactional: cfg.Transactional && cfg.TxManager != nil,
		now:           cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	var rec RetryRecorder
	if cfg.Metrics != nil {
		rec = cfg.Metrics
	}
	s.creator = NewCreator(cfg.Repo, cfg.Allocator, cfg.TxManager, rec)
	return s
}

// SignupResult is returned after a successful registration.
type SignupResult struct {
	CandidateID        id.ID
	RegistrationNumber int64
	Applications       []Application
	Amount             decimal.Decimal
	PaymentStatus      PaymentStatus
	Token              string
	TokenExpiresAt     time.Time
	CallbackURL        string
}

// Signup validates the form, numbers the applications and registers the candidate.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	now := s.now()

	dob, err := in.Validate(now)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByMobile(ctx, in.Mobile)
	if err != nil {
		return nil, fmt.Errorf("check mobile: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("Candidate already registered with this mobile number")
	}

	names, err := s.programNames(ctx, in.ProgramCodes)
	if err != nil {
		return nil, err
	}

	cand := s.newCandidate(&in, dob, names, now)

	if s.transactional {
		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.numberApplications(ctx, cand); err != nil {
				return err
			}
			if err := s.creator.CreateInTransaction(ctx, cand, s.maxRetries); err != nil {
				return err
			}
			return s.publishRegistered(ctx, cand)
		})
	} else {
		err = s.create(ctx, cand)
		if err == nil {
			if pubErr := s.publishRegistered(ctx, cand); pubErr != nil {
				logger.Warn(ctx, "failed to enqueue registration event", "registration_number", cand.RegistrationNumber, "error", pubErr)
			}
		}
	}
	if err != nil {
		return nil, s.mapCreateErr(ctx, err)
	}

	if s.metrics != nil {
		s.metrics.IncCandidatesCreated()
	}
	s.audit(ctx, cand)

	token, expiresAt, err := s.tokens.IssueCandidateToken(cand.ID.String(), cand.RegistrationNumber, string(cand.PaymentStatus))
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "candidate registered",
		"registration_number", cand.RegistrationNumber,
		"applications", len(cand.Applications),
		"payment_status", cand.PaymentStatus)

	return &SignupResult{
		CandidateID:        cand.ID,
		RegistrationNumber: cand.RegistrationNumber,
		Applications:       cand.Applications,
		Amount:             cand.PaymentAmount,
		PaymentStatus:      cand.PaymentStatus,
		Token:              token,
		TokenExpiresAt:     expiresAt,
		CallbackURL:        CallbackURL(cand.RegistrationNumber, cand.PaymentStatus, cand.PaymentAmount),
	}, nil
}

// create allocates application and registration numbers, then inserts with retry.
func (s *Service) create(ctx context.Context, cand *Candidate) error {
	if err := s.numberApplications(ctx, cand); err != nil {
		return err
	}

	n, err := s.allocator.Next(ctx, sequence.RegistrationNumber)
	if err != nil {
		return err
	}
	cand.RegistrationNumber = n

	return s.creator.CreateWithRetry(ctx, cand, s.maxRetries)
}

func (s *Service) numberApplications(ctx context.Context, cand *Candidate) error {
	numbers, err := s.allocator.NextBatch(ctx, sequence.ApplicationNumber, len(cand.Applications))
	if err != nil {
		return err
	}
	cand.AssignApplicationNumbers(numbers)
	return nil
}

func (s *Service) mapCreateErr(ctx context.Context, err error) error {
	if errors.Is(err, sequence.ErrStoreUnavailable) {
		logger.Error(ctx, "sequence store unavailable", "error", err)
		return apperror.NewStoreUnavailable(err)
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	logger.Error(ctx, "candidate signup failed", "error", err)
	return apperror.NewInternal(err)
}

// programNames maps known codes to catalogue names. Unknown codes are
// accepted with the names submitted in the form.
func (s *Service) programNames(ctx context.Context, codes []string) (map[string]string, error) {
	programs, err := s.programs.FindByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("find programs: %w", err)
	}

	names := make(map[string]string, len(programs))
	for _, p := range programs {
		names[p.ProgramCode] = p.ProgramName
	}

	var unknown []string
	for _, code := range codes {
		if _, ok := names[code]; !ok {
			unknown = append(unknown, code)
		}
	}
	if len(unknown) > 0 {
		logger.Warn(ctx, "program codes not found in catalogue", "codes", unknown)
	}
	return names, nil
}

func (s *Service) newCandidate(in *SignupInput, dob time.Time, names map[string]string, now time.Time) *Candidate {
	amount := in.Fee()

	cand := &Candidate{
		ID:              id.New(),
		AcademicYear:    s.academicYear,
		FullName:        in.Name,
		DateOfBirth:     dob,
		Gender:          in.Gender,
		Email:           in.Email,
		Mobile:          in.Mobile,
		Community:       in.EffectiveCommunity(),
		CommunityNumber: in.CommunityNumber,
		Nationality:     "Indian",
		IsNRI:           in.IsNRI,
		ApplicationType: in.ApplicationType,
		PaymentAmount:   amount,
		PaymentStatus:   PaymentStatusFor(amount, in.Payment),
		AdmissionStatus: StatusApplied,
		IPAddress:       in.IPAddress,
		UserAgent:       in.UserAgent,
		SubmittedAt:     now.UTC(),
		Applications:    make([]Application, len(in.ProgramCodes)),
	}

	if p := in.Payment; p != nil {
		if p.TransactionID != "" {
			cand.TransactionID = &p.TransactionID
		}
		if p.Method != "" {
			cand.PaymentMethod = &p.Method
		}
		cand.PaymentDate = p.TransactionDate
	}

	for i, code := range in.ProgramCodes {
		name := in.ProgramNames[i]
		if name == "" {
			name = names[code]
		}
		cand.Applications[i] = Application{
			ApplicationType: in.ApplicationType,
			ProgramCode:     code,
			ProgramName:     name,
			Stream:          in.ProgramStreams[i],
			Status:          StatusApplied,
			PreferenceOrder: i + 1,
		}
	}
	return cand
}

func (s *Service) audit(ctx context.Context, cand *Candidate) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, "candidate", cand.ID, "create", cand); err != nil {
		logger.Warn(ctx, "failed to audit candidate", "registration_number", cand.RegistrationNumber, "error", err)
	}
}

// publishRegistered enqueues the confirmation event. In transactional
// mode it shares the candidate's transaction.
func (s *Service) publishRegistered(ctx context.Context, cand *Candidate) error {
	if s.events == nil {
		return nil
	}
	if err := s.events.Publish(ctx, AggregateType, cand.ID, EventRegistered, NewRegisteredEvent(cand)); err != nil {
		return fmt.Errorf("publish %s: %w", EventRegistered, err)
	}
	return nil
}

// CallbackURL is where the client continues after signup.
func CallbackURL(registrationNumber int64, status PaymentStatus, amount decimal.Decimal) string {
	if status == PaymentSuccess {
		return fmt.Sprintf("/application-success?registration_number=%d", registrationNumber)
	}
	return fmt.Sprintf("/payment?registration_number=%d&amount=%s", registrationNumber, amount.String())
}

// Simulated payment outcomes.
const (
	SimulateSuccess = "success"
	SimulateFailure = "failure"
)

// SimulatePaymentInput is a form paired with a simulated gateway outcome.
type SimulatePaymentInput struct {
	Form SignupInput

	// Amount is invalid when the client sent none.
	Amount       decimal.NullDecimal
	SimulateType string
}

// SimulatePayment stands in for the payment gateway. A successful payment
// registers the candidate as paid; free applications always succeed.
func (s *Service) SimulatePayment(ctx context.Context, in SimulatePaymentInput) (*SignupResult, error) {
	outcome := in.SimulateType
	explicitlyFree := in.Amount.Valid && in.Amount.Decimal.IsZero()
	if explicitlyFree || IsFreeCommunity(in.Form.Community) || in.Form.IsNRI {
		outcome = SimulateSuccess
	}

	switch outcome {
	case SimulateSuccess:
		now := s.now().UTC()
		in.Form.Payment = &PaymentDetails{
			Status:          string(PaymentSuccess),
			TransactionID:   fmt.Sprintf("TXN%d", now.UnixMilli()),
			TransactionDate: &now,
			Method:          "ccavenue",
			AmountPaid:      in.Amount.Decimal,
		}
		return s.Signup(ctx, in.Form)
	case SimulateFailure:
		return nil, apperror.NewPaymentFailed()
	default:
		return nil, apperror.NewValidation("Invalid simulateType. Must be 'success' or 'failure'").
			WithDetail("field", "simulateType")
	}
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Candidate *Candidate
}

// Login authenticates a candidate by registration number and mobile.
func (s *Service) Login(ctx context.Context, registrationNumber int64, mobile string) (*LoginResult, error) {
	if registrationNumber == 0 || mobile == "" {
		return nil, apperror.NewValidation("Registration number and mobile are required")
	}

	cand, err := s.repo.FindByRegistrationNumber(ctx, registrationNumber)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("Invalid Registration Number")
		}
		return nil, err
	}
	if cand.Mobile != mobile {
		return nil, apperror.NewUnauthorized("Invalid Mobile Number")
	}

	token, expiresAt, err := s.tokens.IssueCandidateToken(cand.ID.String(), cand.RegistrationNumber, string(cand.PaymentStatus))
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "candidate logged in", "registration_number", cand.RegistrationNumber)

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Candidate: cand}, nil
}

// FindRegistrationNumber recovers a forgotten registration number.
func (s *Service) FindRegistrationNumber(ctx context.Context, mobile string) (int64, error) {
	if mobile == "" {
		return 0, apperror.NewValidation("Mobile number is required")
	}

	cand, err := s.repo.FindByMobile(ctx, mobile)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, apperror.NewNotFound("registration", mobile).
				WithMessage("No registration found for this mobile number")
		}
		return 0, err
	}
	return cand.RegistrationNumber, nil
}

// ProgramApplications lists the candidates of one programme.
type ProgramApplications struct {
	Program    *program.Program
	Candidates []*Candidate
}

// ApplicationsByProgram returns the applicants of a visible programme.
func (s *Service) ApplicationsByProgram(ctx context.Context, departmentCode, programCode string) (*ProgramApplications, error) {
	p, err := s.programs.GetVisible(ctx, departmentCode, programCode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewValidation("Invalid department code or program code").
				WithDetail("department_code", departmentCode).
				WithDetail("program_code", programCode)
		}
		return nil, err
	}

	candidates, err := s.repo.ListByProgram(ctx, programCode)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	return &ProgramApplications{Program: p, Candidates: candidates}, nil
}
