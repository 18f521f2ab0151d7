package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions/internal/core/apperror"
	"admissions/internal/core/id"
	"admissions/internal/domain/auth"
	"admissions/internal/domain/candidate"
	"admissions/internal/domain/program"
	"admissions/internal/infrastructure/http/v1/handlers"
	"admissions/internal/infrastructure/metrics"
	"admissions/pkg/logger"
)

type fakeCandidates struct {
	signupIn    candidate.SignupInput
	simulateIn  candidate.SimulatePaymentInput
	loginRegNo  int64
	loginMobile string

	result *candidate.SignupResult
	err    error
	panic  bool
}

func (f *fakeCandidates) Signup(_ context.Context, in candidate.SignupInput) (*candidate.SignupResult, error) {
	if f.panic {
		panic("boom")
	}
	f.signupIn = in
	return f.result, f.err
}

func (f *fakeCandidates) SimulatePayment(_ context.Context, in candidate.SimulatePaymentInput) (*candidate.SignupResult, error) {
	f.simulateIn = in
	return f.result, f.err
}

func (f *fakeCandidates) Login(_ context.Context, regNo int64, mobile string) (*candidate.LoginResult, error) {
	f.loginRegNo, f.loginMobile = regNo, mobile
	if f.err != nil {
		return nil, f.err
	}
	return &candidate.LoginResult{
		Token:     "tok",
		ExpiresAt: time.Date(2026, time.May, 11, 0, 0, 0, 0, time.UTC),
		Candidate: &candidate.Candidate{ID: id.New(), RegistrationNumber: regNo, PaymentStatus: candidate.PaymentPending},
	}, nil
}

func (f *fakeCandidates) FindRegistrationNumber(_ context.Context, mobile string) (int64, error) {
	if mobile == "9876543210" {
		return 202600045, nil
	}
	return 0, apperror.NewNotFound("registration", mobile).WithMessage("No registration found for this mobile number")
}

type fakeApplications struct {
	dept, code string
}

func (f *fakeApplications) ApplicationsByProgram(_ context.Context, dept, code string) (*candidate.ProgramApplications, error) {
	f.dept, f.code = dept, code
	return &candidate.ProgramApplications{
		Program: &program.Program{ProgramCode: code, ProgramName: "B.A. Economics", DepartmentName: "Economics"},
		Candidates: []*candidate.Candidate{{
			ID:                 id.New(),
			RegistrationNumber: 202600001,
			FullName:           "Anitha R",
			Applications: []candidate.Application{
				{ApplicationNumber: 260002, ProgramCode: code, PreferenceOrder: 2},
			},
		}},
	}, nil
}

type fakePrograms struct{}

func (fakePrograms) ListVisible(context.Context) ([]*program.Program, error) {
	return []*program.Program{
		program.NewProgram("UG-BA-EC", "B.A. Economics", "ECO"),
		program.NewProgram("UG-BCM", "B.Com.", "COM"),
	}, nil
}

type fakeStaffAuth struct {
	email string
}

func (f *fakeStaffAuth) DepartmentLogin(_ context.Context, email string) error {
	f.email = email
	return nil
}

func (f *fakeStaffAuth) VerifyOTP(_ context.Context, email, otp string) (*auth.StaffLoginResult, error) {
	if otp != "123456" {
		return nil, apperror.NewUnauthorized("Invalid or expired OTP")
	}
	return &auth.StaffLoginResult{Token: "staff-tok", Staff: auth.NewStaff("S001", "Priya", "ECO", email)}, nil
}

type routerFixture struct {
	router     http.Handler
	jwt        *auth.JWTService
	candidates *fakeCandidates
	apps       *fakeApplications
	staff      *fakeStaffAuth
	registry   *prometheus.Registry
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		jwt: auth.NewJWTService(auth.DefaultJWTConfig("test-secret")),
		candidates: &fakeCandidates{result: &candidate.SignupResult{
			RegistrationNumber: 202600045,
			Applications: []candidate.Application{
				{ApplicationNumber: 260101, ProgramCode: "UG-BA-EC", ProgramName: "B.A. Economics", Stream: "Aided", PreferenceOrder: 1},
				{ApplicationNumber: 260102, ProgramCode: "UG-BCM", ProgramName: "B.Com.", Stream: "Self-Financed", PreferenceOrder: 2},
			},
			Amount:        decimal.NewFromInt(200),
			PaymentStatus: candidate.PaymentPending,
			Token:         "tok",
			CallbackURL:   "/payment?registration_number=202600045&amount=200",
		}},
		apps:     &fakeApplications{},
		staff:    &fakeStaffAuth{},
		registry: prometheus.NewRegistry(),
	}

	m := metrics.New(f.registry)
	m.ObserveIssued("registration_number", 1)

	f.router = NewRouter(RouterConfig{
		Logger:       logger.Nop(),
		Health:       handlers.NewHealthHandler(nil, "test"),
		Gatherer:     f.registry,
		JWTValidator: f.jwt,
		Candidates:   f.candidates,
		Applications: f.apps,
		Programs:     fakePrograms{},
		StaffAuth:    f.staff,
	})
	return f
}

func (f *routerFixture) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (f *routerFixture) staffToken(t *testing.T, dept string) string {
	t.Helper()
	token, _, err := f.jwt.IssueStaffToken(auth.NewStaff("S001", "Priya", dept, "priya@college.edu"))
	require.NoError(t, err)
	return token
}

func (f *routerFixture) candidateToken(t *testing.T) string {
	t.Helper()
	token, _, err := f.jwt.IssueCandidateToken(id.New().String(), 202600045, "pending")
	require.NoError(t, err)
	return token
}

const signupBody = `{
  "personal_details": {
    "basic_info": {"name": "Anitha R", "gender": "Female", "date_of_birth": "2008-03-14", "community": "BC"},
    "contact_info": {"mobile": 9876543210, "email": "anitha@example.com"},
    "application_info": {
      "application_count": 2,
      "application_type": "UG",
      "program_code": ["UG-BA-EC", "UG-BCM"],
      "program_names": ["B.A. Economics", "B.Com."],
      "program_streams": ["Aided", "Self-Financed"]
    }
  },
  "selected_courses": [
    {"course": {"code": "UG-BA-EC", "application_fee": 100}},
    {"course": {"code": "UG-BCM", "application_fee": "100.00"}}
  ],
  "payment_details": {"status": "pending"}
}`

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = f.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	f := newRouterFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admissions_sequence_numbers_issued_total")
}

func TestRouter_Signup(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/v1/auth/signup", signupBody, "")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Registration successful", body["message"])
	assert.EqualValues(t, 202600045, body["registration_number"])
	assert.Equal(t, "/payment?registration_number=202600045&amount=200", body["callback_url"])

	apps := body["applications"].([]any)
	require.Len(t, apps, 2)
	first := apps[0].(map[string]any)
	assert.EqualValues(t, 260101, first["application_number"])
	assert.EqualValues(t, 1, first["preference_order"])

	in := f.candidates.signupIn
	assert.Equal(t, "9876543210", in.Mobile)
	assert.Equal(t, []string{"UG-BA-EC", "UG-BCM"}, in.ProgramCodes)
	require.Len(t, in.SelectedCourses, 2)
	assert.True(t, in.SelectedCourses[1].ApplicationFee.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, in.Payment)
	assert.Equal(t, "pending", in.Payment.Status)
	assert.NotEmpty(t, in.IPAddress)
}

func TestRouter_SignupErrors(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		f := newRouterFixture(t)
		rec, body := f.do(t, http.MethodPost, "/api/v1/auth/signup", "{bad", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperror.CodeValidation, body["code"])
	})

	t.Run("missing personal details", func(t *testing.T) {
		f := newRouterFixture(t)
		rec, body := f.do(t, http.MethodPost, "/api/v1/auth/signup", `{}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Personal details are required", body["message"])
	})

	t.Run("duplicate mobile", func(t *testing.T) {
		f := newRouterFixture(t)
		f.candidates.err = apperror.NewConflict("Candidate already registered with this mobile number")
		rec, body := f.do(t, http.MethodPost, "/api/v1/auth/signup", signupBody, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Candidate already registered with this mobile number", body["message"])
	})

	t.Run("store unavailable", func(t *testing.T) {
		f := newRouterFixture(t)
		f.candidates.err = apperror.NewStoreUnavailable(assert.AnError)
		rec, body := f.do(t, http.MethodPost, "/api/v1/auth/signup", signupBody, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, apperror.CodeStoreUnavailable, body["code"])
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		f := newRouterFixture(t)
		f.candidates.err = assert.AnError
		rec, body := f.do(t, http.MethodPost, "/api/v1/auth/signup", signupBody, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body["message"])
	})

	t.Run("panic is recovered", func(t *testing.T) {
		f := newRouterFixture(t)
		f.candidates.panic = true
		rec, body := f.do(t, http.MethodPost, "/api/v1/auth/signup", signupBody, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, apperror.CodeInternal, body["code"])
	})
}

func TestRouter_SimulatePayment(t *testing.T) {
	t.Run("renames program_codes", func(t *testing.T) {
		f := newRouterFixture(t)
		reqBody := `{
		  "candidateDetails": {
		    "personal_details": {
		      "basic_info": {"name": "Anitha R", "community": "BC"},
		      "contact_info": {"mobile": "9876543210", "email": "anitha@example.com"},
		      "application_info": {"application_count": 1, "application_type": "UG", "program_codes": ["UG-BA-EC"], "program_names": ["B.A. Economics"], "program_streams": ["Aided"]}
		    }
		  },
		  "amount": 100,
		  "simulateType": "success"
		}`

		rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/simulate-payment", reqBody, "")

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		in := f.candidates.simulateIn
		assert.Equal(t, "success", in.SimulateType)
		require.True(t, in.Amount.Valid)
		assert.True(t, in.Amount.Decimal.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, []string{"UG-BA-EC"}, in.Form.ProgramCodes)
	})

	t.Run("missing amount and outcome", func(t *testing.T) {
		f := newRouterFixture(t)
		reqBody := `{"candidateDetails": {"personal_details": {"basic_info": {"name": "Anitha R"}, "contact_info": {"mobile": "9876543210", "email": "anitha@example.com"}}}}`

		rec, body := f.do(t, http.MethodPost, "/api/v1/auth/simulate-payment", reqBody, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Candidate details, amount, and simulateType are required", body["message"])
	})

	t.Run("missing details", func(t *testing.T) {
		f := newRouterFixture(t)
		rec, body := f.do(t, http.MethodPost, "/api/v1/auth/simulate-payment", `{"amount": 100}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Candidate details, amount, and simulateType are required", body["message"])
	})
}

func TestRouter_LoginAcceptsNumericFields(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/v1/auth/login", `{"registration_number": 202600045, "mobile": 9876543210}`, "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(202600045), f.candidates.loginRegNo)
	assert.Equal(t, "9876543210", f.candidates.loginMobile)
	assert.Equal(t, "tok", body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "candidate", user["role"])
}

func TestRouter_ForgotRegistration(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/v1/auth/forgot-registration", `{"mobile": "9876543210"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 202600045, body["registration_number"])

	rec, body = f.do(t, http.MethodPost, "/api/v1/auth/forgot-registration", `{"mobile": "9000000000"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No registration found for this mobile number", body["message"])
}

func TestRouter_DepartmentLogin(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/v1/auth/department/login", `{"college_email": "priya@college.edu"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OTP sent successfully", body["message"])
	assert.Equal(t, "priya@college.edu", f.staff.email)

	rec, body = f.do(t, http.MethodPost, "/api/v1/auth/department/verify-otp", `{"college_email": "priya@college.edu", "otp": 123456}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff-tok", body["token"])

	rec, _ = f.do(t, http.MethodPost, "/api/v1/auth/department/verify-otp", `{"college_email": "priya@college.edu", "otp": "000000"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Programs(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/v1/programs", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])
}

func TestRouter_ApplicationsAccess(t *testing.T) {
	const path = "/api/v1/applications/ECO/UG-BA-EC"

	t.Run("no token", func(t *testing.T) {
		f := newRouterFixture(t)
		rec, body := f.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "No token provided", body["message"])
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newRouterFixture(t)
		rec, _ := f.do(t, http.MethodGet, path, "", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("candidate token", func(t *testing.T) {
		f := newRouterFixture(t)
		rec, _ := f.do(t, http.MethodGet, path, "", f.candidateToken(t))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("other department", func(t *testing.T) {
		f := newRouterFixture(t)
		rec, _ := f.do(t, http.MethodGet, path, "", f.staffToken(t, "COM"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("own department", func(t *testing.T) {
		f := newRouterFixture(t)
		rec, body := f.do(t, http.MethodGet, path, "", f.staffToken(t, "ECO"))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "ECO", f.apps.dept)
		assert.Equal(t, "UG-BA-EC", f.apps.code)
		assert.Equal(t, true, body["success"])
		assert.EqualValues(t, 1, body["total_applications"])
		prog := body["program"].(map[string]any)
		assert.Equal(t, "B.A. Economics", prog["program_name"])
	})
}

func TestRouter_Dashboard(t *testing.T) {
	f := newRouterFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/v1/protected/dashboard", "", f.candidateToken(t))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to dashboard", body["message"])
	user := body["user"].(map[string]any)
	assert.EqualValues(t, 202600045, user["registration_number"])
	assert.Equal(t, "candidate", user["role"])
}
