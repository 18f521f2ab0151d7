package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions/internal/core/apperror"
	"admissions/internal/core/id"
)

type memoryStaffRepo struct {
	staff map[string]*Staff
}

func newMemoryStaffRepo(staff ...*Staff) *memoryStaffRepo {
	r := &memoryStaffRepo{staff: make(map[string]*Staff)}
	for _, s := range staff {
		r.staff[s.CollegeEmail] = s
	}
	return r
}

func (r *memoryStaffRepo) byID(staffID id.ID) *Staff {
	for _, s := range r.staff {
		if s.ID == staffID {
			return s
		}
	}
	return nil
}

func (r *memoryStaffRepo) GetByEmail(_ context.Context, email string) (*Staff, error) {
	if s, ok := r.staff[email]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, apperror.NewNotFound("staff", email)
}

func (r *memoryStaffRepo) SaveOTP(_ context.Context, staffID id.ID, hash string, expiresAt time.Time) error {
	s := r.byID(staffID)
	s.OTPHash, s.OTPExpiresAt, s.OTPAttempts = &hash, &expiresAt, 0
	return nil
}

func (r *memoryStaffRepo) RecordFailedOTP(_ context.Context, staffID id.ID) (int, error) {
	s := r.byID(staffID)
	s.OTPAttempts++
	return s.OTPAttempts, nil
}

func (r *memoryStaffRepo) ClearOTP(_ context.Context, staffID id.ID) error {
	s := r.byID(staffID)
	s.OTPHash, s.OTPExpiresAt, s.OTPAttempts = nil, nil, 0
	return nil
}

func (r *memoryStaffRepo) Upsert(_ context.Context, s *Staff) error {
	r.staff[s.CollegeEmail] = s
	return nil
}

type capturingMailer struct {
	sent map[string]string
	err  error
}

func (m *capturingMailer) SendOTP(_ context.Context, email, otp string) error {
	if m.err != nil {
		return m.err
	}
	m.sent[email] = otp
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryStaffRepo, *capturingMailer, *time.Time) {
	t.Helper()
	staff := NewStaff("S-104", "R. Kumar", "ECO", "kumar@college.edu")
	repo := newMemoryStaffRepo(staff)
	mailer := &capturingMailer{sent: make(map[string]string)}

	svc := NewService(repo, NewJWTService(DefaultJWTConfig("secret")), mailer, DefaultServiceConfig())
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, repo, mailer, &now
}

func TestDepartmentLogin_StoresHashAndMailsOTP(t *testing.T) {
	svc, repo, mailer, now := newTestService(t)

	err := svc.DepartmentLogin(context.Background(), " Kumar@College.edu ")
	require.NoError(t, err)

	otp := mailer.sent["kumar@college.edu"]
	require.Len(t, otp, 6)

	st := repo.staff["kumar@college.edu"]
	require.NotNil(t, st.OTPHash)
	assert.NotEqual(t, otp, *st.OTPHash)
	assert.Equal(t, now.Add(5*time.Minute), *st.OTPExpiresAt)
}

func TestDepartmentLogin_Errors(t *testing.T) {
	svc, _, mailer, _ := newTestService(t)

	err := svc.DepartmentLogin(context.Background(), "")
	assert.Equal(t, 400, apperror.GetHTTPStatus(err))

	err = svc.DepartmentLogin(context.Background(), "not-an-email")
	assert.Equal(t, 400, apperror.GetHTTPStatus(err))

	err = svc.DepartmentLogin(context.Background(), "nobody@college.edu")
	assert.True(t, apperror.IsNotFound(err))

	mailer.err = errors.New("smtp down")
	err = svc.DepartmentLogin(context.Background(), "kumar@college.edu")
	assert.Equal(t, 500, apperror.GetHTTPStatus(err))
}

func TestVerifyOTP_IssuesStaffTokenOnce(t *testing.T) {
	svc, repo, mailer, _ := newTestService(t)
	require.NoError(t, svc.DepartmentLogin(context.Background(), "kumar@college.edu"))
	otp := mailer.sent["kumar@college.edu"]

	res, err := svc.VerifyOTP(context.Background(), "kumar@college.edu", otp)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ECO", res.Staff.DepartmentCode)
	assert.Nil(t, repo.staff["kumar@college.edu"].OTPHash)

	_, err = svc.VerifyOTP(context.Background(), "kumar@college.edu", otp)
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))
}

func TestVerifyOTP_Expired(t *testing.T) {
	svc, _, mailer, now := newTestService(t)
	require.NoError(t, svc.DepartmentLogin(context.Background(), "kumar@college.edu"))
	otp := mailer.sent["kumar@college.edu"]

	*now = now.Add(6 * time.Minute)

	_, err := svc.VerifyOTP(context.Background(), "kumar@college.edu", otp)
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))
}

func TestVerifyOTP_DiscardedAfterTooManyAttempts(t *testing.T) {
	svc, repo, mailer, _ := newTestService(t)
	svc.generateOTP = func() (string, error) { return "123456", nil }
	require.NoError(t, svc.DepartmentLogin(context.Background(), "kumar@college.edu"))
	require.Equal(t, "123456", mailer.sent["kumar@college.edu"])

	for i := 0; i < DefaultServiceConfig().MaxOTPAttempts; i++ {
		_, err := svc.VerifyOTP(context.Background(), "kumar@college.edu", "000000")
		assert.Equal(t, 401, apperror.GetHTTPStatus(err))
	}
	assert.Nil(t, repo.staff["kumar@college.edu"].OTPHash)

	_, err := svc.VerifyOTP(context.Background(), "kumar@college.edu", "123456")
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))
}
