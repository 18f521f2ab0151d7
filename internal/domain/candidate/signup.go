package candidate

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"admissions/internal/core/apperror"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Communities exempt from the application fee. Their members must also
// provide a community certificate number.
var freeCommunities = []string{"SC", "ST", "SCA"}

// Per-application fallback fees when no course fees are supplied.
var (
	feeUG = decimal.NewFromInt(100)
	feePG = decimal.NewFromInt(160)
)

const (
	minAge = 16
	maxAge = 100

	dateLayout = "2006-01-02"
)

// IsFreeCommunity reports whether community pays no application fee.
func IsFreeCommunity(community string) bool {
	return slices.Contains(freeCommunities, community)
}

// SelectedCourse is a course picked in the fee step of the form.
type SelectedCourse struct {
	Code           string
	ApplicationFee decimal.Decimal
}

// PaymentDetails as reported by the payment step.
type PaymentDetails struct {
	Status          string
	TransactionID   string
	TransactionDate *time.Time
	Method          string
	AmountPaid      decimal.Decimal
}

// SignupInput is the submitted registration form.
type SignupInput struct {
	Name            string
	Gender          string
	DateOfBirth     string
	Community       string
	CommunityNumber string
	OtherCommunity  string
	IsNRI           bool

	Mobile string
	Email  string

	ApplicationCount int
	ApplicationType  string
	ProgramCodes     []string
	ProgramNames     []string
	ProgramStreams   []string

	SelectedCourses []SelectedCourse
	Payment         *PaymentDetails

	IPAddress string
	UserAgent string
}

// Validate checks the form and returns the parsed date of birth.
func (in *SignupInput) Validate(now time.Time) (time.Time, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)

	if in.Email == "" || in.Mobile == "" {
		return time.Time{}, apperror.NewValidation("Email and mobile are required")
	}
	if !emailRegex.MatchString(in.Email) {
		return time.Time{}, apperror.NewValidation("Invalid email format").
			WithDetail("field", "email")
	}
	if IsFreeCommunity(in.Community) && strings.TrimSpace(in.CommunityNumber) == "" {
		return time.Time{}, apperror.NewValidation("Community number is mandatory for SC / ST / SCA").
			WithDetail("field", "community_number")
	}

	if len(in.ProgramCodes) == 0 {
		return time.Time{}, apperror.NewValidation("Program codes are required and must be an array").
			WithDetail("field", "program_code")
	}
	if len(in.ProgramCodes) != in.ApplicationCount {
		return time.Time{}, apperror.NewValidation(fmt.Sprintf(
			"Program code count (%d) does not match application count (%d)",
			len(in.ProgramCodes), in.ApplicationCount))
	}
	if len(in.ProgramNames) != in.ApplicationCount {
		return time.Time{}, apperror.NewValidation("Program names are required and must match application count")
	}
	if len(in.ProgramStreams) != in.ApplicationCount {
		return time.Time{}, apperror.NewValidation("Program streams are required and must match application count")
	}
	if !slices.Contains(validApplicationTypes, in.ApplicationType) {
		return time.Time{}, apperror.NewValidation(
			"Invalid application type. Must be one of: " + strings.Join(validApplicationTypes, ", ")).
			WithDetail("field", "application_type")
	}

	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		return time.Time{}, apperror.NewValidation("Invalid date of birth format").
			WithDetail("field", "date_of_birth")
	}
	if age := AgeAt(dob, now); age < minAge || age > maxAge {
		return time.Time{}, apperror.NewValidation(
			fmt.Sprintf("Age must be between %d and %d years", minAge, maxAge))
	}

	return dob, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// AgeAt returns the age in completed years on day now.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// EffectiveCommunity returns the free-text community when "Others" was picked.
func (in *SignupInput) EffectiveCommunity() string {
	if in.Community == "Others" && in.OtherCommunity != "" {
		return in.OtherCommunity
	}
	return in.Community
}

// Fee computes the total application fee.
// Selected course fees win over the per-application fallback.
func (in *SignupInput) Fee() decimal.Decimal {
	if len(in.SelectedCourses) > 0 {
		total := decimal.Zero
		for _, c := range in.SelectedCourses {
			total = total.Add(c.ApplicationFee)
		}
		return total
	}

	per := decimal.Zero
	switch {
	case IsFreeCommunity(in.Community):
	case in.ApplicationType == TypeUG:
		per = feeUG
	case in.ApplicationType == TypePG:
		per = feePG
	}
	return per.Mul(decimal.NewFromInt(int64(in.ApplicationCount)))
}

// PaymentStatusFor is success for free applications or a confirmed payment.
func PaymentStatusFor(amount decimal.Decimal, p *PaymentDetails) PaymentStatus {
	if amount.IsZero() {
		return PaymentSuccess
	}
	if p != nil && p.Status == string(PaymentSuccess) {
		return PaymentSuccess
	}
	return PaymentPending
}
