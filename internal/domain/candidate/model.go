// Package candidate provides the admission candidate: signup validation,
// fee calculation and the numbered persistence of applications.
package candidate

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"admissions/internal/core/id"
)

// ErrDuplicateRegistrationNumber is reported by repositories when the
// registration number of an inserted candidate is already taken.
var ErrDuplicateRegistrationNumber = errors.New("duplicate registration number")

// PaymentStatus of the application fee.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
)

// Admission and application statuses.
const (
	StatusApplied = "Applied"
)

// Application types accepted at signup.
const (
	TypeUG          = "UG"
	TypePG          = "PG"
	TypeDiploma     = "Diploma"
	TypeCertificate = "Certificate"
	TypePhD         = "PhD"
)

var validApplicationTypes = []string{TypeUG, TypePG, TypeDiploma, TypeCertificate, TypePhD}

// Application is one programme preference of a candidate.
type Application struct {
	ApplicationNumber int64  `db:"application_number" json:"application_number"`
	ApplicationType   string `db:"application_type" json:"application_type"`
	ProgramCode       string `db:"program_code" json:"program_code"`
	ProgramName       string `db:"program_name" json:"program_name"`
	Stream            string `db:"stream" json:"stream,omitempty"`
	Status            string `db:"status" json:"status"`
	PreferenceOrder   int    `db:"preference_order" json:"preference_order"`
}

// Candidate is a registered applicant.
type Candidate struct {
	ID                 id.ID           `db:"id" json:"id"`
	RegistrationNumber int64           `db:"registration_number" json:"registration_number"`
	AcademicYear       string          `db:"academic_year" json:"academic_year"`
	FullName           string          `db:"full_name" json:"full_name"`
	DateOfBirth        time.Time       `db:"date_of_birth" json:"date_of_birth"`
	Gender             string          `db:"gender" json:"gender"`
	Email              string          `db:"email" json:"email"`
	Mobile             string          `db:"mobile" json:"mobile"`
	Community          string          `db:"community" json:"community"`
	CommunityNumber    string          `db:"community_number" json:"community_number,omitempty"`
	Nationality        string          `db:"nationality" json:"nationality"`
	IsNRI              bool            `db:"is_nri" json:"is_nri"`
	ApplicationType    string          `db:"application_type" json:"application_type"`
	PaymentAmount      decimal.Decimal `db:"payment_amount" json:"payment_amount"`
	PaymentStatus      PaymentStatus   `db:"payment_status" json:"payment_status"`
	TransactionID      *string         `db:"transaction_id" json:"transaction_id,omitempty"`
	PaymentDate        *time.Time      `db:"payment_date" json:"payment_date,omitempty"`
	PaymentMethod      *string         `db:"payment_method" json:"payment_method,omitempty"`
	AdmissionStatus    string          `db:"admission_status" json:"admission_status"`
	IPAddress          string          `db:"ip_address" json:"-"`
	UserAgent          string          `db:"user_agent" json:"-"`
	SubmittedAt        time.Time       `db:"submitted_at" json:"submitted_at"`

	// Applications are stored in candidate_applications, ordered by preference.
	Applications []Application `db:"-" json:"applications"`
}

// AssignApplicationNumbers pairs numbers with applications in preference order.
func (c *Candidate) AssignApplicationNumbers(numbers []int64) {
	for i := range c.Applications {
		if i < len(numbers) {
			c.Applications[i].ApplicationNumber = numbers[i]
		}
		c.Applications[i].PreferenceOrder = i + 1
	}
}

// ApplicationFor returns the application for programCode, if any.
func (c *Candidate) ApplicationFor(programCode string) (Application, bool) {
	for _, a := range c.Applications {
		if a.ProgramCode == programCode {
			return a, true
		}
	}
	return Application{}, false
}
