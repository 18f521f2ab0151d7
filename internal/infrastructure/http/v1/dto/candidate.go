package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"admissions/internal/core/apperror"
	"admissions/internal/domain/candidate"
	"admissions/internal/domain/program"
)

// --- Signup request ---

// BasicInfo holds the personal section of the form.
type BasicInfo struct {
	Name            string `json:"name"`
	Gender          string `json:"gender"`
	DateOfBirth     string `json:"date_of_birth"`
	Community       string `json:"community"`
	CommunityNumber string `json:"community_number"`
	OtherCommunity  string `json:"other_community"`
	IsNRI           bool   `json:"is_nri"`
}

// ContactInfo holds the contact section of the form.
type ContactInfo struct {
	Mobile FlexString `json:"mobile"`
	Email  string     `json:"email"`
}

// ApplicationInfo lists the chosen programmes in preference order.
type ApplicationInfo struct {
	ApplicationCount int      `json:"application_count"`
	ApplicationType  string   `json:"application_type"`
	ProgramCode      []string `json:"program_code"`
	ProgramNames     []string `json:"program_names"`
	ProgramStreams   []string `json:"program_streams"`
}

// PersonalDetails groups the form sections.
type PersonalDetails struct {
	BasicInfo       BasicInfo        `json:"basic_info"`
	ContactInfo     ContactInfo      `json:"contact_info"`
	ApplicationInfo *ApplicationInfo `json:"application_info"`
}

// Course is a course picked in the fee step.
type Course struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Stream         string          `json:"stream"`
	ProgramType    string          `json:"program_type"`
	ApplicationFee decimal.Decimal `json:"application_fee"`
	Count          int             `json:"count"`
}

// SelectedCourse wraps a course with the scholarship flag.
type SelectedCourse struct {
	Course             Course `json:"course"`
	ScholarshipApplied bool   `json:"scholarship_applied"`
}

// PaymentDetails as reported by the payment gateway step.
type PaymentDetails struct {
	Status          string          `json:"status"`
	TransactionID   string          `json:"transaction_id"`
	TransactionDate *time.Time      `json:"transaction_date"`
	PaymentMethod   string          `json:"payment_method"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
}

// SignupRequest is the registration form.
type SignupRequest struct {
	PersonalDetails *PersonalDetails `json:"personal_details"`
	SelectedCourses []SelectedCourse `json:"selected_courses"`
	PaymentDetails  *PaymentDetails  `json:"payment_details"`
}

// ToSignupInput converts to the domain form.
func (r *SignupRequest) ToSignupInput() (candidate.SignupInput, error) {
	if r.PersonalDetails == nil {
		return candidate.SignupInput{}, apperror.NewValidation("Personal details are required")
	}
	pd := r.PersonalDetails

	in := candidate.SignupInput{
		Name:            pd.BasicInfo.Name,
		Gender:          pd.BasicInfo.Gender,
		DateOfBirth:     pd.BasicInfo.DateOfBirth,
		Community:       pd.BasicInfo.Community,
		CommunityNumber: pd.BasicInfo.CommunityNumber,
		OtherCommunity:  pd.BasicInfo.OtherCommunity,
		IsNRI:           pd.BasicInfo.IsNRI,
		Mobile:          pd.ContactInfo.Mobile.String(),
		Email:           pd.ContactInfo.Email,
	}
	if ai := pd.ApplicationInfo; ai != nil {
		in.ApplicationCount = ai.ApplicationCount
		in.ApplicationType = ai.ApplicationType
		in.ProgramCodes = ai.ProgramCode
		in.ProgramNames = ai.ProgramNames
		in.ProgramStreams = ai.ProgramStreams
	} else if in.Mobile != "" && in.Email != "" {
		return candidate.SignupInput{}, apperror.NewValidation("Application information is required")
	}

	for _, sc := range r.SelectedCourses {
		in.SelectedCourses = append(in.SelectedCourses, candidate.SelectedCourse{
			Code:           sc.Course.Code,
			ApplicationFee: sc.Course.ApplicationFee,
		})
	}

	if p := r.PaymentDetails; p != nil {
		in.Payment = &candidate.PaymentDetails{
			Status:          p.Status,
			TransactionID:   p.TransactionID,
			TransactionDate: p.TransactionDate,
			Method:          p.PaymentMethod,
			AmountPaid:      p.AmountPaid,
		}
	}

	return in, nil
}

// --- Payment simulation request ---

// SimulationApplicationInfo is ApplicationInfo as sent by the payment page,
// which names the code list program_codes.
type SimulationApplicationInfo struct {
	ApplicationCount int      `json:"application_count"`
	ApplicationType  string   `json:"application_type"`
	ProgramCodes     []string `json:"program_codes"`
	ProgramNames     []string `json:"program_names"`
	ProgramStreams   []string `json:"program_streams"`
}

// SimulationDetails is the stored form replayed by the payment page.
type SimulationDetails struct {
	PersonalDetails struct {
		BasicInfo       BasicInfo                  `json:"basic_info"`
		ContactInfo     ContactInfo                `json:"contact_info"`
		ApplicationInfo *SimulationApplicationInfo `json:"application_info"`
	} `json:"personal_details"`
	SelectedCourses []SelectedCourse `json:"selected_courses"`
	PaymentDetails  *PaymentDetails  `json:"payment_details"`
}

// SimulatePaymentRequest drives the payment stand-in.
type SimulatePaymentRequest struct {
	CandidateDetails *SimulationDetails  `json:"candidateDetails"`
	Amount           decimal.NullDecimal `json:"amount"`
	SimulateType     string              `json:"simulateType"`
}

// ToSimulatePaymentInput converts to the domain input.
func (r *SimulatePaymentRequest) ToSimulatePaymentInput() (candidate.SimulatePaymentInput, error) {
	explicitlyFree := r.Amount.Valid && r.Amount.Decimal.IsZero()
	if r.CandidateDetails == nil || (r.SimulateType == "" && !explicitlyFree) {
		return candidate.SimulatePaymentInput{}, apperror.NewValidation("Candidate details, amount, and simulateType are required")
	}

	cd := r.CandidateDetails
	signup := SignupRequest{
		PersonalDetails: &PersonalDetails{
			BasicInfo:   cd.PersonalDetails.BasicInfo,
			ContactInfo: cd.PersonalDetails.ContactInfo,
		},
		SelectedCourses: cd.SelectedCourses,
		PaymentDetails:  cd.PaymentDetails,
	}
	if ai := cd.PersonalDetails.ApplicationInfo; ai != nil {
		signup.PersonalDetails.ApplicationInfo = &ApplicationInfo{
			ApplicationCount: ai.ApplicationCount,
			ApplicationType:  ai.ApplicationType,
			ProgramCode:      ai.ProgramCodes,
			ProgramNames:     ai.ProgramNames,
			ProgramStreams:   ai.ProgramStreams,
		}
	}

	form, err := signup.ToSignupInput()
	if err != nil {
		return candidate.SimulatePaymentInput{}, err
	}
	return candidate.SimulatePaymentInput{
		Form:         form,
		Amount:       r.Amount,
		SimulateType: r.SimulateType,
	}, nil
}

// --- Signup response ---

// ApplicationResponse is one numbered application.
type ApplicationResponse struct {
	ApplicationNumber int64  `json:"application_number"`
	ProgramCode       string `json:"program_code"`
	ProgramName       string `json:"program_name"`
	Stream            string `json:"stream"`
	Status            string `json:"status,omitempty"`
	PreferenceOrder   int    `json:"preference_order"`
}

// FromApplications converts domain applications.
func FromApplications(apps []candidate.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, len(apps))
	for i, a := range apps {
		out[i] = ApplicationResponse{
			ApplicationNumber: a.ApplicationNumber,
			ProgramCode:       a.ProgramCode,
			ProgramName:       a.ProgramName,
			Stream:            a.Stream,
			Status:            a.Status,
			PreferenceOrder:   a.PreferenceOrder,
		}
	}
	return out
}

// PaymentSummary is the amount due and its status.
type PaymentSummary struct {
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

// SignupResponse for a successful registration.
type SignupResponse struct {
	Message            string                `json:"message"`
	RegistrationNumber int64                 `json:"registration_number"`
	Applications       []ApplicationResponse `json:"applications"`
	Payment            PaymentSummary        `json:"payment"`
	Token              string                `json:"token"`
	CallbackURL        string                `json:"callback_url"`
}

// FromSignupResult creates response from domain signup result.
func FromSignupResult(r *candidate.SignupResult) SignupResponse {
	return SignupResponse{
		Message:            "Registration successful",
		RegistrationNumber: r.RegistrationNumber,
		Applications:       FromApplications(r.Applications),
		Payment: PaymentSummary{
			Amount: r.Amount,
			Status: string(r.PaymentStatus),
		},
		Token:       r.Token,
		CallbackURL: r.CallbackURL,
	}
}

// --- Applications by program ---

// ProgramSummary identifies the programme of a listing.
type ProgramSummary struct {
	ProgramCode    string `json:"program_code"`
	ProgramName    string `json:"program_name"`
	DepartmentName string `json:"department_name"`
	Stream         string `json:"stream"`
	Shift          string `json:"shift"`
}

// ApplicantResponse is a candidate as seen by department staff.
type ApplicantResponse struct {
	ID                 string                `json:"id"`
	RegistrationNumber int64                 `json:"registration_number"`
	FullName           string                `json:"full_name"`
	Gender             string                `json:"gender"`
	DateOfBirth        string                `json:"date_of_birth"`
	Email              string                `json:"email"`
	Mobile             string                `json:"mobile"`
	Community          string                `json:"community"`
	IsNRI              bool                  `json:"is_nri"`
	Payment            PaymentSummary        `json:"payment"`
	SubmittedAt        time.Time             `json:"submitted_at"`
	Applications       []ApplicationResponse `json:"applications"`
}

// ProgramApplicationsResponse lists the applicants of one programme.
type ProgramApplicationsResponse struct {
	Success           bool                `json:"success"`
	Program           ProgramSummary      `json:"program"`
	TotalApplications int                 `json:"total_applications"`
	Data              []ApplicantResponse `json:"data"`
}

// FromProgramApplications creates response from the domain listing.
func FromProgramApplications(pa *candidate.ProgramApplications) ProgramApplicationsResponse {
	data := make([]ApplicantResponse, len(pa.Candidates))
	for i, c := range pa.Candidates {
		data[i] = ApplicantResponse{
			ID:                 c.ID.String(),
			RegistrationNumber: c.RegistrationNumber,
			FullName:           c.FullName,
			Gender:             c.Gender,
			DateOfBirth:        c.DateOfBirth.Format(time.DateOnly),
			Email:              c.Email,
			Mobile:             c.Mobile,
			Community:          c.Community,
			IsNRI:              c.IsNRI,
			Payment: PaymentSummary{
				Amount: c.PaymentAmount,
				Status: string(c.PaymentStatus),
			},
			SubmittedAt:  c.SubmittedAt,
			Applications: FromApplications(c.Applications),
		}
	}

	return ProgramApplicationsResponse{
		Success:           true,
		Program:           FromProgramSummary(pa.Program),
		TotalApplications: len(data),
		Data:              data,
	}
}

// FromProgramSummary creates the short programme description.
func FromProgramSummary(p *program.Program) ProgramSummary {
	return ProgramSummary{
		ProgramCode:    p.ProgramCode,
		ProgramName:    p.ProgramName,
		DepartmentName: p.DepartmentName,
		Stream:         p.Stream,
		Shift:          p.Shift,
	}
}
