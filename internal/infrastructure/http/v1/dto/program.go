package dto

import (
	"admissions/internal/domain/program"
)

// ProgramResponse is a programme in the public catalogue.
type ProgramResponse struct {
	ProgramCode            string  `json:"program_code"`
	ProgramName            string  `json:"program_name"`
	ProgramType            string  `json:"program_type"`
	Type                   string  `json:"type"`
	DepartmentCode         string  `json:"department_code"`
	DepartmentName         string  `json:"department_name"`
	Stream                 string  `json:"stream"`
	EligibilityDescription string  `json:"eligibility_description"`
	Special                *string `json:"special,omitempty"`
	Show                   bool    `json:"show"`
}

// ProgramListResponse wraps the catalogue.
type ProgramListResponse struct {
	Count    int               `json:"count"`
	Programs []ProgramResponse `json:"programs"`
}

// FromPrograms creates the catalogue response.
func FromPrograms(programs []*program.Program) ProgramListResponse {
	out := make([]ProgramResponse, len(programs))
	for i, p := range programs {
		out[i] = ProgramResponse{
			ProgramCode:            p.ProgramCode,
			ProgramName:            p.ProgramName,
			ProgramType:            p.ProgramType,
			Type:                   p.Type,
			DepartmentCode:         p.DepartmentCode,
			DepartmentName:         p.DepartmentName,
			Stream:                 p.Stream,
			EligibilityDescription: p.EligibilityDescription,
			Special:                p.Special,
			Show:                   p.Show,
		}
	}
	return ProgramListResponse{Count: len(out), Programs: out}
}
