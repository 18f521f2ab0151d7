package main

import (
	"admissions/internal/domain/program"
)

type catalogueEntry struct {
	code, name, programType, kind, stream string
	dept, deptName, special               string
}

// catalogue is the 2026 programme list of the college.
var catalogue = []catalogueEntry{
	{"UG-BA-EC", "B.A. Economics", "UG", "Arts", "Aided", "ECO", "Economics", ""},
	{"UG-BA-EG", "B.A. English", "UG", "Arts", "Aided, Self-Finance", "ENG", "English", ""},
	{"UG-BA-HS", "B.A. History", "UG", "Arts", "Aided", "HIS", "History", ""},
	{"UG-BA-TA", "B.A. Tamil", "UG", "Arts", "Self-Finance", "TAM", "Tamil", ""},
	{"UG-BBA", "B.B.A. Business Administration", "UG", "Arts", "Self-Finance", "MGT", "Management", "AICTE"},
	{"UG-BCM", "B.Com.", "UG", "Arts", "Aided, Self-Finance", "COM", "Commerce", ""},
	{"UG-BCM-CA", "B.Com. Computer Applications", "UG", "Arts", "Self-Finance", "COM", "Commerce", ""},
	{"UG-BSW", "B.S.W. - Social Work", "UG", "Arts", "Self-Finance", "SWK", "Social Work", ""},
	{"UG-BSC-BT", "B.Sc. Biotechnology", "UG", "Science", "Self-Finance", "BIO", "Biotechnology", ""},
	{"UG-BSC-CH", "B.Sc. Chemistry", "UG", "Science", "Aided, Self-Finance", "CHE", "Chemistry", ""},
	{"UG-BSC-CS", "B.Sc. Computer Science", "UG", "Science", "Self-Finance", "CSC", "Computer Science", ""},
	{"UG-BSC-MT", "B.Sc. Mathematics", "UG", "Science", "Aided, Self-Finance", "MAT", "Mathematics", ""},
	{"UG-BSC-ND", "B.Sc. Nutrition & Dietetics", "UG", "Science", "Self-Finance", "NUT", "Nutrition", ""},
	{"UG-BSC-PH", "B.Sc. Physics", "UG", "Science", "Aided, Self-Finance", "PHY", "Physics", ""},
	{"UG-BCA", "B.C.A. Computer Applications", "UG", "Science", "Self-Finance", "CSC", "Computer Science", "AICTE"},
	{"PG-MA-EC", "M.A. Economics", "PG", "Arts", "Self-Finance", "ECO", "Economics", ""},
	{"PG-MA-EG", "M.A. English", "PG", "Arts", "Aided, Self-Finance", "ENG", "English", ""},
	{"PG-MBA", "M.B.A. Business Administration", "PG", "Arts", "Self-Finance", "MGT", "Management", "AICTE"},
	{"PG-MCM", "M.Com.", "PG", "Arts", "Self-Finance", "COM", "Commerce", ""},
	{"PG-MCA", "M.C.A. Computer Applications", "PG", "Science", "Self-Finance", "CSC", "Computer Science", "AICTE"},
	{"PG-MSC-CH", "M.Sc. Chemistry", "PG", "Science", "Aided, Self-Finance", "CHE", "Chemistry", ""},
	{"PG-MSC-CS", "M.Sc. Computer Science", "PG", "Science", "Self-Finance", "CSC", "Computer Science", ""},
	{"PG-MSC-MT", "M.Sc. Mathematics", "PG", "Science", "Aided, Self-Finance", "MAT", "Mathematics", ""},
}

func builtinPrograms() []*program.Program {
	out := make([]*program.Program, 0, len(catalogue))
	for _, e := range catalogue {
		p := program.NewProgram(e.code, e.name, e.dept)
		p.DepartmentName = e.deptName
		p.ProgramType = e.programType
		p.Type = e.kind
		p.Stream = e.stream
		if e.special != "" {
			special := e.special
			p.Special = &special
		}
		out = append(out, p)
	}
	return out
}
