package program

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"admissions/internal/core/id"
)

// Columns read by ReadCSV. program_code is required, the rest are optional.
const (
	colCode        = "program_code"
	colName        = "program_name"
	colDeptCode    = "department_code"
	colDeptName    = "department_name"
	colType        = "type"
	colProgramType = "program_type"
	colSpecial     = "special"
	colShow        = "show"
	colStream      = "stream"
	colShift       = "shift"
	colStrength    = "sanctioned_strength"
	colEligibility = "eligibility_description"
)

// ReadCSV parses a programme sheet with a header row. Rows without a
// programme code are skipped. show is true only for TRUE (any case).
func ReadCSV(r io.Reader) ([]*Program, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := index[colCode]; !ok {
		return nil, fmt.Errorf("missing %s column", colCode)
	}

	var programs []*Program
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		code := get(colCode)
		if code == "" {
			continue
		}

		p := &Program{
			ID:                     id.New(),
			ProgramCode:            code,
			ProgramName:            get(colName),
			DepartmentCode:         get(colDeptCode),
			DepartmentName:         get(colDeptName),
			Type:                   get(colType),
			ProgramType:            get(colProgramType),
			Stream:                 get(colStream),
			Shift:                  get(colShift),
			EligibilityDescription: get(colEligibility),
			Show:                   strings.EqualFold(get(colShow), "true"),
		}
		if special := get(colSpecial); special != "" {
			p.Special = &special
		}
		if s := get(colStrength); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s %q", line, colStrength, s)
			}
			p.SanctionedStrength = n
		}

		programs = append(programs, p)
	}

	return programs, nil
}
