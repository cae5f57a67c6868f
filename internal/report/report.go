package report

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/xuri/excelize/v2"
)

var ErrNoEmployees = errors.New("failed to generate report, 0 employees were provided")

const (
	maxSheetNameLen = 31
	headerIndex     = 2 // first data row, row 1 is the header
	lastColumn      = "H"
)

// Labels holds the localized texts of the export.
type Labels struct {
	Headers  [8]string              // ID, last name, first name, phone, email, IIN, status, created
	Roles    map[models.Role]string // sheet titles, the role code is used when missing
	Active   string
	Inactive string
}

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file   *excelize.File
	labels Labels
}

// NewGenerator creates a new report generator.
func NewGenerator(labels Labels) *Generator {
	return &Generator{
		file:   excelize.NewFile(),
		labels: labels,
	}
}

// GenerateEmployeeReport renders employees into an xlsx workbook with one sheet per role.
// Known roles come first in their canonical order, unknown roles follow in order of appearance.
func GenerateEmployeeReport(employees []models.Employee, labels Labels) (*bytes.Buffer, error) {
	var err error

	if len(employees) == 0 {
		return nil, ErrNoEmployees
	}

	gen := NewGenerator(labels)
	defer gen.file.Close()

	for i, group := range groupByRole(employees) {
		if err = gen.addSheet(i, group.role, group.employees); err != nil {
			return nil, fmt.Errorf("failed to add sheet for role %q: %w", group.role, err)
		}
	}

	// setup first sheet as active
	gen.file.SetActiveSheet(0)

	// delete default sheet
	if sheetIndex, _ := gen.file.GetSheetIndex("Sheet1"); sheetIndex != -1 {
		if err = gen.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}

	buffer, err := gen.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

type roleGroup struct {
	role      models.Role
	employees []models.Employee
}

func groupByRole(employees []models.Employee) []roleGroup {
	byRole := make(map[models.Role][]models.Employee)
	var unknown []models.Role
	for _, e := range employees {
		if _, seen := byRole[e.Role]; !seen && !e.Role.IsValid() {
			unknown = append(unknown, e.Role)
		}
		byRole[e.Role] = append(byRole[e.Role], e)
	}

	groups := make([]roleGroup, 0, len(byRole))
	for _, role := range append(append([]models.Role{}, models.Roles...), unknown...) {
		if list, ok := byRole[role]; ok {
			groups = append(groups, roleGroup{role: role, employees: list})
		}
	}
	return groups
}

func (g *Generator) sheetName(role models.Role) string {
	name := g.labels.Roles[role]
	if name == "" {
		name = string(role)
	}
	if name == "" {
		name = "-"
	}
	return truncateSheetName(name)
}

func (g *Generator) addSheet(index int, role models.Role, employees []models.Employee) error {
	sheetName := g.sheetName(role)

	if _, err := g.file.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to generate new sheet '%s': %w", sheetName, err)
	}

	if err := g.setupSheet(sheetName, index, len(employees)); err != nil {
		return fmt.Errorf("failed to setup sheet '%s': %w", sheetName, err)
	}

	for i, employee := range employees {
		if err := g.addRow(sheetName, i+headerIndex, employee); err != nil {
			return fmt.Errorf("failed to add row '%d': %w", i+headerIndex, err)
		}
	}
	return nil
}

// setupSheet writes the styled header row, sets column widths and wraps the data in a table.
func (g *Generator) setupSheet(sheetName string, index, rowCount int) error {
	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	headers := g.labels.Headers[:]
	if err = g.file.SetRowHeight(sheetName, 1, 20); err != nil { //nolint:mnd // header row height
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}
	if err = g.file.SetCellStyle(sheetName, "A1", lastColumn+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	widths := map[string]float64{
		"A": 10, "B": 22, "C": 22, "D": 18, "E": 32, "F": 16, "G": 14, "H": 14, //nolint:mnd // column widths
	}
	for col, width := range widths {
		if err = g.file.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// Table names must be ASCII and unique in the workbook, sheet titles may be neither.
	if err = g.file.AddTable(sheetName, &excelize.Table{
		Range:     fmt.Sprintf("A1:%s%d", lastColumn, rowCount+1),
		Name:      fmt.Sprintf("employees_%d", index+1),
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

func (g *Generator) addRow(sheetName string, rowNum int, employee models.Employee) error {
	status := g.labels.Inactive
	if employee.Active {
		status = g.labels.Active
	}

	created := ""
	if !employee.CreatedAt.IsZero() {
		created = employee.CreatedAt.Format("02.01.2006")
	}

	rowData := []any{
		employee.UserID,
		employee.LastName,
		employee.FirstName,
		employee.PhoneNumber,
		employee.Email,
		employee.IIN,
		status,
		created,
	}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)

	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}

	return nil
}

// truncateSheetName cuts name to the 31 runes Excel allows for sheet titles.
func truncateSheetName(name string) string {
	if utf8.RuneCountInString(name) > maxSheetNameLen {
		runes := []rune(name)
		return string(runes[:maxSheetNameLen])
	}
	return name
}
