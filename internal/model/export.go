package model

// Export is the top-level JSON structure of a data backup.
type Export struct {
	ExportDate string     `json:"exportDate"`
	UserEmail  string     `json:"userEmail"`
	Semesters  []Semester `json:"semesters"`
	Summary    Summary    `json:"summary"`
}
