package export

// Table is the render-ready form of a class timetable: one header row and a
// body of equally sized rows. Special periods occupy a full row with the
// label in every weekday column.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a table into the bytes of one output format.
type Renderer interface {
	Render(table Table) ([]byte, error)
	ContentType() string
	Extension() string
}
