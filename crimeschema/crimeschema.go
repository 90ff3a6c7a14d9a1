// Package crimeschema defines the database objects provisioned for the
// crime-reports analytics database: the day_of_week enum type, the
// boston_crimes table, the readonly/readwrite privilege groups and the
// login users assigned to them.
package crimeschema

// Default object names. Schema and table names can be overridden through
// configuration; the rest are fixed.
const (
	DefaultSchema = "crimes"
	DefaultTable  = "boston_crimes"

	EnumName = "day_of_week"

	GroupReadOnly  = "readonly"
	GroupReadWrite = "readwrite"

	UserAnalyst   = "data_analyst"
	UserScientist = "data_scientist"
)

// Enum describes an enumerated type with an ordered, closed set of labels
type Enum struct {
	Schema string
	Name   string
	Values []string
}

// Column describes a single table column
type Column struct {
	Name       string
	Type       string // SQL type as rendered in CREATE TABLE
	PrimaryKey bool
	NotNull    bool
}

// Table describes a table and its column set in declaration order
type Table struct {
	Schema  string
	Name    string
	Columns []Column
}

// Group describes a non-login role carrying table privileges on the schema
type Group struct {
	Name       string
	Privileges []string // table privileges granted on all tables in the schema
}

// User describes a login role assigned to exactly one group
type User struct {
	Name  string
	Group string
}

// DayOfWeekEnum returns the day_of_week enum definition, labels in
// Monday-first order. Values outside this set are rejected by the server.
func DayOfWeekEnum(schema string) Enum {
	return Enum{
		Schema: schema,
		Name:   EnumName,
		Values: []string{
			"Monday",
			"Tuesday",
			"Wednesday",
			"Thursday",
			"Friday",
			"Saturday",
			"Sunday",
		},
	}
}

// BostonCrimesTable returns the boston_crimes table definition. Column
// order matches the incident CSV so bulk loads can map positionally.
func BostonCrimesTable(schema, table string) Table {
	enumType := qualify(schema, EnumName)
	return Table{
		Schema: schema,
		Name:   table,
		Columns: []Column{
			{Name: "incident_number", Type: "integer", PrimaryKey: true, NotNull: true},
			{Name: "offense_code", Type: "integer"},
			{Name: "description", Type: "varchar(58)"},
			{Name: "date", Type: "date"},
			{Name: "day_of_the_week", Type: enumType},
			{Name: "latitude", Type: "numeric(10,8)"},
			{Name: "longitude", Type: "numeric(10,8)"},
		},
	}
}

// Groups returns the two privilege groups with their differentiated
// table privileges.
func Groups() []Group {
	return []Group{
		{Name: GroupReadOnly, Privileges: []string{"SELECT"}},
		{Name: GroupReadWrite, Privileges: []string{"SELECT", "INSERT", "UPDATE", "DELETE"}},
	}
}

// Users returns the two login users and their group assignments
func Users() []User {
	return []User{
		{Name: UserAnalyst, Group: GroupReadOnly},
		{Name: UserScientist, Group: GroupReadWrite},
	}
}

// ExpectedGrants returns the exact privilege set each group must hold
// after provisioning. Used by privilege verification: extra or missing
// privileges are both failures.
func ExpectedGrants() map[string][]string {
	expected := make(map[string][]string)
	for _, g := range Groups() {
		expected[g.Name] = g.Privileges
	}
	return expected
}

// ColumnNames returns the table's column names in declaration order
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IsValidDayOfWeek reports whether label is one of the seven enum labels
func IsValidDayOfWeek(label string) bool {
	for _, v := range DayOfWeekEnum(DefaultSchema).Values {
		if v == label {
			return true
		}
	}
	return false
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
