package crimeschema_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/clu0501/database-for-crime-reports/crimeschema"
)

func TestDayOfWeekEnum(t *testing.T) {
	c := qt.New(t)

	enum := crimeschema.DayOfWeekEnum("crimes")

	c.Assert(enum.Schema, qt.Equals, "crimes")
	c.Assert(enum.Name, qt.Equals, "day_of_week")
	c.Assert(enum.Values, qt.DeepEquals, []string{
		"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
	})
}

func TestBostonCrimesTable(t *testing.T) {
	c := qt.New(t)

	table := crimeschema.BostonCrimesTable("crimes", "boston_crimes")

	c.Assert(table.Schema, qt.Equals, "crimes")
	c.Assert(table.Name, qt.Equals, "boston_crimes")
	c.Assert(table.ColumnNames(), qt.DeepEquals, []string{
		"incident_number", "offense_code", "description", "date", "day_of_the_week", "latitude", "longitude",
	})

	c.Assert(table.Columns[0].PrimaryKey, qt.IsTrue)
	c.Assert(table.Columns[0].NotNull, qt.IsTrue)
	c.Assert(table.Columns[4].Type, qt.Equals, "crimes.day_of_week")
	c.Assert(table.Columns[5].Type, qt.Equals, "numeric(10,8)")
}

func TestGroups(t *testing.T) {
	c := qt.New(t)

	groups := crimeschema.Groups()

	c.Assert(len(groups), qt.Equals, 2)
	c.Assert(groups[0].Name, qt.Equals, "readonly")
	c.Assert(groups[0].Privileges, qt.DeepEquals, []string{"SELECT"})
	c.Assert(groups[1].Name, qt.Equals, "readwrite")
	c.Assert(groups[1].Privileges, qt.DeepEquals, []string{"SELECT", "INSERT", "UPDATE", "DELETE"})
}

func TestUsers(t *testing.T) {
	c := qt.New(t)

	users := crimeschema.Users()

	c.Assert(users, qt.DeepEquals, []crimeschema.User{
		{Name: "data_analyst", Group: "readonly"},
		{Name: "data_scientist", Group: "readwrite"},
	})
}

func TestExpectedGrants(t *testing.T) {
	c := qt.New(t)

	c.Assert(crimeschema.ExpectedGrants(), qt.DeepEquals, map[string][]string{
		"readonly":  {"SELECT"},
		"readwrite": {"SELECT", "INSERT", "UPDATE", "DELETE"},
	})
}

func TestIsValidDayOfWeek(t *testing.T) {
	tests := []struct {
		label string
		valid bool
	}{
		{"Monday", true},
		{"Sunday", true},
		{"monday", false},
		{"Funday", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(crimeschema.IsValidDayOfWeek(tt.label), qt.Equals, tt.valid)
		})
	}
}
