package provision

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/clu0501/database-for-crime-reports/crimeschema"
	"github.com/clu0501/database-for-crime-reports/dbschema/types"
)

// sampleSize is how many rows the row verification inspects
const sampleSize = 5

// verifyRows checks that the table holds data, that the sample rows scan
// into their semantic Go types, and that incident numbers are unique.
func verifyRows(ctx context.Context, conn Connection, table crimeschema.Table) error {
	ident := pq.QuoteIdentifier(table.Schema) + "." + pq.QuoteIdentifier(table.Name)

	query := fmt.Sprintf(`
		SELECT incident_number, offense_code, description, date, day_of_the_week, latitude, longitude
		FROM %s
		ORDER BY incident_number
		LIMIT %d`, ident, sampleSize)

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to sample rows: %w", err)
	}
	defer rows.Close()

	var count int
	for rows.Next() {
		var (
			number      int64
			offenseCode int64
			description string
			date        time.Time
			dayOfWeek   string
			latitude    string
			longitude   string
		)
		if err := rows.Scan(&number, &offenseCode, &description, &date, &dayOfWeek, &latitude, &longitude); err != nil {
			return fmt.Errorf("sample row has unexpected types: %w", err)
		}
		if !crimeschema.IsValidDayOfWeek(dayOfWeek) {
			return fmt.Errorf("row %d: day_of_the_week %q is not a weekday label", number, dayOfWeek)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate sample rows: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("table %s.%s is empty", table.Schema, table.Name)
	}

	dupQuery := fmt.Sprintf(`SELECT COUNT(*) - COUNT(DISTINCT incident_number) FROM %s`, ident)
	var duplicates int64
	if err := conn.QueryRowContext(ctx, dupQuery).Scan(&duplicates); err != nil {
		return fmt.Errorf("failed to count duplicate incident numbers: %w", err)
	}
	if duplicates > 0 {
		return fmt.Errorf("found %d duplicate incident numbers", duplicates)
	}

	return nil
}

// comparePrivileges checks that each expected grantee holds exactly its
// expected privilege set on the table. Extra privileges are as much a
// failure as missing ones: nothing may leak from revoked public defaults.
func comparePrivileges(grants []types.DBGrant, tableName string, expected map[string][]string) error {
	got := make(map[string]map[string]bool)
	for _, g := range grants {
		if g.TableName != tableName {
			continue
		}
		if got[g.Grantee] == nil {
			got[g.Grantee] = make(map[string]bool)
		}
		got[g.Grantee][g.Privilege] = true
	}

	var problems []string
	for grantee, wantPrivs := range expected {
		want := make(map[string]bool, len(wantPrivs))
		for _, p := range wantPrivs {
			want[p] = true
		}

		for p := range want {
			if !got[grantee][p] {
				problems = append(problems, fmt.Sprintf("%s: missing %s", grantee, p))
			}
		}
		for p := range got[grantee] {
			if !want[p] {
				problems = append(problems, fmt.Sprintf("%s: unexpected %s", grantee, p))
			}
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("privilege verification failed on %s: %s", tableName, strings.Join(problems, "; "))
	}

	return nil
}
