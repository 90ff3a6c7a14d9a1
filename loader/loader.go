// Package loader bulk-loads crime incident CSV files into the provisioned
// table using the PostgreSQL COPY protocol. The load is all-or-nothing:
// the server rolls back every row when any row is rejected.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/clu0501/database-for-crime-reports/crimeschema"
)

// fieldsPerRecord is the column count of the incident CSV:
// incident_number, offense_code, description, date, day_of_the_week, lat, long
const fieldsPerRecord = 7

// maxDescriptionLen matches the varchar(58) description column
const maxDescriptionLen = 58

// Incident is a single parsed row of the incident CSV with every field
// converted to its column type.
type Incident struct {
	Number      int64
	OffenseCode int64
	Description string
	Date        time.Time
	DayOfWeek   string
	Latitude    pgtype.Numeric
	Longitude   pgtype.Numeric
}

// values returns the row in table column order for COPY
func (in *Incident) values() []any {
	return []any{in.Number, in.OffenseCode, in.Description, in.Date, in.DayOfWeek, in.Latitude, in.Longitude}
}

// ParseIncident converts one CSV record into a typed incident. The record
// is positional and must carry exactly seven fields.
func ParseIncident(record []string) (*Incident, error) {
	if len(record) != fieldsPerRecord {
		return nil, fmt.Errorf("expected %d fields, got %d", fieldsPerRecord, len(record))
	}

	number, err := strconv.ParseInt(record[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid incident_number %q: %w", record[0], err)
	}

	offenseCode, err := strconv.ParseInt(record[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid offense_code %q: %w", record[1], err)
	}

	description := record[2]
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, fmt.Errorf("description exceeds %d characters: %q", maxDescriptionLen, description)
	}

	date, err := time.Parse("2006-01-02", record[3])
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", record[3], err)
	}

	dayOfWeek := record[4]
	if !crimeschema.IsValidDayOfWeek(dayOfWeek) {
		return nil, fmt.Errorf("invalid day_of_the_week %q: not one of the seven weekday labels", dayOfWeek)
	}

	latitude, err := parseNumeric(record[5])
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", record[5], err)
	}

	longitude, err := parseNumeric(record[6])
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", record[6], err)
	}

	return &Incident{
		Number:      number,
		OffenseCode: offenseCode,
		Description: description,
		Date:        date,
		DayOfWeek:   dayOfWeek,
		Latitude:    latitude,
		Longitude:   longitude,
	}, nil
}

func parseNumeric(s string) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

// IncidentReader reads and parses incidents from a CSV stream. The header
// row is consumed on the first read. A UTF-8 byte order mark at the start
// of the stream is tolerated.
type IncidentReader struct {
	csv    *csv.Reader
	line   int
	header bool
}

// NewIncidentReader wraps r in an incident CSV reader
func NewIncidentReader(r io.Reader) *IncidentReader {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = fieldsPerRecord
	return &IncidentReader{csv: cr}
}

// Read returns the next parsed incident, or io.EOF at end of input
func (r *IncidentReader) Read() (*Incident, error) {
	if !r.header {
		r.header = true
		r.line++
		if _, err := r.csv.Read(); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("csv is empty: missing header row")
			}
			return nil, fmt.Errorf("failed to read csv header: %w", err)
		}
	}

	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read csv record: %w", err)
	}
	r.line++

	incident, err := ParseIncident(record)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line, err)
	}

	return incident, nil
}

// incidentSource streams parsed incidents into pgx's CopyFrom
type incidentSource struct {
	reader  *IncidentReader
	current *Incident
	err     error
}

func (s *incidentSource) Next() bool {
	incident, err := s.reader.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		s.err = err
		return false
	}
	s.current = incident
	return true
}

func (s *incidentSource) Values() ([]any, error) {
	return s.current.values(), nil
}

func (s *incidentSource) Err() error {
	return s.err
}

// Loader bulk-loads incident CSV files over a dedicated pgx connection.
// COPY needs the native protocol, so the loader dials its own connection
// instead of going through the database/sql pool.
type Loader struct {
	dbURL  string
	logger *slog.Logger
}

// New creates a loader that will connect to the given database URL
func New(dbURL string) *Loader {
	return &Loader{
		dbURL:  dbURL,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the loader
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	tmp := *l
	tmp.logger = logger
	return &tmp
}

// LoadFile bulk-loads the CSV at path into the table and returns the
// number of rows copied.
func (l *Loader) LoadFile(ctx context.Context, table crimeschema.Table, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	return l.Load(ctx, table, f)
}

// Load bulk-loads incidents from r into the table via COPY FROM STDIN.
// Rows are streamed; nothing is buffered beyond the current record.
func (l *Loader) Load(ctx context.Context, table crimeschema.Table, r io.Reader) (int64, error) {
	conn, err := pgx.Connect(ctx, l.dbURL)
	if err != nil {
		return 0, fmt.Errorf("failed to connect for bulk load: %w", err)
	}
	defer conn.Close(ctx)

	l.logger.Info("Bulk-loading incidents", "schema", table.Schema, "table", table.Name)

	ident := pgx.Identifier{table.Schema, table.Name}
	if table.Schema == "" {
		ident = pgx.Identifier{table.Name}
	}

	source := &incidentSource{reader: NewIncidentReader(r)}
	copied, err := conn.CopyFrom(ctx, ident, table.ColumnNames(), source)
	if err != nil {
		return 0, fmt.Errorf("bulk load failed: %w", err)
	}

	l.logger.Info("Bulk load complete", "rows", copied)
	return copied, nil
}
