// Package render generates the PostgreSQL DDL and DCL statements executed
// by the provisioner. Identifiers and literals are quoted with lib/pq to
// keep configured names and passwords safe to embed.
package render

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/clu0501/database-for-crime-reports/crimeschema"
)

// CreateDatabase renders a CREATE DATABASE statement. CREATE DATABASE has
// no IF NOT EXISTS clause, so callers must check pg_database first.
func CreateDatabase(name string) string {
	return fmt.Sprintf("CREATE DATABASE %s;", pq.QuoteIdentifier(name))
}

// CreateSchema renders an idempotent CREATE SCHEMA statement
func CreateSchema(schema string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s;", pq.QuoteIdentifier(schema))
}

// CreateEnum renders a CREATE TYPE ... AS ENUM statement. PostgreSQL has no
// IF NOT EXISTS for types, so callers must check the catalog first.
func CreateEnum(e crimeschema.Enum) string {
	labels := make([]string, len(e.Values))
	for i, v := range e.Values {
		labels[i] = pq.QuoteLiteral(v)
	}
	return fmt.Sprintf("CREATE TYPE %s AS ENUM (%s);",
		qualifiedName(e.Schema, e.Name), strings.Join(labels, ", "))
}

// CreateTable renders an idempotent CREATE TABLE statement with the
// table's columns in declaration order and an inline primary key.
func CreateTable(t crimeschema.Table) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(qualifiedName(t.Schema, t.Name))
	sb.WriteString(" (\n")

	for i, col := range t.Columns {
		sb.WriteString("    ")
		sb.WriteString(pq.QuoteIdentifier(col.Name))
		sb.WriteString(" ")
		sb.WriteString(columnType(col))
		switch {
		case col.PrimaryKey:
			sb.WriteString(" PRIMARY KEY")
		case col.NotNull:
			sb.WriteString(" NOT NULL")
		}
		if i < len(t.Columns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(");")
	return sb.String()
}

// CreateGroup renders a CREATE ROLE statement for a non-login privilege group
func CreateGroup(name string) string {
	return fmt.Sprintf("CREATE ROLE %s WITH NOLOGIN NOSUPERUSER NOCREATEDB NOCREATEROLE INHERIT NOREPLICATION;",
		pq.QuoteIdentifier(name))
}

// CreateUser renders a CREATE ROLE statement for a login user with a password
func CreateUser(name, password string) string {
	return fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD %s NOSUPERUSER NOCREATEDB NOCREATEROLE INHERIT NOREPLICATION;",
		pq.QuoteIdentifier(name), pq.QuoteLiteral(password))
}

// RevokeAllOnSchema renders a REVOKE ALL statement on a schema from PUBLIC
func RevokeAllOnSchema(schema string) string {
	return fmt.Sprintf("REVOKE ALL ON SCHEMA %s FROM PUBLIC;", pq.QuoteIdentifier(schema))
}

// RevokeAllOnDatabase renders a REVOKE ALL statement on a database from PUBLIC
func RevokeAllOnDatabase(database string) string {
	return fmt.Sprintf("REVOKE ALL ON DATABASE %s FROM PUBLIC;", pq.QuoteIdentifier(database))
}

// GrantConnect renders a GRANT CONNECT statement on a database
func GrantConnect(database, role string) string {
	return fmt.Sprintf("GRANT CONNECT ON DATABASE %s TO %s;",
		pq.QuoteIdentifier(database), pq.QuoteIdentifier(role))
}

// GrantUsage renders a GRANT USAGE statement on a schema
func GrantUsage(schema, role string) string {
	return fmt.Sprintf("GRANT USAGE ON SCHEMA %s TO %s;",
		pq.QuoteIdentifier(schema), pq.QuoteIdentifier(role))
}

// GrantTablePrivileges renders a GRANT statement for table privileges on
// all tables in a schema.
func GrantTablePrivileges(privileges []string, schema, role string) string {
	return fmt.Sprintf("GRANT %s ON ALL TABLES IN SCHEMA %s TO %s;",
		strings.Join(privileges, ", "), pq.QuoteIdentifier(schema), pq.QuoteIdentifier(role))
}

// GrantMembership renders a role membership grant
func GrantMembership(group, member string) string {
	return fmt.Sprintf("GRANT %s TO %s;",
		pq.QuoteIdentifier(group), pq.QuoteIdentifier(member))
}

// columnType quotes schema-qualified enum type references; built-in SQL
// types pass through verbatim.
func columnType(col crimeschema.Column) string {
	if schema, name, ok := strings.Cut(col.Type, "."); ok {
		return qualifiedName(schema, name)
	}
	return col.Type
}

func qualifiedName(schema, name string) string {
	if schema == "" {
		return pq.QuoteIdentifier(name)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
}
