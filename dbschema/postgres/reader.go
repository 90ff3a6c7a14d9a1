package postgres

import (
	"database/sql"
	"fmt"

	"github.com/clu0501/database-for-crime-reports/dbschema/types"
)

// Reader reads provisioned state from PostgreSQL databases
type Reader struct {
	db     *sql.DB
	schema string
}

// NewReader creates a new PostgreSQL schema reader scoped to the given schema
func NewReader(db *sql.DB, schema string) *Reader {
	if schema == "" {
		schema = "public"
	}
	return &Reader{
		db:     db,
		schema: schema,
	}
}

// ReadSchema reads tables, enum types, roles and table grants
func (r *Reader) ReadSchema() (*types.DBSchema, error) {
	schema := &types.DBSchema{}

	tables, err := r.readTables()
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	schema.Tables = tables

	enums, err := r.readEnums()
	if err != nil {
		return nil, fmt.Errorf("failed to read enums: %w", err)
	}
	schema.Enums = enums

	roles, err := r.readRoles()
	if err != nil {
		return nil, fmt.Errorf("failed to read roles: %w", err)
	}
	schema.Roles = roles

	grants, err := r.ReadGrants()
	if err != nil {
		return nil, fmt.Errorf("failed to read grants: %w", err)
	}
	schema.Grants = grants

	if err := r.markPrimaryKeys(schema.Tables); err != nil {
		return nil, fmt.Errorf("failed to read primary keys: %w", err)
	}

	return schema, nil
}

// readTables reads all tables and their columns
func (r *Reader) readTables() ([]types.DBTable, error) {
	tablesQuery := `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = $1
		ORDER BY table_name`

	rows, err := r.db.Query(tablesQuery, r.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []types.DBTable
	for rows.Next() {
		var table types.DBTable
		if err := rows.Scan(&table.Name, &table.Type); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}

		columns, err := r.readColumns(table.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns for table %s: %w", table.Name, err)
		}
		table.Columns = columns

		tables = append(tables, table)
	}

	return tables, rows.Err()
}

// readColumns reads all columns for a specific table
func (r *Reader) readColumns(tableName string) ([]types.DBColumn, error) {
	columnsQuery := `
		SELECT
			column_name,
			data_type,
			udt_name,
			is_nullable,
			column_default,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := r.db.Query(columnsQuery, r.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.DBColumn
	for rows.Next() {
		var col types.DBColumn
		err := rows.Scan(
			&col.Name,
			&col.DataType,
			&col.UDTName,
			&col.IsNullable,
			&col.ColumnDefault,
			&col.CharacterMaxLength,
			&col.NumericPrecision,
			&col.NumericScale,
			&col.OrdinalPosition,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// readEnums reads all enum types in the schema, values in declared order
func (r *Reader) readEnums() ([]types.DBEnum, error) {
	enumsQuery := `
		SELECT
			t.typname AS enum_name,
			e.enumlabel AS enum_value
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1
		ORDER BY t.typname, e.enumsortorder`

	rows, err := r.db.Query(enumsQuery, r.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query enums: %w", err)
	}
	defer rows.Close()

	var enums []types.DBEnum
	for rows.Next() {
		var enumName, enumValue string
		if err := rows.Scan(&enumName, &enumValue); err != nil {
			return nil, fmt.Errorf("failed to scan enum: %w", err)
		}

		// Rows arrive grouped by type name, so append to the last enum
		// while the name matches to preserve the declared value order.
		if len(enums) == 0 || enums[len(enums)-1].Name != enumName {
			enums = append(enums, types.DBEnum{Name: enumName})
		}
		enums[len(enums)-1].Values = append(enums[len(enums)-1].Values, enumValue)
	}

	return enums, rows.Err()
}

// readRoles reads all non-system PostgreSQL roles and their group memberships
func (r *Reader) readRoles() ([]types.DBRole, error) {
	rolesQuery := `
		SELECT
			r.rolname AS role_name,
			r.rolcanlogin AS login,
			r.rolsuper AS superuser,
			r.rolcreatedb AS create_db,
			r.rolcreaterole AS create_role,
			r.rolinherit AS inherit,
			COALESCE(a.rolpassword IS NOT NULL AND a.rolpassword != '', false) AS has_password,
			COALESCE(ARRAY(
				SELECT g.rolname
				FROM pg_auth_members m
				JOIN pg_roles g ON g.oid = m.roleid
				WHERE m.member = r.oid
				ORDER BY g.rolname
			), '{}') AS member_of
		FROM pg_roles r
		LEFT JOIN pg_authid a ON r.oid = a.oid
		WHERE r.rolname NOT LIKE 'pg\_%'
		AND r.rolname != 'postgres'
		ORDER BY r.rolname`

	rows, err := r.db.Query(rolesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var roles []types.DBRole
	for rows.Next() {
		var role types.DBRole
		var memberOf []byte
		err := rows.Scan(
			&role.Name,
			&role.Login,
			&role.Superuser,
			&role.CreateDB,
			&role.CreateRole,
			&role.Inherit,
			&role.HasPassword,
			&memberOf,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		role.MemberOf = parseTextArray(string(memberOf))

		roles = append(roles, role)
	}

	return roles, rows.Err()
}

// ReadGrants reads all table-level privilege grants within the schema
func (r *Reader) ReadGrants() ([]types.DBGrant, error) {
	return r.readGrants(grantsQuery, r.schema)
}

// GrantsForRoles reads table-level privilege grants within the schema
// held by any of the given grantees.
func (r *Reader) GrantsForRoles(grantees ...string) ([]types.DBGrant, error) {
	return r.readGrants(grantsForRolesQuery, r.schema, formatTextArray(grantees))
}

// EnumExists reports whether an enum type with the given name exists in
// the schema.
func (r *Reader) EnumExists(name string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM pg_type t
			JOIN pg_namespace n ON n.oid = t.typnamespace
			WHERE t.typtype = 'e' AND t.typname = $1 AND n.nspname = $2
		)`

	var exists bool
	if err := r.db.QueryRow(query, name, r.schema).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check enum %s: %w", name, err)
	}
	return exists, nil
}

// RoleExists reports whether a role with the given name exists. Roles are
// cluster-wide, so this check is not scoped to the schema.
func (r *Reader) RoleExists(name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check role %s: %w", name, err)
	}
	return exists, nil
}

const grantsQuery = `
	SELECT grantee, table_schema, table_name, privilege_type
	FROM information_schema.role_table_grants
	WHERE table_schema = $1
	ORDER BY grantee, table_name, privilege_type`

const grantsForRolesQuery = `
	SELECT grantee, table_schema, table_name, privilege_type
	FROM information_schema.role_table_grants
	WHERE table_schema = $1 AND grantee = ANY($2::text[])
	ORDER BY grantee, table_name, privilege_type`

func (r *Reader) readGrants(query string, args ...any) ([]types.DBGrant, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	var grants []types.DBGrant
	for rows.Next() {
		var grant types.DBGrant
		err := rows.Scan(
			&grant.Grantee,
			&grant.TableSchema,
			&grant.TableName,
			&grant.Privilege,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}

		grants = append(grants, grant)
	}

	return grants, rows.Err()
}

// markPrimaryKeys adds primary key information to table columns
func (r *Reader) markPrimaryKeys(tables []types.DBTable) error {
	pkQuery := `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.constraint_type = 'PRIMARY KEY'`

	rows, err := r.db.Query(pkQuery, r.schema)
	if err != nil {
		return fmt.Errorf("failed to query primary keys: %w", err)
	}
	defer rows.Close()

	primaryKeys := make(map[string]map[string]bool)
	for rows.Next() {
		var tableName, columnName string
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return fmt.Errorf("failed to scan primary key: %w", err)
		}
		if primaryKeys[tableName] == nil {
			primaryKeys[tableName] = make(map[string]bool)
		}
		primaryKeys[tableName][columnName] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range tables {
		for j := range tables[i].Columns {
			col := &tables[i].Columns[j]
			if primaryKeys[tables[i].Name][col.Name] {
				col.IsPrimaryKey = true
			}
		}
	}

	return nil
}
