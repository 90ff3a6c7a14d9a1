package types

// DBSchema represents the provisioned state read back from a database
type DBSchema struct {
	Tables []DBTable `json:"tables"`
	Enums  []DBEnum  `json:"enums"`
	Roles  []DBRole  `json:"roles"`
	Grants []DBGrant `json:"grants"`
}

// DBTable represents a database table
type DBTable struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"` // TABLE, VIEW, etc.
	Columns []DBColumn `json:"columns"`
}

// DBColumn represents a database column
type DBColumn struct {
	Name               string  `json:"name"`
	DataType           string  `json:"data_type"`
	UDTName            string  `json:"udt_name"`             // For PostgreSQL enum types
	IsNullable         string  `json:"is_nullable"`          // YES/NO
	ColumnDefault      *string `json:"column_default"`       // Can be NULL
	CharacterMaxLength *int    `json:"character_max_length"` // For VARCHAR, etc.
	NumericPrecision   *int    `json:"numeric_precision"`    // For NUMERIC, etc.
	NumericScale       *int    `json:"numeric_scale"`        // For NUMERIC, etc.
	OrdinalPosition    int     `json:"ordinal_position"`
	IsPrimaryKey       bool    `json:"is_primary_key"` // Derived field
}

// DBEnum represents a database enum type (PostgreSQL).
// Values are ordered by the enum's declared sort order.
type DBEnum struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// DBRole represents a PostgreSQL role, either a login user or a
// non-login privilege group.
type DBRole struct {
	Name        string   `json:"name"`
	Login       bool     `json:"login"`
	Superuser   bool     `json:"superuser"`
	CreateDB    bool     `json:"create_db"`
	CreateRole  bool     `json:"create_role"`
	Inherit     bool     `json:"inherit"`
	HasPassword bool     `json:"has_password"`
	MemberOf    []string `json:"member_of"` // Groups this role has been granted
}

// DBGrant represents a single table-level privilege grant as reported
// by information_schema.role_table_grants.
type DBGrant struct {
	Grantee     string `json:"grantee"`
	TableSchema string `json:"table_schema"`
	TableName   string `json:"table_name"`
	Privilege   string `json:"privilege"` // SELECT, INSERT, UPDATE, DELETE, ...
}

// DBInfo contains connection and metadata information
type DBInfo struct {
	Dialect  string `json:"dialect"` // postgres
	Version  string `json:"version"`
	Database string `json:"database"`
	Schema   string `json:"schema"`
	URL      string `json:"url"` // database connection URL (for reference)
}

// SchemaReader interface for reading provisioned state from databases
type SchemaReader interface {
	ReadSchema() (*DBSchema, error)
	EnumExists(name string) (bool, error)
	RoleExists(name string) (bool, error)
	GrantsForRoles(grantees ...string) ([]DBGrant, error)
}

// SchemaWriter interface for executing statements against databases
type SchemaWriter interface {
	ExecuteSQL(sql string) error
	BeginTransaction() error
	CommitTransaction() error
	RollbackTransaction() error
	SetDryRun(dryRun bool)
	IsDryRun() bool
}
