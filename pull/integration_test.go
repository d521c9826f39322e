package pull

import (
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/caresuite/nl2sql"
)

func findConstraint(t *testing.T, table *nl2sql.TableInfo, constraintType string) nl2sql.ConstraintInfo {
	t.Helper()

	for _, c := range table.Constraints {
		if c.Type == constraintType {
			return c
		}
	}

	t.Fatalf("table %s has no %s constraint", table.Name, constraintType)

	return nl2sql.ConstraintInfo{}
}

func TestMySQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()

	mysqlContainer, err := mysql.Run(ctx,
		"mysql:8.4",
		mysql.WithDatabase("care"),
		mysql.WithUsername("careuser"),
		mysql.WithPassword("carepass"),
	)
	assert.NoError(t, err)

	defer func() {
		assert.NoError(t, mysqlContainer.Terminate(ctx))
	}()

	host, err := mysqlContainer.Host(ctx)
	assert.NoError(t, err)

	port, err := mysqlContainer.MappedPort(ctx, "3306/tcp")
	assert.NoError(t, err)

	databaseURL := fmt.Sprintf("mysql://careuser:carepass@%s:%s/care", host, port.Port())

	connector := NewDatabaseConnector()

	db, dialect, err := connector.Connect(databaseURL)
	assert.NoError(t, err)
	assert.Equal(t, nl2sql.DialectMySQL, dialect)

	defer connector.Close(db)

	assert.NoError(t, connector.Ping(ctx, db))

	statements := []string{
		`CREATE TABLE client (
			id INT NOT NULL AUTO_INCREMENT,
			code VARCHAR(32) NOT NULL,
			name VARCHAR(255) NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uq_client_code (code)
		) COMMENT='care organizations'`,
		`CREATE TABLE patient (
			id INT NOT NULL AUTO_INCREMENT,
			client_id INT NOT NULL,
			full_name VARCHAR(255) NOT NULL COMMENT 'display name',
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			KEY idx_patient_status (status),
			CONSTRAINT fk_patient_client FOREIGN KEY (client_id) REFERENCES client (id)
		) COMMENT='patient registry'`,
	}

	for _, stmt := range statements {
		_, err := db.ExecContext(ctx, stmt)
		assert.NoError(t, err)
	}

	result, err := Pull(ctx, PullConfig{URL: databaseURL})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(result.Tables))

	t.Run("DatabaseInfo", func(t *testing.T) {
		assert.Equal(t, "mysql", result.DatabaseInfo.Type)
		assert.Equal(t, "care", result.DatabaseInfo.Name)
		assert.NotZero(t, result.DatabaseInfo.Version)
	})

	t.Run("TableMetadata", func(t *testing.T) {
		client, patient := result.Tables[0], result.Tables[1]
		assert.Equal(t, "client", client.Name)
		assert.Equal(t, "patient", patient.Name)
		assert.Equal(t, "patient registry", patient.Comment)

		fullName := patient.Column("full_name")
		assert.NotZero(t, fullName)
		assert.Equal(t, "varchar(255)", fullName.Type)
		assert.Equal(t, "display name", fullName.Comment)

		id := patient.Column("id")
		assert.True(t, id.IsPrimaryKey)
		assert.Equal(t, autoIncrementDefault, id.DefaultValue)

		assert.Equal(t, "active", patient.Column("status").DefaultValue)
		assert.True(t, patient.Column("created_at").Nullable)
	})

	t.Run("Constraints", func(t *testing.T) {
		patient := result.Tables[1]

		pk := findConstraint(t, patient, nl2sql.ConstraintPrimaryKey)
		assert.Equal(t, []string{"id"}, pk.Columns)

		fk := findConstraint(t, patient, nl2sql.ConstraintForeignKey)
		assert.Equal(t, "fk_patient_client", fk.Name)
		assert.Equal(t, []string{"client_id"}, fk.Columns)
		assert.Equal(t, "client", fk.ReferencedTable)
		assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	})

	t.Run("Indexes", func(t *testing.T) {
		patient := result.Tables[1]

		// The PRIMARY index is reported as a constraint, not an index
		assert.Equal(t, 2, len(patient.Indexes))
		for _, index := range patient.Indexes {
			assert.NotEqual(t, "PRIMARY", index.Name)
		}
	})

	t.Run("Render", func(t *testing.T) {
		ddl := Render(result.Tables)
		assert.Contains(t, ddl, "CREATE TABLE `patient`")
		assert.Contains(t, ddl, "`id` int NOT NULL AUTO_INCREMENT")
		assert.Contains(t, ddl, "COMMENT='patient registry'")
		assert.Contains(t, ddl, "CONSTRAINT `fk_patient_client` FOREIGN KEY (`client_id`) REFERENCES `client` (`id`)")
	})
}

func TestPostgreSQLIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := t.Context()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("care"),
		postgres.WithUsername("careuser"),
		postgres.WithPassword("carepass"),
		postgres.BasicWaitStrategies(),
	)
	assert.NoError(t, err)

	defer func() {
		assert.NoError(t, postgresContainer.Terminate(ctx))
	}()

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	assert.NoError(t, err)

	connector := NewDatabaseConnector()

	db, dialect, err := connector.Connect(databaseURL)
	assert.NoError(t, err)
	assert.Equal(t, nl2sql.DialectPostgres, dialect)

	defer connector.Close(db)

	assert.NoError(t, connector.Ping(ctx, db))

	statements := []string{
		`CREATE TABLE client (
			id SERIAL PRIMARY KEY,
			code VARCHAR(32) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE patient (
			id SERIAL PRIMARY KEY,
			client_id INTEGER NOT NULL REFERENCES client(id),
			full_name VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ DEFAULT now()
		)`,
		`COMMENT ON TABLE patient IS 'patient registry'`,
		`COMMENT ON COLUMN patient.full_name IS 'display name'`,
		`CREATE INDEX idx_patient_status ON patient(status)`,
	}

	for _, stmt := range statements {
		_, err := db.ExecContext(ctx, stmt)
		assert.NoError(t, err)
	}

	result, err := Pull(ctx, PullConfig{URL: databaseURL})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(result.Tables))

	t.Run("DatabaseInfo", func(t *testing.T) {
		assert.Equal(t, "postgres", result.DatabaseInfo.Type)
		assert.Equal(t, "care", result.DatabaseInfo.Name)
		assert.Contains(t, result.DatabaseInfo.Version, "PostgreSQL")
	})

	t.Run("TableMetadata", func(t *testing.T) {
		client, patient := result.Tables[0], result.Tables[1]
		assert.Equal(t, "client", client.Name)
		assert.Equal(t, "patient", patient.Name)
		assert.Equal(t, "patient registry", patient.Comment)

		fullName := patient.Column("full_name")
		assert.NotZero(t, fullName)
		assert.Equal(t, "varchar(255)", fullName.Type)
		assert.Equal(t, "display name", fullName.Comment)

		// SERIAL columns carry a nextval default and the primary key flag
		// comes from the constraint
		id := patient.Column("id")
		assert.True(t, id.IsPrimaryKey)
		assert.Equal(t, autoIncrementDefault, id.DefaultValue)

		assert.Equal(t, "active", patient.Column("status").DefaultValue)
		assert.Equal(t, "timestamptz", patient.Column("created_at").Type)
	})

	t.Run("Constraints", func(t *testing.T) {
		patient := result.Tables[1]

		pk := findConstraint(t, patient, nl2sql.ConstraintPrimaryKey)
		assert.Equal(t, []string{"id"}, pk.Columns)

		fk := findConstraint(t, patient, nl2sql.ConstraintForeignKey)
		assert.Equal(t, []string{"client_id"}, fk.Columns)
		assert.Equal(t, "client", fk.ReferencedTable)
		assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	})

	t.Run("Indexes", func(t *testing.T) {
		patient := result.Tables[1]

		// Primary key indexes are excluded; idx_patient_status remains
		assert.Equal(t, 1, len(patient.Indexes))
		assert.Equal(t, "idx_patient_status", patient.Indexes[0].Name)
		assert.Equal(t, []string{"status"}, patient.Indexes[0].Columns)
		assert.Equal(t, "btree", patient.Indexes[0].Type)
	})

	t.Run("SchemaFilter", func(t *testing.T) {
		filtered, err := Pull(ctx, PullConfig{
			URL:           databaseURL,
			IncludeTables: []string{"patient"},
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, len(filtered.Tables))
		assert.Equal(t, "patient", filtered.Tables[0].Name)
	})
}
