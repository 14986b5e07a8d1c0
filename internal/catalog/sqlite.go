package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// FromSQLite builds a catalog by introspecting a SQLite database file:
// every user table becomes an entity, its columns the fields, and its
// foreign keys the relations. The database is only read for schema, via
// sqlite_master and the table_info/foreign_key_list pragmas.
func FromSQLite(path string, opts ...Option) (*Catalog, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog: %w", err)
	}
	defer db.Close()

	tables, err := sqliteTables(db)
	if err != nil {
		return nil, err
	}

	var entities []Entity
	for _, table := range tables {
		entity := Entity{Name: table}
		if entity.Fields, err = sqliteColumns(db, table); err != nil {
			return nil, err
		}
		if entity.Relations, err = sqliteForeignKeys(db, table); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return New(entities, opts...)
}

func sqliteTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func sqliteColumns(db *sql.DB, table string) ([]Field, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var fields []Field
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		fields = append(fields, Field{Name: name, Type: colType})
	}
	return fields, rows.Err()
}

func sqliteForeignKeys(db *sql.DB, table string) ([]Relation, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("foreign_key_list %s: %w", table, err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var relations []Relation
	for rows.Next() {
		var (
			id, seq            int
			target, from       string
			to                 sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := rows.Scan(&id, &seq, &target, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scan foreign key of %s: %w", table, err)
		}
		rel := Relation{Name: target, Target: target, FromKey: from, ToKey: "id"}
		if to.Valid && to.String != "" {
			rel.ToKey = to.String
		}
		// A second key to the same table gets a column-qualified name.
		if seen[normalizeName(rel.Name)] {
			rel.Name = target + "_" + from
		}
		seen[normalizeName(rel.Name)] = true
		relations = append(relations, rel)
	}
	return relations, rows.Err()
}
