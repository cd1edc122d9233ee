// Package sqlite exposes SQLite databases to scripts through a sqlite
// global. Databases are addressed by file name.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	cloji "github.com/yosbelms/cloji/core"
)

// Module holds the databases opened by scripts.
type Module struct {
	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func New() *Module {
	return &Module{dbs: make(map[string]*sql.DB)}
}

// Globals returns a fresh module's bindings. Use New when the databases
// need closing on shutdown.
func Globals() map[string]any {
	return New().Globals()
}

func (m *Module) Globals() map[string]any {
	return map[string]any{
		"sqlite": map[string]any{
			"open":      cloji.HostFunc(m.open),
			"close":     cloji.HostFunc(m.close),
			"drop":      cloji.HostFunc(m.drop),
			"list":      cloji.HostFunc(m.list),
			"query":     cloji.HostFunc(m.query),
			"exec":      cloji.HostFunc(m.exec),
			"execMulti": cloji.HostFunc(m.execMulti),
		},
	}
}

// Close closes every open database.
func (m *Module) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, db := range m.dbs {
		log.Printf("closing database: %s", name)
		db.Close()
		delete(m.dbs, name)
	}
}

func dbName(args []any) (string, error) {
	if len(args) > 0 {
		if s, ok := args[0].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("missing db")
}

func (m *Module) getDB(args []any) (*sql.DB, error) {
	name, err := dbName(args)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	db, ok := m.dbs[name]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("database %q not open", name)
	}
	return db, nil
}

// (sqlite.open "app.db")
func (m *Module) open(args ...any) (any, error) {
	name, err := dbName(args)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.dbs[name]; exists {
		return nil, fmt.Errorf("database %q already open", name)
	}
	db, err := sql.Open("sqlite3", name)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	m.dbs[name] = db
	log.Printf("opened database: %s", name)
	return name, nil
}

func (m *Module) close(args ...any) (any, error) {
	name, err := dbName(args)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	db, exists := m.dbs[name]
	if !exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("database %q not open", name)
	}
	delete(m.dbs, name)
	m.mu.Unlock()

	if err := db.Close(); err != nil {
		return nil, err
	}
	log.Printf("closed database: %s", name)
	return true, nil
}

// drop closes the database if open and deletes its file.
func (m *Module) drop(args ...any) (any, error) {
	name, err := dbName(args)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	db, open := m.dbs[name]
	if open {
		delete(m.dbs, name)
	}
	m.mu.Unlock()

	if open {
		db.Close()
	}
	if err := os.Remove(name); err != nil {
		return nil, err
	}
	log.Printf("dropped database: %s", name)
	return true, nil
}

func (m *Module) list(_ ...any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.dbs))
	for name := range m.dbs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out, nil
}

// statement reads the sql text and optional params array at args[i:].
func statement(args []any, i int) (string, []any, error) {
	var query string
	if i < len(args) {
		query, _ = args[i].(string)
	}
	if query == "" {
		return "", nil, fmt.Errorf("missing sql")
	}
	if i+1 >= len(args) || args[i+1] == nil || args[i+1] == cloji.Undefined {
		return query, nil, nil
	}
	params, ok := args[i+1].([]any)
	if !ok {
		return "", nil, fmt.Errorf("params must be an array")
	}
	return query, params, nil
}

// (sqlite.query db "SELECT ..." [params]) returns an array of row objects.
func (m *Module) query(args ...any) (any, error) {
	db, err := m.getDB(args)
	if err != nil {
		return nil, err
	}
	query, params, err := statement(args, 1)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]any, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = cloji.Import(vals[i])
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func execOne(e execer, query string, params []any) (map[string]any, error) {
	result, err := e.Exec(query, params...)
	if err != nil {
		return nil, err
	}
	ra, _ := result.RowsAffected()
	li, _ := result.LastInsertId()
	return map[string]any{
		"rows_affected":  float64(ra),
		"last_insert_id": float64(li),
	}, nil
}

// (sqlite.exec db "INSERT ..." [params])
func (m *Module) exec(args ...any) (any, error) {
	db, err := m.getDB(args)
	if err != nil {
		return nil, err
	}
	query, params, err := statement(args, 1)
	if err != nil {
		return nil, err
	}
	return execOne(db, query, params)
}

// (sqlite.execMulti db [{:sql "..." :params [...]} "..."]) runs every
// statement in one transaction.
func (m *Module) execMulti(args ...any) (any, error) {
	db, err := m.getDB(args)
	if err != nil {
		return nil, err
	}
	var stmts []any
	if len(args) > 1 {
		stmts, _ = args[1].([]any)
	}
	if len(stmts) == 0 {
		return nil, fmt.Errorf("missing stmts")
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}

	results := make([]any, 0, len(stmts))
	for i, raw := range stmts {
		var query string
		var params []any
		switch s := raw.(type) {
		case string:
			query = s
		case map[string]any:
			query, params, err = statement([]any{s["sql"], s["params"]}, 0)
		}
		if err == nil && query == "" {
			err = fmt.Errorf("missing sql")
		}
		var res map[string]any
		if err == nil {
			res, err = execOne(tx, query, params)
		}
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("stmt %d: %w", i, err)
		}
		results = append(results, res)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return map[string]any{"results": results}, nil
}
