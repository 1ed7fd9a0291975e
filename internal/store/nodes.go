package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/letschat/internal/tree"
)

// Apply implements tree.Journal. The tree is stored flattened: one row per
// leaf, keyed by its full path.
func (db *DB) Apply(writes []tree.Write) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, w := range writes {
		path := strings.Trim(w.Path, "/")
		if path == "" {
			return fmt.Errorf("journal: empty path")
		}
		// '0' is the byte after '/', so the range covers exactly the descendants.
		if _, err := tx.Exec(`DELETE FROM nodes WHERE path = ? OR (path >= ? AND path < ?)`,
			path, path+"/", path+"0"); err != nil {
			return fmt.Errorf("clear subtree %s: %w", path, err)
		}
		for _, anc := range ancestors(path) {
			if _, err := tx.Exec(`DELETE FROM nodes WHERE path = ?`, anc); err != nil {
				return fmt.Errorf("clear ancestor %s: %w", anc, err)
			}
		}
		leaves := map[string]any{}
		flatten(path, w.Value, leaves)
		for p, v := range leaves {
			raw, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode %s: %w", p, err)
			}
			if _, err := tx.Exec(`INSERT INTO nodes (path, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				p, string(raw), now); err != nil {
				return fmt.Errorf("write %s: %w", p, err)
			}
		}
	}
	return tx.Commit()
}

// LoadTree rebuilds the whole tree from the journal.
func (db *DB) LoadTree() (map[string]any, error) {
	rows, err := db.Query(`SELECT path, value FROM nodes ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	root := make(map[string]any)
	for rows.Next() {
		var path, raw string
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		segs := strings.Split(path, "/")
		node := root
		for _, s := range segs[:len(segs)-1] {
			child, ok := node[s].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[s] = child
			}
			node = child
		}
		node[segs[len(segs)-1]] = v
	}
	return root, rows.Err()
}

// NodeCount returns the number of stored leaves.
func (db *DB) NodeCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&n)
	return n, err
}

func ancestors(path string) []string {
	var out []string
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			out = append(out, path[:i])
		}
	}
	return out
}

func flatten(prefix string, v any, out map[string]any) {
	switch t := v.(type) {
	case nil:
	case map[string]any:
		for k, c := range t {
			flatten(prefix+"/"+k, c, out)
		}
	default:
		out[prefix] = t
	}
}
