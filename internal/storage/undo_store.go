package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNoUndo is returned when there is no earlier (or later) snapshot to move to.
var ErrNoUndo = errors.New("nothing to undo")

// UndoNode is one drawing snapshot in a page's history.
type UndoNode struct {
	ID           string    `json:"id"`
	PageID       string    `json:"pageId"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UndoTree is the full history of a page.
type UndoTree struct {
	Nodes     []UndoNode `json:"nodes"`
	CurrentID string     `json:"currentId"`
	RootID    string     `json:"rootId"`
}

// UndoStore manages undo history in SQLite.
type UndoStore struct {
	db       *DB
	maxNodes int
}

// NewUndoStore keeps at most maxNodes snapshots per page; 0 means unlimited.
func NewUndoStore(db *DB, maxNodes int) *UndoStore {
	return &UndoStore{db: db, maxNodes: maxNodes}
}

const undoColumns = `id, page_id, parent_id, label, snapshot_json, created_at`

// LoadTree returns the full undo tree for a page, or nil when it has none.
func (s *UndoStore) LoadTree(pageID string) (*UndoTree, error) {
	rows, err := s.db.Conn().Query(
		`SELECT `+undoColumns+` FROM undo_nodes WHERE page_id = ? ORDER BY created_at ASC, rowid ASC`, pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("load undo nodes: %w", err)
	}
	defer rows.Close()

	var nodes []UndoNode
	var rootID string
	for rows.Next() {
		var n UndoNode
		if err := rows.Scan(&n.ID, &n.PageID, &n.ParentID, &n.Label, &n.SnapshotJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan undo node: %w", err)
		}
		if n.ParentID == nil {
			rootID = n.ID
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, nil
	}

	currentID, err := s.Current(pageID)
	if err != nil || currentID == "" {
		currentID = rootID
	}

	return &UndoTree{
		Nodes:     nodes,
		CurrentID: currentID,
		RootID:    rootID,
	}, nil
}

// Push records snapshotJSON as a child of the page's current node and makes
// it current.
func (s *UndoStore) Push(pageID, label, snapshotJSON string) (*UndoNode, error) {
	parentID, err := s.Current(pageID)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	var pID *string
	if parentID != "" {
		pID = &parentID
	}
	node := &UndoNode{
		ID:           uuid.New().String(),
		PageID:       pageID,
		ParentID:     pID,
		Label:        label,
		SnapshotJSON: snapshotJSON,
		CreatedAt:    now,
	}

	_, err = s.db.Conn().Exec(
		`INSERT INTO undo_nodes (`+undoColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		node.ID, pageID, pID, label, snapshotJSON, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert undo node: %w", err)
	}
	if err := s.GoTo(pageID, node.ID); err != nil {
		return nil, fmt.Errorf("update undo state: %w", err)
	}

	if _, err := s.Prune(pageID); err != nil {
		return nil, err
	}
	return node, nil
}

// Undo moves the current pointer to its parent and returns the parent.
func (s *UndoStore) Undo(pageID string) (*UndoNode, error) {
	currentID, err := s.Current(pageID)
	if err != nil {
		return nil, err
	}
	if currentID == "" {
		return nil, ErrNoUndo
	}
	cur, err := s.node(currentID)
	if err != nil {
		return nil, err
	}
	if cur.ParentID == nil {
		return nil, ErrNoUndo
	}
	parent, err := s.node(*cur.ParentID)
	if err != nil {
		return nil, err
	}
	if err := s.GoTo(pageID, parent.ID); err != nil {
		return nil, err
	}
	return parent, nil
}

// Redo moves the current pointer to its newest child and returns it.
func (s *UndoStore) Redo(pageID string) (*UndoNode, error) {
	currentID, err := s.Current(pageID)
	if err != nil {
		return nil, err
	}
	if currentID == "" {
		return nil, ErrNoUndo
	}
	child := &UndoNode{}
	err = s.db.Conn().QueryRow(
		`SELECT `+undoColumns+` FROM undo_nodes WHERE parent_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		currentID,
	).Scan(&child.ID, &child.PageID, &child.ParentID, &child.Label, &child.SnapshotJSON, &child.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoUndo
	}
	if err != nil {
		return nil, fmt.Errorf("load redo node: %w", err)
	}
	if err := s.GoTo(pageID, child.ID); err != nil {
		return nil, err
	}
	return child, nil
}

// GoTo updates the current position pointer.
func (s *UndoStore) GoTo(pageID, nodeID string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO undo_state (page_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(page_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		pageID, nodeID,
	)
	return err
}

// ClearPage removes all undo data for a page.
func (s *UndoStore) ClearPage(pageID string) error {
	_, _ = s.db.Conn().Exec(`DELETE FROM undo_state WHERE page_id = ?`, pageID)
	_, err := s.db.Conn().Exec(`DELETE FROM undo_nodes WHERE page_id = ?`, pageID)
	return err
}

// Current returns the id of the page's current node, or "" when it has no history.
func (s *UndoStore) Current(pageID string) (string, error) {
	var id string
	err := s.db.Conn().QueryRow(`SELECT current_node_id FROM undo_state WHERE page_id = ?`, pageID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load undo state: %w", err)
	}
	return id, nil
}

func (s *UndoStore) node(id string) (*UndoNode, error) {
	n := &UndoNode{}
	err := s.db.Conn().QueryRow(`SELECT `+undoColumns+` FROM undo_nodes WHERE id = ?`, id).
		Scan(&n.ID, &n.PageID, &n.ParentID, &n.Label, &n.SnapshotJSON, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("load undo node %s: %w", id, err)
	}
	return n, nil
}

// Prune removes the oldest nodes of a page beyond the store's limit, never the
// current one, and returns how many were removed. Children of a removed node
// are re-parented to its parent.
func (s *UndoStore) Prune(pageID string) (int, error) {
	if s.maxNodes <= 0 {
		return 0, nil
	}
	var count int
	if err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM undo_nodes WHERE page_id = ?`, pageID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count undo nodes: %w", err)
	}
	if count <= s.maxNodes {
		return 0, nil
	}

	toDelete := count - s.maxNodes

	// Read the current node before opening the cursor; with a single
	// connection a nested query would block.
	currentID, err := s.Current(pageID)
	if err != nil {
		return 0, err
	}

	rows, err := s.db.Conn().Query(
		`SELECT id, parent_id FROM undo_nodes WHERE page_id = ?
		 ORDER BY created_at ASC, rowid ASC LIMIT ?`, pageID, toDelete+1,
	)
	if err != nil {
		return 0, fmt.Errorf("select undo nodes: %w", err)
	}

	type victim struct {
		id     string
		parent sql.NullString
	}
	var victims []victim
	for rows.Next() {
		var v victim
		if err := rows.Scan(&v.id, &v.parent); err != nil {
			continue
		}
		if v.id != currentID && len(victims) < toDelete {
			victims = append(victims, v)
		}
	}
	rows.Close()

	for _, v := range victims {
		// Re-read the parent: an earlier deletion may have re-parented v.
		var parentID sql.NullString
		s.db.Conn().QueryRow(`SELECT parent_id FROM undo_nodes WHERE id = ?`, v.id).Scan(&parentID)
		if _, err := s.db.Conn().Exec(`UPDATE undo_nodes SET parent_id = ? WHERE parent_id = ?`, parentID, v.id); err != nil {
			return 0, fmt.Errorf("reparent undo nodes: %w", err)
		}
		if _, err := s.db.Conn().Exec(`DELETE FROM undo_nodes WHERE id = ?`, v.id); err != nil {
			return 0, fmt.Errorf("delete undo node: %w", err)
		}
	}
	return len(victims), nil
}
