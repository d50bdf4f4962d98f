package watchlist

import (
	"fmt"

	"finance-pipeline/src/logger"
	"finance-pipeline/src/storage"
)

// -----------------------------------------------------------------------------

// Manager creates, replaces and reads named symbol groups. Membership is a
// soft reference: no existence check against the symbol master.
type Manager struct {
	Store  *storage.Store
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewManager(store *storage.Store, log *logger.Logger) *Manager {
	return &Manager{
		Store:  store,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// CreateOrReplace replaces the full membership set for a name. The delete
// and re-insert run in one transaction so a concurrent reader never observes
// an empty intermediate state. Duplicate symbols in the input are stored as
// given.
func (m *Manager) CreateOrReplace(name string, symbols []string) error {
	if err := m.Store.Connect(); err != nil {
		return err
	}

	tx, err := m.Store.DB().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM watchlist_symbols
		WHERE watchlist_id IN (SELECT id FROM watchlists WHERE name = ?)
	`, name); err != nil {
		return fmt.Errorf("failed to clear watchlist members: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM watchlists WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to clear watchlist: %w", err)
	}

	res, err := tx.Exec("INSERT INTO watchlists (name) VALUES (?)", name)
	if err != nil {
		return fmt.Errorf("failed to create watchlist: %w", err)
	}

	watchlistID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO watchlist_symbols (watchlist_id, symbol) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, symbol := range symbols {
		if _, err := stmt.Exec(watchlistID, symbol); err != nil {
			return fmt.Errorf("failed to add member %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	m.Logger.Info("Watchlist %q saved with %d members", name, len(symbols))
	return nil
}

// -----------------------------------------------------------------------------

// Get returns the member symbol codes of a watchlist; order is not
// guaranteed. An unknown name yields an empty list.
func (m *Manager) Get(name string) ([]string, error) {
	result, err := m.Store.Execute(`
		SELECT ws.symbol
		FROM watchlists w
		JOIN watchlist_symbols ws ON w.id = ws.watchlist_id
		WHERE w.name = ?
	`, name)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if s, ok := row[0].(string); ok {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

// -----------------------------------------------------------------------------

// List returns all watchlist names.
func (m *Manager) List() ([]string, error) {
	result, err := m.Store.Execute("SELECT name FROM watchlists ORDER BY name")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if s, ok := row[0].(string); ok {
			names = append(names, s)
		}
	}
	return names, nil
}

// -----------------------------------------------------------------------------

// Delete removes the watchlist header and its members.
func (m *Manager) Delete(name string) error {
	if err := m.Store.Connect(); err != nil {
		return err
	}

	tx, err := m.Store.DB().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM watchlist_symbols
		WHERE watchlist_id IN (SELECT id FROM watchlists WHERE name = ?)
	`, name); err != nil {
		return fmt.Errorf("failed to delete watchlist members: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM watchlists WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	m.Logger.Info("Watchlist %q deleted", name)
	return nil
}
