// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"database/sql"
	"math/big"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/builtin/staking"
	"github.com/veldtprotocol/veldt/veldt"
)

const schema = `CREATE TABLE IF NOT EXISTS events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	account BLOB,
	node BLOB,
	amount BLOB,
	epoch INTEGER NOT NULL,
	time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS events_kind ON events(kind);
CREATE INDEX IF NOT EXISTS events_account ON events(account);`

// EventDB is a sqlite-backed audit log of staking events. It implements
// staking.Sink.
type EventDB struct {
	db    *sql.DB
	wlock sync.Mutex
}

// New opens or creates the event database at path.
func New(path string) (*EventDB, error) {
	return open("file:" + path + "?_journal=wal&cache=shared")
}

// NewMem creates an in-memory event database.
func NewMem() (*EventDB, error) {
	return open("file::memory:?cache=shared")
}

func open(dsn string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open event db")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to init event db schema")
	}
	return &EventDB{db: db}, nil
}

// Close closes the database.
func (e *EventDB) Close() error {
	return e.db.Close()
}

// Record appends one event.
func (e *EventDB) Record(ev *staking.Event) error {
	e.wlock.Lock()
	defer e.wlock.Unlock()

	var amount []byte
	if ev.Amount != nil {
		amount = ev.Amount.Bytes()
	}
	_, err := e.db.Exec(
		"INSERT INTO events(kind, account, node, amount, epoch, time) VALUES(?,?,?,?,?,?)",
		ev.Kind, ev.Account.Bytes(), ev.Node.Bytes(), amount, ev.Epoch, ev.Time,
	)
	return errors.Wrap(err, "failed to record event")
}

// Filter narrows a query. Zero fields match everything; Limit 0 means no
// limit.
type Filter struct {
	Kind    string
	Account *veldt.Address
	Node    *veldt.Address
	Limit   int
}

// Query returns matching events, oldest first.
func (e *EventDB) Query(filter *Filter) ([]*staking.Event, error) {
	query := "SELECT kind, account, node, amount, epoch, time FROM events"
	var (
		conds []string
		args  []any
	)
	if filter != nil {
		if filter.Kind != "" {
			conds = append(conds, "kind = ?")
			args = append(args, filter.Kind)
		}
		if filter.Account != nil {
			conds = append(conds, "account = ?")
			args = append(args, filter.Account.Bytes())
		}
		if filter.Node != nil {
			conds = append(conds, "node = ?")
			args = append(args, filter.Node.Bytes())
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq"
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT ?"
	}

	rows, err := e.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query events")
	}
	defer rows.Close()

	var events []*staking.Event
	for rows.Next() {
		var (
			ev            staking.Event
			account, node []byte
			amount        []byte
		)
		if err := rows.Scan(&ev.Kind, &account, &node, &amount, &ev.Epoch, &ev.Time); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}
		ev.Account = veldt.BytesToAddress(account)
		ev.Node = veldt.BytesToAddress(node)
		ev.Amount = new(big.Int).SetBytes(amount)
		events = append(events, &ev)
	}
	return events, rows.Err()
}
