// Game and account persistence.
//
// Copyright (c) 2021, 2022, 2023  Philip Kaludercic
//
// This file is part of go-kgp.
//
// go-kgp is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-kgp is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-kgp. If not, see
// <http://www.gnu.org/licenses/>

// Package db implements the persistence surface (spec.md §6): saving
// and loading finished games as BPGN, listing a user's game history,
// and account creation/authentication. It follows the teacher's
// split-connection, embedded-SQL, prepared-statement-map shape: one
// read-only *sql.DB for queries, one single-connection write *sql.DB
// for commands, both backed by the same SQLite file.
package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"path"
	"strings"
	"time"

	"bughouse"
	"bughouse/conf"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed *.sql
var sqlDir embed.FS

type db struct {
	read, write *sql.DB
	queries     map[string]*sql.Stmt
	commands    map[string]*sql.Stmt
}

const gamesPerPage = 20

// SaveGame records a finished game's BPGN, outcome, and the rating
// snapshot before/after for every participant it involved, inside a
// single transaction so a crash mid-write never leaves an orphaned
// game row (§6 "SaveGame" persistence operation).
func (d *db) SaveGame(ctx context.Context, matchID bughouse.MatchID, gameIndex int, bpgn string, outcome bughouse.GameStatus, ratingsBefore, ratingsAfter map[bughouse.ParticipantID]bughouse.Elo, endedAtUnixMs int64) error {
	before, err := json.Marshal(ratingsBefore)
	if err != nil {
		return err
	}
	after, err := json.Marshal(ratingsAfter)
	if err != nil {
		return err
	}

	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.StmtContext(ctx, d.commands["insert-game"]).ExecContext(ctx,
		string(matchID), gameIndex, bpgn, outcome.String(), string(before), string(after), endedAtUnixMs)
	if err != nil {
		return err
	}
	gameID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for participant := range ratingsBefore {
		_, err = tx.StmtContext(ctx, d.commands["insert-game-participant"]).ExecContext(ctx, gameID, string(participant))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadGame returns the BPGN text for a previously saved game (§6
// "LoadGame").
func (d *db) LoadGame(ctx context.Context, gameID int64) (string, error) {
	var bpgn string
	err := d.queries["select-game"].QueryRowContext(ctx, gameID).Scan(&bpgn)
	if err == sql.ErrNoRows {
		return "", bughouse.InvalidCommandf("no such game: %d", gameID)
	}
	return bpgn, err
}

// ListGamesForUser returns a page of game IDs a user participated in,
// most recent first (§6 "ListGamesForUser"); page is zero-indexed.
func (d *db) ListGamesForUser(ctx context.Context, userID string, page int) ([]int64, error) {
	if page < 0 {
		page = 0
	}
	rows, err := d.queries["select-games-for-user"].QueryContext(ctx, userID, gamesPerPage, page*gamesPerPage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateAccount registers a new user with a freshly generated secret,
// rejecting a userID already in use (§6 "CreateAccount").
func (d *db) CreateAccount(ctx context.Context, userID, displayName string) error {
	var existing string
	err := d.queries["select-account"].QueryRowContext(ctx, userID).Scan(&existing)
	switch err {
	case nil:
		return bughouse.InvalidCommandf("user %q already exists", userID)
	case sql.ErrNoRows:
		// unclaimed, proceed with registration
	default:
		return err
	}

	secret, err := randomSecret()
	if err != nil {
		return err
	}
	_, err = d.commands["insert-account"].ExecContext(ctx, userID, displayName, secret, nowUnixMs())
	return err
}

// Authenticate reports whether secret matches the stored secret for
// userID (§6 "Authenticate").
func (d *db) Authenticate(ctx context.Context, userID, secret string) (bool, error) {
	var stored string
	err := d.queries["select-account"].QueryRowContext(ctx, userID).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == secret, nil
}

func nowUnixMs() int64 { return time.Now().UnixMilli() }

func randomSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (d *db) Start() {}

func (d *db) Shutdown() {
	if err := d.write.Close(); err != nil {
		bughouse.Debug.Print(err)
	}
	if err := d.read.Close(); err != nil {
		bughouse.Debug.Print(err)
	}
}

func (*db) String() string { return "Database Manager" }

// Register opens the SQLite file named by c.Database, applies the
// teacher's durability pragmas, loads every embedded .sql file into
// either the command or the query statement map depending on its
// `select-`/other prefix, registers the resulting conf.DatabaseManager
// with c, and returns it so the caller can also hand it to
// match.NewCoordinator directly (§4.7 persistence surface).
func Register(c *conf.Conf) conf.DatabaseManager {
	read, err := sql.Open("sqlite3", c.Database)
	if err != nil {
		c.Log.Fatal(err, ": ", c.Database)
	}
	read.SetConnMaxLifetime(0)
	read.SetMaxIdleConns(1)

	write, err := sql.Open("sqlite3", c.Database)
	if err != nil {
		c.Log.Fatal(err, ": ", c.Database)
	}
	write.SetConnMaxLifetime(0)
	write.SetMaxIdleConns(1)
	write.SetMaxOpenConns(1)

	d := &db{
		read:     read,
		write:    write,
		queries:  make(map[string]*sql.Stmt),
		commands: make(map[string]*sql.Stmt),
	}

	for _, pragma := range []string{
		// https://www.sqlite.org/pragma.html#pragma_journal_mode
		"journal_mode = WAL",
		// https://www.sqlite.org/pragma.html#pragma_synchronous
		"synchronous = normal",
		// https://www.sqlite.org/pragma.html#pragma_foreign_keys
		"foreign_keys = on",
	} {
		if _, err := d.write.Exec("PRAGMA " + pragma + ";"); err != nil {
			c.Log.Fatal(err)
		}
	}

	entries, err := sqlDir.ReadDir(".")
	if err != nil {
		c.Log.Fatal(err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		base := path.Base(entry.Name())
		data, err := fs.ReadFile(sqlDir, entry.Name())
		if err != nil {
			c.Log.Fatal(err)
		}

		switch {
		case strings.HasPrefix(base, "create-"):
			if _, err := d.write.Exec(string(data)); err != nil {
				c.Log.Fatal(entry.Name(), ": ", err)
			}
			bughouse.Debug.Printf("executed schema statement %v", base)
		case strings.HasPrefix(base, "select-"):
			name := strings.TrimSuffix(base, ".sql")
			if d.queries[name], err = d.read.Prepare(string(data)); err != nil {
				c.Log.Fatal(entry.Name(), ": ", err)
			}
			bughouse.Debug.Printf("registered query %v", name)
		default:
			name := strings.TrimSuffix(base, ".sql")
			if d.commands[name], err = d.write.Prepare(string(data)); err != nil {
				c.Log.Fatal(entry.Name(), ": ", err)
			}
			bughouse.Debug.Printf("registered command %v", name)
		}
	}

	if len(d.queries) == 0 {
		panic("db: no queries loaded")
	}

	c.Register(d)
	return d
}
