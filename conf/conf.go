// Configuration specification and defaults
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

package conf

import (
	"context"
	"flag"
	"log"
	"time"

	"bughouse"
)

func init() {
	def := &defaultConfig

	flag.UintVar(&def.Proto.Port, "port", def.Proto.Port,
		"Port to listen on for WebSocket and HTTP traffic")
	flag.StringVar(&def.Database.File, "db", def.Database.File,
		"File to use for the SQLite database")
	flag.UintVar(&def.Match.CountdownSeconds, "countdown", def.Match.CountdownSeconds,
		"Seconds of ready-check countdown before a game starts")
	flag.UintVar(&def.Match.ReconnectBufferSeconds, "reconnect-window", def.Match.ReconnectBufferSeconds,
		"Seconds of ServerEvent history kept for hot reconnection")
	flag.UintVar(&def.Match.ReapAfterSeconds, "reap-after", def.Match.ReapAfterSeconds,
		"Seconds an empty archived match is kept before being reaped")

	flag.BoolVar(&debug, "debug", debug, "Enable debug output")
	flag.BoolVar(&dump, "dump-config", dump, "Dump configuration to standard output")
	flag.StringVar(&cfile, "conf", cfile, "Path to configuration file")
}

// DatabaseConf names the SQLite file backing the persistence layer
// (§A.3, §6 persistence surface).
type DatabaseConf struct {
	File string `toml:"file"`
}

// ProtoConf configures the single listening socket that serves both
// the WebSocket game traffic and the HTTP archive/export endpoints
// (§4.7, §6 "server listens on one TCP port").
type ProtoConf struct {
	Port    uint          `toml:"port"`
	Timeout time.Duration `toml:"timeout"`
}

// RulesConf is the default Rules new matches are created with, unless
// a NewMatch ClientEvent overrides them (§2 Rules, §A.3).
type RulesConf struct {
	Fischer        bool   `toml:"fischer"`
	Accolade       bool   `toml:"accolade"`
	Duck           bool   `toml:"duck"`
	Fog            bool   `toml:"fog"`
	Koedem         bool   `toml:"koedem"`
	DropRankMin    int8   `toml:"drop_rank_min"`
	DropRankMax    int8   `toml:"drop_rank_max"`
	DropAggression string `toml:"drop_aggression"`
	InitialTime    time.Duration `toml:"initial_time"`
	Increment      time.Duration `toml:"increment"`
	BonusOnOpponentMove time.Duration `toml:"bonus_on_opponent_move"`
	Rated          bool   `toml:"rated"`
}

// MatchConf carries the MatchCoordinator timing parameters spec.md
// §4.5-§4.7 names but never gives the teacher's Kalah config a reason
// to express: countdown length, hot-reconnect replay buffer, and the
// empty-match reap timeout.
type MatchConf struct {
	CountdownSeconds        uint `toml:"countdown_seconds"`
	ReconnectBufferSeconds  uint `toml:"reconnect_buffer_seconds"`
	ReapAfterSeconds        uint `toml:"reap_after_seconds"`
}

// Conf is the internal TOML-decoded representation, mirrored onto the
// public Conf struct below by Load.
type conf struct {
	Database DatabaseConf `toml:"database"`
	Proto    ProtoConf    `toml:"proto"`
	Rules    RulesConf    `toml:"rules"`
	Match    MatchConf    `toml:"match"`
}

var defaultConfig = conf{
	Proto: ProtoConf{
		Port:    14361,
		Timeout: 20 * time.Second,
	},
	Database: DatabaseConf{
		File: "bughouse.db",
	},
	Rules: RulesConf{
		DropRankMin:         1,
		DropRankMax:         6,
		DropAggression:      "no-restrictions",
		InitialTime:         5 * time.Minute,
		BonusOnOpponentMove: 2 * time.Second,
		Rated:               true,
	},
	Match: MatchConf{
		CountdownSeconds:       5,
		ReconnectBufferSeconds: 300,
		ReapAfterSeconds:       120,
	},
}

var (
	debug  = false
	dump   = false
	cfile  = "bughouse.toml"
)

// Conf is the public, ready-to-use configuration object threaded
// through every package; it mirrors the teacher's split between raw
// TOML shape (conf) and a runtime-convenient shape (Conf) (§A.3).
type Conf struct {
	Log   *log.Logger
	Debug *log.Logger
	Ctx   context.Context
	Kill  context.CancelFunc

	Port           uint
	ConnTimeout    time.Duration
	Database       string

	DefaultRules bughouse.Rules

	CountdownPeriod   time.Duration
	ReconnectBuffer   time.Duration
	ReapAfter         time.Duration

	man []Manager
	run bool
}

func dropAggressionFromString(s string) bughouse.DropAggression {
	switch s {
	case "no-check":
		return bughouse.NoCheck
	case "no-chess-mate":
		return bughouse.NoChessMate
	case "no-bughouse-mate":
		return bughouse.NoBughouseMate
	default:
		return bughouse.NoRestrictions
	}
}

func dropAggressionToString(d bughouse.DropAggression) string {
	return d.String()
}
