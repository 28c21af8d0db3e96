// Copyright (c) 2021, 2022  Philip Kaludercic
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
	"strings"
	"testing"
)

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	c, err := load(new(noopReader))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != defaultConfig.Proto.Port {
		t.Fatalf("Port = %d, want default %d", c.Port, defaultConfig.Proto.Port)
	}
	if c.Database != defaultConfig.Database.File {
		t.Fatalf("Database = %q, want default %q", c.Database, defaultConfig.Database.File)
	}
	if c.DefaultRules.DropAggression.String() != "no-restrictions" {
		t.Fatalf("DropAggression = %v, want no-restrictions", c.DefaultRules.DropAggression)
	}
}

func TestLoadOverridesOnlyFieldsPresentInDocument(t *testing.T) {
	doc := `
[proto]
port = 9999

[rules]
fischer = true
duck = true
`
	c, err := load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 9999 {
		t.Fatalf("Port = %d, want 9999", c.Port)
	}
	if c.Database != defaultConfig.Database.File {
		t.Fatalf("Database should keep its default when the document omits [database], got %q", c.Database)
	}
	if !c.DefaultRules.StartPos.Fischer || !c.DefaultRules.Duck {
		t.Fatalf("expected fischer and duck rules to be set from the document, got %+v", c.DefaultRules)
	}
}

func TestDumpLoadRoundTrip(t *testing.T) {
	c, err := load(new(noopReader))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Port = 4242
	c.DefaultRules.Accolade = true

	var buf strings.Builder
	if err := c.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	back, err := load(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("load(Dump output): %v\n--- dumped ---\n%s", err, buf.String())
	}
	if back.Port != c.Port {
		t.Fatalf("round-tripped Port = %d, want %d", back.Port, c.Port)
	}
	if back.DefaultRules.Accolade != true {
		t.Fatalf("round-tripped Accolade rule was lost")
	}
}
