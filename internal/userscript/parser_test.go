package userscript

import (
	"strings"
	"testing"
)

const fooScript = `// ==UserScript==
// @name        Foo
// @namespace   http://example.com/
// @version     1.2
// @description Does foo things
// @match       https://*.example.com/*
// @grant       GM.getValue
// @require     lib.js
// @require     https://cdn.example.net/jquery.js
// @resource    logo http://example.com/logo.png
// @resource    css  style.css
// ==/UserScript==
console.log('foo');
`

func TestParseFullBlock(t *testing.T) {
	d, err := Parse(fooScript, "http://example.com/scripts/foo.user.js")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if d.Name != "Foo" {
		t.Errorf("Name = %q, want Foo", d.Name)
	}
	if d.Namespace != "http://example.com/" {
		t.Errorf("Namespace = %q", d.Namespace)
	}
	if d.Description != "Does foo things" {
		t.Errorf("Description = %q", d.Description)
	}

	wantRequires := []string{
		"http://example.com/scripts/lib.js",
		"https://cdn.example.net/jquery.js",
	}
	if strings.Join(d.RequireURLs, ",") != strings.Join(wantRequires, ",") {
		t.Errorf("RequireURLs = %v, want %v", d.RequireURLs, wantRequires)
	}

	if got := d.ResourceURLs["logo"]; got != "http://example.com/logo.png" {
		t.Errorf("ResourceURLs[logo] = %q", got)
	}
	if got := d.ResourceURLs["css"]; got != "http://example.com/scripts/style.css" {
		t.Errorf("ResourceURLs[css] = %q", got)
	}
	if strings.Join(d.ResourceList, ",") != "logo,css" {
		t.Errorf("ResourceList = %v", d.ResourceList)
	}

	if len(d.Matches) != 1 || len(d.Grants) != 1 {
		t.Errorf("Matches = %v, Grants = %v", d.Matches, d.Grants)
	}

	v, err := d.SemVer()
	if err != nil {
		t.Fatalf("SemVer: %v", err)
	}
	if v.String() != "1.2.0" {
		t.Errorf("SemVer = %s, want 1.2.0", v)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1.2", "1.2.0", false},
		{"v2.0.1", "2.0.1", false},
		{" 3 ", "3.0.0", false},
		{"beta", "", true},
	}
	for _, tt := range tests {
		v, err := ParseVersion(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseVersion(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseVersion(%q): %v", tt.in, err)
			continue
		}
		if v.String() != tt.want {
			t.Errorf("ParseVersion(%q) = %s, want %s", tt.in, v, tt.want)
		}
	}
}

func TestParseDefaults(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		url       string
		wantName  string
		wantSpace string
	}{
		{"flat file without block", "alert(1);", "file:///bar.user.js", "bar", ""},
		{"remote without namespace", "// ==UserScript==\n// @name Baz\n// ==/UserScript==\n", "https://example.org/x/baz.user.js", "Baz", "example.org"},
		{"first name wins", "// ==UserScript==\n// @name One\n// @name Two\n// ==/UserScript==\n", "file:///x.user.js", "One", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.content, tt.url)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if d.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", d.Name, tt.wantName)
			}
			if d.Namespace != tt.wantSpace {
				t.Errorf("Namespace = %q, want %q", d.Namespace, tt.wantSpace)
			}
		})
	}
}

func TestParseIgnoresKeysOutsideBlock(t *testing.T) {
	content := "// @require http://example.com/evil.js\n// ==UserScript==\n// @name A\n// ==/UserScript==\n// @require http://example.com/late.js\n"
	d, err := Parse(content, "file:///a.user.js")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.RequireURLs) != 0 {
		t.Errorf("RequireURLs = %v, want none", d.RequireURLs)
	}
}

func TestParseResourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing url", "// ==UserScript==\n// @resource logo\n// ==/UserScript==\n"},
		{"duplicate name", "// ==UserScript==\n// @resource a http://x/a\n// @resource a http://x/b\n// ==/UserScript==\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.content, "http://example.com/a.user.js"); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestIdentityString(t *testing.T) {
	id := Identity{Namespace: "http://example.com/", Name: "Foo"}
	if id.String() != "http://example.com//Foo" {
		t.Errorf("String() = %q", id.String())
	}
	d := &Details{Name: "Foo", Namespace: "http://example.com/"}
	if d.ID() != id {
		t.Errorf("ID() = %v, want %v", d.ID(), id)
	}
}
