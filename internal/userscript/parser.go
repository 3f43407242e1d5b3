package userscript

import (
	"bufio"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	blockStart = "// ==UserScript=="
	blockEnd   = "// ==/UserScript=="
)

var metaLine = regexp.MustCompile(`^//\s*@(\S+)(?:\s+(.*))?$`)

// Details is the parsed metadata of a user script.
type Details struct {
	Name         string
	Namespace    string
	Version      string
	Description  string
	DownloadURL  string
	Grants       []string
	Includes     []string
	Excludes     []string
	Matches      []string
	RequireURLs  []string          // absolute, in declaration order
	ResourceURLs map[string]string // resource name -> absolute URL
	ResourceList []string          // resource names, in declaration order
}

// ID returns the identity of the script.
func (d *Details) ID() Identity {
	return Identity{Namespace: d.Namespace, Name: d.Name}
}

// SemVer parses Version leniently (e.g., "1.2" is accepted).
func (d *Details) SemVer() (*semver.Version, error) {
	return ParseVersion(d.Version)
}

// ParseVersion parses a @version value leniently, accepting a "v" prefix.
func ParseVersion(v string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(v), "v"))
}

// Parse reads the metadata block of content. scriptURL is where the script
// was (or will be) downloaded from; relative @require and @resource URLs
// resolve against it, and it supplies the default name and namespace.
func Parse(content, scriptURL string) (*Details, error) {
	base, err := url.Parse(scriptURL)
	if err != nil {
		return nil, fmt.Errorf("parsing script URL %q: %w", scriptURL, err)
	}

	d := &Details{
		DownloadURL:  scriptURL,
		ResourceURLs: make(map[string]string),
	}

	inBlock := false
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inBlock {
			if line == blockStart {
				inBlock = true
			}
			continue
		}
		if line == blockEnd {
			break
		}

		m := metaLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := m[1], strings.TrimSpace(m[2])
		if err := d.apply(key, value, base); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script metadata: %w", err)
	}

	if d.Name == "" {
		d.Name = defaultName(base)
	}
	if d.Namespace == "" {
		d.Namespace = base.Host
	}
	return d, nil
}

func (d *Details) apply(key, value string, base *url.URL) error {
	switch key {
	case "name":
		if d.Name == "" {
			d.Name = value
		}
	case "namespace":
		if d.Namespace == "" {
			d.Namespace = value
		}
	case "version":
		d.Version = value
	case "description":
		d.Description = value
	case "grant":
		d.Grants = append(d.Grants, value)
	case "include":
		d.Includes = append(d.Includes, value)
	case "exclude":
		d.Excludes = append(d.Excludes, value)
	case "match":
		d.Matches = append(d.Matches, value)
	case "require":
		if value == "" {
			return nil
		}
		abs, err := resolve(base, value)
		if err != nil {
			return fmt.Errorf("@require %q: %w", value, err)
		}
		d.RequireURLs = append(d.RequireURLs, abs)
	case "resource":
		name, ref, ok := strings.Cut(value, " ")
		ref = strings.TrimSpace(ref)
		if !ok || ref == "" {
			return fmt.Errorf("@resource %q: want \"<name> <url>\"", value)
		}
		if _, dup := d.ResourceURLs[name]; dup {
			return fmt.Errorf("@resource %q declared twice", name)
		}
		abs, err := resolve(base, ref)
		if err != nil {
			return fmt.Errorf("@resource %q: %w", name, err)
		}
		d.ResourceURLs[name] = abs
		d.ResourceList = append(d.ResourceList, name)
	}
	return nil
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

// defaultName derives a script name from its URL: ".../foo.user.js" -> "foo".
func defaultName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return u.String()
	}
	name = strings.TrimSuffix(name, ".user.js")
	return strings.TrimSuffix(name, ".js")
}
