// Package appconfig owns the configuration store: the tauri.conf.json
// document the native build reads for branding, identity, and network
// endpoints. The document is held as a raw JSON tree so fields outside
// the mutation set pass through byte-for-byte semantically unchanged.
package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// Well-known paths inside the document. The native build step owns the
// schema; this tool only touches the identity and endpoint fields.
var (
	pathDevURL       = []string{"build", "devUrl"}
	pathFrontendDist = []string{"build", "frontendDist"}
	pathIcon         = []string{"bundle", "icon"}
	pathSchemes      = []string{"plugins", "deep-link", "desktop", "schemes"}
	pathEndpoints    = []string{"plugins", "updater", "endpoints"}
)

// Document is a parsed configuration store. Mutations go through typed
// setters; everything else in the tree is preserved as loaded.
type Document struct {
	tree map[string]any
}

// Parse decodes raw JSON into a Document.
func Parse(raw []byte) (*Document, error) {
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return &Document{tree: tree}, nil
}

// Load reads and parses the store at path. A missing or corrupt store is
// an ErrConfigRead.
func Load(path string) (*Document, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &StoreError{Kind: ErrConfigRead, Path: path, Err: err}
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, nil, &StoreError{Kind: ErrConfigRead, Path: path, Err: err}
	}
	return doc, raw, nil
}

// Save marshals the document and replaces the store contents in a single
// write. Failure to write is an ErrConfigWrite.
func (d *Document) Save(path string) error {
	out, err := json.MarshalIndent(d.tree, "", "  ")
	if err != nil {
		return &StoreError{Kind: ErrConfigWrite, Path: path, Err: err}
	}
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return &StoreError{Kind: ErrConfigWrite, Path: path, Err: err}
	}
	return nil
}

// ProductName returns the display name baked into the bundle.
func (d *Document) ProductName() string {
	s, _ := d.tree["productName"].(string)
	return s
}

// SetProductName overwrites the display name.
func (d *Document) SetProductName(name string) {
	d.tree["productName"] = name
}

// Identifier returns the reverse-DNS bundle identifier. It determines
// OS-level app identity: two variants must never share one, or installing
// one silently replaces the other.
func (d *Document) Identifier() string {
	s, _ := d.tree["identifier"].(string)
	return s
}

// SetIdentifier overwrites the bundle identifier.
func (d *Document) SetIdentifier(id string) {
	d.tree["identifier"] = id
}

// DevURL returns build.devUrl.
func (d *Document) DevURL() string {
	return d.stringAt(pathDevURL)
}

// SetDevURL overwrites build.devUrl.
func (d *Document) SetDevURL(url string) {
	d.setAt(pathDevURL, url)
}

// FrontendDist returns build.frontendDist, the content source consumed by
// the packaged app.
func (d *Document) FrontendDist() string {
	return d.stringAt(pathFrontendDist)
}

// SetFrontendDist overwrites build.frontendDist.
func (d *Document) SetFrontendDist(url string) {
	d.setAt(pathFrontendDist, url)
}

// Icons returns the ordered bundle.icon list.
func (d *Document) Icons() []string {
	return d.stringsAt(pathIcon)
}

// SetIcons replaces the bundle.icon list.
func (d *Document) SetIcons(icons []string) {
	d.setAt(pathIcon, toAnySlice(icons))
}

// Schemes returns the deep-link URL schemes the OS routes to the app.
func (d *Document) Schemes() []string {
	return d.stringsAt(pathSchemes)
}

// SetSchemes replaces the deep-link scheme set.
func (d *Document) SetSchemes(schemes []string) {
	d.setAt(pathSchemes, toAnySlice(schemes))
}

// UpdateEndpoints returns the updater endpoint list.
func (d *Document) UpdateEndpoints() []string {
	return d.stringsAt(pathEndpoints)
}

// SetUpdateEndpoints replaces the updater endpoint list.
func (d *Document) SetUpdateEndpoints(urls []string) {
	d.setAt(pathEndpoints, toAnySlice(urls))
}

// Version returns the top-level version field, if present.
func (d *Document) Version() string {
	s, _ := d.tree["version"].(string)
	return s
}

// stringAt walks the tree and returns the string at path, or "".
func (d *Document) stringAt(path []string) string {
	v := d.valueAt(path)
	s, _ := v.(string)
	return s
}

// stringsAt walks the tree and returns the string slice at path, or nil.
func (d *Document) stringsAt(path []string) []string {
	v, ok := d.valueAt(path).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v))
	for _, e := range v {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (d *Document) valueAt(path []string) any {
	cur := any(d.tree)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// setAt writes value at path, creating intermediate objects as needed.
func (d *Document) setAt(path []string, value any) {
	m := d.tree
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Summary returns a one-line identity description for operator output.
func (d *Document) Summary() string {
	return fmt.Sprintf("%s (%s) → %s", d.ProductName(), d.Identifier(), d.FrontendDist())
}
