package appconfig

import (
	"github.com/cushion-app/cushion-build/internal/variant"
)

// Transformer mutates the configuration store for a resolved variant.
// The store path is injected rather than ambient: it is the rendezvous
// between this tool and the native build step.
type Transformer struct {
	StorePath string
	Backups   *BackupStore
}

// NewTransformer wires a transformer and its backup store for the given
// configuration store path.
func NewTransformer(storePath string) *Transformer {
	return &Transformer{
		StorePath: storePath,
		Backups:   NewBackupStore(storePath),
	}
}

// Apply loads the store, captures the baseline backup if this is the
// first mutating run on the checkout, applies the variant's field
// overrides in memory, and persists the document in a single write.
// There are no partial writes: any failure leaves the store as it was.
func (t *Transformer) Apply(v variant.Variant) (*Document, error) {
	doc, raw, err := Load(t.StorePath)
	if err != nil {
		return nil, err
	}

	// Backup before any mutation so the untouched baseline survives.
	if err := t.Backups.EnsureBaseline(raw); err != nil {
		return nil, err
	}

	mutate(doc, v)

	if err := doc.Save(t.StorePath); err != nil {
		return nil, err
	}
	return doc, nil
}

// mutate applies the variant table to the in-memory document. Test only
// repoints the content source at the local dev server and leaves the
// identity fields alone.
func mutate(doc *Document, v variant.Variant) {
	if v == variant.Test {
		doc.SetFrontendDist(variant.DevServerURL)
		return
	}

	p, ok := variant.ProfileFor(v)
	if !ok {
		return
	}
	doc.SetProductName(p.ProductName)
	doc.SetIdentifier(p.Identifier)
	doc.SetDevURL(p.DevURL)
	doc.SetFrontendDist(p.FrontendDist)
	doc.SetIcons(p.Icons)
	doc.SetSchemes(p.Schemes)
	doc.SetUpdateEndpoints([]string{p.UpdateEndpoint})
}
