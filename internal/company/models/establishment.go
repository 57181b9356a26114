package models

import "slices"

// Identity field names. Identity is fixed at creation and never updated.
const (
	FieldSiret = "siret"
	FieldSiren = "siren"
	FieldNic   = "nic"
)

// SurrogateKeyField is the internal key some stores add to documents. It is
// stripped before records leave the store layer.
const SurrogateKeyField = "_id"

// Establishment is one physical business establishment.
//
// Invariants (checked by the service on creation, see IsConsistent):
//   - Siret is Siren followed by Nic zero-padded to five digits
//   - Siret renders to at most 14 digits
//   - Siret, Siren and Nic are never modified after creation
type Establishment struct {
	Siret int64 `json:"siret"`
	Siren int64 `json:"siren"`
	Nic   int64 `json:"nic"`
	Attributes
}

// Document is the store-neutral shape of a record: field name to value. Values
// are int64 for identity fields and strings for attributes when written by this
// service; bulk-loaded or cached documents may hold other scalar types.
type Document map[string]any

// AttributeFields returns the attribute names in canonical order.
func AttributeFields() []string {
	return slices.Clone(attributeFields)
}

// Fields returns every record field in canonical order, identity first.
func Fields() []string {
	return append([]string{FieldSiret, FieldSiren, FieldNic}, attributeFields...)
}

var knownFields = func() map[string]struct{} {
	set := make(map[string]struct{}, len(attributeFields)+3)
	for _, f := range Fields() {
		set[f] = struct{}{}
	}
	return set
}()

// IsField reports whether name is part of the record schema.
func IsField(name string) bool {
	_, ok := knownFields[name]
	return ok
}

// IsIdentityField reports whether name is siret, siren or nic.
func IsIdentityField(name string) bool {
	return name == FieldSiret || name == FieldSiren || name == FieldNic
}

// ToDocument flattens the establishment into a document with every field set.
func (e *Establishment) ToDocument() Document {
	doc := make(Document, len(attributeFields)+3)
	doc[FieldSiret] = e.Siret
	doc[FieldSiren] = e.Siren
	doc[FieldNic] = e.Nic
	for k, v := range e.Attributes.ToMap() {
		doc[k] = v
	}
	return doc
}

// Clone returns a shallow copy without the surrogate key.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if k == SurrogateKeyField {
			continue
		}
		out[k] = v
	}
	return out
}

// ChangeKind names a mutation applied through the CRUD protocol.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "company.created"
	ChangeUpdated ChangeKind = "company.updated"
	ChangeDeleted ChangeKind = "company.deleted"
)

// ChangeEvent describes one applied mutation. Attributes is empty for deletions.
type ChangeEvent struct {
	Kind       ChangeKind        `json:"kind"`
	Siret      int64             `json:"siret"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
