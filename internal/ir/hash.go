package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDataSource = "sysplan/datasource/v2"
	DomainDescriptor = "sysplan/descriptor/v2"
)

// keyWriter feeds length-prefixed fields into a domain-separated SHA-256.
// Identifiers are written as their raw bytes, with no normalization, so
// the encoding is injective over byte strings: two identifiers that
// compare unequal never hash as equal inputs.
type keyWriter struct {
	h   hash.Hash
	buf [binary.MaxVarintLen64]byte
}

func newKeyWriter(domain string) *keyWriter {
	w := &keyWriter{h: sha256.New()}
	w.h.Write([]byte(domain))
	w.h.Write([]byte{0x00})
	return w
}

func (w *keyWriter) uvarint(n uint64) {
	w.h.Write(w.buf[:binary.PutUvarint(w.buf[:], n)])
}

func (w *keyWriter) str(s string) {
	w.uvarint(uint64(len(s)))
	w.h.Write([]byte(s))
}

// list writes a field tag followed by its element count and elements.
// nil and empty lists encode alike.
func list[T ~string](w *keyWriter, field string, ids []T) {
	w.str(field)
	w.uvarint(uint64(len(ids)))
	for _, id := range ids {
		w.str(string(id))
	}
}

func (w *keyWriter) sum() string {
	return hex.EncodeToString(w.h.Sum(nil))
}

func (w *keyWriter) dataSource(d Descriptor) {
	list(w, "components", d.Components)
	list(w, "with_tags", d.WithTags)
	list(w, "without_tags", d.WithoutTags)
	list(w, "with_components", d.WithComponents)
	list(w, "without_components", d.WithoutComponents)
	list(w, "predicates", d.Predicates)
}

// DataSourceKey hashes the fields of d that shape its data-source subtree:
// components, tag filters, component filters and predicates, all
// order-sensitive and compared byte for byte. Routine, kind, constructor
// arguments and position are excluded, so two well-formed descriptors have
// the same key exactly when the planner builds equivalent subtrees for
// them.
//
// The key is for diagnostics and output. The merger never relies on it in
// place of structural comparison.
func DataSourceKey(d Descriptor) string {
	w := newKeyWriter(DomainDataSource)
	w.dataSource(d)
	return w.sum()
}

// DescriptorHash hashes every planning-relevant field of d, including the
// routine, operation kind and constructor arguments. Position is excluded
// so moving a declaration within a file does not change its identity.
func DescriptorHash(d Descriptor) string {
	w := newKeyWriter(DomainDescriptor)
	w.dataSource(d)
	w.str("kind")
	w.str(string(d.Kind))
	w.str("routine")
	w.str(string(d.Routine))
	list(w, "ctor_args", d.CtorArgs)
	return w.sum()
}
