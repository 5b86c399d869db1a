// Package flatten turns a record and its type declaration into one indexable document.
package flatten

import (
	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/document"
	"github.com/kailas-cloud/searchsync/internal/domain/model"
	"github.com/kailas-cloud/searchsync/internal/domain/record"
)

// Flatten builds the document for rec. Relations must already be hydrated on rec.
func Flatten(rec *record.Record, t model.Type) (*document.Document, error) {
	doc := document.New()
	doc.Set(model.IDField, rec.ID)

	for _, f := range t.Fields {
		v, err := resolve(rec, t.Name, f)
		if err != nil {
			return nil, err
		}
		doc.Set(f.Name, v)
	}

	for _, rel := range t.Relations {
		v, ok, err := project(rec, t.Name, rel)
		if err != nil {
			return nil, err
		}
		if ok {
			doc.Set(rel.Name, v)
		}
	}

	if t.IsEmbedded() {
		pid, ok := rec.ParentID()
		if !ok {
			return nil, domain.NewFieldResolutionError(t.Name, t.ForeignKeyField(), nil)
		}
		doc.Set(t.ForeignKeyField(), pid)
		doc.Set(model.ParentField, pid)
	}

	return doc, nil
}

// resolve prefers the raw attribute and falls back to the accessor.
func resolve(rec *record.Record, owner string, f model.Field) (any, error) {
	if v, ok := rec.Attribute(f.Name); ok {
		return v, nil
	}
	if f.Accessor == nil {
		return nil, domain.NewFieldResolutionError(owner, f.Name, nil)
	}
	v, err := f.Accessor(rec)
	if err != nil {
		return nil, domain.NewFieldResolutionError(owner, f.Name, err)
	}
	return v, nil
}

// project renders one relation. ok is false when nothing is related.
func project(rec *record.Record, owner string, rel model.Relation) (any, bool, error) {
	related := rec.Related(rel.Name)
	if len(related) == 0 {
		return nil, false, nil
	}

	owner = owner + "." + rel.Name
	switch rel.Kind {
	case model.ToOne:
		d, err := projectMember(&related[0], owner, rel)
		if err != nil {
			return nil, false, err
		}
		return d, true, nil
	default:
		out := make([]*document.Document, 0, len(related))
		for i := range related {
			d, err := projectMember(&related[i], owner, rel)
			if err != nil {
				return nil, false, err
			}
			out = append(out, d)
		}
		return out, true, nil
	}
}

func projectMember(rec *record.Record, owner string, rel model.Relation) (*document.Document, error) {
	d := document.New()
	switch rel.Projection() {
	case model.SingleField:
		f := rel.Fields[0]
		v, err := resolve(rec, owner, f)
		if err != nil {
			return nil, err
		}
		d.Set(f.Name, v)
	case model.MultiField:
		for _, f := range rel.Fields {
			v, err := resolve(rec, owner, f)
			if err != nil {
				return nil, err
			}
			d.Set(f.Name, v)
		}
	}
	return d, nil
}
