package sidepost

import (
	"errors"
	"log/slog"

	"github.com/getmockd/sidepost/pkg/directive"
	"github.com/getmockd/sidepost/pkg/logging"
	"github.com/getmockd/sidepost/pkg/naming"
	"github.com/getmockd/sidepost/pkg/record"
)

// Options control one serialization.
type Options struct {
	// Sideposting enables relationships, included payloads and method
	// inference. When false only the root's own attributes are sent, every
	// declared attribute included, as a plain JSON:API serializer would.
	Sideposting bool

	// OmitAttributes drops the root attributes block, even when the root
	// has changes.
	OmitAttributes bool

	// Attributes are literal root attributes keyed by wire name. They are
	// merged over the computed attributes and win on conflict.
	Attributes map[string]any

	// Relationships is the relationships directive shorthand, compiled
	// with directive.Compile. A directive.Tree is used as is.
	Relationships any
}

// Serializer turns a record graph into a sideposting Document.
type Serializer struct {
	formatter naming.Formatter
	logger    *slog.Logger
}

// NewSerializer creates a serializer. A nil formatter selects
// naming.Default and a nil logger discards output.
func NewSerializer(formatter naming.Formatter, logger *slog.Logger) *Serializer {
	if formatter == nil {
		formatter = naming.Default()
	}
	return &Serializer{
		formatter: formatter,
		logger:    logging.Component(logger, "serializer"),
	}
}

// Formatter returns the naming formatter in use.
func (s *Serializer) Formatter() naming.Formatter { return s.formatter }

// Serialize encodes root and, with sideposting enabled, the records reached
// through opts.Relationships. The to-many members visited are recorded on
// root for Reconcile, replacing those of any earlier serialization.
//
// Serializing an unchanged graph twice yields identical documents.
func (s *Serializer) Serialize(root *record.Record, opts Options) (*Document, error) {
	if root == nil {
		return nil, errors.New("serialize: root record is nil")
	}
	if root.IsUnloaded() {
		return nil, &record.InvalidStateError{Model: root.ModelName(), Op: "serialize", Reason: "record was unloaded"}
	}

	data := &Resource{
		Type: s.formatter.TypeForModel(root.ModelName()),
		ID:   root.ID(),
	}
	doc := &Document{Data: data}

	var attrs map[string]any
	if opts.Sideposting {
		tree, err := directive.Compile(opts.Relationships)
		if err != nil {
			return nil, err
		}

		w := newWalker(s, root)
		rels, err := w.relationships(tree, root)
		if err != nil {
			return nil, err
		}
		if len(rels) > 0 {
			data.Relationships = rels
		}
		if len(w.included) > 0 {
			doc.Included = w.included
		}
		// A new root referenced from its own graph carries its temp-id so
		// the linkage resolves to the primary data.
		if w.linksRoot && root.IsNew() {
			data.TempID = root.TempID()
		}
		root.SetJustSaved(w.visits)
		attrs = s.changedAttributes(root)
	} else {
		root.ClearJustSaved()
		attrs = s.allAttributes(root)
	}

	for k, v := range opts.Attributes {
		attrs[k] = v
	}
	if !opts.OmitAttributes && len(attrs) > 0 {
		data.Attributes = attrs
	}

	s.logger.Debug("serialized record",
		"type", data.Type,
		"id", data.ID,
		"sideposting", opts.Sideposting,
		"relationships", len(data.Relationships),
		"included", len(doc.Included),
	)
	return doc, nil
}
