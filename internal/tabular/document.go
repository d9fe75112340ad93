// Package tabular reads and writes tabular model files (model.bim) and
// provides the in-memory Repository the batch operations mutate.
//
// A Document keeps the raw JSON of every object it decodes. Saving writes
// back only the properties leapmodel owns (names, expressions, folders,
// format strings, visibility, lineage tags) and leaves everything else,
// including key order, as it was.
package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a decoded model file.
type Document struct {
	root  *object
	model *object
	// Path is the file the document was loaded from, if any.
	Path string

	core   *core.Model
	tables []*tableNode
	bom    bool
}

type tableNode struct {
	obj      *object
	table    *core.Table
	measures map[*core.Measure]*measureNode
	group    *object
	items    map[*core.CalculationItem]*itemNode
}

type measureNode struct {
	obj  *object
	expr text
}

type itemNode struct {
	obj        *object
	expr       text
	format     *object
	formatExpr text
}

// Load reads a model file from disk.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes a model document. Both a database object ({"model": {...}})
// and a bare model object ({"tables": [...]}) are accepted.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	if bytes.HasPrefix(data, utf8BOM) {
		doc.bom = true
		data = data[len(utf8BOM):]
	}

	doc.root = newObject()
	if err := json.Unmarshal(data, doc.root); err != nil {
		return nil, err
	}

	name, err := doc.root.getString("name")
	if err != nil {
		return nil, err
	}
	doc.model = doc.root
	if doc.root.has("model") {
		doc.model = newObject()
		if err := doc.root.get("model", doc.model); err != nil {
			return nil, err
		}
	}
	if name == "" {
		if name, err = doc.model.getString("name"); err != nil {
			return nil, err
		}
	}
	doc.core = &core.Model{Name: name}

	var tables []*object
	if err := doc.model.get("tables", &tables); err != nil {
		return nil, err
	}
	for i, obj := range tables {
		node, err := decodeTable(obj)
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
		doc.tables = append(doc.tables, node)
		doc.core.Tables = append(doc.core.Tables, node.table)
	}
	return doc, nil
}

// Model returns the object model decoded from the document. Mutations made
// to it (directly or through a Repository) are written by Save and Encode.
func (d *Document) Model() *core.Model {
	return d.core
}

// Raw returns the document as generic JSON values, reflecting pending
// changes.
func (d *Document) Raw() (any, error) {
	var buf bytes.Buffer
	if err := d.encode(&buf, ""); err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(buf.Bytes(), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Encode writes the document as tab-indented JSON.
func (d *Document) Encode(w io.Writer) error {
	return d.encode(w, "\t")
}

// Save writes the document back to path. An empty path uses Document.Path.
func (d *Document) Save(path string) error {
	if path == "" {
		path = d.Path
	}
	if path == "" {
		return fmt.Errorf("no output path for model document")
	}

	var buf bytes.Buffer
	if d.bom {
		buf.Write(utf8BOM)
	}
	if err := d.Encode(&buf); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace model file: %w", err)
	}
	return nil
}

func (d *Document) encode(w io.Writer, indent string) error {
	if err := d.sync(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	return enc.Encode(d.root)
}

func decodeTable(obj *object) (*tableNode, error) {
	node := &tableNode{
		obj:      obj,
		measures: make(map[*core.Measure]*measureNode),
		items:    make(map[*core.CalculationItem]*itemNode),
	}
	t := &core.Table{}
	node.table = t

	var err error
	if t.Name, err = obj.getString("name"); err != nil {
		return nil, err
	}

	var columns []struct {
		Name         string `json:"name"`
		DataType     string `json:"dataType"`
		SourceColumn string `json:"sourceColumn"`
	}
	if err := obj.get("columns", &columns); err != nil {
		return nil, err
	}
	for _, c := range columns {
		t.Columns = append(t.Columns, &core.Column{Name: c.Name, DataType: c.DataType, SourceColumn: c.SourceColumn})
	}

	var measures []*object
	if err := obj.get("measures", &measures); err != nil {
		return nil, err
	}
	for _, mo := range measures {
		m, mn, err := decodeMeasure(t.Name, mo)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Name, err)
		}
		t.Measures = append(t.Measures, m)
		node.measures[m] = mn
	}

	if obj.has("calculationGroup") {
		node.group = newObject()
		if err := obj.get("calculationGroup", node.group); err != nil {
			return nil, err
		}
		group := &core.CalculationGroup{}
		if err := node.group.get("precedence", &group.Precedence); err != nil {
			return nil, err
		}
		var items []*object
		if err := node.group.get("calculationItems", &items); err != nil {
			return nil, err
		}
		for _, itemObj := range items {
			item, in, err := decodeItem(itemObj)
			if err != nil {
				return nil, fmt.Errorf("table %q: %w", t.Name, err)
			}
			group.Items = append(group.Items, item)
			node.items[item] = in
		}
		t.CalculationGroup = group
	}
	return node, nil
}

func decodeMeasure(table string, obj *object) (*core.Measure, *measureNode, error) {
	m := &core.Measure{Table: table}
	node := &measureNode{obj: obj}

	var err error
	if m.Name, err = obj.getString("name"); err != nil {
		return nil, nil, err
	}
	if err := obj.get("expression", &node.expr); err != nil {
		return nil, nil, fmt.Errorf("measure %q: %w", m.Name, err)
	}
	m.Expression = node.expr.value
	if m.DisplayFolder, err = obj.getString("displayFolder"); err != nil {
		return nil, nil, err
	}
	if m.FormatString, err = obj.getString("formatString"); err != nil {
		return nil, nil, err
	}
	if err := obj.get("isHidden", &m.IsHidden); err != nil {
		return nil, nil, err
	}
	if m.LineageTag, err = obj.getString("lineageTag"); err != nil {
		return nil, nil, err
	}
	return m, node, nil
}

func decodeItem(obj *object) (*core.CalculationItem, *itemNode, error) {
	item := &core.CalculationItem{}
	node := &itemNode{obj: obj}

	var err error
	if item.Name, err = obj.getString("name"); err != nil {
		return nil, nil, err
	}
	if err := obj.get("expression", &node.expr); err != nil {
		return nil, nil, fmt.Errorf("calculation item %q: %w", item.Name, err)
	}
	item.Expression = node.expr.value
	if err := obj.get("ordinal", &item.Ordinal); err != nil {
		return nil, nil, err
	}
	if obj.has("formatStringDefinition") {
		node.format = newObject()
		if err := obj.get("formatStringDefinition", node.format); err != nil {
			return nil, nil, err
		}
		if err := node.format.get("expression", &node.formatExpr); err != nil {
			return nil, nil, fmt.Errorf("calculation item %q: %w", item.Name, err)
		}
		item.FormatStringExpression = node.formatExpr.value
	}
	return item, node, nil
}

// sync writes the object model back into the raw JSON tree.
func (d *Document) sync() error {
	tables := make([]*object, 0, len(d.tables))
	for _, node := range d.tables {
		if err := node.sync(); err != nil {
			return fmt.Errorf("table %q: %w", node.table.Name, err)
		}
		tables = append(tables, node.obj)
	}
	if d.model.has("tables") || len(tables) > 0 {
		if err := d.model.set("tables", tables); err != nil {
			return err
		}
	}
	if d.model != d.root {
		return d.root.set("model", d.model)
	}
	return nil
}

func (n *tableNode) sync() error {
	t := n.table

	measures := make([]*object, 0, len(t.Measures))
	live := make(map[*core.Measure]bool, len(t.Measures))
	for _, m := range t.Measures {
		mn, ok := n.measures[m]
		if !ok {
			mn = &measureNode{obj: newObject()}
			n.measures[m] = mn
		}
		if err := mn.sync(m); err != nil {
			return fmt.Errorf("measure %q: %w", m.Name, err)
		}
		measures = append(measures, mn.obj)
		live[m] = true
	}
	for m := range n.measures {
		if !live[m] {
			delete(n.measures, m)
		}
	}
	if len(measures) > 0 || n.obj.has("measures") {
		if len(measures) == 0 {
			n.obj.del("measures")
		} else if err := n.obj.set("measures", measures); err != nil {
			return err
		}
	}

	if n.group == nil || t.CalculationGroup == nil {
		return nil
	}
	items := make([]*object, 0, len(t.CalculationGroup.Items))
	for _, item := range t.CalculationGroup.Items {
		in, ok := n.items[item]
		if !ok {
			in = &itemNode{obj: newObject()}
			n.items[item] = in
		}
		if err := in.sync(item); err != nil {
			return fmt.Errorf("calculation item %q: %w", item.Name, err)
		}
		items = append(items, in.obj)
	}
	if err := n.group.set("calculationItems", items); err != nil {
		return err
	}
	return n.obj.set("calculationGroup", n.group)
}

func (n *measureNode) sync(m *core.Measure) error {
	o := n.obj
	if err := o.set("name", m.Name); err != nil {
		return err
	}
	n.expr.value = m.Expression
	if err := o.set("expression", n.expr); err != nil {
		return err
	}
	if err := o.setOrDelete("formatString", m.FormatString); err != nil {
		return err
	}
	// An explicit false in the source file is kept.
	if m.IsHidden || o.has("isHidden") {
		if err := o.set("isHidden", m.IsHidden); err != nil {
			return err
		}
	}
	if err := o.setOrDelete("displayFolder", m.DisplayFolder); err != nil {
		return err
	}
	return o.setOrDelete("lineageTag", m.LineageTag)
}

func (n *itemNode) sync(item *core.CalculationItem) error {
	o := n.obj
	if err := o.set("name", item.Name); err != nil {
		return err
	}
	n.expr.value = item.Expression
	if err := o.set("expression", n.expr); err != nil {
		return err
	}
	if item.FormatStringExpression == "" && n.format == nil {
		return nil
	}
	if n.format == nil {
		n.format = newObject()
	}
	n.formatExpr.value = item.FormatStringExpression
	if err := n.format.set("expression", n.formatExpr); err != nil {
		return err
	}
	return o.set("formatStringDefinition", n.format)
}
