// Command eventdocgen writes the market event catalog from the domain
// package source and the runtime event registry.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/louisbranch/tollgate.space/internal/services/market/domain/event"
	"github.com/louisbranch/tollgate.space/internal/services/market/domain/market"
)

const domainDir = "internal/services/market/domain/market"

type eventDef struct {
	Name      string
	Value     string
	DefinedAt string
}

type payloadField struct {
	Name    string
	Type    string
	JSONTag string
}

type payloadDef struct {
	Name      string
	DefinedAt string
	Fields    []payloadField
}

// emitter is one decider call that produces an event.
type emitter struct {
	Location string
	Func     string
	Payload  string
}

type packageDefs struct {
	Events   []eventDef
	Payloads map[string]payloadDef
	Emitters map[string][]emitter
	// Folders maps an event constant to the switch case that folds it.
	Folders map[string]string
}

func main() {
	var outPath string
	var rootFlag string
	flag.StringVar(&outPath, "out", "docs/events/event-catalog.md", "output path for the catalog")
	flag.StringVar(&rootFlag, "root", "", "repo root (defaults to locating go.mod)")
	flag.Parse()

	if err := run(rootFlag, outPath); err != nil {
		fatal(err)
	}
}

func run(rootFlag, outPath string) error {
	root, err := resolveRoot(rootFlag)
	if err != nil {
		return err
	}
	output := outPath
	if !filepath.IsAbs(output) {
		output = filepath.Join(root, outPath)
	}

	defs, err := parsePackage(filepath.Join(root, domainDir), root)
	if err != nil {
		return err
	}
	_, registry, err := market.NewRegistries()
	if err != nil {
		return fmt.Errorf("build registries: %w", err)
	}
	content := renderCatalog(defs, registry)

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

func resolveRoot(flagRoot string) (string, error) {
	if flagRoot != "" {
		return filepath.Clean(flagRoot), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working dir: %w", err)
	}
	return findModuleRoot(wd)
}

func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("go.mod not found above %s", start)
}

func parsePackage(dir, root string) (packageDefs, error) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, func(info os.FileInfo) bool {
		return !strings.HasSuffix(info.Name(), "_test.go")
	}, parser.AllErrors)
	if err != nil {
		return packageDefs{}, fmt.Errorf("parse %s: %w", dir, err)
	}
	defs := packageDefs{
		Payloads: make(map[string]payloadDef),
		Emitters: make(map[string][]emitter),
		Folders:  make(map[string]string),
	}
	for _, pkg := range pkgs {
		for _, file := range pkg.Files {
			for _, decl := range file.Decls {
				switch typed := decl.(type) {
				case *ast.GenDecl:
					switch typed.Tok {
					case token.CONST:
						defs.Events = append(defs.Events, parseConstDecl(typed, fset, root)...)
					case token.TYPE:
						for _, payload := range parsePayloadDecl(typed, fset, root) {
							defs.Payloads[payload.Name] = payload
						}
					}
				case *ast.FuncDecl:
					scanFunc(typed, fset, root, &defs)
				}
			}
		}
	}
	for key := range defs.Emitters {
		sort.Slice(defs.Emitters[key], func(i, j int) bool {
			return defs.Emitters[key][i].Location < defs.Emitters[key][j].Location
		})
	}
	return defs, nil
}

// parseConstDecl collects exported EventType constants declared as
// event.Type string literals.
func parseConstDecl(decl *ast.GenDecl, fset *token.FileSet, root string) []eventDef {
	var events []eventDef
	for _, spec := range decl.Specs {
		valueSpec, ok := spec.(*ast.ValueSpec)
		if !ok || valueSpec.Type == nil {
			continue
		}
		if exprString(fset, valueSpec.Type) != "event.Type" {
			continue
		}
		for idx, name := range valueSpec.Names {
			if !strings.HasPrefix(name.Name, "EventType") {
				continue
			}
			value, ok := stringLiteral(selectValueExpr(valueSpec.Values, idx))
			if !ok {
				continue
			}
			events = append(events, eventDef{
				Name:      name.Name,
				Value:     value,
				DefinedAt: formatPosition(fset.Position(name.Pos()), root),
			})
		}
	}
	return events
}

func parsePayloadDecl(decl *ast.GenDecl, fset *token.FileSet, root string) []payloadDef {
	var payloads []payloadDef
	for _, spec := range decl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok || !strings.HasSuffix(typeSpec.Name.Name, "Payload") {
			continue
		}
		structType, ok := typeSpec.Type.(*ast.StructType)
		if !ok {
			continue
		}
		payloads = append(payloads, payloadDef{
			Name:      typeSpec.Name.Name,
			DefinedAt: formatPosition(fset.Position(typeSpec.Pos()), root),
			Fields:    parsePayloadFields(structType.Fields, fset),
		})
	}
	return payloads
}

func parsePayloadFields(fields *ast.FieldList, fset *token.FileSet) []payloadField {
	if fields == nil {
		return nil
	}
	results := make([]payloadField, 0)
	for _, field := range fields.List {
		if len(field.Names) == 0 {
			continue
		}
		typeString := exprString(fset, field.Type)
		jsonTag := ""
		if field.Tag != nil {
			if tagValue, err := strconv.Unquote(field.Tag.Value); err == nil {
				jsonTag = reflect.StructTag(tagValue).Get("json")
			}
		}
		for _, name := range field.Names {
			results = append(results, payloadField{Name: name.Name, Type: typeString, JSONTag: jsonTag})
		}
	}
	return results
}

// scanFunc records accept(cmd, EventTypeX, ..., payload, ...) calls and the
// case clauses of switches over evt.Type.
func scanFunc(fn *ast.FuncDecl, fset *token.FileSet, root string, defs *packageDefs) {
	if fn.Body == nil {
		return
	}
	decoded := decodedPayloads(fn.Body)
	ast.Inspect(fn.Body, func(node ast.Node) bool {
		switch typed := node.(type) {
		case *ast.CallExpr:
			ident, ok := typed.Fun.(*ast.Ident)
			if !ok || ident.Name != "accept" || len(typed.Args) < 5 {
				return true
			}
			eventName := identName(typed.Args[1])
			if !strings.HasPrefix(eventName, "EventType") {
				return true
			}
			defs.Emitters[eventName] = append(defs.Emitters[eventName], emitter{
				Location: formatPosition(fset.Position(typed.Pos()), root),
				Func:     fn.Name.Name,
				Payload:  payloadTypeFromExpr(typed.Args[4], decoded),
			})
		case *ast.CaseClause:
			for _, expr := range typed.List {
				eventName := identName(expr)
				if !strings.HasPrefix(eventName, "EventType") {
					continue
				}
				if _, seen := defs.Folders[eventName]; seen || fn.Name.Name != "Fold" {
					continue
				}
				defs.Folders[eventName] = formatPosition(fset.Position(expr.Pos()), root)
			}
		}
		return true
	})
}

// decodedPayloads maps local variables to the type decoded into them by
// DecodePayload[T].
func decodedPayloads(body *ast.BlockStmt) map[string]string {
	decoded := make(map[string]string)
	ast.Inspect(body, func(node ast.Node) bool {
		assign, ok := node.(*ast.AssignStmt)
		if !ok || len(assign.Lhs) == 0 || len(assign.Rhs) != 1 {
			return true
		}
		call, ok := assign.Rhs[0].(*ast.CallExpr)
		if !ok {
			return true
		}
		index, ok := call.Fun.(*ast.IndexExpr)
		if !ok {
			return true
		}
		sel, ok := index.X.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "DecodePayload" {
			return true
		}
		if target := identName(assign.Lhs[0]); target != "" {
			decoded[target] = identName(index.Index)
		}
		return true
	})
	return decoded
}

func payloadTypeFromExpr(expr ast.Expr, decoded map[string]string) string {
	switch typed := expr.(type) {
	case *ast.CompositeLit:
		return identName(typed.Type)
	case *ast.UnaryExpr:
		return payloadTypeFromExpr(typed.X, decoded)
	case *ast.Ident:
		return decoded[typed.Name]
	default:
		return ""
	}
}

func identName(expr ast.Expr) string {
	switch typed := expr.(type) {
	case *ast.Ident:
		return typed.Name
	case *ast.SelectorExpr:
		return typed.Sel.Name
	default:
		return ""
	}
}

func stringLiteral(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	value, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return value, true
}

func selectValueExpr(values []ast.Expr, index int) ast.Expr {
	if len(values) == 0 {
		return nil
	}
	if len(values) == 1 {
		return values[0]
	}
	if index < len(values) {
		return values[index]
	}
	return nil
}

func renderCatalog(defs packageDefs, registry *event.Registry) string {
	var buf bytes.Buffer
	buf.WriteString("# Event Catalog\n\n")
	buf.WriteString("Generated by `go generate ./internal/services/market/domain/market`.\n\n")

	events := append([]eventDef(nil), defs.Events...)
	sort.Slice(events, func(i, j int) bool { return events[i].Value < events[j].Value })

	usedPayloads := make(map[string]struct{})
	documented := make(map[event.Type]struct{})
	for _, evt := range events {
		documented[event.Type(evt.Value)] = struct{}{}
		fmt.Fprintf(&buf, "## `%s` (`%s`)\n", evt.Value, evt.Name)
		fmt.Fprintf(&buf, "- Defined at: `%s`\n", evt.DefinedAt)
		if def, ok := registry.Definition(event.Type(evt.Value)); ok {
			if def.EntityType != "" {
				fmt.Fprintf(&buf, "- Entity: `%s`\n", def.EntityType)
			}
		} else {
			buf.WriteString("- Registered: no\n")
		}

		emitters := defs.Emitters[evt.Name]
		payloadName := ""
		for _, e := range emitters {
			if e.Payload != "" {
				payloadName = e.Payload
				break
			}
		}
		if payload, ok := defs.Payloads[payloadName]; ok {
			usedPayloads[payloadName] = struct{}{}
			fmt.Fprintf(&buf, "- Payload: `%s` (`%s`)\n", payload.Name, payload.DefinedAt)
			if len(payload.Fields) > 0 {
				buf.WriteString("- Fields:\n")
				for _, field := range payload.Fields {
					label := field.Name
					if field.JSONTag != "" {
						label = fmt.Sprintf("%s (json:%q)", label, field.JSONTag)
					}
					fmt.Fprintf(&buf, "  - `%s`: `%s`\n", label, field.Type)
				}
			}
		} else {
			buf.WriteString("- Payload: not found\n")
		}
		if len(emitters) > 0 {
			buf.WriteString("- Emitters:\n")
			for _, e := range emitters {
				fmt.Fprintf(&buf, "  - `%s` (`%s`)\n", e.Location, e.Func)
			}
		}
		if location, ok := defs.Folders[evt.Name]; ok {
			fmt.Fprintf(&buf, "- Folded at: `%s`\n", location)
		}
		buf.WriteString("\n")
	}

	var undocumented []string
	for _, typ := range registry.Types() {
		if _, ok := documented[typ]; !ok {
			undocumented = append(undocumented, string(typ))
		}
	}
	if len(undocumented) > 0 {
		sort.Strings(undocumented)
		buf.WriteString("## Registered Without Constant\n")
		for _, typ := range undocumented {
			fmt.Fprintf(&buf, "- `%s`\n", typ)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

func exprString(fset *token.FileSet, expr ast.Expr) string {
	var buf bytes.Buffer
	_ = printer.Fprint(&buf, fset, expr)
	return buf.String()
}

func formatPosition(pos token.Position, root string) string {
	rel, err := filepath.Rel(root, pos.Filename)
	if err != nil {
		rel = pos.Filename
	}
	return fmt.Sprintf("%s:%d", filepath.ToSlash(rel), pos.Line)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
