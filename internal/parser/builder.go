package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/models"
)

// globalNamespace owns declarations that appear outside any namespace.
const globalNamespace = "(global)"

// BuildResult is the graph extracted from one batch of source units.
// Nodes and edges are sorted, so building the same batch twice yields
// byte-identical output.
type BuildResult struct {
	Nodes  []models.CodeNode  `json:"nodes"`
	Edges  []models.Edge      `json:"edges"`
	Failed []models.ParseError `json:"failed,omitempty"`
}

// Builder parses source units into the code knowledge graph.
type Builder struct {
	log *logrus.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(log *logrus.Logger) *Builder {
	return &Builder{log: log}
}

// methodDecl carries a parsed method through the second pass.
type methodDecl struct {
	id     string
	class  string
	ast    *sitter.Node
	source []byte
}

// symbolTable indexes batch-wide declarations for call-site resolution.
type symbolTable struct {
	classes map[string][]string            // class name -> class node IDs
	methods map[string][]string            // method name -> method node IDs
	byClass map[string]map[string]string   // class node ID -> method name -> method node ID
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		classes: make(map[string][]string),
		methods: make(map[string][]string),
		byClass: make(map[string]map[string]string),
	}
}

// Build parses all units and emits the node and edge sets. A unit that
// fails to parse is skipped and reported in Failed; it never aborts the
// batch. Unresolvable call sites are dropped silently.
func (b *Builder) Build(ctx context.Context, units []models.SourceUnit) (*BuildResult, error) {
	result := &BuildResult{}
	symbols := newSymbolTable()
	nodeByID := make(map[string]models.CodeNode)
	edgeSet := make(map[models.Edge]struct{})

	var methods []methodDecl

	// Pass 1: register every declaration across the batch.
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		source := []byte(unit.Content)

		root, err := parse(ctx, source)
		if err != nil {
			b.log.WithFields(logrus.Fields{"path": unit.Path, "error": err}).Warn("skipping unparseable source unit")
			result.Failed = append(result.Failed, models.ParseError{Path: unit.Path, Reason: err.Error()})

			continue
		}

		methods = append(methods, b.collectDeclarations(unit.Path, root, source, symbols, nodeByID, edgeSet)...)
	}

	// Pass 2: resolve call sites against the completed symbol table.
	for _, m := range methods {
		b.resolveUsages(m, symbols, edgeSet)
	}

	for _, n := range nodeByID {
		result.Nodes = append(result.Nodes, n)
	}

	for e := range edgeSet {
		result.Edges = append(result.Edges, e)
	}

	models.SortNodes(result.Nodes)
	models.SortEdges(result.Edges)

	return result, nil
}

// collectDeclarations walks one unit's AST, emitting namespace, class, and
// method nodes plus their contains edges, and returns the methods for the
// resolution pass.
func (b *Builder) collectDeclarations(
	path string,
	root *sitter.Node,
	source []byte,
	symbols *symbolTable,
	nodeByID map[string]models.CodeNode,
	edgeSet map[models.Edge]struct{},
) []methodDecl {
	var methods []methodDecl

	classNodes := findNodes(root, "class_declaration", "struct_declaration")
	for _, cls := range classNodes {
		className := fieldText(cls, "name", source)
		if className == "" {
			continue
		}

		namespace := enclosingNamespace(cls, source)
		nsID := models.NodeID(namespace, "", "")

		if _, ok := nodeByID[nsID]; !ok {
			nodeByID[nsID] = models.CodeNode{
				ID:        nsID,
				Kind:      models.KindNamespace,
				Name:      namespace,
				Namespace: namespace,
			}
		}

		classID := models.NodeID(namespace, className, "")
		nodeByID[classID] = models.CodeNode{
			ID:        classID,
			Kind:      models.KindClass,
			Name:      className,
			Namespace: namespace,
			Class:     className,
			FilePath:  path,
			StartLine: int(cls.StartPoint().Row) + 1,
			EndLine:   int(cls.EndPoint().Row) + 1,
			Signature: signatureText(cls, source),
			Doc:       leadingComment(cls, source),
		}
		symbols.classes[className] = append(symbols.classes[className], classID)
		symbols.byClass[classID] = make(map[string]string)
		edgeSet[models.Edge{Source: nsID, Target: classID, Relation: models.RelationContains}] = struct{}{}

		body := cls.ChildByFieldName("body")
		if body == nil {
			continue
		}

		for _, m := range findNodes(body, "method_declaration") {
			methodName := fieldText(m, "name", source)
			if methodName == "" {
				continue
			}

			methodID := models.NodeID(namespace, className, methodName)
			nodeByID[methodID] = models.CodeNode{
				ID:        methodID,
				Kind:      models.KindMethod,
				Name:      methodName,
				Namespace: namespace,
				Class:     className,
				FilePath:  path,
				StartLine: int(m.StartPoint().Row) + 1,
				EndLine:   int(m.EndPoint().Row) + 1,
				Signature: signatureText(m, source),
				Doc:       leadingComment(m, source),
				Source:    m.Content(source),
			}
			symbols.methods[methodName] = append(symbols.methods[methodName], methodID)
			symbols.byClass[classID][methodName] = methodID
			edgeSet[models.Edge{Source: classID, Target: methodID, Relation: models.RelationContains}] = struct{}{}

			methods = append(methods, methodDecl{id: methodID, class: classID, ast: m, source: source})
		}
	}

	return methods
}

// enclosingNamespace finds the namespace declaration containing n.
func enclosingNamespace(n *sitter.Node, source []byte) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "namespace_declaration", "file_scoped_namespace_declaration":
			if name := fieldText(p, "name", source); name != "" {
				return name
			}
		}
	}

	return globalNamespace
}

// resolveUsages emits calls edges for invocation sites and references
// edges for type usages inside one method body. Identifiers that resolve
// to nothing, or ambiguously, are dropped.
func (b *Builder) resolveUsages(m methodDecl, symbols *symbolTable, edgeSet map[models.Edge]struct{}) {
	body := m.ast.ChildByFieldName("body")
	if body == nil {
		return
	}

	for _, inv := range findNodes(body, "invocation_expression") {
		fn := inv.ChildByFieldName("function")
		if fn == nil {
			continue
		}

		var target string

		switch fn.Type() {
		case "identifier":
			target = symbols.resolveMethod(m.class, fn.Content(m.source), "")
		case "member_access_expression":
			receiver := fieldText(fn, "expression", m.source)
			name := fieldText(fn, "name", m.source)
			target = symbols.resolveMethod(m.class, name, receiver)

			// A static receiver is also a reference to the class itself.
			if classID := symbols.resolveClass(receiver); classID != "" && classID != m.class {
				edgeSet[models.Edge{Source: m.id, Target: classID, Relation: models.RelationReferences}] = struct{}{}
			}
		}

		if target != "" && target != m.id {
			edgeSet[models.Edge{Source: m.id, Target: target, Relation: models.RelationCalls}] = struct{}{}
		}
	}

	for _, obj := range findNodes(body, "object_creation_expression") {
		typeName := fieldText(obj, "type", m.source)

		if classID := symbols.resolveClass(typeName); classID != "" && classID != m.class {
			edgeSet[models.Edge{Source: m.id, Target: classID, Relation: models.RelationReferences}] = struct{}{}
		}
	}
}

// resolveMethod resolves a call site to a method node ID. Resolution
// order: a receiver naming a known class wins, then the caller's own
// class, then a batch-wide unique name match. Anything else drops.
func (s *symbolTable) resolveMethod(callerClass, name, receiver string) string {
	if name == "" {
		return ""
	}

	if receiver != "" {
		if classID := s.resolveClass(receiver); classID != "" {
			return s.byClass[classID][name]
		}
	}

	if id, ok := s.byClass[callerClass][name]; ok && receiver == "" {
		return id
	}

	if ids := s.methods[name]; len(ids) == 1 {
		return ids[0]
	}

	return ""
}

// resolveClass resolves a name to a class node ID when unambiguous.
func (s *symbolTable) resolveClass(name string) string {
	if ids := s.classes[name]; len(ids) == 1 {
		return ids[0]
	}

	return ""
}
