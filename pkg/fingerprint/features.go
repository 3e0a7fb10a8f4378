package fingerprint

import (
	"sort"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/docdrift/docdrift/pkg/parser"
)

// FeatureKind names one of the seven semantic feature views.
type FeatureKind string

const (
	FeatureSignature   FeatureKind = "signature"
	FeatureControlFlow FeatureKind = "control_flow"
	FeatureConditions  FeatureKind = "conditions"
	FeatureCalls       FeatureKind = "calls"
	FeatureSideEffects FeatureKind = "side_effects"
	FeatureExceptions  FeatureKind = "exceptions"
	FeatureReturns     FeatureKind = "returns"
)

// FeatureKinds lists all seven feature views in their fixed digest order.
func FeatureKinds() []FeatureKind {
	return []FeatureKind{
		FeatureSignature,
		FeatureControlFlow,
		FeatureConditions,
		FeatureCalls,
		FeatureSideEffects,
		FeatureExceptions,
		FeatureReturns,
	}
}

// Param describes one parameter in a function signature.
type Param struct {
	Name       string `json:"name"`
	Kind       string `json:"kind,omitempty"` // "" positional, "*" variadic, "**" keyword-variadic
	Annotation string `json:"annotation,omitempty"`
	HasDefault bool   `json:"has_default,omitempty"`
}

// SignatureView is the canonical form of a function's callable contract.
type SignatureView struct {
	Name       string   `json:"name"`
	Params     []Param  `json:"params"`
	Defaults   []string `json:"defaults,omitempty"`
	Return     string   `json:"return,omitempty"`
	Decorators []string `json:"decorators,omitempty"`
	Public     bool     `json:"public"`
}

// ControlFlowView captures the shape of control constructs: a depth-bounded
// nesting skeleton plus per-construct counts.
type ControlFlowView struct {
	Skeleton string `json:"skeleton"`
	If       int    `json:"if"`
	Elif     int    `json:"elif"`
	Else     int    `json:"else"`
	For      int    `json:"for"`
	While    int    `json:"while"`
	Try      int    `json:"try"`
	Match    int    `json:"match"`
	Returns  int    `json:"returns"`
}

// ConditionsView is the sorted set of canonicalized boolean-test expressions.
type ConditionsView struct {
	Tests []string `json:"tests"`
}

// CallsView is the sorted multiset of invoked callee names.
type CallsView struct {
	Names []string `json:"names"`
}

// SideEffectsView classifies calls and statements that touch external state.
type SideEffectsView struct {
	DB       []string `json:"db,omitempty"`
	File     []string `json:"file,omitempty"`
	Network  []string `json:"network,omitempty"`
	Auth     []string `json:"auth,omitempty"`
	Mutation []string `json:"mutation,omitempty"`
}

// ExceptionsView captures raised and handled exception types.
type ExceptionsView struct {
	Raises      []string `json:"raises,omitempty"`
	Handles     []string `json:"handles,omitempty"`
	BareHandler bool     `json:"bare_handler,omitempty"`
}

// ReturnsView is the sorted set of distinct return-expression shapes.
type ReturnsView struct {
	Shapes []string `json:"shapes"`
}

// Views bundles all seven canonical feature views of one function.
type Views struct {
	Signature   SignatureView   `json:"signature"`
	ControlFlow ControlFlowView `json:"control_flow"`
	Conditions  ConditionsView  `json:"conditions"`
	Calls       CallsView       `json:"calls"`
	SideEffects SideEffectsView `json:"side_effects"`
	Exceptions  ExceptionsView  `json:"exceptions"`
	Returns     ReturnsView     `json:"returns"`
}

// Keyword tables classifying call names into side-effect categories.
// Carried over from the reference ruleset.
var (
	dbKeywords = keywordSet(
		"execute", "executemany", "commit", "rollback", "cursor",
		"query", "fetchone", "fetchall", "fetchmany",
		"insert", "update", "delete", "create_engine", "session",
	)
	fileKeywords = keywordSet(
		"open", "read", "write", "close", "readlines", "writelines",
		"readline", "seek", "truncate", "flush", "mkdir", "makedirs",
		"remove", "unlink", "rename", "rmdir", "rmtree", "copyfile",
		"pathlib",
	)
	networkKeywords = keywordSet(
		"get", "post", "put", "patch", "delete", "head", "options",
		"request", "urlopen", "fetch", "send", "recv", "connect",
		"socket", "requests", "httpx", "aiohttp", "urllib",
	)
	authKeywords = keywordSet(
		"login", "logout", "authenticate", "authorize", "auth",
		"check_auth", "verify_auth", "permission", "permissions",
		"check_permission", "has_perm", "is_authenticated", "token", "jwt",
		"verify_token", "hash_password", "check_password", "set_password",
		"create_user",
	)
)

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

const maxSkeletonDepth = 6

// ExtractViews derives the seven feature views from a function_definition
// node. The leading docstring of the body is ignored so that docstring-only
// edits are invisible to every view.
func ExtractViews(fn *sitter.Node, source []byte, classChain []string) Views {
	body := fn.ChildByFieldName("body")
	stmts := bodyStatements(body, source)

	return Views{
		Signature:   extractSignature(fn, source),
		ControlFlow: extractControlFlow(stmts, source),
		Conditions:  extractConditions(stmts, source),
		Calls:       extractCalls(stmts, source),
		SideEffects: extractSideEffects(stmts, source),
		Exceptions:  extractExceptions(stmts, source),
		Returns:     extractReturns(stmts, source),
	}
}

// bodyStatements returns the statements of a block, skipping comments and
// a leading docstring.
func bodyStatements(body *sitter.Node, source []byte) []*sitter.Node {
	if body == nil {
		return nil
	}
	stmts := make([]*sitter.Node, 0, body.NamedChildCount())
	for _, child := range parser.NamedChildren(body) {
		if child.Type() == "comment" {
			continue
		}
		stmts = append(stmts, child)
	}
	if len(stmts) > 0 && isDocstring(stmts[0]) {
		stmts = stmts[1:]
	}
	return stmts
}

func isDocstring(stmt *sitter.Node) bool {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return false
	}
	return stmt.NamedChild(0).Type() == "string"
}

// walkStatements walks every node under the given statements.
func walkStatements(stmts []*sitter.Node, source []byte, visitor parser.NodeVisitor) {
	for _, stmt := range stmts {
		parser.Walk(stmt, source, visitor)
	}
}

// --- signature ---

func extractSignature(fn *sitter.Node, source []byte) SignatureView {
	name := parser.GetNodeText(fn.ChildByFieldName("name"), source)

	view := SignatureView{
		Name:   name,
		Params: []Param{},
		Public: !strings.HasPrefix(name, "_"),
	}

	if ret := fn.ChildByFieldName("return_type"); ret != nil {
		view.Return = canonicalExpr(ret, source, true)
	}
	view.Decorators = decoratorNames(fn, source)

	params := fn.ChildByFieldName("parameters")
	for _, p := range parser.NamedChildren(params) {
		switch p.Type() {
		case "identifier":
			view.Params = append(view.Params, Param{Name: parser.GetNodeText(p, source)})
		case "typed_parameter":
			prm := Param{Annotation: canonicalExpr(p.ChildByFieldName("type"), source, true)}
			// The parameter name is the first non-type child; it may carry
			// a splat marker for *args/**kwargs.
			for _, c := range parser.NamedChildren(p) {
				switch c.Type() {
				case "identifier":
					prm.Name = parser.GetNodeText(c, source)
				case "list_splat_pattern":
					prm.Kind = "*"
					prm.Name = splatName(c, source)
				case "dictionary_splat_pattern":
					prm.Kind = "**"
					prm.Name = splatName(c, source)
				}
			}
			view.Params = append(view.Params, prm)
		case "default_parameter":
			view.Params = append(view.Params, Param{
				Name:       parser.GetNodeText(p.ChildByFieldName("name"), source),
				HasDefault: true,
			})
			view.Defaults = append(view.Defaults, canonicalExpr(p.ChildByFieldName("value"), source, true))
		case "typed_default_parameter":
			view.Params = append(view.Params, Param{
				Name:       parser.GetNodeText(p.ChildByFieldName("name"), source),
				Annotation: canonicalExpr(p.ChildByFieldName("type"), source, true),
				HasDefault: true,
			})
			view.Defaults = append(view.Defaults, canonicalExpr(p.ChildByFieldName("value"), source, true))
		case "list_splat_pattern":
			view.Params = append(view.Params, Param{Name: splatName(p, source), Kind: "*"})
		case "dictionary_splat_pattern":
			view.Params = append(view.Params, Param{Name: splatName(p, source), Kind: "**"})
		}
	}

	return view
}

func splatName(n *sitter.Node, source []byte) string {
	for _, c := range parser.NamedChildren(n) {
		if c.Type() == "identifier" {
			return parser.GetNodeText(c, source)
		}
	}
	return parser.GetNodeText(n, source)
}

// decoratorNames collects decorator expressions from an enclosing
// decorated_definition, if any.
func decoratorNames(fn *sitter.Node, source []byte) []string {
	parent := fn.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return nil
	}
	var names []string
	for _, c := range parser.NamedChildren(parent) {
		if c.Type() == "decorator" {
			for _, expr := range parser.NamedChildren(c) {
				names = append(names, canonicalExpr(expr, source, true))
			}
		}
	}
	return names
}

// --- control flow ---

func extractControlFlow(stmts []*sitter.Node, source []byte) ControlFlowView {
	view := ControlFlowView{
		Skeleton: skeleton(stmts, source, 0),
	}

	walkStatements(stmts, source, func(node *sitter.Node, _ []byte) bool {
		switch node.Type() {
		case "if_statement":
			view.If++
		case "elif_clause":
			view.Elif++
		case "else_clause":
			view.Else++
		case "for_statement":
			view.For++
		case "while_statement":
			view.While++
		case "try_statement":
			view.Try++
		case "match_statement":
			view.Match++
		case "return_statement":
			view.Returns++
		}
		return true
	})

	return view
}

// skeleton renders the nesting structure of control constructs, bounded in
// depth so that deeply nested bodies collapse to "...".
func skeleton(stmts []*sitter.Node, source []byte, depth int) string {
	if depth >= maxSkeletonDepth {
		return "..."
	}

	var parts []string
	for _, stmt := range stmts {
		kind := branchKind(stmt)
		if kind == "" {
			continue
		}
		inner := skeletonChildren(stmt, source, depth+1)
		if inner != "" {
			parts = append(parts, kind+"("+inner+")")
		} else {
			parts = append(parts, kind)
		}
	}
	return strings.Join(parts, ",")
}

func skeletonChildren(stmt *sitter.Node, source []byte, depth int) string {
	var parts []string
	for _, c := range parser.NamedChildren(stmt) {
		switch c.Type() {
		case "block":
			if s := skeleton(bodyStatements(c, source), source, depth); s != "" {
				parts = append(parts, s)
			}
		case "elif_clause", "else_clause", "except_clause", "finally_clause", "case_clause":
			kind := clauseKind(c.Type())
			inner := skeletonChildren(c, source, depth)
			if inner != "" {
				parts = append(parts, kind+"("+inner+")")
			} else {
				parts = append(parts, kind)
			}
		}
	}
	return strings.Join(parts, ",")
}

func branchKind(stmt *sitter.Node) string {
	switch stmt.Type() {
	case "if_statement":
		return "if"
	case "for_statement":
		return "for"
	case "while_statement":
		return "while"
	case "try_statement":
		return "try"
	case "match_statement":
		return "match"
	}
	return ""
}

func clauseKind(nodeType string) string {
	switch nodeType {
	case "elif_clause":
		return "elif"
	case "else_clause":
		return "else"
	case "except_clause":
		return "except"
	case "finally_clause":
		return "finally"
	case "case_clause":
		return "case"
	}
	return nodeType
}

// BranchCategories returns the sorted set of top-level control construct
// kinds in the function body. Adding or removing a whole category is the
// highest-weight control change. Only depth-zero tokens of the skeleton
// count; nested constructs live inside parens.
func BranchCategories(views ControlFlowView) []string {
	seen := map[string]bool{}
	depth := 0
	var token strings.Builder
	flush := func() {
		if kind := token.String(); kind != "" && kind != "..." {
			seen[kind] = true
		}
		token.Reset()
	}
	for _, r := range views.Skeleton {
		switch r {
		case '(':
			if depth == 0 {
				flush()
			}
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				flush()
			}
		default:
			if depth == 0 {
				token.WriteRune(r)
			}
		}
	}
	flush()

	cats := make([]string, 0, len(seen))
	for k := range seen {
		cats = append(cats, k)
	}
	sort.Strings(cats)
	return cats
}

// --- conditions ---

func extractConditions(stmts []*sitter.Node, source []byte) ConditionsView {
	return ConditionsView{Tests: conditionTests(stmts, source, true)}
}

func conditionTests(stmts []*sitter.Node, source []byte, keepLiterals bool) []string {
	tests := []string{}
	walkStatements(stmts, source, func(node *sitter.Node, _ []byte) bool {
		switch node.Type() {
		case "if_statement", "elif_clause", "while_statement":
			if cond := node.ChildByFieldName("condition"); cond != nil {
				tests = append(tests, canonicalExpr(cond, source, keepLiterals))
			}
		case "conditional_expression":
			// Ternary: value if TEST else other. The test is the middle
			// named child.
			if node.NamedChildCount() == 3 {
				tests = append(tests, canonicalExpr(node.NamedChild(1), source, keepLiterals))
			}
		}
		return true
	})
	sort.Strings(tests)
	return tests
}

// ConditionCore reproduces the conditions view with literal values reduced
// to kind markers, so that a literal-only tweak is distinguishable from a
// structural condition change.
func ConditionCore(fn *sitter.Node, source []byte) ConditionsView {
	stmts := bodyStatements(fn.ChildByFieldName("body"), source)
	return ConditionsView{Tests: conditionTests(stmts, source, false)}
}

// --- calls ---

func extractCalls(stmts []*sitter.Node, source []byte) CallsView {
	names := []string{}
	walkStatements(stmts, source, func(node *sitter.Node, _ []byte) bool {
		if node.Type() == "call" {
			names = append(names, resolveCallName(node, source))
		}
		return true
	})
	sort.Strings(names)
	return CallsView{Names: names}
}

// resolveCallName renders a call's callee as a dotted name string.
func resolveCallName(call *sitter.Node, source []byte) string {
	fn := call.ChildByFieldName("function")
	return dottedName(fn, source)
}

func dottedName(node *sitter.Node, source []byte) string {
	if node == nil {
		return "<unknown>"
	}
	switch node.Type() {
	case "identifier":
		return parser.GetNodeText(node, source)
	case "attribute":
		obj := dottedName(node.ChildByFieldName("object"), source)
		attr := parser.GetNodeText(node.ChildByFieldName("attribute"), source)
		return obj + "." + attr
	case "call":
		// Chained calls: f(x).g keeps the attribute chain only.
		return dottedName(node.ChildByFieldName("function"), source)
	default:
		return "<unknown>"
	}
}

// --- side effects ---

func extractSideEffects(stmts []*sitter.Node, source []byte) SideEffectsView {
	view := SideEffectsView{}

	walkStatements(stmts, source, func(node *sitter.Node, _ []byte) bool {
		switch node.Type() {
		case "call":
			name := resolveCallName(node, source)
			if matchesKeywords(name, dbKeywords) {
				view.DB = append(view.DB, name)
			}
			if matchesKeywords(name, fileKeywords) {
				view.File = append(view.File, name)
			}
			if matchesKeywords(name, networkKeywords) {
				view.Network = append(view.Network, name)
			}
			if matchesKeywords(name, authKeywords) {
				view.Auth = append(view.Auth, name)
			}
		case "global_statement", "nonlocal_statement":
			view.Mutation = append(view.Mutation, canonicalExpr(node, source, true))
		}
		return true
	})

	sort.Strings(view.DB)
	sort.Strings(view.File)
	sort.Strings(view.Network)
	sort.Strings(view.Auth)
	sort.Strings(view.Mutation)
	return view
}

// matchesKeywords reports whether any dotted segment of a call name is in
// the keyword set.
func matchesKeywords(name string, keywords map[string]struct{}) bool {
	for _, part := range strings.Split(strings.ToLower(name), ".") {
		if _, ok := keywords[part]; ok {
			return true
		}
	}
	return false
}

// --- exceptions ---

func extractExceptions(stmts []*sitter.Node, source []byte) ExceptionsView {
	view := ExceptionsView{}

	walkStatements(stmts, source, func(node *sitter.Node, _ []byte) bool {
		switch node.Type() {
		case "raise_statement":
			view.Raises = append(view.Raises, raisedType(node, source))
		case "except_clause":
			types, bare := handledTypes(node, source)
			if bare {
				view.BareHandler = true
			}
			view.Handles = append(view.Handles, types...)
		}
		return true
	})

	sort.Strings(view.Raises)
	sort.Strings(view.Handles)
	return view
}

func raisedType(raise *sitter.Node, source []byte) string {
	for _, c := range parser.NamedChildren(raise) {
		switch c.Type() {
		case "call":
			return resolveCallName(c, source)
		case "identifier", "attribute":
			return dottedName(c, source)
		case "comment":
			continue
		default:
			return canonicalExpr(c, source, true)
		}
	}
	return "re-raise"
}

func handledTypes(clause *sitter.Node, source []byte) ([]string, bool) {
	var types []string
	for _, c := range parser.NamedChildren(clause) {
		switch c.Type() {
		case "block", "comment":
			continue
		case "as_pattern":
			// except ValueError as e
			if c.NamedChildCount() > 0 {
				types = append(types, exceptionTypeNames(c.NamedChild(0), source)...)
			}
		default:
			types = append(types, exceptionTypeNames(c, source)...)
		}
	}
	return types, len(types) == 0
}

func exceptionTypeNames(node *sitter.Node, source []byte) []string {
	switch node.Type() {
	case "tuple":
		var names []string
		for _, elt := range parser.NamedChildren(node) {
			names = append(names, exceptionTypeNames(elt, source)...)
		}
		return names
	case "identifier", "attribute":
		return []string{dottedName(node, source)}
	default:
		return []string{canonicalExpr(node, source, true)}
	}
}

// --- returns ---

func extractReturns(stmts []*sitter.Node, source []byte) ReturnsView {
	seen := map[string]bool{}

	walkStatements(stmts, source, func(node *sitter.Node, _ []byte) bool {
		if node.Type() != "return_statement" {
			return true
		}
		shape := "none"
		if node.NamedChildCount() > 0 {
			shape = returnShape(node.NamedChild(0))
		}
		seen[shape] = true
		return true
	})

	shapes := make([]string, 0, len(seen))
	for s := range seen {
		shapes = append(shapes, s)
	}
	sort.Strings(shapes)
	return ReturnsView{Shapes: shapes}
}

func returnShape(expr *sitter.Node) string {
	switch expr.Type() {
	case "none":
		return "none"
	case "integer", "float", "string", "true", "false":
		return "literal"
	case "identifier":
		return "name"
	case "call":
		return "call"
	default:
		return "complex"
	}
}

// --- canonical expression rendering ---

// canonicalExpr renders an expression subtree into a canonical string that
// is independent of whitespace, comments, and literal formatting. With
// keepLiterals false, literal values are replaced by kind markers.
func canonicalExpr(node *sitter.Node, source []byte, keepLiterals bool) string {
	if node == nil {
		return ""
	}

	switch node.Type() {
	case "comment":
		return ""
	case "string":
		if !keepLiterals {
			return "STR"
		}
		return `"` + stringContent(node, source) + `"`
	case "integer":
		if !keepLiterals {
			return "NUM"
		}
		text := parser.GetNodeText(node, source)
		if v, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64); err == nil {
			return strconv.FormatInt(v, 10)
		}
		return text
	case "float":
		if !keepLiterals {
			return "NUM"
		}
		text := parser.GetNodeText(node, source)
		if v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err == nil {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
		return text
	case "true", "false":
		if !keepLiterals {
			return "BOOL"
		}
		return node.Type()
	case "none":
		if !keepLiterals {
			return "NONE"
		}
		return "None"
	case "attribute":
		return dottedName(node, source)
	}

	if node.ChildCount() == 0 {
		return parser.GetNodeText(node, source)
	}

	var parts []string
	for i := range int(node.ChildCount()) {
		if s := canonicalExpr(node.Child(i), source, keepLiterals); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// stringContent concatenates the content fragments of a string node,
// ignoring quote style and prefix characters.
func stringContent(node *sitter.Node, source []byte) string {
	var sb strings.Builder
	parser.Walk(node, source, func(n *sitter.Node, _ []byte) bool {
		switch n.Type() {
		case "string_content", "escape_sequence":
			sb.WriteString(parser.GetNodeText(n, source))
			return false
		case "interpolation":
			sb.WriteString("{" + canonicalExpr(n.NamedChild(0), source, true) + "}")
			return false
		}
		return true
	})
	return sb.String()
}
