package fingerprint

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/docdrift/docdrift/pkg/parser"
)

// ParseError reports a file whose syntax tree contains errors. The file is
// skipped rather than fingerprinted from a broken tree.
type ParseError struct {
	Path string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax errors in %s", e.Path)
}

// FileResult holds every fingerprint extracted from one source file.
type FileResult struct {
	Path       string                 `json:"path"`
	SourceHash string                 `json:"source_hash"`
	Functions  map[string]Fingerprint `json:"functions"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// SourceHash is a fast content hash used to detect untouched files without
// re-fingerprinting them.
func SourceHash(source []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(source))
}

// ExtractFile fingerprints every function in a parsed file. Functions are
// keyed by their identity key; when two definitions collide on the same
// key the later one wins and a warning is recorded.
func ExtractFile(result *parser.ParseResult) (*FileResult, error) {
	root := result.Tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{Path: result.Path}
	}

	fr := &FileResult{
		Path:       NormalizePath(result.Path),
		SourceHash: SourceHash(result.Source),
		Functions:  map[string]Fingerprint{},
	}

	collectFunctions(root, result.Source, fr, nil)
	return fr, nil
}

// collectFunctions walks definitions recursively, carrying the enclosing
// class chain. Functions nested inside other functions keep only the class
// chain in their qualifier, so hoisting a helper out of its parent does
// not change its identity.
func collectFunctions(node *sitter.Node, source []byte, fr *FileResult, classChain []string) {
	for _, child := range parser.NamedChildren(node) {
		switch child.Type() {
		case "function_definition":
			addFunction(child, source, fr, classChain)
			collectFunctions(child.ChildByFieldName("body"), source, fr, classChain)
		case "class_definition":
			name := parser.GetNodeText(child.ChildByFieldName("name"), source)
			collectFunctions(child.ChildByFieldName("body"), source, fr, append(classChain, name))
		case "decorated_definition":
			collectFunctions(child, source, fr, classChain)
		}
	}
}

func addFunction(fn *sitter.Node, source []byte, fr *FileResult, classChain []string) {
	name := parser.GetNodeText(fn.ChildByFieldName("name"), source)
	id := NewIdentity(fr.Path, classChain, name)
	key := id.Key()

	if _, exists := fr.Functions[key]; exists {
		fr.Warnings = append(fr.Warnings, fmt.Sprintf("duplicate definition of %s, keeping the last one", key))
	}

	views := ExtractViews(fn, source, classChain)
	digests := BuildDigests(views, ConditionCore(fn, source), BranchCategories(views.ControlFlow))

	fr.Functions[key] = Fingerprint{
		Identity: id,
		Public:   id.Public(),
		Views:    views,
		Digests:  digests,
	}
}
