// Package langprofile holds the declarative, process-wide, per-language
// settings that influence how merging is done: atomic node kinds,
// commutative-parent descriptors, and signature definitions. It is
// deliberately data-only (no AST dependency beyond the grammar handle
// itself) so that it can be imported by every other stage without creating
// import cycles.
package langprofile

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Profile is the immutable, language-dependent settings bundle.
type Profile struct {
	// Name identifies the language (e.g. "json", "rust", "go").
	Name string
	// Extensions are the file extensions recognized for this language,
	// including the leading dot, lower-case.
	Extensions []string
	// Language is the tree-sitter grammar handle.
	Language *sitter.Language
	// AtomicNodes lists grammar kinds which should be treated as leaves
	// (never descended into) even though tree-sitter reports children.
	AtomicNodes []string
	// CommutativeParents lists node kinds whose child order is
	// insignificant.
	CommutativeParents []CommutativeParent
	// Signatures lists how to extract an identity for children of a
	// commutative parent, to detect duplicate-key conflicts.
	Signatures []SignatureDefinition
	// CommentKinds lists grammar kinds that represent comments.
	CommentKinds []string
	// InjectionQuery is an optional tree-sitter query marking subtrees that
	// should be re-parsed under a different language profile. The query
	// must have an "injection.content" capture and an "injection.language"
	// capture (the injected language's name, read from that node's own
	// source). Empty means no injections for this language.
	InjectionQuery string

	registry *Registry
}

// CommutativeParent declares that the children of a node kind may be
// reordered without semantic effect (e.g. JSON object pairs, Rust `use`
// import lists).
type CommutativeParent struct {
	ParentType string
	// Separator is inserted between children when re-emitting a
	// commutatively-merged list (e.g. ",").
	Separator string
	// LeftDelim/RightDelim optionally bound the children list (e.g. "{"
	// and "}"); empty string means no delimiter.
	LeftDelim  string
	RightDelim string
	// ChildrenGroups restricts which kinds of children may commute
	// together; empty means no restriction.
	ChildrenGroups []ChildrenGroup
}

// WithoutDelimiters builds a CommutativeParent with no left/right
// delimiters, matching CommutativeParent::without_delimiters in the
// original profile data.
func WithoutDelimiters(parentType, separator string) CommutativeParent {
	return CommutativeParent{ParentType: parentType, Separator: separator}
}

// NewCommutativeParent builds a CommutativeParent with both delimiters.
func NewCommutativeParent(parentType, leftDelim, separator, rightDelim string) CommutativeParent {
	return CommutativeParent{
		ParentType: parentType,
		Separator:  separator,
		LeftDelim:  leftDelim,
		RightDelim: rightDelim,
	}
}

// WithLeftDelimiter builds a CommutativeParent with only a left delimiter.
func WithLeftDelimiter(parentType, leftDelim, separator string) CommutativeParent {
	return CommutativeParent{ParentType: parentType, Separator: separator, LeftDelim: leftDelim}
}

// RestrictedToGroups returns a copy of cp restricted to the given groups.
func (cp CommutativeParent) RestrictedToGroups(groups ...[]string) CommutativeParent {
	out := cp
	out.ChildrenGroups = make([]ChildrenGroup, 0, len(groups))
	for _, g := range groups {
		out.ChildrenGroups = append(out.ChildrenGroups, NewChildrenGroup(g))
	}
	return out
}

// ChildrenCanCommute reports whether a set of node kinds are all allowed to
// commute together, per the declared children groups (if any).
func (cp CommutativeParent) ChildrenCanCommute(kinds map[string]struct{}) bool {
	if len(cp.ChildrenGroups) == 0 {
		return true
	}
	for _, group := range cp.ChildrenGroups {
		if group.IsSuperset(kinds) {
			return true
		}
	}
	return false
}

// ChildrenGroup is a set of node kinds which are allowed to commute
// together under a CommutativeParent that restricts commutation.
type ChildrenGroup struct {
	NodeTypes map[string]struct{}
}

// NewChildrenGroup builds a ChildrenGroup from a list of grammar kinds.
func NewChildrenGroup(types []string) ChildrenGroup {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return ChildrenGroup{NodeTypes: set}
}

// IsSuperset reports whether every kind in kinds is a member of the group.
func (g ChildrenGroup) IsSuperset(kinds map[string]struct{}) bool {
	for k := range kinds {
		if _, ok := g.NodeTypes[k]; !ok {
			return false
		}
	}
	return true
}

// PathStepKind distinguishes the two ways a signature path can select
// children of a node.
type PathStepKind int

const (
	// StepField selects all children reachable via a given field name.
	StepField PathStepKind = iota
	// StepChildKind selects all children of a given grammar kind.
	StepChildKind
)

// PathStep is one hop of a signature extraction path.
type PathStep struct {
	Kind  PathStepKind
	Value string
}

// FieldStep builds a PathStep selecting children by field name.
func FieldStep(name string) PathStep { return PathStep{Kind: StepField, Value: name} }

// ChildKindStep builds a PathStep selecting children by grammar kind.
func ChildKindStep(kind string) PathStep { return PathStep{Kind: StepChildKind, Value: kind} }

// Path is a sequence of steps whose terminal nodes, concatenated, form part
// of a child's identity within a commutative parent.
type Path struct {
	Steps []PathStep
}

// SignatureDefinition declares how to compute the identity of children of a
// given node kind, to detect duplicate-key conflicts under a commutative
// parent (e.g. the "key" path of a JSON pair, or the "module path" of a Rust
// use-declaration).
type SignatureDefinition struct {
	NodeType string
	Paths    []Path
}

// NewSignatureDefinition is a small convenience constructor.
func NewSignatureDefinition(nodeType string, paths ...Path) SignatureDefinition {
	return SignatureDefinition{NodeType: nodeType, Paths: paths}
}

// GetCommutativeParent returns the commutative-parent descriptor for a
// grammar kind, if any.
func (p *Profile) GetCommutativeParent(grammarType string) (CommutativeParent, bool) {
	for _, cp := range p.CommutativeParents {
		if cp.ParentType == grammarType {
			return cp, true
		}
	}
	return CommutativeParent{}, false
}

// FindSignatureDefinition returns the signature definition for a grammar
// kind, if any.
func (p *Profile) FindSignatureDefinition(grammarType string) (SignatureDefinition, bool) {
	for _, sd := range p.Signatures {
		if sd.NodeType == grammarType {
			return sd, true
		}
	}
	return SignatureDefinition{}, false
}

// IsAtomicNodeType reports whether a grammar kind should be treated as a
// leaf regardless of what tree-sitter reports.
func (p *Profile) IsAtomicNodeType(nodeType string) bool {
	for _, t := range p.AtomicNodes {
		if t == nodeType {
			return true
		}
	}
	return false
}

// IsCommentKind reports whether a grammar kind represents a comment.
func (p *Profile) IsCommentKind(nodeType string) bool {
	for _, t := range p.CommentKinds {
		if t == nodeType {
			return true
		}
	}
	return false
}

// Registry is a process-wide catalog of language profiles: a name- and
// extension-indexed lookup table. It has no internal locking: Register
// writes its maps without synchronization.
type Registry struct {
	byName map[string]*Profile
	byExt  map[string]*Profile
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Profile),
		byExt:  make(map[string]*Profile),
	}
}

// Register adds a profile to the registry, indexing it by name and by every
// declared extension (lower-cased, leading dot normalized), overwriting any
// prior registration for the same name.
func (r *Registry) Register(p *Profile) {
	if p == nil || p.Name == "" {
		return
	}
	p.registry = r
	r.byName[strings.ToLower(p.Name)] = p
	for _, ext := range p.Extensions {
		r.byExt[normalizeExt(ext)] = p
	}
}

// ResolveInjected looks up another profile registered alongside this one by
// name, for use when honoring an injection query's "injection.language"
// capture. Returns ok=false if this profile was never added to a registry
// (e.g. constructed standalone in a test), or no profile is registered
// under that name.
func (p *Profile) ResolveInjected(name string) (*Profile, bool) {
	if p.registry == nil {
		return nil, false
	}
	return p.registry.ByName(name)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ByName looks up a profile by its declared name, case-insensitively.
func (r *Registry) ByName(name string) (*Profile, bool) {
	p, ok := r.byName[strings.ToLower(name)]
	return p, ok
}

// DetectFromFilename detects a profile from a file's extension,
// case-insensitively, mirroring LangProfile::detect_from_filename.
func (r *Registry) DetectFromFilename(filename string) (*Profile, bool) {
	ext := filepath.Ext(filename)
	if ext == "" {
		return nil, false
	}
	p, ok := r.byExt[normalizeExt(ext)]
	return p, ok
}

// FindByFilenameOrName resolves a profile, preferring an explicit language
// override (by name) and falling back to extension-based detection,
// matching LangProfile::find_by_filename_or_name.
func (r *Registry) FindByFilenameOrName(filename, explicit string) (*Profile, bool) {
	if explicit != "" {
		return r.ByName(explicit)
	}
	return r.DetectFromFilename(filename)
}
