// Package builtin registers the concrete language profiles mergo ships
// with: Go, JavaScript, and Python. Each profile declares the node kinds
// whose children form an unordered collection (so their merge doesn't care
// about child order) and how to key each child for duplicate-identity
// detection.
package builtin

import (
	goLang "github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/oxhq/mergo/internal/langprofile"
)

// Register adds every built-in profile to r.
func Register(r *langprofile.Registry) {
	r.Register(goProfile())
	r.Register(javascriptProfile())
	r.Register(pythonProfile())
}

func goProfile() *langprofile.Profile {
	return &langprofile.Profile{
		Name:       "go",
		Extensions: []string{".go"},
		Language:   goLang.GetLanguage(),
		CommutativeParents: []langprofile.CommutativeParent{
			langprofile.WithoutDelimiters("import_spec_list", "\n"),
		},
		Signatures: []langprofile.SignatureDefinition{
			langprofile.NewSignatureDefinition("import_spec", langprofile.Path{
				Steps: []langprofile.PathStep{langprofile.FieldStep("path")},
			}),
		},
		CommentKinds: []string{"comment"},
	}
}

func javascriptProfile() *langprofile.Profile {
	return &langprofile.Profile{
		Name:       "javascript",
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		Language:   javascript.GetLanguage(),
		CommutativeParents: []langprofile.CommutativeParent{
			langprofile.NewCommutativeParent("object", "{", ",", "}"),
			langprofile.NewCommutativeParent("named_imports", "{", ",", "}"),
		},
		Signatures: []langprofile.SignatureDefinition{
			langprofile.NewSignatureDefinition("pair", langprofile.Path{
				Steps: []langprofile.PathStep{langprofile.FieldStep("key")},
			}),
			langprofile.NewSignatureDefinition("import_specifier", langprofile.Path{
				Steps: []langprofile.PathStep{langprofile.FieldStep("name")},
			}),
		},
		CommentKinds: []string{"comment"},
	}
}

func pythonProfile() *langprofile.Profile {
	return &langprofile.Profile{
		Name:       "python",
		Extensions: []string{".py", ".pyi"},
		Language:   python.GetLanguage(),
		CommutativeParents: []langprofile.CommutativeParent{
			langprofile.NewCommutativeParent("dictionary", "{", ",", "}"),
		},
		Signatures: []langprofile.SignatureDefinition{
			langprofile.NewSignatureDefinition("pair", langprofile.Path{
				Steps: []langprofile.PathStep{langprofile.FieldStep("key")},
			}),
		},
		CommentKinds: []string{"comment"},
	}
}
