package ast

import (
	"marrow/internal/source"
	"marrow/internal/token"
)

// AnnotationKind discriminates the closed set of annotation forms.
type AnnotationKind uint8

const (
	// AnnWord is a bare identifier: #[inline].
	AnnWord AnnotationKind = iota
	// AnnKeyValue is identifier = literal: #[doc = "..."].
	AnnKeyValue
	// AnnList is identifier(list of annotations): #[derive(Clone, From!)].
	AnnList
	// AnnMacro is a macro invocation: #[name!] or #[name!(tokens)].
	AnnMacro
)

func (k AnnotationKind) String() string {
	switch k {
	case AnnWord:
		return "word"
	case AnnKeyValue:
		return "key-value"
	case AnnList:
		return "list"
	case AnnMacro:
		return "macro"
	}
	return "unknown"
}

// Annotation is one entry of a declaration's annotation sequence. Exactly
// the fields selected by Kind are meaningful; everything else stays zero.
type Annotation struct {
	Kind AnnotationKind
	Name string
	Span source.Span

	// Value is the literal token of an AnnKeyValue.
	Value token.Token
	// Items are the nested annotations of an AnnList.
	Items []Annotation
	// Arg is the delimited argument group of an AnnMacro. A nil Arg means
	// the invocation was written without a group (`name!`); default
	// elaboration to `()` happens at expansion time, not here.
	Arg *token.Tree
}

// IsMacro reports whether the annotation requires the macro executor.
func (a Annotation) IsMacro() bool { return a.Kind == AnnMacro }

// Clone deep-copies the annotation, including nested lists and the macro
// argument tree. Expansion re-attaches annotation prefixes to several output
// declarations; each output must own independent annotation state.
func (a Annotation) Clone() Annotation {
	if len(a.Items) > 0 {
		items := make([]Annotation, len(a.Items))
		for i := range a.Items {
			items[i] = a.Items[i].Clone()
		}
		a.Items = items
	}
	if a.Arg != nil {
		arg := a.Arg.Clone()
		a.Arg = &arg
	}
	return a
}

// CloneAnnotations deep-copies an annotation sequence.
func CloneAnnotations(anns []Annotation) []Annotation {
	if anns == nil {
		return nil
	}
	out := make([]Annotation, len(anns))
	for i := range anns {
		out[i] = anns[i].Clone()
	}
	return out
}

// HasMacro reports whether any annotation in the sequence is a macro
// invocation.
func HasMacro(anns []Annotation) bool {
	for i := range anns {
		if anns[i].IsMacro() {
			return true
		}
	}
	return false
}

// FirstMacro returns the index of the leftmost macro-invocation annotation,
// or -1 when the sequence is expansion-complete.
func FirstMacro(anns []Annotation) int {
	for i := range anns {
		if anns[i].IsMacro() {
			return i
		}
	}
	return -1
}
