package parser

import (
	"fmt"

	"marrow/internal/ast"
	"marrow/internal/diag"
	"marrow/internal/token"
)

// Annotation grammar:
//
//	annotation := identifier ( '=' literal
//	                         | '(' annotation_list ')'
//	                         | '!' delimited_group? )?
//
// A trailing '!' without a group is valid here; default elaboration to an
// empty `()` argument is the expander's job.

// parseOuterAnnotations consumes a run of `#[annotation]` entries.
func (p *Parser) parseOuterAnnotations() ([]ast.Annotation, bool) {
	var anns []ast.Annotation
	for p.at(token.Hash) {
		if p.peek().Kind == token.Bang {
			diag.ReportError(p.reporter, diag.SynInnerAnnotationPlace, p.cur().Span,
				"inner annotation is only allowed at the head of a container body")
			return nil, false
		}
		ann, ok := p.parseBracketedAnnotation(false)
		if !ok {
			return nil, false
		}
		anns = append(anns, ann)
	}
	return anns, true
}

// parseInnerAnnotations consumes a run of `#![annotation]` entries at the
// head of a container body.
func (p *Parser) parseInnerAnnotations() ([]ast.Annotation, bool) {
	var anns []ast.Annotation
	for p.at(token.Hash) && p.peek().Kind == token.Bang {
		ann, ok := p.parseBracketedAnnotation(true)
		if !ok {
			return nil, false
		}
		anns = append(anns, ann)
	}
	return anns, true
}

func (p *Parser) parseBracketedAnnotation(inner bool) (ast.Annotation, bool) {
	hash := p.bump() // '#'
	if inner {
		p.bump() // '!'
	}
	if _, ok := p.expect(token.LBracket, diag.SynUnexpectedToken, "'['"); !ok {
		return ast.Annotation{}, false
	}
	ann, ok := p.parseAnnotation()
	if !ok {
		return ast.Annotation{}, false
	}
	closing, ok := p.expect(token.RBracket, diag.SynExpectAnnotationClose, "']'")
	if !ok {
		return ast.Annotation{}, false
	}
	ann.Span = hash.Span.Cover(closing.Span)
	return ann, true
}

// parseAnnotation parses one annotation per the grammar above.
func (p *Parser) parseAnnotation() (ast.Annotation, bool) {
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "annotation name")
	if !ok {
		return ast.Annotation{}, false
	}
	ann := ast.Annotation{Kind: ast.AnnWord, Name: name.Text, Span: name.Span}

	switch p.cur().Kind {
	case token.Assign:
		p.bump()
		lit := p.cur()
		if !lit.IsLiteral() {
			diag.ReportError(p.reporter, diag.SynBadLiteral, lit.Span,
				fmt.Sprintf("expected a literal after '=', found %q", lit.Text))
			return ast.Annotation{}, false
		}
		p.bump()
		ann.Kind = ast.AnnKeyValue
		ann.Value = lit
		ann.Span = ann.Span.Cover(lit.Span)

	case token.LParen:
		p.bump()
		items, ok := p.parseAnnotationList()
		if !ok {
			return ast.Annotation{}, false
		}
		closing, ok := p.expect(token.RParen, diag.SynUnbalancedDelimiter, "')'")
		if !ok {
			return ast.Annotation{}, false
		}
		ann.Kind = ast.AnnList
		ann.Items = items
		ann.Span = ann.Span.Cover(closing.Span)

	case token.Bang:
		bang := p.bump()
		ann.Kind = ast.AnnMacro
		ann.Span = ann.Span.Cover(bang.Span)
		if p.cur().Kind.IsOpenDelim() {
			group, ok := p.parseGroup()
			if !ok {
				return ast.Annotation{}, false
			}
			ann.Arg = &group
			ann.Span = ann.Span.Cover(group.Span)
		}
	}

	return ann, true
}

// parseAnnotationList parses comma-separated annotations up to (excluding)
// the closing ')'. Trailing commas are allowed.
func (p *Parser) parseAnnotationList() ([]ast.Annotation, bool) {
	var items []ast.Annotation
	for !p.at(token.RParen) && !p.at(token.EOF) {
		item, ok := p.parseAnnotation()
		if !ok {
			return nil, false
		}
		items = append(items, item)
		if p.at(token.Comma) {
			p.bump()
			continue
		}
		break
	}
	return items, true
}
