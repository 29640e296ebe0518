package render

import "github.com/yuin/goldmark/ast"

// findHeading reports the level of the nearest heading above this node,
// or zero when a thematic break (or the document start) intervenes.
func findHeading(node ast.Node) int {
	for sib := node.PreviousSibling(); sib != nil; sib = sib.PreviousSibling() {
		switch sib.Kind() {
		case ast.KindHeading:
			return sib.(*ast.Heading).Level
		case ast.KindThematicBreak:
			return 0
		}
	}
	return 0
}
